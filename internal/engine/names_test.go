package engine

import (
	"testing"
)

func TestNormalizeTeamsKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Arsenal vs Chelsea", "arsenal vs chelsea"},
		{"Arsenal v Chelsea", "arsenal vs chelsea"},
		{"Arsenal - Chelsea", "arsenal vs chelsea"},
		{"Arsenal @ Chelsea", "arsenal vs chelsea"},
		{"Gor Mahia FC vs AFC Leopards", "gormahia vs leopards"},
		{"Real Madrid vs FC Barcelona", "realmadrid vs barcelona"},
		{"Man Utd vs Spurs", "manchesterunited vs tottenham"},
		{"Ajax U21 vs PSV Reserves", "ajax vs psv"},
		{"Arsenal Women vs Chelsea Ladies", "arsenal vs chelsea"},
		{"'Arsenal' vs \"Chelsea\"", "arsenal vs chelsea"},
		{"Hearts of Oak (GH) vs Asante Kotoko", "heartsofoak vs asantekotoko"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTeamsKey(tt.in); got != tt.want {
			t.Errorf("NormalizeTeamsKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTeamsKey_SameMatchDifferentSpellings(t *testing.T) {
	// Two sources spelling the same fixture differently must land on the
	// same key.
	a := NormalizeTeamsKey("Gor Mahia FC - AFC Leopards")
	b := NormalizeTeamsKey("Gor Mahia vs Leopards SC")
	if a == "" || a != b {
		t.Errorf("same fixture should share a key: %q vs %q", a, b)
	}
}

func TestSwapTeamsKey(t *testing.T) {
	key := NormalizeTeamsKey("Arsenal vs Chelsea")
	swapped, ok := SwapTeamsKey(key)
	if !ok {
		t.Fatal("expected a swappable key")
	}
	if swapped != "chelsea vs arsenal" {
		t.Errorf("SwapTeamsKey(%q) = %q, want %q", key, swapped, "chelsea vs arsenal")
	}

	// Swapping is its own inverse.
	back, ok := SwapTeamsKey(swapped)
	if !ok || back != key {
		t.Errorf("double swap should restore the key: got %q, want %q", back, key)
	}

	if _, ok := SwapTeamsKey("nonseparated"); ok {
		t.Error("key without separator must not be swappable")
	}
}

func TestNormalizeTeamsKey_OrderSymmetry(t *testing.T) {
	// "Arsenal vs Chelsea" and "Chelsea vs Arsenal" are mutually
	// derivable via the swapped key even though the raw strings differ.
	forward := NormalizeTeamsKey("Arsenal vs Chelsea")
	reversed := NormalizeTeamsKey("Chelsea vs Arsenal")

	swapped, ok := SwapTeamsKey(forward)
	if !ok || swapped != reversed {
		t.Errorf("swapped forward key %q should equal reversed key %q", swapped, reversed)
	}
}

func TestDisplayTeams(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Arsenal - Chelsea", "Arsenal vs Chelsea"},
		{"  Gor  Mahia   vs  Leopards ", "Gor Mahia vs Leopards"},
		{"Hearts @ Kotoko", "Hearts vs Kotoko"},
	}
	for _, tt := range tests {
		if got := DisplayTeams(tt.in); got != tt.want {
			t.Errorf("DisplayTeams(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
