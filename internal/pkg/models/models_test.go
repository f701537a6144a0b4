package models

import (
	"math"
	"testing"
)

func TestPriceQuote_Margin(t *testing.T) {
	tests := []struct {
		name string
		q    PriceQuote
		want float64
		ok   bool
	}{
		{"even book", PriceQuote{Home: 2.0, Draw: 3.0, Away: 4.0}, 1.0/2 + 1.0/3 + 1.0/4 - 1, true},
		{"zero margin", PriceQuote{Home: 3.0, Draw: 3.0, Away: 3.0}, 0, true},
		{"missing draw", PriceQuote{Home: 2.0, Away: 4.0}, 0, false},
		{"all zero", PriceQuote{}, 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.q.Margin()
		if ok != tt.ok {
			t.Errorf("%s: Margin() ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: Margin() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPriceQuote_MarginExample(t *testing.T) {
	// 1/2 + 1/3 + 1/4 - 1 = 0.0833 (8.33%)
	q := PriceQuote{Home: 2.0, Draw: 3.0, Away: 4.0}
	got, ok := q.Margin()
	if !ok {
		t.Fatal("expected margin to be computable")
	}
	if math.Abs(got-0.083333) > 0.0001 {
		t.Errorf("Margin() = %v, want ~0.0833", got)
	}
}

func TestPriceQuote_HasAnyPrice(t *testing.T) {
	if (PriceQuote{}).HasAnyPrice() {
		t.Error("all-zero quote should not have any price")
	}
	if !(PriceQuote{Draw: 3.1}).HasAnyPrice() {
		t.Error("quote with one positive price should count")
	}
}

func TestAggregatedFixture_Eligible(t *testing.T) {
	f := AggregatedFixture{SourceQuotes: map[string]PriceQuote{
		"a": {Home: 2.0},
	}}
	if f.Eligible() {
		t.Error("single-source fixture must not be eligible")
	}
	f.SourceQuotes["b"] = PriceQuote{Home: 2.1}
	if !f.Eligible() {
		t.Error("two-source fixture must be eligible")
	}
}
