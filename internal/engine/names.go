package engine

import (
	"strings"
)

// teamsSeparator is the canonical separator between the two team names.
const teamsSeparator = " vs "

// separatorVariants are the team separators observed across sources,
// unified to " vs " before any further normalization.
var separatorVariants = []string{" v ", " - ", " — ", " – ", " @ ", " vs. "}

// punctReplacer strips quote and bracket punctuation that sources wrap
// around team names and qualifiers.
var punctReplacer = strings.NewReplacer(
	`"`, "", "'", "", "`", "", "’", "", "‘", "", "“", "", "”", "",
	"(", " ", ")", " ", "[", " ", "]", " ", "{", " ", "}", " ",
)

// teamAliases maps well-known nicknames and short forms to the club
// name the majority of sources use. Applied in order, before qualifier
// stripping, so later entries may rely on earlier rewrites.
var teamAliases = []struct{ from, to string }{
	{"man utd", "manchester united"},
	{"man united", "manchester united"},
	{"man city", "manchester city"},
	{"sheff utd", "sheffield united"},
	{"sheff wed", "sheffield wednesday"},
	{"nottm forest", "nottingham forest"},
	{"wolves", "wolverhampton"},
	{"spurs", "tottenham"},
	{"inter milan", "inter"},
	{"psg", "paris saint germain"},
	{"leopards sc", "afc leopards"},
	{"gormahia", "gor mahia"},
}

// qualifierTokens are suffix and qualifier tokens dropped from each team
// name: club-type abbreviations, youth/reserve/gender qualifiers and
// country tags. Dropped only as whole tokens, never as substrings.
var qualifierTokens = map[string]bool{
	// club type
	"fc": true, "cf": true, "sc": true, "ac": true, "as": true,
	"afc": true, "fk": true, "bk": true, "sk": true, "nk": true,
	"cd": true, "ud": true, "ssc": true, "club": true,
	// youth / reserves
	"u17": true, "u19": true, "u20": true, "u21": true, "u23": true,
	"ii": true, "youth": true, "reserve": true, "reserves": true,
	"academy": true,
	// gender
	"women": true, "ladies": true, "fem": true,
	// country tags left behind by bracket stripping
	"gh": true, "ke": true, "ng": true, "tz": true, "ug": true,
}

// NormalizeTeamsKey derives the order-sensitive normalized name key for
// a teams label. The swapped-order key is derivable from the result via
// SwapTeamsKey, so a fixture matches regardless of which side a source
// lists first. Returns "" when no usable key can be built.
func NormalizeTeamsKey(teams string) string {
	s := strings.ToLower(strings.TrimSpace(teams))
	if s == "" {
		return ""
	}

	for _, sep := range separatorVariants {
		s = strings.Replace(s, sep, teamsSeparator, 1)
	}
	s = punctReplacer.Replace(s)

	for _, a := range teamAliases {
		s = strings.ReplaceAll(s, a.from, a.to)
	}

	if i := strings.Index(s, teamsSeparator); i >= 0 {
		home := normalizeTeamHalf(s[:i])
		away := normalizeTeamHalf(s[i+len(teamsSeparator):])
		if home == "" || away == "" {
			return ""
		}
		return home + teamsSeparator + away
	}
	return squashName(s)
}

// SwapTeamsKey returns the key with the two team halves exchanged.
// Reports false when the key has no separator to swap around.
func SwapTeamsKey(key string) (string, bool) {
	i := strings.Index(key, teamsSeparator)
	if i < 0 {
		return "", false
	}
	home := key[:i]
	away := key[i+len(teamsSeparator):]
	return away + teamsSeparator + home, true
}

// normalizeTeamHalf drops qualifier tokens from one team name, then
// squashes what remains. A name consisting only of qualifier tokens is
// kept as-is rather than erased.
func normalizeTeamHalf(s string) string {
	fields := strings.Fields(s)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if !qualifierTokens[strings.Trim(f, ".")] {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		kept = fields
	}
	return squashName(strings.Join(kept, " "))
}

// squashName removes whitespace and any remaining punctuation, keeping
// letters and digits only.
func squashName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ' ' {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r > 127 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DisplayTeams canonicalizes a teams label for display and persistence
// lookups: separators unified to " vs ", whitespace collapsed, original
// casing kept.
func DisplayTeams(teams string) string {
	s := strings.TrimSpace(teams)
	for _, sep := range separatorVariants {
		s = strings.Replace(s, sep, teamsSeparator, 1)
	}
	return strings.Join(strings.Fields(s), " ")
}
