// Package bracket classifies a deck's power level into brackets 1-5 by
// matching its card names against fixed category catalogs and a table of
// known two-card combos, then applying per-bracket allowances.
package bracket

import (
	"fmt"
	"strings"
)

// noLimit marks a category a bracket does not restrict.
const noLimit = -1

// requirements is one row of the per-bracket allowance table.
type requirements struct {
	bracket           int
	maxGameChangers   int
	maxMassLandDenial int
	maxExtraTurns     int
	maxTutors         int
	allowChaining     bool
	allowEarlyCombos  bool
}

// bracketTable is scanned from bracket 1 upward; the first row the deck
// fits determines the minimum bracket. Brackets 4 and 5 are unrestricted
// and differ only by player intent, so every deck fits bracket 4 at worst.
var bracketTable = []requirements{
	{bracket: 1, maxGameChangers: 0, maxMassLandDenial: 0, maxExtraTurns: 1, maxTutors: 2},
	{bracket: 2, maxGameChangers: 0, maxMassLandDenial: 0, maxExtraTurns: 3, maxTutors: 4},
	{bracket: 3, maxGameChangers: 3, maxMassLandDenial: 0, maxExtraTurns: 6, maxTutors: 8},
	{bracket: 4, maxGameChangers: noLimit, maxMassLandDenial: noLimit, maxExtraTurns: noLimit, maxTutors: noLimit, allowChaining: true, allowEarlyCombos: true},
	{bracket: 5, maxGameChangers: noLimit, maxMassLandDenial: noLimit, maxExtraTurns: noLimit, maxTutors: noLimit, allowChaining: true, allowEarlyCombos: true},
}

// Power score thresholds for the recommended bracket.
const (
	powerBracket4 = 800
	powerBracket3 = 650
	powerBracket2 = 500
)

// Details carries the human-readable explanation of a classification.
type Details struct {
	MinimumBracketReason      string   `json:"minimum_bracket_reason"`
	RecommendedBracketReason  string   `json:"recommended_bracket_reason"`
	BracketRequirementsFailed []string `json:"bracket_requirements_failed"`
}

// Analysis is the full result of classifying one deck.
type Analysis struct {
	MassLandDenial     []string     `json:"mass_land_denial"`
	ExtraTurns         []string     `json:"extra_turns"`
	Tutors             []string     `json:"tutors"`
	GameChangers       []string     `json:"game_changers"`
	TwoCardCombos      []ComboMatch `json:"two_card_combos"`
	MinimumBracket     int          `json:"minimum_bracket"`
	RecommendedBracket int          `json:"recommended_bracket"`
	Details            Details      `json:"details"`
}

// Classifier scans decks against a catalog set.
type Classifier struct {
	catalogs *Catalogs
}

// NewClassifier creates a classifier. A nil catalogs uses the defaults.
func NewClassifier(catalogs *Catalogs) *Classifier {
	if catalogs == nil {
		catalogs = DefaultCatalogs()
	}
	return &Classifier{catalogs: catalogs}
}

// Classify analyzes the deck's card names and derives the minimum and
// recommended brackets. powerScore is an optional externally computed
// score; nil means no score is available. The input may carry duplicate
// names; detection de-duplicates, so multiplicity never changes results.
func (c *Classifier) Classify(cardNames []string, powerScore *float64) *Analysis {
	h := c.catalogs.scan(cardNames)

	a := &Analysis{
		MassLandDenial: emptyIfNil(h.massLandDenial),
		ExtraTurns:     emptyIfNil(h.extraTurns),
		Tutors:         emptyIfNil(h.tutors),
		GameChangers:   emptyIfNil(h.gameChangers),
		TwoCardCombos:  h.combos,
	}
	if a.TwoCardCombos == nil {
		a.TwoCardCombos = []ComboMatch{}
	}

	failed := []string{}
	a.MinimumBracket = bracketTable[len(bracketTable)-1].bracket
	for _, req := range bracketTable {
		reasons := c.failures(req, h)
		if len(reasons) == 0 {
			a.MinimumBracket = req.bracket
			break
		}
		failed = append(failed, reasons...)
	}
	a.Details.BracketRequirementsFailed = failed
	a.Details.MinimumBracketReason = c.minimumReason(a.MinimumBracket, h)

	a.RecommendedBracket = a.MinimumBracket
	a.Details.RecommendedBracketReason = fmt.Sprintf("no power score supplied; recommending the minimum bracket %d", a.MinimumBracket)
	if powerScore != nil {
		mapped := mapPowerScore(*powerScore)
		if mapped > a.MinimumBracket {
			a.RecommendedBracket = mapped
			a.Details.RecommendedBracketReason = fmt.Sprintf("power score %.0f maps to bracket %d", *powerScore, mapped)
		} else {
			a.Details.RecommendedBracketReason = fmt.Sprintf("power score %.0f does not raise the minimum bracket %d", *powerScore, a.MinimumBracket)
		}
	}

	return a
}

// failures lists every requirement of req the deck breaks. Empty means the
// deck fits this bracket.
func (c *Classifier) failures(req requirements, h *holdings) []string {
	var reasons []string

	exceeds := func(count, max int, category string) {
		if max != noLimit && count > max {
			reasons = append(reasons, fmt.Sprintf("bracket %d: %d %s exceeds maximum of %d", req.bracket, count, category, max))
		}
	}

	exceeds(len(h.gameChangers), req.maxGameChangers, "game changers")
	exceeds(len(h.massLandDenial), req.maxMassLandDenial, "mass land denial cards")
	exceeds(len(h.extraTurns), req.maxExtraTurns, "extra turn cards")
	exceeds(len(h.tutors), req.maxTutors, "tutors")

	if h.usesChaining && !req.allowChaining {
		reasons = append(reasons, fmt.Sprintf("bracket %d: extra-turn chaining cards are not allowed", req.bracket))
	}
	if h.hasEarlyCombo && !req.allowEarlyCombos {
		reasons = append(reasons, fmt.Sprintf("bracket %d: early-game two-card combos are not allowed", req.bracket))
	}

	return reasons
}

// minimumReason synthesizes a description of which categories placed the
// deck at its minimum bracket, comparing each non-zero count against the
// next lower bracket's allowance.
func (c *Classifier) minimumReason(minimum int, h *holdings) string {
	counts := []struct {
		count    int
		category string
		lowerMax func(requirements) int
	}{
		{len(h.gameChangers), "game changers", func(r requirements) int { return r.maxGameChangers }},
		{len(h.massLandDenial), "mass land denial cards", func(r requirements) int { return r.maxMassLandDenial }},
		{len(h.extraTurns), "extra turn cards", func(r requirements) int { return r.maxExtraTurns }},
		{len(h.tutors), "tutors", func(r requirements) int { return r.maxTutors }},
	}

	var parts []string
	for _, entry := range counts {
		if entry.count == 0 {
			continue
		}
		if minimum > 1 {
			lower := bracketTable[minimum-2]
			max := entry.lowerMax(lower)
			if max != noLimit && entry.count > max {
				parts = append(parts, fmt.Sprintf("%d %s (exceeds bracket %d allowance of %d)", entry.count, entry.category, lower.bracket, max))
				continue
			}
			parts = append(parts, fmt.Sprintf("%d %s (within bracket %d allowance)", entry.count, entry.category, lower.bracket))
			continue
		}
		parts = append(parts, fmt.Sprintf("%d %s", entry.count, entry.category))
	}
	if h.usesChaining {
		parts = append(parts, "extra-turn chaining cards")
	}
	if h.hasEarlyCombo {
		parts = append(parts, "early-game two-card combos")
	}

	if len(parts) == 0 {
		return fmt.Sprintf("no tracked categories present; deck fits bracket %d", minimum)
	}
	return fmt.Sprintf("minimum bracket %d: deck contains %s", minimum, strings.Join(parts, ", "))
}

// mapPowerScore translates an external power score into a bracket floor.
// Scores below every threshold leave the recommendation unchanged.
func mapPowerScore(score float64) int {
	switch {
	case score >= powerBracket4:
		return 4
	case score >= powerBracket3:
		return 3
	case score >= powerBracket2:
		return 2
	default:
		return 0
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
