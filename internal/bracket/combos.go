package bracket

import "strings"

// earlyGameComboCost is the combined mana value below which a two-card
// combo counts as assemblable in the early game.
const earlyGameComboCost = 8

// comboKey identifies an unordered pair of card names, lowercased and
// ordered lexicographically so either lookup order hits the same entry.
type comboKey struct {
	a, b string
}

func newComboKey(x, y string) comboKey {
	x = strings.ToLower(x)
	y = strings.ToLower(y)
	if x > y {
		x, y = y, x
	}
	return comboKey{a: x, b: y}
}

// comboInfo describes a known two-card combo.
type comboInfo struct {
	Description string
	TotalCost   int
}

// ComboMatch is a combo found in a deck.
type ComboMatch struct {
	Cards       [2]string `json:"cards"`
	IsEarlyGame bool      `json:"is_early_game"`
}

// comboTable returns the fixed catalog of known two-card combos. This is a
// curated shortlist of famous pairings, not a general combo solver.
func comboTable() map[comboKey]comboInfo {
	table := map[comboKey]comboInfo{}
	add := func(a, b, description string, totalCost int) {
		table[newComboKey(a, b)] = comboInfo{Description: description, TotalCost: totalCost}
	}

	add("Thassa's Oracle", "Demonic Consultation", "exile the library and win with Oracle's trigger", 3)
	add("Thassa's Oracle", "Tainted Pact", "exile the library and win with Oracle's trigger", 4)
	add("Exquisite Blood", "Sanguine Bond", "infinite lifegain and drain loop", 10)
	add("Heliod, Sun-Crowned", "Walking Ballista", "infinite lifelink ping loop", 7)
	add("Kiki-Jiki, Mirror Breaker", "Zealous Conscripts", "infinite hasty token copies", 10)
	add("Kiki-Jiki, Mirror Breaker", "Felidar Guardian", "infinite hasty token copies", 9)
	add("Mikaeus, the Unhallowed", "Triskelion", "infinite undying damage loop", 12)
	add("Dramatic Reversal", "Isochron Scepter", "infinite untaps with mana rocks", 4)
	add("Witherbloom Apprentice", "Chain of Smog", "infinite copies drain each opponent", 4)
	add("Grindstone", "Painter's Servant", "mill every library", 3)
	add("Basalt Monolith", "Rings of Brighthearth", "infinite colorless mana", 8)
	add("Sanguine Bond", "Vito, Thorn of the Dusk Rose", "redundant drain engine pairing", 8)
	add("Food Chain", "Eternal Scourge", "infinite creature mana", 6)
	add("Rest in Peace", "Helm of Obedience", "exile every library", 6)
	add("Splinter Twin", "Deceiver Exarch", "infinite hasty token copies", 7)
	add("Nine Lives", "Solemnity", "damage prevention lock", 5)

	return table
}
