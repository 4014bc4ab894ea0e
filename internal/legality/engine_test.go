package legality

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/pioneerdh/deckcheck/internal/cards"
	"github.com/pioneerdh/deckcheck/internal/decklist"
	"github.com/pioneerdh/deckcheck/internal/rules"
)

// fakeStore is an in-memory CardStore for tests.
type fakeStore struct {
	records []*cards.Card
}

func (f *fakeStore) FindByName(name string) []*cards.Card {
	var out []*cards.Card
	for _, c := range f.records {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeStore) FindByFaceName(name string) []*cards.Card {
	var out []*cards.Card
	for _, c := range f.records {
		if c.Name == name {
			continue
		}
		for _, face := range c.FaceNames {
			if face == name {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func creature(name string, identity ...string) *cards.Card {
	return &cards.Card{
		Name:          name,
		TypeLine:      "Legendary Creature — Test",
		Layout:        "normal",
		ColorIdentity: identity,
		PioneerLegal:  true,
	}
}

func spell(name string, identity ...string) *cards.Card {
	return &cards.Card{
		Name:          name,
		TypeLine:      "Instant",
		Layout:        "normal",
		ColorIdentity: identity,
		PioneerLegal:  true,
	}
}

func basic(name string, identity ...string) *cards.Card {
	return &cards.Card{
		Name:          name,
		TypeLine:      "Basic Land — " + name,
		Layout:        "normal",
		ColorIdentity: identity,
		PioneerLegal:  true,
	}
}

func emptyRules() rules.Provider {
	return rules.Static(&rules.Rules{
		Banned:              rules.NewNameSet(),
		Allowed:             rules.NewNameSet(),
		SingletonExceptions: rules.NewNameSet(),
	})
}

// legalDeck builds a 100-card deck led by Niv-Mizzet together with a store
// that resolves every entry: 39 distinct U/R spells plus 30 Islands and 30
// Mountains.
func legalDeck() (*decklist.DeckList, *fakeStore) {
	store := &fakeStore{records: []*cards.Card{
		creature("Niv-Mizzet, Parun", "U", "R"),
		basic("Island", "U"),
		basic("Mountain", "R"),
	}}

	deck := &decklist.DeckList{
		Commander: decklist.Entry{Name: "Niv-Mizzet, Parun", Quantity: 1},
	}
	for i := 0; i < 39; i++ {
		name := fmt.Sprintf("Izzet Spell %d", i)
		identity := "U"
		if i%2 == 1 {
			identity = "R"
		}
		store.records = append(store.records, spell(name, identity))
		deck.MainDeck = append(deck.MainDeck, decklist.Entry{Name: name, Quantity: 1})
	}
	deck.MainDeck = append(deck.MainDeck,
		decklist.Entry{Name: "Island", Quantity: 30},
		decklist.Entry{Name: "Mountain", Quantity: 30},
	)

	return deck, store
}

func TestLegalDeck(t *testing.T) {
	deck, store := legalDeck()
	engine := NewEngine(store, emptyRules())

	v := engine.Evaluate(deck)

	if !v.Legal {
		t.Fatalf("Legal = false, verdict: %+v", v)
	}
	if v.DeckSize != 100 {
		t.Errorf("DeckSize = %d, want 100", v.DeckSize)
	}
	issues := v.Issues
	for name, field := range map[string]*string{
		"size":           issues.Size,
		"commander":      issues.Commander,
		"commander_type": issues.CommanderType,
		"color_identity": issues.ColorIdentity,
		"singleton":      issues.Singleton,
		"illegal_cards":  issues.IllegalCards,
	} {
		if field != nil {
			t.Errorf("issue %s = %q, want nil", name, *field)
		}
	}
}

func TestSizeInvariant(t *testing.T) {
	deck, store := legalDeck()
	// Inflate one basic-land line: 30 -> 51 Islands makes 121 cards.
	for i := range deck.MainDeck {
		if deck.MainDeck[i].Name == "Island" {
			deck.MainDeck[i].Quantity = 51
		}
	}
	engine := NewEngine(store, emptyRules())

	v := engine.Evaluate(deck)

	if v.Legal {
		t.Error("Legal = true for oversized deck")
	}
	if v.DeckSize != 121 {
		t.Errorf("DeckSize = %d, want 121", v.DeckSize)
	}
	if v.Issues.Size == nil {
		t.Error("Issues.Size = nil, want message")
	}
	// All other checks are still computed and still pass.
	if v.Issues.Singleton != nil || v.Issues.ColorIdentity != nil || v.Issues.IllegalCards != nil {
		t.Errorf("unrelated issues set: %+v", v.Issues)
	}
}

func TestSingletonAggregation(t *testing.T) {
	store := &fakeStore{records: []*cards.Card{
		creature("Karlov of the Ghost Council", "W", "B"),
		spell("Rat Colony", "B"),
	}}
	deck := &decklist.DeckList{
		Commander: decklist.Entry{Name: "Karlov of the Ghost Council", Quantity: 1},
		MainDeck: []decklist.Entry{
			{Name: "Rat Colony", Quantity: 1},
			{Name: "Rat Colony", Quantity: 1},
		},
	}

	t.Run("exception card may repeat", func(t *testing.T) {
		engine := NewEngine(store, rules.Static(&rules.Rules{
			Banned:              rules.NewNameSet(),
			Allowed:             rules.NewNameSet(),
			SingletonExceptions: rules.NewNameSet("Rat Colony"),
		}))

		v := engine.Evaluate(deck)
		if len(v.NonSingletonCards) != 0 {
			t.Errorf("NonSingletonCards = %v, want none", v.NonSingletonCards)
		}
		if v.Issues.Singleton != nil {
			t.Errorf("Issues.Singleton = %q, want nil", *v.Issues.Singleton)
		}
	})

	t.Run("same name on two lines is summed", func(t *testing.T) {
		engine := NewEngine(store, emptyRules())

		v := engine.Evaluate(deck)
		if !reflect.DeepEqual(v.NonSingletonCards, []string{"Rat Colony"}) {
			t.Errorf("NonSingletonCards = %v, want exactly one Rat Colony entry", v.NonSingletonCards)
		}
		if v.Issues.Singleton == nil {
			t.Error("Issues.Singleton = nil, want message")
		}
	})
}

func TestColorIdentitySubset(t *testing.T) {
	store := &fakeStore{records: []*cards.Card{
		creature("Giada, Font of Hope", "W"),
		spell("Azorius Charm", "W", "U"),
		spell("Ornithopter"),
	}}
	deck := &decklist.DeckList{
		Commander: decklist.Entry{Name: "Giada, Font of Hope", Quantity: 1},
		MainDeck: []decklist.Entry{
			{Name: "Azorius Charm", Quantity: 1},
			{Name: "Ornithopter", Quantity: 1},
		},
	}
	engine := NewEngine(store, emptyRules())

	v := engine.Evaluate(deck)

	if !reflect.DeepEqual(v.ColorIdentityViolations, []string{"Azorius Charm"}) {
		t.Errorf("ColorIdentityViolations = %v, want [Azorius Charm]", v.ColorIdentityViolations)
	}
	if v.Issues.ColorIdentity == nil {
		t.Error("Issues.ColorIdentity = nil, want message")
	}
}

func TestColorlessCommanderAllowsOnlyColorless(t *testing.T) {
	store := &fakeStore{records: []*cards.Card{
		creature("Traxos, Scourge of Kroog"),
		spell("Ornithopter"),
		spell("Shock", "R"),
	}}
	deck := &decklist.DeckList{
		Commander: decklist.Entry{Name: "Traxos, Scourge of Kroog", Quantity: 1},
		MainDeck: []decklist.Entry{
			{Name: "Ornithopter", Quantity: 1},
			{Name: "Shock", Quantity: 1},
		},
	}
	engine := NewEngine(store, emptyRules())

	v := engine.Evaluate(deck)

	if !reflect.DeepEqual(v.ColorIdentityViolations, []string{"Shock"}) {
		t.Errorf("ColorIdentityViolations = %v, want [Shock]", v.ColorIdentityViolations)
	}
}

func TestAllowBanOverrides(t *testing.T) {
	notPioneerLegal := &cards.Card{
		Name:          "Treasure Cruise",
		TypeLine:      "Sorcery",
		Layout:        "normal",
		ColorIdentity: []string{"U"},
		PioneerLegal:  false,
	}
	store := &fakeStore{records: []*cards.Card{
		creature("Niv-Mizzet, Parun", "U", "R"),
		notPioneerLegal,
		spell("Opt", "U"),
	}}
	deck := &decklist.DeckList{
		Commander: decklist.Entry{Name: "Niv-Mizzet, Parun", Quantity: 1},
		MainDeck: []decklist.Entry{
			{Name: "Treasure Cruise", Quantity: 1},
			{Name: "Opt", Quantity: 1},
		},
	}

	tests := []struct {
		name        string
		banned      *rules.NameSet
		allowed     *rules.NameSet
		wantIllegal []string
	}{
		{
			name:        "allow list overrides missing pioneer legality",
			banned:      rules.NewNameSet(),
			allowed:     rules.NewNameSet("Treasure Cruise"),
			wantIllegal: []string{},
		},
		{
			name:        "ban list revokes pioneer legality",
			banned:      rules.NewNameSet("Opt"),
			allowed:     rules.NewNameSet("Treasure Cruise"),
			wantIllegal: []string{"Opt"},
		},
		{
			name:        "neither list falls back to the pioneer flag",
			banned:      rules.NewNameSet(),
			allowed:     rules.NewNameSet(),
			wantIllegal: []string{"Treasure Cruise"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(store, rules.Static(&rules.Rules{
				Banned:              tt.banned,
				Allowed:             tt.allowed,
				SingletonExceptions: rules.NewNameSet(),
			}))

			v := engine.Evaluate(deck)
			if !reflect.DeepEqual(v.IllegalCards, tt.wantIllegal) {
				t.Errorf("IllegalCards = %v, want %v", v.IllegalCards, tt.wantIllegal)
			}
		})
	}
}

func TestDFCResolution(t *testing.T) {
	dfc := &cards.Card{
		Name:          "Fable of the Mirror-Breaker // Reflection of Kiki-Jiki",
		TypeLine:      "Enchantment — Saga // Enchantment Creature — Goblin Shaman",
		Layout:        "transform",
		ColorIdentity: []string{"R"},
		PioneerLegal:  true,
		FaceNames:     []string{"Fable of the Mirror-Breaker", "Reflection of Kiki-Jiki"},
	}
	store := &fakeStore{records: []*cards.Card{
		creature("Niv-Mizzet, Parun", "U", "R"),
		dfc,
	}}

	for _, face := range dfc.FaceNames {
		t.Run(face, func(t *testing.T) {
			deck := &decklist.DeckList{
				Commander: decklist.Entry{Name: "Niv-Mizzet, Parun", Quantity: 1},
				MainDeck:  []decklist.Entry{{Name: face, Quantity: 1}},
			}
			engine := NewEngine(store, emptyRules())

			v := engine.Evaluate(deck)
			if len(v.IllegalCards) != 0 {
				t.Errorf("IllegalCards = %v, face name should resolve to owning card", v.IllegalCards)
			}
			if len(v.ColorIdentityViolations) != 0 {
				t.Errorf("ColorIdentityViolations = %v, resolved card identity should apply", v.ColorIdentityViolations)
			}
		})
	}
}

func TestTokensNeverResolve(t *testing.T) {
	store := &fakeStore{records: []*cards.Card{
		creature("Niv-Mizzet, Parun", "U", "R"),
		{Name: "Treasure", TypeLine: "Token Artifact — Treasure", Layout: "token", PioneerLegal: true},
	}}
	deck := &decklist.DeckList{
		Commander: decklist.Entry{Name: "Niv-Mizzet, Parun", Quantity: 1},
		MainDeck:  []decklist.Entry{{Name: "Treasure", Quantity: 1}},
	}
	engine := NewEngine(store, emptyRules())

	v := engine.Evaluate(deck)
	if !reflect.DeepEqual(v.IllegalCards, []string{"Treasure"}) {
		t.Errorf("IllegalCards = %v, token-only names must not resolve", v.IllegalCards)
	}
}

func TestTokenSharingNameWithPhysicalCard(t *testing.T) {
	store := &fakeStore{records: []*cards.Card{
		creature("Niv-Mizzet, Parun", "U", "R"),
		{Name: "Llanowar Elves", TypeLine: "Token Creature — Elf Druid", Layout: "token", PioneerLegal: true},
		{Name: "Llanowar Elves", TypeLine: "Creature — Elf Druid", Layout: "normal", ColorIdentity: []string{"G"}, PioneerLegal: true},
	}}
	deck := &decklist.DeckList{
		Commander: decklist.Entry{Name: "Niv-Mizzet, Parun", Quantity: 1},
		MainDeck:  []decklist.Entry{{Name: "Llanowar Elves", Quantity: 1}},
	}
	engine := NewEngine(store, emptyRules())

	v := engine.Evaluate(deck)
	// The non-token record wins resolution, so the card is legal but
	// violates Niv-Mizzet's color identity.
	if len(v.IllegalCards) != 0 {
		t.Errorf("IllegalCards = %v, non-token record should be preferred", v.IllegalCards)
	}
	if !reflect.DeepEqual(v.ColorIdentityViolations, []string{"Llanowar Elves"}) {
		t.Errorf("ColorIdentityViolations = %v", v.ColorIdentityViolations)
	}
}

func TestCommanderNotFound(t *testing.T) {
	store := &fakeStore{records: []*cards.Card{
		spell("Shock", "R"),
		spell("Shock", "R"), // second print, same name
	}}
	deck := &decklist.DeckList{
		Commander: decklist.Entry{Name: "Unknown Commander", Quantity: 1},
		MainDeck: []decklist.Entry{
			{Name: "Shock", Quantity: 2},
		},
	}
	engine := NewEngine(store, emptyRules())

	v := engine.Evaluate(deck)

	if v.Legal {
		t.Error("Legal = true with unresolvable commander")
	}
	if v.Issues.Commander == nil {
		t.Error("Issues.Commander = nil, want message")
	}
	// Structural diagnostics still run: the commander name lands in
	// IllegalCards and the two Shock copies trip the singleton check.
	if !reflect.DeepEqual(v.IllegalCards, []string{"Unknown Commander"}) {
		t.Errorf("IllegalCards = %v", v.IllegalCards)
	}
	if !reflect.DeepEqual(v.NonSingletonCards, []string{"Shock"}) {
		t.Errorf("NonSingletonCards = %v", v.NonSingletonCards)
	}
	// No commander identity to judge against, so no color violations.
	if len(v.ColorIdentityViolations) != 0 {
		t.Errorf("ColorIdentityViolations = %v, want none", v.ColorIdentityViolations)
	}
}

func TestNonCreatureCommander(t *testing.T) {
	store := &fakeStore{records: []*cards.Card{
		{Name: "Jace, Vryn's Prodigy", TypeLine: "Legendary Planeswalker — Jace", Layout: "normal", ColorIdentity: []string{"U"}, PioneerLegal: true},
	}}
	deck := &decklist.DeckList{
		Commander: decklist.Entry{Name: "Jace, Vryn's Prodigy", Quantity: 1},
	}
	engine := NewEngine(store, emptyRules())

	v := engine.Evaluate(deck)
	if v.Legal {
		t.Error("Legal = true with non-creature commander")
	}
	if v.Issues.CommanderType == nil {
		t.Error("Issues.CommanderType = nil, want message")
	}
	if v.Issues.Commander != nil {
		t.Errorf("Issues.Commander = %q, commander itself is legal", *v.Issues.Commander)
	}
}

func TestIllegalAndNonSingletonBothReported(t *testing.T) {
	store := &fakeStore{records: []*cards.Card{
		creature("Niv-Mizzet, Parun", "U", "R"),
		{Name: "Treasure Cruise", TypeLine: "Sorcery", Layout: "normal", ColorIdentity: []string{"U"}, PioneerLegal: false},
	}}
	deck := &decklist.DeckList{
		Commander: decklist.Entry{Name: "Niv-Mizzet, Parun", Quantity: 1},
		MainDeck: []decklist.Entry{
			{Name: "Treasure Cruise", Quantity: 2},
		},
	}
	engine := NewEngine(store, emptyRules())

	v := engine.Evaluate(deck)
	if !reflect.DeepEqual(v.IllegalCards, []string{"Treasure Cruise"}) {
		t.Errorf("IllegalCards = %v", v.IllegalCards)
	}
	if !reflect.DeepEqual(v.NonSingletonCards, []string{"Treasure Cruise"}) {
		t.Errorf("NonSingletonCards = %v", v.NonSingletonCards)
	}
}

func TestEmptyStoreDegradesToAllIllegal(t *testing.T) {
	store := &fakeStore{}
	deck := &decklist.DeckList{
		Commander: decklist.Entry{Name: "Niv-Mizzet, Parun", Quantity: 1},
		MainDeck:  []decklist.Entry{{Name: "Shock", Quantity: 1}},
	}
	engine := NewEngine(store, emptyRules())

	v := engine.Evaluate(deck)
	if v.Legal {
		t.Error("Legal = true with empty store")
	}
	if len(v.IllegalCards) != 2 {
		t.Errorf("IllegalCards = %v, want both names", v.IllegalCards)
	}
}

func TestIdempotence(t *testing.T) {
	deck, store := legalDeck()
	deck.MainDeck[0].Quantity = 3 // trip singleton + size so lists are populated
	engine := NewEngine(store, emptyRules())

	first := engine.Evaluate(deck)
	second := engine.Evaluate(deck)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("verdicts differ between identical evaluations:\n%+v\n%+v", first, second)
	}
}
