// Package legality implements the deck construction rule engine for the
// Pioneer Commander format: 100 cards, singleton copies, color identity
// contained by the commander's, and per-card legality derived from the
// Pioneer legality flag with allow/ban list overrides.
package legality

import (
	"strings"

	"github.com/pioneerdh/deckcheck/internal/cards"
	"github.com/pioneerdh/deckcheck/internal/decklist"
	"github.com/pioneerdh/deckcheck/internal/rules"
)

// basicLands may appear in any number of copies.
var basicLands = map[string]struct{}{
	"Plains":   {},
	"Island":   {},
	"Swamp":    {},
	"Mountain": {},
	"Forest":   {},
	"Wastes":   {},
}

// CardStore is the read-only card reference snapshot the engine queries.
// FindByName may return multiple records for one name (reprints, or a
// token sharing a physical card's name).
type CardStore interface {
	FindByName(name string) []*cards.Card
	FindByFaceName(name string) []*cards.Card
}

// Engine evaluates deck lists against the construction rules. Evaluate is a
// pure function of the deck, the card store snapshot, and the current rule
// lists; concurrent evaluations are safe as long as the store is not
// mutated mid-read.
type Engine struct {
	store CardStore
	rules rules.Provider
}

// NewEngine creates a legality engine.
func NewEngine(store CardStore, provider rules.Provider) *Engine {
	return &Engine{store: store, rules: provider}
}

// Evaluate checks every construction rule and returns a full verdict. It
// never fails: unresolvable cards, structural violations, and empty stores
// all degrade to explicit verdict fields.
func (e *Engine) Evaluate(deck *decklist.DeckList) *Verdict {
	r := e.rules.Current()

	v := &Verdict{
		RequiredSize:            RequiredDeckSize,
		ColorIdentity:           []string{},
		IllegalCards:            []string{},
		ColorIdentityViolations: []string{},
		NonSingletonCards:       []string{},
	}

	commander := e.resolve(deck.Commander.Name)
	commanderFound := commander != nil
	commanderLegal := commanderFound
	commanderIsCreature := true

	if !commanderFound {
		v.Issues.Commander = issue("commander %q was not found", deck.Commander.Name)
	} else {
		v.ColorIdentity = commander.ColorIdentity

		if !strings.Contains(strings.ToLower(commander.TypeLine), "creature") {
			commanderIsCreature = false
			v.Issues.CommanderType = issue("commander %q is not a creature (%s)", commander.Name, commander.TypeLine)
		}

		if !e.isLegal(deck.Commander.Name, commander, r) {
			commanderLegal = false
			v.Issues.Commander = issue("commander %q is not legal in this format", deck.Commander.Name)
		}
	}

	// Per-card legality over the commander and every main-deck entry. Each
	// distinct failing name is reported once, however many copies it has.
	illegalSeen := make(map[string]struct{})
	flagIllegal := func(name string) {
		if _, ok := illegalSeen[name]; ok {
			return
		}
		illegalSeen[name] = struct{}{}
		v.IllegalCards = append(v.IllegalCards, name)
	}

	check := func(name string) *cards.Card {
		card := e.resolve(name)
		if card == nil || !e.isLegal(name, card, r) {
			flagIllegal(name)
		}
		return card
	}

	check(deck.Commander.Name)

	violationSeen := make(map[string]struct{})
	for _, entry := range deck.MainDeck {
		card := check(entry.Name)

		// Color identity is only judged against a resolved commander.
		if card == nil || !commanderFound {
			continue
		}
		if !subset(card.ColorIdentity, commander.ColorIdentity) {
			if _, ok := violationSeen[entry.Name]; !ok {
				violationSeen[entry.Name] = struct{}{}
				v.ColorIdentityViolations = append(v.ColorIdentityViolations, entry.Name)
			}
		}
	}

	if len(v.IllegalCards) > 0 {
		v.Issues.IllegalCards = issue("%d cards are not legal in this format", len(v.IllegalCards))
	}
	if len(v.ColorIdentityViolations) > 0 {
		v.Issues.ColorIdentity = issue("%d cards are outside the commander's color identity", len(v.ColorIdentityViolations))
	}

	e.checkSingleton(deck, r, v)

	// Size: actual quantities, commander line included.
	v.DeckSize = deck.Commander.Quantity
	for _, entry := range deck.MainDeck {
		v.DeckSize += entry.Quantity
	}
	if v.DeckSize != RequiredDeckSize {
		v.Issues.Size = issue("deck has %d cards, must have exactly %d", v.DeckSize, RequiredDeckSize)
	}

	v.Legal = v.Issues.Size == nil &&
		commanderFound && commanderLegal && commanderIsCreature &&
		v.Issues.ColorIdentity == nil &&
		v.Issues.Singleton == nil &&
		len(v.IllegalCards) == 0

	return v
}

// checkSingleton sums quantities per distinct name across all lines before
// comparing against the one-copy limit. The commander contributes exactly
// one copy regardless of its line's quantity. Basic lands and designated
// exception cards are exempt.
func (e *Engine) checkSingleton(deck *decklist.DeckList, r *rules.Rules, v *Verdict) {
	counts := make(map[string]int, len(deck.MainDeck)+1)
	order := make([]string, 0, len(deck.MainDeck)+1)

	add := func(name string, quantity int) {
		if _, ok := counts[name]; !ok {
			order = append(order, name)
		}
		counts[name] += quantity
	}

	add(deck.Commander.Name, 1)
	for _, entry := range deck.MainDeck {
		add(entry.Name, entry.Quantity)
	}

	for _, name := range order {
		if _, basic := basicLands[name]; basic {
			continue
		}
		if r.SingletonExceptions.Contains(name) {
			continue
		}
		if counts[name] > 1 {
			v.NonSingletonCards = append(v.NonSingletonCards, name)
		}
	}

	if len(v.NonSingletonCards) > 0 {
		v.Issues.Singleton = issue("%d cards have more than one copy", len(v.NonSingletonCards))
	}
}

// resolve finds the physical card record for a deck list name. Records that
// classify as tokens are never resolvable; when a name only matches card
// faces, resolution recurses on the owning card's primary name.
func (e *Engine) resolve(name string) *cards.Card {
	matches := e.store.FindByName(name)
	for _, c := range matches {
		if cards.Classify(c) == cards.KindPhysical {
			return c
		}
	}
	if len(matches) > 0 {
		// Only token records share this name.
		return nil
	}

	for _, owner := range e.store.FindByFaceName(name) {
		if cards.Classify(owner) != cards.KindPhysical {
			continue
		}
		if owner.Name == name {
			return owner
		}
		return e.resolve(owner.Name)
	}

	return nil
}

// isLegal applies the override precedence: the allow list grants legality
// outright, the ban list revokes it, and otherwise the Pioneer flag decides.
func (e *Engine) isLegal(name string, card *cards.Card, r *rules.Rules) bool {
	if r.Allowed.Contains(name) {
		return true
	}
	return card.PioneerLegal && !r.Banned.Contains(name)
}

// subset reports whether every color in identity is in allowed. The empty
// identity is a subset of everything; colorless cards fit any commander.
func subset(identity, allowed []string) bool {
	if len(identity) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(allowed))
	for _, c := range allowed {
		set[c] = struct{}{}
	}
	for _, c := range identity {
		if _, ok := set[c]; !ok {
			return false
		}
	}
	return true
}
