// Package cardstore holds the in-memory card reference snapshot queried by
// the legality engine. The store is read-mostly: evaluations take concurrent
// read locks while a refresh builds a complete replacement index off to the
// side and swaps it in under the write lock.
package cardstore

import (
	"sync"

	"github.com/pioneerdh/deckcheck/internal/cards"
)

// Store indexes card records by name and by face name.
type Store struct {
	mu sync.RWMutex

	// byName maps a primary card name to every record sharing it. Multiple
	// records per name are expected: reprints, and token/non-token pairs.
	byName map[string][]*cards.Card

	// byFace maps an individual face name of a multi-faced card to the
	// owning records, so a deck list citing "Front" or "Back" still resolves.
	byFace map[string][]*cards.Card

	count int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byName: make(map[string][]*cards.Card),
		byFace: make(map[string][]*cards.Card),
	}
}

// Replace swaps in a new snapshot built from the given records. Readers
// blocked on FindByName during the swap see either the old snapshot or the
// new one, never a mix.
func (s *Store) Replace(records []*cards.Card) {
	byName := make(map[string][]*cards.Card, len(records))
	byFace := make(map[string][]*cards.Card)

	for _, card := range records {
		byName[card.Name] = append(byName[card.Name], card)
		for _, face := range card.FaceNames {
			if face == card.Name {
				continue
			}
			byFace[face] = append(byFace[face], card)
		}
	}

	s.mu.Lock()
	s.byName = byName
	s.byFace = byFace
	s.count = len(records)
	s.mu.Unlock()
}

// FindByName returns every record whose primary name exactly equals name.
func (s *Store) FindByName(name string) []*cards.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byName[name]
}

// FindByFaceName returns every record with a face named exactly name.
func (s *Store) FindByFaceName(name string) []*cards.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byFace[name]
}

// Len returns the number of records in the current snapshot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
