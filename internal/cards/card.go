// Package cards defines the trimmed card record the legality engine and
// bracket classifier read, plus the conversion from the Scryfall wire format.
package cards

import (
	"fmt"
	"strings"

	"github.com/pioneerdh/deckcheck/internal/cards/scryfall"
)

// Card is the compact reference record kept for every physical card print.
// It carries only the fields deck evaluation needs; everything else from the
// Scryfall snapshot is dropped at ingest.
type Card struct {
	Name          string   `json:"name"`
	TypeLine      string   `json:"type_line"`
	Layout        string   `json:"layout"` // "normal", "transform", "token", ...
	ColorIdentity []string `json:"color_identity"`
	PioneerLegal  bool     `json:"pioneer_legal"`

	// FaceNames holds the individual face names of a multi-faced card,
	// e.g. ["Fable of the Mirror-Breaker", "Reflection of Kiki-Jiki"] for a
	// card whose primary name is "Fable of the Mirror-Breaker // Reflection
	// of Kiki-Jiki". Empty for single-faced cards.
	FaceNames []string `json:"face_names,omitempty"`
}

// Kind classifies a record as a physical deck card or a token.
type Kind int

const (
	KindPhysical Kind = iota
	KindToken
)

// Classify reports whether a record is a physical card or a token.
// Tokens are identified by layout or by "token" appearing in the type line;
// they share names with physical cards but are never valid deck entries.
func Classify(c *Card) Kind {
	switch c.Layout {
	case "token", "double_faced_token":
		return KindToken
	}
	if strings.Contains(strings.ToLower(c.TypeLine), "token") {
		return KindToken
	}
	return KindPhysical
}

// IngestError reports why a Scryfall record was rejected during ingest.
type IngestError struct {
	Name   string
	Reason string
}

func (e *IngestError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("rejected card record: %s", e.Reason)
	}
	return fmt.Sprintf("rejected card record %q: %s", e.Name, e.Reason)
}

// FromScryfall validates a Scryfall card and trims it down to a Card.
// Records missing required fields or not printed in paper are rejected so
// malformed data never reaches the engine.
func FromScryfall(sc *scryfall.Card) (*Card, error) {
	if sc.Name == "" {
		return nil, &IngestError{Reason: "missing name"}
	}
	if sc.Legalities == nil {
		return nil, &IngestError{Name: sc.Name, Reason: "missing legalities"}
	}
	if !inPaper(sc.Games) {
		return nil, &IngestError{Name: sc.Name, Reason: "not available in paper"}
	}

	card := &Card{
		Name:          sc.Name,
		TypeLine:      sc.TypeLine,
		Layout:        sc.Layout,
		ColorIdentity: sc.ColorIdentity,
		PioneerLegal:  sc.Legalities["pioneer"] == "legal",
	}
	if card.ColorIdentity == nil {
		card.ColorIdentity = []string{}
	}

	for _, face := range sc.CardFaces {
		if face.Name != "" {
			card.FaceNames = append(card.FaceNames, face.Name)
		}
	}

	return card, nil
}

func inPaper(games []string) bool {
	for _, g := range games {
		if g == "paper" {
			return true
		}
	}
	return false
}
