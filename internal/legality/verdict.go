package legality

import "fmt"

// RequiredDeckSize is the exact number of cards a deck must contain,
// commander included.
const RequiredDeckSize = 100

// Issues explains each failed construction rule. A nil field means that
// sub-check passed; callers should branch on nil-ness, not message text.
type Issues struct {
	Size          *string `json:"size"`
	Commander     *string `json:"commander"`
	CommanderType *string `json:"commander_type"`
	ColorIdentity *string `json:"color_identity"`
	Singleton     *string `json:"singleton"`
	IllegalCards  *string `json:"illegal_cards"`
}

// Verdict is the complete result of evaluating one deck. Produced fresh per
// evaluation and never mutated afterwards.
type Verdict struct {
	Legal                   bool     `json:"legal"`
	DeckSize                int      `json:"deck_size"`
	RequiredSize            int      `json:"required_size"`
	ColorIdentity           []string `json:"color_identity"`
	IllegalCards            []string `json:"illegal_cards"`
	ColorIdentityViolations []string `json:"color_identity_violations"`
	NonSingletonCards       []string `json:"non_singleton_cards"`
	Issues                  Issues   `json:"legal_issues"`
}

func issue(format string, args ...interface{}) *string {
	msg := fmt.Sprintf(format, args...)
	return &msg
}
