// Package handlers implements the HTTP handlers for the REST API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pioneerdh/deckcheck/internal/api/response"
	"github.com/pioneerdh/deckcheck/internal/bracket"
	"github.com/pioneerdh/deckcheck/internal/decklist"
	"github.com/pioneerdh/deckcheck/internal/legality"
	"github.com/pioneerdh/deckcheck/internal/moxfield"
)

// DeckHandler handles deck evaluation API requests.
type DeckHandler struct {
	engine     *legality.Engine
	classifier *bracket.Classifier
	moxfield   *moxfield.Client
}

// NewDeckHandler creates a new DeckHandler. moxfield may be nil when the
// Moxfield integration is disabled.
func NewDeckHandler(engine *legality.Engine, classifier *bracket.Classifier, mox *moxfield.Client) *DeckHandler {
	return &DeckHandler{
		engine:     engine,
		classifier: classifier,
		moxfield:   mox,
	}
}

// CheckDeckRequest represents a request to evaluate a deck list.
type CheckDeckRequest struct {
	// DeckList is the raw text deck list: main deck, a blank line, then
	// the commander.
	DeckList string `json:"decklist"`
}

// CheckDeck evaluates a deck list for format legality.
func (h *DeckHandler) CheckDeck(w http.ResponseWriter, r *http.Request) {
	var req CheckDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if req.DeckList == "" {
		response.BadRequest(w, errors.New("decklist is required"))
		return
	}

	deck, err := decklist.Parse(req.DeckList)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	response.Success(w, h.engine.Evaluate(deck))
}

// BracketDeckRequest represents a request to classify a deck's bracket.
type BracketDeckRequest struct {
	DeckList string `json:"decklist"`

	// PowerScore is an optional externally computed power score.
	PowerScore *float64 `json:"power_score,omitempty"`
}

// BracketDeck classifies a deck list into power brackets.
func (h *DeckHandler) BracketDeck(w http.ResponseWriter, r *http.Request) {
	var req BracketDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if req.DeckList == "" {
		response.BadRequest(w, errors.New("decklist is required"))
		return
	}

	deck, err := decklist.Parse(req.DeckList)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	response.Success(w, h.classifier.Classify(deck.Names(), req.PowerScore))
}

// MoxfieldDeckResult bundles the legality verdict and bracket analysis for
// a deck fetched from Moxfield.
type MoxfieldDeckResult struct {
	DeckID  string            `json:"deck_id"`
	Verdict *legality.Verdict `json:"verdict"`
	Bracket *bracket.Analysis `json:"bracket"`
}

// CheckMoxfieldDeck fetches a public Moxfield deck and runs both the
// legality check and the bracket classification on it.
func (h *DeckHandler) CheckMoxfieldDeck(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	if deckID == "" {
		response.BadRequest(w, errors.New("deck ID is required"))
		return
	}

	deck, err := h.moxfield.GetDeck(r.Context(), deckID)
	if err != nil {
		var notFound *moxfield.NotFoundError
		if errors.As(err, &notFound) {
			response.NotFound(w, err)
			return
		}
		response.BadGateway(w, err)
		return
	}

	response.Success(w, &MoxfieldDeckResult{
		DeckID:  deckID,
		Verdict: h.engine.Evaluate(deck),
		Bracket: h.classifier.Classify(deck.Names(), nil),
	})
}
