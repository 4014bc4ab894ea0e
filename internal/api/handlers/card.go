package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/pioneerdh/deckcheck/internal/api/response"
	"github.com/pioneerdh/deckcheck/internal/cards"
	"github.com/pioneerdh/deckcheck/internal/cards/refresh"
	"github.com/pioneerdh/deckcheck/internal/cardstore"
)

// CardHandler handles card lookup and snapshot refresh requests.
type CardHandler struct {
	store     *cardstore.Store
	refresher *refresh.Refresher
}

// NewCardHandler creates a new CardHandler. refresher may be nil when the
// refresh route is disabled.
func NewCardHandler(store *cardstore.Store, refresher *refresh.Refresher) *CardHandler {
	return &CardHandler{
		store:     store,
		refresher: refresher,
	}
}

// CardLookupResult pairs the matched records with how the name matched.
type CardLookupResult struct {
	Name string `json:"name"`

	// MatchedBy is "name" for a primary-name hit or "face" when the name
	// only matched a card face.
	MatchedBy string        `json:"matched_by"`
	Records   []*cards.Card `json:"records"`
}

// GetCardByName returns all stored records for a card name, falling back
// to face names for multi-faced cards.
func (h *CardHandler) GetCardByName(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		response.BadRequest(w, errors.New("card name is required"))
		return
	}

	matchedBy := "name"
	records := h.store.FindByName(name)
	if len(records) == 0 {
		matchedBy = "face"
		records = h.store.FindByFaceName(name)
	}
	if len(records) == 0 {
		response.NotFound(w, errors.New("card not found: "+name))
		return
	}

	response.Success(w, &CardLookupResult{
		Name:      name,
		MatchedBy: matchedBy,
		Records:   records,
	})
}

// RefreshResult reports the store size after a snapshot refresh.
type RefreshResult struct {
	Cards int `json:"cards"`
}

// RefreshCards forces a fresh download of the card snapshot.
func (h *CardHandler) RefreshCards(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.Refresh(r.Context()); err != nil {
		response.ServiceUnavailable(w, err)
		return
	}

	response.Success(w, &RefreshResult{Cards: h.store.Len()})
}
