package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pioneerdh/deckcheck/internal/api/handlers"
	"github.com/pioneerdh/deckcheck/internal/api/response"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	// API v1 routes
	s.router.Route("/api/v1", func(r chi.Router) {
		deckHandler := handlers.NewDeckHandler(s.services.Engine, s.services.Classifier, s.services.Moxfield)
		r.Route("/decks", func(r chi.Router) {
			r.Post("/check", deckHandler.CheckDeck)
			r.Post("/bracket", deckHandler.BracketDeck)
			if s.services.Moxfield != nil {
				r.Get("/moxfield/{deckID}", deckHandler.CheckMoxfieldDeck)
			}
		})

		cardHandler := handlers.NewCardHandler(s.services.Store, s.services.Refresher)
		r.Route("/cards", func(r chi.Router) {
			r.Get("/name/{name}", cardHandler.GetCardByName)
			if s.services.Refresher != nil {
				r.Post("/refresh", cardHandler.RefreshCards)
			}
		})
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "deckcheck-api",
		"cards":   s.services.Store.Len(),
	})
}
