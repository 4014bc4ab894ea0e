package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pioneerdh/deckcheck/internal/bracket"
	"github.com/pioneerdh/deckcheck/internal/cards"
	"github.com/pioneerdh/deckcheck/internal/cardstore"
	"github.com/pioneerdh/deckcheck/internal/legality"
	"github.com/pioneerdh/deckcheck/internal/moxfield"
	"github.com/pioneerdh/deckcheck/internal/rules"
)

func testStore() *cardstore.Store {
	store := cardstore.New()
	store.Replace([]*cards.Card{
		{Name: "Krenko, Mob Boss", TypeLine: "Legendary Creature — Goblin Warrior", Layout: "normal", ColorIdentity: []string{"R"}, PioneerLegal: true},
		{Name: "Mountain", TypeLine: "Basic Land — Mountain", Layout: "normal", ColorIdentity: []string{"R"}, PioneerLegal: true},
		{Name: "Goblin Rabblemaster", TypeLine: "Creature — Goblin Warrior", Layout: "normal", ColorIdentity: []string{"R"}, PioneerLegal: true},
		{
			Name:          "Fable of the Mirror-Breaker // Reflection of Kiki-Jiki",
			TypeLine:      "Enchantment — Saga // Enchantment Creature — Goblin Shaman",
			Layout:        "transform",
			ColorIdentity: []string{"R"},
			PioneerLegal:  true,
			FaceNames:     []string{"Fable of the Mirror-Breaker", "Reflection of Kiki-Jiki"},
		},
	})
	return store
}

func testServer(t *testing.T, mox *moxfield.Client) *Server {
	t.Helper()

	store := testStore()
	engine := legality.NewEngine(store, rules.Static(&rules.Rules{
		Banned:              rules.NewNameSet(),
		Allowed:             rules.NewNameSet(),
		SingletonExceptions: rules.NewNameSet(),
	}))

	return NewServer(nil, &Services{
		Engine:     engine,
		Classifier: bracket.NewClassifier(nil),
		Store:      store,
		Moxfield:   mox,
	}, nil)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestHealthCheck(t *testing.T) {
	server := testServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(4), body["cards"])
}

func TestCheckDeckRoute(t *testing.T) {
	server := testServer(t, nil)

	rec := postJSON(t, server.Handler(), "/api/v1/decks/check", map[string]string{
		"decklist": "98 Mountain\n1 Goblin Rabblemaster\n\n1 Krenko, Mob Boss",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data legality.Verdict `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Legal)
	assert.Equal(t, 100, body.Data.DeckSize)
}

func TestCheckDeckRouteReportsIssues(t *testing.T) {
	server := testServer(t, nil)

	// 99 cards total, one short.
	rec := postJSON(t, server.Handler(), "/api/v1/decks/check", map[string]string{
		"decklist": "98 Mountain\n\n1 Krenko, Mob Boss",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data legality.Verdict `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Data.Legal)
	assert.NotNil(t, body.Data.Issues.Size)
}

func TestCheckDeckRouteBadRequests(t *testing.T) {
	server := testServer(t, nil)

	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "empty decklist", body: map[string]string{"decklist": ""}, want: http.StatusBadRequest},
		{name: "missing separator", body: map[string]string{"decklist": "1 Mountain"}, want: http.StatusBadRequest},
		{name: "bad quantity", body: map[string]string{"decklist": "zero Mountain\n\n1 Krenko, Mob Boss"}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, server.Handler(), "/api/v1/decks/check", tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCheckDeckRouteRejectsNonJSON(t *testing.T) {
	server := testServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks/check", bytes.NewReader([]byte("1 Mountain")))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestBracketDeckRoute(t *testing.T) {
	server := testServer(t, nil)

	score := 700.0
	rec := postJSON(t, server.Handler(), "/api/v1/decks/bracket", map[string]any{
		"decklist":    "98 Mountain\n1 Goblin Rabblemaster\n\n1 Krenko, Mob Boss",
		"power_score": score,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data bracket.Analysis `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.MinimumBracket)
	assert.Equal(t, 3, body.Data.RecommendedBracket)
}

func TestGetCardByNameRoute(t *testing.T) {
	server := testServer(t, nil)

	tests := []struct {
		name      string
		path      string
		want      int
		matchedBy string
	}{
		{name: "primary name", path: "/api/v1/cards/name/Krenko,%20Mob%20Boss", want: http.StatusOK, matchedBy: "name"},
		{name: "face name", path: "/api/v1/cards/name/Reflection%20of%20Kiki-Jiki", want: http.StatusOK, matchedBy: "face"},
		{name: "unknown card", path: "/api/v1/cards/name/Black%20Lotus", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
			if tt.want != http.StatusOK {
				return
			}

			var body struct {
				Data struct {
					MatchedBy string `json:"matched_by"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.matchedBy, body.Data.MatchedBy)
		})
	}
}

func TestMoxfieldRoute(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v3/decks/all/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{
			"boards": {
				"commanders": {"cards": {"a1": {"quantity": 1, "card": {"name": "Krenko, Mob Boss"}}}},
				"mainboard": {"cards": {
					"b1": {"quantity": 98, "card": {"name": "Mountain"}},
					"b2": {"quantity": 1, "card": {"name": "Goblin Rabblemaster"}}
				}}
			}
		}`)
	}))
	defer backend.Close()

	config := moxfield.DefaultConfig()
	config.BaseURL = backend.URL
	config.RateLimitMs = 1
	server := testServer(t, moxfield.NewClient(config))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/decks/moxfield/abc123", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			DeckID  string           `json:"deck_id"`
			Verdict legality.Verdict `json:"verdict"`
			Bracket bracket.Analysis `json:"bracket"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "abc123", body.Data.DeckID)
	assert.True(t, body.Data.Verdict.Legal)
	assert.Equal(t, 1, body.Data.Bracket.MinimumBracket)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/decks/moxfield/missing", nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
