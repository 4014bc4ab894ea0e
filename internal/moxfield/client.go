// Package moxfield fetches public deck lists from the Moxfield API and
// normalizes them for legality evaluation.
package moxfield

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/pioneerdh/deckcheck/internal/decklist"
)

// Client fetches deck lists from Moxfield.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	cache       *deckCache
	cacheTTL    time.Duration
	rateLimiter *time.Ticker
	mu          sync.Mutex
}

// Config configures the Moxfield client.
type Config struct {
	// BaseURL is the Moxfield API base URL.
	BaseURL string

	// CacheTTL is how long to cache fetched decks.
	CacheTTL time.Duration

	// RequestTimeout is the HTTP request timeout.
	RequestTimeout time.Duration

	// RateLimitMs is minimum milliseconds between requests.
	RateLimitMs int
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://api2.moxfield.com",
		CacheTTL:       15 * time.Minute,
		RequestTimeout: 30 * time.Second,
		RateLimitMs:    1000,
	}
}

// NotFoundError indicates the deck ID does not exist or is not public.
type NotFoundError struct {
	DeckID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("moxfield deck not found: %s", e.DeckID)
}

// deckCache caches fetched decks by ID.
type deckCache struct {
	data map[string]*cacheEntry
	mu   sync.RWMutex
}

type cacheEntry struct {
	deck      *decklist.DeckList
	expiresAt time.Time
}

// deckResponse models the subset of the Moxfield v3 deck payload we read.
type deckResponse struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Boards map[string]struct {
		Count int `json:"count"`
		Cards map[string]struct {
			Quantity int `json:"quantity"`
			Card     struct {
				Name string `json:"name"`
			} `json:"card"`
		} `json:"cards"`
	} `json:"boards"`
}

// NewClient creates a new Moxfield client.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		baseURL:     config.BaseURL,
		cacheTTL:    config.CacheTTL,
		rateLimiter: time.NewTicker(time.Duration(config.RateLimitMs) * time.Millisecond),
		cache: &deckCache{
			data: make(map[string]*cacheEntry),
		},
	}
}

// GetDeck fetches a public deck by its Moxfield ID and normalizes it to a
// deck list. Results are cached for the configured TTL.
func (c *Client) GetDeck(ctx context.Context, deckID string) (*decklist.DeckList, error) {
	if cached := c.getFromCache(deckID); cached != nil {
		return cached, nil
	}

	c.waitForRateLimit()

	deck, err := c.fetchDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	c.setCache(deckID, deck)

	return deck, nil
}

// ClearCache drops all cached decks.
func (c *Client) ClearCache() {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	c.cache.data = make(map[string]*cacheEntry)
}

// fetchDeck retrieves and normalizes one deck from the API.
func (c *Client) fetchDeck(ctx context.Context, deckID string) (*decklist.DeckList, error) {
	url := fmt.Sprintf("%s/v3/decks/all/%s", c.baseURL, deckID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "deckcheck/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{DeckID: deckID}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var payload deckResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return normalize(&payload, deckID)
}

// normalize converts a Moxfield payload into a deck list. The board maps are
// unordered, so entries are sorted by name to keep output deterministic.
func normalize(payload *deckResponse, deckID string) (*decklist.DeckList, error) {
	commanders := boardEntries(payload, "commanders")
	if len(commanders) == 0 {
		return nil, fmt.Errorf("deck %s has no commander", deckID)
	}
	if len(commanders) > 1 {
		return nil, fmt.Errorf("deck %s has %d commanders, expected one", deckID, len(commanders))
	}

	main := boardEntries(payload, "mainboard")
	if len(main) == 0 {
		return nil, fmt.Errorf("deck %s has an empty mainboard", deckID)
	}

	return &decklist.DeckList{
		MainDeck:  main,
		Commander: commanders[0],
	}, nil
}

func boardEntries(payload *deckResponse, board string) []decklist.Entry {
	b, ok := payload.Boards[board]
	if !ok {
		return nil
	}

	entries := make([]decklist.Entry, 0, len(b.Cards))
	for _, card := range b.Cards {
		if card.Card.Name == "" || card.Quantity <= 0 {
			continue
		}
		entries = append(entries, decklist.Entry{
			Name:     card.Card.Name,
			Quantity: card.Quantity,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return entries
}

// waitForRateLimit waits for rate limiting.
func (c *Client) waitForRateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	<-c.rateLimiter.C
}

func (c *Client) getFromCache(deckID string) *decklist.DeckList {
	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()

	entry, exists := c.cache.data[deckID]
	if !exists {
		return nil
	}

	if time.Now().After(entry.expiresAt) {
		return nil
	}

	return entry.deck
}

func (c *Client) setCache(deckID string, deck *decklist.DeckList) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	c.cache.data[deckID] = &cacheEntry{
		deck:      deck,
		expiresAt: time.Now().Add(c.cacheTTL),
	}
}
