// Package refresh keeps the local card snapshot in sync with Scryfall's
// oracle-cards bulk export.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pioneerdh/deckcheck/internal/cards"
	"github.com/pioneerdh/deckcheck/internal/cards/scryfall"
	"github.com/pioneerdh/deckcheck/internal/cardstore"
	"github.com/pioneerdh/deckcheck/internal/storage"
)

// DefaultSnapshotTTL is how long a stored snapshot stays fresh before
// EnsureFresh downloads a new one. Scryfall regenerates bulk files daily.
const DefaultSnapshotTTL = 24 * time.Hour

// BulkClient is the slice of the Scryfall client the refresher needs.
type BulkClient interface {
	GetBulkData(ctx context.Context) (*scryfall.BulkDataList, error)
	DownloadBulk(ctx context.Context, downloadURI string) (io.ReadCloser, error)
}

// Refresher downloads the bulk card file, persists it, and swaps the
// in-memory store to the new snapshot.
type Refresher struct {
	client BulkClient
	db     *storage.Service
	store  *cardstore.Store
	logger *slog.Logger
	ttl    time.Duration

	mu sync.Mutex // serializes refreshes
}

// New creates a refresher. A zero ttl falls back to DefaultSnapshotTTL.
func New(client BulkClient, db *storage.Service, store *cardstore.Store, logger *slog.Logger, ttl time.Duration) *Refresher {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		client: client,
		db:     db,
		store:  store,
		logger: logger,
		ttl:    ttl,
	}
}

// EnsureFresh refreshes only when the stored snapshot is missing or older
// than the TTL. Returns nil without network traffic when fresh.
func (r *Refresher) EnsureFresh(ctx context.Context) error {
	updatedAt, err := r.db.SnapshotUpdatedAt(ctx)
	if err != nil {
		return fmt.Errorf("checking snapshot age: %w", err)
	}
	if !updatedAt.IsZero() && time.Since(updatedAt) < r.ttl {
		r.logger.Debug("card snapshot still fresh",
			"updated_at", updatedAt,
			"ttl", r.ttl)
		return nil
	}
	return r.Refresh(ctx)
}

// Refresh unconditionally downloads the oracle-cards bulk file and replaces
// both the persisted snapshot and the in-memory store.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	r.logger.Info("refreshing card snapshot")

	list, err := r.client.GetBulkData(ctx)
	if err != nil {
		return fmt.Errorf("listing bulk data: %w", err)
	}

	var oracle *scryfall.BulkData
	for i := range list.Data {
		if list.Data[i].Type == scryfall.BulkTypeOracleCards {
			oracle = &list.Data[i]
			break
		}
	}
	if oracle == nil {
		return errors.New("bulk data listing has no oracle_cards entry")
	}

	body, err := r.client.DownloadBulk(ctx, oracle.DownloadURI)
	if err != nil {
		if scryfall.IsNotFound(err) {
			// Bulk files rotate; a 404 means the listing is stale, so the
			// next EnsureFresh fetches a new listing rather than this URI.
			return fmt.Errorf("bulk file %s no longer available: %w", oracle.DownloadURI, err)
		}
		return fmt.Errorf("downloading bulk file: %w", err)
	}
	defer body.Close()

	records, skipped, err := decodeBulk(body)
	if err != nil {
		return fmt.Errorf("decoding bulk file: %w", err)
	}
	if len(records) == 0 {
		return errors.New("bulk file produced no usable cards")
	}

	if err := r.db.ReplaceSnapshot(ctx, records); err != nil {
		return fmt.Errorf("persisting snapshot: %w", err)
	}
	r.store.Replace(records)

	r.logger.Info("card snapshot refreshed",
		"cards", len(records),
		"skipped", skipped,
		"bulk_updated_at", oracle.UpdatedAt,
		"duration", time.Since(start))
	return nil
}

// decodeBulk streams the bulk JSON array element by element so the whole
// file is never held in memory at once. Records that fail ingest validation
// are counted and skipped, not fatal.
func decodeBulk(body io.Reader) ([]*cards.Card, int, error) {
	dec := json.NewDecoder(body)

	tok, err := dec.Token()
	if err != nil {
		return nil, 0, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, 0, fmt.Errorf("expected JSON array, got %v", tok)
	}

	var (
		records []*cards.Card
		skipped int
	)
	for dec.More() {
		var sc scryfall.Card
		if err := dec.Decode(&sc); err != nil {
			return nil, 0, err
		}
		record, err := cards.FromScryfall(&sc)
		if err != nil {
			var ingestErr *cards.IngestError
			if errors.As(err, &ingestErr) {
				skipped++
				continue
			}
			return nil, 0, err
		}
		records = append(records, record)
	}
	if _, err := dec.Token(); err != nil {
		return nil, 0, err
	}

	return records, skipped, nil
}
