package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pioneerdh/deckcheck/internal/cards"
)

const metaKeySnapshotUpdated = "snapshot_updated_at"

// Service provides card snapshot persistence on top of DB.
type Service struct {
	db *DB
}

// NewService creates a storage service.
func NewService(db *DB) *Service {
	return &Service{db: db}
}

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}

// ReplaceSnapshot atomically replaces the persisted card snapshot with the
// given records and stamps the snapshot time. The whole replace runs in one
// transaction so a failed refresh never leaves a half-written snapshot.
func (s *Service) ReplaceSnapshot(ctx context.Context, records []*cards.Card) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cards`); err != nil {
		return fmt.Errorf("failed to clear cards: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cards (name, type_line, layout, color_identity, pioneer_legal, face_names)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, card := range records {
		identity, err := json.Marshal(card.ColorIdentity)
		if err != nil {
			return fmt.Errorf("failed to marshal color identity for %q: %w", card.Name, err)
		}
		faces, err := json.Marshal(card.FaceNames)
		if err != nil {
			return fmt.Errorf("failed to marshal face names for %q: %w", card.Name, err)
		}

		if _, err := stmt.ExecContext(ctx,
			card.Name, card.TypeLine, card.Layout, string(identity), card.PioneerLegal, string(faces),
		); err != nil {
			return fmt.Errorf("failed to insert card %q: %w", card.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaKeySnapshotUpdated, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to stamp snapshot time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}

// LoadAll reads every card record from the persisted snapshot.
func (s *Service) LoadAll(ctx context.Context) ([]*cards.Card, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT name, type_line, layout, color_identity, pioneer_legal, face_names
		FROM cards
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*cards.Card
	for rows.Next() {
		var (
			card     cards.Card
			identity string
			faces    string
		)
		if err := rows.Scan(&card.Name, &card.TypeLine, &card.Layout, &identity, &card.PioneerLegal, &faces); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		if err := json.Unmarshal([]byte(identity), &card.ColorIdentity); err != nil {
			return nil, fmt.Errorf("failed to parse color identity for %q: %w", card.Name, err)
		}
		if err := json.Unmarshal([]byte(faces), &card.FaceNames); err != nil {
			return nil, fmt.Errorf("failed to parse face names for %q: %w", card.Name, err)
		}
		if card.ColorIdentity == nil {
			card.ColorIdentity = []string{}
		}
		result = append(result, &card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}

	return result, nil
}

// Count returns the number of persisted card records.
func (s *Service) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return count, nil
}

// SnapshotUpdatedAt returns when the snapshot was last replaced, or the zero
// time when no snapshot has been written yet.
func (s *Service) SnapshotUpdatedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT value FROM snapshot_meta WHERE key = ?`, metaKeySnapshotUpdated,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read snapshot time: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse snapshot time %q: %w", value, err)
	}
	return ts, nil
}
