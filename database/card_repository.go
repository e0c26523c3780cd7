package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cast"
)

const cardsSchema = `
CREATE TABLE IF NOT EXISTS cards (
	card_id    TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// CardRepository stores raw card dataset objects keyed by card id
type CardRepository struct {
	db *PostgresService
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *PostgresService) *CardRepository {
	return &CardRepository{db: db}
}

// EnsureSchema creates the cards table when it does not exist
func (r *CardRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, cardsSchema); err != nil {
		return fmt.Errorf("failed to create cards table: %w", err)
	}
	return nil
}

// LoadItems returns every stored card object ordered by id
func (r *CardRepository) LoadItems(ctx context.Context) ([]map[string]interface{}, error) {
	rows, err := r.db.Query(ctx, `SELECT payload FROM cards ORDER BY card_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (map[string]interface{}, error) {
		var item map[string]interface{}
		err := row.Scan(&item)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan cards: %w", err)
	}
	return items, nil
}

// UpsertItems writes card objects in one batch. Objects without an id are
// skipped; the number written is returned.
func (r *CardRepository) UpsertItems(ctx context.Context, items []map[string]interface{}) (int, error) {
	batch := &pgx.Batch{}
	for _, item := range items {
		rawID, ok := item["id"]
		if !ok || rawID == nil {
			continue
		}
		id, err := cast.ToStringE(rawID)
		if err != nil || id == "" {
			continue
		}
		payload, err := json.Marshal(item)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal card %s: %w", id, err)
		}
		batch.Queue(`
			INSERT INTO cards (card_id, payload) VALUES ($1, $2)
			ON CONFLICT (card_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
			id, payload)
	}

	if batch.Len() == 0 {
		return 0, nil
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("failed to upsert card: %w", err)
		}
	}
	return batch.Len(), nil
}
