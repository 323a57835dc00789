package trail

import (
	"context"
	"errors"
	"fmt"

	"backend-trailkeeper/internal/db"

	"github.com/jackc/pgx/v5"
)

// PostgresStore keeps the collection as one JSONB document per key.
type PostgresStore struct {
	db  db.Querier
	key string
}

func NewPostgresStore(q db.Querier, key string) *PostgresStore {
	return &PostgresStore{db: q, key: key}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS trail_collections (
			key TEXT PRIMARY KEY,
			body JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

func (s *PostgresStore) LoadAll(ctx context.Context) (Collection, error) {
	var body []byte
	err := s.db.QueryRow(ctx, `SELECT body FROM trail_collections WHERE key=$1`, s.key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load trails: %w", err)
	}
	return decodeCollection(body)
}

func (s *PostgresStore) SaveAll(ctx context.Context, trails Collection) error {
	body, err := encodeCollection(trails)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO trail_collections (key, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET body=EXCLUDED.body, updated_at=EXCLUDED.updated_at
	`, s.key, body)
	if err != nil {
		return fmt.Errorf("save trails: %w", err)
	}
	return nil
}
