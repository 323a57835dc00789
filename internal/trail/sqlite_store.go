package trail

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteStore keeps the collection as one TEXT document per key in an embedded database.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

func NewSQLiteStore(conn *sql.DB, key string) *SQLiteStore {
	return &SQLiteStore{db: conn, key: key}
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trail_collections (
			key TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (s *SQLiteStore) LoadAll(ctx context.Context) (Collection, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM trail_collections WHERE key = ?`, s.key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load trails: %w", err)
	}
	return decodeCollection([]byte(body))
}

func (s *SQLiteStore) SaveAll(ctx context.Context, trails Collection) error {
	body, err := encodeCollection(trails)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trail_collections (key, body, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, s.key, string(body))
	if err != nil {
		return fmt.Errorf("save trails: %w", err)
	}
	return nil
}
