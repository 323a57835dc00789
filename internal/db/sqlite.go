package db

import (
	"database/sql"

	"backend-trailkeeper/internal/config"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens the embedded trail database. It returns nil when no path is configured.
func OpenSQLite(cfg config.Config) (*sql.DB, error) {
	if cfg.SQLitePath == "" {
		return nil, nil
	}
	conn, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared across calls
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
