// Package ledger records accepted collection items in SQLite so builds can
// resume and trait frequencies can be reported.
package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	idx              INTEGER PRIMARY KEY,
	fingerprint      TEXT    NOT NULL UNIQUE,
	border_color     TEXT    NOT NULL,
	dark_color       TEXT    NOT NULL,
	light_color      TEXT    NOT NULL,
	dark_line        TEXT    NOT NULL,
	light_line       TEXT    NOT NULL,
	nodes_per_side   INTEGER NOT NULL,
	edge_probability REAL    NOT NULL,
	border_style     TEXT    NOT NULL,
	image_checksum   TEXT    NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_style ON items(border_style);
`

// DB wraps a sql.DB with ledger operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
