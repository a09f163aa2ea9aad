// Package index provides SQLite-backed catalog indexing with optional FTS5
// full-text search. The index is a derived cache over the catalog tree: the
// store never consults it for resolution, and sync/watcher keep it
// converged with what is on disk.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS resources (
	path       TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	version    TEXT NOT NULL,
	type       TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT '',
	latest     INTEGER NOT NULL DEFAULT 1,
	checksum   TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_resources_id ON resources(id);
CREATE INDEX IF NOT EXISTS idx_resources_type ON resources(type);

CREATE TABLE IF NOT EXISTS refs (
	source         TEXT NOT NULL,
	target_id      TEXT NOT NULL,
	target_version TEXT NOT NULL DEFAULT '',
	kind           TEXT NOT NULL DEFAULT 'services',
	UNIQUE(source, target_id, target_version, kind)
);

CREATE INDEX IF NOT EXISTS idx_refs_source ON refs(source);
CREATE INDEX IF NOT EXISTS idx_refs_target ON refs(target_id);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
