//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS resources_fts USING fts5(
			path UNINDEXED,
			id,
			name,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, id, name, body string) error {
	_, _ = tx.Exec(`DELETE FROM resources_fts WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO resources_fts (path, id, name, body) VALUES (?, ?, ?, ?)`,
		path, id, name, body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM resources_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search and returns matching resources
// with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path,
		       id,
		       name,
		       snippet(resources_fts, 3, '<b>', '</b>', '...', 64)
		FROM resources_fts
		WHERE resources_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.ID, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
