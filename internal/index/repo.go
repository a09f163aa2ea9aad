package index

import (
	"fmt"
	"time"
)

// ResourceRow represents a row in the resources table.
type ResourceRow struct {
	Path      string
	ID        string
	Version   string
	Type      string
	Name      string
	Summary   string
	Latest    bool
	Checksum  string
	UpdatedAt time.Time
}

// RefRow is one outgoing reference carried by an indexed resource.
type RefRow struct {
	TargetID      string
	TargetVersion string
	Kind          string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	ID      string
	Name    string
	Snippet string
}

// UpsertResource inserts or replaces a resource row, its FTS entry, and its
// outgoing references within a transaction.
func (db *DB) UpsertResource(r ResourceRow, body string, refs []RefRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO resources (path, id, version, type, name, summary, latest, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			id         = excluded.id,
			version    = excluded.version,
			type       = excluded.type,
			name       = excluded.name,
			summary    = excluded.summary,
			latest     = excluded.latest,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, r.Path, r.ID, r.Version, r.Type, r.Name, r.Summary, r.Latest, r.Checksum, body, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert resource: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, r.Path, r.ID, r.Name, r.Summary+"\n"+body); err != nil {
		return err
	}

	// Replace references: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM refs WHERE source = ?`, r.Path)
	if len(refs) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO refs (source, target_id, target_version, kind) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare ref insert: %w", err)
		}
		defer stmt.Close()
		for _, ref := range refs {
			if _, err := stmt.Exec(r.Path, ref.TargetID, ref.TargetVersion, ref.Kind); err != nil {
				return fmt.Errorf("index: insert ref: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteResource removes a resource row, its FTS entry, and outgoing refs.
func (db *DB) DeleteResource(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM refs WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM resources WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document path, or empty
// string if not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM resources WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns every indexed document path with its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM resources`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListResources returns indexed resources, optionally filtered by type and
// restricted to latest versions, ordered by type then id then version.
func (db *DB) ListResources(typ string, latestOnly bool, limit, offset int) ([]ResourceRow, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT path, id, version, type, name, summary, latest, checksum, updated_at
		FROM resources WHERE 1=1`
	args := []any{}
	if typ != "" {
		q += ` AND type = ?`
		args = append(args, typ)
	}
	if latestOnly {
		q += ` AND latest = 1`
	}
	q += ` ORDER BY type, id, version LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list resources: %w", err)
	}
	defer rows.Close()

	var out []ResourceRow
	for rows.Next() {
		var r ResourceRow
		if err := rows.Scan(&r.Path, &r.ID, &r.Version, &r.Type, &r.Name, &r.Summary, &r.Latest, &r.Checksum, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// VersionsOf returns every indexed version of an id, latest first, then
// descending lexicographic order for the archived rest.
func (db *DB) VersionsOf(id string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT version FROM resources WHERE id = ? ORDER BY latest DESC, version DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("index: versions of: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ReferencesTo returns the document paths of every resource referencing the
// given id.
func (db *DB) ReferencesTo(id string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT source FROM refs WHERE target_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("index: references to: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
