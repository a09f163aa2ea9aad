package index

import (
	"log/slog"
	"strings"
	"time"

	"github.com/starford/othala/internal/catalog"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/parser"
	"github.com/starford/othala/internal/storage"
)

// Sync walks the catalog and brings the index up to date:
//   - new/changed resource documents are parsed and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	docs, err := store.ListDocs("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		disk[d.Path] = struct{}{}

		if checksums[d.Path] == d.Checksum {
			continue
		}

		data, err := store.Read(d.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", d.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDoc(db, d.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", d.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", d.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteResource(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexDoc parses a resource document and upserts it into the index.
// Exported so the watcher and the service layer can reuse it.
func IndexDoc(db ResourceIndex, path string, data []byte) error {
	r, err := parser.Parse(data)
	if err != nil {
		return err
	}

	row := ResourceRow{
		Path:      path,
		ID:        r.ID,
		Version:   r.Version,
		Type:      string(typeFromPath(path)),
		Name:      r.Name,
		Summary:   r.Summary,
		Latest:    !catalog.IsArchivedPath(path),
		Checksum:  storage.Checksum(data),
		UpdatedAt: time.Now(),
	}
	return db.UpsertResource(row, r.Markdown, refRows(r))
}

// refRows flattens a resource's reference lists into index rows.
func refRows(r *models.Resource) []RefRow {
	var out []RefRow
	for _, ref := range r.Services {
		out = append(out, RefRow{TargetID: ref.ID, TargetVersion: ref.Version, Kind: "services"})
	}
	for _, ref := range r.Sends {
		out = append(out, RefRow{TargetID: ref.ID, TargetVersion: ref.Version, Kind: "sends"})
	}
	for _, ref := range r.Receives {
		out = append(out, RefRow{TargetID: ref.ID, TargetVersion: ref.Version, Kind: "receives"})
	}
	return out
}

// typeFromPath derives the resource type from the document's top-level
// catalog directory. Documents at caller-overridden paths that do not start
// with a canonical type directory index with an empty type.
func typeFromPath(path string) models.ResourceType {
	seg, _, _ := strings.Cut(path, "/")
	if t, ok := models.TypeFromDir(seg); ok {
		return t
	}
	return ""
}
