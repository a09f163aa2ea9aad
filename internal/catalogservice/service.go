// Package catalogservice provides the per-type convenience surface over the
// versioned resource store: thin parameter-binding wrappers for domains,
// services, and events, plus index bookkeeping after successful mutations.
package catalogservice

import (
	"context"
	"log/slog"
	"path"

	"github.com/starford/othala/internal/catalog"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/storage"
)

// Service coordinates the store and the index.
type Service struct {
	store *catalog.Store
	fs    storage.Provider
	db    *index.DB
	log   *slog.Logger
}

// NewService creates a new catalog service.
func NewService(store *catalog.Store, fs storage.Provider, db *index.DB, log *slog.Logger) *Service {
	return &Service{store: store, fs: fs, db: db, log: log}
}

// Store exposes the underlying resource store.
func (s *Service) Store() *catalog.Store {
	return s.store
}

// WriteResource writes a resource of the given type and indexes the result.
func (s *Service) WriteResource(_ context.Context, t models.ResourceType, r *models.Resource, opts catalog.WriteOptions) error {
	r.Type = t
	if err := s.store.Write(r, opts); err != nil {
		return err
	}
	dir := opts.Path
	if dir == "" {
		dir = catalog.CanonicalDir(t, r.ID)
	}
	s.indexDocAt(dir)
	return nil
}

// GetResource resolves and reads a resource under the given version token.
func (s *Service) GetResource(_ context.Context, id, version string) (*models.Resource, error) {
	return s.store.Get(id, version)
}

// VersionResource archives the primary location of id and re-aligns the
// index with the moved tree.
func (s *Service) VersionResource(_ context.Context, id string) error {
	if err := s.store.Version(id); err != nil {
		return err
	}
	s.resync()
	return nil
}

// RemoveResource resolves id under the version token and deletes the
// resolved directory.
func (s *Service) RemoveResource(_ context.Context, id, version string) error {
	if err := s.store.RemoveByID(id, version); err != nil {
		return err
	}
	s.resync()
	return nil
}

// AttachFile writes one auxiliary file into the resolved resource
// directory. The index only tracks resource documents, so no bookkeeping.
func (s *Service) AttachFile(_ context.Context, id string, file models.AttachedFile, version string) error {
	return s.store.AttachFile(id, file, version)
}

// HasVersion reports whether id resolves under the version token.
func (s *Service) HasVersion(_ context.Context, id, version string) (bool, error) {
	return s.store.HasVersion(id, version)
}

// Domain wrappers.

func (s *Service) WriteDomain(ctx context.Context, r *models.Resource, opts catalog.WriteOptions) error {
	return s.WriteResource(ctx, models.TypeDomain, r, opts)
}

func (s *Service) GetDomain(ctx context.Context, id, version string) (*models.Resource, error) {
	return s.GetResource(ctx, id, version)
}

func (s *Service) VersionDomain(ctx context.Context, id string) error {
	return s.VersionResource(ctx, id)
}

func (s *Service) RemoveDomain(ctx context.Context, id, version string) error {
	return s.RemoveResource(ctx, id, version)
}

// AddServiceToDomain appends a service reference to a domain's service list
// and rewrites the domain's primary document. Calling it twice with the
// same reference leaves exactly one entry.
func (s *Service) AddServiceToDomain(_ context.Context, domainID string, ref models.Reference) error {
	if err := s.store.AddReference(domainID, catalog.RefServices, ref); err != nil {
		return err
	}
	s.reindexID(domainID)
	return nil
}

// Service wrappers.

func (s *Service) WriteService(ctx context.Context, r *models.Resource, opts catalog.WriteOptions) error {
	return s.WriteResource(ctx, models.TypeService, r, opts)
}

func (s *Service) GetService(ctx context.Context, id, version string) (*models.Resource, error) {
	return s.GetResource(ctx, id, version)
}

func (s *Service) VersionService(ctx context.Context, id string) error {
	return s.VersionResource(ctx, id)
}

func (s *Service) RemoveService(ctx context.Context, id, version string) error {
	return s.RemoveResource(ctx, id, version)
}

// AddEventToService records an event as sent or received by a service.
func (s *Service) AddEventToService(_ context.Context, serviceID string, kind catalog.RefKind, ref models.Reference) error {
	if err := s.store.AddReference(serviceID, kind, ref); err != nil {
		return err
	}
	s.reindexID(serviceID)
	return nil
}

// Event wrappers.

func (s *Service) WriteEvent(ctx context.Context, r *models.Resource, opts catalog.WriteOptions) error {
	return s.WriteResource(ctx, models.TypeEvent, r, opts)
}

func (s *Service) GetEvent(ctx context.Context, id, version string) (*models.Resource, error) {
	return s.GetResource(ctx, id, version)
}

func (s *Service) VersionEvent(ctx context.Context, id string) error {
	return s.VersionResource(ctx, id)
}

func (s *Service) RemoveEvent(ctx context.Context, id, version string) error {
	return s.RemoveResource(ctx, id, version)
}

// Index views.

func (s *Service) ListResources(_ context.Context, typ string, latestOnly bool, limit, offset int) ([]index.ResourceRow, error) {
	return s.db.ListResources(typ, latestOnly, limit, offset)
}

func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

func (s *Service) VersionsOf(_ context.Context, id string) ([]string, error) {
	return s.db.VersionsOf(id)
}

// ReferencesTo returns the document paths of every indexed resource whose
// reference lists point at id.
func (s *Service) ReferencesTo(_ context.Context, id string) ([]string, error) {
	return s.db.ReferencesTo(id)
}

// indexDocAt indexes the document in dir; index failures are logged, never
// surfaced, because the index is a rebuildable cache.
func (s *Service) indexDocAt(dir string) {
	docPath := path.Join(dir, storage.DocFile)
	data, err := s.fs.Read(docPath)
	if err != nil {
		s.log.Warn("index after write failed", slog.String("path", docPath), slog.String("error", err.Error()))
		return
	}
	if err := index.IndexDoc(s.db, docPath, data); err != nil {
		s.log.Warn("index after write failed", slog.String("path", docPath), slog.String("error", err.Error()))
	}
}

// reindexID refreshes the primary document of id in the index.
func (s *Service) reindexID(id string) {
	dir, err := s.store.Resolve(id, catalog.Latest)
	if err != nil {
		return
	}
	s.indexDocAt(dir)
}

// resync runs a full index sync after operations that move or delete whole
// directory subtrees.
func (s *Service) resync() {
	if err := index.Sync(s.db, s.fs, s.log); err != nil {
		s.log.Warn("index resync failed", slog.String("error", err.Error()))
	}
}
