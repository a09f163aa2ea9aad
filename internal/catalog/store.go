// Package catalog implements the versioned resource store: resolving
// resources by id and version token across the catalog tree, reading and
// writing resource documents, archiving superseded versions, attaching
// files, and removing resources.
//
// The store is parameterized entirely by the storage provider it is given;
// it keeps no global state and performs no locking. Concurrent callers
// operating on the same id must serialize themselves, and multi-step
// operations (Version, AddReference) are short sequences of individually
// fallible filesystem steps, not transactions.
package catalog

import (
	"fmt"
	"path"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/parser"
	"github.com/starford/othala/internal/storage"
)

// VersionedDir is the directory segment under a resource's primary
// directory that holds archived version snapshots.
const VersionedDir = "versioned"

// Latest is the version token that resolves to the primary location.
const Latest = "latest"

// Store is the versioned resource store over one catalog root.
type Store struct {
	fs storage.Provider
}

// New creates a store backed by the given provider.
func New(fs storage.Provider) *Store {
	return &Store{fs: fs}
}

// CanonicalDir returns the canonical directory for a resource of the given
// type and id, relative to the catalog root.
func CanonicalDir(t models.ResourceType, id string) string {
	return path.Join(t.Dir(), id)
}

// Get resolves id (optionally pinned to a version token) and reads the
// resource stored there.
func (s *Store) Get(id, version string) (*models.Resource, error) {
	dir, err := s.Resolve(id, version)
	if err != nil {
		return nil, err
	}
	return s.GetByPath(dir)
}

// GetByPath reads the resource document in the directory at dir (relative
// to the catalog root) and parses it into a resource record.
func (s *Store) GetByPath(dir string) (*models.Resource, error) {
	data, err := s.fs.Read(path.Join(dir, storage.DocFile))
	if err != nil {
		return nil, fmt.Errorf("catalog: read resource at %s: %w", dir, err)
	}
	return parser.Parse(data)
}

// HasVersion reports whether id resolves under the given version token.
// An empty token means "latest".
func (s *Store) HasVersion(id, version string) (bool, error) {
	_, err := s.Resolve(id, version)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}
