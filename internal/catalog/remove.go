package catalog

import (
	"fmt"

	"github.com/starford/othala/internal/apperr"
)

// Remove deletes the resource directory at dir (relative to the catalog
// root) and everything beneath it. A second call for the same path fails
// with apperr.ErrNotFound; removal is not idempotent.
func (s *Store) Remove(dir string) error {
	exists, err := s.fs.Exists(dir)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("catalog: remove %s: %w", dir, apperr.ErrNotFound)
	}
	return s.fs.RemoveAll(dir)
}

// RemoveByID resolves id under the given version token and deletes the
// resolved directory recursively.
//
// With an empty or "latest" token the primary directory is removed, and
// with it the whole id: archived snapshots live beneath the primary
// directory, so they are deleted too. A specific version token removes only
// that archived snapshot.
func (s *Store) RemoveByID(id, version string) error {
	dir, err := s.Resolve(id, version)
	if err != nil {
		return err
	}
	return s.fs.RemoveAll(dir)
}
