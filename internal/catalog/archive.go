package catalog

import (
	"fmt"
	"path"

	"github.com/starford/othala/internal/apperr"
)

// Version archives the primary location of id: every entry of the primary
// directory except versioned/ itself is moved into versioned/<declared
// version>/. Attached files travel with the document; nothing is copied.
//
// After a successful call the id has no primary location until a subsequent
// Write establishes one. Callers are expected to write a new version
// immediately; the store does not enforce version monotonicity.
//
// The per-entry moves are independent filesystem steps. A crash midway
// leaves some entries archived and some not — an observable, recoverable
// state the store deliberately does not paper over.
func (s *Store) Version(id string) error {
	dir, err := s.Resolve(id, Latest)
	if err != nil {
		return err
	}
	r, err := s.GetByPath(dir)
	if err != nil {
		return err
	}

	dest := path.Join(dir, VersionedDir, r.Version)
	occupied, err := s.fs.Exists(dest)
	if err != nil {
		return err
	}
	if occupied {
		return fmt.Errorf("catalog: version %s: archive %s already exists: %w", id, r.Version, apperr.ErrArchiveConflict)
	}

	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, name := range entries {
		if name == VersionedDir {
			continue
		}
		if err := s.fs.Move(path.Join(dir, name), path.Join(dest, name)); err != nil {
			return err
		}
	}
	return nil
}
