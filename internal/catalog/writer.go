package catalog

import (
	"fmt"
	"path"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/parser"
	"github.com/starford/othala/internal/storage"
)

// WriteOptions controls where and how a resource is written.
type WriteOptions struct {
	// Path overrides the canonical <type>s/<id> directory.
	Path string
	// Override allows replacing an occupied location.
	Override bool
}

// Write serializes resource into a directory under the catalog root.
//
// The target is opts.Path when supplied, otherwise the canonical directory
// derived from type and id. Writing into an occupied location without
// Override fails with apperr.ErrAlreadyExists; the store never merges
// content. With Override the resource document and attached files are
// replaced, while any versioned/ subtree at the location is preserved so
// archived history survives an overwrite.
//
// Reference lists are deduplicated in place before serialization: two
// entries are duplicates when both id and version match, the first
// occurrence wins, and the order of the survivors is preserved.
func (s *Store) Write(resource *models.Resource, opts WriteOptions) error {
	if err := resource.Validate(); err != nil {
		return fmt.Errorf("catalog: write resource: %w: %v", apperr.ErrMalformed, err)
	}

	dir := opts.Path
	if dir == "" {
		if !resource.Type.Valid() {
			return fmt.Errorf("catalog: write resource %s: unknown type %q", resource.ID, resource.Type)
		}
		dir = CanonicalDir(resource.Type, resource.ID)
	}
	docPath := path.Join(dir, storage.DocFile)

	occupied, err := s.fs.Exists(docPath)
	if err != nil {
		return err
	}
	if occupied && !opts.Override {
		return fmt.Errorf("catalog: write resource %s at %s: %w", resource.ID, dir, apperr.ErrAlreadyExists)
	}

	for _, list := range resource.ReferenceLists() {
		*list = dedupeReferences(*list)
	}

	if occupied {
		if err := s.clearLocation(dir); err != nil {
			return err
		}
	}

	data, err := parser.Marshal(resource)
	if err != nil {
		return err
	}
	return s.fs.Write(docPath, data)
}

// clearLocation removes every entry of dir except the versioned/ subtree.
func (s *Store) clearLocation(dir string) error {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, name := range entries {
		if name == VersionedDir {
			continue
		}
		if err := s.fs.RemoveAll(path.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// dedupeReferences drops entries whose id and version both match an earlier
// entry. Differing versions of the same id may coexist.
func dedupeReferences(refs []models.Reference) []models.Reference {
	if len(refs) < 2 {
		return refs
	}
	type key struct{ id, version string }
	seen := make(map[key]struct{}, len(refs))
	out := refs[:0]
	for _, ref := range refs {
		k := key{ref.ID, ref.Version}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, ref)
	}
	return out
}
