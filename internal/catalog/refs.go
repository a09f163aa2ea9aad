package catalog

import (
	"fmt"
	"path"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/parser"
	"github.com/starford/othala/internal/storage"
)

// RefKind selects which of a resource's reference lists an operation
// targets.
type RefKind int

const (
	RefServices RefKind = iota
	RefSends
	RefReceives
)

func (k RefKind) String() string {
	switch k {
	case RefServices:
		return "services"
	case RefSends:
		return "sends"
	case RefReceives:
		return "receives"
	}
	return "unknown"
}

func (k RefKind) list(r *models.Resource) (*[]models.Reference, error) {
	switch k {
	case RefServices:
		return &r.Services, nil
	case RefSends:
		return &r.Sends, nil
	case RefReceives:
		return &r.Receives, nil
	}
	return nil, fmt.Errorf("catalog: unknown reference kind %d", int(k))
}

// AddReference appends ref to the selected reference list of the primary
// resource for id, then rewrites the resource document in place. Attached
// files and archived versions at the location are untouched. When an entry
// with the same id and version is already present the document is left
// unchanged, so repeated calls with identical arguments converge on a
// single entry.
//
// This is a read-modify-write sequence, not a transaction: the fetch and
// the overwrite are independent filesystem steps.
func (s *Store) AddReference(id string, kind RefKind, ref models.Reference) error {
	dir, err := s.Resolve(id, Latest)
	if err != nil {
		return err
	}
	r, err := s.GetByPath(dir)
	if err != nil {
		return err
	}

	list, err := kind.list(r)
	if err != nil {
		return err
	}
	for _, existing := range *list {
		if existing.ID == ref.ID && existing.Version == ref.Version {
			return nil
		}
	}
	*list = append(*list, ref)

	data, err := parser.Marshal(r)
	if err != nil {
		return err
	}
	return s.fs.Write(path.Join(dir, storage.DocFile), data)
}
