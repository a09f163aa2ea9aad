package catalog

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/storage"
)

// AttachFile resolves id under the given version token and writes one
// auxiliary file into the resolved directory, creating or overwriting that
// single file only. The resource document is never touched.
func (s *Store) AttachFile(id string, file models.AttachedFile, version string) error {
	dir, err := s.Resolve(id, version)
	if err != nil {
		return err
	}
	name, err := safeFileName(file.FileName)
	if err != nil {
		return err
	}
	return s.fs.Write(path.Join(dir, name), file.Content)
}

// safeFileName validates that name is a plain file name (no path
// separators, no traversal, not the resource document itself).
func safeFileName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("catalog: attach: file name is required")
	}
	cleaned := path.Clean(name)
	if cleaned != path.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("catalog: attach: invalid file name: %s", name)
	}
	if cleaned == storage.DocFile {
		return "", fmt.Errorf("catalog: attach: %s is the resource document", storage.DocFile)
	}
	return cleaned, nil
}
