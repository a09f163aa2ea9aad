// Package storage defines the catalog file-system abstraction.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DocFile is the name of the resource document inside every resource
// directory. A directory is a resource location iff it contains this file.
const DocFile = "index.md"

// DocInfo is a lightweight record for one resource document found on disk.
type DocInfo struct {
	// Path is the document path relative to the catalog root.
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// Checksum returns the hex-encoded SHA-256 digest of a document's content.
// It is the change-detection key stored in DocInfo and in the index.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Provider is the interface for catalog file operations. All paths are
// relative to the catalog root.
type Provider interface {
	// ListDocs walks dir and returns every resource document beneath it in
	// lexicographic path order.
	ListDocs(dir string) ([]DocInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Remove deletes a single file.
	Remove(path string) error
	// RemoveAll deletes path and everything beneath it.
	RemoveAll(path string) error
	// Move renames oldPath to newPath (file or whole directory).
	Move(oldPath, newPath string) error
	// Exists reports whether a file or directory exists at path.
	Exists(path string) (bool, error)
	// ReadDir returns the entry names of the directory at path.
	ReadDir(path string) ([]string, error)
}
