// Package apperr defines the sentinel error kinds surfaced by the catalog
// store. None of them are recovered internally; every operation propagates
// its error to the caller without retrying.
package apperr

import "errors"

var (
	// ErrNotFound: resolution failed for the requested id/version/path.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists: write without override into an occupied path.
	ErrAlreadyExists = errors.New("already exists")
	// ErrArchiveConflict: the archive destination version is already populated.
	ErrArchiveConflict = errors.New("archive conflict")
	// ErrMalformed: a resource document is missing required fields.
	ErrMalformed = errors.New("malformed resource")
)
