package catalog

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/parser"
)

// location is one on-disk directory declaring a resource version.
type location struct {
	dir      string // directory relative to the catalog root
	version  string // declared version string from the document
	archived bool   // true when the directory sits under a versioned/ segment
}

// Resolve maps (id, version token) to the directory holding that resource,
// relative to the catalog root.
//
// The token is interpreted as:
//   - "" or "latest": the primary location for id
//   - an exact semantic version: primary first, then archived locations,
//     matched by string equality on the declared version
//   - a semver range ("0.0.x", "^1.2.0", ...): every location is evaluated
//     and the highest satisfying version wins
//
// The whole catalog tree is searched, because resources may be written at
// caller-overridden paths: matching is by the id declared inside each
// candidate document, never by directory name. When several directories
// declare the same id and matched version, the first in lexicographic walk
// order wins deterministically.
func (s *Store) Resolve(id, version string) (string, error) {
	locs, err := s.locations(id)
	if err != nil {
		return "", err
	}
	if len(locs) == 0 {
		return "", fmt.Errorf("catalog: resolve %s: %w", id, apperr.ErrNotFound)
	}

	if version == "" || version == Latest {
		for _, l := range locs {
			if !l.archived {
				return l.dir, nil
			}
		}
		return "", fmt.Errorf("catalog: resolve %s@latest: %w", id, apperr.ErrNotFound)
	}

	if _, err := semver.StrictNewVersion(strings.TrimPrefix(version, "v")); err == nil {
		return resolveExact(locs, id, version)
	}
	return resolveRange(locs, id, version)
}

// resolveExact matches the declared version string exactly, primary
// locations before archived ones.
func resolveExact(locs []location, id, version string) (string, error) {
	for _, l := range locs {
		if !l.archived && l.version == version {
			return l.dir, nil
		}
	}
	for _, l := range locs {
		if l.archived && l.version == version {
			return l.dir, nil
		}
	}
	return "", fmt.Errorf("catalog: resolve %s@%s: %w", id, version, apperr.ErrNotFound)
}

// resolveRange evaluates a semver range against every location and returns
// the highest satisfying match.
func resolveRange(locs []location, id, version string) (string, error) {
	constraint, err := semver.NewConstraint(version)
	if err != nil {
		return "", fmt.Errorf("catalog: resolve %s@%s: bad version token: %w", id, version, apperr.ErrNotFound)
	}

	var bestDir string
	var best *semver.Version
	for _, l := range locs {
		v, parseErr := semver.NewVersion(l.version)
		if parseErr != nil {
			continue
		}
		if !constraint.Check(v) {
			continue
		}
		// Strictly-greater keeps the first location on ties.
		if best == nil || v.GreaterThan(best) {
			best = v
			bestDir = l.dir
		}
	}
	if best == nil {
		return "", fmt.Errorf("catalog: resolve %s@%s: %w", id, version, apperr.ErrNotFound)
	}
	return bestDir, nil
}

// locations walks the whole catalog tree and collects every directory whose
// document declares the given id. Documents that fail to parse are skipped:
// a malformed candidate cannot match, and resolution of other resources
// should not be blocked by it.
func (s *Store) locations(id string) ([]location, error) {
	docs, err := s.fs.ListDocs("")
	if err != nil {
		return nil, err
	}

	var out []location
	for _, d := range docs {
		data, readErr := s.fs.Read(d.Path)
		if readErr != nil {
			return nil, readErr
		}
		r, parseErr := parser.Parse(data)
		if parseErr != nil {
			continue
		}
		if r.ID != id {
			continue
		}
		out = append(out, location{
			dir:      path.Dir(d.Path),
			version:  r.Version,
			archived: IsArchivedPath(d.Path),
		})
	}
	return out, nil
}

// IsArchivedPath reports whether a document path sits beneath a versioned/
// segment, i.e. whether it is an archived snapshot rather than a primary
// location.
func IsArchivedPath(p string) bool {
	for _, seg := range strings.Split(path.Dir(p), "/") {
		if seg == VersionedDir {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
