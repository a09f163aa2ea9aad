// Package models defines the domain types for Othala.
package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ResourceType discriminates the catalog resource kinds. It is a closed
// enumeration so a typo in a type name fails at compile time rather than
// silently creating a new top-level catalog directory.
type ResourceType string

const (
	TypeDomain  ResourceType = "domain"
	TypeService ResourceType = "service"
	TypeEvent   ResourceType = "event"
	TypeCommand ResourceType = "command"
	TypeQuery   ResourceType = "query"
	TypeChannel ResourceType = "channel"
)

// Dir returns the canonical catalog directory for the type ("domains",
// "services", ...).
func (t ResourceType) Dir() string {
	if t == TypeQuery {
		return "queries"
	}
	return string(t) + "s"
}

// TypeFromDir maps a canonical catalog directory name back to its resource
// type ("domains" → TypeDomain). The second return is false for directory
// names that are not a canonical type directory.
func TypeFromDir(dir string) (ResourceType, bool) {
	for _, t := range []ResourceType{TypeDomain, TypeService, TypeEvent, TypeCommand, TypeQuery, TypeChannel} {
		if t.Dir() == dir {
			return t, true
		}
	}
	return "", false
}

// Valid reports whether t is one of the known resource types.
func (t ResourceType) Valid() bool {
	switch t {
	case TypeDomain, TypeService, TypeEvent, TypeCommand, TypeQuery, TypeChannel:
		return true
	}
	return false
}

// Reference is a non-owning {id, version} pointer from one resource to
// another. The referenced resource is looked up by id+version; it is never
// owned by the referrer.
type Reference struct {
	ID      string `yaml:"id"`
	Version string `yaml:"version,omitempty"`
}

// Resource is the unit of storage: one versioned catalog entity (domain,
// service, event, ...) persisted as a directory holding a frontmatter
// document plus arbitrary attached files.
//
// The reference lists are type-specific: a domain carries Services, a
// service carries Sends/Receives. Unused lists stay empty and are omitted
// from the serialized frontmatter.
type Resource struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name,omitempty"`
	Version string       `yaml:"version"`
	Summary string       `yaml:"summary,omitempty"`
	Type    ResourceType `yaml:"-"`
	Owners  []string     `yaml:"owners,omitempty"`

	// Services lists the services attached to a domain.
	Services []Reference `yaml:"services,omitempty"`
	// Sends and Receives list the messages a service produces and consumes.
	Sends    []Reference `yaml:"sends,omitempty"`
	Receives []Reference `yaml:"receives,omitempty"`

	// Markdown is the free-text body following the frontmatter block.
	Markdown string `yaml:"-"`
}

// Validate checks the fields every resource must declare before it can be
// written or resolved.
func (r *Resource) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Version, validation.Required),
	)
}

// ReferenceLists returns pointers to every reference list the resource
// carries, so callers can apply list-wide rules (deduplication) uniformly.
func (r *Resource) ReferenceLists() []*[]Reference {
	return []*[]Reference{&r.Services, &r.Sends, &r.Receives}
}

// AttachedFile is an auxiliary file written into a resource directory
// alongside the resource document.
type AttachedFile struct {
	FileName string
	Content  []byte
}
