// Package parser encodes and decodes resource documents: a YAML frontmatter
// block between leading --- fences followed by a free-text Markdown body.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
)

const delim = "---"

// Parse decodes raw document bytes into a resource record. The frontmatter
// fields become typed attributes and the remainder of the document becomes
// the Markdown body.
//
// A document with no frontmatter, unparseable frontmatter, or frontmatter
// missing id/version is rejected with apperr.ErrMalformed.
func Parse(data []byte) (*models.Resource, error) {
	block, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	var r models.Resource
	if err := yaml.Unmarshal(block, &r); err != nil {
		return nil, fmt.Errorf("parser: decode frontmatter: %w: %v", apperr.ErrMalformed, err)
	}
	if r.ID == "" || r.Version == "" {
		return nil, fmt.Errorf("parser: missing id or version: %w", apperr.ErrMalformed)
	}
	r.Markdown = body
	return &r, nil
}

// Marshal serializes a resource record back into document bytes: frontmatter
// between --- fences, one blank line, then the Markdown body.
func Marshal(r *models.Resource) ([]byte, error) {
	block, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	buf.Write(block)
	buf.WriteString(delim + "\n")
	if r.Markdown != "" {
		buf.WriteString("\n")
		buf.WriteString(r.Markdown)
		if !strings.HasSuffix(r.Markdown, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// splitFrontmatter separates the YAML block (between leading --- fences)
// from the Markdown body.
func splitFrontmatter(data []byte) ([]byte, string, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, "", fmt.Errorf("parser: no frontmatter block: %w", apperr.ErrMalformed)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, "", fmt.Errorf("parser: unterminated frontmatter block: %w", apperr.ErrMalformed)
	}

	block := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	return block, body, nil
}
