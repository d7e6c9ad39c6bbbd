// Package manifest assembles uploaded documents into one multi-document
// manifest. All operations are total: malformed or empty content is passed
// through verbatim, never rejected.
package manifest

import (
	"strings"
)

// Separator is the multi-document separator token placed between documents.
const Separator = "\n---\n"

// Upload is one uploaded document: a source name and its raw content.
type Upload struct {
	Name    string
	Content string
}

// Combine builds one multi-document manifest from the uploads, in order. Each
// upload becomes a block of the form "# {name}\n{content}", and blocks are
// joined with [Separator]. Non-empty existing text is kept in front, followed
// by one separator.
func Combine(existing string, uploads []Upload) string {
	blocks := make([]string, 0, len(uploads))
	for _, u := range uploads {
		blocks = append(blocks, "# "+u.Name+"\n"+u.Content)
	}

	joined := strings.Join(blocks, Separator)

	if strings.TrimSpace(existing) == "" {
		return joined
	}

	return existing + Separator + joined
}

// Builder holds manifest text under construction. The text is mutated only by
// explicit Append or Clear calls and is never normalized.
type Builder struct {
	text string
}

// NewBuilder creates a [Builder], optionally seeded with existing text.
func NewBuilder(existing string) *Builder {
	return &Builder{text: existing}
}

// Append appends uploaded documents to the manifest text.
func (b *Builder) Append(uploads ...Upload) {
	if len(uploads) == 0 {
		return
	}

	b.text = Combine(b.text, uploads)
}

// Clear discards the manifest text.
func (b *Builder) Clear() {
	b.text = ""
}

// String returns the current manifest text.
func (b *Builder) String() string {
	return b.text
}
