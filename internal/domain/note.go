package domain

import (
	"path"
	"strings"
)

// Document is a note read from the vault. ID is the slash-separated path
// relative to the vault root.
type Document struct {
	ID   string
	Text string
}

// Name returns the note's base name without extension, as used in wiki links.
func (d Document) Name() string {
	base := path.Base(d.ID)
	return strings.TrimSuffix(base, path.Ext(base))
}

type SearchResult struct {
	Document Document
	Score    int
	Excerpt  string
}
