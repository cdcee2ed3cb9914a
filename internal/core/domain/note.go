package domain

import (
	"strings"
	"time"
)

// Note represents a node in the Tana note forest.
type Note struct {
	// ID is the unique node identifier.
	ID string

	// Title is the node's own title text.
	Title string

	// Content is additional body text beneath the title, if fetched.
	Content string

	// Breadcrumb is the ordered titles of the note's ancestors, root first.
	Breadcrumb []string

	// ParentID links to the immediate parent node. Nil for roots of the
	// sync window.
	ParentID *string

	// HasTag is true when the note already carries a supertag.
	HasTag bool

	// Structural is true when the note is a recognised organisational
	// container (daily-planning scaffold, inbox bucket). Structural notes
	// are never tagging targets themselves.
	Structural bool

	// Created is the node creation time, when the source reports one.
	Created time.Time
}

// Path renders the breadcrumb as a single display string.
func (n Note) Path() string {
	return strings.Join(n.Breadcrumb, " > ")
}

// ScoringText builds the text that is embedded when classifying this note.
// Ancestor titles provide disambiguating context for short titles.
func (n Note) ScoringText() string {
	parts := make([]string, 0, 3)
	if n.Title != "" {
		parts = append(parts, n.Title)
	}
	if n.Content != "" {
		parts = append(parts, n.Content)
	}
	if len(n.Breadcrumb) > 0 {
		parts = append(parts, n.Path())
	}
	return strings.Join(parts, "\n")
}

// HasText reports whether the note carries any embeddable text.
func (n Note) HasText() bool {
	return strings.TrimSpace(n.Title) != "" || strings.TrimSpace(n.Content) != ""
}
