// Package entities defines the domain entities for the note service.
package entities

import (
	"regexp"
	"time"
)

// pathPattern restricts note paths to the shareable URL character set.
var pathPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Note is a shared document identified by a human-chosen path.
type Note struct {
	ID        string     `json:"id"`
	Path      string     `json:"path"`
	Content   string     `json:"content"`
	Files     []*FileRef `json:"files"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewNote returns the empty placeholder for a path that has never been
// saved. Timestamps stay zero until the first save creates the row.
func NewNote(path string) *Note {
	return &Note{
		Path:  path,
		Files: []*FileRef{},
	}
}

// ValidPath reports whether the path matches the restricted character set.
func ValidPath(path string) bool {
	return pathPattern.MatchString(path)
}
