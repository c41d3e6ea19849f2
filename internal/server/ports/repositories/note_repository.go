// Package repositories defines repository interfaces for the note service.
package repositories

import (
	"context"

	"notedrop/internal/server/domain/entities"
)

// NoteRepository persists notes keyed by path.
type NoteRepository interface {
	// GetByPath returns the note with its files, or nil when the path
	// has never been saved.
	GetByPath(ctx context.Context, path string) (*entities.Note, error)
	// Upsert writes the full content snapshot for the path, creating
	// the row on first save, and returns the stored note with files.
	Upsert(ctx context.Context, path, content string) (*entities.Note, error)
	// EnsureByPath returns the note for the path, creating an empty row
	// when it does not exist yet.
	EnsureByPath(ctx context.Context, path string) (*entities.Note, error)
}
