package repositories

import (
	"context"

	"notedrop/internal/server/domain/entities"
)

// FileRepository persists attachment metadata.
type FileRepository interface {
	Create(ctx context.Context, file *entities.FileRef) error
	// GetByID returns nil when the file is unknown.
	GetByID(ctx context.Context, fileID string) (*entities.FileRef, error)
	Delete(ctx context.Context, fileID string) error
	CountByNoteID(ctx context.Context, noteID string) (int, error)
}
