package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"notedrop/internal/server/app/dto"
	"notedrop/internal/server/crypto"
	"notedrop/internal/server/domain/entities"
	"notedrop/internal/server/ports/repositories"
	"notedrop/pkg/logger"
)

// NoteService reads and writes note snapshots. Content is encrypted at
// rest; responses always carry plaintext.
type NoteService struct {
	notes  repositories.NoteRepository
	cipher *crypto.ContentCipher
}

// NewNoteService creates the note service. A nil cipher disables
// encryption at rest.
func NewNoteService(notes repositories.NoteRepository, cipher *crypto.ContentCipher) *NoteService {
	return &NoteService{notes: notes, cipher: cipher}
}

// GetNote returns the note for the path, or an empty placeholder when
// the path has never been saved.
func (s *NoteService) GetNote(ctx context.Context, path string) (*dto.NoteResponse, error) {
	log := logger.Log(ctx).With(zap.String("service", "NoteService.GetNote"), zap.String("path", path))

	if !entities.ValidPath(path) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	note, err := s.notes.GetByPath(ctx, path)
	if err != nil {
		log.Error(ctx, "failed to load note", zap.Error(err))
		return nil, fmt.Errorf("failed to load note: %w", err)
	}

	if note == nil {
		// First access to an unknown path: the row is created lazily on
		// first save.
		return s.toResponse(entities.NewNote(path)), nil
	}

	return s.toResponse(note), nil
}

// UpsertNote writes the full content snapshot for the path and echoes
// the stored note back.
func (s *NoteService) UpsertNote(ctx context.Context, path, content string) (*dto.NoteResponse, error) {
	log := logger.Log(ctx).With(zap.String("service", "NoteService.UpsertNote"), zap.String("path", path))

	if !entities.ValidPath(path) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	sealed, err := s.cipher.Seal(content)
	if err != nil {
		log.Error(ctx, "failed to encrypt content", zap.Error(err))
		return nil, fmt.Errorf("failed to encrypt content: %w", err)
	}

	note, err := s.notes.Upsert(ctx, path, sealed)
	if err != nil {
		log.Error(ctx, "failed to save note", zap.Error(err))
		return nil, fmt.Errorf("failed to save note: %w", err)
	}

	log.Debug(ctx, "note saved", zap.Int("content_length", len(content)))
	return s.toResponse(note), nil
}

// toResponse maps the entity to its wire shape, decrypting content.
func (s *NoteService) toResponse(note *entities.Note) *dto.NoteResponse {
	files := note.Files
	if files == nil {
		files = []*entities.FileRef{}
	}
	return &dto.NoteResponse{
		Content:   s.cipher.Open(note.Content),
		Files:     files,
		Path:      note.Path,
		UpdatedAt: note.UpdatedAt,
	}
}
