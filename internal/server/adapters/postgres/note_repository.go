package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"notedrop/internal/server/domain/entities"
	"notedrop/internal/server/ports/repositories"
	"notedrop/pkg/logger"
)

// NoteRepository implements repositories.NoteRepository.
type NoteRepository struct {
	db DB
}

// NewNoteRepository creates a new note repository.
func NewNoteRepository(db DB) repositories.NoteRepository {
	return &NoteRepository{db: db}
}

const selectNoteByPath = `SELECT id, path, content, created_at, updated_at FROM notes WHERE path = $1`

// GetByPath returns the note with its files, or nil when the path has
// never been saved.
func (r *NoteRepository) GetByPath(ctx context.Context, path string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.GetByPath"))
	log.Debug(ctx, "getting note", zap.String("path", path))

	var note entities.Note
	err := r.db.QueryRow(ctx, selectNoteByPath, path).
		Scan(&note.ID, &note.Path, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found", zap.String("path", path))
			return nil, nil
		}
		log.Error(ctx, "failed to get note", zap.Error(err))
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	files, err := r.listFiles(ctx, note.ID)
	if err != nil {
		return nil, err
	}
	note.Files = files

	return &note, nil
}

// Upsert writes the full content snapshot for the path. The write is a
// single atomic statement, which is what makes last-write-wins safe at
// the row level.
func (r *NoteRepository) Upsert(ctx context.Context, path, content string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Upsert"))
	log.Debug(ctx, "upserting note", zap.String("path", path))

	var note entities.Note
	err := r.db.QueryRow(ctx,
		`INSERT INTO notes (path, content) VALUES ($1, $2)
         ON CONFLICT (path) DO UPDATE SET content = EXCLUDED.content, updated_at = now()
         RETURNING id, path, content, created_at, updated_at`,
		path, content,
	).Scan(&note.ID, &note.Path, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		log.Error(ctx, "failed to upsert note", zap.Error(err))
		return nil, fmt.Errorf("failed to upsert note: %w", err)
	}

	files, err := r.listFiles(ctx, note.ID)
	if err != nil {
		return nil, err
	}
	note.Files = files

	return &note, nil
}

// EnsureByPath returns the note for the path, creating an empty row
// when it does not exist yet.
func (r *NoteRepository) EnsureByPath(ctx context.Context, path string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.EnsureByPath"))

	var note entities.Note
	err := r.db.QueryRow(ctx,
		`INSERT INTO notes (path, content) VALUES ($1, '')
         ON CONFLICT (path) DO UPDATE SET path = EXCLUDED.path
         RETURNING id, path, content, created_at, updated_at`,
		path,
	).Scan(&note.ID, &note.Path, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		log.Error(ctx, "failed to ensure note", zap.Error(err))
		return nil, fmt.Errorf("failed to ensure note: %w", err)
	}

	files, err := r.listFiles(ctx, note.ID)
	if err != nil {
		return nil, err
	}
	note.Files = files

	return &note, nil
}

const selectFilesByNoteID = `SELECT id, note_id, filename, original_name, mime_type, size, uploaded_at, expires_at
         FROM files
         WHERE note_id = $1
         ORDER BY uploaded_at DESC`

// listFiles returns the note's attachments ordered by upload time,
// newest first.
func (r *NoteRepository) listFiles(ctx context.Context, noteID string) ([]*entities.FileRef, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.listFiles"))

	rows, err := r.db.Query(ctx, selectFilesByNoteID, noteID)
	if err != nil {
		log.Error(ctx, "failed to list files", zap.Error(err))
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	files := make([]*entities.FileRef, 0)
	for rows.Next() {
		var f entities.FileRef
		err := rows.Scan(&f.ID, &f.NoteID, &f.Filename, &f.OriginalName, &f.MimeType, &f.Size, &f.UploadedAt, &f.ExpiresAt)
		if err != nil {
			log.Error(ctx, "failed to scan file", zap.Error(err))
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, &f)
	}

	if err := rows.Err(); err != nil {
		log.Error(ctx, "error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return files, nil
}
