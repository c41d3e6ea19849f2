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

// ErrFileNotFound is returned when an attachment row does not exist.
var ErrFileNotFound = errors.New("file not found")

// FileRepository implements repositories.FileRepository.
type FileRepository struct {
	db DB
}

// NewFileRepository creates a new file repository.
func NewFileRepository(db DB) repositories.FileRepository {
	return &FileRepository{db: db}
}

// Create stores a new attachment record.
func (r *FileRepository) Create(ctx context.Context, file *entities.FileRef) error {
	log := logger.Log(ctx).With(zap.String("method", "FileRepository.Create"))
	log.Debug(ctx, "creating file record", zap.String("noteID", file.NoteID), zap.String("filename", file.Filename))

	err := r.db.QueryRow(ctx,
		`INSERT INTO files (note_id, filename, original_name, mime_type, size, uploaded_at, expires_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING id`,
		file.NoteID, file.Filename, file.OriginalName, file.MimeType, file.Size, file.UploadedAt, file.ExpiresAt,
	).Scan(&file.ID)
	if err != nil {
		log.Error(ctx, "failed to create file record", zap.Error(err))
		return fmt.Errorf("failed to create file record: %w", err)
	}

	return nil
}

// GetByID returns nil when the file is unknown.
func (r *FileRepository) GetByID(ctx context.Context, fileID string) (*entities.FileRef, error) {
	log := logger.Log(ctx).With(zap.String("method", "FileRepository.GetByID"))
	log.Debug(ctx, "getting file", zap.String("fileID", fileID))

	var f entities.FileRef
	err := r.db.QueryRow(ctx,
		`SELECT f.id, f.note_id, n.path, f.filename, f.original_name, f.mime_type, f.size, f.uploaded_at, f.expires_at
         FROM files f
         JOIN notes n ON n.id = f.note_id
         WHERE f.id = $1`,
		fileID,
	).Scan(&f.ID, &f.NoteID, &f.NotePath, &f.Filename, &f.OriginalName, &f.MimeType, &f.Size, &f.UploadedAt, &f.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		log.Error(ctx, "failed to get file", zap.Error(err))
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	return &f, nil
}

// Delete removes the attachment record.
func (r *FileRepository) Delete(ctx context.Context, fileID string) error {
	log := logger.Log(ctx).With(zap.String("method", "FileRepository.Delete"))
	log.Debug(ctx, "deleting file record", zap.String("fileID", fileID))

	result, err := r.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, fileID)
	if err != nil {
		log.Error(ctx, "failed to delete file record", zap.Error(err))
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrFileNotFound
	}

	return nil
}

// CountByNoteID returns the number of attachments on a note.
func (r *FileRepository) CountByNoteID(ctx context.Context, noteID string) (int, error) {
	log := logger.Log(ctx).With(zap.String("method", "FileRepository.CountByNoteID"))

	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM files WHERE note_id = $1`, noteID).Scan(&count)
	if err != nil {
		log.Error(ctx, "failed to count files", zap.Error(err))
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	return count, nil
}
