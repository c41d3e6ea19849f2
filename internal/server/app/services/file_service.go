package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notedrop/internal/realtime"
	"notedrop/internal/server/app/dto"
	"notedrop/internal/server/config"
	"notedrop/internal/server/domain/entities"
	"notedrop/internal/server/ports/repositories"
	"notedrop/internal/server/ports/services"
	"notedrop/pkg/logger"
)

// categoryCeilings maps MIME categories (the prefix before "/") or full
// MIME types to their size ceilings.
var categoryCeilings = map[string]int64{
	"image":           5 * 1024 * 1024,
	"video":           5 * 1024 * 1024,
	"audio":           5 * 1024 * 1024,
	"text":            5 * 1024 * 1024,
	"application/pdf": 5 * 1024 * 1024,
}

// FileService handles the upload, delete, and download flows.
type FileService struct {
	notes       repositories.NoteRepository
	files       repositories.FileRepository
	storage     services.ObjectStorage
	broadcaster services.Broadcaster
	limits      *config.LimitsConfig
	presignTTL  time.Duration
}

// NewFileService creates the file service.
func NewFileService(
	notes repositories.NoteRepository,
	files repositories.FileRepository,
	objects services.ObjectStorage,
	broadcaster services.Broadcaster,
	limits *config.LimitsConfig,
	presignTTL time.Duration,
) *FileService {
	return &FileService{
		notes:       notes,
		files:       files,
		storage:     objects,
		broadcaster: broadcaster,
		limits:      limits,
		presignTTL:  presignTTL,
	}
}

// generateStorageKey returns a collision-resistant object key. The
// user-supplied name contributes only its extension.
func generateStorageKey(notePath, originalName string) string {
	return fmt.Sprintf("notes/%s/%s%s", notePath, uuid.NewString(), filepath.Ext(originalName))
}

// Upload validates and stores a batch of files for a note. The count
// ceiling rejects the whole batch; size violations are per-file, so the
// remaining files in the same request still succeed.
func (s *FileService) Upload(ctx context.Context, notePath string, uploads []dto.UploadFile) (*dto.UploadResponse, error) {
	log := logger.Log(ctx).With(zap.String("service", "FileService.Upload"), zap.String("path", notePath))

	if !entities.ValidPath(notePath) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, notePath)
	}
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}

	note, err := s.notes.EnsureByPath(ctx, notePath)
	if err != nil {
		log.Error(ctx, "failed to ensure note", zap.Error(err))
		return nil, fmt.Errorf("failed to ensure note: %w", err)
	}

	existing, err := s.files.CountByNoteID(ctx, note.ID)
	if err != nil {
		log.Error(ctx, "failed to count files", zap.Error(err))
		return nil, fmt.Errorf("failed to count files: %w", err)
	}
	if existing+len(uploads) > s.limits.MaxFilesPerNote {
		return nil, fmt.Errorf("%w: maximum %d files allowed per note", ErrTooManyFiles, s.limits.MaxFilesPerNote)
	}

	var (
		uploaded  []dto.UploadedFile
		failures  []dto.UploadFailure
		summaries []realtime.FileSummary
	)

	for _, upload := range uploads {
		result, err := s.uploadOne(ctx, note, upload)
		if err != nil {
			log.Warn(ctx, "file rejected", zap.String("file", upload.Name), zap.Error(err))
			failures = append(failures, dto.UploadFailure{Name: upload.Name, Error: err.Error()})
			continue
		}
		uploaded = append(uploaded, *result)
		summaries = append(summaries, realtime.FileSummary{
			ID:   result.ID,
			Name: result.Name,
			URL:  result.URL,
			Size: result.Size,
			Type: result.Type,
		})
	}

	// One broadcast for the whole batch; a publish failure degrades to
	// log-only, the upload itself already succeeded.
	if len(summaries) > 0 {
		frame, err := realtime.Marshal(realtime.FileUploaded{Files: summaries, Timestamp: time.Now()})
		if err != nil {
			log.Error(ctx, "failed to marshal file-uploaded event", zap.Error(err))
		} else if err := s.broadcaster.Publish(ctx, realtime.ChannelForPath(notePath), frame); err != nil {
			log.Warn(ctx, "failed to broadcast file-uploaded event", zap.Error(err))
		}
	}

	return &dto.UploadResponse{
		Success:  len(uploaded) > 0,
		Files:    uploaded,
		Failures: failures,
		Message:  uploadMessage(len(uploaded), len(failures)),
	}, nil
}

// uploadOne validates and stores a single file.
func (s *FileService) uploadOne(ctx context.Context, note *entities.Note, upload dto.UploadFile) (*dto.UploadedFile, error) {
	ceiling := s.sizeCeiling(upload.ContentType)
	if upload.Size > ceiling {
		return nil, fmt.Errorf("file %s exceeds maximum size limit of %dMB", upload.Name, ceiling/1024/1024)
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := generateStorageKey(note.Path, upload.Name)

	body, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer body.Close()

	if err := s.storage.Put(ctx, key, body, upload.Size, contentType); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	now := time.Now()
	ref := &entities.FileRef{
		NoteID:       note.ID,
		Filename:     key,
		OriginalName: upload.Name,
		MimeType:     contentType,
		Size:         upload.Size,
		UploadedAt:   now,
		ExpiresAt:    now.Add(s.limits.FileRetention),
	}
	if err := s.files.Create(ctx, ref); err != nil {
		return nil, fmt.Errorf("failed to record file metadata: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to presign download url: %w", err)
	}

	return &dto.UploadedFile{
		ID:   ref.ID,
		Name: upload.Name,
		URL:  url,
		Size: upload.Size,
		Type: contentType,
	}, nil
}

// Delete removes an attachment. Object-store deletion is best-effort:
// a dangling object is acceptable, metadata consistency takes priority.
func (s *FileService) Delete(ctx context.Context, fileID string) error {
	log := logger.Log(ctx).With(zap.String("service", "FileService.Delete"), zap.String("fileID", fileID))

	ref, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		log.Error(ctx, "failed to look up file", zap.Error(err))
		return fmt.Errorf("failed to look up file: %w", err)
	}
	if ref == nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}

	if err := s.storage.Delete(ctx, ref.Filename); err != nil {
		log.Warn(ctx, "object store delete failed, continuing with metadata delete", zap.Error(err))
	}

	if err := s.files.Delete(ctx, fileID); err != nil {
		log.Error(ctx, "failed to delete file record", zap.Error(err))
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	frame, err := realtime.Marshal(realtime.FileDeleted{
		FileID:    fileID,
		FileName:  ref.OriginalName,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Error(ctx, "failed to marshal file-deleted event", zap.Error(err))
		return nil
	}
	if err := s.broadcaster.Publish(ctx, realtime.ChannelForPath(ref.NotePath), frame); err != nil {
		log.Warn(ctx, "failed to broadcast file-deleted event", zap.Error(err))
	}

	return nil
}

// DownloadURL returns a time-limited URL for the attachment bytes.
func (s *FileService) DownloadURL(ctx context.Context, fileID string) (string, error) {
	log := logger.Log(ctx).With(zap.String("service", "FileService.DownloadURL"), zap.String("fileID", fileID))

	ref, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		log.Error(ctx, "failed to look up file", zap.Error(err))
		return "", fmt.Errorf("failed to look up file: %w", err)
	}
	if ref == nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	if ref.Expired(time.Now()) {
		return "", fmt.Errorf("%w: %s", ErrFileExpired, fileID)
	}

	url, err := s.storage.PresignGet(ctx, ref.Filename, s.presignTTL)
	if err != nil {
		log.Error(ctx, "failed to presign download url", zap.Error(err))
		return "", fmt.Errorf("failed to presign download url: %w", err)
	}

	return url, nil
}

// sizeCeiling resolves the size limit for a MIME type: category prefix
// first, then the full type, then the default.
func (s *FileService) sizeCeiling(contentType string) int64 {
	category, _, _ := strings.Cut(contentType, "/")
	if ceiling, ok := categoryCeilings[category]; ok {
		return ceiling
	}
	if ceiling, ok := categoryCeilings[contentType]; ok {
		return ceiling
	}
	return s.limits.DefaultMaxFileSize
}

func uploadMessage(uploaded, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("Successfully uploaded %d file(s)", uploaded)
	}
	return fmt.Sprintf("Uploaded %d file(s), %d rejected", uploaded, failed)
}
