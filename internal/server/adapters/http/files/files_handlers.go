// Package files contains the HTTP handlers for the upload, download,
// and delete flows.
package files

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notedrop/internal/server/adapters/http/middleware"
	"notedrop/internal/server/app/dto"
	"notedrop/internal/server/app/services"
	"notedrop/pkg/logger"
)

// Log and error messages.
const (
	LogHandlerUpload   = "handling upload request"
	LogHandlerDownload = "handling download request"
	LogHandlerDelete   = "handling delete file request"

	ErrMsgPathRequired = "Note path is required"
	ErrMsgFileRequired = "File ID is required"
	ErrMsgNoFiles      = "No files provided"
	ErrMsgFileNotFound = "File not found"
	ErrMsgFileExpired  = "File has expired"
)

// Handler handles the file endpoints.
type Handler struct {
	files *services.FileService
}

// NewHandler creates the files handler.
func NewHandler(files *services.FileService) *Handler {
	return &Handler{files: files}
}

// Upload stores a multipart batch of files on a note.
func (h *Handler) Upload(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.Upload"))
	log.Debug(requestCtx, LogHandlerUpload)

	form, err := ctx.MultipartForm()
	if err != nil {
		return badRequest(ctx, "Invalid multipart form")
	}

	notePath := formValue(form, "notePath")
	if notePath == "" {
		return badRequest(ctx, ErrMsgPathRequired)
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return badRequest(ctx, ErrMsgNoFiles)
	}

	uploads := make([]dto.UploadFile, 0, len(headers))
	for _, header := range headers {
		uploads = append(uploads, dto.UploadFile{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return header.Open()
			},
		})
	}

	resp, err := h.files.Upload(requestCtx, notePath, uploads)
	if err != nil {
		log.Error(requestCtx, "upload failed", zap.Error(err))
		return handleError(ctx, err)
	}

	// Nothing got through: every file in the batch was rejected.
	if !resp.Success {
		if err := ctx.Status(fiber.StatusBadRequest).JSON(resp); err != nil {
			return fmt.Errorf("error sending response: %w", err)
		}
		return nil
	}

	if err := ctx.JSON(resp); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// Download redirects to a time-limited URL for the attachment bytes.
func (h *Handler) Download(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.Download"))
	log.Debug(requestCtx, LogHandlerDownload)

	fileID := ctx.Params("file_id")
	if fileID == "" {
		return badRequest(ctx, ErrMsgFileRequired)
	}

	url, err := h.files.DownloadURL(requestCtx, fileID)
	if err != nil {
		log.Debug(requestCtx, "download rejected", zap.Error(err))
		return handleError(ctx, err)
	}

	return ctx.Redirect().Status(fiber.StatusFound).To(url)
}

// Delete removes an attachment by ID.
func (h *Handler) Delete(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.Delete"))
	log.Debug(requestCtx, LogHandlerDelete)

	fileID := ctx.Params("file_id")
	if fileID == "" {
		return badRequest(ctx, ErrMsgFileRequired)
	}

	if err := h.files.Delete(requestCtx, fileID); err != nil {
		log.Error(requestCtx, "failed to delete file", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(dto.DeleteFileResponse{
		Success: true,
		Message: "File deleted successfully",
	}); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// formValue returns the first value for a multipart form key.
func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// badRequest sends a 400 with a user-facing message.
func badRequest(ctx fiber.Ctx, msg string) error {
	if err := ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg}); err != nil {
		return fmt.Errorf("failed to send bad request response: %w", err)
	}
	return nil
}

// handleError maps service errors to HTTP statuses.
func handleError(ctx fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidPath),
		errors.Is(err, services.ErrNoFiles),
		errors.Is(err, services.ErrTooManyFiles):
		return badRequest(ctx, err.Error())
	case errors.Is(err, services.ErrFileNotFound):
		if sendErr := ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": ErrMsgFileNotFound}); sendErr != nil {
			return fmt.Errorf("error sending 404 response: %w", sendErr)
		}
		return nil
	case errors.Is(err, services.ErrFileExpired):
		if sendErr := ctx.Status(fiber.StatusGone).JSON(fiber.Map{"error": ErrMsgFileExpired}); sendErr != nil {
			return fmt.Errorf("error sending 410 response: %w", sendErr)
		}
		return nil
	}

	if sendErr := ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	}); sendErr != nil {
		return fmt.Errorf("error sending 500 response: %w", sendErr)
	}
	return nil
}
