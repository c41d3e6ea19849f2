// Package notes contains the HTTP handlers for reading and writing
// note snapshots.
package notes

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notedrop/internal/server/adapters/http/middleware"
	"notedrop/internal/server/app/dto"
	"notedrop/internal/server/app/services"
	"notedrop/pkg/logger"
)

// Log and error messages.
const (
	LogHandlerGetNote    = "handling get note request"
	LogHandlerUpsertNote = "handling upsert note request"

	ErrMsgInvalidPath    = "Invalid note path format"
	ErrMsgPathRequired   = "Path is required"
	ErrMsgInvalidContent = "Content must be a string"
)

// Handler handles the note endpoints.
type Handler struct {
	notes *services.NoteService
}

// NewHandler creates the notes handler.
func NewHandler(notes *services.NoteService) *Handler {
	return &Handler{notes: notes}
}

// GetNote returns the note for a path, or an empty placeholder for a
// never-saved path.
func (h *Handler) GetNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.GetNote"))
	log.Debug(requestCtx, LogHandlerGetNote)

	path := ctx.Params("path")
	if path == "" {
		return badRequest(ctx, ErrMsgPathRequired)
	}

	note, err := h.notes.GetNote(requestCtx, path)
	if err != nil {
		log.Error(requestCtx, "failed to get note", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(note); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// UpsertNote writes the full content snapshot for a path.
func (h *Handler) UpsertNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.UpsertNote"))
	log.Debug(requestCtx, LogHandlerUpsertNote)

	path := ctx.Params("path")
	if path == "" {
		return badRequest(ctx, ErrMsgPathRequired)
	}

	var req dto.UpsertNoteRequest
	if err := ctx.Bind().Body(&req); err != nil || req.Content == nil {
		log.Debug(requestCtx, ErrMsgInvalidContent, zap.Error(err))
		return badRequest(ctx, ErrMsgInvalidContent)
	}

	note, err := h.notes.UpsertNote(requestCtx, path, *req.Content)
	if err != nil {
		log.Error(requestCtx, "failed to upsert note", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(note); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
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
	if errors.Is(err, services.ErrInvalidPath) {
		return badRequest(ctx, ErrMsgInvalidPath)
	}

	if sendErr := ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	}); sendErr != nil {
		return fmt.Errorf("error sending 500 response: %w", sendErr)
	}
	return nil
}
