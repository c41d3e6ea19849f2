// Package channels contains the HTTP handlers for realtime channel
// authorization and server-side broadcasting.
package channels

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notedrop/internal/realtime"
	"notedrop/internal/server/adapters/http/middleware"
	"notedrop/internal/server/app/dto"
	"notedrop/internal/server/app/services"
	"notedrop/pkg/logger"
)

// Log and error messages.
const (
	LogHandlerAuth      = "handling channel auth request"
	LogHandlerBroadcast = "handling broadcast request"

	ErrMsgMissingAuthParams = "Missing required parameters"
	ErrMsgMissingFields     = "Missing required fields"
	ErrMsgUnknownEvent      = "Unknown event type"
)

// Handler handles the realtime endpoints.
type Handler struct {
	channels *services.ChannelService
}

// NewHandler creates the channels handler.
func NewHandler(channels *services.ChannelService) *Handler {
	return &Handler{channels: channels}
}

// Authorize signs a subscription request for a presence channel.
func (h *Handler) Authorize(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.Authorize"))
	log.Debug(requestCtx, LogHandlerAuth)

	socketID := ctx.FormValue("socket_id")
	channelName := ctx.FormValue("channel_name")
	sessionID := ctx.Get("X-Session-ID")

	resp, err := h.channels.Authorize(requestCtx, socketID, channelName, sessionID)
	if err != nil {
		log.Debug(requestCtx, "channel auth rejected", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(resp); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// Broadcast publishes a client-originated event to a note channel.
func (h *Handler) Broadcast(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.Broadcast"))
	log.Debug(requestCtx, LogHandlerBroadcast)

	var req dto.BroadcastRequest
	if err := ctx.Bind().Body(&req); err != nil {
		log.Debug(requestCtx, "invalid broadcast body", zap.Error(err))
		return badRequest(ctx, ErrMsgMissingFields)
	}

	if err := h.channels.Broadcast(requestCtx, &req); err != nil {
		log.Error(requestCtx, "broadcast failed", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(fiber.Map{"success": true}); err != nil {
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
	switch {
	case errors.Is(err, services.ErrMissingAuthParams):
		return badRequest(ctx, ErrMsgMissingAuthParams)
	case errors.Is(err, services.ErrMissingBroadcastFields):
		return badRequest(ctx, ErrMsgMissingFields)
	case errors.Is(err, realtime.ErrUnknownEventKind):
		return badRequest(ctx, ErrMsgUnknownEvent)
	}

	if sendErr := ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	}); sendErr != nil {
		return fmt.Errorf("error sending 500 response: %w", sendErr)
	}
	return nil
}
