// Package captcha contains the HTTP handler for human verification.
package captcha

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notedrop/internal/server/adapters/http/middleware"
	"notedrop/internal/server/app/dto"
	portservices "notedrop/internal/server/ports/services"
	"notedrop/pkg/logger"
)

// Log and error messages.
const (
	LogHandlerVerify = "handling captcha verify request"

	ErrMsgTokenRequired = "Token is required"
	ErrMsgVerifyFailed  = "Verification failed"
)

// Handler handles the captcha endpoint.
type Handler struct {
	verifier portservices.CaptchaVerifier
}

// NewHandler creates the captcha handler.
func NewHandler(verifier portservices.CaptchaVerifier) *Handler {
	return &Handler{verifier: verifier}
}

// Verify checks a captcha token against the verification service.
func (h *Handler) Verify(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.Verify"))
	log.Debug(requestCtx, LogHandlerVerify)

	var req dto.CaptchaRequest
	if err := ctx.Bind().Body(&req); err != nil || req.Token == "" {
		return badRequest(ctx, ErrMsgTokenRequired)
	}

	ok, err := h.verifier.Verify(requestCtx, req.Token, clientIP(ctx))
	if err != nil {
		log.Error(requestCtx, "captcha verification error", zap.Error(err))
		if sendErr := ctx.Status(fiber.StatusInternalServerError).JSON(dto.CaptchaResponse{
			Success: false,
			Message: ErrMsgVerifyFailed,
		}); sendErr != nil {
			return fmt.Errorf("error sending response: %w", sendErr)
		}
		return nil
	}

	if !ok {
		if sendErr := ctx.Status(fiber.StatusForbidden).JSON(dto.CaptchaResponse{
			Success: false,
			Message: ErrMsgVerifyFailed,
		}); sendErr != nil {
			return fmt.Errorf("error sending response: %w", sendErr)
		}
		return nil
	}

	if err := ctx.JSON(dto.CaptchaResponse{Success: true}); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// clientIP prefers the forwarded address set by the edge proxy.
func clientIP(ctx fiber.Ctx) string {
	if forwarded := ctx.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return ctx.IP()
}

// badRequest sends a 400 with a user-facing message.
func badRequest(ctx fiber.Ctx, msg string) error {
	if err := ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg}); err != nil {
		return fmt.Errorf("failed to send bad request response: %w", err)
	}
	return nil
}
