// Package http contains the HTTP server components.
package http

import (
	"github.com/gofiber/fiber/v3"

	"notedrop/internal/server/adapters/http/captcha"
	"notedrop/internal/server/adapters/http/channels"
	"notedrop/internal/server/adapters/http/files"
	"notedrop/internal/server/adapters/http/middleware"
	"notedrop/internal/server/adapters/http/notes"
	appservices "notedrop/internal/server/app/services"
	"notedrop/internal/server/ports/services"
)

// SetupRouter wires the HTTP routes.
func SetupRouter(
	app *fiber.App,
	noteService *appservices.NoteService,
	fileService *appservices.FileService,
	channelService *appservices.ChannelService,
	verifier services.CaptchaVerifier,
	uploadLimiter services.RateLimiter,
) {
	notesHandler := notes.NewHandler(noteService)
	filesHandler := files.NewHandler(fileService)
	channelsHandler := channels.NewHandler(channelService)
	captchaHandler := captcha.NewHandler(verifier)

	// Middleware for all requests.
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	// API version 1.
	apiV1 := app.Group("/api/v1")

	// Note snapshots.
	noteRoutes := apiV1.Group("/notes")
	noteRoutes.Get("/:path", notesHandler.GetNote)
	noteRoutes.Put("/:path", notesHandler.UpsertNote)

	// File attachments. Uploads are throttled per client IP.
	apiV1.Post("/upload", filesHandler.Upload,
		middleware.NewRateLimitMiddleware(uploadLimiter, "upload_"))
	fileRoutes := apiV1.Group("/files")
	fileRoutes.Get("/:file_id", filesHandler.Download)
	fileRoutes.Delete("/:file_id", filesHandler.Delete)

	// Realtime channel auth and broadcasting.
	realtimeRoutes := apiV1.Group("/realtime")
	realtimeRoutes.Post("/auth", channelsHandler.Authorize)
	realtimeRoutes.Post("/broadcast", channelsHandler.Broadcast)

	// Human verification.
	apiV1.Post("/captcha/verify", captchaHandler.Verify)

	// Handler for unknown routes.
	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})
}
