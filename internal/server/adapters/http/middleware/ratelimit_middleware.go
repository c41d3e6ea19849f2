package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notedrop/internal/server/ports/services"
	"notedrop/pkg/logger"
)

// NewRateLimitMiddleware rejects requests over the per-client-IP limit
// with 429. Limiter failures fail open: a broken counter store must not
// take uploads down with it.
func NewRateLimitMiddleware(limiter services.RateLimiter, keyPrefix string) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := RequestContext(ctx)
		log := logger.Log(requestCtx).With(zap.String("middleware", "ratelimit"))

		key := keyPrefix + clientIP(ctx)

		allowed, err := limiter.Allow(requestCtx, key)
		if err != nil {
			log.Warn(requestCtx, "rate limiter unavailable, allowing request", zap.Error(err))
			return ctx.Next()
		}

		if !allowed {
			log.Info(requestCtx, "rate limit exceeded", zap.String("key", key))
			return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again in 5 minutes.",
			})
		}

		return ctx.Next()
	}
}

// clientIP prefers the forwarded address set by the edge proxy.
func clientIP(ctx fiber.Ctx) string {
	if forwarded := ctx.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := ctx.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return ctx.IP()
}
