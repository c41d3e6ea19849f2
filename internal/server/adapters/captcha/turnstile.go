// Package captcha provides the Cloudflare Turnstile verifier.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"notedrop/internal/server/config"
	"notedrop/internal/server/ports/services"
	"notedrop/pkg/logger"
)

// TurnstileVerifier implements services.CaptchaVerifier against the
// Turnstile siteverify endpoint.
type TurnstileVerifier struct {
	secretKey string
	verifyURL string
	client    *http.Client
}

// siteverifyResponse is the subset of the Turnstile response we read.
type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// NewTurnstileVerifier creates a verifier. A nil client falls back to a
// default client with the configured timeout.
func NewTurnstileVerifier(cfg *config.CaptchaConfig, client *http.Client) *TurnstileVerifier {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &TurnstileVerifier{
		secretKey: cfg.SecretKey,
		verifyURL: cfg.VerifyURL,
		client:    client,
	}
}

// Verify checks the challenge token. A false return with a nil error
// means the challenge service rejected the token.
func (v *TurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	log := logger.Log(ctx).With(zap.String("method", "TurnstileVerifier.Verify"))

	form := url.Values{}
	form.Set("secret", v.secretKey)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		log.Error(ctx, "siteverify request failed", zap.Error(err))
		return false, fmt.Errorf("siteverify request failed: %w", err)
	}
	defer resp.Body.Close()

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Error(ctx, "failed to decode siteverify response", zap.Error(err))
		return false, fmt.Errorf("failed to decode siteverify response: %w", err)
	}

	if !result.Success {
		log.Warn(ctx, "captcha verification rejected", zap.Strings("error_codes", result.ErrorCodes))
	}

	return result.Success, nil
}

var _ services.CaptchaVerifier = (*TurnstileVerifier)(nil)
