package config

import "time"

// CaptchaConfig is the Turnstile verification configuration.
type CaptchaConfig struct {
	SecretKey string        `yaml:"secret_key" env:"SERVER_CAPTCHA_SECRET_KEY" env-default:""`
	VerifyURL string        `yaml:"verify_url" env:"SERVER_CAPTCHA_VERIFY_URL" env-default:"https://challenges.cloudflare.com/turnstile/v0/siteverify"`
	Timeout   time.Duration `yaml:"timeout" env:"SERVER_CAPTCHA_TIMEOUT" env-default:"10s"`
}
