package config

import "time"

// LimitsConfig holds upload validation and rate-limit settings.
type LimitsConfig struct {
	// MaxFilesPerNote is the global attachment cap per note.
	MaxFilesPerNote int `yaml:"max_files_per_note" env:"SERVER_LIMITS_MAX_FILES_PER_NOTE" env-default:"10"`
	// DefaultMaxFileSize applies to MIME categories without their own ceiling.
	DefaultMaxFileSize int64 `yaml:"default_max_file_size" env:"SERVER_LIMITS_DEFAULT_MAX_FILE_SIZE" env-default:"5242880"`
	// FileRetention is the window after which attachments expire.
	FileRetention time.Duration `yaml:"file_retention" env:"SERVER_LIMITS_FILE_RETENTION" env-default:"720h"`

	// UploadRequests/UploadWindow define the per-client-IP rate limit.
	UploadRequests int           `yaml:"upload_requests" env:"SERVER_LIMITS_UPLOAD_REQUESTS" env-default:"10"`
	UploadWindow   time.Duration `yaml:"upload_window" env:"SERVER_LIMITS_UPLOAD_WINDOW" env-default:"5m"`
	// RateLimiterBackend selects "memory" or "redis".
	RateLimiterBackend string `yaml:"rate_limiter_backend" env:"SERVER_LIMITS_RATE_LIMITER_BACKEND" env-default:"memory"`
}
