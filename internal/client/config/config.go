// Package config contains the configuration for the note client.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"notedrop/pkg/logger"
)

// Log and error messages for configuration loading.
const (
	LogLoadingConfig    = "loading client configuration"
	LogConfigLoaded     = "configuration loaded successfully"
	ErrFailedLoadConfig = "failed to load configuration"
)

// APIConfig points at the note service.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"CLIENT_API_BASE_URL" env-default:"http://localhost:8080"`
	Timeout time.Duration `yaml:"timeout" env:"CLIENT_API_TIMEOUT" env-default:"15s"`
}

// RedisConfig is the event subscription connection.
type RedisConfig struct {
	Host     string `yaml:"host" env:"CLIENT_REDIS_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"CLIENT_REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"CLIENT_REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"CLIENT_REDIS_DB" env-default:"0"`
}

// GetAddressString returns the host:port address.
func (c *RedisConfig) GetAddressString() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SyncConfig tunes the debounce windows.
type SyncConfig struct {
	BroadcastDelay time.Duration `yaml:"broadcast_delay" env:"CLIENT_SYNC_BROADCAST_DELAY" env-default:"300ms"`
	SaveDelay      time.Duration `yaml:"save_delay" env:"CLIENT_SYNC_SAVE_DELAY" env-default:"3s"`
}

// LoggingConfig is the logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" env:"CLIENT_LOGGER_LEVEL" env-default:"info"`
	Mode  string `yaml:"mode" env:"CLIENT_LOGGER_MODE" env-default:"development"`
}

// ShutdownConfig is the graceful shutdown configuration.
type ShutdownConfig struct {
	Timeout int `yaml:"timeout" env:"CLIENT_SHUTDOWN_TIMEOUT" env-default:"5"`
}

// GetTimeout returns the shutdown timeout as a duration.
func (c *ShutdownConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Config is the full note client configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Redis    RedisConfig    `yaml:"redis"`
	Sync     SyncConfig     `yaml:"sync"`
	Logging  LoggingConfig  `yaml:"logging"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// Load reads the configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	log := logger.Log(ctx)

	log.Info(ctx, LogLoadingConfig)

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Error(ctx, ErrFailedLoadConfig, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	log.Info(ctx, LogConfigLoaded,
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.String("redis_address", cfg.Redis.GetAddressString()),
		zap.Duration("broadcast_delay", cfg.Sync.BroadcastDelay),
		zap.Duration("save_delay", cfg.Sync.SaveDelay))

	return &cfg, nil
}

// GetEnvironment returns the logger environment for the configured mode.
func (c *LoggingConfig) GetEnvironment() logger.Environment {
	if c.Mode == "development" {
		return logger.Development
	}
	return logger.Production
}
