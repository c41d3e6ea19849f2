package config

import "time"

// ShutdownConfig is the graceful shutdown configuration.
type ShutdownConfig struct {
	Timeout int `yaml:"timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10"`
}

// GetTimeout returns the shutdown timeout as a duration.
func (c *ShutdownConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
