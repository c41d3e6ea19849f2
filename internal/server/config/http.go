package config

import (
	"fmt"
	"time"
)

// HTTPConfig is the HTTP server configuration.
type HTTPConfig struct {
	Host         string        `yaml:"host" env:"SERVER_HTTP_HOST" env-default:"0.0.0.0"`
	Port         int           `yaml:"port" env:"SERVER_HTTP_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_HTTP_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_HTTP_WRITE_TIMEOUT" env-default:"10s"`
	BodyLimit    int           `yaml:"body_limit" env:"SERVER_HTTP_BODY_LIMIT" env-default:"67108864"`
}

// GetAddress returns the HTTP listen address.
func (c *HTTPConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
