package config

import (
	"fmt"
	"time"
)

// RedisConfig is the Redis connection configuration. Redis carries both
// the broadcast channels and the shared rate-limit counters.
type RedisConfig struct {
	Host         string        `yaml:"host" env:"SERVER_REDIS_HOST" env-default:"localhost"`
	Port         int           `yaml:"port" env:"SERVER_REDIS_PORT" env-default:"6379"`
	Password     string        `yaml:"password" env:"SERVER_REDIS_PASSWORD" env-default:""`
	DB           int           `yaml:"db" env:"SERVER_REDIS_DB" env-default:"0"`
	PoolSize     int           `yaml:"pool_size" env:"SERVER_REDIS_POOL_SIZE" env-default:"10"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_REDIS_WRITE_TIMEOUT" env-default:"3s"`
}

// GetAddressString returns the host:port address.
func (c *RedisConfig) GetAddressString() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
