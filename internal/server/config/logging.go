package config

// LoggingConfig is the logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" env:"SERVER_LOGGER_LEVEL" env-default:"info"`
	Mode  string `yaml:"mode" env:"SERVER_LOGGER_MODE" env-default:"production"`
}
