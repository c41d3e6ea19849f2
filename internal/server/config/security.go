package config

// SecurityConfig holds content-at-rest encryption settings.
type SecurityConfig struct {
	// EncryptionKey derives the content encryption key. Empty disables
	// encryption at rest.
	EncryptionKey string `yaml:"encryption_key" env:"SERVER_ENCRYPTION_KEY" env-default:""`
}
