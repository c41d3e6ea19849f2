package config

import "time"

// StorageConfig is the R2/S3 object store configuration.
type StorageConfig struct {
	Endpoint        string        `yaml:"endpoint" env:"SERVER_STORAGE_ENDPOINT" env-default:""`
	Region          string        `yaml:"region" env:"SERVER_STORAGE_REGION" env-default:"auto"`
	AccessKeyID     string        `yaml:"access_key_id" env:"SERVER_STORAGE_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string        `yaml:"secret_access_key" env:"SERVER_STORAGE_SECRET_ACCESS_KEY" env-default:""`
	Bucket          string        `yaml:"bucket" env:"SERVER_STORAGE_BUCKET" env-default:"notedrop"`
	PresignExpiry   time.Duration `yaml:"presign_expiry" env:"SERVER_STORAGE_PRESIGN_EXPIRY" env-default:"1h"`
}
