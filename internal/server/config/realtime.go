package config

// RealtimeConfig configures the broadcast channel handshake.
type RealtimeConfig struct {
	// ChannelSecret signs channel authorization payloads.
	ChannelSecret string `yaml:"channel_secret" env:"SERVER_REALTIME_CHANNEL_SECRET" env-default:"change-me-in-production"`
}
