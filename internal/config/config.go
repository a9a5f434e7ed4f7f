package config

import "github.com/joho/godotenv"

// Config holds runtime configuration for the server.
type Config struct {
	Port        string
	AdminToken  string
	CORSOrigins []string
	Sync        SyncConfig
	Upstream    UpstreamConfig
	Store       StoreConfig
	Realtime    RealtimeConfig
	Metrics     MetricsConfig
}

// SyncConfig controls the scheduler cadence and the status cache.
type SyncConfig struct {
	Interval    Duration
	Concurrency int
	CacheTTL    Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present; real environment wins.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        envOrDefault(envPort, defaultPort),
		AdminToken:  envOrDefault(envAdminToken, ""),
		CORSOrigins: listEnvOrDefault(envCORSOrigins, defaultCORSOrigins),
		Sync: SyncConfig{
			Interval:    durationEnvOrDefault(envSyncInterval, defaultSyncInterval),
			Concurrency: intEnvOrDefault(envSyncConcurrency, defaultSyncConcurrency),
			CacheTTL:    durationEnvOrDefault(envStatusCacheTTL, defaultStatusCacheTTL),
		},
		Upstream: loadUpstream(),
		Store:    loadStore(),
		Realtime: loadRealtime(),
		Metrics:  loadMetrics(),
	}
}
