package config

import "time"

const (
	envPort            = "PORT"
	envSyncInterval    = "SYNC_INTERVAL"
	envSyncConcurrency = "SYNC_CONCURRENCY"
	envStatusCacheTTL  = "STATUS_CACHE_TTL"
	envProvider        = "UPSTREAM_PROVIDER"
	envNHLBaseURL      = "NHL_BASE_URL"
	envUpstreamTimeout = "UPSTREAM_TIMEOUT"
	envUpstreamRetries = "UPSTREAM_MAX_RETRIES"
	envUpstreamMinGap  = "UPSTREAM_MIN_GAP"
	envFixturePath     = "FIXTURE_PATH"
	envStoreDriver     = "STORE_DRIVER"
	envDatabaseURL     = "DATABASE_URL"
	envStoreSeedPath   = "STORE_SEED_PATH"
	envRealtimeBus     = "REALTIME_BUS"
	envRedisURL        = "REDIS_URL"
	envRedisChannel    = "REDIS_CHANNEL"
	envNatsURL         = "NATS_URL"
	envNatsPrefix      = "NATS_SUBJECT_PREFIX"
	envAdminToken      = "ADMIN_TOKEN"
	envCORSOrigins     = "CORS_ORIGINS"
	envMetricsPort     = "METRICS_PORT"
	envMetricsOn       = "METRICS_ENABLED"
	envOtelEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService     = "OTEL_SERVICE_NAME"
	envOtelInsecure    = "OTEL_EXPORTER_OTLP_INSECURE"

	defaultPort = "4000"
	// One minute keeps challenge state within the freshness requirement.
	defaultSyncInterval    = Duration(time.Minute)
	defaultSyncConcurrency = 4
	defaultStatusCacheTTL  = 30 * Duration(time.Second)
	defaultProvider        = "nhl"
	defaultNHLBaseURL      = "https://api-web.nhle.com/v1"
	defaultUpstreamTimeout = 10 * Duration(time.Second)
	defaultUpstreamRetries = 2
	defaultUpstreamMinGap  = 250 * Duration(time.Millisecond)
	defaultFixturePath     = "data/fixture_games.yaml"
	defaultStoreDriver     = "memory"
	defaultRealtimeBus     = "local"
	defaultRedisURL        = "redis://localhost:6379/0"
	defaultRedisChannel    = "rinkrivals:challenge-events"
	defaultNatsURL         = "nats://localhost:4222"
	defaultNatsPrefix      = "rinkrivals.challenges"
	defaultCORSOrigins     = "*"
	defaultMetricsPort     = "9090"
	defaultServiceName     = "game-sync-service"
)
