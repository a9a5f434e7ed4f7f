package config

// RealtimeConfig selects how challenge events reach websocket sessions on every instance.
type RealtimeConfig struct {
	Bus           string // local, redis or nats
	RedisURL      string
	RedisChannel  string
	NatsURL       string
	SubjectPrefix string
}

func loadRealtime() RealtimeConfig {
	return RealtimeConfig{
		Bus:           envOrDefault(envRealtimeBus, defaultRealtimeBus),
		RedisURL:      envOrDefault(envRedisURL, defaultRedisURL),
		RedisChannel:  envOrDefault(envRedisChannel, defaultRedisChannel),
		NatsURL:       envOrDefault(envNatsURL, defaultNatsURL),
		SubjectPrefix: envOrDefault(envNatsPrefix, defaultNatsPrefix),
	}
}
