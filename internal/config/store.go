package config

// StoreConfig selects the challenge store backend.
type StoreConfig struct {
	Driver      string // memory or postgres
	DatabaseURL string
	// SeedPath optionally preloads the memory store from a YAML file.
	SeedPath string
}

func loadStore() StoreConfig {
	return StoreConfig{
		Driver:      envOrDefault(envStoreDriver, defaultStoreDriver),
		DatabaseURL: envOrDefault(envDatabaseURL, ""),
		SeedPath:    envOrDefault(envStoreSeedPath, ""),
	}
}
