package config

// UpstreamConfig controls how we talk to the game-data source.
type UpstreamConfig struct {
	Provider    string
	BaseURL     string
	Timeout     Duration
	MaxRetries  int
	MinGap      Duration
	FixturePath string
}

func loadUpstream() UpstreamConfig {
	return UpstreamConfig{
		Provider:    envOrDefault(envProvider, defaultProvider),
		BaseURL:     envOrDefault(envNHLBaseURL, defaultNHLBaseURL),
		Timeout:     durationEnvOrDefault(envUpstreamTimeout, defaultUpstreamTimeout),
		MaxRetries:  intEnvOrDefault(envUpstreamRetries, defaultUpstreamRetries),
		MinGap:      durationEnvOrDefault(envUpstreamMinGap, defaultUpstreamMinGap),
		FixturePath: envOrDefault(envFixturePath, defaultFixturePath),
	}
}
