package nhl

import "time"

const (
	providerName       = "nhl"
	defaultBaseURL     = "https://api-web.nhle.com/v1"
	defaultHTTPTimeout = 10 * time.Second
	schedulePath       = "/schedule/now"
	boxscorePath       = "/gamecenter/%s/boxscore"
	maxErrorBody       = 512
)
