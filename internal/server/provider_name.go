package server

import (
	"fmt"
	"strings"

	"github.com/rinkrivals/game-sync-service/internal/providers"
)

// normalizeSourceName returns a lower-cased source name, deriving from the instance when not explicitly configured.
// Used across server wiring and the source factory to keep naming consistent in metrics/logs.
func normalizeSourceName(raw string, source providers.GameSource) string {
	if raw = strings.TrimSpace(raw); raw != "" {
		return strings.ToLower(raw)
	}
	if named, ok := source.(interface{ Name() string }); ok {
		return strings.ToLower(named.Name())
	}
	if source != nil {
		return strings.ToLower(fmt.Sprintf("%T", source))
	}
	return "provider"
}
