package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rinkrivals/game-sync-service/internal/config"
	"github.com/rinkrivals/game-sync-service/internal/realtime"
)

const busDialTimeout = 5 * time.Second

func buildBus(ctx context.Context, cfg config.RealtimeConfig, hub *realtime.Hub, logger *slog.Logger) (realtime.Bus, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Bus)) {
	case "", "local":
		return realtime.NewLocalBus(hub), nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, busDialTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return realtime.NewRedisBus(client, cfg.RedisChannel, hub, logger), nil
	case "nats":
		nc, err := realtime.ConnectNATS(cfg.NatsURL, logger)
		if err != nil {
			return nil, err
		}
		return realtime.NewNATSBus(nc, cfg.SubjectPrefix, hub, logger), nil
	default:
		return nil, fmt.Errorf("unknown realtime bus %q", cfg.Bus)
	}
}
