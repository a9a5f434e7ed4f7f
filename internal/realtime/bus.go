package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/rinkrivals/game-sync-service/internal/logging"
)

// LocalBus delivers straight to the in-process hub. Suitable for a single instance.
type LocalBus struct {
	hub *Hub
}

// NewLocalBus wraps hub.
func NewLocalBus(hub *Hub) *LocalBus {
	return &LocalBus{hub: hub}
}

// Publish delivers ev to local sessions.
func (b *LocalBus) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.ChallengeID == "" {
		return fmt.Errorf("realtime: event %q has no challenge id", ev.Type)
	}
	b.hub.Deliver(ev)
	return nil
}

// Run blocks until ctx is done; there is nothing to consume.
func (b *LocalBus) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// Close is a no-op.
func (b *LocalBus) Close() error { return nil }

// RedisBus relays events through a redis pub/sub channel so every instance's hub sees them.
type RedisBus struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

// NewRedisBus builds a bus on an existing client.
func NewRedisBus(client *redis.Client, channel string, hub *Hub, logger *slog.Logger) *RedisBus {
	return &RedisBus{
		client:  client,
		channel: channel,
		hub:     hub,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// Publish sends ev to the channel. Local delivery happens when Run reads it back.
func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	payload, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("realtime: redis publish: %w", err)
	}
	return nil
}

// Ready is closed once the subscription is confirmed.
func (b *RedisBus) Ready() <-chan struct{} { return b.ready }

// Run subscribes to the channel and delivers every event to the hub until ctx is done.
func (b *RedisBus) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("realtime: redis subscribe %s: %w", b.channel, err)
	}
	b.readyOnce.Do(func() { close(b.ready) })
	logging.Info(b.logger, "realtime redis relay subscribed", "channel", b.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := decodeEvent([]byte(msg.Payload))
			if err != nil {
				logging.Warn(b.logger, "ignoring relayed message", err, "channel", b.channel)
				continue
			}
			b.hub.Deliver(ev)
		}
	}
}

// Close closes the redis client.
func (b *RedisBus) Close() error {
	return b.client.Close()
}

// NATSBus relays events through NATS subjects of the form <prefix>.<challengeID>.
type NATSBus struct {
	conn   *nats.Conn
	prefix string
	hub    *Hub
	logger *slog.Logger
}

// ConnectNATS dials url with reconnect handlers that log through logger.
func ConnectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("game-sync-service"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logging.Warn(logger, "nats disconnected", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info(logger, "nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("realtime: connect nats: %w", err)
	}
	return nc, nil
}

// NewNATSBus builds a bus on an existing connection.
func NewNATSBus(conn *nats.Conn, prefix string, hub *Hub, logger *slog.Logger) *NATSBus {
	return &NATSBus{
		conn:   conn,
		prefix: strings.TrimSuffix(prefix, "."),
		hub:    hub,
		logger: logger,
	}
}

func (b *NATSBus) subject(challengeID string) string {
	return b.prefix + "." + challengeID
}

// Publish sends ev on the challenge subject.
func (b *NATSBus) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if err := b.conn.Publish(b.subject(ev.ChallengeID), payload); err != nil {
		return fmt.Errorf("realtime: nats publish: %w", err)
	}
	return nil
}

// Run subscribes to every challenge subject and delivers to the hub until ctx is done.
func (b *NATSBus) Run(ctx context.Context) error {
	sub, err := b.conn.Subscribe(b.prefix+".>", func(msg *nats.Msg) {
		ev, err := decodeEvent(msg.Data)
		if err != nil {
			logging.Warn(b.logger, "ignoring relayed message", err, "subject", msg.Subject)
			return
		}
		b.hub.Deliver(ev)
	})
	if err != nil {
		return fmt.Errorf("realtime: nats subscribe: %w", err)
	}
	defer func() { _ = sub.Unsubscribe() }()
	logging.Info(b.logger, "realtime nats relay subscribed", "subject", b.prefix+".>")

	<-ctx.Done()
	return nil
}

// Close drains and closes the connection.
func (b *NATSBus) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Drain()
}
