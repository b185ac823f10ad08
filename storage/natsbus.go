package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is the subject prefix for store update traffic.
const DefaultSubjectPrefix = "huddle.store"

// NATSBus bridges store updates across processes over NATS core subjects.
// Each store name maps to its own subject under the configured prefix.
type NATSBus struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NATSBusOption configures a NATSBus.
type NATSBusOption func(*NATSBus)

// WithSubjectPrefix overrides the subject prefix.
func WithSubjectPrefix(prefix string) NATSBusOption {
	return func(b *NATSBus) {
		b.prefix = prefix
	}
}

// WithBusLogger sets the logger for the bus.
func WithBusLogger(logger *slog.Logger) NATSBusOption {
	return func(b *NATSBus) {
		b.logger = logger
	}
}

// NewNATSBus creates a bus over an established NATS connection.
func NewNATSBus(conn *nats.Conn, opts ...NATSBusOption) (*NATSBus, error) {
	if conn == nil {
		return nil, fmt.Errorf("NATS connection required")
	}

	b := &NATSBus{
		conn:   conn,
		prefix: DefaultSubjectPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *NATSBus) subject(name string) string {
	return b.prefix + "." + name
}

// Publish implements Bus.
func (b *NATSBus) Publish(_ context.Context, u Update) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode update for %s: %w", u.Name, err)
	}
	if err := b.conn.Publish(b.subject(u.Name), data); err != nil {
		return fmt.Errorf("publish update for %s: %w", u.Name, err)
	}
	return nil
}

// Subscribe implements Bus. Updates that fail to decode are logged and
// dropped; a malformed message from one publisher must not wedge the
// subscription.
func (b *NATSBus) Subscribe(name string, fn func(Update)) (func(), error) {
	sub, err := b.conn.Subscribe(b.subject(name), func(msg *nats.Msg) {
		var u Update
		if err := json.Unmarshal(msg.Data, &u); err != nil {
			b.logger.Warn("Dropping undecodable store update",
				"subject", msg.Subject,
				"error", err)
			return
		}
		if u.Name != name {
			return
		}
		fn(u)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", name, err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Warn("Unsubscribe failed", "name", name, "error", err)
		}
	}, nil
}
