// Package natsbridge provides a built-in unit that forwards messages
// between two NATS subjects.
package natsbridge

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/richhh7g/node-runner/internal/natsutil"
	"github.com/richhh7g/node-runner/pkg/runnable"
)

// Path is the unit path the bridge unit registers under.
const Path = "nats-bridge"

// Config defines configuration for the bridge unit.
type Config struct {
	// NATS holds the connection settings for the broker.
	NATS *natsutil.Config

	// Logger is used for structured logging. Defaults to a production logger.
	Logger *zap.Logger
}

// Unit subscribes to a source subject and republishes every message to a
// destination subject. The subscription stays active after Run returns,
// so the unit is meant to be executed with the forever flag.
type Unit struct {
	config *Config
	conn   *nats.Conn
	logger *zap.Logger
}

// Bridge is the live forwarding handle returned by Run.
type Bridge struct {
	Source      string
	Destination string

	sub       *nats.Subscription
	conn      *nats.Conn
	forwarded atomic.Int64
}

// Forwarded reports how many messages have been republished so far.
func (b *Bridge) Forwarded() int64 {
	return b.forwarded.Load()
}

// Close stops forwarding and drains the underlying connection.
func (b *Bridge) Close() error {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			return fmt.Errorf("unsubscribe from %s: %w", b.Source, err)
		}
	}
	return natsutil.Close(b.conn)
}

// New creates a bridge unit from the given configuration.
func New(config *Config) *Unit {
	if config == nil {
		config = &Config{}
	}

	logger := config.Logger
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Unit{
		config: config,
		logger: logger,
	}
}

// Factory returns a unit factory producing independent bridge instances.
func Factory(config *Config) runnable.Factory {
	return func() (any, error) {
		return New(config), nil
	}
}

// Configure connects to the broker.
func (u *Unit) Configure(ctx context.Context) error {
	if u.config.NATS == nil || u.config.NATS.URL == "" {
		return fmt.Errorf("NATS connection settings are required")
	}

	conn, err := natsutil.Connect(ctx, u.config.NATS, u.logger)
	if err != nil {
		return err
	}

	u.conn = conn
	u.logger.Debug("Bridge unit connected", zap.String("url", u.config.NATS.URL))
	return nil
}

// Run starts forwarding from the source subject to the destination
// subject. Arguments are <source> <destination>; the returned Bridge
// keeps forwarding until closed.
func (u *Unit) Run(ctx context.Context, args []string) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expected <source> <destination> arguments, got %d", len(args))
	}
	source, destination := args[0], args[1]
	if source == "" || destination == "" {
		return nil, fmt.Errorf("source and destination subjects cannot be empty")
	}
	if source == destination {
		return nil, fmt.Errorf("source and destination subjects must differ")
	}
	if !natsutil.IsConnected(u.conn) {
		return nil, fmt.Errorf("bridge is not connected")
	}

	bridge := &Bridge{
		Source:      source,
		Destination: destination,
		conn:        u.conn,
	}

	sub, err := u.conn.Subscribe(source, func(msg *nats.Msg) {
		if err := u.conn.Publish(destination, msg.Data); err != nil {
			u.logger.Warn("Failed to forward message",
				zap.String("source", source),
				zap.String("destination", destination),
				zap.Error(err))
			return
		}
		bridge.forwarded.Add(1)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", source, err)
	}

	bridge.sub = sub
	u.logger.Info("Bridge forwarding messages",
		zap.String("source", source),
		zap.String("destination", destination),
	)

	return bridge, nil
}
