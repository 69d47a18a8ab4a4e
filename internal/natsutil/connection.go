// Package natsutil provides helpers for establishing and tearing down
// NATS connections used by messaging units.
package natsutil

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Config holds the settings for a NATS connection.
type Config struct {
	// URL of the NATS server, e.g. "nats://localhost:4222".
	URL string

	// Name identifies this client on the server.
	Name string

	// MaxReconnects caps reconnection attempts; -1 means unlimited.
	MaxReconnects int

	// ReconnectWait is the pause between reconnection attempts.
	ReconnectWait time.Duration

	// Timeout bounds the initial dial.
	Timeout time.Duration

	// Token authenticates the client when set.
	Token string

	// Username and Password authenticate the client when both are set
	// and no token is given.
	Username string
	Password string
}

// DefaultConfig returns connection settings suitable for local development.
func DefaultConfig(url string) *Config {
	return &Config{
		URL:           url,
		Name:          "node-runner",
		MaxReconnects: 10,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Connect dials NATS with the provided configuration. The dial is abandoned
// when ctx is cancelled. Connection state changes are reported through the
// supplied logger.
func Connect(ctx context.Context, config *Config, logger *zap.Logger) (*nats.Conn, error) {
	if config == nil {
		return nil, fmt.Errorf("connection config cannot be nil")
	}
	if config.URL == "" {
		return nil, fmt.Errorf("NATS URL cannot be empty")
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	type dialResult struct {
		conn *nats.Conn
		err  error
	}
	dialed := make(chan dialResult, 1)
	go func() {
		nc, err := nats.Connect(config.URL, connectOptions(config, logger)...)
		dialed <- dialResult{conn: nc, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("NATS dial abandoned: %w", ctx.Err())
	case res := <-dialed:
		if res.err != nil {
			return nil, fmt.Errorf("connect to NATS at %s: %w", config.URL, res.err)
		}
		return res.conn, nil
	}
}

func connectOptions(config *Config, logger *zap.Logger) []nats.Option {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.Timeout(config.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	switch {
	case config.Token != "":
		opts = append(opts, nats.Token(config.Token))
	case config.Username != "" && config.Password != "":
		opts = append(opts, nats.UserInfo(config.Username, config.Password))
	}

	return opts
}

// Close drains the connection so in-flight messages settle; a failed drain
// falls back to a hard close.
func Close(conn *nats.Conn) error {
	if conn == nil {
		return nil
	}

	if err := conn.Drain(); err != nil {
		conn.Close()
		return fmt.Errorf("drain connection: %w", err)
	}
	return nil
}

// IsConnected reports whether the connection is live.
func IsConnected(conn *nats.Conn) bool {
	return conn != nil && conn.IsConnected()
}
