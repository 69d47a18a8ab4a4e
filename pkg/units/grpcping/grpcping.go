// Package grpcping provides a built-in unit that probes a gRPC server
// using the standard health checking protocol.
package grpcping

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/richhh7g/node-runner/pkg/runnable"
)

// Path is the unit path the health probe unit registers under.
const Path = "grpc-ping"

// Config defines configuration for the health probe unit.
type Config struct {
	// Target is the gRPC server address (e.g., "localhost:9090").
	Target string

	// Logger is used for structured logging. Defaults to a production logger.
	Logger *zap.Logger
}

// Unit checks a gRPC server's health endpoint. The optional run argument
// names the service to probe; with no argument the server's overall
// health is checked.
type Unit struct {
	config *Config
	conn   *grpc.ClientConn
	health healthpb.HealthClient
	logger *zap.Logger
}

// New creates a health probe unit from the given configuration.
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

// Factory returns a unit factory producing independent probe instances.
func Factory(config *Config) runnable.Factory {
	return func() (any, error) {
		return New(config), nil
	}
}

// Configure creates the client connection. The connection is lazy, so no
// network traffic happens until Run issues the health check.
func (u *Unit) Configure(ctx context.Context) error {
	if u.config.Target == "" {
		return fmt.Errorf("gRPC target is required")
	}

	conn, err := grpc.NewClient(u.config.Target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return fmt.Errorf("create gRPC client for %s: %w", u.config.Target, err)
	}

	u.conn = conn
	u.health = healthpb.NewHealthClient(conn)
	u.logger.Debug("Health probe configured", zap.String("target", u.config.Target))
	return nil
}

// Run issues a health check and returns the reported status string.
// A status other than SERVING is an error.
func (u *Unit) Run(ctx context.Context, args []string) (any, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("expected at most one service name argument, got %d", len(args))
	}
	if u.health == nil {
		return nil, fmt.Errorf("probe is not configured")
	}

	service := ""
	if len(args) == 1 {
		service = args[0]
	}

	resp, err := u.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return nil, fmt.Errorf("health check against %s failed: %w", u.config.Target, err)
	}

	status := resp.GetStatus()
	u.logger.Info("Health check completed",
		zap.String("target", u.config.Target),
		zap.String("service", service),
		zap.String("status", status.String()),
	)

	if status != healthpb.HealthCheckResponse_SERVING {
		return nil, fmt.Errorf("service %q reported %s", service, status.String())
	}

	return status.String(), nil
}

// Close releases the client connection.
func (u *Unit) Close() error {
	if u.conn == nil {
		return nil
	}
	return u.conn.Close()
}
