// Package all registers every built-in unit against a registry.
package all

import (
	"io"

	"go.uber.org/zap"

	"github.com/richhh7g/node-runner/internal/natsutil"
	"github.com/richhh7g/node-runner/pkg/registry"
	"github.com/richhh7g/node-runner/pkg/units/blobstore"
	"github.com/richhh7g/node-runner/pkg/units/echo"
	"github.com/richhh7g/node-runner/pkg/units/grpcping"
	"github.com/richhh7g/node-runner/pkg/units/natsbridge"
)

// Config carries the shared settings the built-in units need. Units whose
// settings are absent are not registered.
type Config struct {
	// NATSURL enables the nats-bridge unit when set.
	NATSURL string

	// BlobConnectionString and BlobContainer enable the blob-sync unit
	// when both are set.
	BlobConnectionString string
	BlobContainer        string

	// GRPCTarget enables the grpc-ping unit when set.
	GRPCTarget string

	// Out is the output stream for the echo unit. Defaults to os.Stdout.
	Out io.Writer

	// Logger is shared by all built-in units.
	Logger *zap.Logger
}

// Register wires the built-in units into the registry. The echo unit is
// always available; the others require their settings.
func Register(reg *registry.Registry, config Config) {
	reg.Register(echo.Path, echo.Factory(&echo.Config{
		Out:    config.Out,
		Logger: config.Logger,
	}))

	if config.NATSURL != "" {
		natsConfig := natsutil.DefaultConfig(config.NATSURL)
		reg.Register(natsbridge.Path, natsbridge.Factory(&natsbridge.Config{
			NATS:   natsConfig,
			Logger: config.Logger,
		}))
	}

	if config.BlobConnectionString != "" && config.BlobContainer != "" {
		reg.Register(blobstore.Path, blobstore.Factory(&blobstore.Config{
			ConnectionString: config.BlobConnectionString,
			Container:        config.BlobContainer,
			Logger:           config.Logger,
		}))
	}

	if config.GRPCTarget != "" {
		reg.Register(grpcping.Path, grpcping.Factory(&grpcping.Config{
			Target: config.GRPCTarget,
			Logger: config.Logger,
		}))
	}
}
