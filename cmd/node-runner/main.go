// node-runner - load, configure, and run units
//
// Usage:
//
//	node-runner [flags] <unit-path> [args...]   Run a single unit
//	node-runner [flags] -f <actions.hcl>        Run a named sequence of actions
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/richhh7g/node-runner/pkg/actionfile"
	"github.com/richhh7g/node-runner/pkg/loader"
	"github.com/richhh7g/node-runner/pkg/registry"
	"github.com/richhh7g/node-runner/pkg/runner"
	"github.com/richhh7g/node-runner/pkg/script"
	"github.com/richhh7g/node-runner/pkg/tracing"
	"github.com/richhh7g/node-runner/pkg/units/all"
)

// Global flags
var (
	actionsFlag     string
	foreverFlag     bool
	baseDirFlag     string
	logLevelFlag    string
	logJSONFlag     bool
	natsURLFlag     string
	blobConnFlag    string
	blobContFlag    string
	grpcTargetFlag  string
	otlpFlag        string
	sentryDSNFlag   string
	environmentFlag string
)

func main() {
	flag.StringVarP(&actionsFlag, "actions", "f", "", "Run actions from an HCL file instead of a single unit")
	flag.BoolVar(&foreverFlag, "forever", false, "Treat the unit as long-running and keep the process alive")
	flag.StringVar(&baseDirFlag, "base-dir", ".", "Directory script unit paths are resolved against")
	flag.StringVar(&logLevelFlag, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&logJSONFlag, "log-json", false, "Emit logs as JSON instead of console output")
	flag.StringVar(&natsURLFlag, "nats-url", os.Getenv("NATS_URL"), "NATS server URL, enables the nats-bridge unit")
	flag.StringVar(&blobConnFlag, "blob-connection-string", os.Getenv("BLOB_CONNECTION_STRING"), "Azure storage connection string, enables the blob-sync unit")
	flag.StringVar(&blobContFlag, "blob-container", os.Getenv("BLOB_CONTAINER"), "Azure storage container for the blob-sync unit")
	flag.StringVar(&grpcTargetFlag, "grpc-target", os.Getenv("GRPC_TARGET"), "gRPC server address, enables the grpc-ping unit")
	flag.StringVar(&otlpFlag, "otlp-endpoint", os.Getenv("OTLP_ENDPOINT"), "OTLP trace collector endpoint, enables tracing")
	flag.StringVar(&sentryDSNFlag, "sentry-dsn", os.Getenv("SENTRY_DSN"), "Sentry DSN, enables error reporting on fatal failures")
	flag.StringVar(&environmentFlag, "environment", "development", "Deployment environment tag for traces and error reports")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `node-runner - load, configure, and run units

Usage:
  node-runner [flags] <unit-path> [args...]   Run a single unit
  node-runner [flags] -f <actions.hcl>        Run a named sequence of actions

Unit paths name either a built-in unit (echo, nats-bridge, blob-sync,
grpc-ping) or a JavaScript file resolved against --base-dir.

Flags:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if actionsFlag == "" && len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if actionsFlag != "" && len(args) > 0 {
		fmt.Fprintln(os.Stderr, "error: an actions file and a unit path cannot be combined")
		flag.Usage()
		os.Exit(2)
	}

	logger, err := buildLogger(logLevelFlag, logJSONFlag)
	if err != nil {
		fatal("%v", err)
	}
	defer logger.Sync()

	reg := registry.New()
	all.Register(reg, all.Config{
		NATSURL:              natsURLFlag,
		BlobConnectionString: blobConnFlag,
		BlobContainer:        blobContFlag,
		GRPCTarget:           grpcTargetFlag,
		Logger:               logger,
	})

	ld, err := loader.New(loader.Multi(reg, script.NewResolver(baseDirFlag, logger)), logger)
	if err != nil {
		fatal("creating loader: %v", err)
	}

	config := runner.DefaultConfig()
	config.SentryDSN = sentryDSNFlag
	config.Environment = environmentFlag
	if otlpFlag != "" {
		tc := tracing.DefaultConfig("node-runner")
		tc.OTLPEndpoint = otlpFlag
		tc.Environment = environmentFlag
		config.Tracing = &tc
	}

	r, err := runner.NewWithConfig(ld, logger, config)
	if err != nil {
		fatal("creating runner: %v", err)
	}
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stayAlive := foreverFlag
	if actionsFlag != "" {
		actions, err := actionfile.Load(actionsFlag)
		if err != nil {
			fatal("%v", err)
		}
		if err := r.RunnerActions(ctx, actions); err != nil {
			fatal("%v", err)
		}
		stayAlive = stayAlive || anyForever(actions)
	} else {
		opts := runner.Options{Path: args[0], Args: args[1:], Forever: foreverFlag}
		if _, err := r.Exec(ctx, opts); err != nil {
			fatal("%v", err)
		}
	}

	if stayAlive {
		logger.Info("Long-running units active, waiting for shutdown signal")
		<-ctx.Done()
		stop()
		logger.Info("Shutting down")
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// buildLogger constructs the process logger from the log flags.
func buildLogger(level string, json bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if json {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// anyForever reports whether any action in the sequence declares a
// long-running unit.
func anyForever(actions runner.Actions) bool {
	for _, action := range actions {
		if action.Forever {
			return true
		}
		for _, unit := range action.Parallelism {
			if unit.Forever {
				return true
			}
		}
	}
	return false
}
