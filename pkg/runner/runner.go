// Package runner drives unit execution. It loads units by path through a
// loader, runs them, and treats run failures as fatal to the process: the
// default failure handler logs, reports and exits with status 1. Exec runs a
// single unit, Parallelism runs an ordered group where every unit is loaded
// and configured before any of them runs, and RunnerActions runs a named
// sequence of either.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/richhh7g/node-runner/pkg/loader"
	"github.com/richhh7g/node-runner/pkg/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options describes a single unit execution request.
type Options struct {
	// Path names the unit to load.
	Path string

	// Args are handed to the unit's run phase. A nil slice reaches the unit
	// as an empty one.
	Args []string

	// Forever marks the unit as long-running: the runner reports it as loaded
	// and running instead of finished. It does not keep the process alive and
	// does not supervise the unit.
	Forever bool
}

// FatalFunc handles a unit run failure. The default handler terminates the
// process with exit status 1; a substitute that returns makes the failing
// entry point return the run error instead.
type FatalFunc func(path string, err error)

// Config carries optional runner behavior.
type Config struct {
	// OnFatal replaces the default run-failure handler.
	OnFatal FatalFunc

	// Tracing enables OpenTelemetry tracing when set. Setup failures are
	// logged and the runner continues without tracing.
	Tracing *tracing.TracingConfig

	// SentryDSN enables error reporting on fatal run failures when non-empty.
	SentryDSN string

	// Environment tags error reports (e.g. "production").
	Environment string
}

// DefaultConfig returns a configuration with all optional behavior disabled.
func DefaultConfig() *Config {
	return &Config{}
}

// Runner executes units loaded through its loader.
type Runner struct {
	loader          *loader.Loader
	logger          *zap.Logger
	tracer          trace.Tracer
	onFatal         FatalFunc
	sentryEnabled   bool
	tracingShutdown func(context.Context) error
}

// New creates a runner with default configuration.
// Returns an error if any of the parameters are invalid.
func New(ld *loader.Loader, logger *zap.Logger) (*Runner, error) {
	return NewWithConfig(ld, logger, nil)
}

// NewWithConfig creates a runner with the given configuration. A nil config
// is equivalent to DefaultConfig(). If tracing is configured it is set up
// here and torn down by Close.
func NewWithConfig(ld *loader.Loader, logger *zap.Logger, config *Config) (*Runner, error) {
	if ld == nil {
		return nil, errors.New("loader cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}

	r := &Runner{
		loader:  ld,
		logger:  logger,
		tracer:  otel.Tracer("node-runner/runner"),
		onFatal: config.OnFatal,
	}
	if r.onFatal == nil {
		r.onFatal = r.defaultFatal
	}

	if config.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.SentryDSN,
			Environment: config.Environment,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}
		r.sentryEnabled = true
		logger.Info("Sentry error reporting enabled")
	}

	if config.Tracing != nil {
		shutdown, err := tracing.SetupTracing(context.Background(), *config.Tracing, logger)
		if err != nil {
			logger.Warn("Failed to setup tracing, continuing without tracing", zap.Error(err))
		} else {
			r.tracingShutdown = shutdown
			logger.Info("Tracing setup complete",
				zap.String("service", config.Tracing.ServiceName),
				zap.String("endpoint", config.Tracing.OTLPEndpoint))
		}
	}

	return r, nil
}

// Close releases runner resources: flushes pending error reports and shuts
// down tracing if it was configured.
func (r *Runner) Close() error {
	if r.sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
	if r.tracingShutdown != nil {
		return tracing.ShutdownTracing(r.tracingShutdown, r.logger)
	}
	return nil
}

// Exec loads, configures and runs a single unit. Load and configure failures
// are returned to the caller; run failures go through the fatal handler.
func (r *Runner) Exec(ctx context.Context, opts Options) (any, error) {
	ctx, span := r.tracer.Start(ctx, "runner.exec",
		trace.WithAttributes(
			attribute.String("unit.path", opts.Path),
			attribute.Bool("unit.forever", opts.Forever),
		))
	defer span.End()

	instance, err := r.loader.Load(ctx, opts.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unit load failed")
		return nil, err
	}

	result, err := r.runInstance(ctx, instance, opts)
	if err != nil {
		span.SetStatus(codes.Error, "unit run failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return result, nil
}

// Parallelism executes a group of units. Every unit is loaded and configured,
// in input order, before any of them runs; a load or configure failure aborts
// the whole group with nothing run. Runs are then issued sequentially in the
// same order. Returned results are positionally aligned with the input.
func (r *Runner) Parallelism(ctx context.Context, units ...Options) ([]any, error) {
	ctx, span := r.tracer.Start(ctx, "runner.parallelism",
		trace.WithAttributes(attribute.Int("unit.count", len(units))))
	defer span.End()

	if len(units) == 0 {
		span.SetStatus(codes.Ok, "")
		return []any{}, nil
	}

	type member struct {
		instance *loader.Instance
		opts     Options
	}

	group := make([]member, 0, len(units))
	for _, opts := range units {
		instance, err := r.loader.Load(ctx, opts.Path)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "unit load failed")
			return nil, err
		}
		group = append(group, member{instance: instance, opts: opts})
	}

	results := make([]any, 0, len(group))
	for _, m := range group {
		result, err := r.runInstance(ctx, m.instance, m.opts)
		if err != nil {
			span.SetStatus(codes.Error, "unit run failed")
			return results, err
		}
		results = append(results, result)
	}

	span.SetStatus(codes.Ok, "")
	return results, nil
}

// runInstance runs one loaded unit and applies the fatal-failure policy.
func (r *Runner) runInstance(ctx context.Context, instance *loader.Instance, opts Options) (any, error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "runner.run",
		trace.WithAttributes(
			attribute.String("unit.path", instance.Path()),
			attribute.String("unit.instance_id", instance.ID()),
			attribute.Bool("unit.forever", opts.Forever),
		))
	defer span.End()

	result, err := instance.Run(ctx, opts.Args)
	duration := time.Since(start)
	span.SetAttributes(attribute.Int64("run.duration_ms", duration.Milliseconds()))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unit run failed")
		r.logger.Error("Unit run failed",
			zap.String("path", instance.Path()),
			zap.String("instance_id", instance.ID()),
			zap.Error(err))
		r.onFatal(instance.Path(), err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	if opts.Forever {
		r.logger.Info("Unit loaded and running",
			zap.String("path", instance.Path()),
			zap.String("instance_id", instance.ID()))
	} else {
		r.logger.Info("Unit finished running",
			zap.String("path", instance.Path()),
			zap.String("instance_id", instance.ID()),
			zap.Duration("duration", duration))
	}

	return result, nil
}

// defaultFatal reports the failure and terminates the process.
func (r *Runner) defaultFatal(path string, err error) {
	r.logger.Error("Run failure is fatal, terminating process",
		zap.String("path", path),
		zap.Error(err))

	if r.sentryEnabled {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("unit_path", path)
			sentry.CaptureException(err)
		})
		sentry.Flush(2 * time.Second)
	}

	_ = r.logger.Sync()
	os.Exit(1)
}
