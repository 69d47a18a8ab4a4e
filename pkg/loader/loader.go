// Package loader turns unit paths into configured instances. Loading walks a
// fixed pipeline: resolve the path to a factory, instantiate, check the
// configure/run contract, configure. Every step that can fail reports a
// structured error carrying the path. The loader keeps no cache; loading the
// same path twice produces two independent, separately configured instances.
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	sdkerrors "github.com/richhh7g/node-runner/pkg/errors"
	"github.com/richhh7g/node-runner/pkg/runnable"
	"go.uber.org/zap"
)

// Resolver locates the factory for a unit path. Implementations report
// sdkerrors.ErrModuleNotFound for paths they do not know; any other error is
// treated as a hard failure and is not retried against other resolvers.
type Resolver interface {
	Resolve(ctx context.Context, path string) (runnable.Factory, error)
}

// Loader resolves, instantiates, validates and configures units.
type Loader struct {
	resolver Resolver
	logger   *zap.Logger
}

// New creates a loader backed by the given resolver.
// Returns an error if the resolver is nil.
func New(resolver Resolver, logger *zap.Logger) (*Loader, error) {
	if resolver == nil {
		return nil, errors.New("resolver cannot be nil")
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Loader{
		resolver: resolver,
		logger:   logger,
	}, nil
}

// Load resolves path, instantiates the unit, verifies the contract and runs
// its configure phase. On success the returned instance is ready to run.
//
// Failure classes:
//   - unresolvable path: sdkerrors.ErrModuleNotFound
//   - module without a default export: sdkerrors.ErrMissingDefaultExport
//   - instance missing configure or run: sdkerrors.ErrInvalidRunnerShape
//   - configure returning an error: the unit's error, wrapped with the path
func (l *Loader) Load(ctx context.Context, path string) (*Instance, error) {
	if path == "" {
		return nil, sdkerrors.NewError(sdkerrors.CodeModuleNotFound, path, "unit path is empty", nil)
	}

	factory, err := l.resolver.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}

	value, err := factory()
	if err != nil {
		// Structured failures from the factory (e.g. a script module with no
		// default export) pass through untouched so callers can match them.
		if _, ok := sdkerrors.AsError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("instantiate %s: %w", path, err)
	}
	if value == nil {
		return nil, sdkerrors.NewError(sdkerrors.CodeInvalidRunnerShape, path, "factory returned a nil instance", nil)
	}

	if _, ok := value.(runnable.Configurer); !ok {
		return nil, sdkerrors.NewInvalidRunnerShape(path, "configure")
	}
	if _, ok := value.(runnable.Runner); !ok {
		return nil, sdkerrors.NewInvalidRunnerShape(path, "run")
	}
	unit := value.(runnable.Runnable)

	if err := unit.Configure(ctx); err != nil {
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}

	instance := &Instance{
		id:   uuid.NewString(),
		path: path,
		unit: unit,
	}

	l.logger.Debug("Unit configured",
		zap.String("path", path),
		zap.String("instance_id", instance.id))

	return instance, nil
}
