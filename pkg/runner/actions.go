package runner

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Action is one named entry of an action sequence. An action either names a
// group (Parallelism non-empty) or a single unit (Path non-empty); an action
// with neither is skipped. Group entries ignore Path, Args and Forever.
type Action struct {
	// Name identifies the action in logs and errors. Required and unique
	// within a sequence.
	Name string

	// Path, Args and Forever describe a single unit execution, exactly as in
	// Options.
	Path    string
	Args    []string
	Forever bool

	// Parallelism describes a group execution. When non-empty the action
	// delegates to Runner.Parallelism with these options.
	Parallelism []Options
}

// options returns the single-unit options for a non-group action.
func (a Action) options() Options {
	return Options{
		Path:    a.Path,
		Args:    a.Args,
		Forever: a.Forever,
	}
}

// Actions is an ordered action sequence. Declaration order is execution order.
type Actions []Action

// RunnerActions executes the sequence one action at a time, in order. Each
// group action behaves exactly like a Parallelism call and each single action
// like an Exec call; the first failure stops the sequence and is returned
// with the action's name attached.
func (r *Runner) RunnerActions(ctx context.Context, actions Actions) error {
	ctx, span := r.tracer.Start(ctx, "runner.actions",
		trace.WithAttributes(attribute.Int("action.count", len(actions))))
	defer span.End()

	if err := validateActions(actions); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid actions")
		return err
	}

	for _, action := range actions {
		switch {
		case len(action.Parallelism) > 0:
			if _, err := r.Parallelism(ctx, action.Parallelism...); err != nil {
				span.SetStatus(codes.Error, "action failed")
				return fmt.Errorf("action %q: %w", action.Name, err)
			}
		case action.Path != "":
			if _, err := r.Exec(ctx, action.options()); err != nil {
				span.SetStatus(codes.Error, "action failed")
				return fmt.Errorf("action %q: %w", action.Name, err)
			}
		default:
			r.logger.Debug("Skipping action with no units",
				zap.String("action", action.Name))
		}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func validateActions(actions Actions) error {
	seen := make(map[string]struct{}, len(actions))
	for i, action := range actions {
		if action.Name == "" {
			return fmt.Errorf("action %d has no name", i)
		}
		if _, dup := seen[action.Name]; dup {
			return fmt.Errorf("duplicate action name %q", action.Name)
		}
		seen[action.Name] = struct{}{}
	}
	return nil
}
