// Package runnable defines the contract a unit must satisfy to be driven by the
// runner: a configure phase followed by a run phase. Units are plain values
// produced by a Factory; the loader checks the contract at load time and rejects
// anything that does not satisfy both phases.
package runnable

import "context"

// Configurer is the configuration phase of a unit. Configure is called exactly
// once, after instantiation and before Run. A unit that cannot become ready
// should return an error; the unit is then never run.
type Configurer interface {
	Configure(ctx context.Context) error
}

// Runner is the execution phase of a unit. Run receives the arguments supplied
// with the request and returns the unit's result. Units that start background
// work may return as soon as that work is launched; the returned value is
// handed back to the caller as-is.
type Runner interface {
	Run(ctx context.Context, args []string) (any, error)
}

// Runnable is the full unit contract: both phases.
type Runnable interface {
	Configurer
	Runner
}

// Factory produces a fresh unit instance. Each call must return a new,
// unshared value; the loader never reuses the product of a previous call.
// Returning an error aborts the load.
type Factory func() (any, error)
