package loader

import (
	"context"

	"github.com/richhh7g/node-runner/pkg/runnable"
)

// Instance is a loaded, configured unit ready to run. Instances are never
// shared between loads; each Load call produces a new one with its own id.
type Instance struct {
	id   string
	path string
	unit runnable.Runnable
}

// ID returns the unique id assigned to this instance at load time.
func (i *Instance) ID() string {
	return i.id
}

// Path returns the unit path this instance was loaded from.
func (i *Instance) Path() string {
	return i.path
}

// Unit returns the underlying unit value.
func (i *Instance) Unit() runnable.Runnable {
	return i.unit
}

// Run executes the unit's run phase. A nil args slice is passed to the unit
// as an empty one.
func (i *Instance) Run(ctx context.Context, args []string) (any, error) {
	if args == nil {
		args = []string{}
	}
	return i.unit.Run(ctx, args)
}
