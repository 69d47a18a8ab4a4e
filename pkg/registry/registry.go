// Package registry provides the compile-time unit table: factories registered
// under a path, resolved by the loader. Registration happens during program
// startup; misuse (empty path, nil factory, duplicate path) is a programmer
// error and panics.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/richhh7g/node-runner/pkg/errors"
	"github.com/richhh7g/node-runner/pkg/runnable"
)

// Registry maps unit paths to factories. Safe for concurrent resolution.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]runnable.Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]runnable.Factory),
	}
}

// Register adds a factory under path. Panics on an empty path, a nil factory,
// or a path that is already registered.
func (r *Registry) Register(path string, factory runnable.Factory) {
	if path == "" {
		panic("registry: path cannot be empty")
	}
	if factory == nil {
		panic(fmt.Sprintf("registry: nil factory for path %q", path))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[path]; exists {
		panic(fmt.Sprintf("registry: duplicate registration for path %q", path))
	}
	r.factories[path] = factory
}

// Resolve returns the factory registered under path. Unknown paths report
// errors.ErrModuleNotFound.
func (r *Registry) Resolve(ctx context.Context, path string) (runnable.Factory, error) {
	r.mu.RLock()
	factory, ok := r.factories[path]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.NewModuleNotFound(path, nil)
	}
	return factory, nil
}

// Has reports whether a factory is registered under path.
func (r *Registry) Has(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[path]
	return ok
}

// Paths returns the registered paths in sorted order.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.factories))
	for path := range r.factories {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
