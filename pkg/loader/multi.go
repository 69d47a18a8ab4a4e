package loader

import (
	"context"

	sdkerrors "github.com/richhh7g/node-runner/pkg/errors"
	"github.com/richhh7g/node-runner/pkg/runnable"
)

// Multi chains resolvers: each is tried in order and the first match wins.
// Only module-not-found failures fall through to the next resolver; any other
// failure (missing default export, invalid shape, I/O errors) stops the chain
// so a broken module is never masked by a later resolver.
func Multi(resolvers ...Resolver) Resolver {
	return &multiResolver{resolvers: resolvers}
}

type multiResolver struct {
	resolvers []Resolver
}

func (m *multiResolver) Resolve(ctx context.Context, path string) (runnable.Factory, error) {
	var lastErr error
	for _, r := range m.resolvers {
		factory, err := r.Resolve(ctx, path)
		if err == nil {
			return factory, nil
		}
		if !sdkerrors.IsModuleNotFound(err) {
			return nil, err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = sdkerrors.NewModuleNotFound(path, nil)
	}
	return nil, lastErr
}
