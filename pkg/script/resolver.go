// Package script loads units from JavaScript files on disk. A script is a
// CommonJS-style module whose default export is a zero-argument constructor;
// the constructed object must expose configure and run methods. Each load
// evaluates the script in a fresh VM, so loaded units never share state.
package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dop251/goja"
	sdkerrors "github.com/richhh7g/node-runner/pkg/errors"
	"github.com/richhh7g/node-runner/pkg/runnable"
	"go.uber.org/zap"
)

// Resolver resolves unit paths against script files under a base directory.
// Extensionless paths are tried as path.js and path/index.js, mirroring the
// usual module resolution order.
type Resolver struct {
	baseDir string
	logger  *zap.Logger
}

// NewResolver creates a resolver rooted at baseDir. An empty baseDir means
// the current working directory.
func NewResolver(baseDir string, logger *zap.Logger) *Resolver {
	if baseDir == "" {
		baseDir = "."
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Resolver{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Resolve locates and compiles the script for path. The returned factory
// evaluates the compiled program in a new VM per call; structural failures
// (no default export, missing configure/run) surface when the factory runs.
func (r *Resolver) Resolve(ctx context.Context, path string) (runnable.Factory, error) {
	file, err := r.resolveFile(path)
	if err != nil {
		return nil, err
	}

	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", file, err)
	}

	prog, err := goja.Compile(file, string(src), false)
	if err != nil {
		return nil, fmt.Errorf("compile script %s: %w", file, err)
	}

	r.logger.Debug("Resolved script unit",
		zap.String("path", path),
		zap.String("file", file))

	logger := r.logger
	return func() (any, error) {
		return newModule(path, prog, logger)
	}, nil
}

func (r *Resolver) resolveFile(path string) (string, error) {
	if ext := filepath.Ext(path); ext != "" && ext != ".js" {
		return "", sdkerrors.NewModuleNotFound(path, nil)
	}

	candidates := []string{path}
	if filepath.Ext(path) == "" {
		candidates = append(candidates, path+".js", filepath.Join(path, "index.js"))
	}

	for _, candidate := range candidates {
		full := candidate
		if !filepath.IsAbs(full) {
			full = filepath.Join(r.baseDir, full)
		}
		info, err := os.Stat(full)
		if err == nil && info.Mode().IsRegular() {
			return full, nil
		}
	}

	return "", sdkerrors.NewModuleNotFound(path, nil)
}
