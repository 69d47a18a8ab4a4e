// Package blobstore provides a built-in unit that uploads local files
// to Azure Blob Storage and returns their blob URLs.
package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/richhh7g/node-runner/pkg/runnable"
)

// Path is the unit path the blob sync unit registers under.
const Path = "blob-sync"

// Config defines configuration for the blob sync unit.
type Config struct {
	// ConnectionString is a standard Azure storage connection string.
	// Azurite endpoints over HTTP are supported.
	ConnectionString string

	// Container is the destination container. It is created on first
	// upload if it does not exist.
	Container string

	// Logger is used for structured logging. Defaults to a production logger.
	Logger *zap.Logger
}

// Unit uploads local files to blob storage. Each run argument names a
// local file; the unit result is the list of uploaded blob URLs in
// argument order.
type Unit struct {
	config *Config
	store  Store
	logger *zap.Logger
}

// New creates a blob sync unit from the given configuration.
func New(config *Config) *Unit {
	if config == nil {
		config = &Config{}
	}

	logger := config.Logger
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Unit{
		config: config,
		logger: logger,
	}
}

// Factory returns a unit factory producing independent blob sync instances.
func Factory(config *Config) runnable.Factory {
	return func() (any, error) {
		return New(config), nil
	}
}

// newWithStore wires a pre-built store, bypassing client construction.
func newWithStore(store Store, logger *zap.Logger) *Unit {
	unit := New(&Config{Logger: logger})
	unit.store = store
	return unit
}

// Configure validates the configuration and builds the storage client.
func (u *Unit) Configure(ctx context.Context) error {
	if u.store != nil {
		return nil
	}

	if u.config.ConnectionString == "" {
		return fmt.Errorf("blob connection string is required")
	}
	if u.config.Container == "" {
		return fmt.Errorf("blob container is required")
	}

	client, err := NewClient(u.config.ConnectionString, u.config.Container, u.logger)
	if err != nil {
		return fmt.Errorf("create blob client: %w", err)
	}

	u.store = client
	u.logger.Debug("Blob sync unit configured", zap.String("container", u.config.Container))
	return nil
}

// Run uploads each named file and returns the blob URLs in argument order.
func (u *Unit) Run(ctx context.Context, args []string) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one file path is required")
	}

	urls := make([]string, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		name := filepath.Base(path)
		metadata := map[string]string{"source_path": path}

		blobURL, err := u.store.Upload(ctx, name, data, metadata)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", path, err)
		}

		u.logger.Info("File synced to blob storage",
			zap.String("path", path),
			zap.String("url", blobURL),
		)
		urls = append(urls, blobURL)
	}

	return urls, nil
}
