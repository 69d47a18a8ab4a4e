// Package echo provides a built-in unit that transforms its arguments
// and writes the result to a configurable output stream.
package echo

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/richhh7g/node-runner/pkg/runnable"
)

// Path is the unit path the echo unit registers under.
const Path = "echo"

// Config defines configuration for the echo unit.
type Config struct {
	// Out is the stream transformed lines are written to.
	// Defaults to os.Stdout.
	Out io.Writer

	// Logger is used for structured logging. Defaults to a production logger.
	Logger *zap.Logger
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{}
}

var supportedModes = map[string]struct{}{
	"plain": {},
	"upper": {},
	"lower": {},
	"title": {},
}

// Unit writes its arguments back to the configured output stream,
// optionally transforming the case of the text first.
type Unit struct {
	out    io.Writer
	logger *zap.Logger
}

// New creates an echo unit from the given configuration.
func New(config *Config) *Unit {
	if config == nil {
		config = DefaultConfig()
	}

	out := config.Out
	if out == nil {
		out = os.Stdout
	}

	logger := config.Logger
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Unit{
		out:    out,
		logger: logger,
	}
}

// Factory returns a unit factory producing independent echo instances.
func Factory(config *Config) runnable.Factory {
	return func() (any, error) {
		return New(config), nil
	}
}

// Configure prepares the unit. The echo unit has no external resources,
// so this only reports readiness.
func (u *Unit) Configure(ctx context.Context) error {
	u.logger.Debug("Echo unit configured")
	return nil
}

// Run transforms the arguments and writes the result as a single line.
// The first argument selects the mode (plain, upper, lower, title); the
// remaining arguments form the message. With no arguments an empty line
// is written. The written line is returned as the unit result.
func (u *Unit) Run(ctx context.Context, args []string) (any, error) {
	mode := "plain"
	words := args
	if len(args) > 0 {
		if _, ok := supportedModes[args[0]]; !ok {
			return nil, fmt.Errorf("unsupported echo mode '%s'", args[0])
		}
		mode = args[0]
		words = args[1:]
	}

	line := strings.Join(words, " ")
	switch mode {
	case "upper":
		line = strings.ToUpper(line)
	case "lower":
		line = strings.ToLower(line)
	case "title":
		line = cases.Title(language.Und).String(line)
	}

	if _, err := fmt.Fprintln(u.out, line); err != nil {
		return nil, fmt.Errorf("write echo output: %w", err)
	}

	u.logger.Debug("Echo unit wrote line",
		zap.String("mode", mode),
		zap.Int("words", len(words)),
	)

	return line, nil
}
