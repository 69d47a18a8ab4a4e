package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NewModuleNotFound("modules/missing", nil)
		msg := err.Error()
		if !strings.Contains(msg, CodeModuleNotFound) {
			t.Errorf("expected code in message, got %q", msg)
		}
		if !strings.Contains(msg, "modules/missing") {
			t.Errorf("expected path in message, got %q", msg)
		}
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("stat failed")
		err := NewModuleNotFound("modules/missing", cause)
		if !strings.Contains(err.Error(), "stat failed") {
			t.Errorf("expected cause in message, got %q", err.Error())
		}
	})
}

func TestSentinelMatching(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"module not found", NewModuleNotFound("a/b", nil), ErrModuleNotFound},
		{"missing default export", NewMissingDefaultExport("a/b"), ErrMissingDefaultExport},
		{"invalid runner shape", NewInvalidRunnerShape("a/b", "run"), ErrInvalidRunnerShape},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tc.err, tc.sentinel)
			}
			for _, other := range cases {
				if other.sentinel == tc.sentinel {
					continue
				}
				if errors.Is(tc.err, other.sentinel) {
					t.Errorf("errors.Is(%v, %v) = true, want false", tc.err, other.sentinel)
				}
			}
		})
	}
}

func TestSentinelMatchingThroughWrapping(t *testing.T) {
	err := fmt.Errorf("load failed: %w", NewInvalidRunnerShape("modules/odd", "configure"))
	if !IsInvalidRunnerShape(err) {
		t.Error("expected IsInvalidRunnerShape to match through wrapping")
	}
	if IsModuleNotFound(err) {
		t.Error("expected IsModuleNotFound not to match")
	}
}

func TestInvalidRunnerShapeNamesMissingMethod(t *testing.T) {
	err := NewInvalidRunnerShape("modules/odd", "run")
	if !strings.Contains(err.Error(), "missing run") {
		t.Errorf("expected missing method in message, got %q", err.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("read error")
	err := NewModuleNotFound("a/b", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestAsError(t *testing.T) {
	t.Run("structured error in chain", func(t *testing.T) {
		wrapped := fmt.Errorf("context: %w", NewMissingDefaultExport("units/empty"))
		e, ok := AsError(wrapped)
		if !ok {
			t.Fatal("expected AsError to find the structured error")
		}
		if e.Path != "units/empty" {
			t.Errorf("expected path units/empty, got %q", e.Path)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		if _, ok := AsError(errors.New("plain")); ok {
			t.Error("expected AsError to report false for a plain error")
		}
	})
}
