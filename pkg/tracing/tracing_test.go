package tracing

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestDefaultConfig(t *testing.T) {
	serviceName := "test-service"
	config := DefaultConfig(serviceName)

	if config.ServiceName != serviceName {
		t.Errorf("Expected service name %s, got %s", serviceName, config.ServiceName)
	}
	if config.ServiceVersion != "1.0.0" {
		t.Errorf("Expected service version 1.0.0, got %s", config.ServiceVersion)
	}
	if config.Environment != "development" {
		t.Errorf("Expected environment development, got %s", config.Environment)
	}
	if config.OTLPEndpoint != "127.0.0.1:4318" {
		t.Errorf("Expected OTLP endpoint 127.0.0.1:4318, got %s", config.OTLPEndpoint)
	}
	if config.SampleRatio != 1.0 {
		t.Errorf("Expected sample ratio 1.0, got %f", config.SampleRatio)
	}
}

func TestShutdownTracing(t *testing.T) {
	logger := zap.NewNop()

	mockShutdown := func(ctx context.Context) error {
		return nil
	}

	if err := ShutdownTracing(mockShutdown, logger); err != nil {
		t.Errorf("Unexpected error from successful shutdown: %v", err)
	}

	// Nil logger should not panic
	if err := ShutdownTracing(mockShutdown, nil); err != nil {
		t.Errorf("Unexpected error with nil logger: %v", err)
	}

	mockShutdownWithError := func(ctx context.Context) error {
		return errors.New("shutdown failed")
	}

	if err := ShutdownTracing(mockShutdownWithError, logger); err == nil {
		t.Error("Expected error from failing shutdown function")
	}
}
