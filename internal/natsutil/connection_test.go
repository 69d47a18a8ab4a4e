package natsutil

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("nats://localhost:4222")

	if config.URL != "nats://localhost:4222" {
		t.Errorf("expected URL to be set, got %q", config.URL)
	}
	if config.Name != "node-runner" {
		t.Errorf("expected client name node-runner, got %q", config.Name)
	}
	if config.MaxReconnects != 10 {
		t.Errorf("expected 10 max reconnects, got %d", config.MaxReconnects)
	}
	if config.ReconnectWait != 2*time.Second {
		t.Errorf("expected 2s reconnect wait, got %v", config.ReconnectWait)
	}
	if config.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", config.Timeout)
	}
}

func TestConnectValidation(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	if _, err := Connect(ctx, nil, logger); err == nil {
		t.Error("expected error for nil config")
	}

	if _, err := Connect(ctx, &Config{}, logger); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestCloseNilConnection(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Errorf("expected nil error closing nil connection, got %v", err)
	}
}

func TestIsConnectedNil(t *testing.T) {
	if IsConnected(nil) {
		t.Error("nil connection must not report as connected")
	}
}
