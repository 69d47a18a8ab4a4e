package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type fakeStore struct {
	mu      sync.Mutex
	uploads []string
	data    map[string][]byte
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Upload(ctx context.Context, name string, data []byte, metadata map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.uploads = append(s.uploads, name)
	s.data[name] = data
	return "https://example.blob.core.windows.net/results/" + name, nil
}

func (s *fakeStore) Download(ctx context.Context, reference string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[reference]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", reference)
	}
	return data, nil
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestConfigureValidation(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		want   string
	}{
		{"missing connection string", &Config{Container: "results"}, "connection string is required"},
		{"missing container", &Config{ConnectionString: "AccountName=dev;AccountKey=a2V5"}, "container is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Logger = zap.NewNop()
			err := New(tt.config).Configure(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRunUploadsFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	first := writeTempFile(t, dir, "first.txt", "alpha")
	second := writeTempFile(t, dir, "second.txt", "beta")

	store := newFakeStore()
	unit := newWithStore(store, zap.NewNop())
	if err := unit.Configure(context.Background()); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}

	result, err := unit.Run(context.Background(), []string{first, second})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	urls, ok := result.([]string)
	if !ok || len(urls) != 2 {
		t.Fatalf("expected 2 URLs, got %v", result)
	}
	if !strings.HasSuffix(urls[0], "first.txt") || !strings.HasSuffix(urls[1], "second.txt") {
		t.Errorf("URLs out of order: %v", urls)
	}
	if string(store.data["first.txt"]) != "alpha" {
		t.Errorf("unexpected uploaded content %q", store.data["first.txt"])
	}
}

func TestRunRequiresArguments(t *testing.T) {
	unit := newWithStore(newFakeStore(), zap.NewNop())

	_, err := unit.Run(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "at least one file path") {
		t.Errorf("expected missing arguments error, got %v", err)
	}
}

func TestRunMissingFile(t *testing.T) {
	unit := newWithStore(newFakeStore(), zap.NewNop())

	_, err := unit.Run(context.Background(), []string{filepath.Join(t.TempDir(), "absent.txt")})
	if err == nil || !strings.Contains(err.Error(), "read") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestRunUploadFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "payload.txt", "data")

	store := newFakeStore()
	store.err = fmt.Errorf("storage offline")
	unit := newWithStore(store, zap.NewNop())

	_, err := unit.Run(context.Background(), []string{path})
	if err == nil || !strings.Contains(err.Error(), "storage offline") {
		t.Errorf("expected upload failure to propagate, got %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	logger := zap.NewNop()

	if _, err := NewClient("", "results", logger); err == nil {
		t.Error("expected error for empty connection string")
	}
	if _, err := NewClient("AccountName=dev;AccountKey=a2V5", "", logger); err == nil {
		t.Error("expected error for empty container")
	}
	if _, err := NewClient("AccountName=dev;AccountKey=a2V5", "results", nil); err == nil {
		t.Error("expected error for nil logger")
	}
	if _, err := NewClient("BlobEndpoint=http://127.0.0.1:10000/dev", "results", logger); err == nil {
		t.Error("expected error when account name and key are missing")
	}
}

func TestParseConnectionString(t *testing.T) {
	params := parseConnectionString(
		"DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=a2V5;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;",
	)

	if params["AccountName"] != "devstoreaccount1" {
		t.Errorf("unexpected account name %q", params["AccountName"])
	}
	if params["AccountKey"] != "a2V5" {
		t.Errorf("unexpected account key %q", params["AccountKey"])
	}
	if params["BlobEndpoint"] != "http://127.0.0.1:10000/devstoreaccount1" {
		t.Errorf("unexpected endpoint %q", params["BlobEndpoint"])
	}
}

func TestParseConnectionStringKeepsEmbeddedEquals(t *testing.T) {
	params := parseConnectionString("AccountKey=abc==;AccountName=dev")
	if params["AccountKey"] != "abc==" {
		t.Errorf("expected base64 padding preserved, got %q", params["AccountKey"])
	}
}

func TestContentTypeFor(t *testing.T) {
	if ct := contentTypeFor("report.json"); !strings.Contains(ct, "application/json") {
		t.Errorf("unexpected content type for json: %q", ct)
	}
	if ct := contentTypeFor("blob.bin-unknown-ext"); ct != "application/octet-stream" {
		t.Errorf("expected fallback content type, got %q", ct)
	}
}

func TestExtractBlobName(t *testing.T) {
	client := &Client{serviceURL: "http://127.0.0.1:10000/devstoreaccount1", containerName: "results"}

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"full URL", "http://127.0.0.1:10000/devstoreaccount1/results/out/report.json", "out/report.json"},
		{"bare name", "report.json", "report.json"},
		{"query string stripped", "http://127.0.0.1:10000/devstoreaccount1/results/report.json?sig=abc", "report.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.extractBlobName(tt.ref)
			if err != nil {
				t.Fatalf("extractBlobName returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	if _, err := client.extractBlobName("  "); err == nil {
		t.Error("expected error for blank reference")
	}
}
