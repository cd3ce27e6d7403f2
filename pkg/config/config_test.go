package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// writeConfigFile marshals a config document to YAML in a temp dir and
// returns its path.
func writeConfigFile(t *testing.T, doc map[string]any) string {
	t.Helper()

	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("Failed to marshal config fixture: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	configPath := writeConfigFile(t, map[string]any{
		"logging": map[string]any{"level": "debug"},
		"nodes":   map[string]any{"type": "memory"},
	})

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("Expected default listen ':8080', got %q", cfg.Server.Listen)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Content.Type != "memory" {
		t.Errorf("Expected default content type 'memory', got %q", cfg.Content.Type)
	}
	if cfg.Activation.RefreshInterval != 15*time.Second {
		t.Errorf("Expected default refresh_interval 15s, got %v", cfg.Activation.RefreshInterval)
	}
	if cfg.Activation.PendingUploadTTL != time.Hour {
		t.Errorf("Expected default pending_upload_ttl 1h, got %v", cfg.Activation.PendingUploadTTL)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Nodes.Type != "memory" {
		t.Errorf("Expected default nodes type 'memory', got %q", cfg.Nodes.Type)
	}
}

func TestLoad_BadgerConfig(t *testing.T) {
	configPath := writeConfigFile(t, map[string]any{
		"nodes": map[string]any{
			"type":   "badger",
			"badger": map[string]any{"path": "/var/lib/trellis/nodes"},
		},
	})

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Nodes.Type != "badger" {
		t.Errorf("Expected nodes type 'badger', got %q", cfg.Nodes.Type)
	}
	if got := cfg.Nodes.Badger["path"]; got != "/var/lib/trellis/nodes" {
		t.Errorf("Expected badger path to round-trip, got %v", got)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	if err := os.WriteFile(configPath, []byte("logging:\n  level: INFO\n  broken [[["), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
	}{
		{
			name: "unknown node store type",
			doc:  map[string]any{"nodes": map[string]any{"type": "etcd"}},
		},
		{
			name: "badger without path",
			doc:  map[string]any{"nodes": map[string]any{"type": "badger"}},
		},
		{
			name: "postgres without dsn",
			doc:  map[string]any{"nodes": map[string]any{"type": "postgres"}},
		},
		{
			name: "s3 without bucket",
			doc: map[string]any{"content": map[string]any{
				"type": "s3",
				"s3":   map[string]any{"region": "eu-west-1"},
			}},
		},
		{
			name: "invalid log level",
			doc:  map[string]any{"logging": map[string]any{"level": "LOUD"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfigFile(t, tt.doc)
			if _, err := Load(configPath); err == nil {
				t.Fatal("Expected validation error, got nil")
			}
		})
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("TRELLIS_LOGGING_LEVEL", "ERROR")

	configPath := writeConfigFile(t, map[string]any{
		"logging": map[string]any{"level": "info"},
	})

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected env var to win, got %q", cfg.Logging.Level)
	}
}
