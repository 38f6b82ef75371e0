package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestRun_InvalidConfigPath verifies run fails when the config file is missing.
func TestRun_InvalidConfigPath(t *testing.T) {
	originalEnv := os.Getenv("LAMPGRID_CONFIG")
	defer os.Setenv("LAMPGRID_CONFIG", originalEnv)

	os.Setenv("LAMPGRID_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidConfig verifies run surfaces validation errors from the
// config layer before touching any infrastructure.
func TestRun_InvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	// Missing database path and JWT secret
	configContent := `
gateway:
  id: test-gateway

database:
  path: ""

api:
  host: "127.0.0.1"
  port: 8443

logging:
  level: error
  format: json
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	originalEnv := os.Getenv("LAMPGRID_CONFIG")
	defer os.Setenv("LAMPGRID_CONFIG", originalEnv)
	os.Setenv("LAMPGRID_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config")
	}
	if !strings.Contains(err.Error(), "config") {
		t.Errorf("error = %v, want config error", err)
	}
}

// TestGetConfigPath verifies the environment variable override.
func TestGetConfigPath(t *testing.T) {
	originalEnv := os.Getenv("LAMPGRID_CONFIG")
	defer os.Setenv("LAMPGRID_CONFIG", originalEnv)

	os.Setenv("LAMPGRID_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	os.Setenv("LAMPGRID_CONFIG", "/etc/lampgrid/config.yaml")
	if got := getConfigPath(); got != "/etc/lampgrid/config.yaml" {
		t.Errorf("getConfigPath() = %q, want override", got)
	}
}
