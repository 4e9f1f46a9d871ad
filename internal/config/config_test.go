// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONSOLE_CONFIG", "HTTP_ADDR", "DATABASE_URL", "ORCHESTRATOR_URL",
		"EVENT_STREAM_URL", "ENV", "ADMIN_TOKEN", "AUTO_MIGRATE",
		"COMMANDS_PER_MIN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":8085" {
		t.Fatalf("expected default HTTPAddr=:8085, got %s", cfg.HTTPAddr)
	}
	if cfg.OrchestratorURL != "http://localhost:8081" {
		t.Fatalf("expected default OrchestratorURL, got %s", cfg.OrchestratorURL)
	}
	if cfg.EventStreamURL != "ws://localhost:8081/ws/events" {
		t.Fatalf("expected default EventStreamURL, got %s", cfg.EventStreamURL)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected default Env=dev, got %s", cfg.Env)
	}
	if cfg.AdminToken != "" {
		t.Fatalf("expected default AdminToken to be empty, got %s", cfg.AdminToken)
	}
	if !cfg.AutoMigrate {
		t.Fatal("expected default AutoMigrate=true")
	}
	if cfg.CommandsPerMin != 120 {
		t.Fatalf("expected default CommandsPerMin=120, got %d", cfg.CommandsPerMin)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	body := "http_addr: \":9000\"\norchestrator_url: http://orch:8081\nauto_migrate: false\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONSOLE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":9000" {
		t.Fatalf("expected file HTTPAddr override, got %s", cfg.HTTPAddr)
	}
	if cfg.OrchestratorURL != "http://orch:8081" {
		t.Fatalf("expected file OrchestratorURL override, got %s", cfg.OrchestratorURL)
	}
	if cfg.AutoMigrate {
		t.Fatal("expected file AutoMigrate override to false")
	}
	// Untouched keys keep their defaults.
	if cfg.Env != "dev" {
		t.Fatalf("expected default Env through partial file, got %s", cfg.Env)
	}
}

func TestLoadEnvWinsOverFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	if err := os.WriteFile(path, []byte("http_addr: \":9000\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONSOLE_CONFIG", path)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ENV", "prod")
	t.Setenv("ADMIN_TOKEN", "master-token")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("COMMANDS_PER_MIN", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.Env != "prod" {
		t.Fatalf("expected ENV override, got %s", cfg.Env)
	}
	if cfg.AdminToken != "master-token" {
		t.Fatalf("expected ADMIN_TOKEN override, got %s", cfg.AdminToken)
	}
	if cfg.AutoMigrate {
		t.Fatal("expected AUTO_MIGRATE override to false")
	}
	if cfg.CommandsPerMin != 30 {
		t.Fatalf("expected COMMANDS_PER_MIN override, got %d", cfg.CommandsPerMin)
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("INT_KEY", "42")
	if got := getenvInt("INT_KEY", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}

	t.Setenv("INT_KEY", "junk")
	if got := getenvInt("INT_KEY", 7); got != 7 {
		t.Fatalf("expected fallback 7 for junk, got %d", got)
	}

	t.Setenv("INT_KEY", "")
	if got := getenvInt("INT_KEY", 7); got != 7 {
		t.Fatalf("expected fallback 7 for empty, got %d", got)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONSOLE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for explicitly configured missing file")
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "console.yaml")
	if err := os.WriteFile(path, []byte("http_addr: [oops\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONSOLE_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestGetenvBool(t *testing.T) {
	t.Setenv("BOOL_KEY", "true")
	if !getenvBool("BOOL_KEY", false) {
		t.Fatal("expected true value")
	}

	t.Setenv("BOOL_KEY", "0")
	if getenvBool("BOOL_KEY", true) {
		t.Fatal("expected false value")
	}

	t.Setenv("BOOL_KEY", "")
	if !getenvBool("BOOL_KEY", true) {
		t.Fatal("expected fallback true value")
	}
}
