package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "anycode.yaml")
	if err := os.WriteFile(yamlPath, []byte("server:\n  port: \"7000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 4)
	stop, err := Watch(yamlPath, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer stop()

	if err := os.WriteFile(yamlPath, []byte("server:\n  port: \"7001\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Server.Port != "7001" {
			t.Errorf("reloaded port = %s, want 7001", cfg.Server.Port)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatchKeepsPreviousOnBadConfig(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "anycode.yaml")
	if err := os.WriteFile(yamlPath, []byte("server:\n  port: \"7000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 4)
	stop, err := Watch(yamlPath, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer stop()

	// Validation rejects an empty port; the callback must not fire.
	if err := os.WriteFile(yamlPath, []byte("server:\n  port: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		t.Errorf("invalid config delivered: port=%q", cfg.Server.Port)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "anycode.yaml")
	if err := os.WriteFile(yamlPath, []byte("server:\n  port: \"7000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 4)
	stop, err := Watch(yamlPath, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer stop()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Error("reload fired for unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}
