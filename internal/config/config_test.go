package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RLCOACH_DB", "")
	t.Setenv("BALLCHASING_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RecentWindow != 10 {
		t.Errorf("RecentWindow = %d, want 10", cfg.RecentWindow)
	}
	if cfg.Fetch.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.Fetch.PageSize)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
	if filepath.Base(cfg.DBPath) != "rlcoach.db" {
		t.Errorf("DBPath = %q, want a rlcoach.db default", cfg.DBPath)
	}
	if d := cfg.APITimeout(); d != 30*time.Second {
		t.Errorf("APITimeout = %v, want 30s", d)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RLCOACH_DB", "")
	t.Setenv("BALLCHASING_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	body := `db_path = "/tmp/other.db"
recent_window = 20

[api]
ballchasing_key = "file-key"
timeout_secs = 45

[fetch]
page_size = 100

[server]
addr = ":9000"
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.RecentWindow != 20 {
		t.Errorf("RecentWindow = %d, want 20", cfg.RecentWindow)
	}
	if cfg.Fetch.PageSize != 100 {
		t.Errorf("PageSize = %d, want 100", cfg.Fetch.PageSize)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %q, want :9000", cfg.Server.Addr)
	}
	if key, err := cfg.BallchasingKey(); err != nil || key != "file-key" {
		t.Errorf("BallchasingKey = %q, %v", key, err)
	}
	if d := cfg.APITimeout(); d != 45*time.Second {
		t.Errorf("APITimeout = %v, want 45s", d)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected an error for an explicit missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RLCOACH_DB", "/tmp/env.db")
	t.Setenv("BALLCHASING_API_KEY", "env-key")
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Errorf("DBPath = %q, want /tmp/env.db", cfg.DBPath)
	}
	if key, err := cfg.BallchasingKey(); err != nil || key != "env-key" {
		t.Errorf("BallchasingKey = %q, %v", key, err)
	}
	if key := cfg.AnthropicKey(); key != "env-anthropic" {
		t.Errorf("AnthropicKey = %q", key)
	}
}

func TestKeyFileFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RLCOACH_DB", "")
	t.Setenv("BALLCHASING_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	dir := filepath.Join(home, ".rlcoach")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ballchasing_api_key"), []byte("  file-key\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	key, err := cfg.BallchasingKey()
	if err != nil {
		t.Fatalf("BallchasingKey: %v", err)
	}
	if key != "file-key" {
		t.Errorf("key = %q, want trimmed file contents", key)
	}

	if cfg.AnthropicKey() != "" {
		t.Error("AnthropicKey should be empty without a key file")
	}
}

func TestKeyMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RLCOACH_DB", "")
	t.Setenv("BALLCHASING_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := cfg.BallchasingKey(); err == nil {
		t.Error("expected an error when no ballchasing key is configured")
	}
}
