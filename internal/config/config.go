// Package config loads rlcoach settings. Values come from an optional TOML
// file, with environment variables taking precedence, and API keys falling
// back to per-key files under the state directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// API keys and model selection for the external services.
type API struct {
	BallchasingKey string `toml:"ballchasing_key"`
	AnthropicKey   string `toml:"anthropic_key"`
	Model          string `toml:"model"`
	// TimeoutSecs bounds each replay-API request, in seconds.
	TimeoutSecs int `toml:"timeout_secs"`
}

// Fetch tunes the replay ingestion loop.
type Fetch struct {
	PageSize   int `toml:"page_size"`
	MaxReplays int `toml:"max_replays"`
}

// Server configures the dashboard listener.
type Server struct {
	Addr string `toml:"addr"`
}

type Config struct {
	DBPath       string `toml:"db_path"`
	RecentWindow int    `toml:"recent_window"`
	API          API    `toml:"api"`
	Fetch        Fetch  `toml:"fetch"`
	Server       Server `toml:"server"`
}

// Load reads the config file at path, or ~/.rlcoach/config.toml when path is
// empty. A missing default file is not an error; a missing explicit one is.
// RLCOACH_DB, BALLCHASING_API_KEY, and ANTHROPIC_API_KEY override the file.
func Load(path string) (Config, error) {
	cfg := Config{
		RecentWindow: 10,
		API:          API{TimeoutSecs: 30},
		Fetch:        Fetch{PageSize: 50},
		Server:       Server{Addr: ":8080"},
	}

	explicit := path != ""
	if !explicit {
		dir, err := StateDir()
		if err != nil {
			return Config{}, err
		}
		path = filepath.Join(dir, "config.toml")
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if explicit || !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if v := os.Getenv("RLCOACH_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("BALLCHASING_API_KEY"); v != "" {
		cfg.API.BallchasingKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.API.AnthropicKey = v
	}

	if cfg.DBPath == "" {
		dir, err := StateDir()
		if err != nil {
			return Config{}, err
		}
		cfg.DBPath = filepath.Join(dir, "rlcoach.db")
	}
	return cfg, nil
}

// StateDir returns ~/.rlcoach, creating it on first use.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".rlcoach")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// BallchasingKey returns the replay API key, falling back to the
// ~/.rlcoach/ballchasing_api_key file when neither the config file nor
// BALLCHASING_API_KEY provided one.
func (c *Config) BallchasingKey() (string, error) {
	if c.API.BallchasingKey != "" {
		return c.API.BallchasingKey, nil
	}
	if key := readKeyFile("ballchasing_api_key"); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("ballchasing API key not found: set BALLCHASING_API_KEY or create ~/.rlcoach/ballchasing_api_key")
}

// APITimeout returns the per-request timeout for replay-API calls.
func (c *Config) APITimeout() time.Duration {
	if c.API.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// AnthropicKey returns the Anthropic API key, or "" when none is configured.
// Coaching is optional, so absence is not an error here.
func (c *Config) AnthropicKey() string {
	if c.API.AnthropicKey != "" {
		return c.API.AnthropicKey
	}
	return readKeyFile("anthropic_api_key")
}

func readKeyFile(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(home, ".rlcoach", name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
