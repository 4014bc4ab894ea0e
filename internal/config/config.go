// Package config loads and persists the application configuration from
// ~/.deckcheck/config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// API server configuration
	Server ServerConfig `toml:"server"`

	// Card snapshot configuration
	Cards CardsConfig `toml:"cards"`

	// Format rules configuration
	Rules RulesConfig `toml:"rules"`

	// Moxfield integration configuration
	Moxfield MoxfieldConfig `toml:"moxfield"`
}

// ServerConfig contains API server settings.
type ServerConfig struct {
	Port int `toml:"port"` // HTTP listen port
}

// CardsConfig contains card snapshot settings.
type CardsConfig struct {
	DatabasePath string `toml:"database_path"` // Path to the SQLite snapshot (empty = default)
	SnapshotTTL  string `toml:"snapshot_ttl"`  // How long a snapshot stays fresh (e.g., "24h")
}

// RulesConfig contains format rules settings.
type RulesConfig struct {
	Dir   string `toml:"dir"`   // Directory with rule list overrides (empty = embedded only)
	Watch bool   `toml:"watch"` // Reload rule lists on file changes
}

// MoxfieldConfig contains Moxfield integration settings.
type MoxfieldConfig struct {
	Enabled  bool   `toml:"enabled"`   // Enable the Moxfield deck route
	CacheTTL string `toml:"cache_ttl"` // How long fetched decks are cached (e.g., "15m")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Cards: CardsConfig{
			DatabasePath: "",
			SnapshotTTL:  "24h",
		},
		Rules: RulesConfig{
			Dir:   "",
			Watch: true,
		},
		Moxfield: MoxfieldConfig{
			Enabled:  true,
			CacheTTL: "15m",
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".deckcheck")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// DefaultDatabasePath returns the SQLite snapshot path used when the
// configuration leaves database_path empty.
func DefaultDatabasePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".deckcheck", "cards.db"), nil
}

// Load loads the configuration from disk. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// LoadFrom loads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if _, err := time.ParseDuration(c.Cards.SnapshotTTL); err != nil {
		return fmt.Errorf("invalid snapshot TTL %q: %w", c.Cards.SnapshotTTL, err)
	}

	if _, err := time.ParseDuration(c.Moxfield.CacheTTL); err != nil {
		return fmt.Errorf("invalid moxfield cache TTL %q: %w", c.Moxfield.CacheTTL, err)
	}

	if c.Rules.Dir != "" {
		info, err := os.Stat(c.Rules.Dir)
		if err != nil {
			return fmt.Errorf("rules dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("rules dir is not a directory: %s", c.Rules.Dir)
		}
	}

	return nil
}

// GetSnapshotTTL returns the snapshot TTL as a duration.
func (c *Config) GetSnapshotTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cards.SnapshotTTL)
}

// GetMoxfieldCacheTTL returns the Moxfield cache TTL as a duration.
func (c *Config) GetMoxfieldCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Moxfield.CacheTTL)
}
