// ABOUTME: Configuration for Charm KV backend connection
// ABOUTME: Reads server and auto-sync settings from a JSON file with CRMD_CHARM_* overrides

package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName is the default Charm KV database name.
	AppName = "crmd"

	// ConfigFileName sits next to the main crmd config.
	ConfigFileName = "charm-config.json"

	// DefaultStaleThreshold is how long local data is trusted before a pull.
	DefaultStaleThreshold = time.Hour
)

// Config holds charm connection settings.
type Config struct {
	// Host is the charm server hostname (default: charm.2389.dev)
	Host string `json:"host,omitempty"`

	// AutoSync pushes after every snapshot save
	AutoSync bool `json:"auto_sync"`

	// StaleThreshold is how old local data may get before a pull is forced
	StaleThreshold time.Duration `json:"stale_threshold,omitempty"`

	path string
}

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultCharmHost,
		AutoSync:       true,
		StaleThreshold: DefaultStaleThreshold,
	}
}

// DefaultConfigPath is $XDG_CONFIG_HOME/crmd/charm-config.json.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFileName)
}

// LoadConfig reads path (defaults when missing) and then applies
// CRMD_CHARM_HOST and CRMD_CHARM_AUTOSYNC.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read charm config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse charm config %s: %w", path, err)
		}
	}
	cfg.path = path

	if v := os.Getenv("CRMD_CHARM_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("CRMD_CHARM_AUTOSYNC"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("CRMD_CHARM_AUTOSYNC: %w", err)
		}
		cfg.AutoSync = enabled
	}

	if cfg.Host == "" {
		cfg.Host = DefaultCharmHost
	}
	if cfg.StaleThreshold == 0 {
		cfg.StaleThreshold = DefaultStaleThreshold
	}
	return cfg, nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultConfigPath()
	}
	return c.path
}

// Save persists the config to the file it was loaded from.
func (c *Config) Save() error {
	path := c.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// SetAutoSync enables or disables auto-sync and saves.
func (c *Config) SetAutoSync(enabled bool) error {
	c.AutoSync = enabled
	return c.Save()
}
