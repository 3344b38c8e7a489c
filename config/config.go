// ABOUTME: Application configuration loaded from XDG paths, .env files and CRMD_* variables
// ABOUTME: Later sources win: defaults, JSON file, .env, environment, then command-line flags
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const AppName = "crmd"

// Config holds every runtime setting.
type Config struct {
	Addr     string `json:"addr"`
	StateDSN string `json:"state_dsn"`
	LogLevel string `json:"log_level"`

	CompletionEndpoint string   `json:"completion_endpoint"`
	CompletionModel    string   `json:"completion_model"`
	CompletionAPIKey   string   `json:"completion_api_key,omitempty"`
	CompletionTimeout  Duration `json:"completion_timeout"`

	EnrichWorkers   int `json:"enrich_workers"`
	EnrichQueueSize int `json:"enrich_queue_size"`
}

// Duration accepts "30s" style strings in JSON.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var secs float64
		if err := json.Unmarshal(data, &secs); err != nil {
			return fmt.Errorf("invalid duration %s", data)
		}
		d.Duration = time.Duration(secs * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Dir returns the XDG config directory for crmd.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.json")
}

// DefaultStateDSN is a sqlite database under the XDG data directory.
func DefaultStateDSN() string {
	return filepath.Join(xdg.DataHome, AppName, "crm.db")
}

func Default() *Config {
	return &Config{
		Addr:              ":8080",
		StateDSN:          DefaultStateDSN(),
		LogLevel:          "info",
		CompletionTimeout: Duration{30 * time.Second},
		EnrichWorkers:     2,
		EnrichQueueSize:   64,
	}
}

// CompletionEnabled reports whether an enrichment backend is configured.
func (c *Config) CompletionEnabled() bool {
	return c.CompletionEndpoint != "" && c.CompletionModel != ""
}

// Load builds the config from path (the default location when empty). A
// missing file is not an error. A .env file in the working directory is
// loaded before environment overrides are applied.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// godotenv never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path with restricted permissions.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// applyEnvOverrides applies CRMD_* environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CRMD_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("CRMD_STATE"); v != "" {
		cfg.StateDSN = v
	}
	if v := os.Getenv("CRMD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CRMD_COMPLETION_ENDPOINT"); v != "" {
		cfg.CompletionEndpoint = v
	}
	if v := os.Getenv("CRMD_COMPLETION_MODEL"); v != "" {
		cfg.CompletionModel = v
	}
	if v := os.Getenv("CRMD_COMPLETION_API_KEY"); v != "" {
		cfg.CompletionAPIKey = v
	}
	if v := os.Getenv("CRMD_COMPLETION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CRMD_COMPLETION_TIMEOUT: %w", err)
		}
		cfg.CompletionTimeout = Duration{d}
	}
	if err := intEnv("CRMD_ENRICH_WORKERS", &cfg.EnrichWorkers); err != nil {
		return err
	}
	return intEnv("CRMD_ENRICH_QUEUE_SIZE", &cfg.EnrichQueueSize)
}

func intEnv(name string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}

// RegisterFlags binds the command-line overrides to fs. Flag defaults are
// the already loaded values so unset flags leave them untouched.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.CompletionEndpoint, "completion-endpoint", c.CompletionEndpoint, "OpenAI-compatible API base URL for enrichment")
	fs.StringVar(&c.CompletionModel, "completion-model", c.CompletionModel, "Model used for enrichment")
	fs.DurationVar(&c.CompletionTimeout.Duration, "completion-timeout", c.CompletionTimeout.Duration, "Timeout per enrichment call")
	fs.IntVar(&c.EnrichWorkers, "enrich-workers", c.EnrichWorkers, "Number of enrichment workers")
	fs.IntVar(&c.EnrichQueueSize, "enrich-queue", c.EnrichQueueSize, "Enrichment queue size")
}
