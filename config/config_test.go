// ABOUTME: Tests for configuration loading and precedence
// ABOUTME: Exercises file, .env, environment and flag layers in order
package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"CRMD_ADDR", "CRMD_STATE", "CRMD_LOG_LEVEL", "CRMD_COMPLETION_ENDPOINT",
		"CRMD_COMPLETION_MODEL", "CRMD_COMPLETION_API_KEY", "CRMD_COMPLETION_TIMEOUT",
		"CRMD_ENRICH_WORKERS", "CRMD_ENRICH_QUEUE_SIZE",
	} {
		t.Setenv(name, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.CompletionEnabled())
	assert.Equal(t, "crm.db", filepath.Base(cfg.StateDSN))
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"addr": ":9000",
		"state_dsn": "memory://",
		"completion_endpoint": "http://llm.local/v1",
		"completion_model": "small",
		"completion_timeout": "5s",
		"enrich_workers": 4
	}`), 0600))
	t.Setenv("CRMD_ADDR", ":9100")
	t.Setenv("CRMD_ENRICH_QUEUE_SIZE", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Addr)
	assert.Equal(t, "memory://", cfg.StateDSN)
	assert.Equal(t, 5*time.Second, cfg.CompletionTimeout.Duration)
	assert.Equal(t, 4, cfg.EnrichWorkers)
	assert.Equal(t, 7, cfg.EnrichQueueSize)
	assert.True(t, cfg.CompletionEnabled())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv skips variables that exist, even when empty
	require.NoError(t, os.Unsetenv("CRMD_COMPLETION_MODEL"))
	require.NoError(t, os.WriteFile(".env", []byte("CRMD_COMPLETION_MODEL=from-dotenv\n"), 0600))

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.CompletionModel)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.json")

	t.Setenv("CRMD_ENRICH_WORKERS", "many")
	_, err := Load(missing)
	assert.ErrorContains(t, err, "CRMD_ENRICH_WORKERS")

	t.Setenv("CRMD_ENRICH_WORKERS", "")
	t.Setenv("CRMD_COMPLETION_TIMEOUT", "soon")
	_, err = Load(missing)
	assert.ErrorContains(t, err, "CRMD_COMPLETION_TIMEOUT")

	t.Setenv("CRMD_COMPLETION_TIMEOUT", "")
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"addr": `), 0600))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestFlagsOverrideLoadedValues(t *testing.T) {
	cfg := Default()
	cfg.Addr = ":9000"

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--log-level", "debug", "--completion-timeout", "2s"}))

	assert.Equal(t, ":9000", cfg.Addr, "unset flags keep loaded values")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.CompletionTimeout.Duration)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.CompletionModel = "tiny"
	cfg.CompletionTimeout = Duration{90 * time.Second}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDurationAcceptsSeconds(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`1.5`)))
	assert.Equal(t, 1500*time.Millisecond, d.Duration)
}
