package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears every supported variable.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(ConfigPathEnvVar, "")
	for name := range envKeys {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	os.Unsetenv(ConfigPathEnvVar)
	return home
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 15, cfg.Segments.PageSize)
	assert.Equal(t, 15, cfg.Segments.KOMLimit)
	assert.Equal(t, 5, cfg.Segments.KOMBatchSize)
	assert.Equal(t, 300*time.Millisecond, cfg.Segments.KOMRequestPause)
	assert.Equal(t, 1500*time.Millisecond, cfg.Segments.KOMBatchPause)
	assert.Equal(t, "activity:read_all,profile:read_all", cfg.Strava.Scope)
	assert.Equal(t, "mi", cfg.Display.DistanceUnit)

	// Strava credentials are empty by default
	assert.Empty(t, cfg.Strava.ClientID)
	assert.Empty(t, cfg.Strava.ClientSecret)
}

func TestLoadFromEnvironment(t *testing.T) {
	home := isolate(t)
	t.Setenv("STRAVA_CLIENT_ID", "12345")
	t.Setenv("STRAVA_CLIENT_SECRET", "shh")
	t.Setenv("SERVER_BASE_URL", "https://dash.example.com/")
	t.Setenv("SEGMENTS_KOM_BATCH_PAUSE", "2s")
	t.Setenv("SEGMENTS_PAGE_SIZE", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "12345", cfg.Strava.ClientID)
	assert.Equal(t, "shh", cfg.Strava.ClientSecret)
	assert.Equal(t, "https://dash.example.com/api/auth/callback", cfg.Strava.RedirectURI)
	assert.Equal(t, 2*time.Second, cfg.Segments.KOMBatchPause)
	assert.Equal(t, 30, cfg.Segments.PageSize)
	assert.Equal(t, filepath.Join(home, ".strava-dashboard", "credentials.db"), cfg.Store.Path)
	require.NoError(t, cfg.Validate())
}

func TestLoadExplicitRedirectWins(t *testing.T) {
	isolate(t)
	t.Setenv("STRAVA_REDIRECT_URI", "https://other.example.com/cb")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/cb", cfg.Strava.RedirectURI)
}

func TestLoadFileThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
strava:
  client_id: from-file
  client_secret: file-secret
display:
  distance_unit: km
`), 0600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("STRAVA_CLIENT_ID", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Strava.ClientID)
	assert.Equal(t, "file-secret", cfg.Strava.ClientSecret)
	assert.Equal(t, "km", cfg.Display.DistanceUnit)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.Strava.ClientID = "12345"
		cfg.Strava.ClientSecret = "abc123secret"
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid config", func(*Config) {}, ""},
		{"empty client ID", func(c *Config) { c.Strava.ClientID = "" }, "strava.client_id"},
		{"placeholder client ID", func(c *Config) { c.Strava.ClientID = "YOUR_CLIENT_ID" }, "strava.client_id"},
		{"empty client secret", func(c *Config) { c.Strava.ClientSecret = "" }, "strava.client_secret"},
		{"placeholder client secret", func(c *Config) { c.Strava.ClientSecret = "YOUR_CLIENT_SECRET" }, "strava.client_secret"},
		{"both placeholders", func(c *Config) {
			c.Strava.ClientID = "YOUR_CLIENT_ID"
			c.Strava.ClientSecret = "YOUR_CLIENT_SECRET"
		}, "strava.client_id"}, // first error wins
		{"bad distance unit", func(c *Config) { c.Display.DistanceUnit = "furlong" }, "Config.Display.DistanceUnit"},
		{"zero batch size", func(c *Config) { c.Segments.KOMBatchSize = 0 }, "Config.Segments.KOMBatchSize"},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }, "Config.HTTP.Timeout"},
		{"bad base url", func(c *Config) { c.Server.BaseURL = "not a url" }, "Config.Server.BaseURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "want ConfigError, got %v", err)
			assert.Equal(t, tt.wantField, cerr.Field)
		})
	}
}

func TestCreateExample(t *testing.T) {
	home := isolate(t)

	path, err := CreateExample()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".strava-dashboard", "config.yaml"), path)

	// The example carries placeholders, so it must not validate.
	cfg, err := Load()
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), ErrNoConfig)

	// A second call leaves the file alone.
	require.NoError(t, os.WriteFile(path, []byte("strava:\n  client_id: edited\n"), 0600))
	_, err = CreateExample()
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "edited")
}
