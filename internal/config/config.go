package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Strava   StravaConfig   `koanf:"strava"`
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	HTTP     HTTPConfig     `koanf:"http"`
	Segments SegmentsConfig `koanf:"segments"`
	Display  DisplayConfig  `koanf:"display"`
	Log      LogConfig      `koanf:"log"`
}

// StravaConfig holds Strava API credentials and endpoints
type StravaConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURI  string `koanf:"redirect_uri" validate:"omitempty,url"`
	Scope        string `koanf:"scope" validate:"required"`
	APIURL       string `koanf:"api_url" validate:"required,url"`
	OAuthURL     string `koanf:"oauth_url" validate:"required,url"`
}

// ServerConfig holds the OAuth callback server settings
type ServerConfig struct {
	Addr    string `koanf:"addr" validate:"required"`
	BaseURL string `koanf:"base_url" validate:"required,url"`
}

// StoreConfig locates the credential database
type StoreConfig struct {
	Path string `koanf:"path"`
}

// HTTPConfig holds outbound HTTP settings
type HTTPConfig struct {
	// Timeout bounds each individual request attempt.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// SegmentsConfig tunes the segment aggregation pipeline
type SegmentsConfig struct {
	PageSize        int           `koanf:"page_size" validate:"min=1,max=200"`
	KOMLimit        int           `koanf:"kom_limit" validate:"min=0"`
	KOMBatchSize    int           `koanf:"kom_batch_size" validate:"min=1"`
	KOMRequestPause time.Duration `koanf:"kom_request_pause" validate:"min=0"`
	KOMBatchPause   time.Duration `koanf:"kom_batch_pause" validate:"min=0"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `koanf:"distance_unit" validate:"oneof=mi km"`
}

// LogConfig mirrors logging.Config for file/env loading
type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ConfigError reports missing or invalid configuration. It is never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("config: %s is required", e.Field)
	}
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// ErrNoConfig means no Strava app credentials were configured at all.
var ErrNoConfig = errors.New("no Strava API credentials configured")

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// CallbackPath is where the provider redirects after authorization.
const CallbackPath = "/api/auth/callback"

const (
	placeholderClientID     = "YOUR_CLIENT_ID"
	placeholderClientSecret = "YOUR_CLIENT_SECRET"
)

// envKeys maps the supported environment variables to config keys.
var envKeys = map[string]string{
	"STRAVA_CLIENT_ID":           "strava.client_id",
	"STRAVA_CLIENT_SECRET":       "strava.client_secret",
	"STRAVA_REDIRECT_URI":        "strava.redirect_uri",
	"STRAVA_SCOPE":               "strava.scope",
	"STRAVA_API_URL":             "strava.api_url",
	"STRAVA_OAUTH_URL":           "strava.oauth_url",
	"SERVER_ADDR":                "server.addr",
	"SERVER_BASE_URL":            "server.base_url",
	"STORE_PATH":                 "store.path",
	"HTTP_TIMEOUT":               "http.timeout",
	"SEGMENTS_PAGE_SIZE":         "segments.page_size",
	"SEGMENTS_KOM_LIMIT":         "segments.kom_limit",
	"SEGMENTS_KOM_BATCH_SIZE":    "segments.kom_batch_size",
	"SEGMENTS_KOM_REQUEST_PAUSE": "segments.kom_request_pause",
	"SEGMENTS_KOM_BATCH_PAUSE":   "segments.kom_batch_pause",
	"DISPLAY_DISTANCE_UNIT":      "display.distance_unit",
	"LOG_LEVEL":                  "log.level",
	"LOG_FORMAT":                 "log.format",
	"LOG_CALLER":                 "log.caller",
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Strava: StravaConfig{
			Scope:    "activity:read_all,profile:read_all",
			APIURL:   "https://www.strava.com/api/v3",
			OAuthURL: "https://www.strava.com/oauth",
		},
		Server: ServerConfig{
			Addr:    ":8089",
			BaseURL: "http://localhost:8089",
		},
		HTTP: HTTPConfig{
			Timeout: 15 * time.Second,
		},
		Segments: SegmentsConfig{
			PageSize:        15,
			KOMLimit:        15,
			KOMBatchSize:    5,
			KOMRequestPause: 300 * time.Millisecond,
			KOMBatchPause:   1500 * time.Millisecond,
		},
		Display: DisplayConfig{
			DistanceUnit: "mi",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load layers defaults, the optional YAML file and the environment.
// Derived values (redirect URI, store path) are filled in afterwards.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	path, err := findConfigFile()
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.applyDerived(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDerived() error {
	if c.Strava.RedirectURI == "" {
		c.Strava.RedirectURI = strings.TrimRight(c.Server.BaseURL, "/") + CallbackPath
	}
	if c.Store.Path == "" {
		dir, err := GetConfigDir()
		if err != nil {
			return err
		}
		c.Store.Path = filepath.Join(dir, "credentials.db")
	}
	return nil
}

// Validate checks required credentials first, then the remaining field rules.
func (c *Config) Validate() error {
	if isUnset(c.Strava.ClientID, placeholderClientID) && isUnset(c.Strava.ClientSecret, placeholderClientSecret) {
		return fmt.Errorf("%w: %w", ErrNoConfig, &ConfigError{Field: "strava.client_id", Reason: "is required - get it from https://www.strava.com/settings/api"})
	}
	if c.Strava.ClientID == "" || c.Strava.ClientID == placeholderClientID {
		return &ConfigError{Field: "strava.client_id", Reason: "is required - get it from https://www.strava.com/settings/api"}
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == placeholderClientSecret {
		return &ConfigError{Field: "strava.client_secret", Reason: "is required - get it from https://www.strava.com/settings/api"}
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ConfigError{Field: fe.Namespace(), Reason: fmt.Sprintf("failed %q check (got %v)", fe.Tag(), fe.Value())}
		}
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

func isUnset(v, placeholder string) bool {
	return v == "" || v == placeholder
}

// findConfigFile returns CONFIG_PATH when set, otherwise ~/.strava-dashboard/config.yaml if it exists.
func findConfigFile() (string, error) {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config file %s: %w", p, err)
		}
		return p, nil
	}

	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return "", nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".strava-dashboard"), nil
}

const exampleConfig = `# strava-dashboard configuration. Environment variables override these values.
strava:
  client_id: YOUR_CLIENT_ID
  client_secret: YOUR_CLIENT_SECRET
  # redirect_uri defaults to <server.base_url>/api/auth/callback
server:
  addr: ":8089"
  base_url: http://localhost:8089
segments:
  page_size: 15
display:
  distance_unit: mi
`

// CreateExample writes an example config file if none exists and returns its path.
func CreateExample() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(path); err == nil {
		return path, nil // don't overwrite
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}
