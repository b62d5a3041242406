/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings are read from operating system environment variables, optionally overlaid by a
YAML file named in CHATTERM_CONFIG, and finally by command-line flags (applied by cmd).
They cover the running environment, backend endpoints, the local data directory, and
the composer's typing-indicator timing.
*/
package configs

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIBaseURL is the REST backend used when API_BASE_URL is unset.
	DefaultAPIBaseURL = "http://localhost:4000/api"

	// DefaultPushURL is the push channel used when PUSH_URL is unset.
	DefaultPushURL = "ws://localhost:4000/ws"

	// DefaultTypingIdle is how long the composer waits after the last keystroke before sending typing:stop.
	DefaultTypingIdle = time.Second

	// SessionDBName is the file name of the credential database inside DataDir.
	SessionDBName = "session.db"

	// LogFileName is the file name of the log inside DataDir.
	LogFileName = "chatterm.log"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Settings
	Environment string `yaml:"environment"`

	// Backend Settings
	APIBaseURL string `yaml:"api_base_url"`
	PushURL    string `yaml:"push_url"`

	// Local Storage Settings
	DataDir string `yaml:"data_dir"`

	// Composer Settings
	TypingIdle time.Duration `yaml:"typing_idle"`
}

// IsDevelopment reports whether the client runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// SessionDBPath returns the path of the credential database.
func (c *AppConfig) SessionDBPath() string {
	return filepath.Join(c.DataDir, SessionDBName)
}

// LogFilePath returns the path of the log file.
func (c *AppConfig) LogFilePath() string {
	return filepath.Join(c.DataDir, LogFileName)
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item, applies the optional YAML overlay,
// and validates the result.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "production"
	}

	// --- Backend Settings ---
	cfg.APIBaseURL = os.Getenv("API_BASE_URL")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}

	cfg.PushURL = os.Getenv("PUSH_URL")
	if cfg.PushURL == "" {
		cfg.PushURL = DefaultPushURL
	}

	// --- Local Storage Settings ---
	cfg.DataDir = os.Getenv("CHATTERM_DATA_DIR")
	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	// --- Composer Settings ---
	cfg.TypingIdle = DefaultTypingIdle
	if idleStr := os.Getenv("TYPING_IDLE_MS"); idleStr != "" {
		ms, err := strconv.Atoi(idleStr)
		if err != nil {
			return nil, fmt.Errorf("invalid TYPING_IDLE_MS environment variable: %w", err)
		}
		cfg.TypingIdle = time.Duration(ms) * time.Millisecond
	}

	// --- YAML Overlay ---
	if path := os.Getenv("CHATTERM_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// overlayFile replaces every field that is set in the YAML file at path.
func (c *AppConfig) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var overlay AppConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if overlay.Environment != "" {
		c.Environment = overlay.Environment
	}
	if overlay.APIBaseURL != "" {
		c.APIBaseURL = overlay.APIBaseURL
	}
	if overlay.PushURL != "" {
		c.PushURL = overlay.PushURL
	}
	if overlay.DataDir != "" {
		c.DataDir = overlay.DataDir
	}
	if overlay.TypingIdle != 0 {
		c.TypingIdle = overlay.TypingIdle
	}

	return nil
}

// Validate checks the endpoint URLs and timings. It is called again after flags are applied.
func (c *AppConfig) Validate() error {
	api, err := url.Parse(c.APIBaseURL)
	if err != nil || (api.Scheme != "http" && api.Scheme != "https") || api.Host == "" {
		return fmt.Errorf("API base URL %q must be an absolute http(s) URL", c.APIBaseURL)
	}

	push, err := url.Parse(c.PushURL)
	if err != nil || (push.Scheme != "ws" && push.Scheme != "wss") || push.Host == "" {
		return fmt.Errorf("push URL %q must be an absolute ws(s) URL", c.PushURL)
	}

	if c.TypingIdle < 100*time.Millisecond || c.TypingIdle > time.Minute {
		return fmt.Errorf("typing idle %s is outside the allowed range (%s-%s)", c.TypingIdle, 100*time.Millisecond, time.Minute)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}

	return nil
}

// defaultDataDir returns $XDG_CONFIG_HOME/chatterm, or the platform equivalent.
func defaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, "chatterm"), nil
}
