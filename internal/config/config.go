package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen       = "127.0.0.1:8080"
	defaultTimezone     = "Local"
	defaultRefresh      = "*/30 * * * *"
	defaultChatPerMin   = 20
	defaultCacheDir     = "./var/feed-cache"
	defaultTimeoutSec   = 60
	defaultSessionHours = 2
)

// FeedConfig is an optional calendar feed subscription. When set, the feed
// is fetched on the refresh schedule and replaces the board.
type FeedConfig struct {
	// Name is a label used in logs and the UI.
	Name string `yaml:"name" json:"name"`
	// URL is the feed endpoint, e.g. a Canvas "Calendar Feed" link.
	URL string `yaml:"url" json:"url"`
}

// AssistantConfig configures the study assistant.
type AssistantConfig struct {
	// Model is the Gemini model name. Empty uses the package default.
	Model string `yaml:"model" json:"model"`
	// APIKey enables the assistant. Usually provided via GEMINI_API_KEY.
	APIKey string `yaml:"api_key" json:"-"`
	// TimeoutSeconds bounds a single model call.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	// SessionHours is how long an idle chat is kept.
	SessionHours int `yaml:"session_hours" json:"session_hours"`
	// ChatPerMinute rate limits chat and summary calls across all clients.
	ChatPerMinute int `yaml:"chat_per_minute" json:"chat_per_minute"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone decides where "today" starts when hiding past-due work.
	// "Local" uses the host zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Refresh is a standard 5-field cron spec for the feed refresh.
	Refresh string `yaml:"refresh" json:"refresh"`

	// CacheDir holds the last good feed body and its HTTP validators.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Feed      *FeedConfig      `yaml:"feed,omitempty" json:"feed,omitempty"`
	Assistant AssistantConfig  `yaml:"assistant" json:"assistant"`
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values so partially filled files work.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Refresh == "" {
		c.Refresh = defaultRefresh
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.Feed != nil && c.Feed.URL == "" {
		c.Feed = nil
	}
	if c.Assistant.TimeoutSeconds <= 0 {
		c.Assistant.TimeoutSeconds = defaultTimeoutSec
	}
	if c.Assistant.SessionHours <= 0 {
		c.Assistant.SessionHours = defaultSessionHours
	}
	if c.Assistant.ChatPerMinute <= 0 {
		c.Assistant.ChatPerMinute = defaultChatPerMin
	}
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	if _, err := cron.ParseStandard(c.Refresh); err != nil {
		return fmt.Errorf("config: refresh %q: %w", c.Refresh, err)
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == defaultTimezone {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// AssistantTimeout is Assistant.TimeoutSeconds as a duration.
func (c *Config) AssistantTimeout() time.Duration {
	return time.Duration(c.Assistant.TimeoutSeconds) * time.Second
}

// SessionTTL is Assistant.SessionHours as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Assistant.SessionHours) * time.Hour
}

// Load reads configuration from a YAML file.
//
// If the file does not exist a default config is written there (0600) and
// returned. An existing file is decoded and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".glassplanner-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
