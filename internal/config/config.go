// Package config holds the settings shared by the suckyear CLI and web server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suckyear/suckyear/pkg/api"
	"github.com/suckyear/suckyear/pkg/model"
)

// DefaultDebounce is the settle delay of the posts search box.
const DefaultDebounce = 500 * time.Millisecond

// Config is the full configuration. Every section has usable defaults.
type Config struct {
	API   APIConfig   `yaml:"api"`
	Posts PostsConfig `yaml:"posts"`
	Store StoreConfig `yaml:"store"`
	Web   WebConfig   `yaml:"web"`
	Log   LogConfig   `yaml:"log"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Timeout      time.Duration `yaml:"timeout"`
	RateLimit    float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst        int           `yaml:"burst"`
}

// PostsConfig configures the posts list.
type PostsConfig struct {
	Limit    int           `yaml:"limit"`
	Debounce time.Duration `yaml:"debounce"`
}

// StoreConfig configures the preference store.
type StoreConfig struct {
	// Path is the SQLite database path (":memory:" for testing).
	Path string `yaml:"path"`
}

// WebConfig configures the web server.
type WebConfig struct {
	Addr          string        `yaml:"addr"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`   // evict list controllers idle this long
	CleanupPeriod time.Duration `yaml:"cleanup_period"` // session janitor interval
	SecureCookies bool          `yaml:"secure_cookies"`
	// MaxControllers caps the posts list controllers kept in memory; the
	// least recently used one is closed to make room.
	MaxControllers int `yaml:"max_controllers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	apiDefaults := api.DefaultConfig()
	return &Config{
		API: APIConfig{
			BaseURL: apiDefaults.BaseURL,
			Timeout: apiDefaults.Timeout,
			Burst:   apiDefaults.Burst,
		},
		Posts: PostsConfig{
			Limit:    model.DefaultLimit,
			Debounce: DefaultDebounce,
		},
		Store: StoreConfig{
			Path: DefaultDBPath(),
		},
		Web: WebConfig{
			Addr:           ":8080",
			SessionTTL:     30 * 24 * time.Hour,
			IdleTimeout:    30 * time.Minute,
			CleanupPeriod:  5 * time.Minute,
			MaxControllers: 1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultDBPath returns ~/.suckyear/suckyear.db, or a relative path when the
// home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "suckyear.db"
	}
	return filepath.Join(home, ".suckyear", "suckyear.db")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative")
	}
	if c.Posts.Limit < 1 {
		return fmt.Errorf("posts.limit must be at least 1")
	}
	if c.Posts.Debounce < 0 {
		return fmt.Errorf("posts.debounce must not be negative")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Web.MaxControllers < 0 {
		return fmt.Errorf("web.max_controllers must not be negative")
	}
	return nil
}

// LoadFile reads a YAML file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and the SUCKYEAR_* environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	// A missing .env is normal.
	_ = godotenv.Load()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(api.EnvBaseURL); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := lookup(api.EnvUsername); ok {
		c.API.Username = v
	}
	if v, ok := lookup(api.EnvPassword); ok {
		c.API.Password = v
	}
	if v, ok := lookup("SUCKYEAR_DB"); ok && v != "" {
		c.Store.Path = v
	}
	if v, ok := lookup("SUCKYEAR_ADDR"); ok && v != "" {
		c.Web.Addr = v
	}
	if v, ok := lookup("SUCKYEAR_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("SUCKYEAR_RATE_LIMIT"); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SUCKYEAR_RATE_LIMIT: %w", err)
		}
		c.API.RateLimit = rps
	}
	return nil
}

// Merge overlays the non-zero fields of other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.API.BaseURL != "" {
		c.API.BaseURL = other.API.BaseURL
	}
	if other.API.Username != "" {
		c.API.Username = other.API.Username
	}
	if other.API.Password != "" {
		c.API.Password = other.API.Password
	}
	if other.API.ClientID != "" {
		c.API.ClientID = other.API.ClientID
	}
	if other.API.ClientSecret != "" {
		c.API.ClientSecret = other.API.ClientSecret
	}
	if other.API.Timeout != 0 {
		c.API.Timeout = other.API.Timeout
	}
	if other.API.RateLimit != 0 {
		c.API.RateLimit = other.API.RateLimit
		c.API.Burst = other.API.Burst
	}

	if other.Posts.Limit != 0 {
		c.Posts.Limit = other.Posts.Limit
	}
	if other.Posts.Debounce != 0 {
		c.Posts.Debounce = other.Posts.Debounce
	}

	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}

	if other.Web.Addr != "" {
		c.Web.Addr = other.Web.Addr
	}
	if other.Web.SessionTTL != 0 {
		c.Web.SessionTTL = other.Web.SessionTTL
	}
	if other.Web.IdleTimeout != 0 {
		c.Web.IdleTimeout = other.Web.IdleTimeout
	}
	if other.Web.CleanupPeriod != 0 {
		c.Web.CleanupPeriod = other.Web.CleanupPeriod
	}
	if other.Web.MaxControllers != 0 {
		c.Web.MaxControllers = other.Web.MaxControllers
	}
	if other.Web.SecureCookies {
		c.Web.SecureCookies = true
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
}

// ClientConfig converts the API section to the client's configuration.
func (c *Config) ClientConfig() api.Config {
	return api.DefaultConfig().
		WithBaseURL(c.API.BaseURL).
		WithBasicAuth(c.API.Username, c.API.Password).
		WithOAuthClient(c.API.ClientID, c.API.ClientSecret).
		WithTimeout(c.API.Timeout).
		WithRateLimit(c.API.RateLimit, c.API.Burst)
}
