// Package api provides a Go client for the SuckYear REST backend.
package api

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// DefaultBaseURL is the production backend.
const DefaultBaseURL = "https://api.suckyea.ru"

// Default client settings.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "suckyear-go/1.0"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvBaseURL  = "SUCKYEAR_API_URL"
	EnvUsername = "SUCKYEAR_API_USERNAME"
	EnvPassword = "SUCKYEAR_API_PASSWORD"
)

// Config holds all configuration for the SuckYear API client.
type Config struct {
	// BaseURL is the backend origin, without the /api/v1 prefix.
	BaseURL string

	// Username and Password are the basic-auth credentials sent with every
	// call that carries no bearer token.
	Username string
	Password string

	// ClientID and ClientSecret are sent with the password grant.
	ClientID     string
	ClientSecret string

	// Timeout is the HTTP client timeout for each request.
	Timeout time.Duration

	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64
	Burst     int

	UserAgent string
}

// DefaultConfig returns a Config pointing at the production backend.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		Burst:     1,
		UserAgent: DefaultUserAgent,
	}
}

// ConfigFromEnv returns DefaultConfig overridden by the SUCKYEAR_API_*
// environment variables. A .env file in the working directory is loaded
// first when present; variables already set in the environment win.
func ConfigFromEnv() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	cfg.Username = os.Getenv(EnvUsername)
	cfg.Password = os.Getenv(EnvPassword)
	return cfg
}

// WithBaseURL returns a copy of the config with the specified base URL.
func (c Config) WithBaseURL(baseURL string) Config {
	c.BaseURL = baseURL
	return c
}

// WithBasicAuth returns a copy of the config with the specified credentials.
func (c Config) WithBasicAuth(username, password string) Config {
	c.Username = username
	c.Password = password
	return c
}

// WithOAuthClient returns a copy of the config with the password-grant client.
func (c Config) WithOAuthClient(id, secret string) Config {
	c.ClientID = id
	c.ClientSecret = secret
	return c
}

// WithTimeout returns a copy of the config with the specified timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}

// WithRateLimit returns a copy of the config limited to rps requests per
// second with the given burst.
func (c Config) WithRateLimit(rps float64, burst int) Config {
	c.RateLimit = rps
	c.Burst = burst
	return c
}
