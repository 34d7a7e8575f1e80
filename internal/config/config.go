// Package config loads and validates the application configuration from the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var (
	// Global configuration instance
	globalConfig *Config
	configMutex  sync.RWMutex
)

// Get returns the global configuration instance
// If the configuration has not been initialized, it will return an error
func Get() (*Config, error) {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}

	return globalConfig, nil
}

// Set sets the global configuration instance
func Set(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()

	globalConfig = cfg
}

// Config represents the complete application configuration
type Config struct {
	Gemini    GeminiConfig
	GitHub    GitHubConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey     string // Gemini API key
	BaseURL    string // Gemini API base URL
	APIVersion string // API version (v1 or v1beta)
	Model      string // Gemini model to use

	Timeout    time.Duration // Request timeout
	MaxRetries int           // Maximum number of retries on failure

	MaxTokens   int     // Max tokens to generate for responses
	Temperature float64 // Default temperature for generation

	// Outbound rate limiting toward the provider
	RequestsPerMinute int
	BurstLimit        int
}

// HasAPIKey reports whether a usable API key is configured.
func (c GeminiConfig) HasAPIKey() bool {
	return c.APIKey != ""
}

// GitHubConfig represents GitHub OAuth and REST API configuration
type GitHubConfig struct {
	ClientID     string // OAuth app client ID
	ClientSecret string // OAuth app client secret
	RedirectURI  string // OAuth callback URL registered with the app

	APIURL         string        // GitHub REST API base URL
	OAuthAuthURL   string        // Authorization endpoint
	OAuthTokenURL  string        // Token exchange endpoint
	RequestTimeout time.Duration // Request timeout for GitHub API
}

// OAuthConfigured reports whether all three OAuth secrets are present.
func (c GitHubConfig) OAuthConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURI != ""
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           // Listening port
	ClientURL       string        // Allowed origin for browser calls, OAuth redirect target
	MaxBodyBytes    int64         // JSON request body limit
	ShutdownTimeout time.Duration // Graceful shutdown deadline
}

// RateLimitConfig holds the per-client sliding window limiter settings
type RateLimitConfig struct {
	Window     time.Duration // Sliding window size
	MaxHits    int           // Admitted requests per window per client
	MaxClients int           // Bound on tracked client entries
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	Output     string // stdout, stderr, or file path
	AddSource  bool   // Include source code position in logs
	TimeFormat string // Time format for logs (empty uses RFC3339)
}

// New returns a new empty Config
func New() *Config {
	return &Config{}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.validateGemini(); err != nil {
		return fmt.Errorf("Gemini config: %w", err)
	}

	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.validateRateLimit(); err != nil {
		return fmt.Errorf("rate limit config: %w", err)
	}

	return nil
}

func (c *Config) validateGemini() error {
	// A missing API key is reported per request, not at startup, so the
	// GitHub-only surface keeps working without one.
	if c.Gemini.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	if c.Gemini.APIVersion != "v1" && c.Gemini.APIVersion != "v1beta" {
		return fmt.Errorf("invalid API version: %s (must be v1 or v1beta)", c.Gemini.APIVersion)
	}

	if c.Gemini.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if c.Gemini.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.Gemini.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive")
	}

	return nil
}

func (c *Config) validateRateLimit() error {
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}

	if c.RateLimit.MaxHits <= 0 {
		return fmt.Errorf("max hits must be positive")
	}

	return nil
}

// ParseLogLevel parses a log level string to a slog.Level
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none":
		// Set to a very high level that won't be triggered
		return slog.Level(9999)
	default:
		return slog.LevelInfo
	}
}
