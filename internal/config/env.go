package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Endpoint defaults; overridable for tests and GitHub Enterprise.
const (
	defaultGeminiBaseURL  = "https://generativelanguage.googleapis.com"
	defaultGeminiModel    = "gemini-2.0-flash"
	defaultGitHubAPIURL   = "https://api.github.com"
	defaultOAuthAuthURL   = "https://github.com/login/oauth/authorize"
	defaultOAuthTokenURL  = "https://github.com/login/oauth/access_token"
	defaultClientURL      = "http://localhost:5173"
	defaultMaxBodyBytes   = 1 << 20 // 1 MiB, matches the original body parser limit
	defaultRateLimitHits  = 10
	defaultRateLimitCount = 1000
)

// LoadFromEnv loads configuration from environment variables, optionally
// seeding them from a .env file first. envFilePath may be empty, in which
// case a .env in the working directory is used when present.
func LoadFromEnv(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return nil, err
		}
	} else {
		// Ignore errors if no .env file exists
		_ = godotenv.Load()
	}

	cfg := New()

	cfg.Gemini = GeminiConfig{
		APIKey:            getEnvString("GEMINI_API_KEY", ""),
		BaseURL:           getEnvString("GEMINI_BASE_URL", defaultGeminiBaseURL),
		APIVersion:        getEnvString("GEMINI_API_VERSION", "v1beta"),
		Model:             getEnvString("GEMINI_MODEL", defaultGeminiModel),
		Timeout:           getEnvDuration("GEMINI_TIMEOUT", 60*time.Second),
		MaxRetries:        getEnvInt("GEMINI_MAX_RETRIES", 2),
		MaxTokens:         getEnvInt("GEMINI_MAX_TOKENS", 4096),
		Temperature:       getEnvFloat("GEMINI_TEMPERATURE", 0.1),
		RequestsPerMinute: getEnvInt("GEMINI_REQUESTS_PER_MINUTE", 60),
		BurstLimit:        getEnvInt("GEMINI_BURST_LIMIT", 5),
	}

	// Treat the scaffold placeholder the same as an unset key
	if cfg.Gemini.APIKey == "your_gemini_api_key_here" {
		cfg.Gemini.APIKey = ""
	}

	cfg.GitHub = GitHubConfig{
		ClientID:       getEnvString("GITHUB_CLIENT_ID", ""),
		ClientSecret:   getEnvString("GITHUB_CLIENT_SECRET", ""),
		RedirectURI:    getEnvString("GITHUB_REDIRECT_URI", ""),
		APIURL:         getEnvString("GITHUB_API_URL", defaultGitHubAPIURL),
		OAuthAuthURL:   getEnvString("GITHUB_OAUTH_AUTH_URL", defaultOAuthAuthURL),
		OAuthTokenURL:  getEnvString("GITHUB_OAUTH_TOKEN_URL", defaultOAuthTokenURL),
		RequestTimeout: getEnvDuration("GITHUB_REQUEST_TIMEOUT", 30*time.Second),
	}

	cfg.Server = ServerConfig{
		Port:            getEnvInt("PORT", 3000),
		ClientURL:       getEnvString("CLIENT_URL", defaultClientURL),
		MaxBodyBytes:    int64(getEnvInt("AIREVIEWMATE_MAX_BODY_BYTES", defaultMaxBodyBytes)),
		ShutdownTimeout: getEnvDuration("AIREVIEWMATE_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	cfg.RateLimit = RateLimitConfig{
		Window:     getEnvDuration("AIREVIEWMATE_RATE_LIMIT_WINDOW", time.Minute),
		MaxHits:    getEnvInt("AIREVIEWMATE_RATE_LIMIT_MAX", defaultRateLimitHits),
		MaxClients: getEnvInt("AIREVIEWMATE_RATE_LIMIT_MAX_CLIENTS", defaultRateLimitCount),
	}

	cfg.Logging = LoggingConfig{
		Level:      getEnvString("AIREVIEWMATE_LOG_LEVEL", "info"),
		Format:     getEnvString("AIREVIEWMATE_LOG_FORMAT", "text"),
		Output:     getEnvString("AIREVIEWMATE_LOG_OUTPUT", "stdout"),
		AddSource:  getEnvBool("AIREVIEWMATE_LOG_ADD_SOURCE", true),
		TimeFormat: getEnvString("AIREVIEWMATE_LOG_TIME_FORMAT", time.RFC3339),
	}

	return cfg, cfg.Validate()
}

// getEnvString gets a string from environment variable or returns the default value
func getEnvString(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an int from environment variable or returns the default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getEnvFloat gets a float from environment variable or returns the default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatValue
}

// getEnvBool gets a bool from environment variable or returns the default value
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// getEnvDuration gets a duration from environment variable or returns the default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		// Fall back to treating the value as seconds
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
		return defaultValue
	}

	return duration
}
