package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv("")

	require.NoError(t, err)
	assert.Equal(t, "https://generativelanguage.googleapis.com", cfg.Gemini.BaseURL)
	assert.Equal(t, "v1beta", cfg.Gemini.APIVersion)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, 60*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 2, cfg.Gemini.MaxRetries)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:5173", cfg.Server.ClientURL)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)

	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 10, cfg.RateLimit.MaxHits)
	assert.Equal(t, 1000, cfg.RateLimit.MaxClients)

	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIURL)
	assert.False(t, cfg.GitHub.OAuthConfigured())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	t.Setenv("GEMINI_TIMEOUT", "90s")
	t.Setenv("PORT", "8080")
	t.Setenv("CLIENT_URL", "https://reviewmate.example.com")
	t.Setenv("AIREVIEWMATE_RATE_LIMIT_WINDOW", "30s")
	t.Setenv("AIREVIEWMATE_RATE_LIMIT_MAX", "5")
	t.Setenv("GITHUB_CLIENT_ID", "cid")
	t.Setenv("GITHUB_CLIENT_SECRET", "secret")
	t.Setenv("GITHUB_REDIRECT_URI", "https://reviewmate.example.com/api/github/callback")

	cfg, err := LoadFromEnv("")

	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.True(t, cfg.Gemini.HasAPIKey())
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.Model)
	assert.Equal(t, 90*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://reviewmate.example.com", cfg.Server.ClientURL)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 5, cfg.RateLimit.MaxHits)
	assert.True(t, cfg.GitHub.OAuthConfigured())
}

func TestLoadFromEnvPlaceholderKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "your_gemini_api_key_here")

	cfg, err := LoadFromEnv("")

	require.NoError(t, err)
	assert.False(t, cfg.Gemini.HasAPIKey())
}

func TestLoadFromEnvDurationAsSeconds(t *testing.T) {
	t.Setenv("GEMINI_TIMEOUT", "45")

	cfg, err := LoadFromEnv("")

	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Gemini.Timeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadFromEnv("")
		require.NoError(t, err)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing API key is still valid", func(t *testing.T) {
		cfg := valid()
		cfg.Gemini.APIKey = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("bad API version", func(t *testing.T) {
		cfg := valid()
		cfg.Gemini.APIVersion = "v2"
		assert.ErrorContains(t, cfg.Validate(), "API version")
	})

	t.Run("empty model", func(t *testing.T) {
		cfg := valid()
		cfg.Gemini.Model = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative retries", func(t *testing.T) {
		cfg := valid()
		cfg.Gemini.MaxRetries = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero rate limit window", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimit.Window = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("garbage"))
}
