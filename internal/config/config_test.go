package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "ALLOWED_ORIGIN", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
		"PROMPT_FILE", "REDIS_URL", "RATE_LIMIT", "RATE_LIMIT_WINDOW", "TRUST_PROXY",
		"WHATSREPLY_BACKEND_URL", "WHATSREPLY_TIMEOUT", "WHATSREPLY_VERBOSE",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "*", cfg.AllowedOrigin)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "prompts/suggest.yaml", cfg.PromptFile)
	assert.Equal(t, 30, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.False(t, cfg.TrustProxy)
	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.Verbose)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT", "0")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("WHATSREPLY_BACKEND_URL", "https://api.example.com/")
	t.Setenv("WHATSREPLY_TIMEOUT", "5")
	t.Setenv("WHATSREPLY_VERBOSE", "yes")
	t.Setenv("TRUST_PROXY", "true")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 0, cfg.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, "https://api.example.com", cfg.BackendURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.TrustProxy)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT", "-3")
	t.Setenv("WHATSREPLY_TIMEOUT", "soon")

	assert.Equal(t, 7, getEnvIntDefault("RATE_LIMIT", 7))
	assert.Equal(t, time.Second, getEnvDurationDefault("WHATSREPLY_TIMEOUT", time.Second))
}
