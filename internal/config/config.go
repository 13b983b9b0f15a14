package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// LLM
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string
	PromptFile    string
	// Rate limiting; RateLimit 0 disables it
	RedisURL        string
	RateLimit       int
	RateLimitWindow time.Duration
	// TrustProxy honors X-Forwarded-For / X-Real-IP; only enable behind a proxy that sets them
	TrustProxy bool
	// Client side: where the terminal front end sends requests
	BackendURL     string
	RequestTimeout time.Duration
	Verbose        bool
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:            getEnvDefault("PORT", "8000"),
		AllowedOrigin:   getEnvDefault("ALLOWED_ORIGIN", "*"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		Model:           getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		PromptFile:      getEnvDefault("PROMPT_FILE", "prompts/suggest.yaml"),
		RedisURL:        os.Getenv("REDIS_URL"),
		RateLimit:       getEnvIntDefault("RATE_LIMIT", 30),
		RateLimitWindow: getEnvDurationDefault("RATE_LIMIT_WINDOW", time.Minute),
		TrustProxy:      getEnvBoolDefault("TRUST_PROXY", false),
		BackendURL:      strings.TrimRight(getEnvDefault("WHATSREPLY_BACKEND_URL", "http://localhost:8000"), "/"),
		RequestTimeout:  getEnvDurationDefault("WHATSREPLY_TIMEOUT", 15*time.Second),
		Verbose:         getEnvBoolDefault("WHATSREPLY_VERBOSE", false),
	}
	return cfg
}

// WarnMissing logs settings the backend cannot work without.
func (c Config) WarnMissing() {
	if c.OpenAIAPIKey == "" {
		log.Println("warning: OPENAI_API_KEY is not set; suggestion requests will fail until provided")
	}
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 0 {
			return n
		}
		log.Printf("warning: ignoring invalid %s=%q", key, v)
	}
	return def
}

// getEnvDurationDefault accepts Go duration strings ("15s") or a bare number
// of seconds.
func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	log.Printf("warning: ignoring invalid %s=%q", key, v)
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
