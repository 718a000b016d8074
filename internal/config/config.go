/*
Package config reads the service configuration from the environment. A
.env file in the working directory is loaded automatically.
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
	"lunchgenius/internal/utility"
)

const (
	defaultPort            = 8080
	defaultSessionMaxAge   = 24 * 60 * 60
	defaultSessionCapacity = 10000
	defaultSessionTTL      = 24 * time.Hour
	defaultGeminiModel     = "gemini-2.5-flash"
	defaultGeminiURL       = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiTimeout   = 30 * time.Second
)

// Config is the full runtime configuration.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port int

	// AppEnv is "development" or "production".
	AppEnv string

	// LogLevel is a zerolog level name.
	LogLevel string

	Session SessionConfig
	Gemini  GeminiConfig
}

// SessionConfig controls the visitor cookie and the in-memory store.
type SessionConfig struct {
	Secret   string
	MaxAge   int
	Capacity int
	TTL      time.Duration
}

// GeminiConfig holds the AI service endpoint and the default credential.
type GeminiConfig struct {
	// APIKey is used when the visitor has not supplied a personal key.
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load builds the configuration from environment variables, applying
// defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:   strings.ToLower(getEnv("APP_ENV", "development")),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Gemini: GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   getEnv("GEMINI_MODEL", defaultGeminiModel),
			BaseURL: strings.TrimRight(getEnv("GEMINI_API_URL", defaultGeminiURL), "/"),
		},
	}

	var err error
	if cfg.Port, err = getInt("PORT", defaultPort); err != nil {
		return nil, err
	}
	if cfg.Session.MaxAge, err = getInt("SESSION_MAX_AGE", defaultSessionMaxAge); err != nil {
		return nil, err
	}
	if cfg.Session.Capacity, err = getInt("SESSION_CAPACITY", defaultSessionCapacity); err != nil {
		return nil, err
	}
	if cfg.Session.TTL, err = getDuration("SESSION_TTL", defaultSessionTTL); err != nil {
		return nil, err
	}
	if cfg.Gemini.Timeout, err = getDuration("GEMINI_TIMEOUT", defaultGeminiTimeout); err != nil {
		return nil, err
	}
	if cfg.Session.Capacity <= 0 {
		return nil, fmt.Errorf("SESSION_CAPACITY must be positive, got %d", cfg.Session.Capacity)
	}

	cfg.Session.Secret = os.Getenv("SESSION_SECRET")
	if cfg.Session.Secret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SESSION_SECRET environment variable is not set")
		}
		secret, err := utility.GenerateSecureToken(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		cfg.Session.Secret = secret
		log.Warn().Msg("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	if cfg.Gemini.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set; AI calls will fall back unless visitors supply their own key")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
