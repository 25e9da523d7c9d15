package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultListenAddr = ":8080"
	defaultTokenTTL   = 24 * time.Hour
	defaultAIBaseURL  = "http://localhost:8000"
	defaultAITimeout  = 10 * time.Second
)

// Config holds all runtime settings. Values come from the environment, with
// an optional .env file loaded first for local development.
type Config struct {
	ListenAddr  string
	DatabaseDSN string

	TokenSecret string
	TokenIssuer string
	TokenTTL    time.Duration

	AIBaseURL string
	AITimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; a missing or short token secret is.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:  getenv("MEDVAULT_LISTEN_ADDR", defaultListenAddr),
		DatabaseDSN: strings.TrimSpace(os.Getenv("MEDVAULT_PG_DSN")),
		TokenSecret: strings.TrimSpace(os.Getenv("MEDVAULT_TOKEN_SECRET")),
		TokenIssuer: getenv("MEDVAULT_TOKEN_ISSUER", "medvault"),
		TokenTTL:    defaultTokenTTL,
		AIBaseURL:   getenv("MEDVAULT_AI_BASE_URL", defaultAIBaseURL),
		AITimeout:   defaultAITimeout,
		LogLevel:    getenv("MEDVAULT_LOG_LEVEL", "info"),
		LogFormat:   getenv("MEDVAULT_LOG_FORMAT", "json"),
	}

	if raw := os.Getenv("MEDVAULT_TOKEN_TTL_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return Config{}, fmt.Errorf("invalid MEDVAULT_TOKEN_TTL_SECONDS: %q", raw)
		}
		cfg.TokenTTL = time.Duration(secs) * time.Second
	}
	if raw := os.Getenv("MEDVAULT_AI_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return Config{}, fmt.Errorf("invalid MEDVAULT_AI_TIMEOUT_SECONDS: %q", raw)
		}
		cfg.AITimeout = time.Duration(secs) * time.Second
	}

	return cfg, cfg.Validate()
}

// Validate enforces settings the service cannot start without.
func (c Config) Validate() error {
	if c.TokenSecret == "" {
		return errors.New("MEDVAULT_TOKEN_SECRET is required")
	}
	if len(c.TokenSecret) < 32 {
		return errors.New("MEDVAULT_TOKEN_SECRET must be at least 32 bytes")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
