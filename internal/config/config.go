// Package config loads runtime settings from the environment, optionally
// seeded from a .env file chosen by APP_ENV.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wompi_webhook/internal/dedup"
	"wompi_webhook/internal/rollbase"
)

// Config holds every setting the service reads.
type Config struct {
	Env  string
	Port string

	Rollbase rollbase.Config

	EventsSecret     string
	EnforceSignature bool

	DedupRedisAddr     string
	DedupRedisPassword string
	DedupTTL           time.Duration
}

// Development reports whether the service runs with APP_ENV=development.
func (c Config) Development() bool { return c.Env == "development" }

// Load reads .env.development or .env.production depending on APP_ENV and
// then the process environment. A missing file only produces a warning.
// APP_ENV defaults to production.
func Load(logger *zap.Logger) (Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "production"
	}
	logger.Info("loading configuration", zap.String("env", env))
	file := ".env.production"
	if env == "development" {
		file = ".env.development"
	}
	if err := godotenv.Load(file); err != nil {
		logger.Warn("env file not loaded, using process environment", zap.String("file", file), zap.Error(err))
	}
	return FromEnv(env)
}

// FromEnv builds a Config from the current process environment.
func FromEnv(env string) (Config, error) {
	cfg := Config{
		Env:  env,
		Port: getEnv("PORT", "8080"),
		Rollbase: rollbase.Config{
			BaseURL:   getEnv("ROLLBASE_BASE_URL", rollbase.DefaultBaseURL),
			LoginName: os.Getenv("ROLLBASE_LOGIN_NAME"),
			Password:  os.Getenv("ROLLBASE_PASSWORD"),
		},
		EventsSecret:       os.Getenv("WOMPI_EVENTS_SECRET"),
		DedupRedisAddr:     os.Getenv("DEDUP_REDIS_ADDR"),
		DedupRedisPassword: os.Getenv("DEDUP_REDIS_PASSWORD"),
	}

	var err error
	if cfg.Rollbase.TokenTTL, err = getDuration("ROLLBASE_TOKEN_TTL", rollbase.DefaultTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.Rollbase.Timeout, err = getDuration("ROLLBASE_TIMEOUT", rollbase.DefaultTimeout); err != nil {
		return Config{}, err
	}
	if cfg.DedupTTL, err = getDuration("DEDUP_TTL", dedup.DefaultTTL); err != nil {
		return Config{}, err
	}
	if cfg.EnforceSignature, err = getBool("WOMPI_ENFORCE_SIGNATURE", true); err != nil {
		return Config{}, err
	}

	if cfg.Rollbase.LoginName == "" || cfg.Rollbase.Password == "" {
		return Config{}, fmt.Errorf("config: ROLLBASE_LOGIN_NAME and ROLLBASE_PASSWORD are required")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}
