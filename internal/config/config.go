package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted in ASTROCYBER_BACKEND.
const (
	BackendREST = "rest"
	BackendSDK  = "sdk"
)

type Config struct {
	APIKey          string        // GEMINI_API_KEY (required)
	Model           string        // ASTROCYBER_MODEL (default "gemini-2.5-flash")
	Endpoint        string        // ASTROCYBER_ENDPOINT (REST base URL)
	Backend         string        // ASTROCYBER_BACKEND ("rest" or "sdk", default "rest")
	MaxAttempts     int           // ASTROCYBER_MAX_ATTEMPTS (default 5)
	BaseDelay       time.Duration // ASTROCYBER_BASE_DELAY (default 1s)
	RequestTimeout  time.Duration // ASTROCYBER_REQUEST_TIMEOUT (default 60s)
	MaxOutputTokens int           // ASTROCYBER_MAX_OUTPUT_TOKENS (default 0 = server default)
}

// Load reads envFile into the environment, if it exists, and builds the
// configuration from the environment. Variables already set in the
// environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	c := &Config{
		APIKey:   os.Getenv("GEMINI_API_KEY"),
		Model:    envOrDefault("ASTROCYBER_MODEL", "gemini-2.5-flash"),
		Endpoint: envOrDefault("ASTROCYBER_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),
		Backend:  envOrDefault("ASTROCYBER_BACKEND", BackendREST),
	}
	if c.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Backend != BackendREST && c.Backend != BackendSDK {
		return nil, fmt.Errorf("ASTROCYBER_BACKEND: unknown backend %q", c.Backend)
	}

	var err error
	if c.MaxAttempts, err = intEnv("ASTROCYBER_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if c.MaxAttempts < 1 {
		return nil, fmt.Errorf("ASTROCYBER_MAX_ATTEMPTS: must be at least 1")
	}
	if c.MaxOutputTokens, err = intEnv("ASTROCYBER_MAX_OUTPUT_TOKENS", 0); err != nil {
		return nil, err
	}
	if c.MaxOutputTokens < 0 || c.MaxOutputTokens > math.MaxInt32 {
		return nil, fmt.Errorf("ASTROCYBER_MAX_OUTPUT_TOKENS: must be between 0 and %d", math.MaxInt32)
	}
	if c.BaseDelay, err = durationEnv("ASTROCYBER_BASE_DELAY", "1s"); err != nil {
		return nil, err
	}
	if c.BaseDelay < 0 {
		return nil, fmt.Errorf("ASTROCYBER_BASE_DELAY: must not be negative")
	}
	if c.RequestTimeout, err = durationEnv("ASTROCYBER_REQUEST_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
