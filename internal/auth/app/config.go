package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jnnzz/psits-auth/pkg/jwtx"
)

type Config struct {
	AccessTokenSecret  string // Required: HS256 secret for access tokens
	RefreshTokenSecret string // Required: HS256 secret for refresh tokens, must differ from the access secret

	AccessTokenTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // Optional: refresh token lifetime (default: 7d)

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./auth.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads configuration from the environment. It fails rather than
// falling back when the token secrets are missing or equal: a service that
// silently signed tokens with a default secret would be worse than one that
// refuses to start.
func LoadConfig() (Config, error) {
	cfg := Config{
		AccessTokenSecret:   os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret:  os.Getenv("REFRESH_TOKEN_SECRET"),
		DatabaseFile:        getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.AccessTokenSecret == "" {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	if cfg.RefreshTokenSecret == "" {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	var err error
	cfg.AccessTokenTTL, err = getEnvTTLOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.RefreshTokenTTL, err = getEnvTTLOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ParseTTL parses the compact lifetime notation used in deployment config:
// "7d", "12h", "15m", "30s". A bare number is seconds.
func ParseTTL(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty ttl")
	}

	unit := time.Second
	numPart := value
	switch value[len(value)-1] {
	case 'd':
		unit = 24 * time.Hour
		numPart = value[:len(value)-1]
	case 'h':
		unit = time.Hour
		numPart = value[:len(value)-1]
	case 'm':
		unit = time.Minute
		numPart = value[:len(value)-1]
	case 's':
		numPart = value[:len(value)-1]
	}

	n, err := strconv.Atoi(numPart)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid ttl %q", value)
	}
	return time.Duration(n) * unit, nil
}

func getEnvTTLOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	ttl, err := ParseTTL(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return ttl, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
