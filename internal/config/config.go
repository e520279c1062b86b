// Package config loads and validates application configuration from environment variables.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// SessionSecret signs session tokens. When SESSION_SECRET is unset a
	// random secret is generated and SessionSecretGenerated is true; sessions
	// then do not survive a restart.
	SessionSecret          string
	SessionSecretGenerated bool

	// SessionTTL is how long a login stays valid. Defaults to 24h.
	SessionTTL time.Duration

	// SecureCookies marks the session cookie Secure. Defaults to false.
	SecureCookies bool

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// AuthRateLimit and AuthRateBurst throttle /auth/register/ and
	// /auth/login/ through one limiter shared by all clients.
	// Defaults 5 req/s, burst 10.
	AuthRateLimit float64
	AuthRateBurst int

	// Version is reported by GET /. Defaults to "1.0.0".
	Version string
}

// KeepAlive holds the configuration of the keep-alive poller.
type KeepAlive struct {
	// TargetURL is polled every Interval. Defaults to the local API's /ping/.
	TargetURL string
	Interval  time.Duration
	Timeout   time.Duration

	// Threshold is the consecutive-failure count at which warnings start.
	Threshold int

	// LogFile receives a rotated copy of the poller log. Empty disables it.
	LogFile string

	// Port is where "keepalive serve" listens. Defaults to "8081".
	Port string

	LogLevel string
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
// Returns an error listing any required variables that are not set or that
// fail to parse.
func Load() (Config, error) {
	loadDotEnv()

	var problems []string
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    getDuration("SESSION_TTL", 24*time.Hour, &problems),
		SecureCookies: getBool("SECURE_COOKIES", false, &problems),
		MaxBodyBytes:  int64(getInt("MAX_BODY_BYTES", 1<<20, &problems)),
		AuthRateLimit: getFloat("AUTH_RATE_LIMIT", 5, &problems),
		AuthRateBurst: getInt("AUTH_RATE_BURST", 10, &problems),
		Version:       getEnv("APP_VERSION", "1.0.0"),
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, fmt.Errorf("config.Load: generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
		cfg.SessionSecretGenerated = true
	}

	return cfg, nil
}

// LoadKeepAlive reads the poller configuration. Nothing is required.
func LoadKeepAlive() (KeepAlive, error) {
	loadDotEnv()

	var problems []string
	cfg := KeepAlive{
		TargetURL: getEnv("TRIPWISE_API_URL", "http://localhost:8080/ping/"),
		Interval:  getDuration("KEEPALIVE_INTERVAL", 10*time.Second, &problems),
		Timeout:   getDuration("KEEPALIVE_TIMEOUT", 10*time.Second, &problems),
		Threshold: getInt("KEEPALIVE_THRESHOLD", 5, &problems),
		LogFile:   getEnv("KEEPALIVE_LOG_FILE", "keep_alive.log"),
		Port:      getEnv("KEEPALIVE_PORT", "8081"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
	if cfg.Interval <= 0 {
		problems = append(problems, "KEEPALIVE_INTERVAL must be positive")
	}
	if cfg.Threshold < 1 {
		problems = append(problems, "KEEPALIVE_THRESHOLD must be at least 1")
	}

	if len(problems) > 0 {
		return KeepAlive{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// loadDotEnv loads .env if it exists. godotenv.Load never overrides
// variables already present in the environment.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration, problems *[]string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %q is not a duration", key, v))
		return fallback
	}
	return d
}

func getInt(key string, fallback int, problems *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %q is not an integer", key, v))
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64, problems *[]string) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %q is not a number", key, v))
		return fallback
	}
	return f
}

func getBool(key string, fallback bool, problems *[]string) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %q is not a boolean", key, v))
		return fallback
	}
	return b
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
