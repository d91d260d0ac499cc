// Package config loads process configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration shared by all binaries.
type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	DatabaseURL string
	DBMaxConns  int

	// DBStatementTimeout bounds every statement of a transaction.
	DBStatementTimeout time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	Location    *time.Location
	PhoneRegion string

	DefaultLowStockThreshold   int
	DefaultExpiryThresholdDays int
	// ThresholdCacheTTL bounds how long resolved thresholds are reused.
	// Zero disables the cache.
	ThresholdCacheTTL time.Duration

	InvoiceStrategy    string
	IdempotencyEnabled bool

	Push PushConfig

	JobSecret     string
	RedisAddress  string
	DigestLockTTL time.Duration
	DigestHour    int
}

// PushConfig configures the push provider.
type PushConfig struct {
	ServiceAccountJSON []byte
	Timeout            time.Duration
	Concurrency        int
	// Endpoint overrides the FCM base URL; empty means the public endpoint.
	Endpoint string
}

// Development reports whether the process runs in development mode.
func (c Config) Development() bool {
	return c.AppEnv == "development"
}

// PushEnabled reports whether service-account credentials were supplied.
func (c Config) PushEnabled() bool {
	return len(c.Push.ServiceAccountJSON) > 0
}

// Load reads configuration. Missing .env is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("SHOP_TIMEZONE", "Asia/Kolkata"))
	if err != nil {
		return Config{}, fmt.Errorf("SHOP_TIMEZONE: %w", err)
	}

	cfg := Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("APP_PORT", "8080"),

		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 25),
		DBStatementTimeout: getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour),

		Location:    loc,
		PhoneRegion: strings.ToUpper(getEnv("PHONE_REGION", "IN")),

		DefaultLowStockThreshold:   getEnvInt("DEFAULT_LOW_STOCK_THRESHOLD", 10),
		DefaultExpiryThresholdDays: getEnvInt("DEFAULT_EXPIRY_THRESHOLD_DAYS", 30),
		ThresholdCacheTTL:          getEnvDuration("THRESHOLD_CACHE_TTL", 5*time.Minute),

		InvoiceStrategy:    getEnv("INVOICE_STRATEGY", "atomic"),
		IdempotencyEnabled: getEnvBool("IDEMPOTENCY_ENABLED", true),

		Push: PushConfig{
			Timeout:     getEnvDuration("PUSH_TIMEOUT", 15*time.Second),
			Concurrency: getEnvInt("PUSH_CONCURRENCY", 4),
			Endpoint:    getEnv("FCM_ENDPOINT", ""),
		},

		JobSecret:     getEnv("JOB_SECRET", ""),
		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		DigestLockTTL: getEnvDuration("DIGEST_LOCK_TTL", 10*time.Minute),
		DigestHour:    getEnvInt("DIGEST_HOUR", 9),
	}

	cfg.Push.ServiceAccountJSON, err = loadServiceAccount()
	if err != nil {
		return Config{}, err
	}

	if cfg.DefaultLowStockThreshold < 0 || cfg.DefaultExpiryThresholdDays < 0 {
		return Config{}, fmt.Errorf("default thresholds must be non-negative")
	}
	if cfg.DigestHour < 0 || cfg.DigestHour > 23 {
		return Config{}, fmt.Errorf("DIGEST_HOUR must be within 0..23, got %d", cfg.DigestHour)
	}

	return cfg, nil
}

// RequireDatabase fails when DATABASE_URL is missing.
func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("required environment variable DATABASE_URL not set")
	}
	return nil
}

func loadServiceAccount() ([]byte, error) {
	if raw := os.Getenv("FIREBASE_SERVICE_ACCOUNT_KEY"); raw != "" {
		return []byte(raw), nil
	}
	if path := os.Getenv("FIREBASE_SERVICE_ACCOUNT_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read FIREBASE_SERVICE_ACCOUNT_FILE: %w", err)
		}
		return b, nil
	}
	return nil, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
