// Package config loads the authorization core's configuration from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caseward/caseward/pkg/observability"
)

// Config holds all configuration for the authorization core.
type Config struct {
	Directory     DirectoryConfig
	Claims        ClaimsConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// DirectoryConfig configures the tenant/member directory connection.
type DirectoryConfig struct {
	PostgresURL  string
	MaxConns     int
	QueryTimeout time.Duration
}

// ClaimsConfig configures the fast-path claims adapter.
type ClaimsConfig struct {
	// Enabled turns the stateless fast path on. When off, every request
	// resolves authoritatively.
	Enabled bool

	// RedisURL locates the role-changed epoch source.
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// EpochCacheSize and EpochCacheTTL bound the in-process epoch
	// cache. The TTL adds to the documented staleness window.
	EpochCacheSize int
	EpochCacheTTL  time.Duration
}

// AuditConfig configures decision recording.
type AuditConfig struct {
	// SampleRate is the fraction of allowed decisions recorded, in
	// [0, 1]. Denials are always recorded.
	SampleRate float64

	// RetentionDays is how long decision records are kept.
	RetentionDays int

	// SweepSchedule is the cron expression for the retention sweep.
	SweepSchedule string

	// FilePath, when set, mirrors decisions to an NDJSON file.
	FilePath string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Directory: DirectoryConfig{
			PostgresURL:  getEnv("CASEWARD_POSTGRES_URL", ""),
			MaxConns:     getEnvInt("CASEWARD_POSTGRES_MAX_CONNS", 10),
			QueryTimeout: getEnvDuration("CASEWARD_POSTGRES_TIMEOUT", 5*time.Second),
		},
		Claims: ClaimsConfig{
			Enabled:        getEnvBool("CASEWARD_CLAIMS_ENABLED", true),
			RedisURL:       getEnv("CASEWARD_REDIS_URL", "localhost:6379"),
			RedisPassword:  getEnv("CASEWARD_REDIS_PASSWORD", ""),
			RedisDB:        getEnvInt("CASEWARD_REDIS_DB", 0),
			EpochCacheSize: getEnvInt("CASEWARD_EPOCH_CACHE_SIZE", 1024),
			EpochCacheTTL:  getEnvDuration("CASEWARD_EPOCH_CACHE_TTL", 5*time.Second),
		},
		Audit: AuditConfig{
			SampleRate:    getEnvFloat("CASEWARD_AUDIT_SAMPLE_RATE", 1.0),
			RetentionDays: getEnvInt("CASEWARD_AUDIT_RETENTION_DAYS", 180),
			SweepSchedule: getEnv("CASEWARD_AUDIT_SWEEP_SCHEDULE", "10 3 * * *"),
			FilePath:      getEnv("CASEWARD_AUDIT_FILE", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:       parseLogLevel(getEnv("CASEWARD_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("CASEWARD_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Directory.MaxConns <= 0 {
		return fmt.Errorf("postgres max conns must be positive")
	}
	if c.Audit.SampleRate < 0 || c.Audit.SampleRate > 1 {
		return fmt.Errorf("audit sample rate must be in [0, 1]")
	}
	if c.Audit.RetentionDays <= 0 {
		return fmt.Errorf("audit retention days must be positive")
	}
	if c.Claims.Enabled {
		if c.Claims.RedisURL == "" {
			return fmt.Errorf("redis url is required when the claims fast path is enabled")
		}
		if c.Claims.EpochCacheSize <= 0 {
			return fmt.Errorf("epoch cache size must be positive")
		}
	}
	return nil
}

func parseLogLevel(s string) observability.LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return observability.DebugLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
