package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Match      MatchConfig
	Breaker    BreakerConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
	Migrate    MigrateConfig

	// Warnings collects values that could not be parsed and fell back to defaults
	Warnings []string
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred over the individual fields
	Host               string `validate:"required_without=DSN"`
	Port               int    `validate:"min=1,max=65535"`
	User               string
	Password           string
	Database           string `validate:"required_without=DSN"`
	SSLMode            string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConnections     int    `validate:"min=1"`
	MaxIdleConnections int    `validate:"min=0,ltefield=MaxConnections"`
	ConnectTimeout     time.Duration
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int    `validate:"min=1,max=65535"`
	Host            string `validate:"required"`
	GinMode         string `validate:"oneof=debug release test"`
	AllowedOrigins  string
	AllowedMethods  string
	AllowedHeaders  string
	ShutdownTimeout time.Duration `validate:"min=0"`
}

// MatchConfig holds match engine configuration
type MatchConfig struct {
	LookupTimeout time.Duration `validate:"min=0"`
	RecordTimeout time.Duration `validate:"min=0"`
	Seed          int64         // 0 seeds every request from the clock
}

// BreakerConfig holds catalog circuit breaker configuration
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32 `validate:"min=1"`
}

// RateLimitConfig holds the per-user match rate limit
type RateLimitConfig struct {
	Enabled  bool
	Requests int           `validate:"min=1"`
	Window   time.Duration `validate:"min=1s"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error none"`
	Format string `validate:"oneof=json text"`
}

// MigrateConfig controls schema migration at startup
type MigrateConfig struct {
	OnStart bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	e := &envReader{}
	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                e.get("DATABASE_URL", e.get("POSTGRESQL_URI", e.get("PG_DSN", ""))),
			Host:               e.get("PG_HOST", "localhost"),
			Port:               e.getInt("PG_PORT", 5432),
			User:               e.get("PG_USER", "postgres"),
			Password:           e.get("PG_PASSWORD", ""),
			Database:           e.get("PG_DATABASE", "venuematch"),
			SSLMode:            e.get("PG_SSLMODE", "disable"),
			MaxConnections:     e.getInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: e.getInt("PG_MAX_IDLE_CONNECTIONS", 5),
			ConnectTimeout:     e.getDuration("PG_CONNECT_TIMEOUT", 30*time.Second),
		},
		Server: ServerConfig{
			Port:            e.getInt("SERVER_PORT", 8080),
			Host:            e.get("SERVER_HOST", "0.0.0.0"),
			GinMode:         e.get("GIN_MODE", "release"),
			AllowedOrigins:  e.get("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods:  e.get("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders:  e.get("CORS_ALLOWED_HEADERS", "Content-Type,Authorization,X-User-ID"),
			ShutdownTimeout: e.getDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Match: MatchConfig{
			LookupTimeout: e.getDuration("MATCH_LOOKUP_TIMEOUT", 2*time.Second),
			RecordTimeout: e.getDuration("MATCH_RECORD_TIMEOUT", 5*time.Second),
			Seed:          int64(e.getInt("MATCH_SEED", 0)),
		},
		Breaker: BreakerConfig{
			MaxRequests:      uint32(e.getInt("BREAKER_MAX_REQUESTS", 1)),
			Interval:         e.getDuration("BREAKER_INTERVAL", time.Minute),
			Timeout:          e.getDuration("BREAKER_TIMEOUT", 30*time.Second),
			FailureThreshold: uint32(e.getInt("BREAKER_FAILURE_THRESHOLD", 5)),
		},
		RateLimit: RateLimitConfig{
			Enabled:  e.getBool("RATE_LIMIT_ENABLED", true),
			Requests: e.getInt("RATE_LIMIT_REQUESTS", 5),
			Window:   e.getDuration("RATE_LIMIT_WINDOW", 30*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(e.get("LOG_LEVEL", "info")),
			Format: strings.ToLower(e.get("LOG_FORMAT", "json")),
		},
		Migrate: MigrateConfig{
			OnStart: e.getBool("MIGRATE_ON_START", false),
		},
	}
	cfg.Warnings = e.warnings

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section against its constraints
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper functions

type envReader struct {
	warnings []string
}

func (e *envReader) get(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (e *envReader) getInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		e.warnings = append(e.warnings, fmt.Sprintf("invalid integer value for %s, using default %d", key, defaultValue))
		return defaultValue
	}
	return value
}

func (e *envReader) getBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		e.warnings = append(e.warnings, fmt.Sprintf("invalid boolean value for %s, using default %t", key, defaultValue))
		return defaultValue
	}
	return value
}

// getDuration accepts Go durations ("1500ms") or a bare number of milliseconds
func (e *envReader) getDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		e.warnings = append(e.warnings, fmt.Sprintf("invalid duration value for %s, using default %s", key, defaultValue))
		return defaultValue
	}
	return value
}
