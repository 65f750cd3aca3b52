package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	Env string // development, staging, production

	// Quote database (optional, only for --series-db and series import)
	Database DatabaseConfig

	// Roll-over defaults, CLI flags and run profiles override them
	Roll RollConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL         string
	QuotesTable string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RollConfig holds cash-flow run defaults
type RollConfig struct {
	TickValue   float64
	Basis       float64
	ActiveYears int
}

// Enabled reports whether a database has been configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables, after trying the
// usual .env locations.
func Load() (*Config, error) {
	loadEnvFile()
	return fromEnv()
}

// LoadFile is Load with an explicit env file, which must exist
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("load env file %s: %w", path, err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Env: getEnv("TRUFFLE_ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			QuotesTable:     getEnv("TRUFFLE_QUOTES_TABLE", "market.futures_quotes"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Roll: RollConfig{
			TickValue:   getEnvAsFloat("TRUFFLE_TICK_VALUE", 1.0),
			Basis:       getEnvAsFloat("TRUFFLE_BASIS", 0.0),
			ActiveYears: getEnvAsInt("TRUFFLE_ACTIVE_YEARS", 5),
		},

		LogLevel:  getEnv("LOG_LEVEL", "warn"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks ranges and enumerations
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("TRUFFLE_ENV must be one of: development, staging, production")
	}

	if c.Roll.ActiveYears < 1 || c.Roll.ActiveYears > 5 {
		return fmt.Errorf("TRUFFLE_ACTIVE_YEARS must be within 1..5, got %d", c.Roll.ActiveYears)
	}

	if c.Roll.TickValue == 0 {
		return fmt.Errorf("TRUFFLE_TICK_VALUE must not be zero")
	}

	if c.Database.Enabled() && c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
