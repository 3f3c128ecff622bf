// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/extrapoints/internal/storage/postgres"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all server configuration.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	GinMode         string

	Database DatabaseConfig

	LogLevel  string // debug, info, warn, error
	LogFormat string // text, json
}

// DatabaseConfig selects and tunes the store.
type DatabaseConfig struct {
	Driver string

	// SQLite
	Path string

	// PostgreSQL
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Postgres returns the pool settings for the PostgreSQL backend.
func (d DatabaseConfig) Postgres() postgres.Config {
	cfg := postgres.DefaultConfig()
	cfg.URL = d.URL
	cfg.MaxOpenConns = d.MaxOpenConns
	cfg.MaxIdleConns = d.MaxIdleConns
	cfg.ConnMaxLifetime = d.ConnMaxLifetime
	return cfg
}

// Load reads a .env file if one exists, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		GinMode:         getEnv("GIN_MODE", "release"),
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			Path:            getEnv("DB_PATH", "./data/extrapoints.db"),
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    p.int("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    p.int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	p.errs = append(p.errs, cfg.validate()...)
	if len(p.errs) > 0 {
		return nil, fmt.Errorf("configuration errors:\n  - %s", strings.Join(p.errs, "\n  - "))
	}
	return cfg, nil
}

func (c *Config) validate() []string {
	var errs []string

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver))
	}

	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, "DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 {
		errs = append(errs, "DB_MAX_IDLE_CONNS must not be negative")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	return errs
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parser collects malformed values instead of silently using defaults.
type parser struct {
	errs []string
}

func (p *parser) int(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: invalid integer %q", key, val))
		return fallback
	}
	return i
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: invalid duration %q", key, val))
		return fallback
	}
	return d
}
