// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local .env file is
read first (if present) so development setups need no exported variables.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends selectable through STORE.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the API server and the manage CLI.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFile enables a rotated file sink next to stdout when set (e.g. logs/real_estate.log).
	LogFile string `env:"LOG_FILE"`

	// Account storage backend: "postgres" or "memory".
	Store string `env:"STORE" envDefault:"postgres"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis). Empty keeps the refresh-token denylist in process.
	RedisURL string `env:"REDIS_URL"`

	// Token signing (HS256) and lifetimes
	SigningKey      string        `env:"SIGNING_KEY,required"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"120m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"24h"`

	// BcryptCost is the work factor for password hashing.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	// CORSAllowedOrigins is a space-separated list of origins
	// (scheme://host[:port]) accepted by CORS outside development.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`

	// AdminPath is the mount point of the staff-only directory endpoints.
	AdminPath string `env:"ADMIN_PATH" envDefault:"supersecret"`
}

// # Configuration Loading

// Load reads .env (when present) and parses environment variables into a [Config].
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is [Load] with explicit dotenv paths. Missing files are skipped;
// variables already present in the environment win over file values.
func LoadFiles(paths ...string) (*Config, error) {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required when STORE=postgres")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown STORE %q", c.Store)
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Origins returns the CORS_ALLOWED_ORIGINS entries.
func (c *Config) Origins() []string {
	return strings.Fields(c.CORSAllowedOrigins)
}
