// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. In development a local
.env file is loaded first with 'joho/godotenv'; real environment variables always win.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
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

// # Configuration Schema

// Config holds all runtime configuration for the Komik API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL). DatabaseURL carries the write-capable
	// credentials; DatabaseReadURL the restricted read tier used by public listings.
	DatabaseURL     string `env:"DATABASE_URL,required,notEmpty"`
	DatabaseReadURL string `env:"DATABASE_READ_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis) backing the public listing cache
	RedisURL string        `env:"REDIS_URL,required"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"60s"`

	// Bearer tokens are issued by the external identity provider; only the
	// public key is needed to verify them.
	JWTPubKeyPath string `env:"JWT_PUBLIC_KEY_PATH,required"`
	AuthIssuer    string `env:"AUTH_ISSUER" envDefault:"komik.app"`

	// Object Storage (Aliyun OSS)
	Storage StorageConfig `envPrefix:"OSS_"`

	// StoragePublicBaseURL overrides the public URL prefix (CDN in front of OSS).
	StoragePublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL"`
	CoverBucket          string `env:"STORAGE_COVER_BUCKET"   envDefault:"covers"`
	ChapterBucket        string `env:"STORAGE_CHAPTER_BUCKET" envDefault:"chapters"`

	// SiteURL is the public reader site. Its origin is always allowed by CORS.
	SiteURL      string `env:"SITE_URL" envDefault:"http://localhost:3000"`
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// Orphaned storage object sweeps
	Reaper ReaperConfig `envPrefix:"REAPER_"`
}

// StorageConfig holds the OSS credentials.
type StorageConfig struct {
	Endpoint        string `env:"ENDPOINT,required"`
	AccessKeyID     string `env:"ACCESS_KEY_ID,required"`
	AccessKeySecret string `env:"ACCESS_KEY_SECRET,required"`
}

// ReaperConfig controls the scheduled orphan sweep.
type ReaperConfig struct {
	Enabled  bool          `env:"ENABLED"  envDefault:"false"`
	Schedule string        `env:"SCHEDULE" envDefault:"15 3 * * *"`
	MinAge   time.Duration `env:"MIN_AGE"  envDefault:"24h"`
	DryRun   bool          `env:"DRY_RUN"  envDefault:"true"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env: %w", err)
	}

	return Parse()
}

// Parse maps the current environment onto a [Config] without touching .env.
func Parse() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.DatabaseReadURL == "" {
		cfg.DatabaseReadURL = cfg.DatabaseURL
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the site origin followed by any EXTRA_ORIGINS entries.
func (c *Config) AllowedOrigins() []string {
	origins := []string{strings.TrimRight(c.SiteURL, "/")}
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, strings.TrimRight(origin, "/"))
		}
	}
	return origins
}
