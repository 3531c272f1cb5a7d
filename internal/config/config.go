// Package config loads the entitlementd configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/bizkit-fr/entitlements/pkg/httpserver"
	"github.com/bizkit-fr/entitlements/pkg/jwt"
	"github.com/bizkit-fr/entitlements/pkg/mongo"
	"github.com/bizkit-fr/entitlements/pkg/pg"
	"github.com/bizkit-fr/entitlements/pkg/plans"
	"github.com/bizkit-fr/entitlements/pkg/redis"
)

// Catalog sources.
const (
	CatalogDefault = "default"
	CatalogFile    = "file"
	CatalogS3      = "s3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"entitlementd"`
	LogLevel    string `env:"LOG_LEVEL"`

	HTTP    httpserver.Config
	Auth    jwt.Config
	Catalog Catalog
	Store   Store

	PG    pg.Config
	Redis redis.Config
	Mongo mongo.Config
}

type Catalog struct {
	Source string `env:"CATALOG_SOURCE" envDefault:"default"`
	File   string `env:"CATALOG_FILE"`
	S3     plans.S3Config
}

type Store struct {
	// Backend holds subscriptions.
	Backend string `env:"STORE_BACKEND" envDefault:"memory"`
	// Counters counts resources; empty follows Backend, and Redis falls back
	// to Postgres since it only mirrors subscriptions.
	Counters        string `env:"COUNTERS_BACKEND"`
	StrictResources bool   `env:"STRICT_RESOURCES" envDefault:"false"`
}

// CountersBackend returns the backend used for usage counters.
func (s Store) CountersBackend() string {
	if s.Counters != "" {
		return s.Counters
	}
	if s.Backend == BackendRedis {
		return BackendPostgres
	}
	return s.Backend
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return parse(env.Options{})
}

// LoadFrom reads the configuration from the given variables only.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}

	switch c.Catalog.Source {
	case CatalogDefault:
	case CatalogFile:
		if c.Catalog.File == "" {
			errs = append(errs, errors.New("CATALOG_FILE is required for the file catalog"))
		}
	case CatalogS3:
		if c.Catalog.S3.Bucket == "" {
			errs = append(errs, errors.New("CATALOG_S3_BUCKET is required for the s3 catalog"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CATALOG_SOURCE %q", c.Catalog.Source))
	}

	backends := map[string]bool{BackendMemory: true, BackendPostgres: true, BackendRedis: true, BackendMongo: true}
	if !backends[c.Store.Backend] {
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend))
	}
	counters := c.Store.CountersBackend()
	if counters == BackendRedis || !backends[counters] {
		errs = append(errs, fmt.Errorf("unsupported COUNTERS_BACKEND %q", counters))
	}
	if (c.Store.Backend == BackendPostgres || counters == BackendPostgres) && c.PG.ConnectionString == "" {
		errs = append(errs, errors.New("PG_CONN_URL is required for the postgres backend"))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
