// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/royalty/internal/domain/appraisal"
	"github.com/okian/royalty/internal/domain/pipeline"
)

// Report store kinds.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory appraisal job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of appraisal workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeTTLSeconds is how long a job request id is remembered.
	DedupeTTLSeconds int `koanf:"dedupe_ttl_seconds"`

	// CacheTTLSeconds is how long an appraisal report is cached.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// MaxCatalogLimit caps GET /catalogs?limit.
	MaxCatalogLimit int `koanf:"max_catalog_limit"`

	// Store selects the report store: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// BandSpread is the valuation band half-width at zero confidence.
	BandSpread float64 `koanf:"band_spread"`

	// Pipeline is the pipeline estimation policy.
	Pipeline pipeline.Config `koanf:"pipeline"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		QueueSize:        1024,
		WorkerCount:      runtime.NumCPU(),
		DedupeTTLSeconds: 600,
		CacheTTLSeconds:  300,
		MaxCatalogLimit:  100,
		Store:            StoreMemory,
		SQLitePath:       "data/royalty.db",
		BandSpread:       appraisal.DefaultBandSpread,
		Pipeline:         pipeline.DefaultConfig(),
	}
}

// Appraisal returns the appraisal policy described by c.
func (c *Config) Appraisal() appraisal.Config {
	return appraisal.Config{Pipeline: c.Pipeline, BandSpread: c.BandSpread}
}

// DedupeTTL returns DedupeTTLSeconds as a duration.
func (c *Config) DedupeTTL() time.Duration {
	return time.Duration(c.DedupeTTLSeconds) * time.Second
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Validate checks c for values the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be > 0", ErrInvalidConfig)
	}
	if c.MaxCatalogLimit < 1 {
		return fmt.Errorf("%w: max_catalog_limit must be > 0", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: store must be %s or %s, got %q", ErrInvalidConfig, StoreMemory, StoreSQLite, c.Store)
	}
	if err := c.Appraisal().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
