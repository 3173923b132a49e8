// Package config loads and validates the HCL configuration file shared by all
// commands.
package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/artefactual-forge/aipsearch/pkg/database"
	"github.com/artefactual-forge/aipsearch/pkg/search"
	bleveadapter "github.com/artefactual-forge/aipsearch/pkg/search/adapters/bleve"
	meilisearchadapter "github.com/artefactual-forge/aipsearch/pkg/search/adapters/meilisearch"
)

// Config is the top-level configuration.
type Config struct {
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `hcl:"log_level,optional"`

	// Origin identifies this pipeline in every indexed document.
	Origin string `hcl:"origin,optional"`

	Search   *SearchConfig   `hcl:"search,block"`
	Database *DatabaseConfig `hcl:"database,block"`
}

// SearchConfig selects and configures the search store.
type SearchConfig struct {
	// Provider is "bleve" or "meilisearch".
	Provider string `hcl:"provider"`

	// MaxAttempts and RetryDelaySeconds shape the write retry policy.
	MaxAttempts       int `hcl:"max_attempts,optional"`
	RetryDelaySeconds int `hcl:"retry_delay,optional"`
	HealthChecks      int `hcl:"health_checks,optional"`

	Bleve       *BleveConfig       `hcl:"bleve,block"`
	Meilisearch *MeilisearchConfig `hcl:"meilisearch,block"`
}

// BleveConfig configures the embedded store.
type BleveConfig struct {
	Path string `hcl:"path"`
}

// MeilisearchConfig configures the remote store.
type MeilisearchConfig struct {
	Host   string `hcl:"host"`
	APIKey string `hcl:"api_key,optional"`
}

// DatabaseConfig configures the relational store connection.
type DatabaseConfig struct {
	Driver string `hcl:"driver,optional"`
	DSN    string `hcl:"dsn"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("", "trace", "debug", "info", "warn", "error")),
		validation.Field(&c.Search, validation.Required),
	); err != nil {
		return err
	}
	return c.Search.Validate()
}

// Validate checks the search configuration.
func (c *SearchConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In("bleve", "meilisearch")),
		validation.Field(&c.MaxAttempts, validation.Min(0)),
		validation.Field(&c.RetryDelaySeconds, validation.Min(0)),
		validation.Field(&c.HealthChecks, validation.Min(0)),
	); err != nil {
		return err
	}

	switch c.Provider {
	case "bleve":
		if c.Bleve == nil || c.Bleve.Path == "" {
			return fmt.Errorf("bleve block with a path is required for the bleve provider")
		}
	case "meilisearch":
		if c.Meilisearch == nil || c.Meilisearch.Host == "" {
			return fmt.Errorf("meilisearch block with a host is required for the meilisearch provider")
		}
	}
	return nil
}

// RetryPolicy builds the write retry policy, starting from defaults and
// applying any overrides.
func (c *SearchConfig) RetryPolicy() search.RetryPolicy {
	policy := search.DefaultRetryPolicy()
	if c.MaxAttempts > 0 {
		policy.MaxAttempts = c.MaxAttempts
	}
	if c.RetryDelaySeconds > 0 {
		policy.Delay = time.Duration(c.RetryDelaySeconds) * time.Second
	}
	if c.HealthChecks > 0 {
		policy.HealthMaxChecks = c.HealthChecks
	}
	return policy
}

// NewStore builds the configured search store.
func (c *SearchConfig) NewStore() (search.Store, error) {
	switch c.Provider {
	case "bleve":
		return bleveadapter.NewStore(&bleveadapter.Config{Path: c.Bleve.Path})
	case "meilisearch":
		return meilisearchadapter.NewStore(&meilisearchadapter.Config{
			Host:   c.Meilisearch.Host,
			APIKey: c.Meilisearch.APIKey,
		})
	default:
		return nil, fmt.Errorf("unsupported search provider: %s (supported: bleve, meilisearch)", c.Provider)
	}
}

// Connection converts to the database package's connection config. A nil
// receiver yields a zero config, for commands that run without the relational
// store.
func (c *DatabaseConfig) Connection() database.Config {
	if c == nil {
		return database.Config{}
	}
	return database.Config{Driver: c.Driver, DSN: c.DSN}
}
