// Package config provides the server configuration: upstream source,
// dataset queries, age-band definitions, and runtime settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"censusapi/internal/engine"
	"censusapi/internal/sdmx"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Source   SourceConfig   `yaml:"source"`

	// Datasets lists the upstream queries ingested at startup.
	Datasets []sdmx.Query `yaml:"datasets"`

	// AgeBands defines the AGE category codes per demographic band.
	AgeBands engine.AgeBandDefinition `yaml:"age_bands"`

	// SexCategories are the SEX codes the ageing endpoint reports
	// individually, e.g. _T, M, F.
	SexCategories []string `yaml:"sex_categories"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig holds the SQLite archive settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SourceConfig holds the upstream SDMX API settings.
type SourceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the configuration for the LUSTAT census source.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/census.db",
		},
		Source: SourceConfig{
			BaseURL: "https://lustat.statec.lu",
			Timeout: 120 * time.Second,
		},
		AgeBands: engine.AgeBandDefinition{
			Children:   []string{"Y_LT15"},
			WorkingAge: []string{"Y15T29", "Y30T49", "Y50T64"},
			Seniors:    []string{"Y65T84", "Y_GE85"},
			EightyPlus: []string{"Y_GE85"},
		},
		SexCategories: []string{"_T", "M", "F"},
	}
}

// Load reads the YAML file at path over the defaults. Environment
// variables CENSUS_ADDR, CENSUS_DB_PATH, and CENSUS_SOURCE_URL override
// their file counterparts. An empty path returns defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CENSUS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CENSUS_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("CENSUS_SOURCE_URL"); v != "" {
		c.Source.BaseURL = v
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	for i, q := range c.Datasets {
		if q.Flow == "" {
			return fmt.Errorf("datasets[%d].flow must not be empty", i)
		}
	}
	return nil
}
