// Package config provides configuration management for the drugtree CLI.
//
// Configuration is layered with koanf: built-in defaults, then
// drugtree.yaml, then DRUGTREE_ environment variables, then flags that
// were explicitly set on the command line.
package config

import (
	"github.com/Dainanahan/drugtree/internal/loader"
	"github.com/Dainanahan/drugtree/pkg/core"
)

// SourceConfig describes where the registry is read from.
type SourceConfig struct {
	Type string `koanf:"type"` // duckdb, sqlite, postgres

	// CSVDir holds drugs.csv and drug_groups.csv exports. When set, the
	// exports are loaded into Database before reading.
	CSVDir string `koanf:"csv_dir"`

	// Database is a file path for DuckDB and SQLite (":memory:" for none)
	// or the database name for Postgres.
	Database string `koanf:"database"`

	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Schema   string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB settings, CSV delimiter)
	Params map[string]any `koanf:"params"`

	Tables  loader.Tables  `koanf:"tables"`
	Columns loader.Columns `koanf:"columns"`
}

// AdapterConfig converts the source into an adapter configuration.
func (s *SourceConfig) AdapterConfig() core.AdapterConfig {
	cfg := core.AdapterConfig{
		Type:     s.Type,
		Host:     s.Host,
		Port:     s.Port,
		Database: s.Database,
		Username: s.User,
		Password: s.Password,
		Schema:   s.Schema,
		Options:  s.Options,
		Params:   s.Params,
	}
	if s.Type != "postgres" {
		cfg.Path = s.Database
	}
	return cfg
}

// LoaderConfig converts the source into a loader configuration.
func (s *SourceConfig) LoaderConfig() loader.Config {
	return loader.Config{
		Adapter: s.AdapterConfig(),
		CSVDir:  s.CSVDir,
		Tables:  s.Tables,
		Columns: s.Columns,
	}
}

// BrowseConfig holds defaults for browsing the view.
type BrowseConfig struct {
	PageSize int      `koanf:"page_size"`
	Levels   []string `koanf:"levels"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Port          int    `koanf:"port"`
	Watch         bool   `koanf:"watch"`
	AutoOpen      bool   `koanf:"auto_open"`
	SessionSecret string `koanf:"session_secret"`
}

// Config holds all CLI configuration options.
type Config struct {
	Source       *SourceConfig        `koanf:"source"`
	Browse       BrowseConfig         `koanf:"browse"`
	Server       ServerConfig         `koanf:"server"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Source *SourceConfig `koanf:"source"`
}

// Default configuration values.
const (
	DefaultSourceType = "duckdb"
	DefaultCSVDir     = "data"
	DefaultDatabase   = ":memory:"
	DefaultPageSize   = 10
	DefaultPort       = 8765
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// DefaultLevels is the hierarchy used when none is configured.
var DefaultLevels = []string{"group", "state", "created_year", "created_month"}
