package config

import (
	"fmt"
	"strings"

	"github.com/Dainanahan/drugtree/pkg/adapter"
	"github.com/Dainanahan/drugtree/pkg/core"
)

// DefaultSchemaForType returns the default schema for a source type.
func DefaultSchemaForType(sourceType string) string {
	switch strings.ToLower(sourceType) {
	case "postgres", "postgresql":
		return "public"
	case "duckdb", "sqlite":
		return "main"
	}
	return ""
}

// ApplySourceDefaults fills unset fields based on the source type.
func ApplySourceDefaults(s *SourceConfig) {
	if s == nil {
		return
	}
	s.Type = strings.ToLower(s.Type)
	if s.Type == "postgresql" {
		s.Type = "postgres"
	}
	if s.Schema == "" {
		s.Schema = DefaultSchemaForType(s.Type)
	}
	switch s.Type {
	case "postgres":
		if s.Port == 0 {
			s.Port = 5432
		}
	case "duckdb", "sqlite":
		if s.Database == "" {
			s.Database = DefaultDatabase
			if s.CSVDir == "" {
				s.CSVDir = DefaultCSVDir
			}
		}
	}
}

// ValidateSource checks that the source names a registered adapter and
// carries what that adapter needs.
func ValidateSource(s *SourceConfig) error {
	if s == nil || s.Type == "" {
		return fmt.Errorf("source type is required")
	}
	if !adapter.IsRegistered(s.Type) {
		return &adapter.UnknownAdapterError{Type: s.Type, Available: adapter.ListAdapters()}
	}
	if s.Type == "postgres" && s.Database == "" {
		return fmt.Errorf("source.database is required for postgres")
	}
	if s.CSVDir == "" && s.Database == DefaultDatabase {
		return fmt.Errorf("source.csv_dir is required when source.database is %s", DefaultDatabase)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Browse.PageSize <= 0 {
		return fmt.Errorf("browse.page_size must be positive, got %d", c.Browse.PageSize)
	}
	if _, err := c.HierarchyLevels(); err != nil {
		return fmt.Errorf("browse.levels: %w", err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// HierarchyLevels parses the configured hierarchy.
func (c *Config) HierarchyLevels() ([]core.Level, error) {
	names := c.Browse.Levels
	if len(names) == 0 {
		names = DefaultLevels
	}
	return core.ParseLevels(names)
}
