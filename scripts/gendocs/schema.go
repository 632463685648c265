package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Dainanahan/drugtree/internal/cli/config"
	"github.com/Dainanahan/drugtree/internal/loader"
)

// generateSchemaDocs generates the drugtree.yaml reference.
func generateSchemaDocs(outDir string) error {
	log.Printf("Generating schema docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := generateConfigurationDoc(outDir); err != nil {
		return fmt.Errorf("failed to generate configuration.md: %w", err)
	}
	log.Printf("  Generated configuration.md")

	return nil
}

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Key         string
	Type        string
	Default     string
	Description string
	Category    string // "source", "mapping", "browse", "server"
}

// getConfigSchema returns the configuration schema. Defaults come from
// the config and loader packages so the page cannot drift from the code.
func getConfigSchema() []ConfigField {
	tables := loader.DefaultTables()
	cols := loader.DefaultColumns()

	return []ConfigField{
		{Key: "source.type", Type: "string", Default: config.DefaultSourceType, Description: "Source adapter: duckdb, sqlite, postgres", Category: "source"},
		{Key: "source.csv_dir", Type: "string", Default: config.DefaultCSVDir, Description: "Directory holding the CSV exports; loaded into the database before reading", Category: "source"},
		{Key: "source.database", Type: "string", Default: config.DefaultDatabase, Description: "File path (duckdb, sqlite) or database name (postgres)", Category: "source"},
		{Key: "source.host", Type: "string", Description: "Database host (postgres)", Category: "source"},
		{Key: "source.port", Type: "int", Default: "5432", Description: "Database port (postgres)", Category: "source"},
		{Key: "source.user", Type: "string", Description: "Database username (postgres)", Category: "source"},
		{Key: "source.password", Type: "string", Description: "Database password (postgres); ${VAR} is expanded", Category: "source"},
		{Key: "source.schema", Type: "string", Description: "Schema holding the registry tables", Category: "source"},
		{Key: "source.options", Type: "map[string]string", Description: "Additional driver-specific options", Category: "source"},
		{Key: "source.params", Type: "map[string]any", Description: "Adapter-specific settings such as the CSV delimiter", Category: "source"},

		{Key: "source.tables.drugs", Type: "string", Default: tables.Drugs, Description: "Entity table", Category: "mapping"},
		{Key: "source.tables.groups", Type: "string", Default: tables.Groups, Description: "Group membership table", Category: "mapping"},
		{Key: "source.tables.drugs_file", Type: "string", Default: tables.DrugsFile, Description: "Entity export inside csv_dir", Category: "mapping"},
		{Key: "source.tables.groups_file", Type: "string", Default: tables.GroupsFile, Description: "Membership export inside csv_dir", Category: "mapping"},
		{Key: "source.columns.id", Type: "string", Default: cols.ID, Description: "Entity key", Category: "mapping"},
		{Key: "source.columns.name", Type: "string", Default: cols.Name, Description: "Entity name", Category: "mapping"},
		{Key: "source.columns.type", Type: "string", Default: cols.Type, Description: "Entity type", Category: "mapping"},
		{Key: "source.columns.state", Type: "string", Default: cols.State, Description: "Physical state; empty values become Unknown", Category: "mapping"},
		{Key: "source.columns.created", Type: "string", Default: cols.Created, Description: "Creation timestamp; year and month are derived from it", Category: "mapping"},
		{Key: "source.columns.member_key", Type: "string", Default: cols.MemberKey, Description: "Membership foreign key", Category: "mapping"},
		{Key: "source.columns.group", Type: "string", Default: cols.Group, Description: "Group label", Category: "mapping"},

		{Key: "browse.page_size", Type: "int", Default: strconv.Itoa(config.DefaultPageSize), Description: "Rows per table page", Category: "browse"},
		{Key: "browse.levels", Type: "[]string", Default: strings.Join(config.DefaultLevels, ", "), Description: "Hierarchy levels in order", Category: "browse"},
		{Key: "output", Type: "string", Default: config.DefaultOutput, Description: "Output mode: auto, text, markdown, json", Category: "browse"},

		{Key: "server.port", Type: "int", Default: strconv.Itoa(config.DefaultPort), Description: "Web UI port", Category: "server"},
		{Key: "server.watch", Type: "bool", Default: "true", Description: "Reload when the CSV exports change", Category: "server"},
		{Key: "server.auto_open", Type: "bool", Default: "false", Description: "Open a browser on start", Category: "server"},
		{Key: "server.session_secret", Type: "string", Description: "Cookie secret; generated per run when empty", Category: "server"},
	}
}

func fieldTable(w *MarkdownWriter, fields []ConfigField, category string) {
	headers := []string{"Key", "Type", "Default", "Description"}
	var rows [][]string
	for _, f := range fields {
		if f.Category != category {
			continue
		}
		defVal := "-"
		if f.Default != "" {
			defVal = InlineCode(f.Default)
		}
		rows = append(rows, []string{InlineCode(f.Key), f.Type, defVal, f.Description})
	}
	w.Table(headers, rows)
}

// generateConfigurationDoc generates the configuration reference page.
func generateConfigurationDoc(outDir string) error {
	w := NewMarkdownWriter()
	fields := getConfigSchema()

	w.Frontmatter("Configuration", "drugtree configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("drugtree reads `drugtree.yaml` from the working directory or the nearest parent. Relative paths resolve against the directory holding the file.")

	w.Header(2, "Source")
	w.Paragraph("Where the registry is read from. With `csv_dir` set, the two exports are loaded into the configured database first.")
	fieldTable(w, fields, "source")

	w.Header(2, "Table and Column Mapping")
	w.Paragraph("Names of the tables and columns the loader reads. Override them when an export uses different headers.")
	fieldTable(w, fields, "mapping")

	w.Header(2, "Browsing")
	fieldTable(w, fields, "browse")

	w.Header(2, "Web UI")
	fieldTable(w, fields, "server")

	w.Header(2, "Environments")
	w.Paragraph("Named environments override the source. Select one with `--env` or `environment`.")
	w.CodeBlock("yaml", `# drugtree.yaml
environment: dev

source:
  type: duckdb
  csv_dir: ./exports

browse:
  page_size: 25
  levels: [group, state, created_year, created_month]

environments:
  dev:
    source:
      csv_dir: ./exports/sample
  prod:
    source:
      type: postgres
      host: db.internal
      user: registry
      password: ${REGISTRY_DB_PASSWORD}
      database: registry
      schema: drugbank
      options:
        sslmode: require`)

	w.Header(2, "Environment Variables")
	w.Paragraph(fmt.Sprintf("Every key can be set with a %s variable, using a double underscore between nesting levels, for example %s.",
		InlineCode(config.EnvPrefix), InlineCode(config.EnvPrefix+"SOURCE__CSV_DIR=/srv/exports")))

	filename := filepath.Join(outDir, "configuration.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}
