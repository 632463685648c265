// Package duckdb provides a DuckDB data source adapter for drugtree.
//
// DuckDB is the default source: it reads the registry's CSV exports in
// place through read_csv_auto, or opens an existing DuckDB file.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Dainanahan/drugtree/pkg/adapter"
	"github.com/Dainanahan/drugtree/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
	params *Params
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
		params:         &Params{},
	}
}

// DialectConfig returns the DuckDB dialect.
func (a *Adapter) DialectConfig() *core.DialectConfig {
	return Dialect
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.params = params

	if err := a.applyParams(ctx); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}
	return nil
}

func (a *Adapter) applyParams(ctx context.Context) error {
	for _, ext := range a.params.Extensions {
		a.Logger.Debug("loading duckdb extension", slog.String("extension", ext))
		if err := a.Exec(ctx, fmt.Sprintf("INSTALL %s; LOAD %s", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	keys := make([]string, 0, len(a.params.Settings))
	for k := range a.params.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmt := fmt.Sprintf("SET %s = %s", k, quoteLiteral(a.params.Settings[k]))
		if err := a.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}
	return nil
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table, Dialect)
}

// LoadCSV loads data from a CSV file into a table. Every column stays
// VARCHAR so timestamps keep their stored offset instead of being
// converted to the session time zone. The delimiter and NULL markers come
// from Params.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s)",
		Dialect.QuoteIdentifier(tableName),
		csvOptions(absPath, a.params),
	)

	a.Logger.Debug("loading csv", slog.String("table", tableName), slog.String("path", absPath))

	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}

	return nil
}

func csvOptions(path string, p *Params) string {
	opts := []string{quoteLiteral(path), "header=true", "all_varchar=true"}
	if p.Delimiter != "" {
		opts = append(opts, "delim="+quoteLiteral(p.Delimiter))
	}
	if len(p.NullStrings) > 0 {
		quoted := make([]string, len(p.NullStrings))
		for i, s := range p.NullStrings {
			quoted[i] = quoteLiteral(s)
		}
		opts = append(opts, "nullstr=["+strings.Join(quoted, ", ")+"]")
	}
	return strings.Join(opts, ", ")
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
