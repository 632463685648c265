// Package postgres provides a PostgreSQL data source adapter for drugtree.
package postgres

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/Dainanahan/drugtree/pkg/adapter"
	"github.com/Dainanahan/drugtree/pkg/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectConfig returns the PostgreSQL dialect.
func (a *Adapter) DialectConfig() *core.DialectConfig {
	return Dialect
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN renders cfg as a keyword/value connection string.
// Options other than sslmode are appended in key order.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	parts := []string{
		"host=" + dsnValue(host),
		"port=" + strconv.Itoa(port),
		"dbname=" + dsnValue(cfg.Database),
		"sslmode=" + dsnValue(sslmode),
	}
	if cfg.Username != "" {
		parts = append(parts, "user="+dsnValue(cfg.Username))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+dsnValue(cfg.Password))
	}
	if cfg.Schema != "" {
		parts = append(parts, "search_path="+dsnValue(cfg.Schema))
	}
	for _, key := range slices.Sorted(maps.Keys(cfg.Options)) {
		if key == "sslmode" {
			continue
		}
		parts = append(parts, key+"="+dsnValue(cfg.Options[key]))
	}
	return strings.Join(parts, " ")
}

// dsnValue quotes v when libpq would otherwise split or misread it.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// GetTableMetadata retrieves metadata for a specified table. Unqualified
// names resolve against the configured schema.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if !strings.Contains(table, ".") && a.Cfg.Schema != "" {
		table = a.Cfg.Schema + "." + table
	}
	return a.GetTableMetadataCommon(ctx, table, Dialect)
}

// LoadCSV replaces tableName with the contents of an export using
// COPY FROM STDIN. Every column is TEXT and keeps the header's exact
// spelling, so the loader's quoted column names resolve.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	file, err := os.Open(filePath) //nolint:gosec // path comes from the source configuration
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	headers, err := csv.NewReader(file).Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to reset file: %w", err)
	}

	table := tableIdentifier(tableName)
	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("failed to drop %s: %w", tableName, err)
	}
	if _, err := tx.ExecContext(ctx, createTextTableSQL(table, headers)); err != nil {
		return fmt.Errorf("failed to create %s: %w", tableName, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", tableName, err)
	}

	if err := a.copyFromCSV(ctx, table, file); err != nil {
		return fmt.Errorf("failed to copy data into %s: %w", tableName, err)
	}
	a.Logger.Debug("loaded csv", slog.String("table", tableName), slog.String("path", filePath))
	return nil
}

// tableIdentifier quotes a possibly schema-qualified table name.
func tableIdentifier(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func createTextTableSQL(table string, headers []string) string {
	cols := make([]string, 0, len(headers))
	for _, h := range headers {
		cols = append(cols, pgx.Identifier{strings.TrimSpace(h)}.Sanitize()+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", "))
}

// copyFromCSV streams r through the pgx connection underneath database/sql.
func (a *Adapter) copyFromCSV(ctx context.Context, table string, r io.Reader) error {
	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		pgxConn, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		_, err := pgxConn.Conn().PgConn().CopyFrom(ctx, r, "COPY "+table+" FROM STDIN WITH (FORMAT csv, HEADER true)")
		return err
	})
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
