package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dainanahan/drugtree/pkg/core"
)

// ErrNotConnected is returned by adapter calls made before Connect.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter carries the database/sql handle shared by the built-in
// adapters. Adapters embed it and add Connect, LoadCSV and DialectConfig.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

// Close releases the connection pool. Closing an unconnected adapter is a
// no-op.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	if b.Logger != nil {
		b.Logger.Debug("closing database connection", slog.String("source", b.Cfg.Type))
	}
	return b.DB.Close()
}

// Exec runs a statement that returns no rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, stmt string) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	if _, err := b.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query runs a statement that returns rows. The caller closes them and
// checks Err after iterating.
func (b *BaseSQLAdapter) Query(ctx context.Context, query string, args ...any) (*core.Rows, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	rows, err := b.DB.QueryContext(ctx, query, args...) //nolint:rowserrcheck // checked by the caller
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// IsConnected reports whether Connect has succeeded.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the dialect's default schema if not specified.
func ParseQualifiedName(table string, d *core.DialectConfig) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return d.DefaultSchema, table
}

// GetTableMetadataCommon provides a shared implementation of GetTableMetadata.
// Uses information_schema.columns with dialect-appropriate placeholders.
func (b *BaseSQLAdapter) GetTableMetadataCommon(ctx context.Context, table string, d *core.DialectConfig) (*core.TableMetadata, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	schema, tableName := ParseQualifiedName(table, d)

	//nolint:gosec // Placeholders come from the dialect (? or $N)
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, d.Placeholder.Format(1), d.Placeholder.Format(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	return &core.TableMetadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: b.countRows(ctx, d.QuoteIdentifier(schema+"."+tableName)),
	}, nil
}

// countRows is best effort; a failed count reports 0.
func (b *BaseSQLAdapter) countRows(ctx context.Context, quotedTable string) int64 {
	var n int64
	//nolint:gosec // identifier is quoted by the dialect
	if err := b.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quotedTable).Scan(&n); err != nil {
		return 0
	}
	return n
}
