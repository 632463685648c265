package core

import (
	"fmt"
	"strings"
)

// DialectConfig holds the static SQL traits of a data source. Adapters
// return one so that selections can be pushed down as WHERE clauses.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "duckdb", "postgres")
	Name string

	Identifiers IdentifierConfig

	// DefaultSchema is the default schema name ("main" for DuckDB, "public" for Postgres)
	DefaultSchema string

	Placeholder PlaceholderStyle

	// YearExpr and MonthExpr are fmt templates taking one quoted column
	// reference and yielding an integer expression. They read the date
	// prefix of the stored text (YYYY-MM-...) with no time zone arithmetic,
	// and yield 0 for a missing value.
	YearExpr  string
	MonthExpr string
}

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// Format returns the placeholder for the n-th (1-based) parameter.
func (p PlaceholderStyle) Format(n int) string {
	if p == PlaceholderDollar {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// IdentifierConfig defines how identifiers are quoted.
type IdentifierConfig struct {
	Quote    string // Quote character: ", `, [
	QuoteEnd string // End quote character (usually same as Quote, ] for [)
	Escape   string // Escape sequence: "", ``, ]]
}

// QuoteIdentifier quotes name using the dialect's identifier rules.
// Dotted names are quoted per part.
func (d *DialectConfig) QuoteIdentifier(name string) string {
	q, end, esc := d.Identifiers.Quote, d.Identifiers.QuoteEnd, d.Identifiers.Escape
	if q == "" {
		q = `"`
	}
	if end == "" {
		end = q
	}
	if esc == "" {
		esc = end + end
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = q + strings.ReplaceAll(p, end, esc) + end
	}
	return strings.Join(parts, ".")
}

// Year renders the year extraction expression for a column reference.
func (d *DialectConfig) Year(col string) string {
	return fmt.Sprintf(d.YearExpr, col)
}

// Month renders the month extraction expression for a column reference.
func (d *DialectConfig) Month(col string) string {
	return fmt.Sprintf(d.MonthExpr, col)
}
