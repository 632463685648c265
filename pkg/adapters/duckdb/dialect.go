package duckdb

import "github.com/Dainanahan/drugtree/pkg/core"

// Dialect is the DuckDB dialect configuration.
var Dialect = &core.DialectConfig{
	Name: "duckdb",
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
	YearExpr:      "COALESCE(TRY_CAST(substr(trim(CAST(%s AS VARCHAR)), 1, 4) AS INTEGER), 0)",
	MonthExpr:     "COALESCE(TRY_CAST(substr(trim(CAST(%s AS VARCHAR)), 6, 2) AS INTEGER), 0)",
}
