package postgres

import "github.com/Dainanahan/drugtree/pkg/core"

// Dialect is the PostgreSQL dialect configuration.
var Dialect = &core.DialectConfig{
	Name: "postgres",
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
	DefaultSchema: "public",
	Placeholder:   core.PlaceholderDollar,
	YearExpr:      "COALESCE(CAST(NULLIF(substr(trim(CAST(%s AS TEXT)), 1, 4), '') AS INTEGER), 0)",
	MonthExpr:     "COALESCE(CAST(NULLIF(substr(trim(CAST(%s AS TEXT)), 6, 2), '') AS INTEGER), 0)",
}
