package sqlite

import "github.com/Dainanahan/drugtree/pkg/core"

// Dialect is the SQLite dialect configuration.
var Dialect = &core.DialectConfig{
	Name: "sqlite",
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
	YearExpr:      "COALESCE(CAST(substr(trim(CAST(%s AS TEXT)), 1, 4) AS INTEGER), 0)",
	MonthExpr:     "COALESCE(CAST(substr(trim(CAST(%s AS TEXT)), 6, 2) AS INTEGER), 0)",
}
