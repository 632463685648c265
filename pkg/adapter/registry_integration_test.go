package adapter_test

import (
	"context"
	"testing"

	"github.com/Dainanahan/drugtree/pkg/adapter"
	"github.com/Dainanahan/drugtree/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/Dainanahan/drugtree/pkg/adapters/duckdb"
	_ "github.com/Dainanahan/drugtree/pkg/adapters/postgres"
	_ "github.com/Dainanahan/drugtree/pkg/adapters/sqlite"
)

func TestListAdapters_Builtin(t *testing.T) {
	names := adapter.ListAdapters()
	for _, name := range []string{"duckdb", "postgres", "sqlite"} {
		assert.Contains(t, names, name)
	}
	assert.IsNonDecreasing(t, names)
	assert.False(t, adapter.IsRegistered("oracle"))
}

func TestBuiltinAdapters_DialectDefaults(t *testing.T) {
	tests := []struct {
		source string
		schema string
	}{
		{"duckdb", "main"},
		{"postgres", "public"},
		{"sqlite", "main"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			adp, err := adapter.NewAdapter(core.AdapterConfig{Type: tt.source}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.source, adp.DialectConfig().Name)
			assert.Equal(t, tt.schema, adp.DialectConfig().DefaultSchema)
		})
	}
}

func TestNewAdapter_ConnectsInMemory(t *testing.T) {
	for _, source := range []string{"duckdb", "sqlite"} {
		t.Run(source, func(t *testing.T) {
			cfg := core.AdapterConfig{Type: source, Path: ":memory:"}
			adp, err := adapter.NewAdapter(cfg, nil)
			require.NoError(t, err)

			ctx := context.Background()
			require.NoError(t, adp.Connect(ctx, cfg))
			defer func() { _ = adp.Close() }()

			require.NoError(t, adp.Exec(ctx, "CREATE TABLE drug_groups (drugbank_id VARCHAR, \"group\" VARCHAR)"))
			require.NoError(t, adp.Exec(ctx, "INSERT INTO drug_groups VALUES ('DB00001', 'approved')"))

			rows, err := adp.Query(ctx, "SELECT COUNT(*) FROM drug_groups")
			require.NoError(t, err)
			defer func() { _ = rows.Close() }()
			require.True(t, rows.Next())
			var n int
			require.NoError(t, rows.Scan(&n))
			assert.Equal(t, 1, n)
		})
	}
}
