package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Dainanahan/drugtree/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_ConnectFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.duckdb")

	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: path}))
	assert.True(t, adp.IsConnected())
	require.NoError(t, adp.Close())

	assert.FileExists(t, path)
}

func TestAdapter_ConnectRejectsBadParams(t *testing.T) {
	adp := New(nil)
	err := adp.Connect(context.Background(), core.AdapterConfig{
		Path:   ":memory:",
		Params: map[string]any{"bogus": true},
	})
	require.Error(t, err)
	assert.False(t, adp.IsConnected())
}

func TestAdapter_ConnectAppliesSettings(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{
		Path:   ":memory:",
		Params: map[string]any{"settings": map[string]any{"threads": 2}},
	}))
	defer func() { _ = adp.Close() }()

	rows, err := adp.Query(ctx, "SELECT current_setting('threads')")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var threads string
	require.NoError(t, rows.Scan(&threads))
	assert.Equal(t, "2", threads)
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	assert.Error(t, adp.Exec(ctx, "SELECT 1"))
	_, err := adp.Query(ctx, "SELECT 1")
	assert.Error(t, err)
	assert.Error(t, adp.LoadCSV(ctx, "drugs", "drugs.csv"))
}

func TestAdapter_GetTableMetadata(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	require.NoError(t, adp.Exec(ctx, `
		CREATE TABLE drug_groups (
			parent_key VARCHAR NOT NULL,
			"group" VARCHAR
		)
	`))
	require.NoError(t, adp.Exec(ctx, `INSERT INTO drug_groups VALUES ('DB00001', 'approved'), ('DB00002', 'withdrawn')`))

	meta, err := adp.GetTableMetadata(ctx, "drug_groups")
	require.NoError(t, err)
	assert.Equal(t, "main", meta.Schema)
	assert.Equal(t, int64(2), meta.RowCount)
	assert.True(t, meta.HasColumn("group"))
	assert.False(t, meta.Columns[0].Nullable)

	_, err = adp.GetTableMetadata(ctx, "nonexistent_table")
	assert.Error(t, err)
}

func TestAdapter_LoadCSV(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	csvPath := filepath.Join(tmpDir, "drugs.csv")

	csvContent := `primary_key;name;type;state;created
DB00001;Lepirudin;biotech;NA;2005-06-13
DB00002;Cetuximab;biotech;liquid;2005-06-13
DB00006;Bivalirudin;small molecule;solid;2005-06-13`
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0600))

	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{
		Path: ":memory:",
		Params: map[string]any{
			"delimiter":    ";",
			"null_strings": []any{"NA"},
		},
	}))
	defer func() { _ = adp.Close() }()

	require.NoError(t, adp.LoadCSV(ctx, "drugs", csvPath))

	rows, err := adp.Query(ctx, `SELECT COUNT(*), COUNT(state) FROM drugs`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var total, withState int
	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&total, &withState))
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, withState, "NA should load as NULL")

	meta, err := adp.GetTableMetadata(ctx, "drugs")
	require.NoError(t, err)
	assert.Len(t, meta.Columns, 5)
}

func TestDialect_DateParts(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	col := Dialect.QuoteIdentifier("created")
	query := "SELECT " + Dialect.Year(col) + ", " + Dialect.Month(col) + " FROM (SELECT '2016-03-09' AS created)"
	rows, err := adp.Query(ctx, query)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var year, month int
	require.NoError(t, rows.Scan(&year, &month))
	assert.Equal(t, 2016, year)
	assert.Equal(t, 3, month)
}
