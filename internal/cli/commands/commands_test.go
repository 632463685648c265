package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dainanahan/drugtree/internal/browser"
	clitestutil "github.com/Dainanahan/drugtree/internal/cli/testutil"
	"github.com/Dainanahan/drugtree/internal/cli/output"
	"github.com/Dainanahan/drugtree/internal/hierarchy"
	"github.com/Dainanahan/drugtree/internal/loader"
	"github.com/Dainanahan/drugtree/internal/testutil"
	"github.com/Dainanahan/drugtree/pkg/core"

	_ "github.com/Dainanahan/drugtree/pkg/adapters/duckdb"
	_ "github.com/Dainanahan/drugtree/pkg/adapters/postgres"
	_ "github.com/Dainanahan/drugtree/pkg/adapters/sqlite"
)

func fixtureLoader(t *testing.T, dir string) *loader.Loader {
	t.Helper()
	return loader.New(loader.Config{
		Adapter: core.AdapterConfig{Type: "sqlite", Path: ":memory:"},
		CSVDir:  dir,
	}, testutil.NewTestLogger(t))
}

func fixtureView(t *testing.T) *core.View {
	t.Helper()
	view, err := fixtureLoader(t, testutil.WriteRegistry(t)).LoadView(context.Background())
	require.NoError(t, err)
	return view
}

// =============================================================================
// Command construction
// =============================================================================

func TestCommandConstruction(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewViewCommand(), "view", []string{"group", "state", "year", "month", "select", "page", "format", "pushdown"}},
		{NewTreeCommand(), "tree", []string{"format", "depth"}},
		{NewBrowseCommand(), "browse", []string{"format"}},
		{NewServeCommand(), "serve", []string{"port", "no-browser", "watch"}},
		{NewSourcesCommand(), "sources", nil},
		{NewVersionCommand("test"), "version", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, f := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(f), "flag %q should exist", f)
			}
		})
	}
}

func TestNewVersionCommand(t *testing.T) {
	for _, version := range []string{"0.1.0", "1.2.3", "dev"} {
		t.Run(version, func(t *testing.T) {
			cmd := NewVersionCommand(version)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)

			require.NoError(t, cmd.Execute())
			assert.Contains(t, buf.String(), "drugtree v"+version)
			assert.Contains(t, buf.String(), "Go ")
		})
	}
}

// =============================================================================
// Selections
// =============================================================================

func TestViewOptions_Selection(t *testing.T) {
	opts := &ViewOptions{
		Select: map[string]string{"group": "withdrawn", "year": "2016", "state": ""},
		Group:  "approved",
		Month:  " 3",
	}
	sel, err := opts.selection()
	require.NoError(t, err)
	assert.Equal(t, core.Selection{
		core.LevelGroup:        "approved",
		core.LevelCreatedYear:  "2016",
		core.LevelCreatedMonth: " 3",
	}, sel)

	_, err = (&ViewOptions{Select: map[string]string{"kingdom": "plantae"}}).selection()
	var unknown *core.UnknownLevelError
	require.ErrorAs(t, err, &unknown)

	sel, err = (&ViewOptions{}).selection()
	require.NoError(t, err)
	assert.True(t, sel.Empty())
}

func TestViewOptions_SelectionAliases(t *testing.T) {
	// The alias spelling in --select must not race the flag in map order.
	for i := 0; i < 50; i++ {
		sel, err := (&ViewOptions{
			Select: map[string]string{"month": "4", "year": "2016"},
			Month:  "3",
			Year:   "2017",
		}).selection()
		require.NoError(t, err)
		require.Equal(t, core.Selection{core.LevelCreatedYear: "2017", core.LevelCreatedMonth: "3"}, sel)
	}

	_, err := (&ViewOptions{Select: map[string]string{"year": "2016", "created_year": "2017"}}).selection()
	var conflict *core.ConflictingLevelError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, core.LevelCreatedYear, conflict.Level)
	assert.Equal(t, []string{"2016", "2017"}, conflict.Values)

	sel, err := (&ViewOptions{Select: map[string]string{"month": "3", "created_month": "3"}}).selection()
	require.NoError(t, err)
	assert.Equal(t, core.Selection{core.LevelCreatedMonth: "3"}, sel)
}

func TestParseSelectionLine(t *testing.T) {
	tests := []struct {
		line    string
		want    core.Selection
		wantErr string
	}{
		{
			line: "created_year=2016 state=solid",
			want: core.Selection{core.LevelCreatedYear: "2016", core.LevelState: "solid"},
		},
		{
			line: "year=2016 month=3",
			want: core.Selection{core.LevelCreatedYear: "2016", core.LevelCreatedMonth: "3"},
		},
		{
			line: "group=big pharma, state=Unknown",
			want: core.Selection{core.LevelGroup: "big pharma", core.LevelState: core.StateUnknown},
		},
		{
			line: "group=approved,",
			want: core.Selection{core.LevelGroup: "approved"},
		},
		{
			line: "year=2016 created_year=2016",
			want: core.Selection{core.LevelCreatedYear: "2016"},
		},
		{line: "year=2016 created_year=2017", wantErr: "conflicting values"},
		{line: "state=solid state=liquid", wantErr: "conflicting values"},
		{line: "approved", wantErr: "expected level=value"},
		{line: "kingdom=plantae", wantErr: "kingdom"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			sel, err := parseSelectionLine(tt.line)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, sel)
		})
	}
}

// =============================================================================
// Browse session
// =============================================================================

func newTestSession(t *testing.T, pageSize int) (*replSession, *clitestutil.TestRenderer) {
	t.Helper()
	tr := clitestutil.NewTestRendererText()
	view := fixtureView(t)
	b := browser.New(view, browser.WithPageSize(pageSize))
	return &replSession{
		browser: b,
		levels:  []core.Level{core.LevelGroup, core.LevelState},
		format:  "table",
		page:    1,
		r:       tr.Renderer,
	}, tr
}

func TestReplSession_Selection(t *testing.T) {
	s, tr := newTestSession(t, 10)

	assert.False(t, s.handle("group=approved"))
	out := tr.Output()
	assert.Contains(t, out, "Lepirudin")
	assert.Contains(t, out, "Cetuximab")
	assert.NotContains(t, out, "Etanercept")
	assert.Contains(t, out, "(page 1/1, 2 rows, selection: Group: approved)")
	clitestutil.AssertNoANSI(t, out)

	tr.Reset()
	s.handle("created_year=2016 state=solid")
	out = tr.Output()
	assert.Contains(t, out, "selection: Created Year: 2016, State: solid)", "the new line replaces the selection")
	assert.Contains(t, out, "Cetuximab")
	assert.Contains(t, out, "Etanercept")
	assert.NotContains(t, out, "Lepirudin")
	assert.Equal(t, uint64(2), s.browser.Current().Seq)

	tr.Reset()
	s.handle(".clear")
	assert.Contains(t, tr.Output(), "6 rows, selection: all")
	assert.True(t, s.browser.Current().Selection.Empty())
}

func TestReplSession_NoMatch(t *testing.T) {
	s, tr := newTestSession(t, 10)

	s.handle("group=experimental state=solid")
	assert.Contains(t, tr.Output(), "(0 rows)")
	assert.Contains(t, tr.Output(), "(page 1/1, 0 rows")
}

func TestReplSession_Paging(t *testing.T) {
	s, tr := newTestSession(t, 2)

	s.handle(".page 99")
	assert.Contains(t, tr.Output(), "(page 3/3, 6 rows")
	assert.Equal(t, 3, s.page)

	tr.Reset()
	s.handle(".next")
	assert.Contains(t, tr.Output(), "(page 3/3", "paging past the end stays on the last page")

	tr.Reset()
	s.handle(".prev")
	assert.Contains(t, tr.Output(), "(page 2/3")

	tr.Reset()
	s.handle("state=solid")
	assert.Contains(t, tr.Output(), "(page 1/1", "a selection starts on the first page")

	tr.Reset()
	s.handle(".page two")
	assert.Contains(t, tr.ErrorOutput(), `invalid page number "two"`)

	tr.Reset()
	s.handle(".page")
	assert.Contains(t, tr.ErrorOutput(), "Usage: .page <n>")
}

func TestReplSession_Format(t *testing.T) {
	s, tr := newTestSession(t, 10)

	s.handle(".format json")
	var got output.ViewOutput
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
	assert.Equal(t, testutil.FixtureRows, got.Total)

	tr.Reset()
	s.handle(".format")
	assert.Equal(t, "json\n", tr.Output())

	tr.Reset()
	s.handle(".format xml")
	assert.Contains(t, tr.ErrorOutput(), `unknown format "xml"`)
}

func TestReplSession_TreeAndLevels(t *testing.T) {
	s, tr := newTestSession(t, 10)

	s.handle(".tree")
	out := tr.Output()
	assert.Contains(t, out, "Registry by Group / State")
	assert.Contains(t, out, "approved (2)")
	assert.Contains(t, out, hierarchy.NoValue+" (1)")

	tr.Reset()
	s.handle(".levels")
	assert.Equal(t, "levels: group, state\n", tr.Output())

	tr.Reset()
	s.handle(".levels created_year, month")
	assert.Equal(t, "levels: created_year, created_month\n", tr.Output())
	assert.Equal(t, []core.Level{core.LevelCreatedYear, core.LevelCreatedMonth}, s.levels)

	tr.Reset()
	s.handle(".levels kingdom")
	assert.Contains(t, tr.ErrorOutput(), "kingdom")
	assert.Equal(t, []core.Level{core.LevelCreatedYear, core.LevelCreatedMonth}, s.levels)
}

func TestReplSession_Commands(t *testing.T) {
	s, tr := newTestSession(t, 10)

	assert.True(t, s.handle(".quit"))
	assert.True(t, s.handle(".EXIT"))
	assert.False(t, s.handle("   "))
	assert.Empty(t, tr.Output())

	s.handle(".help")
	assert.Contains(t, tr.Output(), ".page <n>")

	s.handle(".bogus")
	assert.Contains(t, tr.ErrorOutput(), "Unknown command: .bogus")

	tr.Reset()
	s.handle("approved")
	assert.Contains(t, tr.ErrorOutput(), "expected level=value")
	assert.Equal(t, uint64(0), s.browser.Current().Seq, "a bad line is not an event")
}

func TestReplSession_Reload(t *testing.T) {
	dir := testutil.WriteRegistry(t)
	l := fixtureLoader(t, dir)
	view, err := l.LoadView(context.Background())
	require.NoError(t, err)

	tr := clitestutil.NewTestRendererText()
	b := browser.New(view)
	s := &replSession{
		browser: b,
		format:  "table",
		page:    1,
		r:       tr.Renderer,
		reload:  func() error { return reloadBrowser(context.Background(), l, b) },
	}

	s.handle("group=approved")
	testutil.WriteFile(t, filepath.Join(dir, "drug_groups.csv"), testutil.GroupsCSV+"DB00004,approved\n")

	tr.Reset()
	s.handle(".reload")
	assert.Contains(t, tr.Output(), "reloaded 6 rows")
	assert.Contains(t, tr.Output(), "3 rows, selection: Group: approved")

	s.reload = func() error { return errors.New("export vanished") }
	tr.Reset()
	s.handle(".reload")
	assert.Contains(t, tr.ErrorOutput(), "export vanished")
}

// =============================================================================
// Rendering
// =============================================================================

func TestRenderPage(t *testing.T) {
	view := fixtureView(t)
	sel := core.Selection{core.LevelGroup: "approved"}
	b := browser.New(view)
	page := b.Select(sel).View.Page(1, 10)

	t.Run("table", func(t *testing.T) {
		tr := clitestutil.NewTestRendererText()
		require.NoError(t, renderPage(tr.Renderer, sel, page, "table"))
		assert.Contains(t, tr.Output(), "Lepirudin")
		assert.Contains(t, tr.Output(), "(page 1/1, 2 rows, selection: Group: approved)")
	})

	t.Run("markdown", func(t *testing.T) {
		tr := clitestutil.NewTestRendererMarkdown()
		require.NoError(t, renderPage(tr.Renderer, sel, page, "md"))
		assert.Contains(t, tr.Output(), "| ID |")
		assert.Contains(t, tr.Output(), "Cetuximab")
	})

	t.Run("csv", func(t *testing.T) {
		tr := clitestutil.NewTestRendererText()
		require.NoError(t, renderPage(tr.Renderer, sel, page, "csv"))
		out := tr.Output()
		assert.Contains(t, out, "ID,Name,Type,State,Group,Year,Month")
		assert.Contains(t, out, "DB00002,Cetuximab,biotech,solid,approved,2016,3")
		assert.NotContains(t, out, "(page", "csv output has no footer")
	})

	t.Run("json", func(t *testing.T) {
		tr := clitestutil.NewTestRendererJSON()
		require.NoError(t, renderPage(tr.Renderer, sel, page, "json"))
		var got output.ViewOutput
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
		assert.Equal(t, map[string]string{"group": "approved"}, got.Selection)
		assert.Equal(t, 2, got.Total)
		assert.Len(t, got.Rows, 2)
	})

	t.Run("unknown", func(t *testing.T) {
		tr := clitestutil.NewTestRendererText()
		assert.Error(t, renderPage(tr.Renderer, sel, page, "xml"))
	})
}

func TestResolveTableFormat(t *testing.T) {
	assert.Equal(t, "csv", resolveTableFormat("csv", clitestutil.NewTestRendererJSON().Renderer))
	assert.Equal(t, "json", resolveTableFormat("", clitestutil.NewTestRendererJSON().Renderer))
	assert.Equal(t, "md", resolveTableFormat("", clitestutil.NewTestRendererMarkdown().Renderer))
	assert.Equal(t, "table", resolveTableFormat("", clitestutil.NewTestRendererText().Renderer))
	assert.Equal(t, "md", resolveTableFormat("", clitestutil.NewTestRenderer(output.ModeAuto, false).Renderer))
}

func fixtureTree(t *testing.T, levels ...core.Level) output.TreeOutput {
	t.Helper()
	view := fixtureView(t)
	nodes, err := hierarchy.Build(view, levels)
	require.NoError(t, err)
	return output.TreeOutput{Levels: levels, Total: view.Len(), Nodes: nodes}
}

func TestRenderTree(t *testing.T) {
	tree := fixtureTree(t, core.LevelCreatedYear, core.LevelCreatedMonth)

	t.Run("text", func(t *testing.T) {
		tr := clitestutil.NewTestRendererText()
		require.NoError(t, renderTree(tr.Renderer, tree, &TreeOptions{}))
		out := tr.Output()
		assert.Contains(t, out, "Registry by Created Year / Created Month")
		assert.Contains(t, out, "2005 (2)")
		assert.Contains(t, out, "2016 (3)")
		assert.Contains(t, out, "3 March (2)")
		assert.Contains(t, out, "Total: 6 rows")
		clitestutil.AssertNoANSI(t, out)
	})

	t.Run("depth", func(t *testing.T) {
		tr := clitestutil.NewTestRendererText()
		require.NoError(t, renderTree(tr.Renderer, tree, &TreeOptions{Depth: 1}))
		assert.Contains(t, tr.Output(), "2016 (3)")
		assert.NotContains(t, tr.Output(), "March")
	})

	t.Run("markdown", func(t *testing.T) {
		tr := clitestutil.NewTestRendererMarkdown()
		require.NoError(t, renderTree(tr.Renderer, tree, &TreeOptions{}))
		assert.True(t, strings.HasPrefix(tr.Output(), "# Registry by Created Year"))
		assert.Contains(t, tr.Output(), "11 November (1)")
	})

	t.Run("json", func(t *testing.T) {
		tr := clitestutil.NewTestRendererJSON()
		require.NoError(t, renderTree(tr.Renderer, tree, &TreeOptions{}))
		var got output.TreeOutput
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
		assert.Equal(t, testutil.FixtureRows, got.Total)
		assert.Len(t, got.Nodes, 3)
	})

	t.Run("yaml", func(t *testing.T) {
		tr := clitestutil.NewTestRendererText()
		require.NoError(t, renderTree(tr.Renderer, tree, &TreeOptions{Format: "yaml"}))
		out := tr.Output()
		assert.Contains(t, out, "levels:")
		assert.Contains(t, out, "- created_year")
		assert.Contains(t, out, "total: 6")
		assert.Contains(t, out, "count: 3")
	})

	t.Run("unknown", func(t *testing.T) {
		tr := clitestutil.NewTestRendererText()
		assert.Error(t, renderTree(tr.Renderer, tree, &TreeOptions{Format: "dot"}))
	})
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "3 March", monthLabel("3"))
	assert.Equal(t, "12 December", monthLabel("12"))
	assert.Equal(t, "13", monthLabel("13"))
	assert.Equal(t, "x", monthLabel("x"))
}

// =============================================================================
// Sources
// =============================================================================

func TestListSources(t *testing.T) {
	infos := listSources("sqlite")

	byName := make(map[string]output.SourceInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}
	require.Contains(t, byName, "duckdb")
	require.Contains(t, byName, "postgres")
	require.Contains(t, byName, "sqlite")

	assert.True(t, byName["sqlite"].Configured)
	assert.False(t, byName["duckdb"].Configured)
	assert.Equal(t, "main", byName["duckdb"].DefaultSchema)
	assert.Equal(t, "public", byName["postgres"].DefaultSchema)
}
