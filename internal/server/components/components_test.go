package components

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dainanahan/drugtree/internal/hierarchy"
	"github.com/Dainanahan/drugtree/pkg/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func strPtr(s string) *string { return &s }

func TestSelectExpr(t *testing.T) {
	expr := SelectExpr(core.Selection{core.LevelGroup: `o'neil"s`, core.LevelCreatedYear: "2016"})

	assert.Contains(t, expr, `$group = "o'neil\"s"; `)
	assert.Contains(t, expr, `$created_year = "2016"; `)
	assert.Contains(t, expr, `$state = ""; `, "unselected levels are cleared")
	assert.Contains(t, expr, `$created_month = ""; `)
	assert.True(t, strings.HasSuffix(expr, "$page = 1; @post('/api/select')"))

	all := SelectExpr(nil)
	assert.Contains(t, all, `$group = ""; `)
}

func TestNewRowsProps(t *testing.T) {
	d := NewRowsProps(core.Selection{}, core.Page{Number: 1, Pages: 1})
	assert.Equal(t, "all", d.Selection)
	assert.Equal(t, 1, d.Prev)
	assert.Equal(t, 1, d.Next)

	d = NewRowsProps(core.Selection{core.LevelGroup: "approved"}, core.Page{Number: 2, Pages: 3})
	assert.Equal(t, "group=approved", d.Selection)
	assert.Equal(t, 1, d.Prev)
	assert.Equal(t, 3, d.Next)
}

func TestRows(t *testing.T) {
	view := core.NewView([]*core.Row{
		{DrugID: "DB00001", Name: "Lepirudin", Type: "BiotechDrug", State: "solid", Group: strPtr("approved"), CreatedYear: 2005, CreatedMonth: 6},
		{DrugID: "DB00002", Name: "<b>Cetuximab</b>", Type: "BiotechDrug", State: core.StateUnknown},
	})
	out := render(t, Rows(NewRowsProps(core.Selection{core.LevelState: "solid"}, view.Page(1, 10))))

	assert.True(t, strings.HasPrefix(out, `<div id="rows">`))
	assert.Contains(t, out, "Page 1 of 1, 2 rows, selection: state=solid")
	assert.Contains(t, out, "<td>Lepirudin</td><td>BiotechDrug</td><td>solid</td><td>approved</td><td>2005</td><td>6</td>")
	assert.Contains(t, out, "<td>&lt;b&gt;Cetuximab&lt;/b&gt;</td>", "cell text is escaped")
	assert.Contains(t, out, "<td>Unknown</td><td></td><td></td><td></td>", "missing group and date render empty")
	assert.Contains(t, out, `@post('/api/page')" disabled>Previous</button>`)
	assert.Contains(t, out, `@post('/api/page')" disabled>Next</button>`)
}

func TestTree(t *testing.T) {
	view := core.NewView([]*core.Row{
		{State: "solid", Group: strPtr(`a"b`)},
		{State: "liquid", Group: nil},
	})
	nodes, err := hierarchy.Build(view, []core.Level{core.LevelGroup, core.LevelState})
	require.NoError(t, err)

	out := render(t, Tree(nodes))

	assert.Equal(t, 2, strings.Count(out, "<details>"), "only branches fold")
	assert.Contains(t, out, `$group = &#34;a\&#34;b&#34;; `, "handler is attribute escaped")
	assert.Contains(t, out, `<span class="node none">`+hierarchy.NoValue+`</span> <span class="count">1</span>`)
	assert.Contains(t, out, `<span class="node none">liquid</span>`, "children of a missing value are not clickable")
	assert.Equal(t, 2, strings.Count(out, `<button class="node"`))
}

func TestIndex(t *testing.T) {
	out := render(t, Index(IndexProps{
		Total:  2,
		Levels: "group / state",
		Rows:   NewRowsProps(nil, core.NewView(nil).Page(1, 10)),
	}))

	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, `data-signals="{created_year: &#39;&#39;, created_month: &#39;&#39;, group: &#39;&#39;, state: &#39;&#39;, page: 1, seq: 0}"`)
	assert.Contains(t, out, `data-init="@get('/api/updates')"`)
	assert.Contains(t, out, "2 rows by group / state")
	assert.Contains(t, out, "<ul>\n</ul>")
	assert.Contains(t, out, `<div id="rows">`)
}
