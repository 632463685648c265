// Package components renders the web UI as templ components. The rows
// fragment is patched over server-sent events; the page embeds it once.
package components

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/Dainanahan/drugtree/internal/hierarchy"
	"github.com/Dainanahan/drugtree/pkg/core"
)

// SignalNames maps levels onto the client signal that carries them.
var SignalNames = map[core.Level]string{
	core.LevelGroup:        "group",
	core.LevelState:        "state",
	core.LevelCreatedYear:  "created_year",
	core.LevelCreatedMonth: "created_month",
}

// SelectExpr builds the click handler for a hierarchy node. It assigns
// every level signal, so the posted selection replaces the previous one
// wholesale. Values are JSON encoded string literals.
func SelectExpr(sel core.Selection) string {
	var b strings.Builder
	for _, l := range core.Levels() {
		v, _ := json.Marshal(sel[l])
		b.WriteString("$" + SignalNames[l] + " = " + string(v) + "; ")
	}
	b.WriteString("$page = 1; @post('/api/select')")
	return b.String()
}

// initialSignals declares every signal the page posts back.
func initialSignals() string {
	var b strings.Builder
	b.WriteString("{")
	for _, l := range core.Levels() {
		b.WriteString(SignalNames[l] + ": '', ")
	}
	b.WriteString("page: 1, seq: 0}")
	return b.String()
}

// RowsProps is one page of the filtered view plus its pager targets.
type RowsProps struct {
	Page      core.Page
	Selection string
	Prev      int
	Next      int
}

// NewRowsProps clamps the pager targets to the page range and labels an
// empty selection "all".
func NewRowsProps(sel core.Selection, p core.Page) RowsProps {
	d := RowsProps{Page: p, Selection: sel.String(), Prev: p.Number - 1, Next: p.Number + 1}
	if d.Selection == "" {
		d.Selection = "all"
	}
	if d.Prev < 1 {
		d.Prev = 1
	}
	if d.Next > p.Pages {
		d.Next = p.Pages
	}
	return d
}

// IndexProps feeds the full page.
type IndexProps struct {
	Total  int
	Levels string
	Nodes  []*hierarchy.Node
	Rows   RowsProps
}

// html accumulates the first write error so components read top to bottom.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(parts ...string) {
	for _, p := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, p)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

const styles = `body { font-family: system-ui, sans-serif; margin: 0; display: flex; }
aside { width: 22rem; padding: 1rem; border-right: 1px solid #ddd; height: 100vh; overflow: auto; }
main { flex: 1; padding: 1rem; }
ul { list-style: none; padding-left: 1rem; }
button.node { background: none; border: none; cursor: pointer; padding: 0; }
.node.none { color: #888; }
.count { color: #888; font-size: 0.85em; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.25rem 0.5rem; border-bottom: 1px solid #eee; }`

// Index is the full page: the hierarchy in the sidebar and the first page
// of rows. It opens the update stream on load.
func Index(p IndexProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>drugtree</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"></script>
<style>`, styles, `</style>
</head>
<body data-signals="`)
		h.text(initialSignals())
		h.raw(`" data-init="@get('/api/updates')">
<aside>
<h1>drugtree</h1>
<p class="count">`)
		h.text(strconv.Itoa(p.Total))
		h.raw(" rows by ")
		h.text(p.Levels)
		h.raw(`</p>
<button data-on:click="`)
		h.text(SelectExpr(nil))
		h.raw(`">All rows</button>
`)
		h.render(ctx, Tree(p.Nodes))
		h.raw("\n</aside>\n<main>\n")
		h.render(ctx, Rows(p.Rows))
		h.raw("\n</main>\n</body>\n</html>\n")
		return h.err
	})
}

// Tree renders nodes as nested lists. Branches fold into details elements.
func Tree(nodes []*hierarchy.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw("<ul>")
		for _, n := range nodes {
			h.raw("\n<li>")
			if len(n.Children) > 0 {
				h.raw("<details><summary>")
				h.render(ctx, Node(n))
				h.raw("</summary>")
				h.render(ctx, Tree(n.Children))
				h.raw("</details>")
			} else {
				h.render(ctx, Node(n))
			}
			h.raw("</li>")
		}
		h.raw("\n</ul>")
		return h.err
	})
}

// Node renders one value and its count. Only selectable nodes get a click
// handler.
func Node(n *hierarchy.Node) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		if n.Selectable() {
			h.raw(`<button class="node" data-on:click="`)
			h.text(SelectExpr(n.Selection))
			h.raw(`">`)
			h.text(n.Value)
			h.raw("</button>")
		} else {
			h.raw(`<span class="node none">`)
			h.text(n.Value)
			h.raw("</span>")
		}
		h.raw(` <span class="count">`)
		h.text(strconv.Itoa(n.Count))
		h.raw("</span>")
		return h.err
	})
}

var rowHeaders = []string{"ID", "Name", "Type", "State", "Group", "Year", "Month"}

// Rows renders the table fragment. Its id is the patch target.
func Rows(p RowsProps) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div id="rows">
<p class="summary">Page `)
		h.text(strconv.Itoa(p.Page.Number))
		h.raw(" of ")
		h.text(strconv.Itoa(p.Page.Pages))
		h.raw(", ")
		h.text(strconv.Itoa(p.Page.Total))
		h.raw(" rows, selection: ")
		h.text(p.Selection)
		h.raw("</p>\n<table>\n<thead><tr>")
		for _, name := range rowHeaders {
			h.raw("<th>", name, "</th>")
		}
		h.raw("</tr></thead>\n<tbody>")
		for _, r := range p.Page.Rows {
			h.raw("\n<tr>")
			for _, cell := range []string{r.DrugID, r.Name, r.Type, r.State, r.GroupLabel(), calendar(r.CreatedYear), calendar(r.CreatedMonth)} {
				h.raw("<td>")
				h.text(cell)
				h.raw("</td>")
			}
			h.raw("</tr>")
		}
		h.raw("\n</tbody>\n</table>\n<nav>\n")
		pager(h, "Previous", p.Prev, p.Page.Number <= 1)
		h.raw("\n")
		pager(h, "Next", p.Next, p.Page.Number >= p.Page.Pages)
		h.raw("\n</nav>\n</div>")
		return h.err
	})
}

func pager(h *html, label string, target int, disabled bool) {
	h.raw(`<button data-on:click="$page = `, strconv.Itoa(target), `; @post('/api/page')"`)
	if disabled {
		h.raw(" disabled")
	}
	h.raw(">", label, "</button>")
}

func calendar(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
