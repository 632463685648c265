package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Dainanahan/drugtree/internal/cli/output"
	"github.com/Dainanahan/drugtree/pkg/core"
)

var tableFormats = []string{"table", "json", "csv", "md"}

var rowHeader = table.Row{"#", "ID", "Name", "Type", "State", "Group", "Year", "Month"}

func renderPage(r *output.Renderer, sel core.Selection, page core.Page, format string) error {
	switch format {
	case "json":
		return r.JSON(output.NewViewOutput(sel, page))
	case "csv":
		renderRowsCSV(r.Writer(), page.Rows)
		return nil
	case "md", "markdown":
		renderRowsMarkdown(r.Writer(), page.Rows)
	case "table", "":
		renderRowsTable(r.Writer(), page.Rows)
	default:
		return fmt.Errorf("unknown format %q (valid: table, json, csv, md)", format)
	}
	r.Println(pageFooter(sel, page))
	return nil
}

func pageFooter(sel core.Selection, page core.Page) string {
	return fmt.Sprintf("(page %d/%d, %d rows, selection: %s)",
		page.Number, page.Pages, page.Total, output.FormatSelection(sel))
}

func newRowWriter(rows []*core.Row) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(rowHeader)
	for _, row := range rows {
		t.AppendRow(table.Row{
			row.Index + 1,
			row.DrugID,
			row.Name,
			row.Type,
			row.State,
			row.GroupLabel(),
			formatCalendar(row.CreatedYear),
			formatCalendar(row.CreatedMonth),
		})
	}
	return t
}

func renderRowsTable(w io.Writer, rows []*core.Row) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}
	t := newRowWriter(rows)
	t.SetStyle(table.StyleLight)
	_, _ = fmt.Fprintln(w, t.Render())
}

func renderRowsMarkdown(w io.Writer, rows []*core.Row) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}
	_, _ = fmt.Fprintln(w, newRowWriter(rows).RenderMarkdown())
}

func renderRowsCSV(w io.Writer, rows []*core.Row) {
	_, _ = fmt.Fprintln(w, newRowWriter(rows).RenderCSV())
}

func formatCalendar(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
