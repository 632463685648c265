package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Dainanahan/drugtree/internal/cli/output"
	"github.com/Dainanahan/drugtree/pkg/adapter"
)

// NewSourcesCommand creates the sources command.
func NewSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the available source adapters",
		Long: `List every source adapter compiled into drugtree and mark the one
selected by source.type.`,
		Example: `  drugtree sources
  drugtree sources --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSources(cmd)
		},
	}
}

func listSources(configured string) []output.SourceInfo {
	names := adapter.ListAdapters()
	infos := make([]output.SourceInfo, 0, len(names))
	for _, name := range names {
		info := output.SourceInfo{Name: name, Configured: name == configured}
		if factory, ok := adapter.Get(name); ok {
			info.DefaultSchema = factory(nil).DialectConfig().DefaultSchema
		}
		infos = append(infos, info)
	}
	return infos
}

func runSources(cmd *cobra.Command) error {
	cmdCtx := NewCommandContextWithoutLoader(cmd)
	r := cmdCtx.Renderer
	infos := listSources(cmdCtx.Cfg.Source.Type)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(infos)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Sources (%d available)", len(infos))))
		r.Println("")
		for _, info := range infos {
			line := output.FormatKeyValue(info.Name, "default schema "+info.DefaultSchema)
			if info.Configured {
				line += " (configured)"
			}
			r.Println(line)
		}
	default:
		styles := r.Styles()
		r.Header(1, fmt.Sprintf("Sources (%d available)", len(infos)))
		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Adapter", "Default Schema", ""})
		for _, info := range infos {
			mark := ""
			if info.Configured {
				mark = styles.Success.Render("configured")
			}
			t.AppendRow(table.Row{info.Name, info.DefaultSchema, mark})
		}
		r.Println(t.Render())
	}
	return nil
}
