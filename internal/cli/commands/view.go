package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dainanahan/drugtree/internal/browser"
	"github.com/Dainanahan/drugtree/internal/cli/output"
	"github.com/Dainanahan/drugtree/pkg/core"
)

// ViewOptions holds options for the view command.
type ViewOptions struct {
	Group    string
	State    string
	Year     string
	Month    string
	Select   map[string]string
	Page     int
	Format   string
	Pushdown bool
}

// NewViewCommand creates the view command.
func NewViewCommand() *cobra.Command {
	opts := &ViewOptions{}

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show the filtered drug table",
		Long: `Load the registry, compose the joined view and print one page of the rows
matching the selection.

Every selection flag adds an equality constraint and all constraints must
hold. Without any selection the whole view is shown.`,
		Example: `  # First page of every row
  drugtree view

  # Solid drugs created in 2016
  drugtree view --year 2016 --state solid

  # Same selection as key=value pairs, second page as JSON
  drugtree view --select created_year=2016,state=solid --page 2 --format json

  # Filter inside the source database instead of in memory
  drugtree view --group approved --pushdown`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Group, "group", "", "Only rows in this group")
	cmd.Flags().StringVar(&opts.State, "state", "", "Only rows with this physical state")
	cmd.Flags().StringVar(&opts.Year, "year", "", "Only rows created in this year")
	cmd.Flags().StringVar(&opts.Month, "month", "", "Only rows created in this month (1-12)")
	cmd.Flags().StringToStringVar(&opts.Select, "select", nil, "Selection as level=value pairs")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number to show")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md (default from --output)")
	cmd.Flags().BoolVar(&opts.Pushdown, "pushdown", false, "Run the join and filter in the source database")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return tableFormats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// selection parses --select pairs and then applies the per-level flags on
// top, so a flag always wins over a --select pair for the same level.
func (o *ViewOptions) selection() (core.Selection, error) {
	sel, err := core.ParseSelection(o.Select)
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		level core.Level
		value string
	}{
		{core.LevelGroup, o.Group},
		{core.LevelState, o.State},
		{core.LevelCreatedYear, o.Year},
		{core.LevelCreatedMonth, o.Month},
	} {
		if f.value != "" {
			sel[f.level] = f.value
		}
	}
	return sel, nil
}

func runView(cmd *cobra.Command, opts *ViewOptions) error {
	sel, err := opts.selection()
	if err != nil {
		return err
	}

	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	var view *core.View
	if opts.Pushdown {
		view, err = cmdCtx.Loader.QueryView(ctx, sel)
		if err != nil {
			return fmt.Errorf("failed to query view: %w", err)
		}
	} else {
		composed, err := cmdCtx.Loader.LoadView(ctx)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		b := browser.New(composed,
			browser.WithPageSize(cmdCtx.Cfg.Browse.PageSize),
			browser.WithLogger(cmdCtx.Logger))
		view = b.Select(sel).View
	}

	page := view.Page(opts.Page, cmdCtx.Cfg.Browse.PageSize)
	format := resolveTableFormat(opts.Format, cmdCtx.Renderer)
	return renderPage(cmdCtx.Renderer, sel, page, format)
}

// resolveTableFormat maps the global output mode onto a table format
// when --format is not given.
func resolveTableFormat(format string, r *output.Renderer) string {
	if format != "" {
		return format
	}
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return "json"
	case output.ModeMarkdown:
		return "md"
	default:
		return "table"
	}
}
