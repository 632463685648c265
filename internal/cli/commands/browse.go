package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/Dainanahan/drugtree/internal/browser"
	"github.com/Dainanahan/drugtree/internal/hierarchy"
	"github.com/Dainanahan/drugtree/pkg/core"
)

const replPrompt = "drugtree> "

// historyFileName is created in the project root.
const historyFileName = ".drugtree_history"

// BrowseOptions holds options for the browse command.
type BrowseOptions struct {
	Format string
}

// NewBrowseCommand creates the interactive browse command.
func NewBrowseCommand() *cobra.Command {
	opts := &BrowseOptions{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the registry interactively",
		Long: `Start an interactive session over the composed view.

Each line of level=value pairs replaces the whole selection and prints the
first page of matching rows. Dot commands page through results, show the
hierarchy and reload the exports.`,
		Example: `  drugtree browse
  drugtree> created_year=2016 state=solid
  drugtree> group=approved, state=Unknown
  drugtree> .page 2
  drugtree> .tree`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")

	return cmd
}

func runBrowse(cmd *cobra.Command, opts *BrowseOptions) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	levels, err := cmdCtx.Cfg.HierarchyLevels()
	if err != nil {
		return err
	}

	composed, err := cmdCtx.Loader.LoadView(ctx)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	b := browser.New(composed,
		browser.WithPageSize(cmdCtx.Cfg.Browse.PageSize),
		browser.WithLogger(cmdCtx.Logger))

	s := &replSession{
		browser: b,
		levels:  levels,
		format:  opts.Format,
		page:    1,
		r:       cmdCtx.Renderer,
		reload:  func() error { return reloadBrowser(ctx, cmdCtx.Loader, b) },
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     filepath.Join(cmdCtx.Cfg.ProjectRoot, historyFileName),
		AutoComplete:    newSelectionCompleter(b),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "drugtree browser (%d rows)\n", composed.Len())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type level=value pairs to select, .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if s.handle(line) {
			break
		}
	}

	return nil
}

// newSelectionCompleter completes dot commands and level=value pairs for
// the values present in the composed view.
func newSelectionCompleter(b *browser.Browser) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range replCommands {
		items = append(items, readline.PcItem(cmd))
	}

	for _, l := range core.Levels() {
		nodes, err := b.Hierarchy([]core.Level{l})
		if err != nil {
			continue
		}
		for _, n := range nodes {
			if n.Value == hierarchy.NoValue {
				continue
			}
			items = append(items, readline.PcItem(fmt.Sprintf("%s=%s", l, n.Value)))
		}
	}

	return readline.NewPrefixCompleter(items...)
}

var replCommands = []string{
	".help", ".tree", ".levels", ".page", ".next", ".prev",
	".format", ".clear", ".reload", ".quit", ".exit",
}

func printREPLHelp(w io.Writer) {
	help := `
Selection:
  level=value ...           Replace the selection, e.g. created_year=2016 state=solid
  level=value, level=value  Comma separated form for values with spaces
  Levels: group, state, created_year (year), created_month (month)

Commands:
  .help             Show this help message
  .tree             Show the hierarchy of the composed view
  .levels [a,b,..]  Show or set the hierarchy levels
  .page <n>         Show page n of the current selection
  .next / .prev     Move one page forward or back
  .format <f>       Set the table format: table, json, csv, md
  .clear            Clear the selection
  .reload           Reload the registry from the source
  .quit / .exit     Exit the browser

Tips:
  - Use arrow keys to navigate history
  - Tab completion works for level=value pairs
`
	_, _ = fmt.Fprintln(w, help)
}
