package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Dainanahan/drugtree/internal/cli/output"
	"github.com/Dainanahan/drugtree/internal/hierarchy"
	"github.com/Dainanahan/drugtree/pkg/core"
)

// TreeOptions holds options for the tree command.
type TreeOptions struct {
	Format string
	Depth  int
}

// NewTreeCommand creates the tree command.
func NewTreeCommand() *cobra.Command {
	opts := &TreeOptions{}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the registry as a collapsible hierarchy",
		Long: `Group the composed view by the configured hierarchy levels and print
the resulting tree with a row count on every node.

The level order comes from --levels or browse.levels in drugtree.yaml.`,
		Example: `  # Default hierarchy: group, state, created_year, created_month
  drugtree tree

  # Years first, then groups, only two levels deep
  drugtree tree --levels created_year,group --depth 2

  # Machine readable
  drugtree tree --format yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTree(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, yaml (default from --output)")
	cmd.Flags().IntVar(&opts.Depth, "depth", 0, "Maximum depth to print (0 for all levels)")

	return cmd
}

func runTree(cmd *cobra.Command, opts *TreeOptions) error {
	cmdCtx := NewCommandContext(cmd)

	levels, err := cmdCtx.Cfg.HierarchyLevels()
	if err != nil {
		return err
	}

	view, err := cmdCtx.Loader.LoadView(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	nodes, err := hierarchy.Build(view, levels)
	if err != nil {
		return err
	}

	return renderTree(cmdCtx.Renderer, output.TreeOutput{
		Levels: levels,
		Total:  view.Len(),
		Nodes:  nodes,
	}, opts)
}

func renderTree(r *output.Renderer, tree output.TreeOutput, opts *TreeOptions) error {
	format := opts.Format
	if format == "" {
		switch r.EffectiveMode() {
		case output.ModeJSON:
			format = "json"
		case output.ModeMarkdown:
			format = "md"
		default:
			format = "text"
		}
	}

	switch format {
	case "json":
		return r.JSON(tree)
	case "yaml":
		enc := yaml.NewEncoder(r.Writer())
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return err
		}
		return enc.Close()
	case "md", "markdown":
		r.Println(output.FormatHeader(1, treeTitle(tree)))
		r.Println("")
		r.Println(treeList(tree.Nodes, opts.Depth).RenderMarkdown())
	case "text":
		styles := r.Styles()
		r.Header(1, treeTitle(tree))
		l := treeList(tree.Nodes, opts.Depth)
		l.SetStyle(list.StyleConnectedRounded)
		r.Println(l.Render())
		r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d rows", tree.Total)))
	default:
		return fmt.Errorf("unknown format %q (valid: text, json, yaml)", format)
	}
	return nil
}

func treeTitle(tree output.TreeOutput) string {
	if len(tree.Levels) == 0 {
		return "Registry"
	}
	labels := make([]string, len(tree.Levels))
	for i, l := range tree.Levels {
		labels[i] = output.LevelLabel(l)
	}
	return "Registry by " + strings.Join(labels, " / ")
}

func treeList(nodes []*hierarchy.Node, maxDepth int) list.Writer {
	l := list.NewWriter()
	var add func(ns []*hierarchy.Node, depth int)
	add = func(ns []*hierarchy.Node, depth int) {
		for _, n := range ns {
			l.AppendItem(fmt.Sprintf("%s (%d)", nodeLabel(n), n.Count))
			if len(n.Children) > 0 && (maxDepth <= 0 || depth+1 < maxDepth) {
				l.Indent()
				add(n.Children, depth+1)
				l.UnIndent()
			}
		}
	}
	add(nodes, 0)
	return l
}

func nodeLabel(n *hierarchy.Node) string {
	if n.Level == core.LevelCreatedMonth && n.Value != hierarchy.NoValue {
		return monthLabel(n.Value)
	}
	return n.Value
}

// monthLabel shows a month value with its name, for example "3 March".
func monthLabel(v string) string {
	m, err := strconv.Atoi(v)
	if err != nil || m < 1 || m > 12 {
		return v
	}
	return v + " " + time.Month(m).String()
}
