package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Dainanahan/drugtree/internal/cli"
	"github.com/Dainanahan/drugtree/internal/cli/config"
)

// generateCLIDocs writes index.md plus one page per visible command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	pages := map[string][]byte{"index.md": cliIndex(root)}
	for _, cmd := range visibleCommands(root) {
		pages[cmd.Name()+".md"] = commandPage(cmd)
	}

	for name, body := range pages {
		if err := os.WriteFile(filepath.Join(outDir, name), body, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

func visibleCommands(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || !cmd.IsAvailableCommand() || cmd.Name() == "help" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// envVar names the environment variable that overrides a config key.
func envVar(key string) string {
	return config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

func cliIndex(root *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for drugtree")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph("drugtree joins a drug registry export with its group memberships and browses the result by group, physical state, and creation date.")
	w.CodeBlock("bash", "go install github.com/Dainanahan/drugtree/cmd/drugtree@latest\ndrugtree <command> [options]")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range visibleCommands(root) {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	w.Paragraph(fmt.Sprintf("Each global option overrides a key in drugtree.yaml, which in turn can be set through the listed environment variable. %s sets the web UI cookie secret.",
		InlineCode(config.EnvPrefix+"SESSION_SECRET")))
	writeFlagsTable(w, root.PersistentFlags(), true)
	w.Paragraph("Flags win over environment variables, which win over drugtree.yaml. drugtree exits 1 on any error and prints it to stderr.")

	return w.Bytes()
}

func commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	w.Paragraph(desc)

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())

	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags(), false)
	}
	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}
	return w.Bytes()
}

// writeFlagsTable lists flags. With keys set it adds the config key and
// environment variable each flag overrides.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet, keys bool) {
	headers := []string{"Option", "Default", "Description"}
	if keys {
		headers = append(headers, "Config Key", "Environment")
	}

	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		opt := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			opt += ", " + InlineCode("-"+f.Shorthand)
		}
		def := ""
		switch f.DefValue {
		case "", "[]", "0", "false":
		default:
			def = InlineCode(f.DefValue)
		}

		row := []string{opt, def, cleanDescription(f.Usage)}
		if keys {
			key, env := "", ""
			if k := config.FlagKey(f.Name); k != "" {
				key, env = InlineCode(k), InlineCode(envVar(k))
			}
			row = append(row, key, env)
		}
		rows = append(rows, row)
	})
	w.Table(headers, rows)
}

// cleanExample strips the indentation shared by every non-blank line.
func cleanExample(example string) string {
	lines := strings.Split(example, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, line := range lines {
		if len(line) >= indent && indent > 0 {
			lines[i] = line[indent:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
