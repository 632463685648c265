package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dainanahan/drugtree/internal/browser"
	"github.com/Dainanahan/drugtree/internal/cli/output"
	"github.com/Dainanahan/drugtree/internal/loader"
	"github.com/Dainanahan/drugtree/pkg/core"
)

// replSession is the state of one interactive browse session. Every
// selection line is a new event that replaces the previous selection.
type replSession struct {
	browser *browser.Browser
	levels  []core.Level
	format  string
	page    int
	r       *output.Renderer
	reload  func() error
}

// handle processes one input line and reports whether the session ends.
func (s *replSession) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ".") {
		return s.handleDotCommand(line)
	}

	sel, err := parseSelectionLine(line)
	if err != nil {
		s.r.Error(err.Error())
		return false
	}
	s.browser.Select(sel)
	s.page = 1
	s.showPage()
	return false
}

func (s *replSession) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.r.Writer())

	case ".tree":
		nodes, err := s.browser.Hierarchy(s.levels)
		if err != nil {
			s.r.Error(err.Error())
			return false
		}
		tree := output.TreeOutput{Levels: s.levels, Total: s.browser.Composed().Len(), Nodes: nodes}
		if err := renderTree(s.r, tree, &TreeOptions{Format: "text"}); err != nil {
			s.r.Error(err.Error())
		}

	case ".levels":
		if len(parts) < 2 {
			s.r.Println(levelNames(s.levels))
			return false
		}
		levels, err := core.ParseLevels(strings.Split(strings.Join(parts[1:], ""), ","))
		if err != nil {
			s.r.Error(err.Error())
			return false
		}
		s.levels = levels
		s.r.Println(levelNames(s.levels))

	case ".page":
		if len(parts) < 2 {
			s.r.Error("Usage: .page <n>")
			return false
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			s.r.Error(fmt.Sprintf("invalid page number %q", parts[1]))
			return false
		}
		s.page = n
		s.showPage()

	case ".next":
		s.page++
		s.showPage()

	case ".prev":
		s.page--
		s.showPage()

	case ".format":
		if len(parts) < 2 {
			s.r.Println(s.format)
			return false
		}
		s.format = parts[1]
		s.showPage()

	case ".clear":
		s.browser.Select(core.Selection{})
		s.page = 1
		s.showPage()

	case ".reload":
		if s.reload == nil {
			return false
		}
		if err := s.reload(); err != nil {
			s.r.Error(err.Error())
			return false
		}
		s.r.Success(fmt.Sprintf("reloaded %d rows", s.browser.Composed().Len()))
		s.showPage()

	default:
		s.r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

// showPage renders the current page and clamps the page number to the
// pages that exist.
func (s *replSession) showPage() {
	cur := s.browser.Current()
	page := cur.View.Page(s.page, s.browser.PageSize())
	s.page = page.Number
	if err := renderPage(s.r, cur.Selection, page, s.format); err != nil {
		s.r.Error(err.Error())
	}
}

// parseSelectionLine parses "level=value" pairs separated by whitespace,
// or by commas when a value contains spaces. A level named twice must
// carry the same value each time.
func parseSelectionLine(line string) (core.Selection, error) {
	var parts []string
	if strings.Contains(line, ",") {
		parts = strings.Split(line, ",")
	} else {
		parts = strings.Fields(line)
	}

	sel := make(core.Selection, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("expected level=value, got %q", p)
		}
		pair, err := core.ParseSelection(map[string]string{strings.TrimSpace(k): strings.TrimSpace(v)})
		if err != nil {
			return nil, err
		}
		for l, v := range pair {
			if prev, dup := sel[l]; dup && prev != v {
				return nil, &core.ConflictingLevelError{Level: l, Values: []string{prev, v}}
			}
			sel[l] = v
		}
	}
	return sel, nil
}

func levelNames(levels []core.Level) string {
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}
	return "levels: " + strings.Join(names, ", ")
}

// reloadBrowser recomposes the registry and swaps it into b, keeping the
// current selection.
func reloadBrowser(ctx context.Context, l *loader.Loader, b *browser.Browser) error {
	view, err := l.LoadView(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload registry: %w", err)
	}
	b.Reload(view)
	return nil
}
