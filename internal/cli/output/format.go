package output

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Dainanahan/drugtree/pkg/core"
)

// FormatHeader returns a Markdown heading.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a Markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// FormatCodeBlock returns a fenced code block.
func FormatCodeBlock(lang, code string) string {
	return "```" + lang + "\n" + strings.TrimRight(code, "\n") + "\n```"
}

var titleCaser = cases.Title(language.English)

// LevelLabel returns a human label for a hierarchy level, for example
// "Created Year".
func LevelLabel(l core.Level) string {
	return titleCaser.String(strings.ReplaceAll(string(l), "_", " "))
}

// FormatSelection renders a selection as "Label: value" pairs in
// predicate order, or "all" when empty.
func FormatSelection(sel core.Selection) string {
	if sel.Empty() {
		return "all"
	}
	parts := make([]string, 0, len(sel))
	for _, l := range core.Levels() {
		if v, ok := sel[l]; ok && v != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", LevelLabel(l), v))
		}
	}
	return strings.Join(parts, ", ")
}
