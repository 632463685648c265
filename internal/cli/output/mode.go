// Package output renders command results for terminals, scripts and
// agents.
//
// In auto mode a terminal gets styled text and anything else gets
// Markdown. JSON is always explicit.
package output

import "strings"

// OutputMode selects how results are written.
type OutputMode string //nolint:revive

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Mode parses a configured output format. Unknown values fall back to
// auto.
func Mode(s string) OutputMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "plain":
		return ModeText
	case "markdown", "md":
		return ModeMarkdown
	case "json":
		return ModeJSON
	}
	return ModeAuto
}

// Modes lists the accepted --output values.
func Modes() []string {
	return []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON)}
}
