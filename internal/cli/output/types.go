package output

import (
	"github.com/Dainanahan/drugtree/internal/hierarchy"
	"github.com/Dainanahan/drugtree/pkg/core"
)

// ViewOutput is the JSON form of one page of a filtered view.
type ViewOutput struct {
	Selection map[string]string `json:"selection"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
	Total     int               `json:"total"`
	Pages     int               `json:"pages"`
	Rows      []*core.Row       `json:"rows"`
}

// NewViewOutput builds a ViewOutput from a selection and a page.
func NewViewOutput(sel core.Selection, p core.Page) ViewOutput {
	out := ViewOutput{
		Selection: make(map[string]string, len(sel)),
		Page:      p.Number,
		PageSize:  p.Size,
		Total:     p.Total,
		Pages:     p.Pages,
		Rows:      p.Rows,
	}
	for l, v := range sel {
		out.Selection[string(l)] = v
	}
	if out.Rows == nil {
		out.Rows = []*core.Row{}
	}
	return out
}

// TreeOutput is the JSON and YAML form of a hierarchy.
type TreeOutput struct {
	Levels []core.Level      `json:"levels" yaml:"levels"`
	Total  int               `json:"total" yaml:"total"`
	Nodes  []*hierarchy.Node `json:"nodes" yaml:"nodes"`
}

// SourceInfo describes one registered source adapter.
type SourceInfo struct {
	Name          string `json:"name"`
	DefaultSchema string `json:"default_schema"`
	Configured    bool   `json:"configured"`
}

// VersionOutput is the JSON form of the version command.
type VersionOutput struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
}
