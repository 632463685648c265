package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dainanahan/drugtree/pkg/core"
)

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"", ModeAuto},
		{"auto", ModeAuto},
		{"TEXT", ModeText},
		{"md", ModeMarkdown},
		{"markdown", ModeMarkdown},
		{" json ", ModeJSON},
		{"xml", ModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mode(tt.in))
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	var out, errOut bytes.Buffer

	assert.Equal(t, ModeText, NewRendererWithTTY(&out, &errOut, true, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRendererWithTTY(&out, &errOut, false, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeJSON, NewRendererWithTTY(&out, &errOut, true, ModeJSON).EffectiveMode())
	assert.Equal(t, ModeText, NewRendererWithTTY(&out, &errOut, false, ModeText).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRenderer(&out, &errOut, "").EffectiveMode(), "buffers are never terminals")
}

func TestRenderer_MarkdownHasNoANSI(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeMarkdown)

	r.Header(1, "Drugs")
	r.KeyValue("Selection", "all")
	r.Success("loaded")
	r.Error("broken")

	assert.Contains(t, out.String(), "# Drugs\n")
	assert.Contains(t, out.String(), "- **Selection**: all")
	assert.Contains(t, out.String(), "✓ loaded")
	assert.Contains(t, errOut.String(), "✗ broken")
	assert.NotContains(t, out.String()+errOut.String(), "\x1b[")
}

func TestRenderer_TextNonTTYIsPlain(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeText)

	r.Header(1, "Tree")
	r.KeyValue("Rows", "6")

	assert.Contains(t, out.String(), "Tree\n────")
	assert.Contains(t, out.String(), "Rows: 6")
	assert.NotContains(t, out.String(), "\x1b[")
}

func TestRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &out, false, ModeJSON)
	require.NoError(t, r.JSON(VersionOutput{Version: "1.0.0", GoVersion: "go1.24"}))

	var got VersionOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "1.0.0", got.Version)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "## Groups", FormatHeader(2, "Groups"))
	assert.Equal(t, "# Top", FormatHeader(0, "Top"))
	assert.Equal(t, "```sql\nSELECT 1\n```", FormatCodeBlock("sql", "SELECT 1\n"))

	assert.Equal(t, "Created Year", LevelLabel(core.LevelCreatedYear))
	assert.Equal(t, "Group", LevelLabel(core.LevelGroup))

	assert.Equal(t, "all", FormatSelection(nil))
	assert.Equal(t, "Created Year: 2016, State: solid",
		FormatSelection(core.Selection{core.LevelState: "solid", core.LevelCreatedYear: "2016"}))
}

func TestNewViewOutput(t *testing.T) {
	v := core.NewView(nil)
	out := NewViewOutput(core.Selection{core.LevelGroup: "approved"}, v.Page(1, 10))

	assert.Equal(t, map[string]string{"group": "approved"}, out.Selection)
	assert.NotNil(t, out.Rows)
	assert.Equal(t, 0, out.Total)
	assert.Equal(t, 1, out.Pages)
}
