package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode OutputMode, tty bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, tty, mode), out, errOut
}

func TestMode(t *testing.T) {
	tests := map[string]OutputMode{
		"":         ModeAuto,
		"auto":     ModeAuto,
		"TEXT":     ModeText,
		"md":       ModeMarkdown,
		"markdown": ModeMarkdown,
		"json":     ModeJSON,
		"yaml":     ModeAuto,
	}
	for in, want := range tests {
		assert.Equal(t, want, Mode(in), in)
	}
	assert.True(t, ValidMode("json"))
	assert.False(t, ValidMode("yaml"))
}

func TestRenderer_EffectiveMode(t *testing.T) {
	r, _, _ := newTestRenderer(ModeAuto, true)
	assert.Equal(t, ModeText, r.EffectiveMode())

	r, _, _ = newTestRenderer(ModeAuto, false)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())

	r, _, _ = newTestRenderer(ModeJSON, true)
	assert.Equal(t, ModeJSON, r.EffectiveMode())
}

func TestRenderer_Markdown(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeAuto, false)

	r.Header(2, "Outcomes")
	r.StatusLine("widget", "success", "applied(3)")
	r.Success("done")
	r.Warning("careful")
	r.Table([]string{"Rule", "Status"}, [][]string{{"widget", "applied"}})

	got := out.String()
	assert.Contains(t, got, "## Outcomes\n")
	assert.Contains(t, got, "- ✓ `widget` applied(3)\n")
	assert.Contains(t, got, "**done**")
	assert.Contains(t, got, "| Rule | Status |")
	assert.Contains(t, got, "| widget | applied |")
	assert.NotContains(t, got, "\x1b[")
	assert.Contains(t, errOut.String(), "> **Warning:** careful")
}

func TestRenderer_TextWithoutColourProfile(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText, false)
	r.StatusLine("startup", "skipped", "")
	r.Table([]string{"Rule"}, [][]string{{"startup"}})

	got := out.String()
	assert.Contains(t, got, "- startup")
	assert.Contains(t, got, "┌")
	assert.NotContains(t, got, "\x1b[")
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(RunOutput{Target: "a.ts", State: "persisted", Outcomes: []OutcomeInfo{}}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "a.ts", decoded["target"])
	assert.Equal(t, false, decoded["changed"])
}

func TestFormatCodeBlock(t *testing.T) {
	assert.Equal(t, "```diff\n+a\n```", FormatCodeBlock("diff", "+a"))
	assert.Equal(t, "````\nx ``` y\n````", FormatCodeBlock("", "x ``` y\n"))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "### Sub", FormatHeader(3, "Sub"))
	assert.Equal(t, "- **Target:** a.ts", FormatKeyValue("Target", "a.ts"))
}
