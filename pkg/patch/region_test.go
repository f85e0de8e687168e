package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionReplace(t *testing.T) {
	tests := []struct {
		name       string
		start      string
		end        string
		template   string
		guard      string
		input      string
		want       string
		status     Status
		candidates int
	}{
		{
			name:       "wraps captured body",
			start:      `<start>`,
			end:        "<end>",
			template:   "[${body}]",
			input:      "A <start> X <end> B",
			want:       "A [ X ] B",
			status:     StatusApplied,
			candidates: 1,
		},
		{
			name:       "spans lines non-greedily",
			start:      `BEGIN`,
			end:        "END",
			template:   "NEW",
			input:      "pre\nBEGIN\none\nEND\nmid\nEND\n",
			want:       "pre\nNEW\nmid\nEND\n",
			status:     StatusApplied,
			candidates: 1,
		},
		{
			name:     "missing end marker leaves input unchanged",
			start:    `<start>`,
			end:      "<end>",
			template: "[${body}]",
			input:    "A <start> X B",
			want:     "A <start> X B",
			status:   StatusNotFound,
		},
		{
			name:     "end before start is not a match",
			start:    `<start>`,
			end:      "<end>",
			template: "[${body}]",
			input:    "A <end> X <start> B",
			want:     "A <end> X <start> B",
			status:   StatusNotFound,
		},
		{
			name:     "missing start anchor",
			start:    `<start>`,
			end:      "<end>",
			template: "x",
			input:    "A X <end> B",
			want:     "A X <end> B",
			status:   StatusNotFound,
		},
		{
			name:       "only the first span is replaced",
			start:      `<s>`,
			end:        "</s>",
			template:   "(${body})",
			input:      "<s>1</s> <s>2</s>",
			want:       "(1) <s>2</s>",
			status:     StatusApplied,
			candidates: 2,
		},
		{
			name:       "start anchor groups are available",
			start:      `const (\w+) = `,
			end:        ";",
			template:   "let ${1} = wrap(${body});",
			input:      "const port = 3000;\n",
			want:       "let port = wrap(3000);\n",
			status:     StatusApplied,
			candidates: 1,
		},
		{
			name:       "unknown references are kept verbatim",
			start:      `listen\(`,
			end:        ")",
			template:   "listen(`:${PORT}` + ${body})",
			guard:      "`:${PORT}`",
			input:      "app.listen(port)",
			want:       "app.listen(`:${PORT}` + port)",
			status:     StatusApplied,
			candidates: 1,
		},
		{
			name:     "guard skips the rule",
			start:    `<start>`,
			end:      "<end>",
			template: "[${body}] // patched",
			guard:    "// patched",
			input:    "// patched\nA <start> X <end> B",
			want:     "// patched\nA <start> X <end> B",
			status:   StatusSkippedGuarded,
		},
		{
			name:       "fixed point is reported as already applied",
			start:      `<start>`,
			end:        "<end>",
			template:   "<start>${body}<end>",
			input:      "A <start> X <end> B",
			want:       "A <start> X <end> B",
			status:     StatusSkippedGuarded,
			candidates: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewRegionReplace("r", tt.start, tt.end, tt.template, tt.guard)
			require.NoError(t, err)

			out, o := rule.Apply(tt.input)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.status, o.Status)
			assert.Equal(t, tt.candidates, o.Candidates)
		})
	}
}

func TestRegionReplace_StartupBlock(t *testing.T) {
	input := `app.use(router);

const PORT = parseInt(process.env.PORT || '3000', 10);

app.listen(PORT, '0.0.0.0', () => {
  logger.info(` + "`listening on ${PORT}`" + `);
  // Start the lightweight job scheduler
  scheduler.start();
});
`
	template := `const PORT = parseInt(process.env.PORT || '3000', 10);

const server = app.listen(PORT, '0.0.0.0', async () => {
  ${1}
  await ensureDefaultProject();

  // Start the lightweight job scheduler`

	rule, err := NewRegionReplace("startup",
		`const PORT = parseInt.*?app\.listen.*?\{\s*(logger\.info.*?)\n\s*`,
		"// Start the lightweight job scheduler", template, "ensureDefaultProject")
	require.NoError(t, err)

	out, o := rule.Apply(input)
	require.Equal(t, StatusApplied, o.Status)
	assert.Contains(t, out, "app.use(router);\n\nconst PORT")
	assert.Contains(t, out, "  logger.info(`listening on ${PORT}`);\n  await ensureDefaultProject();")
	assert.Contains(t, out, "// Start the lightweight job scheduler\n  scheduler.start();\n});\n")
}

func TestNewRegionReplace_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		template string
		field    string
	}{
		{name: "empty start", start: "", end: "x", field: "start"},
		{name: "empty end", start: "x", end: "", field: "end"},
		{name: "bad regexp", start: "(", end: "x", field: "start"},
		{name: "reserved group", start: "(?P<body>a)", end: "x", field: "start"},
		{name: "template rewraps itself", start: "<start>", end: "<end>", template: "<start>[${body}]<end>", field: "replace"},
		{name: "template reopens the span", start: `const (\w+) = `, end: ";", template: "const port = (${body});", field: "replace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegionReplace("r", tt.start, tt.end, tt.template, "")
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestRegionReplace_RerunIsNoop(t *testing.T) {
	tests := []struct {
		name     string
		template string
		guard    string
		want     string
	}{
		{name: "wrap with guard", template: "<start>[${body}]<end> // wrapped", guard: "// wrapped", want: "A <start>[ X ]<end> // wrapped B"},
		{name: "unwrap", template: "[${body}]", want: "A [ X ] B"},
		{name: "fixed point", template: "<start>${body}<end>", want: "A <start> X <end> B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewRegionReplace("wrap", "<start>", "<end>", tt.template, tt.guard)
			require.NoError(t, err)
			eng := NewEngine([]Rule{rule})

			first, _, err := eng.Transform(t.Context(), "A <start> X <end> B")
			require.NoError(t, err)
			assert.Equal(t, tt.want, first)

			second, outcomes, err := eng.Transform(t.Context(), first)
			require.NoError(t, err)
			assert.Equal(t, first, second)
			require.Len(t, outcomes, 1)
			assert.NotEqual(t, StatusApplied, outcomes[0].Status)
		})
	}
}
