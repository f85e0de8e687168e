package plan

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Default returns the starter plan written by `leappatch init`. It scopes
// a generated Express server to a default project.
func Default() *Plan {
	return &Plan{
		Target:   "src/server.ts",
		Encoding: "utf-8",
		Vars: map[string]string{
			"default_project": "cfg.defaultProjectId",
		},
		Inject: &InjectSpec{
			Opening: "prisma.{{ kind }}.create({ data: {",
			Line:    "      projectId: {{ default_project }},",
			Kinds:   []string{"widget", "dashboard"},
		},
		Regions: []RegionSpec{{
			Name:  "startup",
			Start: `app\.listen\(PORT, '0\.0\.0\.0', \(\) => \{\s*`,
			End:   "// Start the lightweight job scheduler",
			Replace: "const server = app.listen(PORT, '0.0.0.0', async () => {\n" +
				"  ${body}await ensureDefaultProject();\n\n" +
				"  // Start the lightweight job scheduler",
			Guard: "ensureDefaultProject",
		}},
		Inserts: []InsertSpec{{
			Name:   "project-routes",
			Guard:  "app.get('/projects'",
			Anchor: "// ── Health Checks (no auth) ──",
			Block:  "// ── Projects ──\napp.get('/projects', listProjects);\n\n",
		}},
	}
}

// Encode writes the plan as YAML.
func (p *Plan) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return enc.Close()
}

// Bytes returns the YAML form of the plan.
func (p *Plan) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
