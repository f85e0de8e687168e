package commands

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leappatch/internal/cli/output"
	"github.com/leapstack-labs/leappatch/internal/cli/testutil"
	"github.com/leapstack-labs/leappatch/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brokenPlan = `target: src/server.ts
regions:
  - name: startup
    start: "app.listen("
    end: "}"
    replace: x
inserts:
  - name: routes
    guard: "GUARD"
    anchor: "// anchor"
    block: "no marker here"
`

func TestPlanValidateCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	out, _, err := execute(t, "plan", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan is valid (4 rules)")
}

func TestPlanValidateCommand_Issues(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, plan.FileName), []byte(brokenPlan), 0o644))
	t.Chdir(dir)

	out, _, err := execute(t, "plan", "validate", "-o", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))

	var result output.ValidateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 2)
	assert.Contains(t, result.Issues[0], "regions[0].start")
	assert.Contains(t, result.Issues[1], "inserts[0].block")
}

func TestPlanShowCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	out, _, err := execute(t, "plan", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "- **target:** "+filepath.Join("src", "server.ts"))
	assert.Contains(t, out, "- **var default_project:** cfg.defaultProjectId")
	assert.Contains(t, out, "project-routes")

	out, _, err = execute(t, "plan", "show", "-o", "json", "--strict")
	require.NoError(t, err)

	var result output.PlanOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Strict)
	assert.Equal(t, filepath.Join(dir, "src", "server.ts"), result.Target)

	names := make([]string, 0, len(result.Rules))
	stages := make([]string, 0, len(result.Rules))
	for _, r := range result.Rules {
		names = append(names, r.Name)
		stages = append(stages, r.Stage)
	}
	assert.Equal(t, []string{"widget", "dashboard", "startup", "project-routes"}, names)
	assert.Equal(t, []string{"inject", "inject", "region", "insert"}, stages)
}

func TestPlanShowCommand_InvalidPlan(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, plan.FileName), []byte(brokenPlan), 0o644))
	t.Chdir(dir)

	_, _, err := execute(t, "plan", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid plan")
}

func TestPlanIssues(t *testing.T) {
	assert.Nil(t, planIssues(nil))
	err := errors.Join(errors.New("one"), errors.Join(errors.New("two"), errors.New("three")))
	assert.Equal(t, []string{"one", "two", "three"}, planIssues(err))
}
