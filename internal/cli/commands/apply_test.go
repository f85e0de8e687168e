package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leappatch/internal/cli/output"
	"github.com/leapstack-labs/leappatch/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readServer(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "src", "server.ts"))
	require.NoError(t, err)
	return string(data)
}

func TestApplyCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	out, _, err := execute(t, "apply")
	require.NoError(t, err)

	got := readServer(t, dir)
	assert.Equal(t, 2, strings.Count(got, "projectId: cfg.defaultProjectId,"))
	assert.Contains(t, got, "await ensureDefaultProject();")
	assert.Contains(t, got, "app.get('/projects', listProjects);")

	assert.Contains(t, out, "## Apply: "+filepath.Join("src", "server.ts"))
	assert.Contains(t, out, "| widget")
	assert.Contains(t, out, "Patched")
	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)

	// second run is a no-op
	out, _, err = execute(t, "apply")
	require.NoError(t, err)
	assert.Equal(t, got, readServer(t, dir))
	assert.Contains(t, out, "Up to date")
}

func TestApplyCommand_DryRun(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	out, _, err := execute(t, "apply", "--dry-run", "--no-history")
	require.NoError(t, err)

	assert.Equal(t, testutil.ServerTS, readServer(t, dir))
	assert.Contains(t, out, "```diff")
	assert.Contains(t, out, "--- a/server.ts")
	assert.Contains(t, out, "+++ b/server.ts")
	assert.Contains(t, out, "+      projectId: cfg.defaultProjectId,")
	assert.Contains(t, out, "nothing written")
	testutil.AssertValidMarkdown(t, out)

	_, err = os.Stat(filepath.Join(dir, ".leappatch"))
	assert.True(t, os.IsNotExist(err), "--no-history must not create the history database")
}

func TestApplyCommand_JSON(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	out, _, err := execute(t, "apply", "-o", "json")
	require.NoError(t, err)

	var result output.RunOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "persisted", result.State)
	assert.True(t, result.Changed)
	assert.True(t, result.Written)
	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Outcomes, 4)
	for _, o := range result.Outcomes {
		assert.Equal(t, "applied", o.Status, o.Rule)
	}
}

func TestApplyCommand_TargetOverride(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	copyPath := filepath.Join(dir, "copy.ts")
	require.NoError(t, os.WriteFile(copyPath, []byte(testutil.ServerTS), 0o644))
	t.Chdir(dir)

	_, _, err := execute(t, "apply", "--target", "copy.ts", "--no-history")
	require.NoError(t, err)

	assert.Equal(t, testutil.ServerTS, readServer(t, dir))
	data, err := os.ReadFile(copyPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ensureDefaultProject")
}

func TestApplyCommand_Strict(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	// Drop the health anchor so the insert finds nothing.
	server := strings.Replace(testutil.ServerTS, "// ── Health Checks (no auth) ──\n", "", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "server.ts"), []byte(server), 0o644))

	_, stderr, err := execute(t, "apply", "--no-history")
	require.NoError(t, err, "a missing anchor is not fatal by default")
	assert.Contains(t, stderr, "found nothing to patch")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "server.ts"), []byte(server), 0o644))
	_, _, err = execute(t, "apply", "--strict", "--no-history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project-routes")
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Equal(t, server, readServer(t, dir), "strict failure must not write")
}

func TestApplyCommand_MissingPlan(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := execute(t, "apply")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leappatch init")
}

func TestApplyCommand_MissingTarget(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "src", "server.ts")))
	t.Chdir(dir)

	_, _, err := execute(t, "apply", "--no-history")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
