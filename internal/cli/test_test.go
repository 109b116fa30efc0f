package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polcheck/internal/harness"
)

const leakScenario = `name: tmp_leak
description: "Utility query discloses the protected pair"
privacy: |
  SELECT ?x ?y WHERE { ?x <urn:name> ?y }
utility: |
  SELECT ?a ?b WHERE { ?a <urn:name> ?b }
assertions:
  - type: verdict
    verdict: Incompatible
`

func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// scenarioDir lays out dir/scenarios/<name>.yaml and returns the scenarios
// directory. The default golden directory is dir/golden.
func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeTest(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := executeTest(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDirectory(t *testing.T) {
	dir := scenarioDir(t, nil)

	output, err := executeTest(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, output, "No scenarios found.")

	output, err = executeTest(t, "json", dir)
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	scenarios := filepath.Join("..", "harness", "testdata", "scenarios")

	output, err := executeTest(t, "text", scenarios)
	require.NoError(t, err, output)
	assert.Contains(t, output, "✓ genuine_binding")
	assert.Contains(t, output, "✓ mixed_policy")
	assert.Contains(t, output, "4 passed, 0 failed, 4 total")
	assert.Contains(t, output, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	scenarios := filepath.Join("..", "harness", "testdata", "scenarios")

	output, err := executeTest(t, "json", scenarios, "--filter", "genuine_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "genuine_binding", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}

func TestTestCommandInvalidFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"leak.yaml": leakScenario})

	_, err := executeTest(t, "text", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandUpdateWritesGolden(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"leak.yaml": leakScenario})
	goldenPath := filepath.Join(filepath.Dir(dir), "golden", "tmp_leak.golden")

	output, err := executeTest(t, "text", dir, "--update")
	require.NoError(t, err, output)
	assert.Contains(t, output, "✓ tmp_leak (golden updated)")

	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)

	scenario, err := harness.LoadScenario(filepath.Join(dir, "leak.yaml"))
	require.NoError(t, err)
	result, err := harness.Run(scenario)
	require.NoError(t, err)
	want, err := harness.NewSnapshot(scenario.Name, result.Report).Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(data))

	// A second run compares against the written file.
	output, err = executeTest(t, "text", dir)
	require.NoError(t, err, output)
	assert.Contains(t, output, "✓ tmp_leak\n")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"leak.yaml": leakScenario})
	goldenDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(goldenDir, "tmp_leak.golden"), []byte("{}\n"), 0644))

	output, err := executeTest(t, "text", dir, "--golden", goldenDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✗ tmp_leak")
	assert.Contains(t, output, "Golden file mismatch")
}

func TestTestCommandFailedAssertion(t *testing.T) {
	failing := `name: wrong_verdict
description: "Expects the wrong verdict"
privacy: |
  SELECT ?x ?y WHERE { ?x <urn:name> ?y }
utility: |
  SELECT ?a ?b WHERE { ?a <urn:name> ?b }
assertions:
  - type: verdict
    verdict: Compatible
`
	dir := scenarioDir(t, map[string]string{"wrong.yaml": failing})

	output, err := executeTest(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"bad.yaml": "name: bad\n"})

	output, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, output, "✗ bad.yaml")
	assert.Contains(t, output, "failed to load scenario")
}
