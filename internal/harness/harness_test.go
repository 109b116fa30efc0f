package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polcheck/internal/ir"
)

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario errors: %v", result.Errors)
		})
	}
}

func TestRun_EvaluatorsAgree(t *testing.T) {
	base := &Scenario{
		Name:        "agree",
		Description: "Both evaluators produce the same report",
		Privacy:     "SELECT ?x WHERE { ?x <urn:age> ?y FILTER(?y > 18) }\nSELECT ?x ?y WHERE { ?x <urn:age> ?y }",
		Utility:     "SELECT ?a ?b WHERE { ?a <urn:age> ?b FILTER(?b > 20) }",
		Assertions:  []Assertion{{Type: AssertVerdict, Verdict: "Incompatible"}},
	}

	var snapshots []Snapshot
	for _, evaluator := range []string{"mangle", "sqlite"} {
		s := *base
		s.Evaluator = evaluator
		result, err := Run(&s)
		require.NoError(t, err)
		assert.True(t, result.Pass, "%s: %v", evaluator, result.Errors)
		snapshots = append(snapshots, NewSnapshot(s.Name, result.Report))
	}
	assert.Equal(t, snapshots[0], snapshots[1])
}

func TestRun_FailedAssertions(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing",
		Description: "Every assertion is wrong",
		Privacy:     "SELECT ?x ?y WHERE { ?x <urn:age> ?y }",
		Utility:     "SELECT ?x ?y WHERE { ?x <urn:age> ?y }",
		Assertions: []Assertion{
			{Type: AssertVerdict, Verdict: "Compatible"},
			{Type: AssertQueryVerdict, Query: "PQ1", Verdict: "Maybe"},
			{Type: AssertTheorem, Query: "PQ1", Theorem: "4.3"},
			{Type: AssertReasonContains, Query: "PQ1", Text: "line 7"},
			{Type: AssertWitnessCount, Query: "PQ1", Count: 3},
			{Type: AssertTheorem, Query: "PQ9", Theorem: "4.3"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], "Expected: Compatible")
	assert.Contains(t, result.Errors[0], "Actual: Incompatible")
	assert.Contains(t, result.Errors[2], "theorem 4.1")
	assert.Contains(t, result.Errors[4], "1 witness rows")
	assert.Contains(t, result.Errors[5], "not in report")
	assert.Equal(t, ir.Incompatible, result.Report.Verdict)
}

func TestRun_LoadErrors(t *testing.T) {
	scenario := &Scenario{
		Name:        "broken",
		Description: "Privacy document has no query",
		Privacy:     "# nothing to check",
		Utility:     "SELECT ?x WHERE { ?x <urn:age> ?y }",
		Assertions:  []Assertion{{Type: AssertVerdict, Verdict: "Compatible"}},
	}
	_, err := Run(scenario)
	assert.ErrorContains(t, err, "failed to load privacy policy")

	scenario.Privacy = "SELECT ?x WHERE { ?x <urn:age> ?y }"
	scenario.UtilityFile = filepath.Join(t.TempDir(), "missing.cue")
	scenario.Utility = ""
	_, err = Run(scenario)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAssertGolden_ExistingResult(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "genuine_binding.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, "genuine_binding", result))
}
