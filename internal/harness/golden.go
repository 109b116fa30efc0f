package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/polcheck/internal/engine"
	"github.com/roach88/polcheck/internal/ir"
)

// Snapshot is the golden rendering of a report. Content digests and the
// graph id are left out so snapshots survive hashing changes.
type Snapshot struct {
	ScenarioName string          `json:"scenario_name"`
	RunID        string          `json:"run_id"`
	Verdict      ir.Verdict      `json:"verdict"`
	Conclusion   string          `json:"conclusion"`
	Queries      []QuerySnapshot `json:"queries"`
}

// QuerySnapshot is the golden rendering of one privacy query outcome.
type QuerySnapshot struct {
	Query     string        `json:"query"`
	Verdict   ir.Verdict    `json:"verdict"`
	Stage     engine.Stage  `json:"stage"`
	Theorem   string        `json:"theorem"`
	Summary   string        `json:"summary"`
	Reasons   []string      `json:"reasons"`
	Witnesses int           `json:"witnesses"`
	Steps     []engine.Step `json:"steps"`
}

// NewSnapshot builds the snapshot of report.
func NewSnapshot(name string, report *engine.Report) Snapshot {
	s := Snapshot{
		ScenarioName: name,
		RunID:        report.RunID,
		Verdict:      report.Verdict,
		Conclusion:   report.Conclusion,
		Queries:      make([]QuerySnapshot, 0, len(report.Queries)),
	}
	for _, qr := range report.Queries {
		reasons := qr.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		s.Queries = append(s.Queries, QuerySnapshot{
			Query:     qr.Query,
			Verdict:   qr.Verdict,
			Stage:     qr.Stage,
			Theorem:   qr.Theorem,
			Summary:   qr.Summary,
			Reasons:   reasons,
			Witnesses: qr.Witnesses,
			Steps:     qr.Steps,
		})
	}
	return s
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
func (s Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the report against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the report doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's report against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result.Report).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
