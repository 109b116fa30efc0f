package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/polcheck/internal/compiler"
	"github.com/roach88/polcheck/internal/engine"
	"github.com/roach88/polcheck/internal/ir"
	"github.com/roach88/polcheck/internal/parser"
	"github.com/roach88/polcheck/internal/testutil"
)

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh evaluator (an in-memory database for
// sqlite) and a fresh engine, so Skolem generations and the run id are
// the same on every run.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
//
// Execution flow:
// 1. Load the privacy and utility documents
// 2. Open the evaluator backend
// 3. Check the policies with a fixed run id
// 4. Evaluate assertions against the report
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	privacy, err := loadPolicy(scenario.Privacy, scenario.PrivacyFile, "PQ")
	if err != nil {
		return nil, fmt.Errorf("failed to load privacy policy: %w", err)
	}
	utility, err := loadPolicy(scenario.Utility, scenario.UtilityFile, "UQ")
	if err != nil {
		return nil, fmt.Errorf("failed to load utility policy: %w", err)
	}

	eval, closeEval, err := engine.OpenEvaluator(scenario.Evaluator, "")
	if err != nil {
		return nil, err
	}
	defer closeEval()

	eng := engine.New(eval,
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)

	report, err := eng.Check(ctx, privacy, utility)
	if err != nil {
		return nil, fmt.Errorf("failed to check policies: %w", err)
	}

	result := NewResult(report)
	for _, errMsg := range EvaluateAssertions(report, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func loadPolicy(inline, file, prefix string) ([]*ir.Query, error) {
	if file != "" {
		return compiler.LoadFile(file, prefix)
	}
	return parser.ParseDocument(inline, prefix)
}
