package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/polcheck/internal/engine"
	"github.com/roach88/polcheck/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Report   *engine.Report // Full report for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Report != nil {
		fmt.Fprintf(&buf, "\nReport (%s):\n", e.Report.Verdict)
		for _, qr := range e.Report.Queries {
			fmt.Fprintf(&buf, "  %s %s (theorem %s)\n", qr.Query, qr.Verdict, qr.Theorem)
			for _, r := range qr.Reasons {
				fmt.Fprintf(&buf, "    - %s\n", r)
			}
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure
// messages in assertion order.
func EvaluateAssertions(report *engine.Report, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluateAssertion(report, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluateAssertion(report *engine.Report, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Report: report}
	}

	if a.Type == AssertVerdict {
		return assertVerdict(report.Verdict, a.Verdict, fail)
	}

	qr := findQuery(report, a.Query)
	if qr == nil {
		return fail(fmt.Sprintf("privacy query %s", a.Query), "not in report")
	}

	switch a.Type {
	case AssertQueryVerdict:
		return assertVerdict(qr.Verdict, a.Verdict, fail)
	case AssertTheorem:
		if qr.Theorem != a.Theorem {
			return fail("theorem "+a.Theorem, "theorem "+qr.Theorem)
		}
	case AssertReasonContains:
		for _, r := range qr.Reasons {
			if strings.Contains(r, a.Text) {
				return nil
			}
		}
		return fail(fmt.Sprintf("a reason containing %q", a.Text), fmt.Sprintf("reasons %q", qr.Reasons))
	case AssertWitnessCount:
		if qr.Witnesses != a.Count {
			return fail(fmt.Sprintf("%d witness rows", a.Count), fmt.Sprintf("%d witness rows", qr.Witnesses))
		}
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
	return nil
}

func assertVerdict(got ir.Verdict, want string, fail func(string, string) error) error {
	var v ir.Verdict
	if err := v.UnmarshalText([]byte(want)); err != nil {
		return err
	}
	if got != v {
		return fail(v.String(), got.String())
	}
	return nil
}

func findQuery(report *engine.Report, name string) *engine.QueryReport {
	for i := range report.Queries {
		if report.Queries[i].Query == name {
			return &report.Queries[i]
		}
	}
	return nil
}
