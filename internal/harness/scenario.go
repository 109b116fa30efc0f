package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/polcheck/internal/engine"
	"github.com/roach88/polcheck/internal/ir"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Evaluator selects the evaluator backend ("mangle" or "sqlite").
	// Defaults to mangle.
	Evaluator string `yaml:"evaluator,omitempty"`

	// Privacy and Utility hold inline SPARQL documents.
	Privacy string `yaml:"privacy,omitempty"`
	Utility string `yaml:"utility,omitempty"`

	// PrivacyFile and UtilityFile reference policy documents.
	// Paths are relative to the scenario file location.
	PrivacyFile string `yaml:"privacy_file,omitempty"`
	UtilityFile string `yaml:"utility_file,omitempty"`

	// Assertions validate the report.
	// Supported types: verdict, query_verdict, theorem, reason_contains,
	// witness_count
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run id for deterministic tests.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Assertion validates the report.
type Assertion struct {
	// Type specifies the assertion type:
	// - "verdict": the run verdict equals Verdict
	// - "query_verdict": the verdict of Query equals Verdict
	// - "theorem": Query was decided by Theorem
	// - "reason_contains": some reason of Query contains Text
	// - "witness_count": Query has exactly Count witness rows
	Type string `yaml:"type"`

	// Query names the privacy query ("PQ1", ...).
	Query string `yaml:"query,omitempty"`

	// Verdict is the expected verdict (verdict, query_verdict).
	Verdict string `yaml:"verdict,omitempty"`

	// Theorem is the expected deciding theorem (theorem).
	Theorem string `yaml:"theorem,omitempty"`

	// Text is the expected reason fragment (reason_contains).
	Text string `yaml:"text,omitempty"`

	// Count is the expected number of witness rows (witness_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertVerdict        = "verdict"
	AssertQueryVerdict   = "query_verdict"
	AssertTheorem        = "theorem"
	AssertReasonContains = "reason_contains"
	AssertWitnessCount   = "witness_count"
)

// LoadScenario reads and parses a scenario YAML file. Policy file paths
// are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving policy file paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for _, p := range []*string{&scenario.PrivacyFile, &scenario.UtilityFile} {
		if *p != "" && !filepath.IsAbs(*p) && basePath != "" {
			*p = filepath.Join(basePath, *p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Evaluator {
	case "", engine.EvaluatorMangle, engine.EvaluatorSQLite:
	default:
		return fmt.Errorf("unknown evaluator %q", s.Evaluator)
	}

	if err := validatePolicy("privacy", s.Privacy, s.PrivacyFile); err != nil {
		return err
	}
	if err := validatePolicy("utility", s.Utility, s.UtilityFile); err != nil {
		return err
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validatePolicy(name, inline, file string) error {
	switch {
	case inline == "" && file == "":
		return fmt.Errorf("%s or %s_file is required", name, name)
	case inline != "" && file != "":
		return fmt.Errorf("%s and %s_file are mutually exclusive", name, name)
	case file != "":
		if _, err := os.Stat(file); os.IsNotExist(err) {
			return fmt.Errorf("%s file not found: %s", name, file)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needQuery := func() error {
		if a.Query == "" {
			return fmt.Errorf("assertions[%d]: query is required for %s", index, a.Type)
		}
		return nil
	}
	needVerdict := func() error {
		var v ir.Verdict
		if err := v.UnmarshalText([]byte(a.Verdict)); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		return nil
	}

	switch a.Type {
	case AssertVerdict:
		return needVerdict()
	case AssertQueryVerdict:
		if err := needQuery(); err != nil {
			return err
		}
		return needVerdict()
	case AssertTheorem:
		if err := needQuery(); err != nil {
			return err
		}
		if a.Theorem == "" {
			return fmt.Errorf("assertions[%d]: theorem is required for theorem", index)
		}
	case AssertReasonContains:
		if err := needQuery(); err != nil {
			return err
		}
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for reason_contains", index)
		}
	case AssertWitnessCount:
		if err := needQuery(); err != nil {
			return err
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for witness_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
