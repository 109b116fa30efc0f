// Package harness provides conformance testing for policy checks.
//
// A scenario names a privacy document and a utility document, runs them
// through the engine with a fixed run id, and asserts on the report.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	evaluator: mangle            # or sqlite
//	privacy: |
//	  SELECT ?x WHERE { ?x <urn:age> ?y }
//	utility_file: utility.cue    # relative to the scenario file
//	assertions:
//	  - type: verdict
//	    verdict: Incompatible
//	  - type: query_verdict
//	    query: PQ1
//	    verdict: Incompatible
//	  - type: theorem
//	    query: PQ1
//	    theorem: "4.1"
//	  - type: reason_contains
//	    query: PQ1
//	    text: "returns results for PQ1"
//	  - type: witness_count
//	    query: PQ1
//	    count: 1
//
// Each policy is given inline (privacy, utility) or as a file
// (privacy_file, utility_file), never both. Files ending in .cue are
// compiled as CUE policy documents.
//
// # Golden Files
//
// RunWithGolden renders the report as indented JSON without content
// digests and compares it with testdata/golden/<name>.golden. Regenerate
// with:
//
//	go test ./internal/harness -update
package harness
