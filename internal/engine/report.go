package engine

import (
	"github.com/roach88/polcheck/internal/checker"
	"github.com/roach88/polcheck/internal/freeze"
	"github.com/roach88/polcheck/internal/ir"
)

// Stage names the check that produced a verdict.
type Stage string

const (
	StageOverlap        Stage = "overlap"
	StageSatisfiability Stage = "satisfiability"
)

// Theorems cited by query summaries.
const (
	TheoremOverlap     = "4.3"
	TheoremConjunctive = "4.1"
	TheoremFilter      = "4.6"
	TheoremNoAggregate = "4.5"
)

// Conclusions printed for a run verdict.
const (
	ConclusionCompatible   = "Privacy and utility policies are compatible."
	ConclusionMaybe        = "Privacy and utility policies MAY NOT BE COMPATIBLE !"
	ConclusionIncompatible = "Privacy and utility policies ARE NOT COMPATIBLE !"
)

// Conclusion returns the sentence summarizing a run verdict.
func Conclusion(v ir.Verdict) string {
	switch v {
	case ir.Compatible:
		return ConclusionCompatible
	case ir.Maybe:
		return ConclusionMaybe
	default:
		return ConclusionIncompatible
	}
}

// Step is one state transition of a privacy query.
type Step struct {
	Seq      int64      `json:"seq"`
	Stage    Stage      `json:"stage"`
	Verdict  ir.Verdict `json:"verdict"`
	Terminal bool       `json:"terminal"`
}

// QueryReport is the outcome for one privacy query.
type QueryReport struct {
	Query     string     `json:"query"`
	Digest    string     `json:"digest"`
	Verdict   ir.Verdict `json:"verdict"`
	Stage     Stage      `json:"stage"`
	Theorem   string     `json:"theorem"`
	Summary   string     `json:"summary"`
	Reasons   []string   `json:"reasons"`
	Witnesses int        `json:"witnesses"`
	Steps     []Step     `json:"steps"`

	// Overlap is the evaluated overlap stage, kept for rendering rows.
	Overlap *checker.OverlapResult `json:"-"`

	// Satisfiability is nil when the overlap stage was terminal.
	Satisfiability *checker.SatResult `json:"-"`
}

func (r *QueryReport) step(clock *Clock, stage Stage, v ir.Verdict) {
	r.Steps = append(r.Steps, Step{Seq: clock.Next(), Stage: stage, Verdict: v})
}

func (r *QueryReport) settle(clock *Clock, stage Stage, v ir.Verdict, theorem, summary string) {
	r.Steps = append(r.Steps, Step{Seq: clock.Next(), Stage: stage, Verdict: v, Terminal: true})
	r.Stage = stage
	r.Verdict = v
	r.Theorem = theorem
	r.Summary = summary
}

// Report is the outcome of one run.
type Report struct {
	RunID      string        `json:"run_id"`
	Verdict    ir.Verdict    `json:"verdict"`
	Conclusion string        `json:"conclusion"`
	GraphID    string        `json:"graph_id"`
	Queries    []QueryReport `json:"queries"`

	// Graph is the frozen utility union.
	Graph *freeze.FrozenGraph `json:"-"`

	// Privacy and Utility are the prepared queries, in document order.
	Privacy []*ir.Query `json:"-"`
	Utility []*ir.Query `json:"-"`
}
