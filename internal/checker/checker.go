package checker

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/polcheck/internal/freeze"
	"github.com/roach88/polcheck/internal/queryir"
)

// Evaluator loads frozen graphs and evaluates selects against them.
// Implemented by store.Store (SQLite) and datalog.Evaluator (Mangle).
type Evaluator interface {
	freeze.Loader
	Evaluate(ctx context.Context, sel queryir.Select) ([][]string, error)
}

// Options bounds the satisfiability stage.
type Options struct {
	// Parallelism caps concurrent witness checks. Values below 1 mean 1.
	Parallelism int

	// MaxDomain caps each constraint bucket domain. Zero means no cap.
	MaxDomain int

	// MaxSearchNodes caps each solver run. Zero means no cap.
	MaxSearchNodes int
}

// Checker runs the overlap and satisfiability stages.
type Checker struct {
	eval   Evaluator
	logger *slog.Logger
	opts   Options
}

// New returns a Checker. A nil logger discards output.
func New(eval Evaluator, logger *slog.Logger, opts Options) *Checker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Checker{eval: eval, logger: logger, opts: opts}
}
