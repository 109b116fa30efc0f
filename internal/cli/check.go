package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/polcheck/internal/engine"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Privacy        string
	Utility        string
	Evaluator      string
	Database       string
	Config         string
	Parallelism    int
	MaxDomain      int
	MaxSearchNodes int

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}
	quota := engine.DefaultQuota()

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check privacy queries against a utility policy",
		Long: `Check every privacy query against the union of the utility queries.

Each privacy query is decided by the overlap check (Theorems 4.1 and 4.3)
and, when that is inconclusive, by the filter satisfiability check
(Theorems 4.5 and 4.6). Policy files ending in .cue are compiled as CUE
policy documents; any other file is read as SPARQL.

Exit codes:
  0 - Policies are compatible
  1 - Policies are not compatible
  2 - Command error (missing files, syntax errors, quota exceeded)
  3 - Policies may not be compatible

Examples:
  polcheck check -p privacy.sparql -u utility.sparql
  polcheck check -p privacy.sparql -u utility.cue --evaluator sqlite --db graphs.db
  polcheck check --config polcheck.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Privacy, "privacy", "p", "privacy.sparql", "file containing the privacy queries")
	cmd.Flags().StringVarP(&opts.Utility, "utility", "u", "utility.sparql", "file containing the utility queries")
	cmd.Flags().StringVar(&opts.Evaluator, "evaluator", engine.EvaluatorMangle, "query evaluator (mangle|sqlite)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (sqlite evaluator; default in-memory)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "YAML configuration file; flags override its values")
	cmd.Flags().IntVar(&opts.Parallelism, "parallelism", runtime.NumCPU(), "concurrent witness checks per privacy query")
	cmd.Flags().IntVar(&opts.MaxDomain, "max-domain", quota.MaxDomain, "maximum constraint domain size")
	cmd.Flags().IntVar(&opts.MaxSearchNodes, "max-search-nodes", quota.MaxSearchNodes, "maximum solver search nodes per witness")

	return cmd
}

// newLogger configures logging based on the verbose flag.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// signalContext cancels the command's context on interrupt or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	return signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
}

func runCheck(opts *CheckOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Config != "" {
		cfg, err := LoadConfig(opts.Config)
		if err != nil {
			return commandError(formatter, ErrCodeNotFound, err.Error())
		}
		cfg.apply(opts, cmd.Flags())
	}
	if opts.Parallelism < 1 || opts.MaxDomain < 1 || opts.MaxSearchNodes < 1 {
		return commandError(formatter, ErrCodeGeneric, "--parallelism, --max-domain and --max-search-nodes must be positive")
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	logger.Info("loading policies", "privacy", opts.Privacy, "utility", opts.Utility)
	privacy, err := LoadPolicy(opts.Privacy, "PQ")
	if err != nil {
		return loadFailure(formatter, err)
	}
	utility, err := LoadPolicy(opts.Utility, "UQ")
	if err != nil {
		return loadFailure(formatter, err)
	}
	logger.Info("policies loaded", "privacy_queries", len(privacy), "utility_queries", len(utility))

	eval, closeEval, err := engine.OpenEvaluator(opts.Evaluator, opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, err.Error())
	}
	defer func() {
		if closeErr := closeEval(); closeErr != nil {
			logger.Error("error closing evaluator", "error", closeErr)
		}
	}()

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithParallelism(opts.Parallelism),
		engine.WithQuota(engine.Quota{MaxDomain: opts.MaxDomain, MaxSearchNodes: opts.MaxSearchNodes}),
	}
	if opts.RunIDs != nil {
		engineOpts = append(engineOpts, engine.WithRunIDGenerator(opts.RunIDs))
	}
	eng := engine.New(eval, engineOpts...)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	report, err := eng.Check(ctx, privacy, utility)
	if err != nil {
		var re *engine.RuntimeError
		if errors.As(err, &re) {
			_ = formatter.Error(string(re.Code), re.Error(), re.Details)
			return WrapExitError(ExitCommandError, "check failed", err)
		}
		return commandError(formatter, ErrCodeGeneric, err.Error())
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(CLIResponse{Status: "ok", Data: report, RunID: report.RunID}); err != nil {
			return err
		}
	} else {
		RenderReport(formatter.Writer, report, opts.Verbose)
	}

	if code := ExitCodeForVerdict(report.Verdict); code != ExitSuccess {
		return NewExitError(code, report.Conclusion)
	}
	return nil
}

// RenderReport writes the human-readable report. Verbose output adds the
// frozen utility policy and the overlap rows of every privacy query.
func RenderReport(w io.Writer, report *engine.Report, verbose bool) {
	if verbose && report.Graph != nil {
		fmt.Fprintln(w, "Frozen utility policy:")
		fmt.Fprint(w, report.Graph.String())
		fmt.Fprintln(w)
	}

	for _, qr := range report.Queries {
		if verbose && qr.Overlap != nil {
			fmt.Fprintf(w, "Results of %s on the frozen utility policy:\n", qr.Query)
			PrintRows(w, qr.Overlap.Vars, qr.Overlap.Rows)
			fmt.Fprintln(w)
		}

		fmt.Fprintln(w, qr.Summary)
		if len(qr.Reasons) > 0 {
			fmt.Fprintln(w, "Reasons:")
			for _, r := range qr.Reasons {
				fmt.Fprintf(w, "  - %s\n", r)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, report.Conclusion)
}

// loadFailure reports a policy load error as a command error.
func loadFailure(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load policy", err)
	}
	return commandError(formatter, ErrCodeGeneric, err.Error())
}

// commandError outputs an error and returns exit code 2.
func commandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
