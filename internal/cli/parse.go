package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/polcheck/internal/ir"
	"github.com/roach88/polcheck/internal/policy"
	"github.com/roach88/polcheck/internal/typing"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Prefix string
	Joins  bool
}

// ParsedQuery is the JSON rendering of one parsed query.
type ParsedQuery struct {
	Prefix string    `json:"prefix"`
	Digest string    `json:"digest"`
	Text   string    `json:"text"`
	Query  *ir.Query `json:"query"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <policy-file>",
		Short: "Print the queries of a policy document as rewritten for checking",
		Long: `Parse a policy document and print every query after renaming.

With --joins, repeated variables are split into occurrence variables and
the resulting join conditions are listed, as done for privacy queries.
Inferred variable types are included in JSON output.

Example:
  polcheck parse privacy.sparql --joins
  polcheck parse utility.cue --prefix UQ --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "PQ", "query name prefix (empty keeps variables as written)")
	cmd.Flags().BoolVar(&opts.Joins, "joins", false, "extract join conditions")

	return cmd
}

func runParse(opts *ParseOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	qs, err := LoadPolicy(path, opts.Prefix)
	if err != nil {
		return loadFailure(formatter, err)
	}

	parsed := make([]ParsedQuery, 0, len(qs))
	for _, q := range qs {
		if opts.Joins {
			policy.ExtractJoins(q)
		}
		typing.Annotate(q)
		parsed = append(parsed, ParsedQuery{
			Prefix: q.Prefix,
			Digest: ir.QueryDigest(q)[:16],
			Text:   q.String(),
			Query:  q,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(parsed)
	}

	for _, p := range parsed {
		if p.Prefix != "" {
			fmt.Fprintf(formatter.Writer, "%s: %s\n", p.Prefix, p.Text)
		} else {
			fmt.Fprintln(formatter.Writer, p.Text)
		}
		formatter.VerboseLog("  digest %s", p.Digest)
	}
	return nil
}
