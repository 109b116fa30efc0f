package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/polcheck/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                  `json:"valid"`
	Errors []FileValidationError `json:"errors,omitempty"`
}

// FileValidationError is a validation error located in a policy file.
type FileValidationError struct {
	File  string `json:"file"`
	Query string `json:"query,omitempty"`
	Line  int    `json:"line,omitempty"`
	compiler.ValidationError
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <policy-file>...",
		Short: "Validate policy documents without checking them",
		Long: `Validate SPARQL and CUE policy documents without running a check.

Performs syntax checking and query well-formedness checks: a non-empty
graph pattern, and projected, timestamp and filter variables bound by
the pattern. Faster than check for development feedback.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	var validationErrors []FileValidationError
	for _, path := range paths {
		errs, err := ValidatePolicyFile(path)
		if err != nil {
			var loadErr *LoadError
			if errors.As(err, &loadErr) && loadErr.Code == ErrCodeNotFound {
				return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
			}
			return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
		}
		formatter.VerboseLog("Validated %s: %d error(s)", path, len(errs))
		validationErrors = append(validationErrors, errs...)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter)
}

// ValidatePolicyFile loads one policy document and validates every query.
// Syntax and compilation failures are returned as validation errors; only
// a missing file is an error.
func ValidatePolicyFile(path string) ([]FileValidationError, error) {
	qs, err := LoadPolicy(path, "")
	if err != nil {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) || loadErr.Code == ErrCodeNotFound {
			return nil, err
		}
		return []FileValidationError{{
			File: path,
			Line: loadErr.Line(),
			ValidationError: compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
			},
		}}, nil
	}

	var out []FileValidationError
	for i, q := range qs {
		for _, ve := range compiler.Validate(q) {
			out = append(out, FileValidationError{
				File:            path,
				Query:           fmt.Sprintf("query %d", i+1),
				ValidationError: ve,
			})
		}
	}
	return out, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true}
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ All policies valid")
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Validation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []FileValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		location := err.File
		if err.Line > 0 {
			location = fmt.Sprintf("%s line %d", location, err.Line)
		}
		if err.Query != "" {
			location = fmt.Sprintf("%s (%s)", location, err.Query)
		}
		fmt.Fprintln(formatter.Writer, location)
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
