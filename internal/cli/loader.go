package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/polcheck/internal/compiler"
	"github.com/roach88/polcheck/internal/ir"
	"github.com/roach88/polcheck/internal/parser"
)

// LoadError represents an error that occurred while loading a policy.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Pos     token.Pos  // CUE position if available
	Syntax  parser.Pos // SPARQL position if available
}

func (e *LoadError) Error() string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	case e.Syntax.Line > 0:
		return fmt.Sprintf("%s:%s: %s: %s", e.Path, e.Syntax, e.Code, e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the 1-based line of the error, or 0 when unknown.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return e.Syntax.Line
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoQuery     = "E003" // Document holds no SELECT query
	ErrCodeSyntax      = "E004" // SPARQL syntax error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeCompile     = "E007" // CUE query compilation failed
)

// LoadPolicy loads the policy document at path. Queries are named
// prefix1, prefix2, ... when prefix is not empty.
// Every failure is a *LoadError.
func LoadPolicy(path, prefix string) ([]*ir.Query, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("policy file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing policy file: %v", err)}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a file: %s", path)}
	}

	qs, err := compiler.LoadFile(path, prefix)
	if err != nil {
		return nil, convertLoadError(err, path)
	}
	return qs, nil
}

// convertLoadError converts a compiler or parser error to a LoadError
// with position info.
func convertLoadError(err error, path string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := ErrCodeCompile
		if compileErr.Field == "cue" {
			code = ErrCodeBuildFailed
		}
		return &LoadError{
			Code:    code,
			Message: compileErr.Field + ": " + compileErr.Message,
			Path:    path,
			Pos:     compileErr.Pos,
		}
	}

	var syntaxErr *parser.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &LoadError{
			Code:    ErrCodeSyntax,
			Message: syntaxErr.Err.Error(),
			Path:    path,
			Syntax:  syntaxErr.Pos,
		}
	}

	if errors.Is(err, parser.ErrNoQuery) {
		return &LoadError{Code: ErrCodeNoQuery, Message: parser.ErrNoQuery.Error(), Path: path}
	}

	return &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Path: path}
}
