package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/polcheck/internal/ir"
	"github.com/roach88/polcheck/internal/parser"
)

// LoadFile reads a policy document from path. Files ending in .cue are
// compiled with CompileDocument; anything else is parsed as SPARQL text.
func LoadFile(path, prefix string) ([]*ir.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	if filepath.Ext(path) == ".cue" {
		return CompileDocument(data, path, prefix)
	}
	qs, err := parser.ParseDocument(string(data), prefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return qs, nil
}
