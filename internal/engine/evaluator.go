package engine

import (
	"fmt"

	"github.com/roach88/polcheck/internal/checker"
	"github.com/roach88/polcheck/internal/datalog"
	"github.com/roach88/polcheck/internal/store"
)

// Evaluator backends accepted by OpenEvaluator.
const (
	EvaluatorMangle = "mangle"
	EvaluatorSQLite = "sqlite"
)

// OpenEvaluator opens an evaluator backend by name. db is the SQLite path
// (store.MemoryPath when empty) and is ignored by the Mangle backend.
// The returned close function releases the backend.
func OpenEvaluator(kind, db string) (checker.Evaluator, func() error, error) {
	switch kind {
	case EvaluatorMangle, "":
		return datalog.New(), func() error { return nil }, nil
	case EvaluatorSQLite:
		if db == "" {
			db = store.MemoryPath
		}
		st, err := store.Open(db)
		if err != nil {
			return nil, nil, fmt.Errorf("open evaluator store: %w", err)
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown evaluator %q: must be %s or %s", kind, EvaluatorMangle, EvaluatorSQLite)
	}
}
