// Package queryir provides the query intermediate representation evaluated
// against frozen graphs.
//
// QueryIR is the abstraction boundary between the checker and the backends
// that hold frozen graphs:
//
//	[ir.Query] → [queryir.Select] → [querysql → SQLite]
//	                              → [datalog → Mangle]
//
// A Select is a basic graph pattern over one frozen graph plus an explicit
// projection. Constants are wire texts (ir.Literal.Key or Skolem text), so
// both backends compare plain strings.
//
// SEALED INTERFACES:
//
// Term is a sealed interface using the marker method pattern. Only Var and
// Const implement it, so backends switch exhaustively:
//
//	switch t := term.(type) {
//	case queryir.Var:
//	    // bind or join
//	case queryir.Const:
//	    // equality with wire text
//	}
//
// CRITICAL PATTERNS:
//
// Deterministic Results:
// Every backend returns DISTINCT rows ordered by the projected columns in
// byte order. Two backends given the same graph return identical rows.
//
// Explicit Projection:
// Project lists output columns in order. An empty projection asks only
// whether the pattern matches; the answer is zero or one empty row.
package queryir
