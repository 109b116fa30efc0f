// Package store provides SQLite-backed storage and evaluation of frozen graphs.
//
// The store holds:
//   - Graphs: one row per frozen graph (id, Skolem generation, triple count)
//   - Triples: ground triples in wire text, ordered by pattern position
//   - Skolems: the variable each Skolem constant replaced, with its tag
//
// Several frozen graphs share one database; every query is scoped by graph id.
//
// # Critical Patterns
//
// Idempotent Loading:
//   - Loading a graph whose id already exists is a no-op
//
// Deterministic Query Results:
//   - Every query has ORDER BY with COLLATE BINARY
//   - Evaluated rows are DISTINCT and ordered by the projected columns
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Evaluation SQL is produced by internal/querysql from a queryir.Select.
package store
