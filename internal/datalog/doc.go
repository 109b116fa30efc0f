// Package datalog evaluates queryir selects with Google Mangle.
//
// Frozen graphs are held as triple/4 facts in a Mangle fact store. Every
// wire text (graph id, Skolem text, literal key) is interned to an integer
// so that generated rules never quote strings. A Select becomes one rule:
//
//	answer(V0, V1) :- triple(1, V0, 5, V1), triple(1, V0, 6, V2).
//
// Results are decoded back to wire text, deduplicated and sorted in byte
// order, matching the SQLite backend row for row.
package datalog
