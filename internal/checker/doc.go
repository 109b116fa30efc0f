// Package checker runs the two compatibility stages for one privacy query.
//
// Overlap evaluates the privacy query's graph pattern against the frozen
// union of utility queries and keeps the rows that could witness a leak.
// Satisfiability rewrites the combined filters and joins under each witness
// row and asks the constraint solver whether they can all hold at once.
//
// Both stages are read-only with respect to the frozen graph and the
// utility union, so several privacy queries may be checked concurrently.
package checker
