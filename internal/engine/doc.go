// Package engine decides whether a privacy policy is compatible with a
// utility policy.
//
// A run takes the parsed privacy and utility queries, renames and
// join-extracts them, freezes the union of the utility queries once and
// then walks every privacy query through a small state machine:
//
//	overlap compatible                      -> Compatible   (Theorem 4.3)
//	overlap witnesses, conjunctive query    -> Incompatible (Theorem 4.1)
//	filters unsatisfiable for every witness -> Compatible   (Theorem 4.6)
//	filters satisfiable, aggregate query    -> Maybe        (Theorem 4.6)
//	filters satisfiable, no aggregate       -> Incompatible (Theorem 4.5)
//
// The run verdict is the worst per-query verdict.
//
// Privacy queries are checked one after another in document order and
// every state transition is stamped from a logical Clock, so a run over
// the same inputs produces the same report apart from its run id.
// Witness rows inside one satisfiability stage are solved concurrently.
package engine
