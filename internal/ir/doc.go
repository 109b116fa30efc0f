// Package ir provides the policy query model shared by every polcheck package.
//
// This package contains type definitions and small accessors only. All other
// internal packages import ir; ir imports nothing internal. Operations that
// rewrite queries (renaming, join extraction, union) live in package policy.
//
// Key design constraints:
//   - Term and Literal are sealed interfaces; backends switch exhaustively
//   - Every literal has exactly one canonical wire text (Literal.Key)
//   - String literal keys are NFC normalized
//   - Iteration order is always deterministic (OrderedSet, slices, never maps)
package ir
