// Package policy rewrites policy queries before they are checked.
//
// Three operations live here:
//   - Rename: prefixes every variable so queries loaded in one run never share names
//   - ExtractJoins: splits repeated variable occurrences into join pairs
//   - Union: merges queries into one combined query without renaming
//
// Rename and ExtractJoins mutate the query in place. Union never mutates its
// inputs. ExtractJoins must run after Rename so join pairs reference final
// variable names.
package policy
