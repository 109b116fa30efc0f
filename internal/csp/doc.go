// Package csp is a small finite-domain constraint solver.
//
// A Problem holds integer variables, each with a half-open domain [Lo, Hi),
// and one conjunctive constraint built from Cmp atoms. The constraint is an
// explicit expression tree; nothing is parsed or evaluated from text.
//
// Solve prunes domains with unary atoms, then runs depth-first search with
// smallest-domain-first variable ordering. Each assignment counts as one
// search node; a Problem can cap the total.
package csp
