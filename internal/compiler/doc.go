// Package compiler turns CUE policy documents into queries.
//
// A document declares optional namespace prefixes and a list of queries.
// Each query is either a SPARQL string, handed to package parser, or a
// structured value:
//
//	prefixes: ex: "http://example.org/"
//	queries: [
//		"SELECT ?x WHERE { ?x ex:age ?y }",
//		{
//			select: ["x"]
//			where: [["?x", "ex:age", "?y"], ["?x", "ex:city", "Lyon"]]
//			filter: [{left: "?y", op: ">", right: 18}]
//			timestamps: []
//			aggregate: false
//		},
//	]
//
// In structured terms a string starting with '?' is a variable, <...> is
// an IRI, pfx:local with a declared prefix is an IRI, and any other string
// is a string literal. Numbers are integer or float literals. The structs
// {text: "..."} and {dateTime: "..."} force a string or timestamp
// literal.
package compiler
