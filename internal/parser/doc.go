// Package parser reads policy documents written in a SPARQL subset.
//
// A document holds one or more SELECT queries, optionally preceded by
// PREFIX declarations that stay in force for the rest of the document:
//
//	PREFIX ex: <http://example.org/>
//	SELECT ?x WHERE { ?x ex:age ?y . ?x ex:seen ?t FILTER(?y > 18) }
//	TIMESTAMP ?t
//
//	SELECT (COUNT(?x) AS ?n) WHERE { ?x ex:city "Lyon" } GROUP BY ?x
//
// Supported: basic graph patterns with ';' and ',' lists, the 'a'
// shorthand, FILTER conjunctions of comparisons, typed literals
// (xsd:integer, xsd:decimal, xsd:double, xsd:dateTime, xsd:date),
// aggregate projections, GROUP BY, HAVING and WINDOW (all of which mark
// the query as aggregate), TIMESTAMP (time-annotation variables), and
// ORDER BY, LIMIT and OFFSET (accepted and ignored).
//
// OPTIONAL, UNION, MINUS, property paths and disjunctive filters are
// rejected with a SyntaxError.
package parser
