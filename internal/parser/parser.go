package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/polcheck/internal/ir"
	"github.com/roach88/polcheck/internal/policy"
)

// Well-known namespaces available without a PREFIX declaration.
const (
	NamespaceXSD  = "http://www.w3.org/2001/XMLSchema#"
	NamespaceRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceRDFS = "http://www.w3.org/2000/01/rdf-schema#"
)

var aggregateFuncs = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true,
	"MAX": true, "SAMPLE": true, "GROUP_CONCAT": true,
}

// ParseDocument parses every query of a document in order. When prefix is
// not empty, query n is named prefix+n and its variables are renamed with
// that name; otherwise queries are returned as written.
//
// A document without a SELECT keyword fails with ErrNoQuery. Any other
// problem fails the whole document with a *SyntaxError.
func ParseDocument(text, prefix string) ([]*ir.Query, error) {
	return parseDocument(text, prefix, nil)
}

func parseDocument(text, prefix string, declared map[string]string) ([]*ir.Query, error) {
	if !strings.Contains(strings.ToUpper(text), "SELECT") {
		return nil, ErrNoQuery
	}
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	found := false
	for _, t := range toks {
		if t.keyword("SELECT") {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNoQuery
	}

	p := newParser(text, toks)
	for name, ns := range declared {
		p.prefixes[name] = ns
	}
	var out []*ir.Query
	for p.peek().kind != tEOF {
		switch t := p.peek(); {
		case t.keyword("PREFIX"):
			if err := p.prefixDecl(); err != nil {
				return nil, err
			}
		case t.keyword("SELECT"):
			q, err := p.query()
			if err != nil {
				return nil, err
			}
			if prefix != "" {
				policy.Rename(q, prefix+strconv.Itoa(len(out)+1))
			}
			out = append(out, q)
		default:
			return nil, expectedErr("SELECT or PREFIX", t)
		}
	}
	return out, nil
}

// ParseQuery parses a document holding exactly one query.
func ParseQuery(text string) (*ir.Query, error) {
	return ParseQueryWithPrefixes(text, nil)
}

// ParseQueryWithPrefixes is ParseQuery with namespace prefixes declared
// up front. PREFIX declarations in text override them.
func ParseQueryWithPrefixes(text string, prefixes map[string]string) (*ir.Query, error) {
	qs, err := parseDocument(text, "", prefixes)
	if err != nil {
		return nil, err
	}
	if len(qs) != 1 {
		return nil, fmt.Errorf("expected one query, found %d", len(qs))
	}
	return qs[0], nil
}

type parser struct {
	src      string
	toks     []token
	i        int
	prefixes map[string]string
}

func newParser(src string, toks []token) *parser {
	return &parser{
		src:  src,
		toks: toks,
		prefixes: map[string]string{
			"xsd":  NamespaceXSD,
			"rdf":  NamespaceRDF,
			"rdfs": NamespaceRDFS,
		},
	}
}

func (p *parser) peek() token {
	return p.toks[p.i]
}

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tEOF {
		p.i++
	}
	return t
}

func (p *parser) accept(s string) bool {
	if p.peek().is(s) {
		p.i++
		return true
	}
	return false
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.peek().keyword(kw) {
		p.i++
		return true
	}
	return false
}

func (p *parser) expect(s string) (token, error) {
	t := p.next()
	if !t.is(s) {
		return t, expectedErr(fmt.Sprintf("%q", s), t)
	}
	return t, nil
}

func (p *parser) expectKeyword(kw string) error {
	t := p.next()
	if !t.keyword(kw) {
		return expectedErr(kw, t)
	}
	return nil
}

func (p *parser) expectVar() (ir.Var, error) {
	t := p.next()
	if t.kind != tVar {
		return "", expectedErr("variable", t)
	}
	return ir.Var(t.text), nil
}

// prefixDecl parses PREFIX name: <iri>.
func (p *parser) prefixDecl() error {
	p.next()
	name := p.next()
	if name.kind != tPName || !strings.HasSuffix(name.text, ":") {
		return expectedErr("prefix name", name)
	}
	iri := p.next()
	if iri.kind != tIRI {
		return expectedErr("IRI", iri)
	}
	p.prefixes[strings.TrimSuffix(name.text, ":")] = iri.text
	return nil
}

func (p *parser) query() (*ir.Query, error) {
	start := p.next()
	q := &ir.Query{}
	sel := ir.NewOrderedSet[ir.Var]()
	star := false

	if !p.acceptKeyword("DISTINCT") {
		p.acceptKeyword("REDUCED")
	}
projection:
	for {
		t := p.peek()
		switch {
		case t.kind == tVar:
			p.next()
			sel.Add(ir.Var(t.text))
		case t.is("*"):
			p.next()
			star = true
		case t.is("("):
			arg, err := p.aggregateProjection()
			if err != nil {
				return nil, err
			}
			q.Aggregate = true
			if arg != "" {
				sel.Add(arg)
			}
		default:
			break projection
		}
	}
	if sel.Len() == 0 && !star && !q.Aggregate {
		return nil, expectedErr("projection", p.peek())
	}

	for p.acceptKeyword("FROM") {
		p.acceptKeyword("NAMED")
		if t := p.next(); t.kind != tIRI && t.kind != tPName {
			return nil, expectedErr("IRI", t)
		}
	}
	p.acceptKeyword("WHERE")
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	if err := p.group(q); err != nil {
		return nil, err
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	if err := p.modifiers(q); err != nil {
		return nil, err
	}

	if star {
		for _, v := range q.PatternVars() {
			if !q.IsTimestamp(v) {
				sel.Add(v)
			}
		}
	}
	q.Select = sel.Items()
	q.Source = strings.TrimSpace(p.src[start.off:p.toks[p.i-1].end])
	return q, nil
}

// aggregateProjection parses (AGG([DISTINCT] ?v|*) AS ?alias) and returns
// the aggregated variable, or "" for *.
func (p *parser) aggregateProjection() (ir.Var, error) {
	p.next()
	fn := p.next()
	if fn.kind != tWord || !aggregateFuncs[strings.ToUpper(fn.text)] {
		return "", expectedErr("aggregate function", fn)
	}
	if _, err := p.expect("("); err != nil {
		return "", err
	}
	p.acceptKeyword("DISTINCT")

	var arg ir.Var
	switch t := p.next(); {
	case t.kind == tVar:
		arg = ir.Var(t.text)
	case t.is("*"):
	default:
		return "", expectedErr("variable or *", t)
	}
	if p.accept(";") {
		// GROUP_CONCAT(?v; SEPARATOR=",")
		for !p.peek().is(")") && p.peek().kind != tEOF {
			p.next()
		}
	}
	if _, err := p.expect(")"); err != nil {
		return "", err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return "", err
	}
	if _, err := p.expectVar(); err != nil {
		return "", err
	}
	if _, err := p.expect(")"); err != nil {
		return "", err
	}
	return arg, nil
}

// group parses the body of a WHERE block up to the closing brace.
func (p *parser) group(q *ir.Query) error {
	for {
		t := p.peek()
		switch {
		case t.is("}") || t.kind == tEOF:
			return nil
		case t.is("."):
			p.next()
		case t.keyword("FILTER"):
			p.next()
			if err := p.filter(q); err != nil {
				return err
			}
		case t.keyword("OPTIONAL"), t.keyword("UNION"), t.keyword("MINUS"),
			t.keyword("GRAPH"), t.keyword("SERVICE"), t.keyword("BIND"), t.keyword("VALUES"):
			return unsupportedErr(strings.ToUpper(t.text), t)
		case t.is("{"):
			return unsupportedErr("nested group", t)
		default:
			if err := p.triples(q); err != nil {
				return err
			}
			if n := p.peek(); !n.is(".") && !n.is("}") && !n.keyword("FILTER") {
				return expectedErr(`"." or "}"`, n)
			}
		}
	}
}

// triples parses subject predicate-object lists.
func (p *parser) triples(q *ir.Query) error {
	subj, err := p.term(false)
	if err != nil {
		return err
	}
	for {
		pred, err := p.verb()
		if err != nil {
			return err
		}
		for {
			obj, err := p.term(true)
			if err != nil {
				return err
			}
			q.Pattern = append(q.Pattern, ir.Triple{Subject: subj, Predicate: pred, Object: obj})
			if !p.accept(",") {
				break
			}
		}
		if !p.accept(";") {
			return nil
		}
		if n := p.peek(); n.is(".") || n.is("}") {
			return nil
		}
	}
}

func (p *parser) verb() (ir.Term, error) {
	if t := p.peek(); t.kind == tWord && t.text == "a" {
		p.next()
		return ir.IRILiteral(NamespaceRDF + "type"), nil
	}
	t, err := p.term(false)
	if err != nil {
		return nil, err
	}
	if _, isLit := t.(ir.Literal); isLit {
		if _, isIRI := t.(ir.IRILiteral); !isIRI {
			return nil, expectedErr("predicate", p.toks[p.i-1])
		}
	}
	return t, nil
}

// term parses a variable, IRI, prefixed name or, when literals is set, a
// string or numeric literal.
func (p *parser) term(literals bool) (ir.Term, error) {
	t := p.next()
	switch t.kind {
	case tVar:
		return ir.Var(t.text), nil
	case tIRI:
		return ir.IRILiteral(t.text), nil
	case tPName:
		iri, err := p.expand(t)
		if err != nil {
			return nil, err
		}
		return ir.IRILiteral(iri), nil
	case tString, tInteger, tDecimal:
		if !literals {
			return nil, expectedErr("variable or IRI", t)
		}
		return p.literal(t)
	case tWord:
		if t.text == "true" || t.text == "false" {
			return nil, unsupportedErr("boolean literal", t)
		}
	}
	return nil, expectedErr("term", t)
}

func (p *parser) expand(t token) (string, error) {
	name, local, _ := strings.Cut(t.text, ":")
	ns, ok := p.prefixes[name]
	if !ok {
		return "", &SyntaxError{Err: fmt.Errorf("undeclared prefix %q", name+":"), Pos: t.pos}
	}
	return ns + local, nil
}

// literal converts a string or number token, consuming any datatype or
// language tag that follows.
func (p *parser) literal(t token) (ir.Literal, error) {
	switch t.kind {
	case tInteger:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, &SyntaxError{Err: fmt.Errorf("integer %s: %w", t.text, errors.Unwrap(err)), Pos: t.pos}
		}
		return ir.IntLiteral(n), nil
	case tDecimal:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &SyntaxError{Err: fmt.Errorf("number %s: %w", t.text, errors.Unwrap(err)), Pos: t.pos}
		}
		return ir.FloatLiteral(f), nil
	}

	if p.peek().kind == tLang {
		p.next()
		return ir.StringLiteral(t.text), nil
	}
	if p.peek().kind != tDatatype {
		return ir.StringLiteral(t.text), nil
	}
	p.next()
	dt := p.next()
	var iri string
	switch dt.kind {
	case tIRI:
		iri = dt.text
	case tPName:
		var err error
		if iri, err = p.expand(dt); err != nil {
			return nil, err
		}
	default:
		return nil, expectedErr("datatype IRI", dt)
	}
	lit, err := typedLiteral(t.text, iri)
	if err != nil {
		return nil, &SyntaxError{Err: err, Pos: t.pos}
	}
	return lit, nil
}

// typedLiteral converts a lexical form by XSD datatype. Datatypes outside
// XSD's numeric, string and time families stay strings.
func typedLiteral(lexical, datatype string) (ir.Literal, error) {
	local, ok := strings.CutPrefix(datatype, NamespaceXSD)
	if !ok {
		return ir.StringLiteral(lexical), nil
	}
	switch local {
	case "integer", "int", "long", "short", "byte",
		"nonNegativeInteger", "positiveInteger", "negativeInteger", "nonPositiveInteger",
		"unsignedInt", "unsignedLong", "unsignedShort", "unsignedByte":
		n, err := strconv.ParseInt(strings.TrimSpace(lexical), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid xsd:%s %q", local, lexical)
		}
		return ir.IntLiteral(n), nil
	case "decimal", "double", "float":
		f, err := strconv.ParseFloat(strings.TrimSpace(lexical), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid xsd:%s %q", local, lexical)
		}
		return ir.FloatLiteral(f), nil
	case "dateTime", "dateTimeStamp", "date":
		t, err := ParseTime(strings.TrimSpace(lexical))
		if err != nil {
			return nil, fmt.Errorf("invalid xsd:%s %q", local, lexical)
		}
		return ir.NewTimeLiteral(t), nil
	default:
		return ir.StringLiteral(lexical), nil
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02Z07:00",
	"2006-01-02",
}

// ParseTime accepts xsd:dateTime and xsd:date forms. A missing zone means
// UTC.
func ParseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// filter parses FILTER ( rel && rel ... ).
func (p *parser) filter(q *ir.Query) error {
	open := p.peek()
	if !open.is("(") {
		return expectedErr(`"("`, open)
	}
	p.next()
	if err := p.conjunction(q); err != nil {
		return err
	}
	_, err := p.expect(")")
	return err
}

func (p *parser) conjunction(q *ir.Query) error {
	for {
		if p.peek().is("(") {
			p.next()
			if err := p.conjunction(q); err != nil {
				return err
			}
			if _, err := p.expect(")"); err != nil {
				return err
			}
		} else if err := p.comparison(q); err != nil {
			return err
		}

		switch t := p.peek(); {
		case t.is("&&"):
			p.next()
		case t.is("||"):
			return unsupportedErr("disjunctive filter", t)
		default:
			return nil
		}
	}
}

func (p *parser) comparison(q *ir.Query) error {
	if t := p.peek(); t.is("!") {
		return unsupportedErr("negated filter", t)
	}
	left, err := p.term(true)
	if err != nil {
		return err
	}
	opTok := p.next()
	if opTok.kind != tOp {
		return expectedErr("comparison operator", opTok)
	}
	op, err := ir.ParseComparator(opTok.text)
	if err != nil {
		return &SyntaxError{Err: err, Pos: opTok.pos}
	}
	right, err := p.term(true)
	if err != nil {
		return err
	}
	q.Filters = append(q.Filters, ir.Filter{Left: left, Op: op, Right: right})
	return nil
}

// modifiers parses the solution modifiers after the WHERE block.
func (p *parser) modifiers(q *ir.Query) error {
	for {
		t := p.peek()
		switch {
		case t.keyword("GROUP"):
			p.next()
			if err := p.expectKeyword("BY"); err != nil {
				return err
			}
			if _, err := p.expectVar(); err != nil {
				return err
			}
			for p.peek().kind == tVar {
				p.next()
			}
			q.Aggregate = true
		case t.keyword("HAVING"):
			p.next()
			if err := p.skipBalanced(); err != nil {
				return err
			}
			q.Aggregate = true
		case t.keyword("WINDOW"):
			p.next()
			if err := p.window(); err != nil {
				return err
			}
			q.Aggregate = true
		case t.keyword("TIMESTAMP"):
			p.next()
			if err := p.timestamps(q); err != nil {
				return err
			}
		case t.keyword("ORDER"):
			p.next()
			if err := p.expectKeyword("BY"); err != nil {
				return err
			}
			if err := p.orderConditions(); err != nil {
				return err
			}
		case t.keyword("LIMIT"), t.keyword("OFFSET"):
			p.next()
			if n := p.next(); n.kind != tInteger {
				return expectedErr("integer", n)
			}
		default:
			return nil
		}
	}
}

// window parses WINDOW <size> [STEP <size>]; sizes are integers or
// durations such as 10m.
func (p *parser) window() error {
	size := func() error {
		t := p.next()
		if t.kind != tInteger && t.kind != tWord {
			return expectedErr("window size", t)
		}
		if t.kind == tWord {
			if _, err := time.ParseDuration(t.text); err != nil {
				return &SyntaxError{Err: fmt.Errorf("invalid window size %q", t.text), Pos: t.pos}
			}
		}
		return nil
	}
	if err := size(); err != nil {
		return err
	}
	if p.acceptKeyword("STEP") {
		return size()
	}
	return nil
}

func (p *parser) timestamps(q *ir.Query) error {
	first := p.peek()
	if first.kind != tVar {
		return expectedErr("variable", first)
	}
	bound := ir.NewOrderedSet(q.PatternVars()...)
	set := ir.NewOrderedSet(q.Timestamps...)
	for p.peek().kind == tVar {
		t := p.next()
		v := ir.Var(t.text)
		if !bound.Has(v) {
			return &SyntaxError{Err: fmt.Errorf("timestamp variable %s not in graph pattern", v), Pos: t.pos}
		}
		set.Add(v)
	}
	q.Timestamps = set.Items()
	return nil
}

func (p *parser) orderConditions() error {
	n := 0
	for {
		t := p.peek()
		switch {
		case t.kind == tVar:
			p.next()
		case t.keyword("ASC") || t.keyword("DESC"):
			p.next()
			if err := p.skipBalanced(); err != nil {
				return err
			}
		default:
			if n == 0 {
				return expectedErr("order condition", t)
			}
			return nil
		}
		n++
	}
}

// skipBalanced consumes a parenthesized expression.
func (p *parser) skipBalanced() error {
	if _, err := p.expect("("); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		t := p.next()
		switch {
		case t.kind == tEOF:
			return expectedErr(`")"`, t)
		case t.is("("):
			depth++
		case t.is(")"):
			depth--
		}
	}
	return nil
}
