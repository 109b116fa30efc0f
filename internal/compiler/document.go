package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"

	"github.com/roach88/polcheck/internal/ir"
	"github.com/roach88/polcheck/internal/parser"
	"github.com/roach88/polcheck/internal/policy"
)

// CompileDocument compiles a CUE policy document. When prefix is not
// empty, query n is named prefix+n and renamed like parser.ParseDocument
// does. Every compiled query must pass Validate.
//
// A document whose query list is missing or empty fails with
// parser.ErrNoQuery.
func CompileDocument(data []byte, filename, prefix string) ([]*ir.Query, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	prefixes, err := compilePrefixes(v)
	if err != nil {
		return nil, err
	}

	queriesVal := v.LookupPath(cue.ParsePath("queries"))
	if !queriesVal.Exists() {
		return nil, fmt.Errorf("%s: %w", filename, parser.ErrNoQuery)
	}
	iter, err := queriesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []*ir.Query
	for iter.Next() {
		q, err := CompileQuery(iter.Value(), prefixes)
		if err != nil {
			return nil, err
		}
		if errs := Validate(q); len(errs) > 0 {
			return nil, &CompileError{
				Field:   fmt.Sprintf("queries[%d].%s", len(out), errs[0].Field),
				Message: errs[0].Message,
				Pos:     iter.Value().Pos(),
			}
		}
		if prefix != "" {
			policy.Rename(q, prefix+strconv.Itoa(len(out)+1))
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, parser.ErrNoQuery)
	}
	return out, nil
}

func compilePrefixes(v cue.Value) (map[string]string, error) {
	prefixes := map[string]string{
		"xsd":  parser.NamespaceXSD,
		"rdf":  parser.NamespaceRDF,
		"rdfs": parser.NamespaceRDFS,
	}
	pv := v.LookupPath(cue.ParsePath("prefixes"))
	if !pv.Exists() {
		return prefixes, nil
	}
	iter, err := pv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		ns, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   "prefixes." + iter.Selector().String(),
				Message: "prefix namespace must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		prefixes[iter.Selector().Unquoted()] = ns
	}
	return prefixes, nil
}

// CompileQuery compiles one query value: a SPARQL string or a structured
// query.
func CompileQuery(v cue.Value, prefixes map[string]string) (*ir.Query, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	if text, err := v.String(); err == nil {
		q, err := parser.ParseQueryWithPrefixes(text, prefixes)
		if err != nil {
			return nil, &CompileError{Field: "sparql", Message: err.Error(), Pos: v.Pos()}
		}
		return q, nil
	}

	q := &ir.Query{}
	var err error

	if q.Select, err = compileVarList(v, "select"); err != nil {
		return nil, err
	}
	if len(q.Select) == 0 {
		return nil, &CompileError{Field: "select", Message: "at least one projected variable is required", Pos: v.Pos()}
	}

	if q.Pattern, err = compileWhere(v, prefixes); err != nil {
		return nil, err
	}
	if q.Filters, err = compileFilters(v, prefixes); err != nil {
		return nil, err
	}
	if q.Timestamps, err = compileVarList(v, "timestamps"); err != nil {
		return nil, err
	}

	if av := v.LookupPath(cue.ParsePath("aggregate")); av.Exists() {
		if q.Aggregate, err = av.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	if src, err := format.Node(v.Syntax(cue.Concrete(true))); err == nil {
		q.Source = string(src)
	}
	return q, nil
}

// compileVarList reads an optional list of variable names. A leading '?'
// is accepted and dropped.
func compileVarList(v cue.Value, field string) ([]ir.Var, error) {
	lv := v.LookupPath(cue.ParsePath(field))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ir.Var
	for i := 0; iter.Next(); i++ {
		s, err := iter.Value().String()
		if err != nil || strings.TrimPrefix(s, "?") == "" {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: "must be a variable name",
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, ir.Var(strings.TrimPrefix(s, "?")))
	}
	return out, nil
}

func compileWhere(v cue.Value, prefixes map[string]string) ([]ir.Triple, error) {
	wv := v.LookupPath(cue.ParsePath("where"))
	if !wv.Exists() {
		return nil, &CompileError{Field: "where", Message: "where is required", Pos: v.Pos()}
	}
	iter, err := wv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ir.Triple
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("where[%d]", i)
		parts, err := iter.Value().List()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "triple must be a list", Pos: iter.Value().Pos()}
		}
		var terms []ir.Term
		for j := 0; parts.Next(); j++ {
			t, err := compileTerm(parts.Value(), prefixes, fmt.Sprintf("%s[%d]", field, j))
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		}
		if len(terms) != 3 {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("triple must have 3 terms, has %d", len(terms)),
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, ir.Triple{Subject: terms[0], Predicate: terms[1], Object: terms[2]})
	}
	return out, nil
}

func compileFilters(v cue.Value, prefixes map[string]string) ([]ir.Filter, error) {
	fv := v.LookupPath(cue.ParsePath("filter"))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ir.Filter
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("filter[%d]", i)
		fval := iter.Value()

		opVal := fval.LookupPath(cue.ParsePath("op"))
		opText, err := opVal.String()
		if err != nil {
			return nil, &CompileError{Field: field + ".op", Message: "op is required", Pos: fval.Pos()}
		}
		op, err := ir.ParseComparator(opText)
		if err != nil {
			return nil, &CompileError{Field: field + ".op", Message: err.Error(), Pos: opVal.Pos()}
		}

		var operands [2]ir.Term
		for k, side := range []string{"left", "right"} {
			sv := fval.LookupPath(cue.ParsePath(side))
			if !sv.Exists() {
				return nil, &CompileError{Field: field + "." + side, Message: side + " is required", Pos: fval.Pos()}
			}
			if operands[k], err = compileTerm(sv, prefixes, field+"."+side); err != nil {
				return nil, err
			}
		}
		out = append(out, ir.Filter{Left: operands[0], Op: op, Right: operands[1]})
	}
	return out, nil
}

// compileTerm converts one concrete CUE value to a term.
func compileTerm(v cue.Value, prefixes map[string]string, field string) (ir.Term, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, _ := v.String()
		return stringTerm(s, prefixes), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.IntLiteral(n), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.FloatLiteral(f), nil
	case cue.StructKind:
		if sv := v.LookupPath(cue.ParsePath("text")); sv.Exists() {
			s, err := sv.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			return ir.StringLiteral(s), nil
		}
		if dv := v.LookupPath(cue.ParsePath("dateTime")); dv.Exists() {
			s, err := dv.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			t, err := parser.ParseTime(strings.TrimSpace(s))
			if err != nil {
				return nil, &CompileError{Field: field + ".dateTime", Message: fmt.Sprintf("invalid dateTime %q", s), Pos: dv.Pos()}
			}
			return ir.NewTimeLiteral(t), nil
		}
		return nil, &CompileError{Field: field, Message: "struct term must have a text or dateTime field", Pos: v.Pos()}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported term kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func stringTerm(s string, prefixes map[string]string) ir.Term {
	switch {
	case strings.HasPrefix(s, "?") && len(s) > 1:
		return ir.Var(s[1:])
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") && len(s) > 2:
		return ir.IRILiteral(s[1 : len(s)-1])
	}
	if name, local, ok := strings.Cut(s, ":"); ok && !strings.ContainsAny(s, " \t") {
		if ns, declared := prefixes[name]; declared {
			return ir.IRILiteral(ns + local)
		}
	}
	return ir.StringLiteral(s)
}
