package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainQuery = "polcheck/query/v1"
	DomainGraph = "polcheck/graph/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// termKey renders a term for hashing: variables as ?name, literals by Key.
func termKey(t Term) string {
	if v, ok := IsVar(t); ok {
		return v.String()
	}
	if l, ok := t.(Literal); ok {
		return l.Key()
	}
	return ""
}

// CanonicalText renders the structural content of q one clause per line.
// Prefix, Source and VarTypes are excluded.
func CanonicalText(q *Query) string {
	var b strings.Builder
	b.WriteString("select")
	for _, v := range q.Select {
		b.WriteString(" " + v.String())
	}
	b.WriteString("\n")
	for _, t := range q.Pattern {
		b.WriteString("triple " + termKey(t.Subject) + " " + termKey(t.Predicate) + " " + termKey(t.Object) + "\n")
	}
	for _, f := range q.Filters {
		b.WriteString("filter " + termKey(f.Left) + " " + f.Op.String() + " " + termKey(f.Right) + "\n")
	}
	for _, j := range q.Joins {
		b.WriteString("join " + j.Left.String() + " " + j.Right.String() + "\n")
	}
	if q.Aggregate {
		b.WriteString("aggregate\n")
	}
	for _, v := range q.Timestamps {
		b.WriteString("timestamp " + v.String() + "\n")
	}
	return b.String()
}

// QueryDigest is the content-addressed identity of a query's structure.
// Two queries with the same pattern, filters, joins and metadata share a
// digest regardless of their prefix.
func QueryDigest(q *Query) string {
	return hashWithDomain(DomainQuery, []byte(CanonicalText(q)))
}

// GraphDigest identifies a set of ground triples rendered by key, in order.
func GraphDigest(keys []string) string {
	return hashWithDomain(DomainGraph, []byte(strings.Join(keys, "\n")))
}
