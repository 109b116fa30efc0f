package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tWord          // keyword or bare word such as 10m
	tVar           // ?name or $name; text is the name
	tIRI           // <...>; text is the content
	tPName         // prefix:local
	tString        // quoted string; text is the unescaped value
	tInteger
	tDecimal
	tPunct // { } ( ) . , ; *
	tOp    // = != < <= > >= && || !
	tDatatype
	tLang
)

func (k tokenKind) String() string {
	return map[tokenKind]string{
		tEOF:      "end of input",
		tWord:     "word",
		tVar:      "variable",
		tIRI:      "IRI",
		tPName:    "prefixed name",
		tString:   "string",
		tInteger:  "integer",
		tDecimal:  "number",
		tPunct:    "punctuation",
		tOp:       "operator",
		tDatatype: "datatype marker",
		tLang:     "language tag",
	}[k]
}

type token struct {
	kind tokenKind
	text string
	pos  Pos
	off  int // byte offset of the first character
	end  int // byte offset after the last character
}

// is reports whether t is the punctuation or operator s.
func (t token) is(s string) bool {
	return (t.kind == tPunct || t.kind == tOp) && t.text == s
}

// keyword reports whether t is the case-insensitive word kw.
func (t token) keyword(kw string) bool {
	return t.kind == tWord && strings.EqualFold(t.text, kw)
}

func (t token) describe() string {
	switch t.kind {
	case tEOF:
		return t.kind.String()
	case tVar:
		return "?" + t.text
	case tIRI:
		return "<" + t.text + ">"
	case tString:
		return fmt.Sprintf("%q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

type lexer struct {
	src  string
	off  int
	line int
	col  int
	toks []token
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	for {
		l.skipSpace()
		if l.off >= len(l.src) {
			l.toks = append(l.toks, token{kind: tEOF, pos: l.here(), off: l.off, end: l.off})
			return l.toks, nil
		}
		if err := l.next(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) here() Pos {
	return Pos{Line: l.line, Col: l.col}
}

func (l *lexer) peekByte(ahead int) byte {
	if l.off+ahead < len(l.src) {
		return l.src[l.off+ahead]
	}
	return 0
}

// advance consumes n bytes, tracking lines and rune columns.
func (l *lexer) advance(n int) {
	end := l.off + n
	for l.off < end {
		r, size := utf8.DecodeRuneInString(l.src[l.off:])
		l.off += size
		if r == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
}

func (l *lexer) skipSpace() {
	for l.off < len(l.src) {
		c := l.src[l.off]
		switch {
		case c == '#':
			for l.off < len(l.src) && l.src[l.off] != '\n' {
				l.advance(1)
			}
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance(1)
		default:
			return
		}
	}
}

func (l *lexer) emit(kind tokenKind, text string, start Pos, off int) {
	l.toks = append(l.toks, token{kind: kind, text: text, pos: start, off: off, end: l.off})
}

func (l *lexer) errorf(at Pos, format string, args ...any) error {
	return &SyntaxError{Err: fmt.Errorf(format, args...), Pos: at}
}

func (l *lexer) next() error {
	start, off := l.here(), l.off
	c := l.src[l.off]

	switch {
	case c == '?' || c == '$':
		n := l.nameLen(l.off + 1)
		if n == 0 {
			return l.errorf(start, "empty variable name")
		}
		l.advance(1 + n)
		l.emit(tVar, l.src[off+1:l.off], start, off)
	case c == '<':
		if n, ok := l.iriLen(); ok {
			l.advance(n)
			l.emit(tIRI, l.src[off+1:l.off-1], start, off)
			return nil
		}
		l.operator(start, off)
	case c == '"' || c == '\'':
		return l.quoted(start, off, c)
	case c == '^' && l.peekByte(1) == '^':
		l.advance(2)
		l.emit(tDatatype, "^^", start, off)
	case c == '@':
		n := l.langLen(l.off + 1)
		if n == 0 {
			return l.errorf(start, "empty language tag")
		}
		l.advance(1 + n)
		l.emit(tLang, l.src[off+1:l.off], start, off)
	case isDigit(c) || ((c == '-' || c == '+') && isDigit(l.peekByte(1))) || (c == '.' && isDigit(l.peekByte(1))):
		l.number(start, off)
	case strings.IndexByte("{}().,;*", c) >= 0:
		l.advance(1)
		l.emit(tPunct, string(c), start, off)
	case strings.IndexByte("=!<>&|", c) >= 0:
		if !l.operator(start, off) {
			return l.errorf(start, "unexpected character %q", c)
		}
	case c == ':' || isNameStart(rune(c)) || c >= utf8.RuneSelf:
		return l.word(start, off)
	default:
		return l.errorf(start, "unexpected character %q", c)
	}
	return nil
}

func (l *lexer) operator(start Pos, off int) bool {
	two := ""
	if l.off+2 <= len(l.src) {
		two = l.src[l.off : l.off+2]
	}
	switch two {
	case "<=", ">=", "!=", "&&", "||", "==", "<>":
		l.advance(2)
		l.emit(tOp, two, start, off)
		return true
	}
	switch l.src[l.off] {
	case '=', '<', '>', '!':
		l.advance(1)
		l.emit(tOp, l.src[off:l.off], start, off)
		return true
	}
	return false
}

// iriLen returns the length of an IRI reference at the current offset.
// A '<' followed by whitespace or '=' is a comparison.
func (l *lexer) iriLen() (int, bool) {
	for i := l.off + 1; i < len(l.src); i++ {
		switch c := l.src[i]; {
		case c == '>':
			return i - l.off + 1, i > l.off+1
		case c <= ' ' || strings.IndexByte("<\"{}|^`\\=", c) >= 0:
			return 0, false
		}
	}
	return 0, false
}

func (l *lexer) quoted(start Pos, off int, quote byte) error {
	l.advance(1)
	var b strings.Builder
	for {
		if l.off >= len(l.src) {
			return l.errorf(start, "unterminated string")
		}
		c := l.src[l.off]
		switch {
		case c == quote:
			l.advance(1)
			l.emit(tString, b.String(), start, off)
			return nil
		case c == '\n':
			return l.errorf(start, "unterminated string")
		case c == '\\':
			esc := l.peekByte(1)
			var r byte
			switch esc {
			case 'n':
				r = '\n'
			case 't':
				r = '\t'
			case 'r':
				r = '\r'
			case '"', '\'', '\\':
				r = esc
			default:
				return l.errorf(l.here(), "unknown escape \\%c", esc)
			}
			b.WriteByte(r)
			l.advance(2)
		default:
			_, size := utf8.DecodeRuneInString(l.src[l.off:])
			b.WriteString(l.src[l.off : l.off+size])
			l.advance(size)
		}
	}
}

func (l *lexer) number(start Pos, off int) {
	i := l.off
	if c := l.src[i]; c == '-' || c == '+' {
		i++
	}
	for i < len(l.src) && isDigit(l.src[i]) {
		i++
	}
	kind := tInteger
	if i+1 < len(l.src) && l.src[i] == '.' && isDigit(l.src[i+1]) {
		kind = tDecimal
		i++
		for i < len(l.src) && isDigit(l.src[i]) {
			i++
		}
	}
	if i < len(l.src) && (l.src[i] == 'e' || l.src[i] == 'E') {
		j := i + 1
		if j < len(l.src) && (l.src[j] == '-' || l.src[j] == '+') {
			j++
		}
		if j < len(l.src) && isDigit(l.src[j]) {
			kind = tDecimal
			for i = j; i < len(l.src) && isDigit(l.src[i]); i++ {
			}
		}
	}
	// Durations such as 10m lex as one word.
	if i < len(l.src) && isNameStart(rune(l.src[i])) {
		for i < len(l.src) && isNameChar(rune(l.src[i])) {
			i++
		}
		kind = tWord
	}
	l.advance(i - l.off)
	l.emit(kind, l.src[off:l.off], start, off)
}

// word lexes keywords and prefixed names.
func (l *lexer) word(start Pos, off int) error {
	i := l.off
	for i < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[i:])
		if !isNameChar(r) {
			break
		}
		i += size
	}
	if i < len(l.src) && l.src[i] == ':' {
		i++
		for i < len(l.src) {
			r, size := utf8.DecodeRuneInString(l.src[i:])
			if !isNameChar(r) && r != '-' && r != '.' {
				break
			}
			i += size
		}
		for i > off && l.src[i-1] == '.' {
			i--
		}
		l.advance(i - l.off)
		l.emit(tPName, l.src[off:l.off], start, off)
		return nil
	}
	if i == l.off {
		r, _ := utf8.DecodeRuneInString(l.src[l.off:])
		return l.errorf(start, "unexpected character %q", r)
	}
	l.advance(i - l.off)
	l.emit(tWord, l.src[off:l.off], start, off)
	return nil
}

func (l *lexer) nameLen(from int) int {
	i := from
	for i < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[i:])
		if !isNameChar(r) {
			break
		}
		i += size
	}
	return i - from
}

func (l *lexer) langLen(from int) int {
	i := from
	for i < len(l.src) && (isASCIILetter(l.src[i]) || isDigit(l.src[i]) || l.src[i] == '-') {
		i++
	}
	return i - from
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isASCIILetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isNameStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isNameChar(r rune) bool { return isNameStart(r) || unicode.IsDigit(r) }
