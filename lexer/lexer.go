// Package lexer turns POML source text into a flat token stream.
//
// Classification is purely lexical: an ordered table of matchers is tried
// at every position and the first hit wins, so precedence between
// overlapping classes ("</" vs "<", escape vs lone backslash) is fixed by
// declaration order, with maximal munch inside each class. The stream
// always covers the whole input; input the grammar would reject still
// tokenizes, it just lands in lower-precedence classes.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/poml-lang/poml/diag"
	"github.com/poml-lang/poml/source"
)

// rule pairs a token kind with its matcher. A matcher reports how many
// bytes of src starting at pos it consumes, or zero when it does not apply.
type rule struct {
	kind  Kind
	match func(src string, pos int) int
}

// rules is the token table in precedence order. Multi-character markers sit
// above their single-character prefixes, the escape form above the lone
// backslash, and the catch-all last.
var rules = []rule{
	{CommentOpen, matchLiteral("<!--")},
	{CommentClose, matchLiteral("-->")},
	{PragmaKeyword, matchPragmaKeyword},
	{TemplateOpen, matchLiteral("{{")},
	{TemplateClose, matchLiteral("}}")},
	{CloseTagOpen, matchLiteral("</")},
	{SelfClose, matchLiteral("/>")},
	{TagOpen, matchLiteral("<")},
	{TagClose, matchLiteral(">")},
	{Equals, matchLiteral("=")},
	{DoubleQuote, matchLiteral(`"`)},
	{SingleQuote, matchLiteral("'")},
	{Escape, matchEscape},
	{Backslash, matchLiteral(`\`)},
	{Entity, matchEntity},
	{Identifier, matchIdentifier},
	{Whitespace, matchWhitespace},
	{Text, matchText},
}

type lexer struct {
	src    string
	pos    int
	line   int
	col    int
	tokens []Token
	diags  []diag.Diagnostic
}

// Tokenize scans src into tokens. The stream ends with a zero-length EOF
// sentinel and reconstructs src exactly when token values are concatenated.
// Tokenize never fails; the only diagnostics it can produce flag byte
// sequences that are not valid UTF-8.
func Tokenize(src string) ([]Token, []diag.Diagnostic) {
	l := &lexer{src: src, line: 1, col: 1}
	for l.pos < len(l.src) {
		kind, n := Text, 0
		for _, r := range rules {
			if m := r.match(l.src, l.pos); m > 0 {
				kind, n = r.kind, m
				break
			}
		}
		if n == 0 {
			// matchText consumes at least one byte; never stall if a table
			// edit breaks that.
			n = 1
		}
		l.emit(kind, n)
	}
	l.tokens = append(l.tokens, Token{
		Kind:   EOF,
		Range:  source.At(l.pos),
		Line:   l.line,
		Column: l.col,
	})
	return l.tokens, l.diags
}

func (l *lexer) emit(kind Kind, n int) {
	start := l.pos
	value := l.src[start : start+n]
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Value:  value,
		Range:  source.Range{Start: start, End: start + n},
		Line:   l.line,
		Column: l.col,
	})
	if kind == Text && !utf8.ValidString(value) {
		l.diags = append(l.diags, diag.Diagnostic{
			Severity: diag.SeverityError,
			Code:     diag.CodeLex,
			Message:  "invalid UTF-8 byte sequence",
			Range:    source.Range{Start: start, End: start + n},
		})
	}
	l.pos += n
	for i := 0; i < n; i++ {
		if value[i] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
}

func matchLiteral(lit string) func(string, int) int {
	return func(src string, pos int) int {
		if strings.HasPrefix(src[pos:], lit) {
			return len(lit)
		}
		return 0
	}
}

const pragmaKeyword = "@pragma"

// matchPragmaKeyword matches "@pragma" case-insensitively, but not when an
// identifier continues right after it ("@pragmatic" is plain text).
func matchPragmaKeyword(src string, pos int) int {
	end := pos + len(pragmaKeyword)
	if end > len(src) || !strings.EqualFold(src[pos:end], pragmaKeyword) {
		return 0
	}
	if end < len(src) && isIdentByte(src[end]) {
		return 0
	}
	return len(pragmaKeyword)
}

// matchEscape recognizes the fixed escape forms: a backslash followed by
// one of n r t ' " \, a doubled brace, or an exact-width hex run. Anything
// else after a backslash is left for the lone-backslash rule.
func matchEscape(src string, pos int) int {
	if src[pos] != '\\' || pos+1 >= len(src) {
		return 0
	}
	switch src[pos+1] {
	case 'n', 'r', 't', '\'', '"', '\\':
		return 2
	case '{':
		if strings.HasPrefix(src[pos+1:], "{{") {
			return 3
		}
	case '}':
		if strings.HasPrefix(src[pos+1:], "}}") {
			return 3
		}
	case 'x':
		return matchHexEscape(src, pos, 2)
	case 'u':
		return matchHexEscape(src, pos, 4)
	case 'U':
		return matchHexEscape(src, pos, 8)
	}
	return 0
}

func matchHexEscape(src string, pos, digits int) int {
	end := pos + 2 + digits
	if end > len(src) {
		return 0
	}
	for i := pos + 2; i < end; i++ {
		if !isHexByte(src[i]) {
			return 0
		}
	}
	return 2 + digits
}

// matchEntity recognizes complete character references only: &name;,
// &#digits; or &#xhex;. An incomplete reference leaves the ampersand to
// the catch-all.
func matchEntity(src string, pos int) int {
	if src[pos] != '&' {
		return 0
	}
	i := pos + 1
	if i < len(src) && src[i] == '#' {
		i++
		hex := false
		if i < len(src) && (src[i] == 'x' || src[i] == 'X') {
			hex = true
			i++
		}
		digits := 0
		for i < len(src) && (hex && isHexByte(src[i]) || !hex && isDigitByte(src[i])) {
			i++
			digits++
		}
		if digits == 0 || i >= len(src) || src[i] != ';' {
			return 0
		}
		return i + 1 - pos
	}
	if i >= len(src) || !isAlphaByte(src[i]) {
		return 0
	}
	for i < len(src) && (isAlphaByte(src[i]) || isDigitByte(src[i])) {
		i++
	}
	if i >= len(src) || src[i] != ';' {
		return 0
	}
	return i + 1 - pos
}

// matchIdentifier consumes a run of name characters. A run that would
// swallow the dashes of a following "-->" stops where the close marker
// starts, so comment closing stays lexable after dash runs.
func matchIdentifier(src string, pos int) int {
	i := pos
	for i < len(src) && isIdentByte(src[i]) {
		i++
	}
	if i == pos {
		return 0
	}
	window := src[pos:min(i+1, len(src))]
	if j := strings.Index(window, "-->"); j >= 0 {
		return j
	}
	return i - pos
}

func matchWhitespace(src string, pos int) int {
	i := pos
	for i < len(src) && isSpaceByte(src[i]) {
		i++
	}
	return i - pos
}

// matchText is the catch-all: it always consumes the rune at pos, then
// extends over bytes no other rule could start. Invalid UTF-8 advances one
// byte at a time, keeping forward progress on arbitrary input.
func matchText(src string, pos int) int {
	_, size := utf8.DecodeRuneInString(src[pos:])
	i := pos + size
	for i < len(src) && !stopsText(src[i]) {
		_, size = utf8.DecodeRuneInString(src[i:])
		i += size
	}
	return i - pos
}

// stopsText reports whether b can begin some other token class.
func stopsText(b byte) bool {
	switch b {
	case '<', '>', '{', '}', '=', '"', '\'', '\\', '&', '/', '@':
		return true
	}
	return isIdentByte(b) || isSpaceByte(b)
}

func isIdentByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || isDigitByte(b) ||
		b == '_' || b == '-' || b == '.' || b == ':'
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	}
	return false
}

func isAlphaByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHexByte(b byte) bool {
	return isDigitByte(b) || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}
