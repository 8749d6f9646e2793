package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type want struct {
	kind  Kind
	value string
}

func kinds(tokens []Token) []want {
	out := make([]want, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == EOF {
			continue
		}
		out = append(out, want{t.Kind, t.Value})
	}
	return out
}

func TestTokenizeStreams(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []want
	}{
		{
			name:  "open tag",
			input: "<div>",
			expected: []want{
				{TagOpen, "<"}, {Identifier, "div"}, {TagClose, ">"},
			},
		},
		{
			name:  "close tag",
			input: "</div>",
			expected: []want{
				{CloseTagOpen, "</"}, {Identifier, "div"}, {TagClose, ">"},
			},
		},
		{
			name:  "self closing tag",
			input: "<br/>",
			expected: []want{
				{TagOpen, "<"}, {Identifier, "br"}, {SelfClose, "/>"},
			},
		},
		{
			name:  "comment",
			input: "<!-- hi -->",
			expected: []want{
				{CommentOpen, "<!--"}, {Whitespace, " "}, {Identifier, "hi"},
				{Whitespace, " "}, {CommentClose, "-->"},
			},
		},
		{
			name:  "template",
			input: "{{x}}",
			expected: []want{
				{TemplateOpen, "{{"}, {Identifier, "x"}, {TemplateClose, "}}"},
			},
		},
		{
			name:  "attribute shape",
			input: `a="b"`,
			expected: []want{
				{Identifier, "a"}, {Equals, "="}, {DoubleQuote, `"`},
				{Identifier, "b"}, {DoubleQuote, `"`},
			},
		},
		{
			name:  "single quotes",
			input: "'v'",
			expected: []want{
				{SingleQuote, "'"}, {Identifier, "v"}, {SingleQuote, "'"},
			},
		},
		{
			name:  "text with punctuation",
			input: "Hello, World",
			expected: []want{
				{Identifier, "Hello"}, {Text, ","}, {Whitespace, " "},
				{Identifier, "World"},
			},
		},
		{
			name:     "empty input",
			input:    "",
			expected: []want{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, diags := Tokenize(tt.input)
			assert.Empty(t, diags)
			assert.Equal(t, tt.expected, kinds(tokens))
		})
	}
}

func TestTokenizeEscapes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []want
	}{
		{"newline", `\n`, []want{{Escape, `\n`}}},
		{"carriage return", `\r`, []want{{Escape, `\r`}}},
		{"tab", `\t`, []want{{Escape, `\t`}}},
		{"single quote", `\'`, []want{{Escape, `\'`}}},
		{"double quote", `\"`, []want{{Escape, `\"`}}},
		{"backslash", `\\`, []want{{Escape, `\\`}}},
		{"template open", `\{{`, []want{{Escape, `\{{`}}},
		{"template close", `\}}`, []want{{Escape, `\}}`}}},
		{"hex byte", `\x41`, []want{{Escape, `\x41`}}},
		{"hex bmp", `\u0041`, []want{{Escape, `\u0041`}}},
		{"hex full", `\U0001F600`, []want{{Escape, `\U0001F600`}}},
		{
			"unknown letter falls back",
			`\q`,
			[]want{{Backslash, `\`}, {Identifier, "q"}},
		},
		{
			"short hex falls back",
			`\x4`,
			[]want{{Backslash, `\`}, {Identifier, "x4"}},
		},
		{
			"short unicode falls back",
			`\u12`,
			[]want{{Backslash, `\`}, {Identifier, "u12"}},
		},
		{
			"single brace after backslash",
			`\{x`,
			[]want{{Backslash, `\`}, {Text, "{"}, {Identifier, "x"}},
		},
		{
			"trailing backslash",
			`\`,
			[]want{{Backslash, `\`}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, _ := Tokenize(tt.input)
			assert.Equal(t, tt.expected, kinds(tokens))
		})
	}
}

func TestTokenizeEntities(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []want
	}{
		{"named", "&amp;", []want{{Entity, "&amp;"}}},
		{"decimal", "&#65;", []want{{Entity, "&#65;"}}},
		{"hex", "&#x41;", []want{{Entity, "&#x41;"}}},
		{"hex uppercase marker", "&#X41;", []want{{Entity, "&#X41;"}}},
		{
			"incomplete name",
			"&abc",
			[]want{{Text, "&"}, {Identifier, "abc"}},
		},
		{
			"bare ampersand",
			"& x",
			[]want{{Text, "&"}, {Whitespace, " "}, {Identifier, "x"}},
		},
		{
			"empty numeric",
			"&#;",
			[]want{{Text, "&#;"}},
		},
		{
			"missing digits after hex marker",
			"&#x;",
			[]want{{Text, "&#"}, {Identifier, "x"}, {Text, ";"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, _ := Tokenize(tt.input)
			assert.Equal(t, tt.expected, kinds(tokens))
		})
	}
}

func TestTokenizePragmaKeyword(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []want
	}{
		{"lowercase", "@pragma", []want{{PragmaKeyword, "@pragma"}}},
		{"uppercase", "@PRAGMA", []want{{PragmaKeyword, "@PRAGMA"}}},
		{"mixed case", "@Pragma", []want{{PragmaKeyword, "@Pragma"}}},
		{
			"identifier continues",
			"@pragmatic",
			[]want{{Text, "@"}, {Identifier, "pragmatic"}},
		},
		{
			"space between",
			"@ pragma",
			[]want{{Text, "@"}, {Whitespace, " "}, {Identifier, "pragma"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, _ := Tokenize(tt.input)
			assert.Equal(t, tt.expected, kinds(tokens))
		})
	}
}

func TestTokenizeDashRuns(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []want
	}{
		{"dashes inside identifier", "a--b", []want{{Identifier, "a--b"}}},
		{
			"identifier glued to comment close",
			"x-->",
			[]want{{Identifier, "x"}, {CommentClose, "-->"}},
		},
		{
			"extra dashes before close",
			"--->",
			[]want{{Identifier, "-"}, {CommentClose, "-->"}},
		},
		{
			"padded comment close",
			"<!-- a ---->",
			[]want{
				{CommentOpen, "<!--"}, {Whitespace, " "}, {Identifier, "a"},
				{Whitespace, " "}, {Identifier, "--"}, {CommentClose, "-->"},
			},
		},
		{"lone dash", "-", []want{{Identifier, "-"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, _ := Tokenize(tt.input)
			assert.Equal(t, tt.expected, kinds(tokens))
		})
	}
}

func TestTokenizeBraces(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []want
	}{
		{"single open brace", "{", []want{{Text, "{"}}},
		{"single close brace", "}", []want{{Text, "}"}}},
		{
			"triple open",
			"{{{",
			[]want{{TemplateOpen, "{{"}, {Text, "{"}},
		},
		{
			"triple close",
			"}}}",
			[]want{{TemplateClose, "}}"}, {Text, "}"}},
		},
		{
			"brace in text",
			"a { b",
			[]want{
				{Identifier, "a"}, {Whitespace, " "}, {Text, "{"},
				{Whitespace, " "}, {Identifier, "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, _ := Tokenize(tt.input)
			assert.Equal(t, tt.expected, kinds(tokens))
		})
	}
}

func TestTokenizeWhitespaceGrouping(t *testing.T) {
	tokens, _ := Tokenize("a \t\r\n\v\fb")
	assert.Equal(t, []want{
		{Identifier, "a"},
		{Whitespace, " \t\r\n\v\f"},
		{Identifier, "b"},
	}, kinds(tokens))
}

func TestTokenizeNonASCII(t *testing.T) {
	tokens, diags := Tokenize("héllo \u00a0 ix")
	assert.Empty(t, diags)
	assert.Equal(t, []want{
		{Identifier, "h"},
		{Text, "é"},
		{Identifier, "llo"},
		{Whitespace, " "},
		{Text, "\u00a0"},
		{Whitespace, " "},
		{Identifier, "ix"},
	}, kinds(tokens))
}

func TestTokenizeInvalidUTF8(t *testing.T) {
	tokens, diags := Tokenize("a\xff\xfeb")
	require.Len(t, diags, 1)
	assert.Equal(t, "invalid UTF-8 byte sequence", diags[0].Message)
	assert.Equal(t, []want{
		{Identifier, "a"},
		{Text, "\xff\xfe"},
		{Identifier, "b"},
	}, kinds(tokens))
}

func TestTokenizeLinesAndColumns(t *testing.T) {
	tokens, _ := Tokenize("<a>\n  {{x}}")

	byValue := map[string]Token{}
	for _, tok := range tokens {
		byValue[tok.Value] = tok
	}

	assert.Equal(t, 1, byValue["<"].Line)
	assert.Equal(t, 1, byValue["<"].Column)
	assert.Equal(t, 1, byValue["a"].Line)
	assert.Equal(t, 2, byValue["a"].Column)
	assert.Equal(t, 2, byValue["{{"].Line)
	assert.Equal(t, 3, byValue["{{"].Column)
	assert.Equal(t, 2, byValue["x"].Line)
	assert.Equal(t, 5, byValue["x"].Column)
}

func TestTokenizeCoverage(t *testing.T) {
	inputs := []string{
		"",
		"<div a=\"x\" b={{ y }}>text</div>",
		"<!-- @pragma version \"1.0\" -->",
		"<text>Literal {{ not_interpolated }}</text>",
		"Hello {{ name }}!",
		"a < b && c > d",
		"broken <div attr=' unclosed",
		"{{{}}}{}{{",
		"\\q \\x4 \\u00 &#xZZ; &amp &;",
		"<!-- a ---->--->",
		"mixed\twhitespace\r\nand nbsp",
		"<a/><b></c><!--",
		strings.Repeat("<>&\\\"'{}=", 40),
		"байт юникода и \xff\xfe мусор",
	}

	for _, input := range inputs {
		tokens, _ := Tokenize(input)
		require.NotEmpty(t, tokens)

		var sb strings.Builder
		offset := 0
		for i, tok := range tokens {
			assert.Equal(t, offset, tok.Range.Start,
				"token %d of %q not contiguous", i, input)
			assert.Equal(t, tok.Range.End-tok.Range.Start, len(tok.Value))
			if tok.Kind != EOF {
				assert.Greater(t, len(tok.Value), 0,
					"zero-length token %d in %q", i, input)
			}
			sb.WriteString(tok.Value)
			offset = tok.Range.End
		}

		last := tokens[len(tokens)-1]
		assert.Equal(t, EOF, last.Kind)
		assert.Equal(t, len(input), last.Range.Start)
		assert.Equal(t, input, sb.String())
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "IDENTIFIER", Identifier.String())
	assert.Equal(t, "EOF", EOF.String())
	assert.Equal(t, "INVALID", Invalid.String())
	assert.Equal(t, "KIND(99)", Kind(99).String())
}

func TestTokenHelpers(t *testing.T) {
	assert.True(t, Token{}.IsZero())

	tokens, _ := Tokenize("x")
	assert.False(t, tokens[0].IsZero())
	assert.Equal(t, `IDENTIFIER("x")@1:1`, tokens[0].String())
}
