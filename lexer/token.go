package lexer

import (
	"fmt"

	"github.com/poml-lang/poml/source"
)

// Kind classifies a token. The zero value marks an absent token, never a
// real one.
type Kind int

const (
	Invalid Kind = iota
	CommentOpen
	CommentClose
	PragmaKeyword
	TemplateOpen
	TemplateClose
	CloseTagOpen
	TagOpen
	SelfClose
	TagClose
	Equals
	DoubleQuote
	SingleQuote
	Escape
	Backslash
	Entity
	Identifier
	Whitespace
	Text
	EOF
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "INVALID"
	case CommentOpen:
		return "COMMENT_OPEN"
	case CommentClose:
		return "COMMENT_CLOSE"
	case PragmaKeyword:
		return "PRAGMA_KEYWORD"
	case TemplateOpen:
		return "TEMPLATE_OPEN"
	case TemplateClose:
		return "TEMPLATE_CLOSE"
	case CloseTagOpen:
		return "CLOSE_TAG_OPEN"
	case TagOpen:
		return "TAG_OPEN"
	case SelfClose:
		return "SELF_CLOSE"
	case TagClose:
		return "TAG_CLOSE"
	case Equals:
		return "EQUALS"
	case DoubleQuote:
		return "DOUBLE_QUOTE"
	case SingleQuote:
		return "SINGLE_QUOTE"
	case Escape:
		return "ESCAPE"
	case Backslash:
		return "BACKSLASH"
	case Entity:
		return "ENTITY"
	case Identifier:
		return "IDENTIFIER"
	case Whitespace:
		return "WHITESPACE"
	case Text:
		return "TEXT"
	case EOF:
		return "EOF"
	default:
		return fmt.Sprintf("KIND(%d)", int(k))
	}
}

// Token is one classified span of source text. Value is the exact slice of
// input the token covers; consecutive tokens are contiguous, and only the
// trailing EOF sentinel is empty.
type Token struct {
	Kind   Kind
	Value  string
	Range  source.Range
	Line   int
	Column int
}

// IsZero reports whether t is the zero token, used for absent slots in
// syntax nodes.
func (t Token) IsZero() bool {
	return t.Kind == Invalid
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Value, t.Line, t.Column)
}
