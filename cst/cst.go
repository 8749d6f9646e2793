// Package cst defines the concrete syntax tree for POML documents.
//
// CST nodes keep every token the lexer produced, including whitespace
// and quote delimiters, so later phases can recover exact source spans.
// Delimiter slots hold the zero Token when recovery left them unfilled.
package cst

import (
	"strings"

	"github.com/poml-lang/poml/lexer"
	"github.com/poml-lang/poml/source"
)

// Kind discriminates CST node types.
type Kind int

const (
	KindRoot Kind = iota
	KindText
	KindTemplate
	KindQuoted
	KindQuotedTemplate
	KindForIterator
	KindAttribute
	KindOpenTag
	KindCloseTag
	KindElement
	KindComment
	KindPragmaOption
	KindPragma
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "ROOT"
	case KindText:
		return "TEXT"
	case KindTemplate:
		return "TEMPLATE"
	case KindQuoted:
		return "QUOTED"
	case KindQuotedTemplate:
		return "QUOTED_TEMPLATE"
	case KindForIterator:
		return "FOR_ITERATOR"
	case KindAttribute:
		return "ATTRIBUTE"
	case KindOpenTag:
		return "OPEN_TAG"
	case KindCloseTag:
		return "CLOSE_TAG"
	case KindElement:
		return "ELEMENT"
	case KindComment:
		return "COMMENT"
	case KindPragmaOption:
		return "PRAGMA_OPTION"
	case KindPragma:
		return "PRAGMA"
	default:
		return "KIND(?)"
	}
}

// Node is implemented by every CST node.
type Node interface {
	Kind() Kind
	Span() source.Range
}

// IsLiteralTag reports whether a tag name selects verbatim content
// parsing, where the body is captured raw and templates stay inert.
func IsLiteralTag(name string) bool {
	return strings.EqualFold(name, "text") || strings.EqualFold(name, "template")
}

// spanAcc unions token and child spans, ignoring unfilled slots.
type spanAcc struct {
	r   source.Range
	set bool
}

func (a *spanAcc) add(r source.Range) {
	if !a.set {
		a.r = r
		a.set = true
		return
	}
	a.r = a.r.Union(r)
}

func (a *spanAcc) tok(t lexer.Token) {
	if t.IsZero() {
		return
	}
	a.add(t.Range)
}

func (a *spanAcc) toks(ts []lexer.Token) {
	for _, t := range ts {
		a.tok(t)
	}
}

func (a *spanAcc) node(n Node) {
	if n == nil {
		return
	}
	a.add(n.Span())
}

func (a *spanAcc) nodes(ns []Node) {
	for _, n := range ns {
		a.node(n)
	}
}

// Root holds the top-level content items of a document.
type Root struct {
	Items []Node
}

func (*Root) Kind() Kind { return KindRoot }

func (n *Root) Span() source.Range {
	var a spanAcc
	a.nodes(n.Items)
	return a.r
}

// Text is a run of adjacent non-structural tokens: literal text,
// identifiers, whitespace, entities, and escapes.
type Text struct {
	Tokens []lexer.Token
}

func (*Text) Kind() Kind { return KindText }

func (n *Text) Span() source.Range {
	var a spanAcc
	a.toks(n.Tokens)
	return a.r
}

// Template is a {{ ... }} interpolation. Content holds the raw
// expression tokens between the delimiters.
type Template struct {
	Open    lexer.Token
	Content []lexer.Token
	Close   lexer.Token
}

func (*Template) Kind() Kind { return KindTemplate }

func (n *Template) Span() source.Range {
	var a spanAcc
	a.tok(n.Open)
	a.toks(n.Content)
	a.tok(n.Close)
	return a.r
}

// Quoted is a quoted string whose content is kept raw. Templates are
// not recognized inside it.
type Quoted struct {
	Open    lexer.Token
	Content []lexer.Token
	Close   lexer.Token
}

func (*Quoted) Kind() Kind { return KindQuoted }

func (n *Quoted) Span() source.Range {
	var a spanAcc
	a.tok(n.Open)
	a.toks(n.Content)
	a.tok(n.Close)
	return a.r
}

// QuotedTemplate is a quoted attribute value whose content alternates
// between Text runs and Template interpolations.
type QuotedTemplate struct {
	Open  lexer.Token
	Items []Node
	Close lexer.Token
}

func (*QuotedTemplate) Kind() Kind { return KindQuotedTemplate }

func (n *QuotedTemplate) Span() source.Range {
	var a spanAcc
	a.tok(n.Open)
	a.nodes(n.Items)
	a.tok(n.Close)
	return a.r
}

// ForIterator is the quoted "item in collection" value of a for
// attribute. Collection may span several tokens; interleaved
// whitespace is collected in Ws. Skipped holds tokens dropped while
// recovering from a malformed value.
type ForIterator struct {
	Open       lexer.Token
	Iterator   lexer.Token
	In         lexer.Token
	Collection []lexer.Token
	Ws         []lexer.Token
	Skipped    []lexer.Token
	Close      lexer.Token
}

func (*ForIterator) Kind() Kind { return KindForIterator }

func (n *ForIterator) Span() source.Range {
	var a spanAcc
	a.tok(n.Open)
	a.tok(n.Iterator)
	a.tok(n.In)
	a.toks(n.Collection)
	a.toks(n.Ws)
	a.toks(n.Skipped)
	a.tok(n.Close)
	return a.r
}

// Attribute is a key=value pair inside an open tag. Value is a
// QuotedTemplate, Template, or ForIterator node, or nil when recovery
// could not parse one.
type Attribute struct {
	Name  lexer.Token
	Ws    []lexer.Token
	Eq    lexer.Token
	Value Node
}

func (*Attribute) Kind() Kind { return KindAttribute }

func (n *Attribute) Span() source.Range {
	var a spanAcc
	a.tok(n.Name)
	a.toks(n.Ws)
	a.tok(n.Eq)
	a.node(n.Value)
	return a.r
}

// OpenTag is the "<name attr...>" or "<name attr.../>" head of an
// element. CloseBracket is either TagClose or SelfClose, or the zero
// Token when the tag is unterminated.
type OpenTag struct {
	Bracket      lexer.Token
	Name         lexer.Token
	Attrs        []*Attribute
	Ws           []lexer.Token
	Skipped      []lexer.Token
	CloseBracket lexer.Token
}

func (*OpenTag) Kind() Kind { return KindOpenTag }

func (n *OpenTag) Span() source.Range {
	var a spanAcc
	a.tok(n.Bracket)
	a.tok(n.Name)
	for _, attr := range n.Attrs {
		a.node(attr)
	}
	a.toks(n.Ws)
	a.toks(n.Skipped)
	a.tok(n.CloseBracket)
	return a.r
}

// SelfClosing reports whether the tag ended with "/>".
func (n *OpenTag) SelfClosing() bool {
	return n.CloseBracket.Kind == lexer.SelfClose
}

// CloseTag is a "</name>" tag.
type CloseTag struct {
	Open  lexer.Token
	Name  lexer.Token
	Ws    []lexer.Token
	Close lexer.Token
}

func (*CloseTag) Kind() Kind { return KindCloseTag }

func (n *CloseTag) Span() source.Range {
	var a spanAcc
	a.tok(n.Open)
	a.tok(n.Name)
	a.toks(n.Ws)
	a.tok(n.Close)
	return a.r
}

// Element is an open tag with its content and close tag. Self-closing
// elements have no content and a nil Close. Literal elements keep
// their body as a raw token run in Literal instead of Items.
type Element struct {
	Open    *OpenTag
	Items   []Node
	Literal []lexer.Token
	Close   *CloseTag
}

func (*Element) Kind() Kind { return KindElement }

func (n *Element) Span() source.Range {
	var a spanAcc
	if n.Open != nil {
		a.add(n.Open.Span())
	}
	a.nodes(n.Items)
	a.toks(n.Literal)
	if n.Close != nil {
		a.add(n.Close.Span())
	}
	return a.r
}

// Comment is a "<!-- ... -->" block with its body kept raw.
type Comment struct {
	Open  lexer.Token
	Body  []lexer.Token
	Close lexer.Token
}

func (*Comment) Kind() Kind { return KindComment }

func (n *Comment) Span() source.Range {
	var a spanAcc
	a.tok(n.Open)
	a.toks(n.Body)
	a.tok(n.Close)
	return a.r
}

// PragmaOption is one option in a pragma: either a bare identifier or
// a quoted string. Exactly one of Ident and Quoted is set.
type PragmaOption struct {
	Ident  lexer.Token
	Quoted *Quoted
}

func (*PragmaOption) Kind() Kind { return KindPragmaOption }

func (n *PragmaOption) Span() source.Range {
	if n.Quoted != nil {
		return n.Quoted.Span()
	}
	return n.Ident.Range
}

// Pragma is a "<!-- @pragma name options -->" directive.
type Pragma struct {
	Open    lexer.Token
	Keyword lexer.Token
	Name    lexer.Token
	Options []*PragmaOption
	Ws      []lexer.Token
	Skipped []lexer.Token
	Close   lexer.Token
}

func (*Pragma) Kind() Kind { return KindPragma }

func (n *Pragma) Span() source.Range {
	var a spanAcc
	a.tok(n.Open)
	a.tok(n.Keyword)
	a.tok(n.Name)
	for _, opt := range n.Options {
		a.node(opt)
	}
	a.toks(n.Ws)
	a.toks(n.Skipped)
	a.tok(n.Close)
	return a.r
}

var (
	_ Node = (*Root)(nil)
	_ Node = (*Text)(nil)
	_ Node = (*Template)(nil)
	_ Node = (*Quoted)(nil)
	_ Node = (*QuotedTemplate)(nil)
	_ Node = (*ForIterator)(nil)
	_ Node = (*Attribute)(nil)
	_ Node = (*OpenTag)(nil)
	_ Node = (*CloseTag)(nil)
	_ Node = (*Element)(nil)
	_ Node = (*Comment)(nil)
	_ Node = (*PragmaOption)(nil)
	_ Node = (*Pragma)(nil)
)
