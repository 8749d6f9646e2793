// Package ast defines the abstract syntax tree for POML documents and
// the builder that produces it from a CST.
//
// AST nodes drop delimiter and whitespace bookkeeping and carry decoded
// string values. Every node keeps the byte range of the source text it
// was derived from so diagnostics can point back into the document.
package ast

import (
	"github.com/poml-lang/poml/source"
)

// Kind discriminates AST node types.
type Kind int

const (
	KindRoot Kind = iota
	KindElement
	KindText
	KindString
	KindValue
	KindTemplate
	KindForIterator
	KindAttribute
	KindComment
	KindPragma
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "ROOT"
	case KindElement:
		return "ELEMENT"
	case KindText:
		return "TEXT"
	case KindString:
		return "STRING"
	case KindValue:
		return "VALUE"
	case KindTemplate:
		return "TEMPLATE"
	case KindForIterator:
		return "FORITERATOR"
	case KindAttribute:
		return "ATTRIBUTE"
	case KindComment:
		return "COMMENT"
	case KindPragma:
		return "PRAGMA"
	default:
		return "KIND(?)"
	}
}

// Node is implemented by every AST node.
type Node interface {
	Kind() Kind
	Range() source.Range
}

// Root is the document node. Children are ELEMENT, TEXT, STRING,
// TEMPLATE, COMMENT, and PRAGMA nodes in document order.
type Root struct {
	Children []Node

	rng source.Range
}

func (*Root) Kind() Kind            { return KindRoot }
func (n *Root) Range() source.Range { return n.rng }

// Element is a regular tag pair with its attributes and content. Name
// comes from the open tag even when the close tag disagrees.
type Element struct {
	Name     string
	Attrs    []*Attribute
	Children []Node

	rng source.Range
}

func (*Element) Kind() Kind            { return KindElement }
func (n *Element) Range() source.Range { return n.rng }

// Text is a literal element such as <text> or <template>. Its body is
// a single verbatim STRING; template syntax inside is not interpreted.
type Text struct {
	Name    string
	Attrs   []*Attribute
	Content *String

	rng source.Range
}

func (*Text) Kind() Kind            { return KindText }
func (n *Text) Range() source.Range { return n.rng }

// String is a decoded literal text value.
type String struct {
	Value string

	rng source.Range
}

func (*String) Kind() Kind            { return KindString }
func (n *String) Range() source.Range { return n.rng }

// Value is a composite attribute value: STRING and TEMPLATE parts in
// source order. Its range includes the surrounding quotes when the
// value was quoted; the parts' ranges never do.
type Value struct {
	Parts []Node

	rng source.Range
}

func (*Value) Kind() Kind            { return KindValue }
func (n *Value) Range() source.Range { return n.rng }

// Template is one {{ ... }} interpolation wrapping its raw expression
// text. The expression is opaque at this stage.
type Template struct {
	Expr *String

	rng source.Range
}

func (*Template) Kind() Kind            { return KindTemplate }
func (n *Template) Range() source.Range { return n.rng }

// ForIterator is the parsed value of a for attribute: the iterator
// name and the collection expression from "item in items".
type ForIterator struct {
	Iterator   *String
	Collection *String

	rng source.Range
}

func (*ForIterator) Kind() Kind            { return KindForIterator }
func (n *ForIterator) Range() source.Range { return n.rng }

// Attribute is a key with its value. Value is a *Value or
// *ForIterator, or nil when the source had none.
type Attribute struct {
	Name  *String
	Value Node

	rng source.Range
}

func (*Attribute) Kind() Kind            { return KindAttribute }
func (n *Attribute) Range() source.Range { return n.rng }

// Comment keeps a comment's body verbatim.
type Comment struct {
	Text string

	rng source.Range
}

func (*Comment) Kind() Kind            { return KindComment }
func (n *Comment) Range() source.Range { return n.rng }

// Pragma is a compiler directive: a name plus option STRINGs, from
// "<!-- @pragma name options -->".
type Pragma struct {
	Name    *String
	Options []*String

	rng source.Range
}

func (*Pragma) Kind() Kind            { return KindPragma }
func (n *Pragma) Range() source.Range { return n.rng }

var (
	_ Node = (*Root)(nil)
	_ Node = (*Element)(nil)
	_ Node = (*Text)(nil)
	_ Node = (*String)(nil)
	_ Node = (*Value)(nil)
	_ Node = (*Template)(nil)
	_ Node = (*ForIterator)(nil)
	_ Node = (*Attribute)(nil)
	_ Node = (*Comment)(nil)
	_ Node = (*Pragma)(nil)
)
