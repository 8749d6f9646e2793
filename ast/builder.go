package ast

import (
	"strings"

	"github.com/poml-lang/poml/cst"
	"github.com/poml-lang/poml/diag"
	"github.com/poml-lang/poml/lexer"
	"github.com/poml-lang/poml/source"
)

// Build lowers a CST into an AST, reporting recoverable problems to
// the collector. It always returns a tree, even for damaged input.
func Build(root *cst.Root, c *diag.Collector) *Root {
	b := &builder{c: c}
	return &Root{Children: b.content(root.Items), rng: root.Span()}
}

type builder struct {
	c *diag.Collector
}

func (b *builder) content(items []cst.Node) []Node {
	var out []Node
	for _, item := range items {
		out = mergeAppend(out, b.contentItem(item))
	}
	return out
}

func (b *builder) contentItem(n cst.Node) Node {
	switch v := n.(type) {
	case *cst.Text:
		return b.textRun(v)
	case *cst.Template:
		return b.template(v)
	case *cst.Element:
		return b.element(v)
	case *cst.Comment:
		return b.comment(v)
	case *cst.Pragma:
		return b.pragma(v)
	default:
		b.c.Errorf(diag.CodeUnknownContent, n.Span(), "unexpected %s node in content", n.Kind())
		return &String{rng: zeroAt(n.Span().Start)}
	}
}

// mergeAppend adds a node to a child list, folding adjacent STRING
// nodes into one so a literal run is never fragmented.
func mergeAppend(list []Node, n Node) []Node {
	if s, ok := n.(*String); ok && len(list) > 0 {
		if prev, ok := list[len(list)-1].(*String); ok {
			prev.Value += s.Value
			prev.rng = prev.rng.Union(s.rng)
			return list
		}
	}
	return append(list, n)
}

// textRun decodes a between-tag text run. Character entities are
// decoded; backslash sequences stay untouched here.
func (b *builder) textRun(t *cst.Text) *String {
	var sb strings.Builder
	for _, tok := range t.Tokens {
		if tok.Kind == lexer.Entity {
			if s, ok := decodeEntity(tok.Value); ok {
				sb.WriteString(s)
				continue
			}
			if strings.HasPrefix(tok.Value, "&#") {
				b.c.Errorf(diag.CodeEntity, tok.Range, "entity %q is not a valid code point", tok.Value)
			} else {
				b.c.Errorf(diag.CodeEntity, tok.Range, "unknown entity %q", tok.Value)
			}
		}
		sb.WriteString(tok.Value)
	}
	return &String{Value: sb.String(), rng: t.Span()}
}

// quotedRun decodes a text run from a quoted context. Backslash
// escapes are decoded; character entities stay untouched here.
func (b *builder) quotedRun(t *cst.Text) *String {
	var sb strings.Builder
	for _, tok := range t.Tokens {
		if tok.Kind == lexer.Escape {
			if s, ok := decodeEscape(tok.Value); ok {
				sb.WriteString(s)
				continue
			}
			b.c.Errorf(diag.CodeEscape, tok.Range, "escape %q is not a valid code point", tok.Value)
		}
		sb.WriteString(tok.Value)
	}
	return &String{Value: sb.String(), rng: t.Span()}
}

func (b *builder) template(t *cst.Template) *Template {
	expr := &String{Value: rawImage(t.Content), rng: tokensSpan(t.Content)}
	if len(t.Content) == 0 {
		expr.rng = zeroAt(t.Open.Range.End)
	}
	return &Template{Expr: expr, rng: t.Span()}
}

func (b *builder) element(el *cst.Element) Node {
	name := el.Open.Name.Value
	b.checkTagMatch(el)

	attrs := make([]*Attribute, 0, len(el.Open.Attrs))
	for _, attr := range el.Open.Attrs {
		attrs = append(attrs, b.attribute(attr))
	}

	if cst.IsLiteralTag(name) {
		content := &String{Value: rawImage(el.Literal), rng: tokensSpan(el.Literal)}
		if len(el.Literal) == 0 {
			content.rng = zeroAt(afterOpenTag(el.Open))
		}
		return &Text{Name: name, Attrs: attrs, Content: content, rng: el.Span()}
	}

	return &Element{
		Name:     name,
		Attrs:    attrs,
		Children: b.content(el.Items),
		rng:      el.Span(),
	}
}

// checkTagMatch compares open and close tag names case-insensitively.
// A mismatch is reported at the close tag but the element keeps the
// open tag's name. Close tags the parser already flagged are skipped.
func (b *builder) checkTagMatch(el *cst.Element) {
	if el.Close == nil || el.Close.Name.IsZero() {
		return
	}
	openName := el.Open.Name.Value
	closeName := el.Close.Name.Value
	if !strings.EqualFold(openName, closeName) {
		b.c.Errorf(diag.CodeTagMismatch, el.Close.Span(),
			"close tag </%s> does not match open tag <%s>", closeName, openName)
	}
}

func (b *builder) attribute(a *cst.Attribute) *Attribute {
	attr := &Attribute{
		Name: &String{Value: a.Name.Value, rng: a.Name.Range},
		rng:  a.Span(),
	}

	switch v := a.Value.(type) {
	case *cst.QuotedTemplate:
		attr.Value = b.quotedValue(v)
	case *cst.Template:
		tpl := b.template(v)
		attr.Value = &Value{Parts: []Node{tpl}, rng: tpl.Range()}
	case *cst.ForIterator:
		attr.Value = b.forIterator(v)
	case nil:
	default:
		b.c.Errorf(diag.CodeUnknownContent, v.Span(), "unexpected %s node as attribute value", v.Kind())
		attr.Value = &Value{
			Parts: []Node{&String{rng: zeroAt(v.Span().Start)}},
			rng:   v.Span(),
		}
	}
	return attr
}

func (b *builder) quotedValue(qt *cst.QuotedTemplate) *Value {
	val := &Value{rng: qt.Span()}
	for _, item := range qt.Items {
		switch v := item.(type) {
		case *cst.Text:
			val.Parts = mergeAppend(val.Parts, b.quotedRun(v))
		case *cst.Template:
			val.Parts = append(val.Parts, b.template(v))
		default:
			b.c.Errorf(diag.CodeUnknownContent, item.Span(), "unexpected %s node in quoted value", item.Kind())
			val.Parts = mergeAppend(val.Parts, &String{rng: zeroAt(item.Span().Start)})
		}
	}
	if len(val.Parts) == 0 {
		val.Parts = append(val.Parts, &String{rng: zeroAt(qt.Open.Range.End)})
	}
	return val
}

func (b *builder) forIterator(fi *cst.ForIterator) *ForIterator {
	node := &ForIterator{rng: fi.Span()}

	if fi.Iterator.IsZero() {
		node.Iterator = &String{rng: zeroAt(fi.Open.Range.End)}
	} else {
		node.Iterator = &String{Value: fi.Iterator.Value, rng: fi.Iterator.Range}
	}

	if len(fi.Collection) == 0 {
		pos := fi.Open.Range.End
		if !fi.In.IsZero() {
			pos = fi.In.Range.End
		}
		node.Collection = &String{rng: zeroAt(pos)}
	} else {
		node.Collection = b.quotedRun(&cst.Text{Tokens: fi.Collection})
	}
	return node
}

func (b *builder) comment(c *cst.Comment) *Comment {
	return &Comment{Text: rawImage(c.Body), rng: c.Span()}
}

func (b *builder) pragma(pr *cst.Pragma) *Pragma {
	node := &Pragma{rng: pr.Span()}

	if pr.Name.IsZero() {
		node.Name = &String{rng: zeroAt(pr.Keyword.Range.End)}
	} else {
		node.Name = &String{Value: pr.Name.Value, rng: pr.Name.Range}
	}

	for _, opt := range pr.Options {
		node.Options = append(node.Options, b.pragmaOption(opt))
	}
	return node
}

// pragmaOption lowers one option to a STRING: the identifier image for
// bare options, the decoded content for quoted ones.
func (b *builder) pragmaOption(opt *cst.PragmaOption) *String {
	if opt.Quoted == nil {
		return &String{Value: opt.Ident.Value, rng: opt.Ident.Range}
	}
	q := opt.Quoted
	if len(q.Content) == 0 {
		return &String{rng: zeroAt(q.Open.Range.End)}
	}
	return b.quotedRun(&cst.Text{Tokens: q.Content})
}

func rawImage(tokens []lexer.Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Value)
	}
	return sb.String()
}

func tokensSpan(tokens []lexer.Token) source.Range {
	var r source.Range
	for i, tok := range tokens {
		if i == 0 {
			r = tok.Range
			continue
		}
		r = r.Union(tok.Range)
	}
	return r
}

// afterOpenTag is the position just past an open tag, used to anchor
// zero-length ranges for empty element bodies.
func afterOpenTag(tag *cst.OpenTag) int {
	if !tag.CloseBracket.IsZero() {
		return tag.CloseBracket.Range.End
	}
	return tag.Span().End
}

func zeroAt(pos int) source.Range {
	return source.Range{Start: pos, End: pos}
}
