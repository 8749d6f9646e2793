package cst

import (
	"fmt"
	"strings"

	"github.com/poml-lang/poml/diag"
	"github.com/poml-lang/poml/lexer"
	"github.com/poml-lang/poml/source"
)

// Parse builds a CST from a token stream. Malformed input yields a
// best-effort tree plus diagnostics; Parse never fails outright.
func Parse(tokens []lexer.Token) (*Root, []diag.Diagnostic) {
	p := &parser{tokens: tokens}
	if n := len(tokens); n == 0 || tokens[n-1].Kind != lexer.EOF {
		end := 0
		if n > 0 {
			end = tokens[n-1].Range.End
		}
		p.tokens = append(p.tokens[:n:n], lexer.Token{
			Kind:  lexer.EOF,
			Range: source.Range{Start: end, End: end},
		})
	}
	root := p.parseRoot()
	return root, p.diags
}

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diag.Diagnostic
}

func (p *parser) cur() lexer.Token { return p.tokens[p.pos] }

func (p *parser) at(kind lexer.Kind) bool { return p.cur().Kind == kind }

func (p *parser) atEOF() bool { return p.at(lexer.EOF) }

// peek looks n tokens ahead, clamping to the trailing EOF.
func (p *parser) peek(n int) lexer.Token {
	i := p.pos + n
	if i >= len(p.tokens) {
		i = len(p.tokens) - 1
	}
	return p.tokens[i]
}

// advance consumes the current token. It stays put at EOF so callers
// can never run off the end of the stream.
func (p *parser) advance() lexer.Token {
	t := p.cur()
	if t.Kind != lexer.EOF {
		p.pos++
	}
	return t
}

func (p *parser) eatWs(dst *[]lexer.Token) {
	for p.at(lexer.Whitespace) {
		*dst = append(*dst, p.advance())
	}
}

func (p *parser) errorf(rng source.Range, format string, args ...any) {
	p.diags = append(p.diags, diag.Diagnostic{
		Severity: diag.SeverityError,
		Code:     diag.CodeParse,
		Message:  fmt.Sprintf(format, args...),
		Range:    rng,
	})
}

// peekIsElement reports whether the cursor sits on a real tag start,
// "<" followed by a name. A bare "<" stays in the surrounding text.
func (p *parser) peekIsElement() bool {
	return p.at(lexer.TagOpen) && p.peek(1).Kind == lexer.Identifier
}

// peekIsPragma distinguishes "<!-- @pragma" from an ordinary comment.
func (p *parser) peekIsPragma() bool {
	if !p.at(lexer.CommentOpen) {
		return false
	}
	i := 1
	if p.peek(i).Kind == lexer.Whitespace {
		i++
	}
	return p.peek(i).Kind == lexer.PragmaKeyword
}

func (p *parser) parseRoot() *Root {
	root := &Root{}
	for !p.atEOF() {
		before := p.pos
		if item := p.parseContentItem(); item != nil {
			root.Items = appendContent(root.Items, item)
		}
		if p.pos == before {
			p.advance()
		}
	}
	return root
}

// parseContentItem parses one element-content alternative. It returns
// nil for constructs that recovery drops, such as a stray close tag.
func (p *parser) parseContentItem() Node {
	switch {
	case p.peekIsPragma():
		return p.parsePragma()
	case p.at(lexer.CommentOpen):
		return p.parseComment()
	case p.at(lexer.CloseTagOpen):
		ct := p.parseCloseTag()
		p.errorf(ct.Span(), "close tag </%s> has no matching open tag", ct.Name.Value)
		return nil
	case p.peekIsElement():
		return p.parseElement()
	case p.at(lexer.TemplateOpen):
		return p.parseTemplate(lexer.Invalid)
	default:
		if txt := p.parseText(); txt != nil {
			return txt
		}
		return nil
	}
}

// appendContent adds an item to a content list, merging adjacent Text
// runs so recovery never leaves a run fragmented.
func appendContent(items []Node, n Node) []Node {
	if txt, ok := n.(*Text); ok && len(items) > 0 {
		if prev, ok := items[len(items)-1].(*Text); ok {
			prev.Tokens = append(prev.Tokens, txt.Tokens...)
			return items
		}
	}
	return append(items, n)
}

// parseText absorbs tokens until the next structural construct. A "<"
// that does not start a tag is reported once and kept as text.
func (p *parser) parseText() *Text {
	txt := &Text{}
	for {
		switch {
		case p.atEOF(), p.at(lexer.CommentOpen), p.at(lexer.CloseTagOpen), p.at(lexer.TemplateOpen):
			if len(txt.Tokens) == 0 {
				return nil
			}
			return txt
		case p.at(lexer.TagOpen):
			if p.peek(1).Kind == lexer.Identifier {
				if len(txt.Tokens) == 0 {
					return nil
				}
				return txt
			}
			p.errorf(p.cur().Range, "stray \"<\" in text; use &lt; for a literal one")
			txt.Tokens = append(txt.Tokens, p.advance())
		default:
			txt.Tokens = append(txt.Tokens, p.advance())
		}
	}
}

// parseTemplate consumes a {{ ... }} run. The expression is opaque:
// every token up to the closing braces lands in Content. A non-Invalid
// stop kind ends an unterminated template early, so a template inside
// a quoted value cannot swallow the closing quote.
func (p *parser) parseTemplate(stop lexer.Kind) *Template {
	tpl := &Template{Open: p.advance()}
	for {
		switch {
		case p.at(lexer.TemplateClose):
			tpl.Close = p.advance()
			return tpl
		case p.atEOF(), stop != lexer.Invalid && p.at(stop):
			p.errorf(tpl.Open.Range, "template expression is missing \"}}\"")
			return tpl
		default:
			tpl.Content = append(tpl.Content, p.advance())
		}
	}
}

func (p *parser) parseElement() *Element {
	el := &Element{Open: p.parseOpenTag()}
	if el.Open.SelfClosing() {
		return el
	}

	if IsLiteralTag(el.Open.Name.Value) {
		el.Literal = p.parseLiteralContent(el.Open.Name.Value)
	} else {
		for {
			switch {
			case p.atEOF():
				p.errorf(el.Open.Span(), "element <%s> is never closed", el.Open.Name.Value)
				return el
			case p.at(lexer.CloseTagOpen):
				el.Close = p.parseCloseTag()
				return el
			default:
				before := p.pos
				if item := p.parseContentItem(); item != nil {
					el.Items = appendContent(el.Items, item)
				}
				if p.pos == before {
					p.advance()
				}
			}
		}
	}

	if p.at(lexer.CloseTagOpen) {
		el.Close = p.parseCloseTag()
	} else {
		p.errorf(el.Open.Span(), "element <%s> is never closed", el.Open.Name.Value)
	}
	return el
}

// parseLiteralContent captures a raw token run up to the close tag
// matching the given literal tag name. Nested same-named open tags
// deepen the scan so an inner pair cannot end the outer element.
func (p *parser) parseLiteralContent(name string) []lexer.Token {
	var body []lexer.Token
	depth := 0
	for {
		switch {
		case p.atEOF():
			return body
		case p.at(lexer.CloseTagOpen) && p.peek(1).Kind == lexer.Identifier &&
			strings.EqualFold(p.peek(1).Value, name):
			if depth == 0 {
				return body
			}
			depth--
			body = append(body, p.advance())
		case p.peekIsElement() && strings.EqualFold(p.peek(1).Value, name):
			if p.innerOpenDeepens() {
				depth++
			}
			body = append(body, p.advance())
		default:
			body = append(body, p.advance())
		}
	}
}

// innerOpenDeepens scans ahead from an inner open tag to decide
// whether it opens a nested element. Quoted attribute values are
// skipped so a ">" inside one does not count as the tag end.
func (p *parser) innerOpenDeepens() bool {
	quote := lexer.Invalid
	for i := p.pos + 2; i < len(p.tokens); i++ {
		tok := p.tokens[i]
		switch {
		case tok.Kind == lexer.EOF:
			return false
		case quote != lexer.Invalid:
			if tok.Kind == quote {
				quote = lexer.Invalid
			}
		case tok.Kind == lexer.DoubleQuote || tok.Kind == lexer.SingleQuote:
			quote = tok.Kind
		case tok.Kind == lexer.TagClose:
			return true
		case tok.Kind == lexer.SelfClose:
			return false
		case tok.Kind == lexer.TagOpen || tok.Kind == lexer.CloseTagOpen:
			return false
		}
	}
	return false
}

func (p *parser) parseOpenTag() *OpenTag {
	tag := &OpenTag{Bracket: p.advance()}
	tag.Name = p.advance()
	for {
		switch {
		case p.at(lexer.Whitespace):
			tag.Ws = append(tag.Ws, p.advance())
		case p.at(lexer.TagClose), p.at(lexer.SelfClose):
			tag.CloseBracket = p.advance()
			return tag
		case p.at(lexer.Identifier):
			tag.Attrs = append(tag.Attrs, p.parseAttribute())
		case p.atEOF(), p.at(lexer.TagOpen), p.at(lexer.CloseTagOpen), p.at(lexer.CommentOpen):
			p.errorf(tag.Name.Range, "tag <%s> is missing \">\"", tag.Name.Value)
			return tag
		default:
			p.errorf(p.cur().Range, "unexpected %s in tag <%s>", p.cur().Kind, tag.Name.Value)
			tag.Skipped = append(tag.Skipped, p.advance())
		}
	}
}

func (p *parser) parseAttribute() *Attribute {
	attr := &Attribute{Name: p.advance()}
	p.eatWs(&attr.Ws)
	if !p.at(lexer.Equals) {
		p.errorf(attr.Name.Range, "attribute %q is missing a value", attr.Name.Value)
		return attr
	}
	attr.Eq = p.advance()
	p.eatWs(&attr.Ws)

	switch {
	case p.at(lexer.DoubleQuote), p.at(lexer.SingleQuote):
		if strings.EqualFold(attr.Name.Value, "for") {
			attr.Value = p.parseForIterator()
		} else {
			attr.Value = p.parseQuotedTemplate()
		}
	case p.at(lexer.TemplateOpen):
		attr.Value = p.parseTemplate(lexer.Invalid)
	default:
		p.errorf(attr.Span(), "attribute %q needs a quoted value or a template", attr.Name.Value)
	}
	return attr
}

func (p *parser) parseQuotedTemplate() *QuotedTemplate {
	qt := &QuotedTemplate{Open: p.advance()}
	quote := qt.Open.Kind
	for {
		switch {
		case p.at(quote):
			qt.Close = p.advance()
			return qt
		case p.atEOF():
			p.errorf(qt.Open.Range, "quoted value is missing its closing quote")
			return qt
		case p.at(lexer.TemplateOpen):
			qt.Items = append(qt.Items, p.parseTemplate(quote))
		default:
			qt.Items = appendContent(qt.Items, p.parseQuotedText(quote))
		}
	}
}

// parseQuotedText absorbs raw tokens inside a quoted value up to the
// next template, the closing quote, or EOF.
func (p *parser) parseQuotedText(quote lexer.Kind) *Text {
	txt := &Text{}
	for !p.atEOF() && !p.at(quote) && !p.at(lexer.TemplateOpen) {
		txt.Tokens = append(txt.Tokens, p.advance())
	}
	return txt
}

// parseQuoted consumes a raw quoted string. A non-Invalid stop kind
// ends an unterminated string before it swallows enclosing syntax.
func (p *parser) parseQuoted(stop lexer.Kind) *Quoted {
	q := &Quoted{Open: p.advance()}
	quote := q.Open.Kind
	for {
		switch {
		case p.at(quote):
			q.Close = p.advance()
			return q
		case p.atEOF(), stop != lexer.Invalid && p.at(stop):
			p.errorf(q.Open.Range, "quoted value is missing its closing quote")
			return q
		default:
			q.Content = append(q.Content, p.advance())
		}
	}
}

func (p *parser) parseForIterator() *ForIterator {
	fi := &ForIterator{Open: p.advance()}
	quote := fi.Open.Kind
	p.eatWs(&fi.Ws)
	if p.at(lexer.Identifier) {
		fi.Iterator = p.advance()
	}
	p.eatWs(&fi.Ws)
	if p.at(lexer.Identifier) && p.cur().Value == "in" {
		fi.In = p.advance()
	}
	p.eatWs(&fi.Ws)
	for !p.atEOF() && !p.at(quote) {
		fi.Collection = append(fi.Collection, p.advance())
	}
	for n := len(fi.Collection); n > 0 && fi.Collection[n-1].Kind == lexer.Whitespace; n-- {
		fi.Ws = append(fi.Ws, fi.Collection[n-1])
		fi.Collection = fi.Collection[:n-1]
	}

	if p.at(quote) {
		fi.Close = p.advance()
	} else {
		p.errorf(fi.Open.Range, "for attribute is missing its closing quote")
	}
	if fi.Iterator.IsZero() || fi.In.IsZero() || len(fi.Collection) == 0 {
		p.errorf(fi.Span(), "for attribute must have the form \"item in items\"")
	}
	return fi
}

func (p *parser) parseCloseTag() *CloseTag {
	ct := &CloseTag{Open: p.advance()}
	if p.at(lexer.Identifier) {
		ct.Name = p.advance()
	} else {
		p.errorf(ct.Open.Range, "close tag is missing its tag name")
	}
	p.eatWs(&ct.Ws)
	if p.at(lexer.TagClose) {
		ct.Close = p.advance()
	} else {
		p.errorf(ct.Span(), "close tag </%s> is missing \">\"", ct.Name.Value)
	}
	return ct
}

func (p *parser) parseComment() *Comment {
	c := &Comment{Open: p.advance()}
	for {
		switch {
		case p.at(lexer.CommentClose):
			c.Close = p.advance()
			return c
		case p.atEOF():
			p.errorf(c.Open.Range, "comment is missing \"-->\"")
			return c
		default:
			c.Body = append(c.Body, p.advance())
		}
	}
}

func (p *parser) parsePragma() *Pragma {
	pr := &Pragma{Open: p.advance()}
	p.eatWs(&pr.Ws)
	pr.Keyword = p.advance()
	p.eatWs(&pr.Ws)
	if p.at(lexer.Identifier) {
		pr.Name = p.advance()
	} else {
		p.errorf(pr.Keyword.Range, "pragma is missing a name")
	}

	for {
		p.eatWs(&pr.Ws)
		switch {
		case p.at(lexer.CommentClose):
			pr.Close = p.advance()
			return pr
		case p.atEOF():
			p.errorf(pr.Open.Range, "pragma is missing \"-->\"")
			return pr
		case p.at(lexer.Identifier):
			pr.Options = append(pr.Options, &PragmaOption{Ident: p.advance()})
		case p.at(lexer.DoubleQuote), p.at(lexer.SingleQuote):
			pr.Options = append(pr.Options, &PragmaOption{Quoted: p.parseQuoted(lexer.CommentClose)})
		default:
			p.errorf(p.cur().Range, "unexpected %s in pragma", p.cur().Kind)
			pr.Skipped = append(pr.Skipped, p.advance())
		}
	}
}
