package ast

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poml-lang/poml/cst"
	"github.com/poml-lang/poml/diag"
	"github.com/poml-lang/poml/lexer"
	"github.com/poml-lang/poml/source"
)

// build runs the full pipeline on a document that must lex and parse
// cleanly, returning the AST and the builder's collector.
func build(t *testing.T, src string) (*Root, *diag.Collector) {
	t.Helper()
	tokens, lexDiags := lexer.Tokenize(src)
	require.Empty(t, lexDiags)
	cstRoot, parseDiags := cst.Parse(tokens)
	require.Empty(t, parseDiags)

	c := diag.NewCollector(source.NewFile("test.poml", src))
	return Build(cstRoot, c), c
}

func TestBuildMixedTemplateRoot(t *testing.T) {
	got, c := build(t, "Hello {{ name }}!")
	require.False(t, c.HasErrors())

	want := &Root{
		Children: []Node{
			&String{Value: "Hello ", rng: source.Range{Start: 0, End: 6}},
			&Template{
				Expr: &String{Value: " name ", rng: source.Range{Start: 8, End: 14}},
				rng:  source.Range{Start: 6, End: 16},
			},
			&String{Value: "!", rng: source.Range{Start: 16, End: 17}},
		},
		rng: source.Range{Start: 0, End: 17},
	}

	opts := cmp.AllowUnexported(Root{}, String{}, Template{})
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildElement(t *testing.T) {
	root, c := build(t, "<div>content</div>")
	require.False(t, c.HasErrors())
	require.Len(t, root.Children, 1)

	el, ok := root.Children[0].(*Element)
	require.True(t, ok)
	assert.Equal(t, "div", el.Name)
	require.Len(t, el.Children, 1)

	s, ok := el.Children[0].(*String)
	require.True(t, ok)
	assert.Equal(t, "content", s.Value)
	assert.Equal(t, source.Range{Start: 0, End: 18}, el.Range())
}

func TestBuildTagMismatch(t *testing.T) {
	src := "<div>content</span>"
	root, c := build(t, src)

	diags := c.All()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeTagMismatch, diags[0].Code)
	assert.Contains(t, diags[0].Message, "div")
	assert.Contains(t, diags[0].Message, "span")
	assert.Equal(t, "</span>", src[diags[0].Range.Start:diags[0].Range.End])

	el, ok := root.Children[0].(*Element)
	require.True(t, ok)
	assert.Equal(t, "div", el.Name)
	assert.Equal(t, "content", el.Children[0].(*String).Value)
}

func TestBuildTagMatchCaseInsensitive(t *testing.T) {
	_, c := build(t, "<DIV>x</div>")
	assert.False(t, c.HasErrors())
}

func TestBuildLiteralElement(t *testing.T) {
	root, c := build(t, "<text>Literal {{ not_interpolated }}</text>")
	require.False(t, c.HasErrors())

	txt, ok := root.Children[0].(*Text)
	require.True(t, ok)
	assert.Equal(t, "text", txt.Name)
	assert.Equal(t, "Literal {{ not_interpolated }}", txt.Content.Value)

	var templates int
	Walk(root, func(n Node) bool {
		if n.Kind() == KindTemplate {
			templates++
		}
		return true
	})
	assert.Zero(t, templates)
}

func TestBuildLiteralElementWithAttrs(t *testing.T) {
	root, c := build(t, `<text syntax="json">{"a":1}</text>`)
	require.False(t, c.HasErrors())

	txt, ok := root.Children[0].(*Text)
	require.True(t, ok)
	require.Len(t, txt.Attrs, 1)
	assert.Equal(t, "syntax", txt.Attrs[0].Name.Value)
	assert.Equal(t, `{"a":1}`, txt.Content.Value)
}

func TestBuildSelfClose(t *testing.T) {
	root, c := build(t, "<meta />")
	require.False(t, c.HasErrors())

	el, ok := root.Children[0].(*Element)
	require.True(t, ok)
	assert.Equal(t, "meta", el.Name)
	assert.Empty(t, el.Children)
}

func TestBuildEntityDecoding(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"named", "Fish &amp; Chips", "Fish & Chips"},
		{"decimal and hex", "&#65;&#x41;", "AA"},
		{"all named", "&lt;&gt;&quot;&apos;", `<>"'`},
		{"incomplete stays raw", "&abc", "&abc"},
		{"escapes stay raw between tags", `a\nb`, `a\nb`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, c := build(t, tt.src)
			require.False(t, c.HasErrors())
			require.Len(t, root.Children, 1)
			assert.Equal(t, tt.want, root.Children[0].(*String).Value)
		})
	}
}

func TestBuildEntityDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown name", "&nbsp;"},
		{"surrogate", "&#xD800;"},
		{"out of range hex", "&#x110000;"},
		{"out of range decimal", "&#1114112;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, c := build(t, tt.src)

			diags := c.All()
			require.Len(t, diags, 1)
			assert.Equal(t, diag.CodeEntity, diags[0].Code)

			// Raw image preserved as the fallback value.
			assert.Equal(t, tt.src, root.Children[0].(*String).Value)
		})
	}
}

func attrValue(t *testing.T, root *Root) *Value {
	t.Helper()
	el, ok := root.Children[0].(*Element)
	require.True(t, ok)
	require.NotEmpty(t, el.Attrs)
	val, ok := el.Attrs[0].Value.(*Value)
	require.True(t, ok)
	return val
}

func TestBuildEscapeDecoding(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`\n`, "\n"},
		{`\r`, "\r"},
		{`\t`, "\t"},
		{`\'`, "'"},
		{`\"`, `"`},
		{`\\`, `\`},
		{`\{{`, "{{"},
		{`\}}`, "}}"},
		{`\x41`, "A"},
		{`\u00e9`, "é"},
		{`\U0001F600`, "\U0001F600"},
		{`\q`, `\q`},
		{`\x4`, `\x4`},
		{`\zz`, `\zz`},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			root, c := build(t, fmt.Sprintf(`<div a="%s"></div>`, tt.raw))
			require.False(t, c.HasErrors())

			val := attrValue(t, root)
			require.Len(t, val.Parts, 1)
			assert.Equal(t, tt.want, val.Parts[0].(*String).Value)
		})
	}
}

func TestBuildEscapeDecodeFailures(t *testing.T) {
	for _, raw := range []string{`\uD800`, `\UFFFFFFFF`} {
		t.Run(raw, func(t *testing.T) {
			root, c := build(t, fmt.Sprintf(`<div a="%s"></div>`, raw))

			diags := c.All()
			require.Len(t, diags, 1)
			assert.Equal(t, diag.CodeEscape, diags[0].Code)

			val := attrValue(t, root)
			assert.Equal(t, raw, val.Parts[0].(*String).Value)
		})
	}
}

func TestBuildEntitiesStayRawInQuotes(t *testing.T) {
	root, c := build(t, `<div a="&amp;"></div>`)
	require.False(t, c.HasErrors())

	val := attrValue(t, root)
	assert.Equal(t, "&amp;", val.Parts[0].(*String).Value)
}

func TestBuildValueRangeIncludesQuotes(t *testing.T) {
	src := `<div a="x"></div>`
	root, c := build(t, src)
	require.False(t, c.HasErrors())

	val := attrValue(t, root)
	assert.Equal(t, `"x"`, src[val.Range().Start:val.Range().End])

	part := val.Parts[0].(*String)
	assert.Equal(t, "x", src[part.Range().Start:part.Range().End])
}

func TestBuildEmptyQuotedValue(t *testing.T) {
	src := `<div a=""></div>`
	root, c := build(t, src)
	require.False(t, c.HasErrors())

	val := attrValue(t, root)
	require.Len(t, val.Parts, 1)

	part := val.Parts[0].(*String)
	assert.Empty(t, part.Value)
	assert.True(t, part.Range().Empty())
	assert.Equal(t, 8, part.Range().Start)
}

func TestBuildMixedAttributeValue(t *testing.T) {
	root, c := build(t, `<div title="Hi {{ user }}!"></div>`)
	require.False(t, c.HasErrors())

	val := attrValue(t, root)
	require.Len(t, val.Parts, 3)
	assert.Equal(t, "Hi ", val.Parts[0].(*String).Value)
	assert.Equal(t, " user ", val.Parts[1].(*Template).Expr.Value)
	assert.Equal(t, "!", val.Parts[2].(*String).Value)
}

func TestBuildBareTemplateAttribute(t *testing.T) {
	root, c := build(t, `<div b={{ y }}></div>`)
	require.False(t, c.HasErrors())

	val := attrValue(t, root)
	require.Len(t, val.Parts, 1)
	assert.Equal(t, " y ", val.Parts[0].(*Template).Expr.Value)
}

func TestBuildForIterator(t *testing.T) {
	src := `<div for="item in items"></div>`
	root, c := build(t, src)
	require.False(t, c.HasErrors())

	el := root.Children[0].(*Element)
	fi, ok := el.Attrs[0].Value.(*ForIterator)
	require.True(t, ok)
	assert.Equal(t, "item", fi.Iterator.Value)
	assert.Equal(t, "items", fi.Collection.Value)
	assert.Equal(t, `"item in items"`, src[fi.Range().Start:fi.Range().End])
}

func TestBuildEmptyTemplate(t *testing.T) {
	root, c := build(t, "{{}}")
	require.False(t, c.HasErrors())

	tpl := root.Children[0].(*Template)
	assert.Empty(t, tpl.Expr.Value)
	assert.Equal(t, source.Range{Start: 2, End: 2}, tpl.Expr.Range())
	assert.Equal(t, source.Range{Start: 0, End: 4}, tpl.Range())
}

func TestBuildComment(t *testing.T) {
	root, c := build(t, "<!-- note -->")
	require.False(t, c.HasErrors())

	cm := root.Children[0].(*Comment)
	assert.Equal(t, " note ", cm.Text)
}

func TestBuildPragma(t *testing.T) {
	root, c := build(t, `<!-- @pragma version "1.0" strict -->`)
	require.False(t, c.HasErrors())

	pr := root.Children[0].(*Pragma)
	assert.Equal(t, "version", pr.Name.Value)
	require.Len(t, pr.Options, 2)
	assert.Equal(t, "1.0", pr.Options[0].Value)
	assert.Equal(t, "strict", pr.Options[1].Value)
}

func TestBuildPragmaOptionEscapes(t *testing.T) {
	root, c := build(t, `<!-- @pragma note "a\tb" -->`)
	require.False(t, c.HasErrors())

	pr := root.Children[0].(*Pragma)
	require.Len(t, pr.Options, 1)
	assert.Equal(t, "a\tb", pr.Options[0].Value)
}

func TestBuildStringMergeAcrossDroppedNodes(t *testing.T) {
	tokens, _ := lexer.Tokenize("before</div>after")
	cstRoot, parseDiags := cst.Parse(tokens)
	require.Len(t, parseDiags, 1)

	c := diag.NewCollector(nil)
	root := Build(cstRoot, c)
	require.False(t, c.HasErrors())

	require.Len(t, root.Children, 1)
	assert.Equal(t, "beforeafter", root.Children[0].(*String).Value)
}

func TestBuildUnknownContentFallback(t *testing.T) {
	stray := &cst.Quoted{
		Open: lexer.Token{
			Kind:  lexer.DoubleQuote,
			Value: `"`,
			Range: source.Range{Start: 4, End: 5},
		},
	}

	c := diag.NewCollector(nil)
	root := Build(&cst.Root{Items: []cst.Node{stray}}, c)

	diags := c.All()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeUnknownContent, diags[0].Code)

	require.Len(t, root.Children, 1)
	s := root.Children[0].(*String)
	assert.Empty(t, s.Value)
	assert.Equal(t, source.Range{Start: 4, End: 4}, s.Range())
}

func TestBuildNestedElements(t *testing.T) {
	root, c := build(t, "<a><b>x</b><c/></a>")
	require.False(t, c.HasErrors())

	outer := root.Children[0].(*Element)
	require.Len(t, outer.Children, 2)
	assert.Equal(t, "b", outer.Children[0].(*Element).Name)
	assert.Equal(t, "c", outer.Children[1].(*Element).Name)
}

func TestMarshalJSON(t *testing.T) {
	root, c := build(t, `<a x="1"/>`)
	require.False(t, c.HasErrors())

	data, err := json.Marshal(root)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"kind": "ROOT",
		"range": {"start": 0, "end": 10},
		"children": [{
			"kind": "ELEMENT",
			"range": {"start": 0, "end": 10},
			"name": "a",
			"attributes": [{
				"kind": "ATTRIBUTE",
				"range": {"start": 3, "end": 8},
				"name": {"kind": "STRING", "range": {"start": 3, "end": 4}, "value": "x"},
				"value": {
					"kind": "VALUE",
					"range": {"start": 5, "end": 8},
					"parts": [{"kind": "STRING", "range": {"start": 6, "end": 7}, "value": "1"}]
				}
			}]
		}]
	}`, string(data))
}

func TestDump(t *testing.T) {
	root, c := build(t, "<div>hi</div>")
	require.False(t, c.HasErrors())

	want := "ROOT [0:13)\n" +
		"  ELEMENT <div> [0:13)\n" +
		"    STRING \"hi\" [5:7)\n"
	assert.Equal(t, want, Dump(root))
}

func TestWalkOrder(t *testing.T) {
	root, _ := build(t, `<div a="1">x</div>`)

	var kinds []Kind
	Walk(root, func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return true
	})

	assert.Equal(t, []Kind{
		KindRoot, KindElement, KindAttribute, KindString,
		KindValue, KindString, KindString,
	}, kinds)
}

func TestWalkSkipsSubtree(t *testing.T) {
	root, _ := build(t, `<div a="1">x</div>`)

	var count int
	Walk(root, func(n Node) bool {
		count++
		return n.Kind() != KindElement
	})
	assert.Equal(t, 2, count)
}
