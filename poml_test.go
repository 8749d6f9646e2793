package poml

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poml-lang/poml/ast"
	"github.com/poml-lang/poml/diag"
	"github.com/poml-lang/poml/lexer"
)

func TestParse(t *testing.T) {
	t.Parallel()
	res := Parse("<p>Hello {{ name }}!</p>")

	assert.Empty(t, res.Diags)
	assert.False(t, res.HasErrors())
	require.Len(t, res.AST.Children, 1)

	el, ok := res.AST.Children[0].(*ast.Element)
	require.True(t, ok)
	assert.Equal(t, "p", el.Name)
	require.Len(t, el.Children, 3)
	assert.Equal(t, ast.KindString, el.Children[0].Kind())
	assert.Equal(t, ast.KindTemplate, el.Children[1].Kind())
	assert.Equal(t, ast.KindString, el.Children[2].Kind())

	require.NotEmpty(t, res.Tokens)
	assert.Equal(t, lexer.EOF, res.Tokens[len(res.Tokens)-1].Kind)
	assert.Equal(t, "", res.File.Path)
}

func TestParseNamed(t *testing.T) {
	t.Parallel()
	res := ParseNamed("prompt.poml", "<div>")

	assert.Equal(t, "prompt.poml", res.File.Path)
	require.Len(t, res.Diags, 1)
	assert.True(t, res.HasErrors())
	assert.Equal(t, diag.CodeParse, res.Diags[0].Code)
	assert.Equal(t, "prompt.poml:1:1", diag.Location(res.File, res.Diags[0]))
}

func TestParseMergesDiagnosticsAcrossStages(t *testing.T) {
	t.Parallel()
	res := Parse("<div>\xff</span>")

	require.Len(t, res.Diags, 2)
	assert.Equal(t, diag.CodeLex, res.Diags[0].Code)
	assert.Equal(t, diag.CodeTagMismatch, res.Diags[1].Code)
	assert.True(t, res.HasErrors())
}

func TestParseFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.poml")
	require.NoError(t, os.WriteFile(path, []byte("<task>do it</task>"), 0o644))

	res, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, res.File.Path)
	assert.Empty(t, res.Diags)
	require.Len(t, res.AST.Children, 1)

	_, err = ParseFile(filepath.Join(dir, "absent.poml"))
	assert.Error(t, err)
}

func TestResultFormat(t *testing.T) {
	t.Parallel()
	res := ParseNamed("bad.poml", "<div></span>")

	out := res.Format()
	assert.Contains(t, out, "tag-mismatch")
	assert.Contains(t, out, "bad.poml:1:6")
	assert.Contains(t, out, "close tag </span> does not match open tag <div>")
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()
	res := Parse("")

	assert.Empty(t, res.Diags)
	assert.Empty(t, res.AST.Children)
	require.Len(t, res.Tokens, 1)
	assert.Equal(t, lexer.EOF, res.Tokens[0].Kind)
}

func TestParseConcurrent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"<p>one</p>",
		"<p>{{ two }}</p>",
		"<text>{{ raw }}</text>",
		"<div><span>deep</span></div>",
		"plain text",
		"<!-- note -->",
		"<div>",
		"&amp;",
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				res := Parse(src)
				if res.AST == nil || len(res.Tokens) == 0 {
					t.Error("incomplete result from Parse")
					return
				}
			}
		}(inputs[i%len(inputs)])
	}
	wg.Wait()
}
