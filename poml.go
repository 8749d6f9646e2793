// Package poml is the front end for POML, a prompt orchestration markup
// language. It turns source text into tokens, a lossless concrete syntax
// tree, and an abstract syntax tree, collecting diagnostics instead of
// failing on malformed input.
//
// The subpackages can be used directly for finer control: lexer for
// tokenization, cst for the lossless parse tree, ast for the builder, and
// formatter for rendering diagnostics. This package wires them together
// for the common whole-document case.
package poml

import (
	"github.com/poml-lang/poml/ast"
	"github.com/poml-lang/poml/cst"
	"github.com/poml-lang/poml/diag"
	"github.com/poml-lang/poml/formatter"
	"github.com/poml-lang/poml/lexer"
	"github.com/poml-lang/poml/source"
)

// Result holds everything one run of the front end produced. Tokens and
// AST are always non-nil, even for input that did not parse cleanly.
type Result struct {
	File   *source.File
	Tokens []lexer.Token
	AST    *ast.Root
	Diags  []diag.Diagnostic
}

// Parse runs the full pipeline over content with no associated path.
func Parse(content string) *Result {
	return run(source.NewFile("", content))
}

// ParseNamed runs the full pipeline over content, attributing diagnostics
// to path. The file is not read from disk.
func ParseNamed(path, content string) *Result {
	return run(source.NewFile(path, content))
}

// ParseFile reads path and runs the full pipeline over its contents. The
// returned error covers I/O only; syntax problems land in Result.Diags.
func ParseFile(path string) (*Result, error) {
	file, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	return run(file), nil
}

// Each call builds its own pipeline state, so Parse and friends are safe
// to call from concurrent goroutines.
func run(file *source.File) *Result {
	c := diag.NewCollector(file)

	tokens, lexDiags := lexer.Tokenize(file.Content)
	for _, d := range lexDiags {
		c.Report(d)
	}

	root, parseDiags := cst.Parse(tokens)
	for _, d := range parseDiags {
		c.Report(d)
	}

	tree := ast.Build(root, c)

	return &Result{
		File:   file,
		Tokens: tokens,
		AST:    tree,
		Diags:  c.All(),
	}
}

// HasErrors reports whether any diagnostic is error severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diags {
		if d.Severity == diag.SeverityError {
			return true
		}
	}
	return false
}

// Format renders the collected diagnostics as annotated source snippets.
func (r *Result) Format() string {
	return formatter.Format(r.File, r.Diags)
}
