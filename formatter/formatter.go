// Package formatter renders diagnostics as annotated source snippets.
//
// The output follows the style of modern compiler front ends: a severity
// header, the file location, the offending source lines with a line-number
// gutter, and a tilde underline pointing at the exact range.
package formatter

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/fatih/color"

	"github.com/poml-lang/poml/diag"
	"github.com/poml-lang/poml/source"
)

const tabWidth = 8

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	warningStyle = color.New(color.FgHiYellow, color.Bold)
	infoStyle    = color.New(color.FgHiBlue, color.Bold)
	codeStyle    = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
)

// diagData carries one diagnostic plus the layout values the template
// functions need. Line and column numbers are 1-based.
type diagData struct {
	Severity        string
	Code            string
	Path            string
	StartLine       int
	StartColumn     int
	EndLine         int
	EndColumn       int
	MaxLineNumWidth int
	Padding         string
	Message         string
	SnippetLines    []string
	CommonIndent    string
}

const diagTemplate = `{{header .Severity .Code .MaxLineNumWidth .Path .StartLine .StartColumn -}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent}}
`

var diagTmpl = template.Must(template.New("diagnostic").Funcs(template.FuncMap{
	"header":              header,
	"snippet":             snippet,
	"underlineAndMessage": underlineAndMessage,
}).Parse(diagTemplate))

// Format renders diags against file, sorted by source position. Each
// diagnostic is followed by a blank line so reports stay readable when
// several are emitted for one document.
func Format(file *source.File, diags []diag.Diagnostic) string {
	if len(diags) == 0 {
		return ""
	}

	sorted := make([]diag.Diagnostic, len(diags))
	copy(sorted, diags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Range.Start != sorted[j].Range.Start {
			return sorted[i].Range.Start < sorted[j].Range.Start
		}
		return sorted[i].Severity < sorted[j].Severity
	})

	var builder strings.Builder
	for _, d := range sorted {
		builder.WriteString(FormatDiagnostic(file, d))
	}
	return builder.String()
}

// FormatDiagnostic renders a single diagnostic with its source snippet.
// With a nil file it falls back to the one-line form.
func FormatDiagnostic(file *source.File, d diag.Diagnostic) string {
	if file == nil {
		return Short(file, d) + "\n"
	}

	start := file.PositionAt(d.Range.Start)

	// The range end is exclusive; the underline wants the last covered
	// byte. Zero-length ranges underline the start position itself.
	endOffset := d.Range.End - 1
	if endOffset < d.Range.Start {
		endOffset = d.Range.Start
	}
	end := file.PositionAt(endOffset)

	lines := sourceLines(file)
	maxLineNumWidth := calculateMaxLineNumWidth(end.Line)
	padding := strings.Repeat(" ", maxLineNumWidth+1)

	var commonIndent string
	if isValidLineRange(start.Line, end.Line, lines) {
		commonIndent = findCommonIndent(lines[start.Line-1 : end.Line])
	}

	data := diagData{
		Severity:        d.Severity.String(),
		Code:            string(d.Code),
		Path:            displayPath(file),
		StartLine:       start.Line,
		StartColumn:     start.Column,
		EndLine:         end.Line,
		EndColumn:       end.Column,
		MaxLineNumWidth: maxLineNumWidth,
		Padding:         padding,
		Message:         d.Message,
		SnippetLines:    lines,
		CommonIndent:    commonIndent,
	}

	var buf bytes.Buffer
	if err := diagTmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("cannot format diagnostic: %v\n", err)
	}
	return buf.String()
}

// Short renders d as a single line: "path:line:col: severity: message (code)".
func Short(file *source.File, d diag.Diagnostic) string {
	return fmt.Sprintf("%s: %s: %s (%s)", diag.Location(file, d), d.Severity, d.Message, d.Code)
}

func displayPath(file *source.File) string {
	if file.Path == "" {
		return "<input>"
	}
	return file.Path
}

func sourceLines(file *source.File) []string {
	lines := make([]string, file.LineCount())
	for i := range lines {
		lines[i] = file.Line(i + 1)
	}
	return lines
}

// template functions

func header(severity, code string, maxLineNumWidth int, path string, startLine, startColumn int) string {
	var endString string
	switch severity {
	case "error":
		endString = errorStyle.Sprint("error: ")
	case "warning":
		endString = warningStyle.Sprint("warning: ")
	default:
		endString = infoStyle.Sprintf("%s: ", severity)
	}

	endString += codeStyle.Sprintf("%s\n", code)

	padding := strings.Repeat(" ", maxLineNumWidth)
	endString += lineStyle.Sprintf("%s--> ", padding)
	endString += fileStyle.Sprintf("%s:%d:%d\n", path, startLine, startColumn)

	return endString
}

func snippet(snippetLines []string, startLine, endLine, maxLineNumWidth int, commonIndent, padding string) string {
	endString := lineStyle.Sprintf("%s|\n", padding)

	for i := startLine; i <= endLine; i++ {
		if i-1 < 0 || i-1 >= len(snippetLines) {
			continue
		}

		line := strings.TrimPrefix(snippetLines[i-1], commonIndent)
		lineNum := fmt.Sprintf("%*d", maxLineNumWidth, i)

		endString += lineStyle.Sprintf("%s | %s\n", lineNum, line)
	}

	return endString
}

func underlineAndMessage(message, padding string, startLine, endLine, startColumn, endColumn int, snippetLines []string, commonIndent string) string {
	endString := lineStyle.Sprintf("%s| ", padding)

	if !isValidLineRange(startLine, endLine, snippetLines) {
		endString += messageStyle.Sprintf("%s\n", message)
		return endString
	}

	commonIndentWidth := calculateVisualColumn(commonIndent, len(commonIndent)+1)

	underlineStart := calculateVisualColumn(snippetLines[startLine-1], startColumn) - commonIndentWidth
	if underlineStart < 0 {
		underlineStart = 0
	}

	underlineEnd := calculateVisualColumn(snippetLines[endLine-1], endColumn) - commonIndentWidth
	underlineLength := underlineEnd - underlineStart + 1
	if underlineLength < 1 {
		underlineLength = 1
	}

	endString += strings.Repeat(" ", underlineStart)
	endString += messageStyle.Sprintf("%s\n", strings.Repeat("~", underlineLength))

	endString += lineStyle.Sprintf("%s= ", padding)
	endString += messageStyle.Sprintf("%s\n", message)

	return endString
}

func isValidLineRange(startLine, endLine int, snippetLines []string) bool {
	return startLine > 0 &&
		endLine > 0 &&
		startLine <= endLine &&
		startLine <= len(snippetLines) &&
		endLine <= len(snippetLines)
}

func calculateMaxLineNumWidth(endLine int) int {
	return len(fmt.Sprintf("%d", endLine))
}

// calculateVisualColumn converts a 1-based byte column into the on-screen
// column, expanding tabs to the next tab stop.
func calculateVisualColumn(line string, column int) int {
	if column < 0 {
		return 0
	}
	visualColumn := 0
	for i, ch := range line {
		if i+1 == column {
			break
		}
		if ch == '\t' {
			visualColumn += tabWidth - (visualColumn % tabWidth)
		} else {
			visualColumn++
		}
	}
	return visualColumn
}

// findCommonIndent finds the indent shared by every non-empty line of the
// snippet so it can be stripped from the display.
func findCommonIndent(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	firstIndent := make([]rune, 0)
	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed != "" {
			firstIndent = []rune(line[:len(line)-len(trimmed)])
			break
		}
	}

	if len(firstIndent) == 0 {
		return ""
	}

	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed == "" {
			continue
		}

		currentIndent := []rune(line[:len(line)-len(trimmed)])
		firstIndent = commonPrefix(firstIndent, currentIndent)

		if len(firstIndent) == 0 {
			break
		}
	}

	return string(firstIndent)
}

func commonPrefix(a, b []rune) []rune {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:minLen]
}
