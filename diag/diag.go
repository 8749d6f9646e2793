// Package diag collects the diagnostics of a single compilation pass.
//
// Language-level problems are never Go errors: the lexer, parser, and AST
// builder keep going on malformed input and record what they found here.
// One Collector belongs to exactly one compile; concurrent compiles each
// construct their own.
package diag

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poml-lang/poml/source"
)

// Severity grades a diagnostic. Smaller values are more severe.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Meets reports whether s is at least as severe as floor.
func (s Severity) Meets(floor Severity) bool {
	return s <= floor
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return s.parse(raw)
}

func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return s.parse(raw)
}

func (s *Severity) parse(raw string) error {
	switch strings.ToLower(raw) {
	case "error":
		*s = SeverityError
	case "warning", "warn":
		*s = SeverityWarning
	case "info":
		*s = SeverityInfo
	default:
		return fmt.Errorf("unknown severity %q", raw)
	}
	return nil
}

// Code names the family a diagnostic belongs to.
type Code string

const (
	CodeLex            Code = "lex"
	CodeParse          Code = "parse"
	CodeTagMismatch    Code = "tag-mismatch"
	CodeEntity         Code = "entity"
	CodeEscape         Code = "escape"
	CodeUnknownContent Code = "unknown-content"
	CodePragma         Code = "pragma"
)

// Diagnostic is one ranged problem found in a document.
type Diagnostic struct {
	Severity Severity     `json:"severity"`
	Code     Code         `json:"code"`
	Message  string       `json:"message"`
	Range    source.Range `json:"range"`
}

// Collector accumulates diagnostics for one compile. It is append-only for
// the duration of the pass and not safe for use by concurrent compiles.
type Collector struct {
	file  *source.File
	diags []Diagnostic
}

// NewCollector scopes a collector to file. A nil file is allowed for
// sources with no backing document.
func NewCollector(file *source.File) *Collector {
	return &Collector{file: file}
}

// File returns the source document this collector is scoped to.
func (c *Collector) File() *source.File {
	return c.file
}

// Report appends d as-is.
func (c *Collector) Report(d Diagnostic) {
	c.diags = append(c.diags, d)
}

// Errorf records an error diagnostic.
func (c *Collector) Errorf(code Code, rng source.Range, format string, args ...any) {
	c.Report(Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Range:    rng,
	})
}

// Warnf records a warning diagnostic.
func (c *Collector) Warnf(code Code, rng source.Range, format string, args ...any) {
	c.Report(Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Range:    rng,
	})
}

// HasErrors reports whether any error-severity diagnostic was collected.
func (c *Collector) HasErrors() bool {
	for _, d := range c.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the collected error-severity diagnostics in report order.
func (c *Collector) Errors() []Diagnostic {
	return c.filter(SeverityError)
}

// Warnings returns the collected warning-severity diagnostics in report
// order.
func (c *Collector) Warnings() []Diagnostic {
	return c.filter(SeverityWarning)
}

// All returns every collected diagnostic in report order.
func (c *Collector) All() []Diagnostic {
	return c.diags
}

func (c *Collector) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.diags {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Location renders the start of d's range as "path:line:column" using the
// collector's source file.
func (c *Collector) Location(d Diagnostic) string {
	return Location(c.file, d)
}

// Location renders the start of d's range as "path:line:column" against
// file. A nil file falls back to the byte offset.
func Location(file *source.File, d Diagnostic) string {
	if file == nil {
		return fmt.Sprintf("<input>:+%d", d.Range.Start)
	}
	pos := file.PositionAt(d.Range.Start)
	path := file.Path
	if path == "" {
		path = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Column)
}
