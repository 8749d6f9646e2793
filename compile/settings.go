package compile

import (
	"strings"

	"github.com/poml-lang/poml/ast"
	"github.com/poml-lang/poml/diag"
)

// Settings captures what a document's pragmas ask of later compiler
// phases. The driver only classifies; acting on the settings is up to
// the consumer.
type Settings struct {
	// Version is the language version the document declares, empty when
	// unset.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Components maps component names to their requested state: a bare
	// name enables, a leading dash disables.
	Components map[string]bool `json:"components,omitempty" yaml:"components,omitempty"`

	// Whitespace is "preserve", "trim", or "collapse", empty when unset.
	Whitespace string `json:"whitespace,omitempty" yaml:"whitespace,omitempty"`
}

// ExtractSettings interprets every pragma in a built tree. Unknown pragma
// names and malformed options are reported as pragma warnings; the
// directives the driver understands are version, components, and
// whitespace.
func ExtractSettings(root *ast.Root, c *diag.Collector) Settings {
	var s Settings
	ast.Walk(root, func(n ast.Node) bool {
		p, ok := n.(*ast.Pragma)
		if !ok {
			return true
		}
		s.apply(p, c)
		return false
	})
	return s
}

func (s *Settings) apply(p *ast.Pragma, c *diag.Collector) {
	// a nameless pragma was already reported by the parser
	if p.Name == nil || p.Name.Value == "" {
		return
	}

	switch strings.ToLower(p.Name.Value) {
	case "version":
		if len(p.Options) != 1 {
			c.Warnf(diag.CodePragma, p.Range(), "version pragma takes exactly one option")
			return
		}
		s.Version = p.Options[0].Value

	case "components":
		if len(p.Options) == 0 {
			c.Warnf(diag.CodePragma, p.Range(), "components pragma needs at least one component name")
			return
		}
		if s.Components == nil {
			s.Components = make(map[string]bool)
		}
		for _, opt := range p.Options {
			name := opt.Value
			enabled := true
			if strings.HasPrefix(name, "-") {
				name = strings.TrimPrefix(name, "-")
				enabled = false
			}
			if name == "" {
				c.Warnf(diag.CodePragma, opt.Range(), "component name is empty")
				continue
			}
			s.Components[strings.ToLower(name)] = enabled
		}

	case "whitespace":
		if len(p.Options) != 1 {
			c.Warnf(diag.CodePragma, p.Range(), "whitespace pragma takes exactly one option")
			return
		}
		mode := strings.ToLower(p.Options[0].Value)
		switch mode {
		case "preserve", "trim", "collapse":
			s.Whitespace = mode
		default:
			c.Warnf(diag.CodePragma, p.Options[0].Range(), "unknown whitespace mode %q", p.Options[0].Value)
		}

	default:
		c.Warnf(diag.CodePragma, p.Name.Range(), "unknown pragma %q", p.Name.Value)
	}
}
