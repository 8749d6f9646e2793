package ast

import (
	"fmt"
	"strings"
)

// Dump renders a tree as indented text, one node per line with its
// byte range. Used by tooling to inspect what the compiler built.
func Dump(n Node) string {
	var sb strings.Builder
	dump(&sb, n, 0)
	return sb.String()
}

func dump(sb *strings.Builder, n Node, depth int) {
	rng := n.Range()
	sb.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(sb, "%s [%d:%d)\n", describe(n), rng.Start, rng.End)
	for _, child := range Children(n) {
		dump(sb, child, depth+1)
	}
}

func describe(n Node) string {
	switch v := n.(type) {
	case *Element:
		return fmt.Sprintf("ELEMENT <%s>", v.Name)
	case *Text:
		return fmt.Sprintf("TEXT <%s>", v.Name)
	case *String:
		return fmt.Sprintf("STRING %q", v.Value)
	case *Comment:
		return fmt.Sprintf("COMMENT %q", v.Text)
	default:
		return n.Kind().String()
	}
}
