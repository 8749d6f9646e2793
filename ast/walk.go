package ast

// Children returns a node's direct children in document order.
// Leaves return nil.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Root:
		return v.Children
	case *Element:
		out := make([]Node, 0, len(v.Attrs)+len(v.Children))
		for _, attr := range v.Attrs {
			out = append(out, attr)
		}
		return append(out, v.Children...)
	case *Text:
		out := make([]Node, 0, len(v.Attrs)+1)
		for _, attr := range v.Attrs {
			out = append(out, attr)
		}
		return append(out, v.Content)
	case *Value:
		return v.Parts
	case *Template:
		return []Node{v.Expr}
	case *ForIterator:
		return []Node{v.Iterator, v.Collection}
	case *Attribute:
		if v.Value == nil {
			return []Node{v.Name}
		}
		return []Node{v.Name, v.Value}
	case *Pragma:
		out := make([]Node, 0, len(v.Options)+1)
		out = append(out, v.Name)
		for _, opt := range v.Options {
			out = append(out, opt)
		}
		return out
	default:
		return nil
	}
}

// Walk visits n and its descendants in pre-order. Returning false
// from fn skips the node's subtree.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Walk(child, fn)
	}
}
