package ast

// Children returns a node's direct children in source order. The switch is
// exhaustive over the node union so that every kind either gets explicit
// scanner handling or an auditable default recursion path.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *CompilationUnit:
		out := make([]Node, 0, len(n.PackageAnnotations)+len(n.TypeDecls))
		for _, a := range n.PackageAnnotations {
			out = append(out, a)
		}
		for _, d := range n.TypeDecls {
			out = append(out, d)
		}
		return out
	case *Class:
		out := make([]Node, 0, len(n.Implements)+len(n.Body)+1)
		if n.Extends != nil {
			out = append(out, n.Extends)
		}
		for _, i := range n.Implements {
			out = append(out, i)
		}
		out = append(out, n.Body...)
		return out
	case *Method:
		out := make([]Node, 0, len(n.Params)+2)
		if n.Returns != nil {
			out = append(out, n.Returns)
		}
		for _, p := range n.Params {
			out = append(out, p)
		}
		if n.Body != nil {
			out = append(out, n.Body)
		}
		return out
	case *Variable:
		out := make([]Node, 0, 2)
		if n.Type != nil {
			out = append(out, n.Type)
		}
		if n.Init != nil {
			out = append(out, n.Init)
		}
		return out
	case *TypeName:
		return nil
	case *Annotation:
		out := make([]Node, 0, len(n.Args)+1)
		if n.Type != nil {
			out = append(out, n.Type)
		}
		for _, a := range n.Args {
			out = append(out, a)
		}
		return out
	case *Block:
		return n.Stmts
	case *Ident:
		return nil
	case *Select:
		if n.X == nil {
			return nil
		}
		return []Node{n.X}
	case *Call:
		out := make([]Node, 0, len(n.TypeArgs)+len(n.Args)+1)
		if n.Fun != nil {
			out = append(out, n.Fun)
		}
		for _, t := range n.TypeArgs {
			out = append(out, t)
		}
		for _, a := range n.Args {
			out = append(out, a)
		}
		return out
	case *New:
		out := make([]Node, 0, len(n.Args)+len(n.Body)+1)
		if n.Type != nil {
			out = append(out, n.Type)
		}
		for _, a := range n.Args {
			out = append(out, a)
		}
		out = append(out, n.Body...)
		return out
	case *Assign:
		out := make([]Node, 0, 2)
		if n.Target != nil {
			out = append(out, n.Target)
		}
		if n.Value != nil {
			out = append(out, n.Value)
		}
		return out
	case *Binary:
		out := make([]Node, 0, 2)
		if n.Left != nil {
			out = append(out, n.Left)
		}
		if n.Right != nil {
			out = append(out, n.Right)
		}
		return out
	case *Literal:
		return nil
	case *Lambda:
		out := make([]Node, 0, len(n.Params)+1)
		for _, p := range n.Params {
			out = append(out, p)
		}
		if n.Body != nil {
			out = append(out, n.Body)
		}
		return out
	case *MemberRef:
		if n.X == nil {
			return nil
		}
		return []Node{n.X}
	}
	return nil
}
