package binder

import (
	"backrefs/internal/engine/ast"
	"backrefs/internal/engine/facts"
	"backrefs/internal/engine/lang"
)

// scopeFrame is one lexical block's variable table.
type scopeFrame struct {
	parent *scopeFrame
	vars   map[string]*lang.Element
}

func newScope(parent *scopeFrame) *scopeFrame {
	return &scopeFrame{parent: parent, vars: make(map[string]*lang.Element)}
}

func (s *scopeFrame) lookup(name string) *lang.Element {
	for cur := s; cur != nil; cur = cur.parent {
		if el, ok := cur.vars[name]; ok {
			return el
		}
	}
	return nil
}

func (b *Binder) bindClassBody(node *ast.Class) {
	el := b.bindings[node]
	if el == nil {
		return
	}
	if node.Extends != nil {
		b.bindTypeName(node.Extends, el)
	}
	for _, iface := range node.Implements {
		b.bindTypeName(iface, el)
	}

	for _, member := range node.Body {
		switch member := member.(type) {
		case *ast.Class:
			b.bindClassBody(member)
		case *ast.Variable:
			b.bindTypeName(member.Type, el)
			if member.Init != nil {
				b.bindExpr(member.Init, newScope(nil), el)
			}
		case *ast.Method:
			b.bindMethodBody(member, el)
		default:
			b.bindNode(member, newScope(nil), el)
		}
	}
}

func (b *Binder) bindMethodBody(node *ast.Method, encl *lang.Element) {
	sc := newScope(nil)
	b.bindTypeName(node.Returns, encl)
	for _, p := range node.Params {
		b.bindTypeName(p.Type, encl)
		param := &lang.Element{
			Name:      p.Name,
			Kind:      lang.KindParameter,
			Owner:     b.bindings[node],
			ValueType: b.resolveType(p.Type, encl),
		}
		b.bindings[p] = param
		sc.vars[p.Name] = param
	}
	if node.Body != nil {
		b.bindNode(node.Body, sc, encl)
	}
}

func (b *Binder) bindNode(n ast.Node, sc *scopeFrame, encl *lang.Element) {
	switch n := n.(type) {
	case nil:
		return
	case *ast.Block:
		inner := newScope(sc)
		for _, stmt := range n.Stmts {
			b.bindNode(stmt, inner, encl)
		}
	case *ast.Variable:
		// Local declaration: visible to subsequent statements in the
		// same frame.
		b.bindTypeName(n.Type, encl)
		local := &lang.Element{
			Name:      n.Name,
			Kind:      lang.KindLocal,
			Owner:     encl,
			ValueType: b.resolveType(n.Type, encl),
		}
		b.bindings[n] = local
		if n.Init != nil {
			b.bindExpr(n.Init, sc, encl)
		}
		sc.vars[n.Name] = local
	case *ast.Annotation:
		b.bindTypeName(n.Type, encl)
		for _, arg := range n.Args {
			b.bindExpr(arg, sc, encl)
		}
	case ast.Expr:
		b.bindExpr(n, sc, encl)
	}
}

// bindExpr binds one expression node and records its static type. It returns
// the bound element, nil when the name stays unresolved.
func (b *Binder) bindExpr(e ast.Expr, sc *scopeFrame, encl *lang.Element) *lang.Element {
	switch e := e.(type) {
	case *ast.Ident:
		return b.bindIdent(e, sc, encl)
	case *ast.TypeName:
		return b.bindTypeName(e, encl)
	case *ast.Select:
		return b.bindSelect(e, sc, encl)
	case *ast.Call:
		return b.bindCall(e, sc, encl)
	case *ast.New:
		return b.bindNew(e, sc, encl)
	case *ast.Assign:
		target := b.bindExpr(e.Target, sc, encl)
		b.bindExpr(e.Value, sc, encl)
		if target != nil {
			b.exprType[e] = target.ValueType
		}
		return nil
	case *ast.Binary:
		b.bindExpr(e.Left, sc, encl)
		b.bindExpr(e.Right, sc, encl)
		return nil
	case *ast.Literal:
		return nil
	case *ast.Lambda:
		inner := newScope(sc)
		for _, p := range e.Params {
			param := &lang.Element{Name: p.Name, Kind: lang.KindParameter, Owner: encl}
			b.bindings[p] = param
			inner.vars[p.Name] = param
		}
		b.bindNode(e.Body, inner, encl)
		return nil
	case *ast.MemberRef:
		b.bindExpr(e.X, sc, encl)
		if recv := b.receiverClass(e.X); recv != nil {
			if m := b.memberNamed(recv, e.Name, memberMethods); m != nil {
				b.bindings[e] = m
				return m
			}
		}
		return nil
	}
	return nil
}

func (b *Binder) bindIdent(e *ast.Ident, sc *scopeFrame, encl *lang.Element) *lang.Element {
	if el := sc.lookup(e.Name); el != nil {
		b.bindings[e] = el
		b.exprType[e] = el.ValueType
		return el
	}
	if e.Name == "this" {
		el := b.thisFor(encl)
		b.bindings[e] = el
		b.exprType[e] = el.ValueType
		return el
	}
	for c := encl; c != nil; c = c.EnclosingClass() {
		if m := b.memberNamed(c, e.Name, memberFields); m != nil {
			b.bindings[e] = m
			b.exprType[e] = m.ValueType
			return m
		}
	}
	if el := b.resolveTypeElement(e.Name, encl); el != nil {
		b.bindings[e] = el
		b.exprType[e] = lang.DeclaredType(el)
		return el
	}
	if pkg, ok := b.packages[e.Name]; ok {
		b.bindings[e] = pkg
		return pkg
	}
	return nil
}

func (b *Binder) bindTypeName(t *ast.TypeName, encl *lang.Element) *lang.Element {
	if t == nil {
		return nil
	}
	resolved := b.resolveType(t, encl)
	if resolved.Element == nil {
		return nil
	}
	b.bindings[t] = resolved.Element
	b.exprType[t] = resolved
	return resolved.Element
}

func (b *Binder) bindSelect(e *ast.Select, sc *scopeFrame, encl *lang.Element) *lang.Element {
	xEl := b.bindExpr(e.X, sc, encl)

	if recv := b.receiverClass(e.X); recv != nil {
		if m := b.memberNamed(recv, e.Name, memberAny); m != nil {
			b.bindings[e] = m
			b.exprType[e] = m.ValueType
			return m
		}
		if nested := b.nestedClass(recv, e.Name); nested != nil {
			b.bindings[e] = nested
			b.exprType[e] = lang.DeclaredType(nested)
			return nested
		}
		return nil
	}

	if xEl != nil && xEl.Kind == lang.KindPackage {
		qname := xEl.Name + "." + e.Name
		if cls, ok := b.byQName[qname]; ok {
			b.bindings[e] = cls
			b.exprType[e] = lang.DeclaredType(cls)
			return cls
		}
		pkg := b.packageElement(qname)
		b.bindings[e] = pkg
		return pkg
	}
	return nil
}

func (b *Binder) bindCall(e *ast.Call, sc *scopeFrame, encl *lang.Element) *lang.Element {
	var target *lang.Element
	if id, ok := e.Fun.(*ast.Ident); ok {
		for c := encl; c != nil && target == nil; c = c.EnclosingClass() {
			target = b.memberNamed(c, id.Name, memberMethods)
		}
		if target != nil {
			b.bindings[id] = target
		}
	} else {
		target = b.bindExpr(e.Fun, sc, encl)
	}

	for _, t := range e.TypeArgs {
		b.bindTypeName(t, encl)
	}
	for _, arg := range e.Args {
		b.bindExpr(arg, sc, encl)
	}

	if target != nil {
		b.exprType[e] = target.ValueType
	}
	return target
}

func (b *Binder) bindNew(e *ast.New, sc *scopeFrame, encl *lang.Element) *lang.Element {
	class := b.bindTypeName(e.Type, encl)
	for _, arg := range e.Args {
		b.bindExpr(arg, sc, encl)
	}
	if class == nil || !class.Kind.IsType() {
		return nil
	}
	b.exprType[e] = lang.DeclaredType(class)
	if ctor := b.memberNamed(class, "<init>", memberCtors); ctor != nil {
		b.bindings[e] = ctor
		return ctor
	}
	return nil
}

// receiverClass evaluates the class a member access resolves through: the
// static type of the receiver expression, or the named class itself for
// static-style accesses.
func (b *Binder) receiverClass(x ast.Expr) *lang.Element {
	if t, ok := b.exprType[x]; ok && t.Kind == lang.TypeDeclared && t.Element.Kind.IsType() {
		return t.Element
	}
	if el, ok := b.bindings[x]; ok && el != nil && el.Kind.IsType() {
		return el
	}
	return nil
}

func (b *Binder) thisFor(class *lang.Element) *lang.Element {
	if el, ok := b.thisOf[class]; ok {
		return el
	}
	el := &lang.Element{
		Name:      "this",
		Kind:      lang.KindLocal,
		Owner:     class,
		ValueType: lang.DeclaredType(class),
	}
	b.thisOf[class] = el
	return el
}

type memberFilter int

const (
	memberAny memberFilter = iota
	memberFields
	memberMethods
	memberCtors
)

func (f memberFilter) matches(k lang.ElementKind) bool {
	switch f {
	case memberFields:
		return k == lang.KindField || k == lang.KindEnumConstant
	case memberMethods:
		return k == lang.KindMethod
	case memberCtors:
		return k == lang.KindConstructor
	default:
		return k == lang.KindField || k == lang.KindEnumConstant ||
			k == lang.KindMethod || k == lang.KindConstructor
	}
}

// memberNamed finds the first member with the given name through the
// inheritance chain, declaration order first, supertypes after.
func (b *Binder) memberNamed(class *lang.Element, name string, filter memberFilter) *lang.Element {
	seen := make(map[*lang.Element]bool)
	for _, m := range b.allMembers(class, seen) {
		if m.Name == name && filter.matches(m.Kind) {
			return m
		}
	}
	return nil
}

func (b *Binder) nestedClass(class *lang.Element, name string) *lang.Element {
	for _, cand := range b.bySimple[name] {
		if cand.Owner == class {
			return cand
		}
	}
	return nil
}

func (b *Binder) allMembers(class *lang.Element, seen map[*lang.Element]bool) []*lang.Element {
	if class == nil || class.Synthetic || seen[class] {
		return nil
	}
	seen[class] = true

	out := make([]*lang.Element, 0, len(b.members[class]))
	out = append(out, b.members[class]...)
	out = append(out, b.allMembers(class.Superclass, seen)...)
	for _, iface := range class.Interfaces {
		out = append(out, b.allMembers(iface, seen)...)
	}
	return out
}

// --- scanner.Resolver implementation ---

func (b *Binder) ElementOf(n ast.Node) *lang.Element {
	return b.bindings[n]
}

func (b *Binder) TypeOf(e ast.Expr) lang.Type {
	return b.exprType[e]
}

func (b *Binder) RefFor(el, qualifier *lang.Element) *facts.Ref {
	if el == nil || el.Synthetic {
		return nil
	}
	if qualifier != nil && qualifier.Synthetic {
		qualifier = nil
	}
	return &facts.Ref{Element: el, Qualifier: qualifier}
}

func (b *Binder) AllMembers(class *lang.Element) []*lang.Element {
	return b.allMembers(class, make(map[*lang.Element]bool))
}

func (b *Binder) SameErasedType(x, y *lang.Element) bool {
	return x != nil && y != nil && x.Signature != "" && x.Signature == y.Signature
}
