// Package binder resolves a set of parsed units against each other and a
// small built-in universe, producing the element model and per-node bindings
// the scanner consumes. Resolution is best effort: names that cannot be
// resolved inside the unit set stay unbound, and unresolvable supertypes bind
// to synthetic placeholders that cannot be turned into reference records.
package binder

import (
	"strings"

	"backrefs/internal/engine/ast"
	"backrefs/internal/engine/lang"
)

// Binder is immutable after Bind and safe for concurrent readers, so
// independent units of one set can be scanned in parallel against it.
type Binder struct {
	uni      *universe
	packages map[string]*lang.Element
	byQName  map[string]*lang.Element
	bySimple map[string][]*lang.Element

	members  map[*lang.Element][]*lang.Element
	bindings map[ast.Node]*lang.Element
	exprType map[ast.Expr]lang.Type

	// thisOf lazily interns the `this` pseudo-variable per class.
	thisOf map[*lang.Element]*lang.Element
}

// Bind builds the element model for a unit set in three passes: declare all
// class-like elements, attach supertypes and members, then bind use-sites
// inside bodies.
func Bind(units []*ast.CompilationUnit) *Binder {
	b := &Binder{
		uni:      newUniverse(),
		packages: make(map[string]*lang.Element),
		byQName:  make(map[string]*lang.Element),
		bySimple: make(map[string][]*lang.Element),
		members:  make(map[*lang.Element][]*lang.Element),
		bindings: make(map[ast.Node]*lang.Element),
		exprType: make(map[ast.Expr]lang.Type),
		thisOf:   make(map[*lang.Element]*lang.Element),
	}

	for _, unit := range units {
		owner := b.packageElement(unit.Package)
		for _, decl := range unit.TypeDecls {
			b.declareClass(decl, owner)
		}
	}
	for _, unit := range units {
		for _, decl := range unit.TypeDecls {
			b.completeClass(decl)
		}
	}
	for _, unit := range units {
		for _, decl := range unit.TypeDecls {
			b.bindClassBody(decl)
		}
	}
	return b
}

func (b *Binder) packageElement(name string) *lang.Element {
	if name == "" {
		return nil
	}
	if el, ok := b.packages[name]; ok {
		return el
	}
	el := &lang.Element{Name: name, Kind: lang.KindPackage}
	b.packages[name] = el
	return el
}

func classKind(flavor ast.ClassFlavor) lang.ElementKind {
	switch flavor {
	case ast.InterfaceClass:
		return lang.KindInterface
	case ast.EnumClass:
		return lang.KindEnum
	case ast.AnnotationClass:
		return lang.KindAnnotation
	default:
		return lang.KindClass
	}
}

func (b *Binder) declareClass(node *ast.Class, owner *lang.Element) {
	el := &lang.Element{
		Name:   node.Name,
		Kind:   classKind(node.Flavor),
		Owner:  owner,
		Static: node.Static,
	}
	b.bindings[node] = el
	if qname := el.QualifiedName(); qname != "" {
		b.byQName[qname] = el
	}
	if node.Name != "" {
		b.bySimple[node.Name] = append(b.bySimple[node.Name], el)
	}
	for _, member := range node.Body {
		if nested, ok := member.(*ast.Class); ok {
			b.declareClass(nested, el)
		}
	}
}

// completeClass resolves supertypes and declares members for one class and
// its nested classes.
func (b *Binder) completeClass(node *ast.Class) {
	el := b.bindings[node]
	if el == nil {
		return
	}

	if node.Extends != nil {
		super := b.resolveTypeElement(node.Extends.Name, el)
		if super == nil {
			super = &lang.Element{Name: node.Extends.Name, Kind: lang.KindClass, Synthetic: true}
		}
		// An explicit extends clause always counts, Object included; only
		// the absent clause means the implicit root.
		el.Superclass = super
	}
	for _, iface := range node.Implements {
		resolved := b.resolveTypeElement(iface.Name, el)
		if resolved == nil {
			resolved = &lang.Element{Name: iface.Name, Kind: lang.KindInterface, Synthetic: true}
		}
		el.Interfaces = append(el.Interfaces, resolved)
	}

	declaredCtor := false
	for _, member := range node.Body {
		switch member := member.(type) {
		case *ast.Class:
			b.completeClass(member)
		case *ast.Variable:
			b.declareFieldLike(member, el, node.Flavor)
		case *ast.Method:
			if member.Constructor {
				declaredCtor = true
			}
			b.declareMethod(member, el)
		}
	}

	if !declaredCtor && (el.Kind == lang.KindClass || el.Kind == lang.KindEnum) {
		ctor := &lang.Element{
			Name:      "<init>",
			Kind:      lang.KindConstructor,
			Owner:     el,
			Signature: "<init>()",
			ValueType: lang.DeclaredType(el),
		}
		b.members[el] = append(b.members[el], ctor)
	}
}

func (b *Binder) declareFieldLike(node *ast.Variable, owner *lang.Element, flavor ast.ClassFlavor) {
	el := &lang.Element{
		Name:   node.Name,
		Owner:  owner,
		Static: node.Static,
	}
	if flavor == ast.EnumClass && node.Type == nil {
		el.Kind = lang.KindEnumConstant
		el.Static = true
		el.ValueType = lang.DeclaredType(owner)
	} else {
		el.Kind = lang.KindField
		el.ValueType = b.resolveType(node.Type, owner)
	}
	el.Signature = el.Name + ":" + typeKey(el.ValueType)
	b.bindings[node] = el
	b.members[owner] = append(b.members[owner], el)
}

func (b *Binder) declareMethod(node *ast.Method, owner *lang.Element) {
	el := &lang.Element{
		Name:   node.Name,
		Owner:  owner,
		Static: node.Static,
	}
	if node.Constructor {
		el.Kind = lang.KindConstructor
		el.Name = "<init>"
		el.ValueType = lang.DeclaredType(owner)
	} else {
		el.Kind = lang.KindMethod
		el.ValueType = b.resolveType(node.Returns, owner)
	}

	params := make([]string, 0, len(node.Params))
	for _, p := range node.Params {
		params = append(params, typeKey(b.resolveType(p.Type, owner)))
	}
	el.Signature = el.Name + "(" + strings.Join(params, ",") + ")"

	b.bindings[node] = el
	b.members[owner] = append(b.members[owner], el)
}

// typeKey renders a type for erased-signature comparison.
func typeKey(t lang.Type) string {
	switch t.Kind {
	case lang.TypeNone:
		return "?"
	default:
		return t.Element.QualifiedName()
	}
}

// resolveType maps a syntactic type name to a descriptor. Generics are
// erased by truncating at the first type-argument bracket; arrays keep their
// component element under an array kind.
func (b *Binder) resolveType(name *ast.TypeName, scope *lang.Element) lang.Type {
	if name == nil {
		return lang.Type{}
	}
	text := name.Name
	if i := strings.IndexByte(text, '<'); i >= 0 {
		text = text[:i]
	}
	isArray := strings.HasSuffix(text, "[]")
	text = strings.TrimSuffix(text, "[]")

	if t, ok := b.uni.primitiveType(text); ok {
		if isArray {
			return lang.Type{Kind: lang.TypeArray, Element: t.Element}
		}
		return t
	}
	if el := b.resolveTypeElement(text, scope); el != nil {
		if isArray {
			return lang.Type{Kind: lang.TypeArray, Element: el}
		}
		return lang.DeclaredType(el)
	}
	return lang.Type{}
}

// resolveTypeElement resolves a simple or qualified type name from a class
// scope: nested classes on the enclosing chain, unit-set classes by simple
// name (same package preferred), the well-known universe, then fully
// qualified lookup.
func (b *Binder) resolveTypeElement(name string, scope *lang.Element) *lang.Element {
	if name == "" {
		return nil
	}
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}

	if !strings.Contains(name, ".") {
		for c := scope; c != nil; c = c.EnclosingClass() {
			if c.Name == name {
				return c
			}
			for _, m := range b.members[c] {
				if m.Name == name && m.Kind.IsType() {
					return m
				}
			}
			for _, m := range b.bySimple[name] {
				if m.Owner == c {
					return m
				}
			}
		}
		if candidates := b.bySimple[name]; len(candidates) > 0 {
			pkg := packageOf(scope)
			for _, cand := range candidates {
				if cand.Owner == pkg {
					return cand
				}
			}
			return candidates[0]
		}
		if el, ok := b.uni.wellKnown[name]; ok {
			return el
		}
		return nil
	}

	if el, ok := b.byQName[name]; ok {
		return el
	}
	if el, ok := b.uni.wellKnown[strings.TrimPrefix(name, "java.lang.")]; ok && strings.HasPrefix(name, "java.lang.") {
		return el
	}
	// Fall back to the trailing simple name for qualified references into
	// the unit set spelled through an unknown prefix.
	simple := name[strings.LastIndexByte(name, '.')+1:]
	if candidates := b.bySimple[simple]; len(candidates) == 1 {
		return candidates[0]
	}
	return nil
}

func packageOf(el *lang.Element) *lang.Element {
	for cur := el; cur != nil; cur = cur.Owner {
		if cur.Kind == lang.KindPackage {
			return cur
		}
	}
	return nil
}
