// Package scanner emits symbolic reference and declaration facts for one
// compiled unit in a single forward pass over its resolved syntax tree.
package scanner

import (
	"backrefs/internal/core/errors"
	"backrefs/internal/engine/ast"
	"backrefs/internal/engine/facts"
	"backrefs/internal/engine/lang"
)

// Resolver supplies semantic answers for an already-type-resolved tree. All
// methods must be deterministic within one pass; nil-element arguments yield
// zero answers rather than panics.
type Resolver interface {
	// ElementOf returns the element a node denotes, or nil.
	ElementOf(n ast.Node) *lang.Element
	// TypeOf evaluates the static type of an expression.
	TypeOf(e ast.Expr) lang.Type
	// RefFor builds a reference record, or nil when none can be
	// constructed (synthetic or unsupported elements).
	RefFor(el, qualifier *lang.Element) *facts.Ref
	// AllMembers lists a class's members including inherited ones.
	AllMembers(class *lang.Element) []*lang.Element
	// SameErasedType reports whether two elements share an erased
	// signature.
	SameErasedType(a, b *lang.Element) bool
}

// Sink receives emitted facts. Calls are fire-and-forget; the scanner never
// consults a result.
type Sink interface {
	Reference(*facts.Ref)
	Declaration(facts.Def)
}

// Scanner walks one unit per Scan call. Instances hold no per-unit state and
// may be shared across concurrent scans of independent units.
type Scanner struct {
	variant variant
}

// pass carries the per-unit traversal state: the resolver, the sink, and the
// lexical enclosing-class stack. It lives for exactly one Scan call.
type pass struct {
	res  Resolver
	sink Sink
	encl []*lang.Element
}

func (p *pass) push(el *lang.Element) { p.encl = append(p.encl, el) }
func (p *pass) pop()                  { p.encl = p.encl[:len(p.encl)-1] }

func (p *pass) top() *lang.Element {
	if len(p.encl) == 0 {
		return nil
	}
	return p.encl[len(p.encl)-1]
}

// allowedKind filters which element kinds produce reference facts; all other
// kinds (parameters, locals, packages, ...) are dropped at resolution.
func allowedKind(k lang.ElementKind) bool {
	switch k {
	case lang.KindClass, lang.KindInterface, lang.KindEnum, lang.KindAnnotation,
		lang.KindEnumConstant, lang.KindField, lang.KindConstructor, lang.KindMethod:
		return true
	}
	return false
}

// Scan traverses one compilation unit and forwards its facts to sink. The
// only error it returns is the internal-consistency failure for an
// implicit-receiver call no enclosing class can own; every other resolution
// miss skips fact emission and continues.
func (s *Scanner) Scan(unit *ast.CompilationUnit, res Resolver, sink Sink) error {
	if unit == nil {
		return nil
	}
	return s.scan(unit, &pass{res: res, sink: sink})
}

func (s *Scanner) scan(n ast.Node, p *pass) error {
	if n == nil {
		return nil
	}
	switch n := n.(type) {
	case *ast.CompilationUnit:
		for _, a := range n.PackageAnnotations {
			if err := s.scan(a, p); err != nil {
				return err
			}
		}
		for _, d := range n.TypeDecls {
			if err := s.scan(d, p); err != nil {
				return err
			}
		}
		return nil
	case *ast.Ident:
		s.scanNameUse(n, p)
		return nil
	case *ast.TypeName:
		s.scanNameUse(n, p)
		return nil
	case *ast.New:
		return s.scanNew(n, p)
	case *ast.Variable:
		return s.scanVariable(n, p)
	case *ast.Select:
		return s.scanSelect(n, p)
	case *ast.Method:
		return s.scanMethod(n, p)
	case *ast.Call:
		return s.scanCall(n, p)
	case *ast.Class:
		return s.scanClass(n, p)
	default:
		if s.variant != nil {
			handled, err := s.variant.scanExtra(s, n, p)
			if handled || err != nil {
				return err
			}
		}
		return s.scanChildren(n, p)
	}
}

func (s *Scanner) scanChildren(n ast.Node, p *pass) error {
	for _, c := range ast.Children(n) {
		if err := s.scan(c, p); err != nil {
			return err
		}
	}
	return nil
}

// scanNameUse handles bare name use-sites: identifiers and type names. There
// is nothing to recurse into below either.
func (s *Scanner) scanNameUse(n ast.Node, p *pass) {
	el := p.res.ElementOf(n)
	if el == nil {
		return
	}
	if allowedKind(el.Kind) {
		if ref := p.res.RefFor(el, nil); ref != nil {
			p.sink.Reference(ref)
		}
	}
}

// scanNew records the invoked constructor for instantiations without an
// anonymous body, then continues the normal traversal over subexpressions.
func (s *Scanner) scanNew(n *ast.New, p *pass) error {
	if n.Body == nil {
		if el := p.res.ElementOf(n); el != nil {
			if ref := p.res.RefFor(el, nil); ref != nil {
				p.sink.Reference(ref)
			}
		}
	}
	return s.scanChildren(n, p)
}

func (s *Scanner) scanVariable(n *ast.Variable, p *pass) error {
	el := p.res.ElementOf(n)
	if el != nil && el.Kind == lang.KindField {
		if ref := p.res.RefFor(el, nil); ref != nil {
			p.sink.Reference(ref)
			if valueType := p.res.RefFor(el.ValueType.Element, nil); valueType != nil {
				p.sink.Declaration(facts.MemberDef{Member: ref, ValueType: valueType, Static: el.Static})
			}
		}
	}
	return s.scanChildren(n, p)
}

func (s *Scanner) scanSelect(n *ast.Select, p *pass) error {
	el := p.res.ElementOf(n)
	if el != nil && el.Kind != lang.KindPackage {
		var qualifier *lang.Element
		if t := p.res.TypeOf(n.X); t.Kind == lang.TypeDeclared {
			qualifier = t.Element
		}
		if ref := p.res.RefFor(el, qualifier); ref != nil {
			p.sink.Reference(ref)
		}
	}
	return s.scanChildren(n, p)
}

func (s *Scanner) scanMethod(n *ast.Method, p *pass) error {
	el := p.res.ElementOf(n)
	if el != nil {
		if ref := p.res.RefFor(el, nil); ref != nil {
			p.sink.Reference(ref)
			if returnType := p.res.RefFor(el.ValueType.Element, nil); returnType != nil {
				p.sink.Declaration(facts.MemberDef{Member: ref, ValueType: returnType, Static: el.Static})
			}
		}
	}
	return s.scanChildren(n, p)
}

// scanCall attributes implicit-receiver calls to the innermost enclosing
// class whose member list (including inherited members) contains the target.
// Qualified, static, and constructor calls fall through to the default
// traversal so their selector child emits the reference instead.
func (s *Scanner) scanCall(n *ast.Call, p *pass) error {
	if id, ok := n.Fun.(*ast.Ident); ok {
		el := p.res.ElementOf(id)
		if el != nil && el.Kind != lang.KindConstructor && !el.Static {
			owner := p.ownerOf(el)
			if owner == nil {
				// The resolver and the tree disagree; a well-typed
				// unit cannot reach here.
				err := errors.New(errors.CodeInvariant, "implicit-receiver call has no owning enclosing class")
				return errors.AddContext(err, errors.CtxSymbol, el.QualifiedName())
			}
			if ref := p.res.RefFor(el, owner); ref != nil {
				p.sink.Reference(ref)
			}
			for _, t := range n.TypeArgs {
				if err := s.scan(t, p); err != nil {
					return err
				}
			}
			for _, a := range n.Args {
				if err := s.scan(a, p); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return s.scanChildren(n, p)
}

func (p *pass) ownerOf(target *lang.Element) *lang.Element {
	for class := p.top(); class != nil; class = class.EnclosingClass() {
		for _, member := range p.res.AllMembers(class) {
			// Identity first, it is cheaper than the erasure check.
			if member == target || p.res.SameErasedType(member, target) {
				return class
			}
		}
	}
	return nil
}

// scanClass assembles the supertype list, emits the class's fact pair, and
// recurses into its body with the class on the enclosing stack. Every abort
// branch returns before the push, so the deferred pop keeps the stack
// balanced on all paths including a fatal unwind from the body.
func (s *Scanner) scanClass(n *ast.Class, p *pass) error {
	el := p.res.ElementOf(n)
	if el == nil {
		return nil
	}

	var supers []*facts.Ref
	if el.Superclass != nil {
		supers = make([]*facts.Ref, len(el.Interfaces)+1)
		ref := p.res.RefFor(el.Superclass, nil)
		if ref == nil {
			return nil
		}
		supers[len(el.Interfaces)] = ref
	} else if len(el.Interfaces) > 0 {
		supers = make([]*facts.Ref, len(el.Interfaces))
	}
	for i, iface := range el.Interfaces {
		ref := p.res.RefFor(iface, nil)
		if ref == nil {
			return nil
		}
		supers[i] = ref
	}

	self := p.res.RefFor(el, nil)
	if self == nil {
		return nil
	}

	p.push(el)
	defer p.pop()

	p.sink.Reference(self)
	p.sink.Declaration(facts.ClassDef{Class: self, Supers: supers})

	for _, member := range n.Body {
		if err := s.scan(member, p); err != nil {
			return err
		}
	}
	return nil
}
