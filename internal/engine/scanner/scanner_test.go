package scanner

import (
	"fmt"
	"strings"
	"testing"

	"backrefs/internal/core/errors"
	"backrefs/internal/engine/ast"
	"backrefs/internal/engine/facts"
	"backrefs/internal/engine/lang"
)

// fakeResolver answers from explicit node/expression tables, the way the
// surrounding compiler integration would for an already-checked tree.
type fakeResolver struct {
	elements map[ast.Node]*lang.Element
	types    map[ast.Expr]lang.Type
	members  map[*lang.Element][]*lang.Element
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		elements: make(map[ast.Node]*lang.Element),
		types:    make(map[ast.Expr]lang.Type),
		members:  make(map[*lang.Element][]*lang.Element),
	}
}

func (r *fakeResolver) ElementOf(n ast.Node) *lang.Element { return r.elements[n] }
func (r *fakeResolver) TypeOf(e ast.Expr) lang.Type        { return r.types[e] }

func (r *fakeResolver) RefFor(el, qualifier *lang.Element) *facts.Ref {
	if el == nil || el.Synthetic {
		return nil
	}
	return &facts.Ref{Element: el, Qualifier: qualifier}
}

func (r *fakeResolver) AllMembers(class *lang.Element) []*lang.Element {
	return r.members[class]
}

func (r *fakeResolver) SameErasedType(a, b *lang.Element) bool {
	return a != nil && b != nil && a.Signature != "" && a.Signature == b.Signature
}

// recordingSink formats every fact into one line so tests can assert on the
// exact emission order.
type recordingSink struct {
	events []string
}

func (s *recordingSink) Reference(ref *facts.Ref) {
	line := "ref " + ref.Element.QualifiedName()
	if ref.Qualifier != nil {
		line += " via " + ref.Qualifier.QualifiedName()
	}
	s.events = append(s.events, line)
}

func (s *recordingSink) Declaration(def facts.Def) {
	switch def := def.(type) {
	case facts.ClassDef:
		names := make([]string, 0, len(def.Supers))
		for _, sup := range def.Supers {
			names = append(names, sup.Element.QualifiedName())
		}
		s.events = append(s.events, fmt.Sprintf("classdef %s supers=[%s]",
			def.Class.Element.QualifiedName(), strings.Join(names, " ")))
	case facts.MemberDef:
		s.events = append(s.events, fmt.Sprintf("memberdef %s type=%s static=%v",
			def.Member.Element.QualifiedName(), def.ValueType.Element.QualifiedName(), def.Static))
	}
}

func classEl(name string, owner *lang.Element) *lang.Element {
	return &lang.Element{Name: name, Kind: lang.KindClass, Owner: owner}
}

func ifaceEl(name string) *lang.Element {
	return &lang.Element{Name: name, Kind: lang.KindInterface}
}

func methodEl(name string, owner *lang.Element, returns *lang.Element) *lang.Element {
	return &lang.Element{
		Name:      name,
		Kind:      lang.KindMethod,
		Owner:     owner,
		ValueType: lang.Type{Kind: lang.TypeDeclared, Element: returns},
		Signature: name + "()",
	}
}

func fieldEl(name string, owner, declared *lang.Element) *lang.Element {
	return &lang.Element{
		Name:      name,
		Kind:      lang.KindField,
		Owner:     owner,
		ValueType: lang.Type{Kind: lang.TypeDeclared, Element: declared},
	}
}

func assertEvents(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("event count: got %d want %d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %q want %q\nfull: %v", i, got[i], want[i], got)
		}
	}
}

// Round trip over the resolved tree of:
//
//	class A extends B implements C, D { int f; void m() { f = g(); } }
//
// with g() inherited from B. The class fact pair comes first, each member's
// reference precedes its declaration, the supertype list keeps interface
// order with the superclass last, and the implicit-receiver call to g is
// attributed to the innermost enclosing class whose member list contains it.
func TestScanRoundTrip(t *testing.T) {
	b := classEl("B", nil)
	c := ifaceEl("C")
	d := ifaceEl("D")
	a := classEl("A", nil)
	a.Superclass = b
	a.Interfaces = []*lang.Element{c, d}

	intType := &lang.Element{Name: "int", Kind: lang.KindPrimitive}
	voidType := &lang.Element{Name: "void", Kind: lang.KindPrimitive}
	f := fieldEl("f", a, intType)
	m := methodEl("m", a, voidType)
	g := methodEl("g", b, voidType)

	identF := &ast.Ident{Name: "f"}
	callG := &ast.Call{Fun: &ast.Ident{Name: "g"}}
	varF := &ast.Variable{Name: "f", Type: &ast.TypeName{Name: "int"}}
	methodM := &ast.Method{
		Name:    "m",
		Returns: &ast.TypeName{Name: "void"},
		Body:    &ast.Block{Stmts: []ast.Node{&ast.Assign{Target: identF, Value: callG}}},
	}
	classA := &ast.Class{Name: "A", Extends: &ast.TypeName{Name: "B"}, Body: []ast.Node{varF, methodM}}
	unit := &ast.CompilationUnit{Path: "A.java", TypeDecls: []*ast.Class{classA}}

	res := newFakeResolver()
	res.elements[classA] = a
	res.elements[varF] = f
	res.elements[varF.Type] = intType
	res.elements[methodM] = m
	res.elements[methodM.Returns] = voidType
	res.elements[identF] = f
	res.elements[callG.Fun] = g
	res.members[a] = []*lang.Element{f, m, g}

	sink := &recordingSink{}
	if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
		t.Fatalf("scan: %v", err)
	}

	assertEvents(t, sink.events, []string{
		"ref A",
		"classdef A supers=[C D B]",
		"ref f",
		"memberdef f type=int static=false",
		"ref m",
		"memberdef m type=void static=false",
		"ref f",
		"ref g via A",
	})
}

func TestClassSupertypeListShapes(t *testing.T) {
	super := classEl("Base", nil)
	i1 := ifaceEl("I1")
	i2 := ifaceEl("I2")

	tests := []struct {
		name       string
		superclass *lang.Element
		interfaces []*lang.Element
		want       string
	}{
		{"no supertypes", nil, nil, "classdef X supers=[]"},
		{"interfaces only", nil, []*lang.Element{i1, i2}, "classdef X supers=[I1 I2]"},
		{"superclass only", super, nil, "classdef X supers=[Base]"},
		{"superclass last", super, []*lang.Element{i1, i2}, "classdef X supers=[I1 I2 Base]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := classEl("X", nil)
			x.Superclass = tt.superclass
			x.Interfaces = tt.interfaces

			node := &ast.Class{Name: "X"}
			unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{node}}
			res := newFakeResolver()
			res.elements[node] = x

			sink := &recordingSink{}
			if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
				t.Fatalf("scan: %v", err)
			}
			assertEvents(t, sink.events, []string{"ref X", tt.want})
		})
	}
}

// An unresolvable interface aborts the whole class subtree: no facts, no
// member recursion. Siblings at the same level still scan fully.
func TestClassAbortOnUnresolvableInterface(t *testing.T) {
	broken := classEl("Broken", nil)
	broken.Interfaces = []*lang.Element{{Name: "Gone", Kind: lang.KindInterface, Synthetic: true}}
	hidden := fieldEl("hidden", broken, classEl("T", nil))

	ok := classEl("Ok", nil)

	hiddenVar := &ast.Variable{Name: "hidden"}
	brokenNode := &ast.Class{Name: "Broken", Implements: []*ast.TypeName{{Name: "Gone"}}, Body: []ast.Node{hiddenVar}}
	okNode := &ast.Class{Name: "Ok"}
	unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{brokenNode, okNode}}

	res := newFakeResolver()
	res.elements[brokenNode] = broken
	res.elements[hiddenVar] = hidden
	res.elements[okNode] = ok

	sink := &recordingSink{}
	if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
		t.Fatalf("scan: %v", err)
	}
	assertEvents(t, sink.events, []string{"ref Ok", "classdef Ok supers=[]"})
}

func TestClassAbortOnUnresolvableSuperclass(t *testing.T) {
	broken := classEl("Broken", nil)
	broken.Superclass = &lang.Element{Name: "Gone", Kind: lang.KindClass, Synthetic: true}

	node := &ast.Class{Name: "Broken", Extends: &ast.TypeName{Name: "Gone"}}
	unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{node}}
	res := newFakeResolver()
	res.elements[node] = broken

	sink := &recordingSink{}
	if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("expected no facts, got %v", sink.events)
	}
}

// A field whose declared type does not resolve still emits its reference but
// no member declaration.
func TestFieldWithUnresolvableType(t *testing.T) {
	owner := classEl("A", nil)
	f := &lang.Element{Name: "f", Kind: lang.KindField, Owner: owner}

	varF := &ast.Variable{Name: "f"}
	node := &ast.Class{Name: "A", Body: []ast.Node{varF}}
	unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{node}}

	res := newFakeResolver()
	res.elements[node] = owner
	res.elements[varF] = f

	sink := &recordingSink{}
	if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
		t.Fatalf("scan: %v", err)
	}
	assertEvents(t, sink.events, []string{"ref A", "classdef A supers=[]", "ref f"})
}

// Non-field variables (locals, parameters) contribute no facts of their own.
func TestLocalVariableSkipped(t *testing.T) {
	owner := classEl("A", nil)
	local := &lang.Element{Name: "tmp", Kind: lang.KindLocal, Owner: owner}

	varTmp := &ast.Variable{Name: "tmp"}
	node := &ast.Class{Name: "A", Body: []ast.Node{varTmp}}
	unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{node}}

	res := newFakeResolver()
	res.elements[node] = owner
	res.elements[varTmp] = local

	sink := &recordingSink{}
	if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
		t.Fatalf("scan: %v", err)
	}
	assertEvents(t, sink.events, []string{"ref A", "classdef A supers=[]"})
}

func TestMemberSelectQualifier(t *testing.T) {
	b := classEl("B", nil)
	g := methodEl("g", b, nil)

	t.Run("declared receiver type sets the qualifier", func(t *testing.T) {
		recv := &ast.Ident{Name: "b"}
		sel := &ast.Select{X: recv, Name: "g"}
		node := &ast.Class{Name: "A", Body: []ast.Node{&ast.Block{Stmts: []ast.Node{sel}}}}
		unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{node}}

		res := newFakeResolver()
		res.elements[node] = classEl("A", nil)
		res.elements[sel] = g
		res.types[recv] = lang.DeclaredType(b)

		sink := &recordingSink{}
		if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
			t.Fatalf("scan: %v", err)
		}
		assertEvents(t, sink.events, []string{"ref A", "classdef A supers=[]", "ref g via B"})
	})

	t.Run("non-declared receiver type leaves the qualifier empty", func(t *testing.T) {
		recv := &ast.Ident{Name: "arr"}
		sel := &ast.Select{X: recv, Name: "g"}
		node := &ast.Class{Name: "A", Body: []ast.Node{&ast.Block{Stmts: []ast.Node{sel}}}}
		unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{node}}

		res := newFakeResolver()
		res.elements[node] = classEl("A", nil)
		res.elements[sel] = g
		res.types[recv] = lang.Type{Kind: lang.TypeArray}

		sink := &recordingSink{}
		if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
			t.Fatalf("scan: %v", err)
		}
		assertEvents(t, sink.events, []string{"ref A", "classdef A supers=[]", "ref g"})
	})

	t.Run("package selects are dropped", func(t *testing.T) {
		pkg := &lang.Element{Name: "java", Kind: lang.KindPackage}
		recv := &ast.Ident{Name: "java"}
		sel := &ast.Select{X: recv, Name: "lang"}
		node := &ast.Class{Name: "A", Body: []ast.Node{&ast.Block{Stmts: []ast.Node{sel}}}}
		unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{node}}

		res := newFakeResolver()
		res.elements[node] = classEl("A", nil)
		res.elements[sel] = pkg

		sink := &recordingSink{}
		if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
			t.Fatalf("scan: %v", err)
		}
		assertEvents(t, sink.events, []string{"ref A", "classdef A supers=[]"})
	})
}

func TestNewClass(t *testing.T) {
	b := classEl("B", nil)
	ctor := &lang.Element{Name: "<init>", Kind: lang.KindConstructor, Owner: b}
	arg := classEl("Arg", nil)

	t.Run("plain instantiation emits the constructor and scans arguments", func(t *testing.T) {
		argIdent := &ast.Ident{Name: "Arg"}
		newB := &ast.New{Type: &ast.TypeName{Name: "B"}, Args: []ast.Expr{argIdent}}
		node := &ast.Class{Name: "A", Body: []ast.Node{&ast.Block{Stmts: []ast.Node{newB}}}}
		unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{node}}

		res := newFakeResolver()
		res.elements[node] = classEl("A", nil)
		res.elements[newB] = ctor
		res.elements[argIdent] = arg

		sink := &recordingSink{}
		if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
			t.Fatalf("scan: %v", err)
		}
		assertEvents(t, sink.events, []string{"ref A", "classdef A supers=[]", "ref B.<init>", "ref Arg"})
	})

	t.Run("anonymous body suppresses the constructor reference", func(t *testing.T) {
		anon := classEl("", nil)
		anonNode := &ast.Class{Name: ""}
		newB := &ast.New{Type: &ast.TypeName{Name: "B"}, Body: []ast.Node{anonNode}}
		node := &ast.Class{Name: "A", Body: []ast.Node{&ast.Block{Stmts: []ast.Node{newB}}}}
		unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{node}}

		res := newFakeResolver()
		res.elements[node] = classEl("A", nil)
		res.elements[newB] = ctor
		res.elements[anonNode] = anon

		sink := &recordingSink{}
		if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
			t.Fatalf("scan: %v", err)
		}
		// The anonymous class still gets its own fact pair via recursion.
		assertEvents(t, sink.events, []string{"ref A", "classdef A supers=[]", "ref ", "classdef  supers=[]"})
	})
}

// buildNesting assembles Outer > Mid > Inner with a method body in Inner
// containing a single implicit-receiver call, and returns the pieces the
// owner-walk tests need.
func buildNesting(res *fakeResolver) (outer, mid, inner *lang.Element, call *ast.Call, unit *ast.CompilationUnit) {
	outer = classEl("Outer", nil)
	mid = classEl("Mid", outer)
	inner = classEl("Inner", mid)

	call = &ast.Call{Fun: &ast.Ident{Name: "g"}}
	body := &ast.Method{Name: "m", Body: &ast.Block{Stmts: []ast.Node{call}}}
	innerNode := &ast.Class{Name: "Inner", Body: []ast.Node{body}}
	midNode := &ast.Class{Name: "Mid", Body: []ast.Node{innerNode}}
	outerNode := &ast.Class{Name: "Outer", Body: []ast.Node{midNode}}
	unit = &ast.CompilationUnit{TypeDecls: []*ast.Class{outerNode}}

	res.elements[outerNode] = outer
	res.elements[midNode] = mid
	res.elements[innerNode] = inner
	return outer, mid, inner, call, unit
}

func TestImplicitCallOwnerWalk(t *testing.T) {
	t.Run("target only inherited at the outermost level", func(t *testing.T) {
		res := newFakeResolver()
		outer, mid, inner, call, unit := buildNesting(res)
		g := methodEl("g", classEl("Base", nil), nil)
		res.elements[call.Fun] = g
		res.members[inner] = nil
		res.members[mid] = nil
		res.members[outer] = []*lang.Element{g}

		sink := &recordingSink{}
		if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
			t.Fatalf("scan: %v", err)
		}
		last := sink.events[len(sink.events)-1]
		if last != "ref Base.g via Outer" {
			t.Fatalf("expected attribution to Outer, got %q", last)
		}
	})

	t.Run("innermost wins when satisfied there", func(t *testing.T) {
		res := newFakeResolver()
		outer, mid, inner, call, unit := buildNesting(res)
		g := methodEl("g", inner, nil)
		res.elements[call.Fun] = g
		res.members[inner] = []*lang.Element{g}
		res.members[mid] = []*lang.Element{g}
		res.members[outer] = []*lang.Element{g}

		sink := &recordingSink{}
		if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
			t.Fatalf("scan: %v", err)
		}
		last := sink.events[len(sink.events)-1]
		if last != "ref Outer.Mid.Inner.g via Outer.Mid.Inner" {
			t.Fatalf("expected attribution to Inner, got %q", last)
		}
	})

	t.Run("erased signature match counts as membership", func(t *testing.T) {
		res := newFakeResolver()
		outer, mid, inner, call, unit := buildNesting(res)
		g := methodEl("g", classEl("Elsewhere", nil), nil)
		override := methodEl("g", mid, nil)
		res.elements[call.Fun] = g
		res.members[inner] = nil
		res.members[mid] = []*lang.Element{override}
		res.members[outer] = nil

		sink := &recordingSink{}
		if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
			t.Fatalf("scan: %v", err)
		}
		last := sink.events[len(sink.events)-1]
		if last != "ref Elsewhere.g via Outer.Mid" {
			t.Fatalf("expected erased-signature attribution to Mid, got %q", last)
		}
	})

	t.Run("unattributable call is fatal", func(t *testing.T) {
		res := newFakeResolver()
		_, _, _, call, unit := buildNesting(res)
		g := methodEl("g", classEl("Elsewhere", nil), nil)
		res.elements[call.Fun] = g

		sink := &recordingSink{}
		err := New(LevelJava8).Scan(unit, res, sink)
		if err == nil {
			t.Fatal("expected an error for an unattributable implicit-receiver call")
		}
		if !errors.IsCode(err, errors.CodeInvariant) {
			t.Fatalf("expected CodeInvariant, got %v", err)
		}
	})

	t.Run("static and constructor targets fall through to default traversal", func(t *testing.T) {
		for _, target := range []*lang.Element{
			{Name: "s", Kind: lang.KindMethod, Static: true},
			{Name: "<init>", Kind: lang.KindConstructor},
		} {
			res := newFakeResolver()
			_, _, _, call, unit := buildNesting(res)
			res.elements[call.Fun] = target

			sink := &recordingSink{}
			if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
				t.Fatalf("scan: %v", err)
			}
			last := sink.events[len(sink.events)-1]
			if strings.Contains(last, " via ") {
				t.Fatalf("expected unqualified reference for %s, got %q", target.Name, last)
			}
		}
	})
}

// Scanning a 6-deep nesting followed by a sibling class verifies that the
// enclosing stack drains back to empty between top-level declarations: the
// sibling's implicit call must attribute to the sibling, not to a leaked
// enclosing entry.
func TestEnclosingStackBalance(t *testing.T) {
	res := newFakeResolver()

	var nodes []*ast.Class
	var els []*lang.Element
	var owner *lang.Element
	for i := 0; i < 6; i++ {
		el := classEl(fmt.Sprintf("N%d", i), owner)
		els = append(els, el)
		nodes = append(nodes, &ast.Class{Name: el.Name})
		owner = el
	}
	for i := 0; i < 5; i++ {
		nodes[i].Body = []ast.Node{nodes[i+1]}
	}
	for i, node := range nodes {
		res.elements[node] = els[i]
	}

	sibling := classEl("Sibling", nil)
	h := methodEl("h", sibling, nil)
	call := &ast.Call{Fun: &ast.Ident{Name: "h"}}
	siblingNode := &ast.Class{Name: "Sibling", Body: []ast.Node{&ast.Block{Stmts: []ast.Node{call}}}}
	res.elements[siblingNode] = sibling
	res.elements[call.Fun] = h
	res.members[sibling] = []*lang.Element{h}

	unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{nodes[0], siblingNode}}

	sink := &recordingSink{}
	if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
		t.Fatalf("scan: %v", err)
	}

	last := sink.events[len(sink.events)-1]
	if last != "ref Sibling.h via Sibling" {
		t.Fatalf("expected sibling attribution after deep nesting, got %q", last)
	}
	// 6 nested + 1 sibling fact pairs, plus the call reference.
	if len(sink.events) != 15 {
		t.Fatalf("expected 15 events, got %d: %v", len(sink.events), sink.events)
	}
}

// Each member declaration must be preceded, adjacently, by the reference to
// the same element.
func TestDeclarationsFollowTheirReferences(t *testing.T) {
	a := classEl("A", nil)
	str := classEl("String", nil)
	f := fieldEl("f", a, str)
	m := methodEl("m", a, str)

	varF := &ast.Variable{Name: "f"}
	methodM := &ast.Method{Name: "m"}
	node := &ast.Class{Name: "A", Body: []ast.Node{varF, methodM}}
	unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{node}}

	res := newFakeResolver()
	res.elements[node] = a
	res.elements[varF] = f
	res.elements[methodM] = m

	sink := &recordingSink{}
	if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
		t.Fatalf("scan: %v", err)
	}

	for i, ev := range sink.events {
		if !strings.HasPrefix(ev, "memberdef ") && !strings.HasPrefix(ev, "classdef ") {
			continue
		}
		name := strings.Fields(ev)[1]
		if i == 0 || sink.events[i-1] != "ref "+name {
			t.Fatalf("declaration %q not preceded by its reference: %v", ev, sink.events)
		}
	}
}

func TestVariantMemberReference(t *testing.T) {
	b := classEl("B", nil)
	g := methodEl("g", b, nil)

	newUnit := func(res *fakeResolver) *ast.CompilationUnit {
		recv := &ast.Ident{Name: "B"}
		mref := &ast.MemberRef{X: recv, Name: "g"}
		lambda := &ast.Lambda{Body: &ast.Block{Stmts: []ast.Node{mref}}}
		node := &ast.Class{Name: "A", Body: []ast.Node{&ast.Block{Stmts: []ast.Node{lambda}}}}
		res.elements[node] = classEl("A", nil)
		res.elements[mref] = g
		return &ast.CompilationUnit{TypeDecls: []*ast.Class{node}}
	}

	t.Run("java8 level records the referenced method", func(t *testing.T) {
		res := newFakeResolver()
		unit := newUnit(res)
		sink := &recordingSink{}
		if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
			t.Fatalf("scan: %v", err)
		}
		assertEvents(t, sink.events, []string{"ref A", "classdef A supers=[]", "ref B.g"})
	})

	t.Run("base level treats lambdas and method references as opaque", func(t *testing.T) {
		res := newFakeResolver()
		unit := newUnit(res)
		sink := &recordingSink{}
		if err := New(LevelBase).Scan(unit, res, sink); err != nil {
			t.Fatalf("scan: %v", err)
		}
		assertEvents(t, sink.events, []string{"ref A", "classdef A supers=[]"})
	})
}

func TestUnresolvedNodesAreSkipped(t *testing.T) {
	a := classEl("A", nil)
	ident := &ast.Ident{Name: "mystery"}
	node := &ast.Class{Name: "A", Body: []ast.Node{&ast.Block{Stmts: []ast.Node{ident}}}}
	unit := &ast.CompilationUnit{TypeDecls: []*ast.Class{node}}

	res := newFakeResolver()
	res.elements[node] = a

	sink := &recordingSink{}
	if err := New(LevelJava8).Scan(unit, res, sink); err != nil {
		t.Fatalf("scan: %v", err)
	}
	assertEvents(t, sink.events, []string{"ref A", "classdef A supers=[]"})
}

func TestNilUnit(t *testing.T) {
	if err := New(LevelJava8).Scan(nil, newFakeResolver(), &recordingSink{}); err != nil {
		t.Fatalf("scan of nil unit: %v", err)
	}
}
