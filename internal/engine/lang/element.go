package lang

import "strings"

// ElementKind tags a named program construct.
type ElementKind int

const (
	KindPackage ElementKind = iota
	KindClass
	KindInterface
	KindEnum
	KindAnnotation
	KindEnumConstant
	KindField
	KindConstructor
	KindMethod
	KindParameter
	KindLocal
	KindTypeParameter
	KindPrimitive
)

var kindNames = map[ElementKind]string{
	KindPackage:       "package",
	KindClass:         "class",
	KindInterface:     "interface",
	KindEnum:          "enum",
	KindAnnotation:    "annotation",
	KindEnumConstant:  "enum_constant",
	KindField:         "field",
	KindConstructor:   "constructor",
	KindMethod:        "method",
	KindParameter:     "parameter",
	KindLocal:         "local",
	KindTypeParameter: "type_parameter",
	KindPrimitive:     "primitive",
}

func (k ElementKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsType reports whether the kind declares a nominal type.
func (k ElementKind) IsType() bool {
	switch k {
	case KindClass, KindInterface, KindEnum, KindAnnotation:
		return true
	}
	return false
}

// Element identifies one named program construct. Elements are interned by
// the binder; pointer identity is element identity within one unit set.
type Element struct {
	Name  string
	Kind  ElementKind
	Owner *Element // enclosing element: class, package, or nil

	Static bool

	// Synthetic marks elements with no stable external name (placeholders
	// for unresolvable supertypes, compiler-generated members). Reference
	// records cannot be constructed for them.
	Synthetic bool

	// ValueType is the declared type for fields/locals/parameters and the
	// return type for methods. Zero for other kinds.
	ValueType Type

	// Signature is the erased signature used for same-erased-type checks,
	// e.g. "g()" or "put(java.lang.Object,java.lang.Object)".
	Signature string

	// Superclass is the resolved direct superclass for class-like elements.
	// Nil means the implicit root type (no extends clause).
	Superclass *Element
	// Interfaces holds implemented/extended interfaces in declaration order.
	Interfaces []*Element
}

// QualifiedName joins the owner chain with dots, skipping unnamed owners.
func (e *Element) QualifiedName() string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	for cur := e; cur != nil; cur = cur.Owner {
		if cur.Name == "" {
			continue
		}
		parts = append(parts, cur.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// EnclosingClass walks the owner chain to the nearest class-like element,
// excluding the element itself. Nil for top-level classes.
func (e *Element) EnclosingClass() *Element {
	if e == nil {
		return nil
	}
	for cur := e.Owner; cur != nil; cur = cur.Owner {
		if cur.Kind.IsType() {
			return cur
		}
	}
	return nil
}

// TypeKind classifies a type descriptor.
type TypeKind int

const (
	TypeNone TypeKind = iota
	TypeDeclared
	TypePrimitive
	TypeVoid
	TypeArray
)

// Type is a lightweight type descriptor. Element is set for declared types
// and for interned primitive/void elements so declarations can reference
// them; None types carry nothing.
type Type struct {
	Kind    TypeKind
	Element *Element
}

// DeclaredType wraps a class-like element as a declared type descriptor.
func DeclaredType(el *Element) Type {
	if el == nil {
		return Type{}
	}
	return Type{Kind: TypeDeclared, Element: el}
}
