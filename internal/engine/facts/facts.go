package facts

import "backrefs/internal/engine/lang"

// Ref records that the scanned unit names Element, optionally disambiguated
// by the class whose member list the access resolves through.
type Ref struct {
	Element   *lang.Element
	Qualifier *lang.Element
}

// Def is either a ClassDef or a MemberDef.
type Def interface {
	def()
}

// ClassDef records a class declaration and its direct supertypes. When the
// class has an explicit superclass its reference is the last entry; the
// leading entries are the implemented interfaces in declaration order.
type ClassDef struct {
	Class  *Ref
	Supers []*Ref
}

// MemberDef records a field or method declaration. ValueType is the field's
// declared type or the method's return type.
type MemberDef struct {
	Member    *Ref
	ValueType *Ref
	Static    bool
}

func (ClassDef) def()  {}
func (MemberDef) def() {}
