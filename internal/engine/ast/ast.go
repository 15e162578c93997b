// Package ast defines the resolved syntax tree the scanner walks. The node
// set is a closed union: Children provides the default recursion order, and
// any kind the scanner does not match explicitly falls through to it.
package ast

// Location is a 1-based source position.
type Location struct {
	File   string
	Line   int
	Column int
}

// Node is the closed union of syntax nodes. Nodes are immutable after
// construction; pointer identity is the binding key used by resolvers.
type Node interface {
	Pos() Location
	node()
}

// Expr marks nodes usable in expression position.
type Expr interface {
	Node
	expr()
}

// ClassFlavor distinguishes the class-like declaration forms.
type ClassFlavor int

const (
	PlainClass ClassFlavor = iota
	InterfaceClass
	EnumClass
	AnnotationClass
)

// CompilationUnit is one source file: package annotations followed by
// top-level type declarations, in source order.
type CompilationUnit struct {
	Path               string
	Package            string
	PackageAnnotations []*Annotation
	TypeDecls          []*Class
	Loc                Location
}

// Class declares a class, interface, enum, or annotation type.
type Class struct {
	Name       string
	Flavor     ClassFlavor
	Extends    *TypeName // nil when the extends clause is absent
	Implements []*TypeName
	Body       []Node
	Static     bool
	Loc        Location
}

// Method declares a method or constructor.
type Method struct {
	Name        string
	Constructor bool
	Static      bool
	Returns     *TypeName // nil for constructors
	Params      []*Variable
	Body        *Block
	Loc         Location
}

// Variable declares a field, local, parameter, or enum constant.
type Variable struct {
	Name   string
	Type   *TypeName
	Init   Expr
	Static bool
	Loc    Location
}

// TypeName is a type use-site: a simple or qualified name.
type TypeName struct {
	Name string
	Loc  Location
}

// Annotation is an annotation use (@Foo(args)).
type Annotation struct {
	Type *TypeName
	Args []Expr
	Loc  Location
}

// Block groups statements; also used to lower unrecognized constructs to
// their recognized children.
type Block struct {
	Stmts []Node
	Loc   Location
}

// Ident is a bare-identifier use-site.
type Ident struct {
	Name string
	Loc  Location
}

// Select is a member access: X.Name.
type Select struct {
	X    Expr
	Name string
	Loc  Location
}

// Call is a method invocation. Fun is an Ident for implicit-receiver calls
// and a Select for qualified calls.
type Call struct {
	Fun      Expr
	TypeArgs []*TypeName
	Args     []Expr
	Loc      Location
}

// New is an object instantiation; Body is non-nil for anonymous classes.
type New struct {
	Type *TypeName
	Args []Expr
	Body []Node
	Loc  Location
}

// Assign is a plain assignment expression.
type Assign struct {
	Target Expr
	Value  Expr
	Loc    Location
}

// Binary is a binary operator expression; the operator itself is irrelevant
// to reference scanning and is not retained.
type Binary struct {
	Left  Expr
	Right Expr
	Loc   Location
}

// Literal is any constant literal; it contributes no references.
type Literal struct {
	Text string
	Loc  Location
}

// Lambda is a lambda expression (java8+ level).
type Lambda struct {
	Params []*Variable
	Body   Node
	Loc    Location
}

// MemberRef is a method reference expression: X::Name (java8+ level).
type MemberRef struct {
	X    Expr
	Name string
	Loc  Location
}

func (n *CompilationUnit) Pos() Location { return n.Loc }
func (n *Class) Pos() Location           { return n.Loc }
func (n *Method) Pos() Location          { return n.Loc }
func (n *Variable) Pos() Location        { return n.Loc }
func (n *TypeName) Pos() Location        { return n.Loc }
func (n *Annotation) Pos() Location      { return n.Loc }
func (n *Block) Pos() Location           { return n.Loc }
func (n *Ident) Pos() Location           { return n.Loc }
func (n *Select) Pos() Location          { return n.Loc }
func (n *Call) Pos() Location            { return n.Loc }
func (n *New) Pos() Location             { return n.Loc }
func (n *Assign) Pos() Location          { return n.Loc }
func (n *Binary) Pos() Location          { return n.Loc }
func (n *Literal) Pos() Location         { return n.Loc }
func (n *Lambda) Pos() Location          { return n.Loc }
func (n *MemberRef) Pos() Location       { return n.Loc }

func (*CompilationUnit) node() {}
func (*Class) node()           {}
func (*Method) node()          {}
func (*Variable) node()        {}
func (*TypeName) node()        {}
func (*Annotation) node()      {}
func (*Block) node()           {}
func (*Ident) node()           {}
func (*Select) node()          {}
func (*Call) node()            {}
func (*New) node()             {}
func (*Assign) node()          {}
func (*Binary) node()          {}
func (*Literal) node()         {}
func (*Lambda) node()          {}
func (*MemberRef) node()       {}

func (*TypeName) expr()  {}
func (*Ident) expr()     {}
func (*Select) expr()    {}
func (*Call) expr()      {}
func (*New) expr()       {}
func (*Assign) expr()    {}
func (*Binary) expr()    {}
func (*Literal) expr()   {}
func (*Lambda) expr()    {}
func (*MemberRef) expr() {}
