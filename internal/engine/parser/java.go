package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"backrefs/internal/engine/ast"
)

// lowerContext carries the source bytes and path shared by all lowering
// helpers for one file.
type lowerContext struct {
	source []byte
	path   string
}

func (c *lowerContext) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.source[node.StartByte():node.EndByte()])
}

func (c *lowerContext) loc(node *sitter.Node) ast.Location {
	return ast.Location{
		File:   c.path,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}

func (c *lowerContext) lowerUnit(root *sitter.Node) *ast.CompilationUnit {
	unit := &ast.CompilationUnit{Path: c.path, Loc: c.loc(root)}

	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		switch child.Kind() {
		case "package_declaration":
			c.lowerPackage(child, unit)
		case "import_declaration":
			// Imports contribute nothing on their own; uses are
			// resolved at the use-site.
		default:
			if class := c.lowerClassLike(child); class != nil {
				unit.TypeDecls = append(unit.TypeDecls, class)
			}
		}
	}
	return unit
}

func (c *lowerContext) lowerPackage(node *sitter.Node, unit *ast.CompilationUnit) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "scoped_identifier", "identifier":
			unit.Package = c.text(child)
		case "annotation", "marker_annotation":
			unit.PackageAnnotations = append(unit.PackageAnnotations, c.lowerAnnotation(child))
		}
	}
}

func (c *lowerContext) lowerAnnotation(node *sitter.Node) *ast.Annotation {
	out := &ast.Annotation{Loc: c.loc(node)}
	if name := node.ChildByFieldName("name"); name != nil {
		out.Type = &ast.TypeName{Name: c.text(name), Loc: c.loc(name)}
	}
	if args := node.ChildByFieldName("arguments"); args != nil {
		for i := uint(0); i < args.NamedChildCount(); i++ {
			if expr := c.lowerExpr(args.NamedChild(i)); expr != nil {
				out.Args = append(out.Args, expr)
			}
		}
	}
	return out
}

func classFlavor(kind string) (ast.ClassFlavor, bool) {
	switch kind {
	case "class_declaration":
		return ast.PlainClass, true
	case "interface_declaration":
		return ast.InterfaceClass, true
	case "enum_declaration":
		return ast.EnumClass, true
	case "annotation_type_declaration":
		return ast.AnnotationClass, true
	}
	return ast.PlainClass, false
}

func (c *lowerContext) lowerClassLike(node *sitter.Node) *ast.Class {
	flavor, ok := classFlavor(node.Kind())
	if !ok {
		return nil
	}

	class := &ast.Class{
		Flavor: flavor,
		Name:   c.text(node.ChildByFieldName("name")),
		Static: c.hasStaticModifier(node),
		Loc:    c.loc(node),
	}

	if superclass := node.ChildByFieldName("superclass"); superclass != nil {
		// The superclass node wraps the type after the extends keyword.
		for i := uint(0); i < superclass.NamedChildCount(); i++ {
			class.Extends = c.lowerTypeName(superclass.NamedChild(i))
		}
	}
	if interfaces := node.ChildByFieldName("interfaces"); interfaces != nil {
		class.Implements = append(class.Implements, c.lowerTypeList(interfaces)...)
	}
	// Interface extends-lists arrive as a child node rather than a field.
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == "extends_interfaces" {
			class.Implements = append(class.Implements, c.lowerTypeList(child)...)
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		class.Body = c.lowerClassBody(body)
	}
	return class
}

func (c *lowerContext) lowerTypeList(node *sitter.Node) []*ast.TypeName {
	var out []*ast.TypeName
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "type_list" {
			out = append(out, c.lowerTypeList(child)...)
			continue
		}
		if tn := c.lowerTypeName(child); tn != nil {
			out = append(out, tn)
		}
	}
	return out
}

func (c *lowerContext) lowerTypeName(node *sitter.Node) *ast.TypeName {
	if node == nil {
		return nil
	}
	text := strings.TrimSpace(c.text(node))
	if text == "" {
		return nil
	}
	return &ast.TypeName{Name: text, Loc: c.loc(node)}
}

func (c *lowerContext) lowerClassBody(body *sitter.Node) []ast.Node {
	var out []ast.Node
	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		switch member.Kind() {
		case "field_declaration", "constant_declaration":
			out = append(out, c.lowerFieldDeclaration(member)...)
		case "method_declaration":
			out = append(out, c.lowerMethod(member, false))
		case "constructor_declaration":
			out = append(out, c.lowerMethod(member, true))
		case "enum_constant":
			out = append(out, &ast.Variable{Name: c.text(member.ChildByFieldName("name")), Loc: c.loc(member)})
		case "enum_body_declarations":
			out = append(out, c.lowerClassBody(member)...)
		case "static_initializer", "block":
			if block := c.lowerBlock(member); block != nil {
				out = append(out, block)
			}
		default:
			if class := c.lowerClassLike(member); class != nil {
				out = append(out, class)
			}
		}
	}
	return out
}

func (c *lowerContext) lowerFieldDeclaration(node *sitter.Node) []ast.Node {
	typeName := c.lowerTypeName(node.ChildByFieldName("type"))
	static := c.hasStaticModifier(node)

	var out []ast.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		decl := node.NamedChild(i)
		if decl.Kind() != "variable_declarator" {
			continue
		}
		v := &ast.Variable{
			Name:   c.text(decl.ChildByFieldName("name")),
			Type:   typeName,
			Static: static,
			Loc:    c.loc(decl),
		}
		if value := decl.ChildByFieldName("value"); value != nil {
			v.Init = c.lowerExpr(value)
		}
		out = append(out, v)
	}
	return out
}

func (c *lowerContext) lowerMethod(node *sitter.Node, constructor bool) *ast.Method {
	m := &ast.Method{
		Name:        c.text(node.ChildByFieldName("name")),
		Constructor: constructor,
		Static:      c.hasStaticModifier(node),
		Loc:         c.loc(node),
	}
	if !constructor {
		m.Returns = c.lowerTypeName(node.ChildByFieldName("type"))
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.NamedChildCount(); i++ {
			param := params.NamedChild(i)
			if param.Kind() != "formal_parameter" && param.Kind() != "spread_parameter" {
				continue
			}
			m.Params = append(m.Params, &ast.Variable{
				Name: c.text(param.ChildByFieldName("name")),
				Type: c.lowerTypeName(param.ChildByFieldName("type")),
				Loc:  c.loc(param),
			})
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		m.Body = c.lowerBlock(body)
	}
	return m
}

func (c *lowerContext) hasStaticModifier(node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "modifiers" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			if child.Child(j).Kind() == "static" {
				return true
			}
		}
	}
	return false
}
