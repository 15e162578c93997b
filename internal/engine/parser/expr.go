package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"backrefs/internal/engine/ast"
)

func (c *lowerContext) lowerBlock(node *sitter.Node) *ast.Block {
	block := &ast.Block{Loc: c.loc(node)}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		block.Stmts = append(block.Stmts, c.lowerStmt(node.NamedChild(i))...)
	}
	return block
}

// lowerStmt lowers one statement. Statements without a dedicated shape fold
// into a block over their recognized children, so control flow keeps every
// nested expression visible without the tree modelling it.
func (c *lowerContext) lowerStmt(node *sitter.Node) []ast.Node {
	switch node.Kind() {
	case "local_variable_declaration":
		return c.lowerLocalDeclaration(node)
	case "expression_statement":
		if node.NamedChildCount() == 0 {
			return nil
		}
		if expr := c.lowerExpr(node.NamedChild(0)); expr != nil {
			return []ast.Node{expr}
		}
		return nil
	case "block":
		return []ast.Node{c.lowerBlock(node)}
	case "return_statement", "throw_statement", "yield_statement":
		if node.NamedChildCount() == 0 {
			return nil
		}
		if expr := c.lowerExpr(node.NamedChild(0)); expr != nil {
			return []ast.Node{expr}
		}
		return nil
	case "line_comment", "block_comment":
		return nil
	default:
		if class := c.lowerClassLike(node); class != nil {
			return []ast.Node{class}
		}
		return c.lowerGenericStmt(node)
	}
}

// lowerGenericStmt keeps the children of if/for/while/try/switch and anything
// else unmodelled: nested statements lower recursively, condition and resource
// expressions lower in place.
func (c *lowerContext) lowerGenericStmt(node *sitter.Node) []ast.Node {
	block := &ast.Block{Loc: c.loc(node)}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if expr := c.lowerExpr(child); expr != nil {
			block.Stmts = append(block.Stmts, expr)
			continue
		}
		block.Stmts = append(block.Stmts, c.lowerStmt(child)...)
	}
	if len(block.Stmts) == 0 {
		return nil
	}
	return []ast.Node{block}
}

func (c *lowerContext) lowerLocalDeclaration(node *sitter.Node) []ast.Node {
	typeName := c.lowerTypeName(node.ChildByFieldName("type"))

	var out []ast.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		decl := node.NamedChild(i)
		if decl.Kind() != "variable_declarator" {
			continue
		}
		v := &ast.Variable{
			Name: c.text(decl.ChildByFieldName("name")),
			Type: typeName,
			Loc:  c.loc(decl),
		}
		if value := decl.ChildByFieldName("value"); value != nil {
			v.Init = c.lowerExpr(value)
		}
		out = append(out, v)
	}
	return out
}

// lowerExpr lowers one expression node, nil when the node is not an
// expression form.
func (c *lowerContext) lowerExpr(node *sitter.Node) ast.Expr {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "identifier", "this", "super":
		return &ast.Ident{Name: c.text(node), Loc: c.loc(node)}
	case "field_access":
		return &ast.Select{
			X:    c.lowerExpr(node.ChildByFieldName("object")),
			Name: c.text(node.ChildByFieldName("field")),
			Loc:  c.loc(node),
		}
	case "method_invocation":
		return c.lowerCall(node)
	case "object_creation_expression":
		return c.lowerNew(node)
	case "assignment_expression":
		return &ast.Assign{
			Target: c.lowerExpr(node.ChildByFieldName("left")),
			Value:  c.lowerExpr(node.ChildByFieldName("right")),
			Loc:    c.loc(node),
		}
	case "binary_expression":
		return &ast.Binary{
			Left:  c.lowerExpr(node.ChildByFieldName("left")),
			Right: c.lowerExpr(node.ChildByFieldName("right")),
			Loc:   c.loc(node),
		}
	case "parenthesized_expression", "cast_expression", "unary_expression", "update_expression":
		// Unwrap to the innermost expression child.
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if expr := c.lowerExpr(node.NamedChild(i)); expr != nil {
				return expr
			}
		}
		return nil
	case "lambda_expression":
		return c.lowerLambda(node)
	case "method_reference":
		return c.lowerMethodReference(node)
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal",
		"binary_integer_literal", "decimal_floating_point_literal",
		"string_literal", "character_literal", "true", "false", "null_literal":
		return &ast.Literal{Text: c.text(node), Loc: c.loc(node)}
	}
	return nil
}

func (c *lowerContext) lowerCall(node *sitter.Node) *ast.Call {
	call := &ast.Call{Loc: c.loc(node)}
	name := c.text(node.ChildByFieldName("name"))

	if object := node.ChildByFieldName("object"); object != nil {
		call.Fun = &ast.Select{X: c.lowerExpr(object), Name: name, Loc: c.loc(node)}
	} else {
		call.Fun = &ast.Ident{Name: name, Loc: c.loc(node)}
	}

	if typeArgs := node.ChildByFieldName("type_arguments"); typeArgs != nil {
		for i := uint(0); i < typeArgs.NamedChildCount(); i++ {
			if tn := c.lowerTypeName(typeArgs.NamedChild(i)); tn != nil {
				call.TypeArgs = append(call.TypeArgs, tn)
			}
		}
	}
	if args := node.ChildByFieldName("arguments"); args != nil {
		for i := uint(0); i < args.NamedChildCount(); i++ {
			if expr := c.lowerExpr(args.NamedChild(i)); expr != nil {
				call.Args = append(call.Args, expr)
			}
		}
	}
	return call
}

func (c *lowerContext) lowerNew(node *sitter.Node) *ast.New {
	out := &ast.New{
		Type: c.lowerTypeName(node.ChildByFieldName("type")),
		Loc:  c.loc(node),
	}
	if args := node.ChildByFieldName("arguments"); args != nil {
		for i := uint(0); i < args.NamedChildCount(); i++ {
			if expr := c.lowerExpr(args.NamedChild(i)); expr != nil {
				out.Args = append(out.Args, expr)
			}
		}
	}
	// A trailing class_body makes this an anonymous class.
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == "class_body" {
			out.Body = c.lowerClassBody(child)
			if out.Body == nil {
				out.Body = []ast.Node{}
			}
		}
	}
	return out
}

func (c *lowerContext) lowerLambda(node *sitter.Node) *ast.Lambda {
	out := &ast.Lambda{Loc: c.loc(node)}

	if params := node.ChildByFieldName("parameters"); params != nil {
		switch params.Kind() {
		case "identifier":
			out.Params = append(out.Params, &ast.Variable{Name: c.text(params), Loc: c.loc(params)})
		default:
			for i := uint(0); i < params.NamedChildCount(); i++ {
				param := params.NamedChild(i)
				switch param.Kind() {
				case "identifier":
					out.Params = append(out.Params, &ast.Variable{Name: c.text(param), Loc: c.loc(param)})
				case "formal_parameter":
					out.Params = append(out.Params, &ast.Variable{
						Name: c.text(param.ChildByFieldName("name")),
						Type: c.lowerTypeName(param.ChildByFieldName("type")),
						Loc:  c.loc(param),
					})
				}
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		if body.Kind() == "block" {
			out.Body = c.lowerBlock(body)
		} else if expr := c.lowerExpr(body); expr != nil {
			out.Body = expr
		}
	}
	return out
}

func (c *lowerContext) lowerMethodReference(node *sitter.Node) *ast.MemberRef {
	out := &ast.MemberRef{Loc: c.loc(node)}
	// Shape is receiver :: name; the receiver is the first named child and
	// the method name the last.
	n := node.NamedChildCount()
	if n == 0 {
		return out
	}
	first := node.NamedChild(0)
	if expr := c.lowerExpr(first); expr != nil {
		out.X = expr
	} else if tn := c.lowerTypeName(first); tn != nil {
		out.X = tn
	}
	if n > 1 {
		out.Name = c.text(node.NamedChild(n - 1))
	} else {
		out.Name = "new"
	}
	return out
}
