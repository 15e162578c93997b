// Package parser lowers tree-sitter parses of Java sources into the syntax
// tree the binder and scanner operate on. Lowering is tolerant: constructs
// without a dedicated node shape collapse to blocks over their recognized
// children, so odd syntax degrades to fewer facts instead of errors.
package parser

import (
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"backrefs/internal/core/errors"
	"backrefs/internal/engine/ast"
)

type Parser struct {
	language *sitter.Language
}

func NewParser() *Parser {
	return &Parser{language: sitter.NewLanguage(tree_sitter_java.Language())}
}

func (p *Parser) IsSupportedPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".java")
}

// ParseFile parses one source file and lowers it to a compilation unit.
func (p *Parser) ParseFile(path string, content []byte) (*ast.CompilationUnit, error) {
	if !p.IsSupportedPath(path) {
		return nil, errors.New(errors.CodeNotSupported, "unsupported file type")
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.language); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "set grammar")
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}
	defer tree.Close()

	ctx := &lowerContext{source: content, path: path}
	return ctx.lowerUnit(tree.RootNode()), nil
}
