package scanner

import "backrefs/internal/engine/ast"

// Level selects the scanner variant for a configured source level.
type Level string

const (
	// LevelBase understands the pre-lambda node set; lambda bodies and
	// method references are opaque to it.
	LevelBase Level = "base"
	// LevelJava8 additionally scans lambda bodies and records the method
	// named by a method-reference expression.
	LevelJava8 Level = "java8"
)

// variant extends the base per-node contract for node kinds a language level
// may or may not understand. handled=true means the node is fully processed.
type variant interface {
	scanExtra(s *Scanner, n ast.Node, p *pass) (handled bool, err error)
}

// New returns the scanner for a source level. Unknown levels get the newest
// variant, mirroring the "use the newer scanner when available" selection of
// the original deployment check.
func New(level Level) *Scanner {
	switch level {
	case LevelBase:
		return &Scanner{variant: baseVariant{}}
	default:
		return &Scanner{variant: java8Variant{}}
	}
}

type baseVariant struct{}

func (baseVariant) scanExtra(_ *Scanner, n ast.Node, _ *pass) (bool, error) {
	switch n.(type) {
	case *ast.Lambda, *ast.MemberRef:
		// Not part of this level's tree grammar.
		return true, nil
	}
	return false, nil
}

type java8Variant struct{}

func (java8Variant) scanExtra(s *Scanner, n ast.Node, p *pass) (bool, error) {
	switch n := n.(type) {
	case *ast.Lambda:
		return true, s.scanChildren(n, p)
	case *ast.MemberRef:
		el := p.res.ElementOf(n)
		if el != nil && allowedKind(el.Kind) {
			if ref := p.res.RefFor(el, nil); ref != nil {
				p.sink.Reference(ref)
			}
		}
		return true, s.scanChildren(n, p)
	}
	return false, nil
}
