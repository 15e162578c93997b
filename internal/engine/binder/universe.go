package binder

import "backrefs/internal/engine/lang"

// universe interns the elements every unit set shares: primitive types, void,
// and a small well-known slice of java.lang. Binding never reaches outside
// the unit set plus this universe; anything else stays unresolved.
type universe struct {
	javaLang   *lang.Element
	object     *lang.Element
	primitives map[string]*lang.Element
	wellKnown  map[string]*lang.Element
}

var primitiveNames = []string{
	"boolean", "byte", "short", "int", "long", "char", "float", "double",
}

var wellKnownNames = []string{
	"String", "Integer", "Long", "Short", "Byte", "Character", "Boolean",
	"Float", "Double", "Number", "Math", "System", "Thread",
	"StringBuilder", "Throwable", "Exception", "RuntimeException", "Error",
	"Class",
}

var wellKnownInterfaceNames = []string{
	"Iterable", "Comparable", "Runnable", "CharSequence", "AutoCloseable",
}

func newUniverse() *universe {
	u := &universe{
		primitives: make(map[string]*lang.Element, len(primitiveNames)+1),
		wellKnown:  make(map[string]*lang.Element, len(wellKnownNames)+1),
	}

	u.javaLang = &lang.Element{Name: "java.lang", Kind: lang.KindPackage}
	u.object = &lang.Element{Name: "Object", Kind: lang.KindClass, Owner: u.javaLang}
	u.wellKnown["Object"] = u.object

	for _, name := range wellKnownNames {
		u.wellKnown[name] = &lang.Element{
			Name:       name,
			Kind:       lang.KindClass,
			Owner:      u.javaLang,
			Superclass: u.object,
		}
	}
	for _, name := range wellKnownInterfaceNames {
		u.wellKnown[name] = &lang.Element{
			Name:  name,
			Kind:  lang.KindInterface,
			Owner: u.javaLang,
		}
	}

	for _, name := range primitiveNames {
		u.primitives[name] = &lang.Element{Name: name, Kind: lang.KindPrimitive}
	}
	u.primitives["void"] = &lang.Element{Name: "void", Kind: lang.KindPrimitive}

	return u
}

func (u *universe) primitiveType(name string) (lang.Type, bool) {
	el, ok := u.primitives[name]
	if !ok {
		return lang.Type{}, false
	}
	kind := lang.TypePrimitive
	if name == "void" {
		kind = lang.TypeVoid
	}
	return lang.Type{Kind: kind, Element: el}, true
}
