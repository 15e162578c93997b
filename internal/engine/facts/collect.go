package facts

// UnitFacts is the serializable per-unit fact set: every reference and
// declaration one scan produced, keyed by qualified name instead of element
// identity so it survives the queue and the index.
type UnitFacts struct {
	Unit    string         `json:"unit"`
	Refs    []RefRecord    `json:"refs,omitempty"`
	Classes []ClassRecord  `json:"classes,omitempty"`
	Members []MemberRecord `json:"members,omitempty"`
}

type RefRecord struct {
	Element   string `json:"element"`
	Qualifier string `json:"qualifier,omitempty"`
}

type ClassRecord struct {
	Name   string   `json:"name"`
	Supers []string `json:"supers,omitempty"`
}

type MemberRecord struct {
	Class     string `json:"class"`
	Name      string `json:"name"`
	ValueType string `json:"value_type,omitempty"`
	Static    bool   `json:"static,omitempty"`
}

// Collector is a sink that flattens scan output into UnitFacts.
type Collector struct {
	Out UnitFacts
}

func NewCollector(unit string) *Collector {
	return &Collector{Out: UnitFacts{Unit: unit}}
}

func (c *Collector) Reference(r *Ref) {
	rec := RefRecord{Element: r.Element.QualifiedName()}
	if r.Qualifier != nil {
		rec.Qualifier = r.Qualifier.QualifiedName()
	}
	c.Out.Refs = append(c.Out.Refs, rec)
}

func (c *Collector) Declaration(d Def) {
	switch d := d.(type) {
	case ClassDef:
		rec := ClassRecord{Name: d.Class.Element.QualifiedName()}
		for _, s := range d.Supers {
			rec.Supers = append(rec.Supers, s.Element.QualifiedName())
		}
		c.Out.Classes = append(c.Out.Classes, rec)
	case MemberDef:
		rec := MemberRecord{
			Name:   d.Member.Element.QualifiedName(),
			Static: d.Static,
		}
		if owner := d.Member.Element.EnclosingClass(); owner != nil {
			rec.Class = owner.QualifiedName()
		}
		if d.ValueType != nil {
			rec.ValueType = d.ValueType.Element.QualifiedName()
		}
		c.Out.Members = append(c.Out.Members, rec)
	}
}
