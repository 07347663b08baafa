package ir

import "fmt"

// ProjKind tags the closed set of place refinements.
type ProjKind int

const (
	ProjDeref ProjKind = iota
	ProjField
	ProjIndex
)

// Projection refines a Place: Deref | Field(index) | Index(Value).
// Projections compose left-to-right.
type Projection struct {
	Kind  ProjKind
	Field int   // valid iff Kind == ProjField
	Index Value // valid iff Kind == ProjIndex
}

func Deref() Projection           { return Projection{Kind: ProjDeref} }
func Field(i int) Projection      { return Projection{Kind: ProjField, Field: i} }
func Index(v Value) Projection    { return Projection{Kind: ProjIndex, Index: v} }

func (p Projection) String() string {
	switch p.Kind {
	case ProjDeref:
		return "*"
	case ProjField:
		return fmt.Sprintf(".%d", p.Field)
	case ProjIndex:
		return fmt.Sprintf("[%s]", p.Index)
	default:
		return "<bad-proj>"
	}
}

// Place is a compile-time description of an addressable storage
// location: (base, projections). A place with no projections denotes
// the base value itself; one or more projections denote a computed
// memory address, not an SSA value (spec §3).
type Place struct {
	Base        Value
	Projections []Projection
}

func PlaceOf(base Value, projs ...Projection) Place {
	return Place{Base: base, Projections: projs}
}

// IsBare reports whether the place has no projections, i.e. it names
// a local or temp directly rather than a computed address.
func (p Place) IsBare() bool { return len(p.Projections) == 0 }

func (p Place) String() string {
	s := p.Base.String()
	for _, pr := range p.Projections {
		s += pr.String()
	}
	return s
}
