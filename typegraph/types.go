package typegraph

import (
	"strings"

	"github.com/wippyai/structlayout/abi"
)

// TypeRef references exactly one type.
type TypeRef interface {
	typeRef()
}

// Scalar is a primitive type.
type Scalar struct {
	Kind abi.ScalarKind
}

// Pointer points at Elem, which may be an incomplete aggregate.
type Pointer struct {
	Elem TypeRef
}

// Array is Len consecutive Elem values. Len may be zero.
type Array struct {
	Elem TypeRef
	Len  uint32
}

// AggregateRef references an aggregate by identity.
type AggregateRef struct {
	Agg *Aggregate
}

// Typedef is a named alias. Standard marks fixed-width library typedefs
// (int16_t, size_t) as opposed to user aliases.
type Typedef struct {
	Underlying TypeRef
	Name       string
	Standard   bool
}

// Unresolved is a type name the front end could not bind.
type Unresolved struct {
	Name string
}

func (Scalar) typeRef()       {}
func (Pointer) typeRef()      {}
func (Array) typeRef()        {}
func (AggregateRef) typeRef() {}
func (Typedef) typeRef()      {}
func (Unresolved) typeRef()   {}

// Underlying strips typedefs from t.
func Underlying(t TypeRef) TypeRef {
	for {
		td, ok := t.(Typedef)
		if !ok {
			return t
		}
		t = td.Underlying
	}
}

// ElemAggregate returns the aggregate t holds by value, looking through
// typedefs and arrays, or nil.
func ElemAggregate(t TypeRef) *Aggregate {
	for {
		switch v := t.(type) {
		case Typedef:
			t = v.Underlying
		case Array:
			t = v.Elem
		case AggregateRef:
			return v.Agg
		default:
			return nil
		}
	}
}

// Kind is the layout discipline of an aggregate.
type Kind uint8

const (
	Struct Kind = iota
	Union
)

func (k Kind) String() string {
	if k == Union {
		return "union"
	}
	return "struct"
}

// Keyword is the declaring keyword; class and struct lay out identically.
type Keyword string

const (
	KeywordStruct Keyword = "struct"
	KeywordUnion  Keyword = "union"
	KeywordClass  Keyword = "class"
)

// Kind returns the layout discipline for kw.
func (kw Keyword) Kind() Kind {
	if kw == KeywordUnion {
		return Union
	}
	return Struct
}

// Field is one member of an aggregate. An empty Name on an anonymous
// aggregate type makes the member flattened into its parent.
type Field struct {
	Type     TypeRef
	Name     string
	BitWidth uint32
	Bitfield bool
}

// Flattened reports whether f is an unnamed anonymous aggregate whose
// members belong to the enclosing aggregate.
func (f *Field) Flattened() bool {
	if f.Name != "" || f.Bitfield {
		return false
	}
	ref, ok := f.Type.(AggregateRef)
	return ok && ref.Agg != nil && ref.Agg.Anonymous()
}

// Aggregate is a struct, union or class.
type Aggregate struct {
	Keyword  Keyword
	Path     []string
	Fields   []Field
	id       int
	Complete bool
}

// Kind returns the layout discipline of a.
func (a *Aggregate) Kind() Kind {
	return a.Keyword.Kind()
}

// Anonymous reports whether a has no name of its own.
func (a *Aggregate) Anonymous() bool {
	return len(a.Path) == 0
}

// Name returns the last path segment, or "" for anonymous aggregates.
func (a *Aggregate) Name() string {
	if len(a.Path) == 0 {
		return ""
	}
	return a.Path[len(a.Path)-1]
}

// QualifiedName joins the path with "::".
func (a *Aggregate) QualifiedName() string {
	if len(a.Path) == 0 {
		return "(anonymous " + string(a.Keyword) + ")"
	}
	return strings.Join(a.Path, "::")
}

// ID is the declaration index of a within its graph.
func (a *Aggregate) ID() int {
	return a.id
}

// EntryPoint is a function whose by-value parameters select aggregates for
// top-level resolution.
type EntryPoint struct {
	Name   string
	Params []TypeRef
}
