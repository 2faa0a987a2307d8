package typegraph

import (
	"strings"

	"go.uber.org/multierr"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/errors"
)

// Graph is the immutable type graph of one compilation unit.
type Graph struct {
	byPath     map[string]*Aggregate
	aggregates []*Aggregate
	entries    []EntryPoint
}

// Aggregates returns every aggregate in declaration order, anonymous ones included.
func (g *Graph) Aggregates() []*Aggregate {
	return g.aggregates
}

// Entries returns the entry points in declaration order.
func (g *Graph) Entries() []EntryPoint {
	return g.entries
}

// Lookup finds a named aggregate by its qualified path.
func (g *Graph) Lookup(path ...string) (*Aggregate, bool) {
	a, ok := g.byPath[strings.Join(path, "::")]
	return a, ok
}

// Roots returns the aggregates entry points take by value, deduplicated, in
// first-reference order.
func (g *Graph) Roots() []*Aggregate {
	seen := make(map[*Aggregate]bool)
	var roots []*Aggregate
	for _, e := range g.entries {
		for _, p := range e.Params {
			a := ElemAggregate(p)
			if a == nil || seen[a] {
				continue
			}
			seen[a] = true
			roots = append(roots, a)
		}
	}
	return roots
}

// Builder assembles a Graph. It is not safe for concurrent use.
type Builder struct {
	g     *Graph
	built bool
}

func NewBuilder() *Builder {
	return &Builder{g: &Graph{byPath: make(map[string]*Aggregate)}}
}

// Declare returns the aggregate at path, creating an incomplete one on first
// use. Forward declarations and later definitions share the identity.
func (b *Builder) Declare(path []string, kw Keyword) *Aggregate {
	key := strings.Join(path, "::")
	if a, ok := b.g.byPath[key]; ok {
		return a
	}
	a := b.add(append([]string(nil), path...), kw)
	b.g.byPath[key] = a
	return a
}

// Anonymous creates an unnamed aggregate.
func (b *Builder) Anonymous(kw Keyword) *Aggregate {
	return b.add(nil, kw)
}

func (b *Builder) add(path []string, kw Keyword) *Aggregate {
	a := &Aggregate{Path: path, Keyword: kw, id: len(b.g.aggregates)}
	b.g.aggregates = append(b.g.aggregates, a)
	return a
}

// Name gives a still-anonymous aggregate a path, as a typedef of an unnamed
// struct does in C.
func (b *Builder) Name(a *Aggregate, path []string) error {
	if !a.Anonymous() {
		return errors.InvalidInput(errors.PhaseBuild, "aggregate "+a.QualifiedName()+" already has a name")
	}
	key := strings.Join(path, "::")
	if prev, ok := b.g.byPath[key]; ok && prev != a {
		return errors.InvalidInput(errors.PhaseBuild, "name "+key+" already declared")
	}
	a.Path = append([]string(nil), path...)
	b.g.byPath[key] = a
	return nil
}

// Define sets the fields of a and marks it complete.
func (b *Builder) Define(a *Aggregate, fields []Field) error {
	if a.Complete {
		return errors.New(errors.PhaseBuild, errors.KindInvalidInput).
			Path(a.QualifiedName()).
			Detail("redefinition").
			Build()
	}
	a.Fields = fields
	a.Complete = true
	return nil
}

// Lookup finds an aggregate declared so far.
func (b *Builder) Lookup(path []string) (*Aggregate, bool) {
	return b.g.Lookup(path...)
}

// AddEntry records an entry point taking params.
func (b *Builder) AddEntry(name string, params ...TypeRef) {
	b.g.entries = append(b.g.entries, EntryPoint{Name: name, Params: params})
}

// Build validates the structure of the graph and returns it. The builder
// must not be used afterwards.
func (b *Builder) Build() (*Graph, error) {
	if b.built {
		return nil, errors.InvalidInput(errors.PhaseBuild, "builder already used")
	}
	b.built = true
	if err := Validate(b.g, nil); err != nil {
		return nil, err
	}
	return b.g, nil
}

// Validate checks g for value cycles and, when p is non-nil, for scalars
// missing from p and bitfields wider than their base type. All defects are
// returned, joined.
func Validate(g *Graph, p *abi.Profile) error {
	var errs error
	state := make(map[*Aggregate]uint8)
	for _, a := range g.aggregates {
		errs = multierr.Append(errs, checkCycles(a, state, nil))
	}
	if p == nil {
		return errs
	}
	for _, a := range g.aggregates {
		for i := range a.Fields {
			errs = multierr.Append(errs, checkField(a, &a.Fields[i], p))
		}
	}
	return errs
}

const (
	unvisited uint8 = iota
	visiting
	done
)

func checkCycles(a *Aggregate, state map[*Aggregate]uint8, stack []string) error {
	switch state[a] {
	case done:
		return nil
	case visiting:
		return errors.New(errors.PhaseBuild, errors.KindUnsupportedConstruct).
			Path(a.QualifiedName()).
			Detail("aggregate contains itself by value: %s", strings.Join(append(stack, a.QualifiedName()), " -> ")).
			Build()
	}
	state[a] = visiting
	stack = append(stack, a.QualifiedName())
	for _, f := range a.Fields {
		if inner := ElemAggregate(f.Type); inner != nil {
			if err := checkCycles(inner, state, stack); err != nil {
				state[a] = done
				return err
			}
		}
	}
	state[a] = done
	return nil
}

func checkField(a *Aggregate, f *Field, p *abi.Profile) error {
	var errs error
	walkScalars(f.Type, func(k abi.ScalarKind) {
		if k == abi.Void {
			return
		}
		if _, err := p.ScalarLayout(k); err != nil {
			errs = multierr.Append(errs, errors.New(errors.PhaseBuild, errors.KindProfileMismatch).
				Path(a.QualifiedName(), f.Name).
				Type(k.String()).
				Detail("no entry in profile %s", p.Name).
				Build())
		}
	})
	if !f.Bitfield {
		return errs
	}
	s, ok := Underlying(f.Type).(Scalar)
	if !ok || !s.Kind.IsInteger() {
		return multierr.Append(errs, errors.UnsupportedConstruct(a.QualifiedName(), f.Name, "bitfield on a non-integer type"))
	}
	unit, err := p.BitfieldUnitSize(s.Kind)
	if err != nil {
		return errs
	}
	if f.BitWidth > unit*8 {
		errs = multierr.Append(errs, errors.New(errors.PhaseBuild, errors.KindUnsupportedConstruct).
			Path(a.QualifiedName(), f.Name).
			Type(s.Kind.String()).
			Detail("bitfield width %d exceeds %d bits", f.BitWidth, unit*8).
			Build())
	}
	return errs
}

func walkScalars(t TypeRef, fn func(abi.ScalarKind)) {
	switch v := t.(type) {
	case Scalar:
		fn(v.Kind)
	case Array:
		walkScalars(v.Elem, fn)
	case Typedef:
		walkScalars(v.Underlying, fn)
	}
}
