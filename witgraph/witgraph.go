// Package witgraph lowers WIT type definitions to the C aggregates a C
// bindings generator emits for them, so their layout can be resolved and
// reported like any C declaration.
//
// Records become structs, tuples structs of f0..fn, options and results a
// discriminant followed by the payload, variants a tag followed by a union
// named val. Strings and lists are pointer and length pairs. Under the
// wasm32 profile the resolved sizes equal the canonical ABI's.
package witgraph

import (
	stderrors "errors"
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/typegraph"
)

// Option configures lowering.
type Option func(*builder)

// WithProfile selects the profile that binds fixed-width typedefs such as
// uint32_t. The default is wasm32.
func WithProfile(p *abi.Profile) Option {
	return func(b *builder) {
		if p != nil {
			b.profile = p
		}
	}
}

// Entry pairs a named WIT definition with the type it lowers to.
type Entry struct {
	Def  *wit.TypeDef
	Type typegraph.TypeRef
	Name string
}

type builder struct {
	profile *abi.Profile
	b       *typegraph.Builder
	types   map[*wit.TypeDef]typegraph.TypeRef
	entries []Entry
}

// Build lowers every named record, tuple, variant, option, result, enum and
// flags definition of res and records each as an entry point.
func Build(res *wit.Resolve, opts ...Option) (*typegraph.Graph, error) {
	g, _, err := build(res, opts)
	return g, err
}

// BuildEntries is Build that also returns the lowered definitions in
// entry order.
func BuildEntries(res *wit.Resolve, opts ...Option) (*typegraph.Graph, []Entry, error) {
	return build(res, opts)
}

// LoadJSON reads the JSON form of a resolved WIT package, as printed by
// wasm-tools component wit --json, and lowers it.
func LoadJSON(path string, opts ...Option) (*typegraph.Graph, error) {
	res, err := wit.LoadJSON(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidInput, err, "load WIT JSON "+path)
	}
	return Build(res, opts...)
}

func build(res *wit.Resolve, opts []Option) (*typegraph.Graph, []Entry, error) {
	if res == nil {
		return nil, nil, errors.InvalidInput(errors.PhaseBuild, "nil WIT resolve")
	}
	w := &builder{
		profile: abi.Wasm32,
		b:       typegraph.NewBuilder(),
		types:   make(map[*wit.TypeDef]typegraph.TypeRef),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, td := range res.TypeDefs {
		if td.Name == nil || !isEntry(td.Kind) {
			continue
		}
		t, err := w.typeDef(td)
		if err != nil {
			return nil, nil, err
		}
		name := strings.Join(w.path(td), "::")
		w.b.AddEntry(name, t)
		w.entries = append(w.entries, Entry{Def: td, Type: t, Name: name})
	}

	g, err := w.b.Build()
	if err != nil {
		return nil, nil, err
	}
	return g, w.entries, nil
}

func isEntry(kind wit.TypeDefKind) bool {
	switch kind.(type) {
	case *wit.Record, *wit.Tuple, *wit.Variant, *wit.Option, *wit.Result, *wit.Enum, *wit.Flags:
		return true
	}
	return false
}

func (w *builder) lower(t wit.Type) (typegraph.TypeRef, error) {
	switch typ := t.(type) {
	case wit.Bool:
		return typegraph.Scalar{Kind: abi.Bool}, nil
	case wit.S8:
		return w.std("int8_t")
	case wit.U8:
		return w.std("uint8_t")
	case wit.S16:
		return w.std("int16_t")
	case wit.U16:
		return w.std("uint16_t")
	case wit.S32:
		return w.std("int32_t")
	case wit.U32, wit.Char:
		return w.std("uint32_t")
	case wit.S64:
		return w.std("int64_t")
	case wit.U64:
		return w.std("uint64_t")
	case wit.F32:
		return typegraph.Scalar{Kind: abi.Float}, nil
	case wit.F64:
		return typegraph.Scalar{Kind: abi.Double}, nil
	case wit.String:
		u8, err := w.std("uint8_t")
		if err != nil {
			return nil, err
		}
		return w.slice("string", u8)
	case *wit.TypeDef:
		return w.typeDef(typ)
	case nil:
		return nil, errors.InvalidInput(errors.PhaseBuild, "nil WIT type")
	}
	return nil, errors.New(errors.PhaseBuild, errors.KindUnsupportedConstruct).
		Type(fmt.Sprintf("%T", t)).
		Detail("WIT type has no C lowering").
		Build()
}

func (w *builder) std(name string) (typegraph.TypeRef, error) {
	k, ok := w.profile.Standard(name)
	if !ok {
		return nil, errors.New(errors.PhaseBuild, errors.KindProfileMismatch).
			Type(name).
			Detail("no fixed-width entry in profile %q", w.profile.Name).
			Build()
	}
	return typegraph.Typedef{Name: name, Underlying: typegraph.Scalar{Kind: k}, Standard: true}, nil
}

func (w *builder) typeDef(td *wit.TypeDef) (typegraph.TypeRef, error) {
	if t, ok := w.types[td]; ok {
		return t, nil
	}
	t, err := w.lowerDef(td)
	if err != nil {
		if td.Name != nil {
			var e *errors.Error
			if stderrors.As(err, &e) && len(e.Path) == 0 {
				e.Path = w.path(td)
			}
		}
		return nil, err
	}
	w.types[td] = t
	return t, nil
}

func (w *builder) lowerDef(td *wit.TypeDef) (typegraph.TypeRef, error) {
	switch kind := td.Kind.(type) {
	case *wit.Record:
		fields := make([]typegraph.Field, 0, len(kind.Fields))
		for _, f := range kind.Fields {
			t, err := w.lower(f.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, typegraph.Field{Name: snake(f.Name), Type: t})
		}
		return w.aggregate(td, fields)

	case *wit.Tuple:
		fields := make([]typegraph.Field, 0, len(kind.Types))
		for i, typ := range kind.Types {
			t, err := w.lower(typ)
			if err != nil {
				return nil, err
			}
			fields = append(fields, typegraph.Field{Name: fmt.Sprintf("f%d", i), Type: t})
		}
		return w.aggregate(td, fields)

	case *wit.Option:
		val, err := w.lower(kind.Type)
		if err != nil {
			return nil, err
		}
		return w.aggregate(td, []typegraph.Field{
			{Name: "is_some", Type: typegraph.Scalar{Kind: abi.Bool}},
			{Name: "val", Type: val},
		})

	case *wit.Result:
		var cases []typegraph.Field
		for _, c := range []struct {
			name string
			typ  wit.Type
		}{{"ok", kind.OK}, {"err", kind.Err}} {
			if c.typ == nil {
				continue
			}
			t, err := w.lower(c.typ)
			if err != nil {
				return nil, err
			}
			cases = append(cases, typegraph.Field{Name: c.name, Type: t})
		}
		fields, err := w.withPayload([]typegraph.Field{{Name: "is_err", Type: typegraph.Scalar{Kind: abi.Bool}}}, cases)
		if err != nil {
			return nil, err
		}
		return w.aggregate(td, fields)

	case *wit.Variant:
		tag, err := w.std(tagType(len(kind.Cases)))
		if err != nil {
			return nil, err
		}
		var cases []typegraph.Field
		for _, c := range kind.Cases {
			if c.Type == nil {
				continue
			}
			t, err := w.lower(c.Type)
			if err != nil {
				return nil, err
			}
			cases = append(cases, typegraph.Field{Name: snake(c.Name), Type: t})
		}
		fields, err := w.withPayload([]typegraph.Field{{Name: "tag", Type: tag}}, cases)
		if err != nil {
			return nil, err
		}
		return w.aggregate(td, fields)

	case *wit.Enum:
		t, err := w.std(tagType(len(kind.Cases)))
		if err != nil {
			return nil, err
		}
		return w.alias(td, t), nil

	case *wit.Flags:
		t, err := w.flags(len(kind.Flags))
		if err != nil {
			return nil, err
		}
		return w.alias(td, t), nil

	case *wit.List:
		elem, err := w.lower(kind.Type)
		if err != nil {
			return nil, err
		}
		return w.slice(typeName(td), elem)

	case *wit.Own, *wit.Borrow:
		t, err := w.std("int32_t")
		if err != nil {
			return nil, err
		}
		return w.alias(td, t), nil

	case wit.Type:
		t, err := w.lower(kind)
		if err != nil {
			return nil, err
		}
		return w.alias(td, t), nil
	}

	return nil, errors.New(errors.PhaseBuild, errors.KindUnsupportedConstruct).
		Type(fmt.Sprintf("%T", td.Kind)).
		Detail("WIT definition %s has no C lowering", typeName(td)).
		Build()
}

// withPayload appends the cases as a union named val.
func (w *builder) withPayload(fields, cases []typegraph.Field) ([]typegraph.Field, error) {
	if len(cases) == 0 {
		return fields, nil
	}
	u := w.b.Anonymous(typegraph.KeywordUnion)
	if err := w.b.Define(u, cases); err != nil {
		return nil, err
	}
	return append(fields, typegraph.Field{Name: "val", Type: typegraph.AggregateRef{Agg: u}}), nil
}

func (w *builder) flags(n int) (typegraph.TypeRef, error) {
	switch {
	case n == 0:
		u8, err := w.std("uint8_t")
		return typegraph.Array{Elem: u8, Len: 0}, err
	case n <= 8:
		return w.std("uint8_t")
	case n <= 16:
		return w.std("uint16_t")
	case n <= 32:
		return w.std("uint32_t")
	}
	u32, err := w.std("uint32_t")
	return typegraph.Array{Elem: u32, Len: uint32((n + 31) / 32)}, err
}

// aggregate defines the struct for td. Unnamed definitions get a name
// derived from their structure and are shared between identical uses.
func (w *builder) aggregate(td *wit.TypeDef, fields []typegraph.Field) (typegraph.TypeRef, error) {
	var path []string
	if td.Name != nil {
		path = w.path(td)
	} else {
		path = []string{typeName(td)}
	}
	a := w.b.Declare(path, typegraph.KeywordStruct)
	if a.Complete {
		return typegraph.AggregateRef{Agg: a}, nil
	}
	if err := w.b.Define(a, fields); err != nil {
		return nil, err
	}
	return typegraph.AggregateRef{Agg: a}, nil
}

// slice defines a pointer and length pair.
func (w *builder) slice(name string, elem typegraph.TypeRef) (typegraph.TypeRef, error) {
	size, err := w.std("size_t")
	if err != nil {
		return nil, err
	}
	a := w.b.Declare([]string{name}, typegraph.KeywordStruct)
	if !a.Complete {
		if err := w.b.Define(a, []typegraph.Field{
			{Name: "ptr", Type: typegraph.Pointer{Elem: elem}},
			{Name: "len", Type: size},
		}); err != nil {
			return nil, err
		}
	}
	return typegraph.AggregateRef{Agg: a}, nil
}

func (w *builder) alias(td *wit.TypeDef, t typegraph.TypeRef) typegraph.TypeRef {
	if td.Name == nil {
		return t
	}
	return typegraph.Typedef{Name: snake(*td.Name), Underlying: t}
}

func (w *builder) path(td *wit.TypeDef) []string {
	name := snake(*td.Name)
	switch o := td.Owner.(type) {
	case *wit.Interface:
		if o.Name != nil {
			return []string{snake(*o.Name), name}
		}
	case *wit.World:
		return []string{snake(o.Name), name}
	}
	return []string{name}
}

func tagType(cases int) string {
	switch {
	case cases <= 1<<8:
		return "uint8_t"
	case cases <= 1<<16:
		return "uint16_t"
	default:
		return "uint32_t"
	}
}
