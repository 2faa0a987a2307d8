// Package canon computes Component Model canonical ABI sizes and
// alignments for WIT types. It is the reference the C lowering of
// witgraph is checked against.
package canon

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/structlayout/abi"
)

// Calculator memoizes layouts per type definition.
type Calculator struct {
	cache map[*wit.TypeDef]abi.Layout
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[*wit.TypeDef]abi.Layout),
	}
}

// Layout returns the canonical size and alignment of t.
func (c *Calculator) Layout(t wit.Type) abi.Layout {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return abi.Layout{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return abi.Layout{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return abi.Layout{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return abi.Layout{Size: 8, Align: 8}
	case wit.String:
		return abi.Layout{Size: 8, Align: 4} // [ptr: u32, len: u32]
	case *wit.TypeDef:
		return c.typeDef(typ)
	default:
		return abi.Layout{Size: 0, Align: 1}
	}
}

func (c *Calculator) typeDef(t *wit.TypeDef) abi.Layout {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var l abi.Layout
	switch kind := t.Kind.(type) {
	case *wit.Record:
		l = c.record(kind)
	case *wit.Variant:
		l = c.variant(kind)
	case *wit.Enum:
		size := DiscriminantSize(len(kind.Cases))
		l = abi.Layout{Size: size, Align: size}
	case *wit.List:
		l = abi.Layout{Size: 8, Align: 4}
	case *wit.Option:
		l = c.payload(1, c.Layout(kind.Type))
	case *wit.Result:
		l = c.result(kind)
	case *wit.Tuple:
		l = c.sequence(kind.Types)
	case *wit.Flags:
		l = Flags(len(kind.Flags))
	case *wit.Own, *wit.Borrow:
		l = abi.Layout{Size: 4, Align: 4}
	case wit.Type:
		l = c.Layout(kind)
	default:
		l = abi.Layout{Size: 0, Align: 1}
	}

	c.cache[t] = l
	return l
}

func (c *Calculator) record(r *wit.Record) abi.Layout {
	types := make([]wit.Type, len(r.Fields))
	for i, f := range r.Fields {
		types[i] = f.Type
	}
	return c.sequence(types)
}

func (c *Calculator) sequence(types []wit.Type) abi.Layout {
	if len(types) == 0 {
		return abi.Layout{Size: 0, Align: 1}
	}

	maxAlign := uint32(1)
	offset := uint32(0)
	for _, typ := range types {
		l := c.Layout(typ)
		offset = abi.AlignTo(offset, l.Align)
		maxAlign = max(maxAlign, l.Align)
		offset += l.Size
	}
	return abi.Layout{Size: abi.AlignTo(offset, maxAlign), Align: maxAlign}
}

func (c *Calculator) variant(v *wit.Variant) abi.Layout {
	if len(v.Cases) == 0 {
		return abi.Layout{Size: 0, Align: 1}
	}

	var cases abi.Layout
	for _, cs := range v.Cases {
		if cs.Type != nil {
			cases = join(cases, c.Layout(cs.Type))
		}
	}
	return c.payload(DiscriminantSize(len(v.Cases)), cases)
}

func (c *Calculator) result(r *wit.Result) abi.Layout {
	var cases abi.Layout
	if r.OK != nil {
		cases = join(cases, c.Layout(r.OK))
	}
	if r.Err != nil {
		cases = join(cases, c.Layout(r.Err))
	}
	return c.payload(1, cases)
}

// payload lays out a discriminant followed by the widest case.
func (c *Calculator) payload(disc uint32, cases abi.Layout) abi.Layout {
	maxAlign := max(disc, cases.Align)
	offset := abi.AlignTo(disc, maxAlign)
	return abi.Layout{Size: abi.AlignTo(offset+cases.Size, maxAlign), Align: maxAlign}
}

func join(a, b abi.Layout) abi.Layout {
	return abi.Layout{Size: max(a.Size, b.Size), Align: max(a.Align, b.Align)}
}

// DiscriminantSize returns the byte width of a tag selecting among n cases.
func DiscriminantSize(n int) uint32 {
	switch {
	case n <= 1<<8:
		return 1
	case n <= 1<<16:
		return 2
	default:
		return 4
	}
}

// Flags returns the layout of a flags type with n members: the smallest
// integer holding them, or a run of u32 words past 32.
func Flags(n int) abi.Layout {
	switch {
	case n == 0:
		return abi.Layout{Size: 0, Align: 1}
	case n <= 8:
		return abi.Layout{Size: 1, Align: 1}
	case n <= 16:
		return abi.Layout{Size: 2, Align: 2}
	case n <= 32:
		return abi.Layout{Size: 4, Align: 4}
	}
	return abi.Layout{Size: uint32((n+31)/32) * 4, Align: 4}
}
