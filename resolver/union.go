package resolver

import (
	"github.com/wippyai/structlayout/typegraph"
)

// union places every member at offset 0. Unions record no holes; tail
// padding up to the union alignment is part of the size only.
func (r *Resolver) union(a *typegraph.Aggregate) (*Layout, error) {
	name := a.QualifiedName()
	l := &Layout{Aggregate: a, Members: make([]Member, 0, len(a.Fields))}
	var maxSize, maxAlign uint32 = 0, 1

	for i := range a.Fields {
		f := &a.Fields[i]
		var m Member
		if f.Bitfield {
			_, unit, align, err := r.bitfieldBase(name, f)
			if err != nil {
				return nil, err
			}
			if f.BitWidth == 0 {
				continue
			}
			m = Member{
				Name:     f.Name,
				Type:     f.Type,
				Size:     unit,
				Align:    align,
				Bitfield: true,
				BitWidth: f.BitWidth,
			}
		} else {
			info, err := r.typeInfo(name, f.Name, f.Type)
			if err != nil {
				return nil, err
			}
			m = Member{
				Name:  f.Name,
				Type:  f.Type,
				Size:  info.Size,
				Align: info.Align,
			}
			place(&m, info)
		}
		l.Members = append(l.Members, m)
		maxSize = max(maxSize, m.Size)
		maxAlign = max(maxAlign, m.Align)
	}

	size, ok := alignUp(maxSize, maxAlign)
	if !ok {
		return nil, overflow(name, "")
	}
	l.Size = size
	l.Align = maxAlign
	return l, nil
}
