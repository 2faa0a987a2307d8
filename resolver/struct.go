package resolver

import (
	"math/bits"

	"go.uber.org/zap"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/typegraph"
)

// bitRun is an open bitfield storage unit.
type bitRun struct {
	kind   abi.ScalarKind
	offset uint32
	unit   uint32 // bytes
	used   uint32 // bits
}

type structState struct {
	layout   *Layout
	run      *bitRun
	cursor   uint32
	maxAlign uint32
}

func (s *structState) hole(offset, bytes uint32, class abi.HoleClass) {
	s.layout.Holes = append(s.layout.Holes, Hole{
		Index:  len(s.layout.Members),
		Offset: offset,
		Bytes:  bytes,
		Class:  class,
	})
}

// closeRun advances the cursor past the open unit and records its unused bits.
func (s *structState) closeRun() {
	run := s.run
	if run == nil {
		return
	}
	s.run = nil
	if rest := run.unit*8 - run.used; rest > 0 {
		s.layout.Holes = append(s.layout.Holes, Hole{
			Index:  len(s.layout.Members),
			Offset: run.offset + run.used/8,
			Bytes:  rest / 8,
			Bits:   rest % 8,
			Class:  abi.HoleBitRemainder,
		})
	}
	s.cursor = run.offset + run.unit
}

// alignUp is abi.AlignTo that reports a result past the uint32 range.
func alignUp(offset, align uint32) (uint32, bool) {
	if align == 0 {
		return offset, true
	}
	sum, carry := bits.Add32(offset, align-1, 0)
	if carry != 0 {
		return 0, false
	}
	return sum &^ (align - 1), true
}

func grow(offset, size uint32) (uint32, bool) {
	sum, carry := bits.Add32(offset, size, 0)
	return sum, carry == 0
}

func overflow(owner, field string) error {
	return errors.UnsupportedConstruct(owner, field, "aggregate size overflows")
}

func (s *structState) align(a uint32) {
	if a > s.maxAlign {
		s.maxAlign = a
	}
}

func (r *Resolver) structure(a *typegraph.Aggregate) (*Layout, error) {
	name := a.QualifiedName()
	s := &structState{
		layout:   &Layout{Aggregate: a, Members: make([]Member, 0, len(a.Fields))},
		maxAlign: 1,
	}

	for i := range a.Fields {
		f := &a.Fields[i]
		if f.Bitfield {
			if err := r.bitfield(s, name, f); err != nil {
				return nil, err
			}
			continue
		}

		s.closeRun()
		info, err := r.typeInfo(name, f.Name, f.Type)
		if err != nil {
			return nil, err
		}
		offset, ok := alignUp(s.cursor, info.Align)
		end, fits := grow(offset, info.Size)
		if !ok || !fits {
			return nil, overflow(name, f.Name)
		}
		if offset > s.cursor {
			s.hole(s.cursor, offset-s.cursor, classify(f.Type, info.Size))
		}
		m := Member{
			Name:   f.Name,
			Type:   f.Type,
			Offset: offset,
			Size:   info.Size,
			Align:  info.Align,
		}
		place(&m, info)
		s.layout.Members = append(s.layout.Members, m)
		s.cursor = end
		s.align(info.Align)
	}
	s.closeRun()

	size, ok := alignUp(s.cursor, s.maxAlign)
	if !ok {
		return nil, overflow(name, "")
	}
	if size > s.cursor {
		s.hole(s.cursor, size-s.cursor, abi.HoleTrailing)
	}
	s.layout.Size = size
	s.layout.Align = s.maxAlign
	return s.layout, nil
}

func (r *Resolver) bitfield(s *structState, owner string, f *typegraph.Field) error {
	kind, unit, align, err := r.bitfieldBase(owner, f)
	if err != nil {
		return err
	}
	if f.BitWidth == 0 {
		s.closeRun()
		return nil
	}

	run := s.run
	if run == nil || run.kind != kind || run.used+f.BitWidth > run.unit*8 {
		s.closeRun()
		offset, ok := alignUp(s.cursor, align)
		if _, fits := grow(offset, unit); !ok || !fits {
			return overflow(owner, f.Name)
		}
		if offset > s.cursor {
			s.hole(s.cursor, offset-s.cursor, classify(f.Type, unit))
		}
		run = &bitRun{kind: kind, offset: offset, unit: unit}
		s.run = run
	}

	s.layout.Members = append(s.layout.Members, Member{
		Name:      f.Name,
		Type:      f.Type,
		Offset:    run.offset,
		Size:      unit,
		Align:     align,
		Bitfield:  true,
		BitOffset: run.used,
		BitWidth:  f.BitWidth,
	})
	run.used += f.BitWidth
	s.align(align)

	r.logger.Debug("bitfield placed",
		zap.String("aggregate", owner),
		zap.String("field", f.Name),
		zap.Uint32("offset", run.offset),
		zap.Uint32("bit", run.used-f.BitWidth))
	return nil
}

// bitfieldBase returns the base kind of a bitfield with its storage unit
// size and alignment.
func (r *Resolver) bitfieldBase(owner string, f *typegraph.Field) (abi.ScalarKind, uint32, uint32, error) {
	sc, ok := typegraph.Underlying(f.Type).(typegraph.Scalar)
	if !ok || !sc.Kind.IsInteger() {
		return 0, 0, 0, errors.UnsupportedConstruct(owner, f.Name, "bitfield on a non-integer type")
	}
	l, err := r.profile.ScalarLayout(sc.Kind)
	if err != nil {
		return 0, 0, 0, errors.ProfileMismatch(owner, f.Name, sc.Kind.String(), r.profile.Name)
	}
	unit, err := r.profile.BitfieldUnitSize(sc.Kind)
	if err != nil {
		return 0, 0, 0, errors.ProfileMismatch(owner, f.Name, sc.Kind.String(), r.profile.Name)
	}
	if f.BitWidth > unit*8 {
		return 0, 0, 0, errors.New(errors.PhaseResolve, errors.KindUnsupportedConstruct).
			Path(owner, f.Name).
			Type(sc.Kind.String()).
			Detail("bitfield width %d exceeds %d bits", f.BitWidth, unit*8).
			Build()
	}
	return sc.Kind, unit, l.Align, nil
}

// classify names the hole in front of a member by the member's type.
func classify(t typegraph.TypeRef, size uint32) abi.HoleClass {
	if size == 0 {
		return abi.HoleBeforeZeroSize
	}
	if typegraph.ElemAggregate(t) != nil {
		return abi.HoleBeforeAggregate
	}
	switch v := t.(type) {
	case typegraph.Typedef:
		if v.Standard {
			return abi.HoleBeforeFixedWidth
		}
		return abi.HoleBeforeAlias
	case typegraph.Array:
		return classify(v.Elem, size)
	default:
		return abi.HoleBeforeScalar
	}
}
