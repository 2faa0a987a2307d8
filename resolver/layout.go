package resolver

import (
	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/typegraph"
)

// Layout is the resolved layout of one aggregate. Member and hole offsets
// are relative to the start of the aggregate.
type Layout struct {
	Aggregate *typegraph.Aggregate
	Members   []Member
	Holes     []Hole
	Size      uint32
	Align     uint32
}

// Member is a laid out field.
type Member struct {
	Type typegraph.TypeRef
	// Inline is the layout of an anonymous aggregate declared in place.
	// Its offsets are relative to Offset.
	Inline *Layout
	// Refs are the named aggregates this member holds by value, directly
	// or as array elements.
	Refs      []*Layout
	Name      string
	Offset    uint32
	Size      uint32
	Align     uint32
	BitOffset uint32
	BitWidth  uint32
	Bitfield  bool
}

// Flattened reports whether the member is an unnamed anonymous aggregate.
func (m *Member) Flattened() bool {
	return m.Inline != nil && m.Name == ""
}

// Hole is padding with no member. Index is the number of members that
// precede it, so a hole with Index == len(Members) is tail padding.
type Hole struct {
	Index  int
	Offset uint32
	Bytes  uint32
	Bits   uint32
	Class  abi.HoleClass
}

// TotalBits returns the hole size in bits.
func (h Hole) TotalBits() uint32 {
	return h.Bytes*8 + h.Bits
}

// HolesBefore returns the holes recorded immediately before member i.
func (l *Layout) HolesBefore(i int) []Hole {
	var out []Hole
	for _, h := range l.Holes {
		if h.Index == i {
			out = append(out, h)
		}
	}
	return out
}

// Name returns the qualified name of the laid out aggregate.
func (l *Layout) Name() string {
	return l.Aggregate.QualifiedName()
}

// Units returns the bytes occupied by members, counting each bitfield
// storage unit once.
func (l *Layout) Units() uint32 {
	var total uint32
	var lastUnit int64 = -1
	for _, m := range l.Members {
		if m.Bitfield {
			if int64(m.Offset) == lastUnit {
				continue
			}
			lastUnit = int64(m.Offset)
		} else {
			lastUnit = -1
		}
		total += m.Size
	}
	return total
}
