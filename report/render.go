package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/resolver"
)

// Option configures rendering.
type Option func(*renderer)

// WithStyle decorates headers and holes with s.
func WithStyle(s Style) Option {
	return func(r *renderer) {
		r.style = &s
	}
}

// WithOrder overrides the profile's block order.
func WithOrder(o abi.BlockOrder) Option {
	return func(r *renderer) {
		r.order = o
	}
}

type renderer struct {
	profile *abi.Profile
	style   *Style
	order   abi.BlockOrder
	b       strings.Builder
}

// Render writes the report for roots and everything they reference by value.
func Render(w io.Writer, roots []*resolver.Layout, p *abi.Profile, opts ...Option) error {
	r := &renderer{profile: p, order: p.Order}
	for _, opt := range opts {
		opt(r)
	}
	for _, l := range Blocks(roots, r.order) {
		r.block(l)
	}
	if _, err := io.WriteString(w, r.b.String()); err != nil {
		return errors.Wrap(errors.PhaseRender, errors.KindInvalidInput, err, "write report")
	}
	return nil
}

// String renders roots to a string without styling.
func String(roots []*resolver.Layout, p *abi.Profile) string {
	var b strings.Builder
	_ = Render(&b, roots, p)
	return b.String()
}

func (r *renderer) block(l *resolver.Layout) {
	r.line(0, r.header(fmt.Sprintf("%s %s { // size=%d", l.Aggregate.Keyword, l.Name(), l.Size)))
	r.members(l, 0, 1)
	r.line(0, "};")
}

type row struct {
	typ, name, comment string
}

func (r *renderer) members(l *resolver.Layout, base uint32, depth int) {
	rows := make([]row, len(l.Members))
	typeW, nameW := 0, 0
	for i := range l.Members {
		m := &l.Members[i]
		if m.Inline != nil {
			continue
		}
		rw := row{
			typ:     TypeName(m.Type, r.profile),
			name:    memberName(m),
			comment: comment(m, base),
		}
		w := len(rw.typ)
		if !strings.HasSuffix(rw.typ, "*") {
			w++
		}
		typeW = max(typeW, w)
		nameW = max(nameW, len(rw.name))
		rows[i] = rw
	}

	for i := range l.Members {
		r.holes(l, i, depth)
		m := &l.Members[i]
		if m.Inline != nil {
			r.inline(m, base, depth)
			continue
		}
		rw := rows[i]
		r.line(depth, fmt.Sprintf("%-*s%-*s %s", typeW, rw.typ, nameW, rw.name, rw.comment))
	}
	r.holes(l, len(l.Members), depth)
}

func (r *renderer) inline(m *resolver.Member, base uint32, depth int) {
	in := m.Inline
	r.line(depth, r.inlineHeader(fmt.Sprintf("%s { // size=%d", in.Aggregate.Keyword, in.Size)))
	r.members(in, base+m.Offset, depth+1)
	if m.Name == "" {
		r.line(depth, "};")
		return
	}
	r.line(depth, fmt.Sprintf("} %s %s", memberName(m), comment(m, base)))
}

func (r *renderer) holes(l *resolver.Layout, i int, depth int) {
	for _, h := range l.HolesBefore(i) {
		if !r.profile.Surfaces(h.Class) {
			continue
		}
		text := "// HOLE => " + HoleSize(h)
		if r.style != nil {
			text = r.style.Hole.Render(text)
		}
		r.line(depth, text)
	}
}

func (r *renderer) header(s string) string {
	if r.style != nil {
		return r.style.Header.Render(s)
	}
	return s
}

func (r *renderer) inlineHeader(s string) string {
	if r.style != nil {
		return r.style.Inline.Render(s)
	}
	return s
}

func (r *renderer) line(depth int, s string) {
	for range depth {
		r.b.WriteString("  ")
	}
	r.b.WriteString(s)
	r.b.WriteByte('\n')
}

func memberName(m *resolver.Member) string {
	name := m.Name + dims(m.Type)
	if m.Bitfield {
		name = fmt.Sprintf("%s:%d", name, m.BitWidth)
	}
	return name + ";"
}

func comment(m *resolver.Member, base uint32) string {
	if m.Bitfield {
		return fmt.Sprintf("// size=%d, offset=%d:%d", m.Size, base+m.Offset, m.BitOffset)
	}
	return fmt.Sprintf("// size=%d, offset=%d", m.Size, base+m.Offset)
}

// HoleSize spells a hole as "N bytes", "M bits" or "N bytes and M bits".
func HoleSize(h resolver.Hole) string {
	switch {
	case h.Bytes > 0 && h.Bits > 0:
		return fmt.Sprintf("%d bytes and %d bits", h.Bytes, h.Bits)
	case h.Bits > 0:
		return fmt.Sprintf("%d bits", h.Bits)
	default:
		return fmt.Sprintf("%d bytes", h.Bytes)
	}
}
