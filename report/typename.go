package report

import (
	"strconv"
	"strings"

	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/typegraph"
)

// TypeName spells t the way it appears in the type column. Arrays are
// spelled by their element type; the dimensions go with the member name.
func TypeName(t typegraph.TypeRef, p *abi.Profile) string {
	switch v := t.(type) {
	case typegraph.Scalar:
		return p.Spell(v.Kind)
	case typegraph.Pointer:
		elem := TypeName(v.Elem, p)
		if strings.HasSuffix(elem, "*") {
			return elem + "*"
		}
		return elem + " *"
	case typegraph.Array:
		return TypeName(v.Elem, p)
	case typegraph.Typedef:
		return v.Name
	case typegraph.AggregateRef:
		if v.Agg == nil {
			return "?"
		}
		if v.Agg.Anonymous() {
			return string(v.Agg.Keyword)
		}
		return v.Agg.QualifiedName()
	case typegraph.Unresolved:
		return v.Name
	default:
		return "?"
	}
}

// dims returns the array suffix of t, outermost dimension first.
func dims(t typegraph.TypeRef) string {
	var b strings.Builder
	for {
		a, ok := t.(typegraph.Array)
		if !ok {
			return b.String()
		}
		b.WriteByte('[')
		b.WriteString(strconv.FormatUint(uint64(a.Len), 10))
		b.WriteByte(']')
		t = a.Elem
	}
}
