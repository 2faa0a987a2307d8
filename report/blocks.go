package report

import (
	"github.com/wippyai/structlayout/abi"
	"github.com/wippyai/structlayout/resolver"
)

// Blocks lists every named layout reachable by value from roots, each once.
// OrderFirstReference lists a layout before the ones it references;
// OrderDependency lists the referenced ones first.
func Blocks(roots []*resolver.Layout, order abi.BlockOrder) []*resolver.Layout {
	seen := make(map[*resolver.Layout]bool)
	var out []*resolver.Layout

	var visit func(l *resolver.Layout)
	visit = func(l *resolver.Layout) {
		if l == nil || seen[l] {
			return
		}
		seen[l] = true
		if order != abi.OrderDependency {
			out = append(out, l)
		}
		for _, ref := range refs(l, nil) {
			visit(ref)
		}
		if order == abi.OrderDependency {
			out = append(out, l)
		}
	}
	for _, l := range roots {
		visit(l)
	}
	return out
}

// refs collects the named layouts l references, looking into inline
// anonymous members.
func refs(l *resolver.Layout, acc []*resolver.Layout) []*resolver.Layout {
	for i := range l.Members {
		m := &l.Members[i]
		acc = append(acc, m.Refs...)
		if m.Inline != nil {
			acc = refs(m.Inline, acc)
		}
	}
	return acc
}
