// Package resolver computes the memory layout of aggregates in a type graph.
//
// For every struct, union or class it derives size, alignment, the byte (and
// for bitfields, bit) offset of each member and the padding holes the
// compiler inserts, under an abi.Profile. Results are memoized by aggregate
// identity for the lifetime of a Resolver, so an aggregate referenced from
// several places is resolved once and every reference observes the same
// Layout.
//
// # Layout Rules
//
//   - Structs: members in declaration order, each aligned to its own
//     alignment; the size is rounded up to the largest member alignment.
//   - Unions: every member at offset 0; size is the largest member rounded
//     up to the largest alignment. Unions never record holes of their own.
//   - Bitfields: consecutive bitfields of the same base scalar kind share a
//     storage unit of that kind's size while bits remain; a new unit starts
//     at the next offset aligned for the base type.
//   - Zero-length arrays take the aligned running offset and add no size.
//   - Unnamed anonymous aggregates are flattened: their members report
//     offsets in the enclosing aggregate while their own rules still apply.
//
// # Usage
//
//	r := resolver.New(abi.Reference)
//	l, err := r.Resolve(agg)
//	// l.Size, l.Align, l.Members, l.Holes
//
// A Resolver is not safe for concurrent use; resolve independent graphs
// with independent resolvers.
package resolver
