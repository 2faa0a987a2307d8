// Package typegraph is the resolved, language-agnostic model of declared
// C/C++ types that layouts are computed over.
//
// A Graph holds the aggregates (struct, union, class) of one compilation
// unit and the entry points whose by-value parameters select which
// aggregates get reported. Fields reference types through TypeRef, a closed
// sum of Scalar, Pointer, Array, AggregateRef, Typedef and Unresolved.
//
// Graphs are produced by a front end through a Builder and are immutable
// once built:
//
//	b := typegraph.NewBuilder()
//	vec := b.Declare([]string{"vec3"}, typegraph.KeywordStruct)
//	b.Define(vec, []typegraph.Field{
//	    {Name: "x", Type: typegraph.Scalar{Kind: abi.Float}},
//	    {Name: "y", Type: typegraph.Scalar{Kind: abi.Float}},
//	})
//	b.AddEntry("t", typegraph.AggregateRef{Agg: vec})
//	g, err := b.Build()
package typegraph
