// Package abi describes the target ABI a layout is computed for.
//
// A Profile is a table of scalar sizes and alignments plus the reporting
// policy of a toolchain: which computed padding holes are surfaced, how
// scalar kinds are spelled and in which order nested aggregates are listed.
// Two profiles over the same table yield byte-identical layouts; only the
// report differs.
//
// # Built-in Profiles
//
//   - reference: LP64 as described by gcc debug info
//   - explicit: LP64 as described by clang (zig cc), surfacing every hole
//   - wasm32: ILP32 WebAssembly, used for WIT-derived type graphs
//
// Further profiles can be registered programmatically or loaded from YAML:
//
//	p, err := abi.LoadFile("targets/i386.yaml")
//	if err != nil {
//	    return err
//	}
//	abi.Register(p)
package abi
