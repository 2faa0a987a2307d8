// Package structlayout computes and reports the memory layout of C and C++
// aggregates under a selectable ABI profile.
//
// Given struct, union and class declarations, it derives each aggregate's
// size and alignment, every member's byte offset (and bit offset for
// bitfields) and the padding holes a compiler inserts, then renders a
// pahole-style report. The same layout can be viewed through several
// toolchains: profiles differ only in scalar tables, spellings and which
// holes they surface, never in the layout algorithm.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	structlayout/        Root package: Analyze one unit, AnalyzeAll in parallel
//	├── abi/             Scalar kinds, ABI profiles, hole classes, YAML profiles
//	├── typegraph/       Aggregates, fields, type references, graph builder
//	├── resolver/        Memoized size/align/offset/hole computation
//	├── report/          Text report with column alignment and HOLE lines
//	├── cdecl/           C/C++ declaration front end
//	├── witgraph/        WIT front end (records, variants, lists as C structs)
//	├── fixture/         Conformance corpus loading and golden comparison
//	└── errors/          Structured errors with phase, kind and path
//
// # Quick Start
//
//	res, err := structlayout.Analyze(structlayout.Unit{
//	    Name:    "point.h",
//	    Source:  "struct point { char tag; int x, y; }; void f(struct point);",
//	    Profile: abi.Explicit,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Print(res.Report())
//
// Aggregates are reported when an entry point (a function declaration)
// takes them by value, together with every named aggregate they contain.
//
// # Profiles
//
// Three profiles are built in:
//
//   - reference: LP64 as described by gcc; scalar alignment gaps and tail
//     padding stay implicit, nested aggregates are listed first.
//   - explicit:  LP64 as described by clang; every gap is reported and
//     aggregates are listed in first-reference order.
//   - wasm32:    ILP32 WebAssembly, reported like explicit.
//
// Further profiles are loaded from YAML with abi.LoadFile.
//
// # Errors
//
// Failures are *errors.Error values carrying a phase (parse, build,
// resolve, ...), a kind (unresolved_type, unsupported_construct,
// profile_mismatch, ...) and the aggregate and field involved. One
// aggregate failing does not stop the others from being reported.
package structlayout
