// Package errors provides structured error types for the layout resolver.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending aggregate's qualified name and field name
// as its Path, the type involved and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindUnsupportedConstruct).
//		Path("ns::c", "flags").
//		Type("int").
//		Detail("bitfield width %d exceeds %d bits", 40, 32).
//		Build()
//
// Or use convenience constructors for the resolver's error kinds:
//
//	err := errors.UnresolvedType("outer", "inner", "struct missing")
//	err := errors.ProfileMismatch("outer", "x", "long double", "tiny")
//
// All errors implement the standard error interface and support errors.Is/As.
// Resolution is deterministic, so no error kind is retryable: every error is a
// structural defect of the input.
package errors
