package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse   Phase = "parse"   // declaration source to type graph
	PhaseBuild   Phase = "build"   // type graph construction and validation
	PhaseResolve Phase = "resolve" // layout resolution
	PhaseRender  Phase = "render"  // report formatting
	PhaseProfile Phase = "profile" // ABI profile lookup and loading
	PhaseFixture Phase = "fixture" // fixture loading and comparison
)

// Kind categorizes the error
type Kind string

const (
	KindUnresolvedType       Kind = "unresolved_type"
	KindUnsupportedConstruct Kind = "unsupported_construct"
	KindProfileMismatch      Kind = "profile_mismatch"
	KindSyntax               Kind = "syntax"
	KindInvalidInput         Kind = "invalid_input"
	KindNotFound             Kind = "not_found"
	KindMismatch             Kind = "mismatch"
)

// Error is the structured error type used throughout the module
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
	Path   []string
	Line   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Aggregate returns the qualified name of the aggregate the error is about.
func (e *Error) Aggregate() string {
	if len(e.Path) == 0 {
		return ""
	}
	return e.Path[0]
}

// Field returns the offending field name, if any.
func (e *Error) Field() string {
	if len(e.Path) < 2 {
		return ""
	}
	return e.Path[len(e.Path)-1]
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the aggregate/field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the type name involved
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Line sets the source line
func (b *Builder) Line(line int) *Builder {
	b.err.Line = line
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

func fieldPath(aggregate, field string) []string {
	if field == "" {
		return []string{aggregate}
	}
	return []string{aggregate, field}
}

// UnresolvedType creates an error for a type reference the graph builder could not bind
func UnresolvedType(aggregate, field, typeName string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnresolvedType,
		Path:   fieldPath(aggregate, field),
		Type:   typeName,
		Detail: "type reference is not bound to a definition",
	}
}

// UnsupportedConstruct creates an error for input the resolver cannot lay out
func UnsupportedConstruct(aggregate, field, detail string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnsupportedConstruct,
		Path:   fieldPath(aggregate, field),
		Detail: detail,
	}
}

// ProfileMismatch creates an error for a scalar kind the selected profile does not define
func ProfileMismatch(aggregate, field, scalar, profile string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindProfileMismatch,
		Path:   fieldPath(aggregate, field),
		Type:   scalar,
		Detail: fmt.Sprintf("no entry in profile %q", profile),
	}
}

// Syntax creates a parse error at a source line
func Syntax(line int, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Line:   line,
		Detail: fmt.Sprintf(format, args...),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// WithPath returns a copy of e re-rooted under aggregate.
// A nested aggregate's failure surfaces at the field of the enclosing one that
// reaches it, keeping the original error as the cause.
func WithPath(e *Error, aggregate, field string) *Error {
	return &Error{
		Phase:  e.Phase,
		Kind:   e.Kind,
		Path:   fieldPath(aggregate, field),
		Type:   e.Type,
		Detail: "nested aggregate failed",
		Cause:  e,
	}
}
