// Package diag defines xiss's diagnostic values and the per-compilation
// handler that collects them, grounded on the teacher's
// internal/errors.ParseError shape (Line/Column/Token/Underlying, with
// Error()/Unwrap() per concrete type) but adapted to carry a source Span
// instead of a single line/column pair, and to the spec's closed list of
// diagnostic kinds (§6) rather than a handful of ad hoc error types.
package diag

import "fmt"

// Span locates a diagnostic in a source file.
type Span struct {
	File   string
	Line   int
	Column int
}

func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Kind is the closed set of diagnostic kinds from spec §6 plus the inline
// compiler diagnostics named in §4.7.
type Kind string

const (
	ExpectedWhitespace       Kind = "ExpectedWhitespace"
	ExpectedKeyword          Kind = "ExpectedKeyword"
	ExpectedIdentifier       Kind = "ExpectedIdentifier"
	ExpectedValidJSIdentifier Kind = "ExpectedValidJSIdentifier"
	ExpectedString           Kind = "ExpectedString"
	ExpectedSemicolon        Kind = "ExpectedSemicolon"
	ExpectedColon            Kind = "ExpectedColon"
	ExpectedPrelude          Kind = "ExpectedPrelude"
	ExpectedBlock            Kind = "ExpectedBlock"
	UnknownToken             Kind = "UnknownToken"
	UnknownAtRule            Kind = "UnknownAtRule"
	UnexpectedComponentValue Kind = "UnexpectedComponentValue"

	// Inline compiler diagnostics (§4.7).
	MissingConstValue   Kind = "MissingConstValue"
	InvalidConstArgument Kind = "InvalidConstArgument"
	InvalidClassmap     Kind = "InvalidClassmap"
	InvalidExtern       Kind = "InvalidExtern"
)

// Diagnostic carries a source span and a message. The renderer is external
// (spec §6) — xiss only produces the structured value.
type Diagnostic struct {
	Kind    Kind
	Span    Span
	Message string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Span, d.Message)
}

// New builds a Diagnostic with a formatted message.
func New(kind Kind, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Handler accumulates diagnostics for exactly one compilation (spec §5:
// "Diagnostics accumulate in a per-compilation handler that is likewise not
// shared"). Callers thread a *Handler explicitly through the compiler's call
// chain rather than relying on a package-scoped sink (spec §9's preference,
// against the reference implementation's thread-local handler).
type Handler struct {
	diagnostics []Diagnostic
}

// NewHandler returns an empty handler, scoped to the caller's compilation.
func NewHandler() *Handler {
	return &Handler{}
}

// Report records a diagnostic.
func (h *Handler) Report(d Diagnostic) {
	h.diagnostics = append(h.diagnostics, d)
}

// HasErrors reports whether any diagnostic has been reported.
func (h *Handler) HasErrors() bool {
	return len(h.diagnostics) > 0
}

// Diagnostics returns the diagnostics reported so far, in report order.
func (h *Handler) Diagnostics() []Diagnostic {
	return h.diagnostics
}
