package fastc

import "fmt"

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// FixHint is a mechanical, textual replacement a driver may offer to
// apply on behalf of the user. It never changes diagnostic semantics by
// itself; it is advisory.
type FixHint struct {
	Span        Span
	Replacement string
	Message     string
}

// Diagnostic is the record produced by stages 1-5 of the pipeline. Every
// diagnostic carries a stable code so tooling can key off it instead of
// the message text.
type Diagnostic struct {
	Code      string
	Severity  Severity
	Message   string
	Span      Span
	Secondary []Span
	Fix       *FixHint
}

// Error implements the error interface so a Diagnostic can be returned
// directly from internal helpers that only ever produce one.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s @ %s [%s]", d.Severity, d.Message, d.Span, d.Code)
}

// DiagnosticBag accumulates diagnostics across a compilation. Stages
// never stop at the first error; they record into the bag and keep
// going as far as spec.md's propagation policy allows.
type DiagnosticBag struct {
	items []Diagnostic
}

func (b *DiagnosticBag) Add(d Diagnostic) { b.items = append(b.items, d) }

func (b *DiagnosticBag) Errorf(code string, span Span, format string, args ...any) {
	b.Add(Diagnostic{Code: code, Severity: SeverityError, Message: fmt.Sprintf(format, args...), Span: span})
}

func (b *DiagnosticBag) Warnf(code string, span Span, format string, args ...any) {
	b.Add(Diagnostic{Code: code, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...), Span: span})
}

func (b *DiagnosticBag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Items returns diagnostics in the stable order they were recorded:
// source order within a stage, stage order across stages (per spec.md
// §5 "Ordering"), since every stage appends to the same bag in the
// order the pipeline runs them.
func (b *DiagnosticBag) Items() []Diagnostic { return b.items }

func (b *DiagnosticBag) merge(other *DiagnosticBag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

// internalError marks a compiler-invariant violation, distinct from a
// user-facing Diagnostic per spec.md §7.7. Stages raise it with panic
// and the pipeline driver (api.go) recovers it into a single
// "internal-error" diagnostic.
type internalError struct {
	msg string
}

func (e internalError) Error() string { return "internal invariant violation: " + e.msg }

func panicInternal(format string, args ...any) {
	panic(internalError{msg: fmt.Sprintf(format, args...)})
}
