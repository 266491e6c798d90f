package fastc

import (
	"fmt"
	"strings"

	"github.com/skelf-research/fastc/ascii"
)

// HighlightString renders a diagnostic the way a terminal driver would,
// coloring severity, span, and code distinctly. Plain String() (the
// Error() method) stays colorless so it is safe to embed in logs.
func (d Diagnostic) HighlightString() string {
	var sevColor string
	switch d.Severity {
	case SeverityError:
		sevColor = ascii.DefaultTheme.Error
	case SeverityWarning:
		sevColor = ascii.DefaultTheme.Warning
	default:
		sevColor = ascii.DefaultTheme.Info
	}

	var b strings.Builder
	b.WriteString(ascii.Color(sevColor, "%s", d.Severity))
	b.WriteString(": ")
	b.WriteString(d.Message)
	b.WriteString(" ")
	b.WriteString(ascii.Color(ascii.DefaultTheme.Span, "@ %s", d.Span))
	b.WriteString(" ")
	b.WriteString(ascii.Color(ascii.DefaultTheme.Muted, "[%s]", d.Code))
	if d.Fix != nil {
		b.WriteString("\n  ")
		b.WriteString(ascii.Color(ascii.DefaultTheme.Success, "fix: %s", d.Fix.Message))
	}
	return b.String()
}

// RenderBag formats every diagnostic in a bag, one per line, in the
// stable order spec.md §5 mandates.
func RenderBag(bag *DiagnosticBag, highlight bool) string {
	var b strings.Builder
	for i, d := range bag.Items() {
		if i > 0 {
			b.WriteString("\n")
		}
		if highlight {
			b.WriteString(d.HighlightString())
		} else {
			b.WriteString(fmt.Sprint(d))
		}
	}
	return b.String()
}
