// Package diagnostics implements the severity-tagged, source-located
// message sink described in spec §4.A. It is the direct descendant of the
// teacher's errors.ErrorReporter: same accumulate-then-render shape, same
// PrintFormatted-style caret rendering, generalized to three severities
// and an optional hint/sub-note per message.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/wudi/phiri/ast"
)

// Severity classifies a diagnostic. Only Error and Warning count toward
// HasErrors/HasWarnings; Note is informational only.
type Severity int

const (
	Note Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported message.
type Diagnostic struct {
	Severity Severity
	Location ast.SourceLocation
	Message  string
	Hint     string
	Notes    []string
}

// Engine accumulates diagnostics for a single compilation and renders them.
// It is append-only during a run (§5): callers only read it back after
// the run completes.
type Engine struct {
	diags      []Diagnostic
	errorCount int
	warnCount  int

	source      string
	sourceLines []string
	color       bool
}

// NewEngine creates an empty diagnostics sink.
func NewEngine() *Engine {
	return &Engine{}
}

// SetColor toggles ANSI color output in Render.
func (e *Engine) SetColor(on bool) {
	e.color = on
}

// AttachSource registers the full source text so Render can show the
// offending line and a caret under (column, length). Indexing happens
// once, at attach time.
func (e *Engine) AttachSource(source string) {
	e.source = source
	e.sourceLines = strings.Split(source, "\n")
}

// Report records a diagnostic tuple.
func (e *Engine) Report(sev Severity, loc ast.SourceLocation, format string, args ...interface{}) {
	e.ReportWithHint(sev, loc, "", format, args...)
}

// ReportWithHint records a diagnostic with an attached hint line.
func (e *Engine) ReportWithHint(sev Severity, loc ast.SourceLocation, hint, format string, args ...interface{}) {
	d := Diagnostic{
		Severity: sev,
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
		Hint:     hint,
	}
	e.diags = append(e.diags, d)
	switch sev {
	case Error:
		e.errorCount++
	case Warning:
		e.warnCount++
	}
}

// AddNote appends a sub-note to the most recently reported diagnostic.
// No-op if nothing has been reported yet.
func (e *Engine) AddNote(note string) {
	if len(e.diags) == 0 {
		return
	}
	last := &e.diags[len(e.diags)-1]
	last.Notes = append(last.Notes, note)
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (e *Engine) HasErrors() bool { return e.errorCount > 0 }

// HasWarnings reports whether any Warning-severity diagnostic was recorded.
func (e *Engine) HasWarnings() bool { return e.warnCount > 0 }

// ErrorCount returns the number of Error-severity diagnostics.
func (e *Engine) ErrorCount() int { return e.errorCount }

// WarningCount returns the number of Warning-severity diagnostics.
func (e *Engine) WarningCount() int { return e.warnCount }

// Diagnostics returns the recorded diagnostics in report order.
func (e *Engine) Diagnostics() []Diagnostic {
	return e.diags
}

// Clear frees message storage and resets counters.
func (e *Engine) Clear() {
	e.diags = nil
	e.errorCount = 0
	e.warnCount = 0
}

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

func (e *Engine) colorFor(sev Severity) string {
	if !e.color {
		return ""
	}
	switch sev {
	case Error:
		return ansiBold + ansiRed
	case Warning:
		return ansiBold + ansiYellow
	default:
		return ansiBold + ansiCyan
	}
}

// Render formats every recorded diagnostic as:
//
//	file:line:col: severity: message
//	  <source line>
//	  <caret/underline>
//	  hint: ...
//	  note: ...
//
// followed by a one-line "N error(s), M warning(s) generated." summary
// when either count is non-zero.
func (e *Engine) Render() string {
	var b strings.Builder
	for _, d := range e.diags {
		e.renderOne(&b, d)
	}
	if e.errorCount != 0 || e.warnCount != 0 {
		fmt.Fprintf(&b, "%d error(s), %d warning(s) generated.\n", e.errorCount, e.warnCount)
	}
	return b.String()
}

func (e *Engine) renderOne(b *strings.Builder, d Diagnostic) {
	reset := ""
	if e.color {
		reset = ansiReset
	}
	loc := "<unknown>"
	if d.Location.IsSet() {
		loc = fmt.Sprintf("%s:%d:%d", fileOrDash(d.Location.File), d.Location.Line, d.Location.Column)
	}
	fmt.Fprintf(b, "%s: %s%s%s: %s\n", loc, e.colorFor(d.Severity), d.Severity.String(), reset, d.Message)

	if e.source != "" && d.Location.IsSet() && d.Location.Line >= 1 && d.Location.Line <= len(e.sourceLines) {
		line := e.sourceLines[d.Location.Line-1]
		fmt.Fprintf(b, "  %s\n", line)
		b.WriteString("  ")
		col := d.Location.Column
		if col < 1 {
			col = 1
		}
		b.WriteString(strings.Repeat(" ", col-1))
		length := d.Location.Length
		if length < 1 {
			length = 1
		}
		b.WriteString(strings.Repeat("^", length))
		b.WriteString("\n")
	}

	if d.Hint != "" {
		fmt.Fprintf(b, "  hint: %s\n", d.Hint)
	}
	for _, n := range d.Notes {
		fmt.Fprintf(b, "  note: %s\n", n)
	}
}

func fileOrDash(f string) string {
	if f == "" {
		return "-"
	}
	return f
}
