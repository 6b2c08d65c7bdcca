package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wudi/phiri/ast"
)

func TestSeveritySeparability(t *testing.T) {
	e := NewEngine()
	e.Report(Error, ast.SourceLocation{Line: 1, Column: 1}, "bad thing")
	e.Report(Error, ast.SourceLocation{Line: 2, Column: 1}, "bad thing 2")
	e.Report(Warning, ast.SourceLocation{Line: 3, Column: 1}, "meh")
	e.Report(Note, ast.SourceLocation{Line: 4, Column: 1}, "fyi")

	require.Equal(t, 2, e.ErrorCount())
	require.Equal(t, 1, e.WarningCount())
	require.True(t, e.HasErrors())
	require.True(t, e.HasWarnings())
}

func TestClearResetsCounters(t *testing.T) {
	e := NewEngine()
	e.Report(Error, ast.NoLocation, "x")
	e.Clear()
	require.False(t, e.HasErrors())
	require.Equal(t, 0, e.ErrorCount())
	require.Empty(t, e.Diagnostics())
}

func TestRenderWithSourceAndCaret(t *testing.T) {
	e := NewEngine()
	e.AttachSource("line one\nlet x = 1\nline three")
	e.ReportWithHint(Error, ast.SourceLocation{Line: 2, Column: 5, Length: 1}, "did you mean 'let'?", "undefined variable %s", "x")

	out := e.Render()
	require.Contains(t, out, ":2:5: error: undefined variable x")
	require.Contains(t, out, "let x = 1")
	require.Contains(t, out, "hint: did you mean 'let'?")
	require.Contains(t, out, "1 error(s), 0 warning(s) generated.")
}

func TestRenderSummaryOmittedWhenClean(t *testing.T) {
	e := NewEngine()
	e.Report(Note, ast.NoLocation, "informational")
	out := e.Render()
	require.NotContains(t, out, "generated.")
}
