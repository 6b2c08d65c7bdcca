package irbuilder

import (
	"strings"

	"github.com/wudi/phiri/ast"
	"github.com/wudi/phiri/diagnostics"
)

// reservedRuntimePrefix is the namespace reserved for the runtime-call ABI
// (§6.3: "no user code may define such a name").
const reservedRuntimePrefix = "php_"

func isReservedRuntimeName(name string) bool {
	return strings.HasPrefix(name, reservedRuntimePrefix)
}

// reportUndefinedVariable implements §4.F.6 "undefined variable on read".
func (b *Builder) reportUndefinedVariable(name string, loc ast.SourceLocation) {
	b.diags.Report(diagnostics.Error, loc, "undefined variable $"+name)
}

// reportAssignToNonLvalue implements §4.F.6 "assignment to a function/class
// name".
func (b *Builder) reportAssignToNonLvalue(name string, loc ast.SourceLocation) {
	b.diags.Report(diagnostics.Error, loc, "cannot assign to non-lvalue name "+name)
}

// reportReservedRuntimeName implements §6.3's "builder must diagnose
// attempts" to define a php_-prefixed name.
func (b *Builder) reportReservedRuntimeName(name string, loc ast.SourceLocation) {
	b.diags.Report(diagnostics.Error, loc, "user code may not define reserved runtime name "+name)
}

// reportNeverTypedUse implements §4.F.6 "use of a never-typed expression
// value".
func (b *Builder) reportNeverTypedUse(loc ast.SourceLocation) {
	b.diags.Report(diagnostics.Warning, loc, "value of type never is used")
}

// reportDivModByLiteralZero implements §4.F.6 / §4.F.5's overflow carve-out.
func (b *Builder) reportDivModByLiteralZero(op string, loc ast.SourceLocation) {
	b.diags.Report(diagnostics.Warning, loc, op+" by literal zero")
}
