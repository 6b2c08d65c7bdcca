// This file lowers statement-shaped AST forms (§4.F.2, §4.F.3). The flat
// AST contract (§6.1) fixes node tags and payload meaning but not an exact
// child layout per tag — that choice belongs to whatever produces the
// tree. The conventions used here (documented per function) are this
// core's own, consistent choice.
package irbuilder

import (
	"github.com/wudi/phiri/ast"
	"github.com/wudi/phiri/ir"
	"github.com/wudi/phiri/symtab"
	"github.com/wudi/phiri/types"
)

// LowerStmt lowers one statement node. It is a no-op once the current
// block is already terminated (dead code after return/throw).
func (b *Builder) LowerStmt(idx ast.NodeIndex) {
	if idx == ast.NoNode || b.Terminated() {
		return
	}
	node := b.tree.Node(idx)

	switch node.Tag {
	case ast.TagBlock:
		b.lowerBlockStmt(node)
	case ast.TagExprStmt:
		if len(node.Children) > 0 {
			b.LowerExpr(node.Children[0])
		}
	case ast.TagIf:
		b.lowerIf(node)
	case ast.TagWhile:
		b.lowerWhile(node)
	case ast.TagFor:
		b.lowerFor(node)
	case ast.TagForeach:
		b.lowerForeach(node)
	case ast.TagSwitch:
		b.lowerSwitch(node)
	case ast.TagReturn:
		b.lowerReturn(node)
	case ast.TagThrow:
		b.lowerThrow(node)
	case ast.TagTry:
		b.lowerTry(node)
	default:
		// Any expression-shaped tag reaching here is a bare expression
		// statement the flattener didn't wrap in expr_stmt.
		b.LowerExpr(idx)
	}
}

// lowerBlockStmt: children are a statement sequence, run in a fresh
// lexical scope.
func (b *Builder) lowerBlockStmt(node *ast.Node) {
	b.enterScope(symtab.ScopeBlock, "")
	for _, stmtIdx := range node.Children {
		b.LowerStmt(stmtIdx)
		if b.Terminated() {
			break
		}
	}
	b.leaveScope()
}

// lowerReturn: children = [exprOrNoNode].
func (b *Builder) lowerReturn(node *ast.Node) {
	if len(node.Children) == 0 || node.Children[0] == ast.NoNode {
		b.setTerm(&ir.Terminator{Kind: ir.TermRet, Location: node.Loc})
		return
	}
	if b.isNeverTyped(node.Children[0]) {
		b.reportNeverTypedUse(node.Loc)
	}
	val := b.LowerExpr(node.Children[0])
	b.setTerm(&ir.Terminator{Kind: ir.TermRet, Location: node.Loc, Value: &val})
}

func (b *Builder) isNeverTyped(idx ast.NodeIndex) bool {
	t, _ := b.inferType(idx)
	c, ok := t.ConcreteValue()
	return ok && c == types.TNever
}

// lowerThrow: children = [expr].
func (b *Builder) lowerThrow(node *ast.Node) {
	if len(node.Children) == 0 {
		b.setTerm(&ir.Terminator{Kind: ir.TermUnreachable, Location: node.Loc})
		return
	}
	val := b.LowerExpr(node.Children[0])
	b.setTerm(&ir.Terminator{Kind: ir.TermThrow, Location: node.Loc, Value: &val})
}
