package irbuilder

import (
	"github.com/wudi/phiri/ast"
	"github.com/wudi/phiri/diagnostics"
	"github.com/wudi/phiri/ir"
	"github.com/wudi/phiri/symtab"
)

// LowerFunctionDecl lowers a function_decl node. Convention: Str = name,
// Int = declared parameter count N, Children = [param0..paramN-1,
// returnTypeOrNoNode, body]. Each param node's Str is its name and its
// sole child (if any) is a named_type/union_type node for its declared
// type. The function is pre-registered in the global scope (§6.2) before
// its body is lowered, so self-recursive calls resolve.
func (b *Builder) LowerFunctionDecl(idx ast.NodeIndex) {
	node := b.tree.Node(idx)
	name := b.tree.Strings.Get(node.Str)
	paramCount := int(node.Int)

	if isReservedRuntimeName(name) {
		b.reportReservedRuntimeName(name, node.Loc)
	}

	paramNodes := node.Children[:paramCount]
	returnTypeIdx := node.Children[paramCount]
	bodyIdx := node.Children[paramCount+1]

	params := make([]ir.Param, 0, paramCount)
	symParams := make([]symtab.FunctionParam, 0, paramCount)
	for _, pIdx := range paramNodes {
		p := b.tree.Node(pIdx)
		pname := b.tree.Strings.Get(p.Str)
		var declType, irType = b.inferType(typeChildOf(p))
		params = append(params, ir.Param{Name: pname, Type: irType})
		symParams = append(symParams, symtab.FunctionParam{Name: pname, Type: declType})
	}

	retType, retIRType := b.inferType(returnTypeIdx)

	// Only define in the symbol table once: a second function_decl with an
	// already registered function name is reported as a duplicate and keeps
	// the first symbol rather than overwriting it.
	if _, already := b.symbols.LookupFunction(name); !already {
		b.symbols.DefineFunction(name, symParams, retType, node.Loc)
	} else {
		b.diags.Report(diagnostics.Error, node.Loc, "duplicate definition of function "+name)
	}

	b.BeginFunction(name, params, retIRType, node.Loc)
	b.LowerStmt(bodyIdx)
	if !b.Terminated() {
		if retIRType.IsVoid() {
			b.setTerm(&ir.Terminator{Kind: ir.TermRet, Location: node.Loc})
		} else {
			zero := b.emitConstNullTyped(retIRType, node.Loc)
			b.setTerm(&ir.Terminator{Kind: ir.TermRet, Location: node.Loc, Value: &zero})
		}
	}
	b.FinishFunction()
}

// typeChildOf returns a param node's declared-type child, or NoNode if it
// has none (an untyped/dynamic parameter).
func typeChildOf(param *ast.Node) ast.NodeIndex {
	if len(param.Children) == 0 {
		return ast.NoNode
	}
	return param.Children[0]
}

// CompileModule walks the root program node, pre-registering and lowering
// every top-level function_decl, then lowering any remaining top-level
// statements into an implicit entry-point function named "__main".
func (b *Builder) CompileModule(name, sourceFile string) *ir.Module {
	b.BeginModule(name, sourceFile)

	root := b.tree.Node(b.tree.Root)
	var topLevelStmts []ast.NodeIndex
	for _, childIdx := range root.Children {
		child := b.tree.Node(childIdx)
		if child.Tag == ast.TagFunctionDecl {
			b.LowerFunctionDecl(childIdx)
		} else {
			topLevelStmts = append(topLevelStmts, childIdx)
		}
	}

	if len(topLevelStmts) > 0 {
		b.BeginFunction("__main", nil, ir.Void(), root.Loc)
		for _, stmtIdx := range topLevelStmts {
			b.LowerStmt(stmtIdx)
			if b.Terminated() {
				break
			}
		}
		if !b.Terminated() {
			b.setTerm(&ir.Terminator{Kind: ir.TermRet, Location: root.Loc})
		}
		b.FinishFunction()
	}

	b.module.Freeze()
	return b.module
}
