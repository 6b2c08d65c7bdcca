package irbuilder

import (
	"github.com/wudi/phiri/ast"
	"github.com/wudi/phiri/ir"
	"github.com/wudi/phiri/symtab"
)

// lowerIf implements §4.F.3's if skeleton. Convention: children =
// [cond, thenBlock, elseBlockOrNoNode]. The merge block is only
// materialized if at least one arm falls through (§8 scenario S3: an
// if/else whose arms both terminate has exactly three blocks, no merge).
func (b *Builder) lowerIf(node *ast.Node) {
	cond := node.Children[0]
	thenIdx := node.Children[1]
	var elseIdx ast.NodeIndex = ast.NoNode
	if len(node.Children) > 2 {
		elseIdx = node.Children[2]
	}
	hasElse := elseIdx != ast.NoNode

	condReg := b.coerceToBool(b.LowerExpr(cond), node.Loc)
	thenBB := b.NewBlock("then")
	var elseBB ir.BlockID
	if hasElse {
		elseBB = b.NewBlock("else")
	}

	mergeBB := ir.NoBlock
	mergeTarget := func() ir.BlockID {
		if mergeBB == ir.NoBlock {
			mergeBB = b.NewBlock("merge")
		}
		return mergeBB
	}

	elseTarget := elseBB
	if !hasElse {
		elseTarget = mergeTarget()
	}

	entry := b.setTerm(&ir.Terminator{Kind: ir.TermCondBr, Location: node.Loc, Cond: condReg, Then: thenBB, Else: elseTarget})
	b.fn.LinkEdge(entry, thenBB)
	b.fn.LinkEdge(entry, elseTarget)

	base := b.snapshotScopes()
	var paths []branchPath

	b.Position(thenBB)
	b.LowerStmt(thenIdx)
	if !b.Terminated() {
		target := mergeTarget()
		thenExit := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: target})
		b.fn.LinkEdge(thenExit, target)
		paths = append(paths, branchPath{exit: thenExit, vars: b.outerVars()})
	}
	b.restoreScopes(base)

	if hasElse {
		b.Position(elseBB)
		b.LowerStmt(elseIdx)
		if !b.Terminated() {
			target := mergeTarget()
			elseExit := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: target})
			b.fn.LinkEdge(elseExit, target)
			paths = append(paths, branchPath{exit: elseExit, vars: b.outerVars()})
		}
	} else if mergeBB != ir.NoBlock {
		// The implicit false branch runs no statements, so it carries the
		// pre-if registers straight from entry into the merge block.
		paths = append(paths, branchPath{exit: entry, vars: b.outerVars()})
	}

	if mergeBB != ir.NoBlock {
		b.Position(mergeBB)
		b.mergeVars(node.Loc, mergeBB, paths)
	} else if hasElse {
		b.Position(elseBB) // both arms terminated; rest of function is dead
	} else {
		b.Position(thenBB)
	}
}

// lowerWhile implements §4.F.3. Convention: children = [cond, body].
func (b *Builder) lowerWhile(node *ast.Node) {
	cond := node.Children[0]
	body := node.Children[1]

	headerBB := b.NewBlock("while.header")
	bodyBB := b.NewBlock("while.body")
	exitBB := b.NewBlock("while.exit")

	preheader := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: headerBB})
	b.fn.LinkEdge(preheader, headerBB)

	b.Position(headerBB)
	base := b.outerVars()
	assigned := make(map[string]bool)
	b.assignedVarNames(cond, assigned)
	b.assignedVarNames(body, assigned)
	phis := b.seedLoopPhis(node.Loc, headerBB, preheader, base, assigned)

	condReg := b.coerceToBool(b.LowerExpr(cond), node.Loc)
	header := b.setTerm(&ir.Terminator{Kind: ir.TermCondBr, Location: node.Loc, Cond: condReg, Then: bodyBB, Else: exitBB})
	b.fn.LinkEdge(header, bodyBB)
	b.fn.LinkEdge(header, exitBB)

	b.Position(bodyBB)
	b.LowerStmt(body)
	if !b.Terminated() {
		latch := b.Current()
		b.closeLoopPhis(phis, latch)
		bodyExit := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: headerBB})
		b.fn.LinkEdge(bodyExit, headerBB)
	}

	b.Position(exitBB)
}

// lowerFor implements §4.F.3. Convention: children =
// [initOrNoNode, condOrNoNode, stepOrNoNode, body].
func (b *Builder) lowerFor(node *ast.Node) {
	initIdx, condIdx, stepIdx, body := node.Children[0], node.Children[1], node.Children[2], node.Children[3]

	if initIdx != ast.NoNode {
		b.LowerStmt(initIdx)
	}

	headerBB := b.NewBlock("for.header")
	bodyBB := b.NewBlock("for.body")
	exitBB := b.NewBlock("for.exit")

	preheader := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: headerBB})
	b.fn.LinkEdge(preheader, headerBB)

	b.Position(headerBB)
	base := b.outerVars()
	assigned := make(map[string]bool)
	b.assignedVarNames(condIdx, assigned)
	b.assignedVarNames(stepIdx, assigned)
	b.assignedVarNames(body, assigned)
	phis := b.seedLoopPhis(node.Loc, headerBB, preheader, base, assigned)

	if condIdx != ast.NoNode {
		condReg := b.coerceToBool(b.LowerExpr(condIdx), node.Loc)
		header := b.setTerm(&ir.Terminator{Kind: ir.TermCondBr, Location: node.Loc, Cond: condReg, Then: bodyBB, Else: exitBB})
		b.fn.LinkEdge(header, bodyBB)
		b.fn.LinkEdge(header, exitBB)
	} else {
		header := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: bodyBB})
		b.fn.LinkEdge(header, bodyBB)
	}

	b.Position(bodyBB)
	b.LowerStmt(body)
	if stepIdx != ast.NoNode && !b.Terminated() {
		b.LowerExpr(stepIdx)
	}
	if !b.Terminated() {
		latch := b.Current()
		b.closeLoopPhis(phis, latch)
		bodyExit := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: headerBB})
		b.fn.LinkEdge(bodyExit, headerBB)
	}

	b.Position(exitBB)
}

// lowerForeach implements §4.F.3's "opaque iter_new/iter_next call"
// pattern (SPEC_FULL's php_iter_* extension of §6.3). Convention:
// children = [iterable, keyOrNoNode, value, body].
func (b *Builder) lowerForeach(node *ast.Node) {
	iterableIdx, keyIdx, valueIdx, body := node.Children[0], node.Children[1], node.Children[2], node.Children[3]

	iterable := b.LowerExpr(iterableIdx)
	iterCall := &ir.Instruction{Op: ir.OpCall, Location: node.Loc, Name: "php_iter_new", CallArgs: []ir.Register{iterable}}
	b.newResult(iterCall, ir.PHPValue())
	iter := b.emit(iterCall)

	headerBB := b.NewBlock("foreach.header")
	bodyBB := b.NewBlock("foreach.body")
	exitBB := b.NewBlock("foreach.exit")

	entry := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: headerBB})
	b.fn.LinkEdge(entry, headerBB)

	b.Position(headerBB)
	validCall := &ir.Instruction{Op: ir.OpCall, Location: node.Loc, Name: "php_iter_valid", CallArgs: []ir.Register{iter}}
	b.newResult(validCall, ir.Bool())
	validReg := b.emit(validCall)
	header := b.setTerm(&ir.Terminator{Kind: ir.TermCondBr, Location: node.Loc, Cond: validReg, Then: bodyBB, Else: exitBB})
	b.fn.LinkEdge(header, bodyBB)
	b.fn.LinkEdge(header, exitBB)

	b.Position(bodyBB)
	b.enterScope(symtab.ScopeLoop, "")
	if keyIdx != ast.NoNode && b.tree.Node(keyIdx).Tag == ast.TagVariable {
		keyCall := &ir.Instruction{Op: ir.OpCall, Location: node.Loc, Name: "php_iter_key", CallArgs: []ir.Register{iter}}
		b.newResult(keyCall, ir.PHPValue())
		keyReg := b.emit(keyCall)
		b.defineVar(b.tree.Strings.Get(b.tree.Node(keyIdx).Str), keyReg)
	}
	if b.tree.Node(valueIdx).Tag == ast.TagVariable {
		curCall := &ir.Instruction{Op: ir.OpCall, Location: node.Loc, Name: "php_iter_current", CallArgs: []ir.Register{iter}}
		b.newResult(curCall, ir.PHPValue())
		curReg := b.emit(curCall)
		b.defineVar(b.tree.Strings.Get(b.tree.Node(valueIdx).Str), curReg)
	}

	b.LowerStmt(body)
	b.leaveScope()

	if !b.Terminated() {
		nextCall := &ir.Instruction{Op: ir.OpCall, Location: node.Loc, Name: "php_iter_next", CallArgs: []ir.Register{iter}}
		b.emit(nextCall)
		bodyExit := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: headerBB})
		b.fn.LinkEdge(bodyExit, headerBB)
	}

	b.Position(exitBB)
}

// lowerSwitch implements §4.F.3: a switch terminator when every case label
// is an integer literal, else a chain of cond_br. Convention: children =
// [subject, case1, case2, ...]; each case is a switch_case node whose
// first child is its label (NoNode for default) and remaining children
// are its body statements.
func (b *Builder) lowerSwitch(node *ast.Node) {
	subjectIdx := node.Children[0]
	cases := node.Children[1:]

	if allIntLiteralLabels(b.tree, cases) {
		b.lowerSwitchAsTerminator(node, subjectIdx, cases)
		return
	}
	b.lowerSwitchAsCondBrChain(node, subjectIdx, cases)
}

func allIntLiteralLabels(tree *ast.AST, cases []ast.NodeIndex) bool {
	for _, caseIdx := range cases {
		c := tree.Node(caseIdx)
		if len(c.Children) == 0 {
			continue
		}
		label := c.Children[0]
		if label == ast.NoNode {
			continue // default is fine either way
		}
		if tree.Node(label).Tag != ast.TagLiteralInt {
			return false
		}
	}
	return true
}

func (b *Builder) lowerSwitchAsTerminator(node *ast.Node, subjectIdx ast.NodeIndex, cases []ast.NodeIndex) {
	subject := b.LowerExpr(subjectIdx)
	exitBB := b.NewBlock("switch.exit")

	var swCases []ir.SwitchCase
	defaultBB := exitBB
	caseBlocks := make([]ir.BlockID, len(cases))
	for i := range cases {
		caseBlocks[i] = b.NewBlock("switch.case")
	}

	for i, caseIdx := range cases {
		c := b.tree.Node(caseIdx)
		label := c.Children[0]
		if label == ast.NoNode {
			defaultBB = caseBlocks[i]
			continue
		}
		swCases = append(swCases, ir.SwitchCase{Value: b.tree.Node(label).Int, Block: caseBlocks[i]})
	}

	entry := b.setTerm(&ir.Terminator{Kind: ir.TermSwitch, Location: node.Loc, Cond: subject, Cases: swCases, Default: defaultBB})
	for _, cb := range caseBlocks {
		b.fn.LinkEdge(entry, cb)
	}
	if defaultBB == exitBB {
		b.fn.LinkEdge(entry, exitBB)
	}

	for i, caseIdx := range cases {
		c := b.tree.Node(caseIdx)
		b.Position(caseBlocks[i])
		for _, stmtIdx := range c.Children[1:] {
			b.LowerStmt(stmtIdx)
			if b.Terminated() {
				break
			}
		}
		if !b.Terminated() {
			var fallTo ir.BlockID
			if i+1 < len(caseBlocks) {
				fallTo = caseBlocks[i+1]
			} else {
				fallTo = exitBB
			}
			caseExit := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: fallTo})
			b.fn.LinkEdge(caseExit, fallTo)
		}
	}

	b.Position(exitBB)
}

func (b *Builder) lowerSwitchAsCondBrChain(node *ast.Node, subjectIdx ast.NodeIndex, cases []ast.NodeIndex) {
	subject := b.LowerExpr(subjectIdx)
	exitBB := b.NewBlock("switch.exit")

	for _, caseIdx := range cases {
		c := b.tree.Node(caseIdx)
		label := c.Children[0]
		bodyBB := b.NewBlock("switch.case")

		if label == ast.NoNode {
			entry := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: bodyBB})
			b.fn.LinkEdge(entry, bodyBB)
		} else {
			labelVal := b.LowerExpr(label)
			eqInstr := &ir.Instruction{Op: ir.OpEq, Location: node.Loc, Args: []ir.Register{subject, labelVal}}
			b.newResult(eqInstr, ir.Bool())
			eqReg := b.emit(eqInstr)
			nextBB := b.NewBlock("switch.next")
			entry := b.setTerm(&ir.Terminator{Kind: ir.TermCondBr, Location: node.Loc, Cond: eqReg, Then: bodyBB, Else: nextBB})
			b.fn.LinkEdge(entry, bodyBB)
			b.fn.LinkEdge(entry, nextBB)
			b.Position(nextBB)
		}

		savedBlock := b.Current()
		b.Position(bodyBB)
		for _, stmtIdx := range c.Children[1:] {
			b.LowerStmt(stmtIdx)
			if b.Terminated() {
				break
			}
		}
		if !b.Terminated() {
			caseExit := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: exitBB})
			b.fn.LinkEdge(caseExit, exitBB)
		}
		b.Position(savedBlock)
	}

	if !b.Terminated() {
		entry := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: exitBB})
		b.fn.LinkEdge(entry, exitBB)
	}
	b.Position(exitBB)
}

// lowerTry implements §4.F.2's try/catch pattern: try_begin, the protected
// body, try_end, then one block per handler reached via the exception edge
// out of the protected region, with the finally body cloned onto every
// normal exit path. Convention: children = [body, catch1, ..., catchN],
// with a trailing finally block appended iff node.Bool is set.
func (b *Builder) lowerTry(node *ast.Node) {
	bodyIdx := node.Children[0]
	rest := node.Children[1:]
	var finallyIdx ast.NodeIndex = ast.NoNode
	if node.Bool && len(rest) > 0 {
		finallyIdx = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
	}
	catches := rest

	b.emit(&ir.Instruction{Op: ir.OpTryBegin, Location: node.Loc})
	protected := b.Current()

	catchBlocks := make([]ir.BlockID, len(catches))
	for i := range catches {
		catchBlocks[i] = b.NewBlock("catch")
	}

	mergeBB := ir.NoBlock
	mergeTarget := func() ir.BlockID {
		if mergeBB == ir.NoBlock {
			mergeBB = b.NewBlock("try.merge")
		}
		return mergeBB
	}

	base := b.snapshotScopes()
	var paths []branchPath

	b.LowerStmt(bodyIdx)
	if !b.Terminated() {
		b.emit(&ir.Instruction{Op: ir.OpTryEnd, Location: node.Loc})
		if finallyIdx != ast.NoNode {
			b.LowerStmt(finallyIdx)
		}
	}
	if !b.Terminated() {
		target := mergeTarget()
		exit := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: target})
		b.fn.LinkEdge(exit, target)
		paths = append(paths, branchPath{exit: exit, vars: b.outerVars()})
	}

	for i, catchIdx := range catches {
		b.restoreScopes(base)
		base = b.snapshotScopes() // keep a pristine copy for the next arm

		c := b.tree.Node(catchIdx)
		bb := catchBlocks[i]
		b.fn.LinkEdge(protected, bb) // the exception edge
		b.Position(bb)
		catchInstr := &ir.Instruction{Op: ir.OpCatch, Location: c.Loc}
		if c.Bool { // Bool flags an explicit exception-type name on Str
			catchInstr.Name = b.tree.Strings.Get(c.Str)
		}
		b.emit(catchInstr)
		if len(c.Children) > 0 {
			b.LowerStmt(c.Children[0])
		}
		if !b.Terminated() && finallyIdx != ast.NoNode {
			b.LowerStmt(finallyIdx)
		}
		if !b.Terminated() {
			target := mergeTarget()
			exit := b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: target})
			b.fn.LinkEdge(exit, target)
			paths = append(paths, branchPath{exit: exit, vars: b.outerVars()})
		}
	}

	if mergeBB != ir.NoBlock {
		b.Position(mergeBB)
		b.mergeVars(node.Loc, mergeBB, paths)
	}
	// Every path terminated: the cursor stays wherever the last arm ended,
	// already terminated, so following statements are dead and skipped.
}
