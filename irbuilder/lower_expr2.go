package irbuilder

import (
	"github.com/wudi/phiri/ast"
	"github.com/wudi/phiri/infer"
	"github.com/wudi/phiri/ir"
)

var binaryOpTable = map[string]ir.Op{
	"+": ir.OpAdd, "-": ir.OpSub, "*": ir.OpMul, "/": ir.OpDiv, "%": ir.OpMod, "**": ir.OpPow,
	"&": ir.OpBitAnd, "|": ir.OpBitOr, "^": ir.OpBitXor, "<<": ir.OpShl, ">>": ir.OpShr,
	"==": ir.OpEq, "!=": ir.OpNe, "<": ir.OpLt, "<=": ir.OpLe, ">": ir.OpGt, ">=": ir.OpGe,
	"===": ir.OpIdentical, "!==": ir.OpNotIdentical, "<=>": ir.OpSpaceship,
	"&&": ir.OpAnd, "and": ir.OpAnd, "||": ir.OpOr, "or": ir.OpOr, "xor": ir.OpBitXor,
	".": ir.OpConcat,
}

func resultTypeForBinaryOp(op string, opIR ir.Op, lhsType, rhsType ir.Type) ir.Type {
	if op == "xor" { // logical xor shares OpBitXor but yields bool
		return ir.Bool()
	}
	switch opIR {
	case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe, ir.OpIdentical, ir.OpNotIdentical, ir.OpAnd, ir.OpOr:
		return ir.Bool()
	case ir.OpSpaceship:
		return ir.I64()
	case ir.OpConcat:
		return ir.PHPString()
	case ir.OpBitAnd, ir.OpBitOr, ir.OpBitXor, ir.OpShl, ir.OpShr:
		return ir.I64()
	default:
		if lhsType.Equal(ir.F64()) || rhsType.Equal(ir.F64()) {
			return ir.F64()
		}
		if lhsType.Equal(ir.I64()) && rhsType.Equal(ir.I64()) {
			return ir.I64()
		}
		return ir.PHPValue()
	}
}

// lowerBinary implements §4.F.2's binary rule: try the fold first, then
// fall back to recursively lowering operands and emitting the op.
func (b *Builder) lowerBinary(idx ast.NodeIndex, node *ast.Node) ir.Register {
	if v, ok := b.tryFoldBinary(node); ok {
		return b.emitConst(v, node.Loc)
	}

	op := b.tree.Strings.Get(node.Str)
	if op == "??" {
		return b.lowerNullCoalesce(node)
	}
	b.warnIfLiteralZeroDivisor(op, node)

	lhs := b.LowerExpr(node.Children[0])
	rhs := b.LowerExpr(node.Children[1])
	opIR, ok := binaryOpTable[op]
	if !ok {
		_, irType := b.inferType(idx)
		return b.emitConstNullTyped(irType, node.Loc)
	}
	instr := &ir.Instruction{Op: opIR, Location: node.Loc, Args: []ir.Register{lhs, rhs}}
	b.newResult(instr, resultTypeForBinaryOp(op, opIR, lhs.Type, rhs.Type))
	return b.emit(instr)
}

// warnIfLiteralZeroDivisor implements the §4.F.6 "div/mod by literal zero"
// warning for the case where folding itself declined (because the rhs is a
// literal 0) but the operator is / or %.
func (b *Builder) warnIfLiteralZeroDivisor(op string, node *ast.Node) {
	if op != "/" && op != "%" {
		return
	}
	rhs := b.tree.Node(node.Children[1])
	if rhs.Tag == ast.TagLiteralInt && rhs.Int == 0 {
		opName := "division"
		if op == "%" {
			opName = "modulo"
		}
		b.reportDivModByLiteralZero(opName, node.Loc)
	}
}

var unaryOpTable = map[string]ir.Op{
	"-": ir.OpNeg, "!": ir.OpNot, "not": ir.OpNot, "~": ir.OpBitNot,
}

func (b *Builder) lowerUnary(idx ast.NodeIndex, node *ast.Node) ir.Register {
	if v, ok := b.tryFoldUnary(node); ok {
		return b.emitConst(v, node.Loc)
	}
	op := b.tree.Strings.Get(node.Str)
	if op == "+" {
		return b.LowerExpr(node.Children[0])
	}
	operand := b.LowerExpr(node.Children[0])
	opIR, ok := unaryOpTable[op]
	if !ok {
		_, irType := b.inferType(idx)
		return b.emitConstNullTyped(irType, node.Loc)
	}
	resultType := operand.Type
	switch opIR {
	case ir.OpNot:
		resultType = ir.Bool()
	case ir.OpBitNot:
		resultType = ir.I64()
	}
	instr := &ir.Instruction{Op: opIR, Location: node.Loc, Args: []ir.Register{operand}}
	b.newResult(instr, resultType)
	return b.emit(instr)
}

// lowerTernary and lowerNullCoalesce both materialize a two-arm value via
// a diamond of blocks and a phi, since the IR has no value-level select
// for arbitrary (possibly effectful) arms. A short ternary (`?:`) reuses
// the condition's own register as the then-arm per the common-case
// optimization of not re-evaluating the condition.
func (b *Builder) lowerTernary(node *ast.Node) ir.Register {
	condIdx := node.Children[0]
	elseIdx := node.Children[len(node.Children)-1]
	thenIdx := condIdx
	if len(node.Children) >= 3 && node.Children[1] != ast.NoNode {
		thenIdx = node.Children[1]
	}

	cond := b.LowerExpr(condIdx)
	thenBB := b.NewBlock("ternary.then")
	elseBB := b.NewBlock("ternary.else")
	mergeBB := b.NewBlock("ternary.merge")

	condBool := b.coerceToBool(cond, node.Loc)
	entry := b.setTerm(&ir.Terminator{Kind: ir.TermCondBr, Location: node.Loc, Cond: condBool, Then: thenBB, Else: elseBB})
	b.fn.LinkEdge(entry, thenBB)
	b.fn.LinkEdge(entry, elseBB)

	b.Position(thenBB)
	var thenVal ir.Register
	if thenIdx == condIdx {
		thenVal = cond // short `?:`: the condition's value is the result
	} else {
		thenVal = b.LowerExpr(thenIdx)
	}
	if !b.Terminated() {
		b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: mergeBB})
		b.fn.LinkEdge(thenBB, mergeBB)
	}
	thenExit := b.Current()

	b.Position(elseBB)
	elseVal := b.LowerExpr(elseIdx)
	if !b.Terminated() {
		b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: mergeBB})
		b.fn.LinkEdge(elseBB, mergeBB)
	}
	elseExit := b.Current()

	b.Position(mergeBB)
	phiType := thenVal.Type
	if !phiType.Equal(elseVal.Type) {
		phiType = ir.PHPValue()
	}
	phi := &ir.Instruction{
		Op:       ir.OpPhi,
		Location: node.Loc,
		Incoming: []ir.PhiIncoming{{Value: thenVal, Block: thenExit}, {Value: elseVal, Block: elseExit}},
	}
	b.newResult(phi, phiType)
	b.fn.EmitPhi(mergeBB, phi)
	return *phi.Result
}

func (b *Builder) lowerNullCoalesce(node *ast.Node) ir.Register {
	lhsIdx := node.Children[0]
	rhsIdx := node.Children[1]

	lhs := b.LowerExpr(lhsIdx)
	nullReg := b.emitConst(nullConst(), node.Loc)
	isNull := &ir.Instruction{Op: ir.OpEq, Location: node.Loc, Args: []ir.Register{lhs, nullReg}}
	b.newResult(isNull, ir.Bool())
	isNullReg := b.emit(isNull)

	useRHS := b.NewBlock("coalesce.rhs")
	useLHS := b.NewBlock("coalesce.lhs")
	mergeBB := b.NewBlock("coalesce.merge")

	entry := b.setTerm(&ir.Terminator{Kind: ir.TermCondBr, Location: node.Loc, Cond: isNullReg, Then: useRHS, Else: useLHS})
	b.fn.LinkEdge(entry, useRHS)
	b.fn.LinkEdge(entry, useLHS)

	b.Position(useRHS)
	rhs := b.LowerExpr(rhsIdx)
	if !b.Terminated() {
		b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: mergeBB})
		b.fn.LinkEdge(useRHS, mergeBB)
	}
	rhsExit := b.Current()

	b.Position(useLHS)
	if !b.Terminated() {
		b.setTerm(&ir.Terminator{Kind: ir.TermBr, Location: node.Loc, Target: mergeBB})
		b.fn.LinkEdge(useLHS, mergeBB)
	}
	lhsExit := b.Current()

	b.Position(mergeBB)
	phiType := lhs.Type
	if !phiType.Equal(rhs.Type) {
		phiType = ir.PHPValue()
	}
	phi := &ir.Instruction{
		Op:       ir.OpPhi,
		Location: node.Loc,
		Incoming: []ir.PhiIncoming{{Value: rhs, Block: rhsExit}, {Value: lhs, Block: lhsExit}},
	}
	b.newResult(phi, phiType)
	b.fn.EmitPhi(mergeBB, phi)
	return *phi.Result
}

// coerceToBool emits a cast to bool when reg isn't already bool-typed, so
// cond_br always receives a bool operand. For
// this core's purposes, a non-bool condition is assumed already reduced by
// upstream lowering (comparisons/logical ops yield bool); this is a last
// line of defense via a cast rather than new control flow.
func (b *Builder) coerceToBool(reg ir.Register, loc ast.SourceLocation) ir.Register {
	if reg.Type.Equal(ir.Bool()) {
		return reg
	}
	instr := &ir.Instruction{Op: ir.OpCast, Location: loc, Args: []ir.Register{reg}, FromType: reg.Type, ToType: ir.Bool()}
	b.newResult(instr, ir.Bool())
	return b.emit(instr)
}

func (b *Builder) lowerCall(node *ast.Node) ir.Register {
	if len(node.Children) == 0 {
		return b.emitConst(nullConst(), node.Loc)
	}
	callee := b.tree.Node(node.Children[0])
	name := "<dynamic>"
	if callee.Tag == ast.TagIdentifier {
		name = b.tree.Strings.Get(callee.Str)
	}

	args := make([]ir.Register, 0, len(node.Children)-1)
	for _, argIdx := range node.Children[1:] {
		args = append(args, b.LowerExpr(argIdx))
	}

	retIR := b.callReturnType(name)

	instr := &ir.Instruction{Op: ir.OpCall, Location: node.Loc, Name: name, CallArgs: args}
	if retIR.Equal(ir.Void()) {
		b.emit(instr)
		return ir.Register{}
	}
	b.newResult(instr, retIR)
	return b.emit(instr)
}

func (b *Builder) callReturnType(name string) ir.Type {
	if t, ok := infer.LookupBuiltin(name); ok {
		return t.ToIRType()
	}
	if sym, ok := b.symbols.LookupFunction(name); ok {
		return sym.InferredType.ToIRType()
	}
	return ir.PHPValue()
}

// lowerArrayInit implements §4.F.2: array_new{capacity}, then array_push
// per element (array_set is reserved for explicit key => value pairs,
// which this core's flat element-list form does not distinguish from
// push-style elements; both lower through array.push here).
func (b *Builder) lowerArrayInit(node *ast.Node) ir.Register {
	newInstr := &ir.Instruction{Op: ir.OpArrayNew, Location: node.Loc, IntImm: int64(len(node.Children))}
	b.newResult(newInstr, ir.PHPArray())
	arr := b.emit(newInstr)

	for _, elemIdx := range node.Children {
		val := b.LowerExpr(elemIdx)
		push := &ir.Instruction{Op: ir.OpArrayPush, Location: node.Loc, Args: []ir.Register{arr, val}}
		b.emit(push)
	}
	return arr
}

// lowerInterpolate implements §4.F.2: lower each part, then a single
// interpolate{parts}.
func (b *Builder) lowerInterpolate(node *ast.Node) ir.Register {
	parts := make([]ir.Register, 0, len(node.Children))
	for _, partIdx := range node.Children {
		parts = append(parts, b.LowerExpr(partIdx))
	}
	instr := &ir.Instruction{Op: ir.OpInterpolate, Location: node.Loc, Parts: parts}
	b.newResult(instr, ir.PHPString())
	return b.emit(instr)
}
