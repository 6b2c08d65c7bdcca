package irbuilder

import (
	"github.com/wudi/phiri/ast"
	"github.com/wudi/phiri/ir"
)

// LowerExpr lowers the expression at idx to a defining register, per the
// per-form rules of §4.F.2.
func (b *Builder) LowerExpr(idx ast.NodeIndex) ir.Register {
	node := b.tree.Node(idx)

	switch node.Tag {
	case ast.TagLiteralInt, ast.TagLiteralFloat, ast.TagLiteralString, ast.TagLiteralBool, ast.TagLiteralNull:
		v, _ := b.foldLiteral(node)
		return b.emitConst(v, node.Loc)

	case ast.TagVariable:
		return b.lowerVariableRead(node)

	case ast.TagAssign:
		return b.lowerAssign(node)

	case ast.TagBinaryExpr:
		return b.lowerBinary(idx, node)

	case ast.TagUnaryExpr:
		return b.lowerUnary(idx, node)

	case ast.TagPostfixIncDec:
		return b.lowerPostfixIncDec(node)

	case ast.TagTernary:
		return b.lowerTernary(node)

	case ast.TagFunctionCall:
		return b.lowerCall(node)

	case ast.TagArrayInit:
		return b.lowerArrayInit(node)

	case ast.TagInterpolate:
		return b.lowerInterpolate(node)

	case ast.TagMethodCall, ast.TagStaticMethodCall, ast.TagPropertyAccess, ast.TagArrayAccess,
		ast.TagObjectInstantiation, ast.TagCloneWith, ast.TagClosure, ast.TagArrowFunction, ast.TagYield:
		// Statically opaque forms (§4.D): materialized as a const_null
		// placeholder register typed with the inferencer's IR type
		// (php_object for instantiation/clone, php_callable for closures
		// and arrow functions, php_value for the dynamic forms). A full
		// object/closure model is outside this core's IR (§1 non-goals).
		_, irType := b.inferType(idx)
		return b.emitConstNullTyped(irType, node.Loc)

	default:
		_, irType := b.inferType(idx)
		return b.emitConstNullTyped(irType, node.Loc)
	}
}

// emitConst emits the single const_* instruction for a folded value.
func (b *Builder) emitConst(v constVal, loc ast.SourceLocation) ir.Register {
	instr := &ir.Instruction{Location: loc}
	var t ir.Type
	switch v.kind {
	case ckInt:
		instr.Op = ir.OpConstInt
		instr.IntImm = v.i
		t = ir.I64()
	case ckFloat:
		instr.Op = ir.OpConstFloat
		instr.FloatImm = v.f
		t = ir.F64()
	case ckString:
		instr.Op = ir.OpConstString
		instr.StringID = b.tree.Strings.Intern(v.s)
		t = ir.PHPString()
	case ckBool:
		instr.Op = ir.OpConstBool
		instr.BoolImm = v.b
		t = ir.Bool()
	default:
		instr.Op = ir.OpConstNull
		t = ir.PHPValue()
	}
	b.newResult(instr, t)
	return b.emit(instr)
}

// emitConstNullTyped emits const_null but records t as the register's
// nominal type, for call sites that need the inferencer's IR type even
// though the value itself is a synthetic null placeholder.
func (b *Builder) emitConstNullTyped(t ir.Type, loc ast.SourceLocation) ir.Register {
	instr := &ir.Instruction{Op: ir.OpConstNull, Location: loc}
	b.newResult(instr, t)
	return b.emit(instr)
}

func (b *Builder) lowerVariableRead(node *ast.Node) ir.Register {
	name := b.tree.Strings.Get(node.Str)
	if reg, ok := b.lookupVar(name); ok {
		return reg
	}
	b.reportUndefinedVariable(name, node.Loc)
	return b.emitConst(nullConst(), node.Loc)
}

// lowerAssign implements §4.F.2's "variable write": evaluate the RHS, then
// rebind the variable name to that fresh register in the current scope.
// Assignment is only valid to a bare variable target here; writing to a
// function/class name (or any non-variable target) is diagnosed, binds
// nothing, and still yields the RHS register as the expression's value.
func (b *Builder) lowerAssign(node *ast.Node) ir.Register {
	if len(node.Children) < 2 {
		return b.emitConst(nullConst(), node.Loc)
	}
	target := b.tree.Node(node.Children[0])
	value := b.LowerExpr(node.Children[1])

	if target.Tag != ast.TagVariable {
		b.reportAssignToNonLvalue("<non-lvalue>", node.Loc)
		return value
	}
	name := b.tree.Strings.Get(target.Str)
	if _, isFn := b.symbols.LookupFunction(name); isFn {
		b.reportAssignToNonLvalue(name, node.Loc)
		return value
	}
	if _, isClass := b.symbols.LookupClass(name); isClass {
		b.reportAssignToNonLvalue(name, node.Loc)
		return value
	}
	if isReservedRuntimeName(name) {
		b.reportReservedRuntimeName(name, node.Loc)
	}
	b.defineVar(name, value)
	return value
}

func (b *Builder) lowerPostfixIncDec(node *ast.Node) ir.Register {
	operand := b.LowerExpr(node.Children[0])
	op := b.tree.Strings.Get(node.Str)

	one := b.emitConst(intConst(1), node.Loc)
	irOp := ir.OpAdd
	if op == "--" {
		irOp = ir.OpSub
	}
	instr := &ir.Instruction{Op: irOp, Location: node.Loc, Args: []ir.Register{operand, one}}
	b.newResult(instr, operand.Type)
	result := b.emit(instr)

	if target := node.Children[0]; b.tree.Node(target).Tag == ast.TagVariable {
		name := b.tree.Strings.Get(b.tree.Node(target).Str)
		b.defineVar(name, result)
	}
	return operand // postfix form yields the pre-increment value
}
