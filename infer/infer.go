// Package infer implements the type inferencer (§4.D): a pure function of
// an AST node (consulting the symbol table for names already in scope)
// that produces an InferredType, never an error. Every form not covered
// by an explicit rule degrades to types.Dynamic() rather than panicking,
// matching the "inference never fails" property (§8).
package infer

import (
	"github.com/wudi/phiri/ast"
	"github.com/wudi/phiri/symtab"
	"github.com/wudi/phiri/types"
)

// Inferencer holds the read-only context an inference pass needs: the AST
// being walked and the symbol table built for it so far.
type Inferencer struct {
	ast     *ast.AST
	symbols *symtab.Table
}

// New constructs an Inferencer over tree, resolving names against symbols.
func New(tree *ast.AST, symbols *symtab.Table) *Inferencer {
	return &Inferencer{ast: tree, symbols: symbols}
}

// Infer computes the type of the expression at idx. Statement nodes and
// any tag without a meaningful expression type resolve to Dynamic.
func (inf *Inferencer) Infer(idx ast.NodeIndex) types.InferredType {
	if idx == ast.NoNode {
		return types.Dynamic()
	}
	node := inf.ast.Node(idx)

	switch node.Tag {
	case ast.TagLiteralInt:
		return types.Concrete(types.TInt)
	case ast.TagLiteralFloat:
		return types.Concrete(types.TFloat)
	case ast.TagLiteralString:
		return types.Concrete(types.TString)
	case ast.TagLiteralBool:
		return types.Concrete(types.TBool)
	case ast.TagLiteralNull:
		return types.Concrete(types.TNull)

	case ast.TagVariable:
		return inf.inferVariable(node)

	case ast.TagBinaryExpr:
		return inf.inferBinary(node)

	case ast.TagUnaryExpr:
		return inf.inferUnary(node)

	case ast.TagPostfixIncDec:
		operand := inf.Infer(node.Children[0])
		if c, ok := operand.ConcreteValue(); ok && (c == types.TInt || c == types.TFloat) {
			return operand
		}
		return types.Dynamic()

	case ast.TagTernary:
		return inf.inferTernary(node)

	case ast.TagAssign:
		// Assignment evaluates to its right-hand side's value (§4.D
		// supplement — the source language treats `$x = $y` as an
		// expression whose type is $y's).
		if len(node.Children) >= 2 {
			return inf.Infer(node.Children[1])
		}
		return types.Dynamic()

	case ast.TagFunctionCall:
		return inf.inferCall(node)

	case ast.TagMethodCall, ast.TagStaticMethodCall, ast.TagPropertyAccess, ast.TagArrayAccess:
		return types.Dynamic()

	case ast.TagNamedType:
		name := inf.ast.Strings.Get(node.Str)
		if t, ok := types.FromTypeName(name); ok {
			return t
		}
		// Unrecognized name: treat as a class/object type reference.
		return types.Concrete(types.TObject)

	case ast.TagUnionType:
		return inf.inferUnionType(node)

	case ast.TagMatchExpr:
		return inf.inferMatch(node)

	case ast.TagArrayInit, ast.TagArrayElement:
		return types.Concrete(types.TArray)

	case ast.TagClosure, ast.TagArrowFunction:
		return types.Concrete(types.TCallable)

	case ast.TagObjectInstantiation, ast.TagCloneWith:
		return types.Concrete(types.TObject)

	case ast.TagInterpolate:
		return types.Concrete(types.TString)

	case ast.TagYield:
		// Generators are out of scope for lowering; the value a yield
		// expression evaluates to is left dynamic.
		return types.Dynamic()

	default:
		return types.Dynamic()
	}
}

func (inf *Inferencer) inferVariable(node *ast.Node) types.InferredType {
	name := inf.ast.Strings.Get(node.Str)
	sym, ok := inf.symbols.Lookup(name)
	if !ok {
		return types.Dynamic()
	}
	return sym.InferredType
}

func (inf *Inferencer) inferTernary(node *ast.Node) types.InferredType {
	// Children: [condition, thenOrNoNode, else]. A short ternary (?:) omits
	// the then-branch, in which case the condition's own type stands in.
	if len(node.Children) < 2 {
		return types.Dynamic()
	}
	elseIdx := node.Children[len(node.Children)-1]
	thenIdx := node.Children[1]
	if len(node.Children) < 3 || thenIdx == ast.NoNode {
		thenIdx = node.Children[0]
	}
	thenType := inf.Infer(thenIdx)
	elseType := inf.Infer(elseIdx)
	thenConcrete, thenOK := thenType.ConcreteValue()
	elseConcrete, elseOK := elseType.ConcreteValue()
	if thenOK && elseOK && thenConcrete == elseConcrete {
		return thenType
	}
	return types.Dynamic()
}

// inferUnionType implements §4.D's "union type" rule: recurse into each
// child, collecting the concrete shapes that resolve; 0 resolved members
// yields dynamic, 1 yields that concrete type, and >=2 yields union_of
// the distinct members (already-union children contribute their own
// members, flattening nested unions).
func (inf *Inferencer) inferUnionType(node *ast.Node) types.InferredType {
	var members []types.ConcreteType
	for _, c := range node.Children {
		t := inf.Infer(c)
		if concrete, ok := t.ConcreteValue(); ok {
			members = append(members, concrete)
			continue
		}
		if union, ok := t.UnionMembers(); ok {
			members = append(members, union...)
		}
	}
	switch len(members) {
	case 0:
		return types.Dynamic()
	case 1:
		return types.Concrete(members[0])
	default:
		return types.UnionOf(members...)
	}
}

func (inf *Inferencer) inferMatch(node *ast.Node) types.InferredType {
	// Children are match_arm nodes; each arm's last child is its body
	// expression.
	var result types.InferredType
	has := false
	for _, armIdx := range node.Children {
		arm := inf.ast.Node(armIdx)
		if arm.Tag != ast.TagMatchArm || len(arm.Children) == 0 {
			continue
		}
		bodyType := inf.Infer(arm.Children[len(arm.Children)-1])
		if !has {
			result = bodyType
			has = true
			continue
		}
		if !result.Equal(bodyType) {
			return types.Dynamic()
		}
	}
	if !has {
		return types.Dynamic()
	}
	return result
}

func (inf *Inferencer) inferCall(node *ast.Node) types.InferredType {
	if len(node.Children) == 0 {
		return types.Dynamic()
	}
	callee := inf.ast.Node(node.Children[0])
	if callee.Tag != ast.TagIdentifier {
		return types.Dynamic()
	}
	name := inf.ast.Strings.Get(callee.Str)

	if t, ok := LookupBuiltin(name); ok {
		return t
	}
	if sym, ok := inf.symbols.LookupFunction(name); ok {
		return sym.InferredType
	}
	return types.Dynamic()
}
