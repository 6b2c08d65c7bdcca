package infer

import (
	"github.com/wudi/phiri/ast"
	"github.com/wudi/phiri/types"
)

// comparisonOps always produce bool regardless of operand types (§4.B).
var comparisonOps = map[string]bool{
	"==": true, "!=": true, "===": true, "!==": true,
	"<": true, "<=": true, ">": true, ">=": true, "<=>": true,
}

// logicalOps always produce bool.
var logicalOps = map[string]bool{
	"&&": true, "||": true, "and": true, "or": true, "xor": true,
}

// bitwiseOps always infer to int (§4.D).
var bitwiseOps = map[string]bool{
	"&": true, "|": true, "^": true, "<<": true, ">>": true,
}

// arithmeticOps go through types.ArithmeticJoin.
var arithmeticOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
}

func (inf *Inferencer) inferBinary(node *ast.Node) types.InferredType {
	if len(node.Children) < 2 {
		return types.Dynamic()
	}
	op := inf.ast.Strings.Get(node.Str)
	lhs := inf.Infer(node.Children[0])
	rhs := inf.Infer(node.Children[1])

	switch {
	case comparisonOps[op], logicalOps[op]:
		return types.Concrete(types.TBool)
	case op == ".":
		return types.Concrete(types.TString)
	case op == "??":
		return types.NullCoalesceJoin(lhs, rhs)
	case bitwiseOps[op]:
		// §4.D: bitwise operators always infer to int, unconditionally.
		return types.Concrete(types.TInt)
	case arithmeticOps[op]:
		return types.ArithmeticJoin(lhs, rhs)
	default:
		return types.Dynamic()
	}
}

func (inf *Inferencer) inferUnary(node *ast.Node) types.InferredType {
	if len(node.Children) < 1 {
		return types.Dynamic()
	}
	op := inf.ast.Strings.Get(node.Str)
	operand := inf.Infer(node.Children[0])

	switch op {
	case "!", "not":
		return types.Concrete(types.TBool)
	case "~":
		// §4.D: bitwise_not always infers to int, unconditionally, the
		// same way the binary bitwise operators do.
		return types.Concrete(types.TInt)
	case "-", "+":
		if c, ok := operand.ConcreteValue(); ok && (c == types.TInt || c == types.TFloat) {
			return operand
		}
		return types.Dynamic()
	default:
		return types.Dynamic()
	}
}
