package irbuilder

import (
	"math"
	"math/big"

	"github.com/wudi/phiri/ast"
)

// constKind discriminates the constant-folding value representation.
type constKind int

const (
	ckInt constKind = iota
	ckFloat
	ckString
	ckBool
	ckNull
)

// constVal is a folded compile-time value, carrying exactly one payload
// per constKind (§3.1's tagged-union idiom, scoped to this package).
type constVal struct {
	kind constKind
	i    int64
	f    float64
	s    string
	b    bool
}

func intConst(v int64) constVal     { return constVal{kind: ckInt, i: v} }
func floatConst(v float64) constVal { return constVal{kind: ckFloat, f: v} }
func stringConst(v string) constVal { return constVal{kind: ckString, s: v} }
func boolConst(v bool) constVal     { return constVal{kind: ckBool, b: v} }
func nullConst() constVal           { return constVal{kind: ckNull} }

// foldLiteral reads a direct literal node into a constVal.
func (b *Builder) foldLiteral(node *ast.Node) (constVal, bool) {
	switch node.Tag {
	case ast.TagLiteralInt:
		return intConst(node.Int), true
	case ast.TagLiteralFloat:
		return floatConst(node.Float), true
	case ast.TagLiteralString:
		return stringConst(b.tree.Strings.Get(node.Str)), true
	case ast.TagLiteralBool:
		return boolConst(node.Bool), true
	case ast.TagLiteralNull:
		return nullConst(), true
	default:
		return constVal{}, false
	}
}

// tryFoldNode attempts to reduce idx to a compile-time constant, recursing
// through literal, unary, and binary forms (§4.F.5: "try_fold_binary
// returns Some(const) iff both operands are literal constants" — read
// transitively, since a constant subexpression is itself a literal-shaped
// value once folded).
func (b *Builder) tryFoldNode(idx ast.NodeIndex) (constVal, bool) {
	if idx == ast.NoNode {
		return constVal{}, false
	}
	node := b.tree.Node(idx)
	switch node.Tag {
	case ast.TagLiteralInt, ast.TagLiteralFloat, ast.TagLiteralString, ast.TagLiteralBool, ast.TagLiteralNull:
		return b.foldLiteral(node)
	case ast.TagBinaryExpr:
		return b.tryFoldBinary(node)
	case ast.TagUnaryExpr:
		return b.tryFoldUnary(node)
	default:
		return constVal{}, false
	}
}

// tryFoldUnary implements §4.F.5's unary rules.
func (b *Builder) tryFoldUnary(node *ast.Node) (constVal, bool) {
	if len(node.Children) < 1 {
		return constVal{}, false
	}
	operand, ok := b.tryFoldNode(node.Children[0])
	if !ok {
		return constVal{}, false
	}
	op := b.tree.Strings.Get(node.Str)
	switch op {
	case "-":
		switch operand.kind {
		case ckInt:
			return intConst(-operand.i), true
		case ckFloat:
			return floatConst(-operand.f), true
		}
	case "+":
		if operand.kind == ckInt || operand.kind == ckFloat {
			return operand, true
		}
	case "!", "not":
		if operand.kind == ckBool {
			return boolConst(!operand.b), true
		}
	case "~":
		if operand.kind == ckInt {
			return intConst(^operand.i), true
		}
	}
	return constVal{}, false
}

// tryFoldBinary implements §4.F.5's binary rules.
func (b *Builder) tryFoldBinary(node *ast.Node) (constVal, bool) {
	if len(node.Children) < 2 {
		return constVal{}, false
	}
	lhs, lok := b.tryFoldNode(node.Children[0])
	rhs, rok := b.tryFoldNode(node.Children[1])
	if !lok || !rok {
		return constVal{}, false
	}
	op := b.tree.Strings.Get(node.Str)

	// string . string concatenation.
	if op == "." && lhs.kind == ckString && rhs.kind == ckString {
		return stringConst(lhs.s + rhs.s), true
	}

	// Numeric family: int/int, float/float, and int/float widened.
	if isNumericConst(lhs) && isNumericConst(rhs) {
		if v, ok := foldNumericBinary(op, lhs, rhs); ok {
			return v, true
		}
	}

	// Same-kind equality family (covers bool/bool and string/string too).
	if v, ok := foldEqualityBinary(op, lhs, rhs); ok {
		return v, true
	}

	return constVal{}, false
}

func isNumericConst(v constVal) bool { return v.kind == ckInt || v.kind == ckFloat }

func asFloat(v constVal) float64 {
	if v.kind == ckInt {
		return float64(v.i)
	}
	return v.f
}

// foldNumericBinary covers arithmetic, bitwise, shift, comparison, and
// spaceship operators over numeric operands.
func foldNumericBinary(op string, lhs, rhs constVal) (constVal, bool) {
	bothInt := lhs.kind == ckInt && rhs.kind == ckInt

	switch op {
	case "+", "-", "*":
		if bothInt {
			return intConst(intArith(op, lhs.i, rhs.i)), true
		}
		return floatConst(floatArith(op, asFloat(lhs), asFloat(rhs))), true

	case "/":
		if bothInt {
			if rhs.i == 0 {
				return constVal{}, false // runtime op + diagnostic (§4.F.6)
			}
			if lhs.i%rhs.i == 0 {
				return intConst(lhs.i / rhs.i), true
			}
			return floatConst(float64(lhs.i) / float64(rhs.i)), true
		}
		return floatConst(asFloat(lhs) / asFloat(rhs)), true

	case "%":
		if !bothInt {
			return constVal{}, false
		}
		if rhs.i == 0 {
			return constVal{}, false // runtime op + diagnostic (§4.F.6)
		}
		return intConst(lhs.i % rhs.i), true

	case "**":
		return foldPow(lhs, rhs, bothInt)

	case "&", "|", "^", "<<", ">>":
		if !bothInt {
			return constVal{}, false
		}
		switch op {
		case "&":
			return intConst(lhs.i & rhs.i), true
		case "|":
			return intConst(lhs.i | rhs.i), true
		case "^":
			return intConst(lhs.i ^ rhs.i), true
		case "<<", ">>":
			if rhs.i < 0 || rhs.i > 63 {
				return constVal{}, false
			}
			if op == "<<" {
				return intConst(lhs.i << uint(rhs.i)), true
			}
			return intConst(lhs.i >> uint(rhs.i)), true
		}

	case "==", "!=", "===", "!==", "<", "<=", ">", ">=":
		return foldNumericComparison(op, lhs, rhs, bothInt), true

	case "<=>":
		if bothInt {
			return intConst(spaceshipInt(lhs.i, rhs.i)), true
		}
		a, c := asFloat(lhs), asFloat(rhs)
		if math.IsNaN(a) || math.IsNaN(c) {
			return constVal{}, false // unordered; leave it to the runtime
		}
		return intConst(spaceshipFloat(a, c)), true
	}
	return constVal{}, false
}

func intArith(op string, a, b int64) int64 {
	// Go's int64 +,-,* already wrap modulo 2^64 on overflow, i.e. two's
	// complement — the same semantics §4.F.5 requires.
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	default:
		return a * b
	}
}

func floatArith(op string, a, b float64) float64 {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	default:
		return a / b
	}
}

// foldPow implements the "**" rule: rejected when the exponent is negative
// (for the int/int case) or the result would overflow i64; a pair with a
// float on either side always folds via math.Pow, preserving NaN/Inf.
func foldPow(lhs, rhs constVal, bothInt bool) (constVal, bool) {
	if bothInt {
		if rhs.i < 0 {
			return constVal{}, false
		}
		base := big.NewInt(lhs.i)
		exp := big.NewInt(rhs.i)
		result := new(big.Int).Exp(base, exp, nil)
		if !result.IsInt64() {
			return constVal{}, false
		}
		return intConst(result.Int64()), true
	}
	return floatConst(math.Pow(asFloat(lhs), asFloat(rhs))), true
}

func foldNumericComparison(op string, lhs, rhs constVal, bothInt bool) constVal {
	if !bothInt {
		// IEEE-754: NaN is unordered — every comparison against it is
		// false except !=.
		if math.IsNaN(asFloat(lhs)) || math.IsNaN(asFloat(rhs)) {
			switch op {
			case "!=", "!==":
				return boolConst(true)
			default:
				return boolConst(false)
			}
		}
	}
	var cmp int
	if bothInt {
		switch {
		case lhs.i < rhs.i:
			cmp = -1
		case lhs.i > rhs.i:
			cmp = 1
		}
	} else {
		a, c := asFloat(lhs), asFloat(rhs)
		switch {
		case a < c:
			cmp = -1
		case a > c:
			cmp = 1
		}
	}
	sameType := lhs.kind == rhs.kind
	switch op {
	case "==":
		return boolConst(cmp == 0)
	case "!=":
		return boolConst(cmp != 0)
	case "===":
		return boolConst(sameType && cmp == 0)
	case "!==":
		return boolConst(!sameType || cmp != 0)
	case "<":
		return boolConst(cmp < 0)
	case "<=":
		return boolConst(cmp <= 0)
	case ">":
		return boolConst(cmp > 0)
	case ">=":
		return boolConst(cmp >= 0)
	}
	return boolConst(false)
}

func spaceshipInt(a, b int64) int64 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func spaceshipFloat(a, b float64) int64 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// foldEqualityBinary folds same-kind non-numeric operand pairs:
// string/string pairs for ==, !=, ===, !==, <, <=, >, >=, <=>, and
// bool/bool and null/null pairs for ==, !=, ===, !== only (numeric pairs
// are handled by foldNumericBinary before this is reached).
func foldEqualityBinary(op string, lhs, rhs constVal) (constVal, bool) {
	if lhs.kind != rhs.kind {
		return constVal{}, false
	}
	switch lhs.kind {
	case ckBool:
		eq := lhs.b == rhs.b
		switch op {
		case "==", "===":
			return boolConst(eq), true
		case "!=", "!==":
			return boolConst(!eq), true
		}
		return constVal{}, false
	case ckString:
		var cmp int
		switch {
		case lhs.s < rhs.s:
			cmp = -1
		case lhs.s > rhs.s:
			cmp = 1
		}
		switch op {
		case "==", "===":
			return boolConst(cmp == 0), true
		case "!=", "!==":
			return boolConst(cmp != 0), true
		case "<":
			return boolConst(cmp < 0), true
		case "<=":
			return boolConst(cmp <= 0), true
		case ">":
			return boolConst(cmp > 0), true
		case ">=":
			return boolConst(cmp >= 0), true
		case "<=>":
			return intConst(int64(cmp)), true
		}
	case ckNull:
		switch op {
		case "==", "===":
			return boolConst(true), true
		case "!=", "!==":
			return boolConst(false), true
		}
	}
	return constVal{}, false
}
