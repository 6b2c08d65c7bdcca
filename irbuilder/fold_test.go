package irbuilder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wudi/phiri/ast"
)

// referenceInt applies op with the runtime's semantics (two's-complement
// wrap for arithmetic, exact division falling back to float), returning
// ok=false where folding must be declined.
func referenceInt(op string, a, b int64) (constVal, bool) {
	switch op {
	case "+":
		return intConst(a + b), true
	case "-":
		return intConst(a - b), true
	case "*":
		return intConst(a * b), true
	case "/":
		if b == 0 {
			return constVal{}, false
		}
		if a%b == 0 {
			return intConst(a / b), true
		}
		return floatConst(float64(a) / float64(b)), true
	case "%":
		if b == 0 {
			return constVal{}, false
		}
		return intConst(a % b), true
	case "&":
		return intConst(a & b), true
	case "|":
		return intConst(a | b), true
	case "^":
		return intConst(a ^ b), true
	case "<<":
		if b < 0 || b > 63 {
			return constVal{}, false
		}
		return intConst(a << uint(b)), true
	case ">>":
		if b < 0 || b > 63 {
			return constVal{}, false
		}
		return intConst(a >> uint(b)), true
	case "==":
		return boolConst(a == b), true
	case "!=":
		return boolConst(a != b), true
	case "<":
		return boolConst(a < b), true
	case "<=":
		return boolConst(a <= b), true
	case ">":
		return boolConst(a > b), true
	case ">=":
		return boolConst(a >= b), true
	case "<=>":
		switch {
		case a < b:
			return intConst(-1), true
		case a > b:
			return intConst(1), true
		}
		return intConst(0), true
	}
	return constVal{}, false
}

// TestFoldEvalEquivalenceIntGrid exercises the fold/eval equivalence law
// over a sampled integer grid: wherever the folder fires, its value must
// equal what the runtime op would have produced, and it must decline
// exactly where the rules say (zero divisors, out-of-range shifts).
func TestFoldEvalEquivalenceIntGrid(t *testing.T) {
	samples := []int64{math.MinInt64, -17, -3, -1, 0, 1, 2, 3, 7, 63, 64, 1 << 40, math.MaxInt64}
	ops := []string{"+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>", "==", "!=", "<", "<=", ">", ">=", "<=>"}

	for _, op := range ops {
		for _, a := range samples {
			for _, b := range samples {
				f := newFixture()
				bld := newBuilder(f)
				idx := f.binary(op, f.intLit(a), f.intLit(b))

				got, folded := bld.tryFoldBinary(f.a.Node(idx))
				want, foldable := referenceInt(op, a, b)
				require.Equal(t, foldable, folded, "op %q a=%d b=%d", op, a, b)
				if foldable {
					require.Equal(t, want, got, "op %q a=%d b=%d", op, a, b)
				}
			}
		}
	}
}

// TestFoldEvalEquivalenceFloatGrid checks the float arm: always folds,
// IEEE-754 semantics, NaN and the infinities preserved.
func TestFoldEvalEquivalenceFloatGrid(t *testing.T) {
	samples := []float64{math.Inf(-1), -2.5, 0.0, 1.0, 2.5, math.MaxFloat64, math.Inf(1), math.NaN()}
	ops := []string{"+", "-", "*", "/"}

	for _, op := range ops {
		for _, a := range samples {
			for _, b := range samples {
				f := newFixture()
				bld := newBuilder(f)
				la := f.add(ast.Node{Tag: ast.TagLiteralFloat, Float: a})
				lb := f.add(ast.Node{Tag: ast.TagLiteralFloat, Float: b})
				idx := f.binary(op, la, lb)

				got, folded := bld.tryFoldBinary(f.a.Node(idx))
				require.True(t, folded, "float %q must always fold", op)
				require.Equal(t, ckFloat, got.kind)
				var want float64
				switch op {
				case "+":
					want = a + b
				case "-":
					want = a - b
				case "*":
					want = a * b
				case "/":
					want = a / b
				}
				if math.IsNaN(want) {
					require.True(t, math.IsNaN(got.f), "op %q a=%v b=%v", op, a, b)
				} else {
					require.Equal(t, want, got.f, "op %q a=%v b=%v", op, a, b)
				}
			}
		}
	}
}

// Division by literal float zero is foldable per IEEE-754 and yields the
// signed infinity, unlike the integer case.
func TestFloatDivisionByZeroFoldsToInfinity(t *testing.T) {
	f := newFixture()
	bld := newBuilder(f)
	la := f.add(ast.Node{Tag: ast.TagLiteralFloat, Float: 1.0})
	lb := f.add(ast.Node{Tag: ast.TagLiteralFloat, Float: 0.0})
	idx := f.binary("/", la, lb)

	got, folded := bld.tryFoldBinary(f.a.Node(idx))
	require.True(t, folded)
	require.True(t, math.IsInf(got.f, 1))
}

// Int operands widen to float when mixed with a float operand.
func TestIntFloatWidening(t *testing.T) {
	f := newFixture()
	bld := newBuilder(f)
	la := f.intLit(3)
	lb := f.add(ast.Node{Tag: ast.TagLiteralFloat, Float: 0.5})
	idx := f.binary("+", la, lb)

	got, folded := bld.tryFoldBinary(f.a.Node(idx))
	require.True(t, folded)
	require.Equal(t, ckFloat, got.kind)
	require.Equal(t, 3.5, got.f)
}

func TestFoldPowBoundaries(t *testing.T) {
	f := newFixture()
	bld := newBuilder(f)

	inRange := f.binary("**", f.intLit(2), f.intLit(62))
	v, ok := bld.tryFoldBinary(f.a.Node(inRange))
	require.True(t, ok)
	require.Equal(t, int64(1)<<62, v.i)

	overflow := f.binary("**", f.intLit(2), f.intLit(64))
	_, ok = bld.tryFoldBinary(f.a.Node(overflow))
	require.False(t, ok, "pow overflowing i64 must not fold")

	negative := f.binary("**", f.intLit(2), f.intLit(-1))
	_, ok = bld.tryFoldBinary(f.a.Node(negative))
	require.False(t, ok, "pow with a negative exponent must not fold")
}

func TestFoldUnary(t *testing.T) {
	f := newFixture()
	bld := newBuilder(f)

	neg := f.add(ast.Node{Tag: ast.TagUnaryExpr, Str: f.a.Strings.Intern("-"), Children: []ast.NodeIndex{f.intLit(5)}})
	v, ok := bld.tryFoldUnary(f.a.Node(neg))
	require.True(t, ok)
	require.Equal(t, int64(-5), v.i)

	not := f.add(ast.Node{Tag: ast.TagUnaryExpr, Str: f.a.Strings.Intern("!"), Children: []ast.NodeIndex{f.boolLit(true)}})
	v, ok = bld.tryFoldUnary(f.a.Node(not))
	require.True(t, ok)
	require.False(t, v.b)

	bitNot := f.add(ast.Node{Tag: ast.TagUnaryExpr, Str: f.a.Strings.Intern("~"), Children: []ast.NodeIndex{f.intLit(0)}})
	v, ok = bld.tryFoldUnary(f.a.Node(bitNot))
	require.True(t, ok)
	require.Equal(t, int64(-1), v.i)
}

// Nested constant subexpressions fold transitively: (2 + 3) * 4 is a
// single constant even though the multiply's lhs is not itself a literal.
func TestFoldRecursesThroughConstantSubtrees(t *testing.T) {
	f := newFixture()
	bld := newBuilder(f)
	inner := f.binary("+", f.intLit(2), f.intLit(3))
	outer := f.binary("*", inner, f.intLit(4))

	v, ok := bld.tryFoldBinary(f.a.Node(outer))
	require.True(t, ok)
	require.Equal(t, int64(20), v.i)
}

// NaN comparisons fold per IEEE-754: nothing is equal to NaN, the ordered
// comparisons are all false, only != / !== hold, and <=> declines to fold
// because an unordered operand has no three-way answer.
func TestFoldNaNComparisons(t *testing.T) {
	f := newFixture()
	bld := newBuilder(f)
	nan := func() ast.NodeIndex {
		zero1 := f.add(ast.Node{Tag: ast.TagLiteralFloat, Float: 0.0})
		zero2 := f.add(ast.Node{Tag: ast.TagLiteralFloat, Float: 0.0})
		return f.binary("/", zero1, zero2)
	}
	one := func() ast.NodeIndex { return f.add(ast.Node{Tag: ast.TagLiteralFloat, Float: 1.0}) }

	cases := map[string]bool{
		"==": false, "===": false, "<": false, "<=": false, ">": false, ">=": false,
		"!=": true, "!==": true,
	}
	for op, want := range cases {
		idx := f.binary(op, nan(), nan())
		v, ok := bld.tryFoldBinary(f.a.Node(idx))
		require.True(t, ok, op)
		require.Equal(t, ckBool, v.kind, op)
		require.Equal(t, want, v.b, "NaN %s NaN", op)

		idx = f.binary(op, nan(), one())
		v, ok = bld.tryFoldBinary(f.a.Node(idx))
		require.True(t, ok, op)
		require.Equal(t, want, v.b, "NaN %s 1.0", op)
	}

	spaceship := f.binary("<=>", nan(), one())
	_, ok := bld.tryFoldBinary(f.a.Node(spaceship))
	require.False(t, ok, "NaN <=> must not fold")
}
