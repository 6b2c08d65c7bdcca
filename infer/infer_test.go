package infer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wudi/phiri/ast"
	"github.com/wudi/phiri/symtab"
	"github.com/wudi/phiri/types"
)

// fixture builds a small AST by hand: helper methods append nodes and
// return their index, mirroring how an upstream flattener would emit one.
type fixture struct {
	a *ast.AST
}

func newFixture() *fixture {
	return &fixture{a: &ast.AST{Strings: ast.NewStringTable()}}
}

func (f *fixture) add(n ast.Node) ast.NodeIndex {
	f.a.Nodes = append(f.a.Nodes, n)
	return ast.NodeIndex(len(f.a.Nodes) - 1)
}

func (f *fixture) literalInt(v int64) ast.NodeIndex {
	return f.add(ast.Node{Tag: ast.TagLiteralInt, Int: v})
}

func (f *fixture) literalString(s string) ast.NodeIndex {
	return f.add(ast.Node{Tag: ast.TagLiteralString, Str: f.a.Strings.Intern(s)})
}

func (f *fixture) variable(name string) ast.NodeIndex {
	return f.add(ast.Node{Tag: ast.TagVariable, Str: f.a.Strings.Intern(name)})
}

func (f *fixture) binary(op string, lhs, rhs ast.NodeIndex) ast.NodeIndex {
	return f.add(ast.Node{Tag: ast.TagBinaryExpr, Str: f.a.Strings.Intern(op), Children: []ast.NodeIndex{lhs, rhs}})
}

func (f *fixture) unary(op string, operand ast.NodeIndex) ast.NodeIndex {
	return f.add(ast.Node{Tag: ast.TagUnaryExpr, Str: f.a.Strings.Intern(op), Children: []ast.NodeIndex{operand}})
}

func (f *fixture) call(calleeName string, args ...ast.NodeIndex) ast.NodeIndex {
	callee := f.add(ast.Node{Tag: ast.TagIdentifier, Str: f.a.Strings.Intern(calleeName)})
	children := append([]ast.NodeIndex{callee}, args...)
	return f.add(ast.Node{Tag: ast.TagFunctionCall, Children: children})
}

func TestInferLiterals(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	inf := New(f.a, tab)

	require.True(t, inf.Infer(f.literalInt(1)).Equal(types.Concrete(types.TInt)))
	require.True(t, inf.Infer(f.literalString("x")).Equal(types.Concrete(types.TString)))
}

func TestInferVariableUnknownIsDynamic(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	inf := New(f.a, tab)

	idx := f.variable("undeclared")
	require.True(t, inf.Infer(idx).IsDynamic())
}

func TestInferVariableFromSymbolTable(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	tab.DefineVariable("x", types.Concrete(types.TFloat), ast.NoLocation)
	inf := New(f.a, tab)

	idx := f.variable("x")
	require.True(t, inf.Infer(idx).Equal(types.Concrete(types.TFloat)))
}

func TestInferArithmeticPromotesToFloat(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	inf := New(f.a, tab)

	idx := f.binary("+", f.literalInt(1), f.add(ast.Node{Tag: ast.TagLiteralFloat, Float: 2.0}))
	require.True(t, inf.Infer(idx).Equal(types.Concrete(types.TFloat)))
}

func TestInferComparisonIsAlwaysBool(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	inf := New(f.a, tab)

	idx := f.binary("===", f.literalInt(1), f.literalString("1"))
	require.True(t, inf.Infer(idx).Equal(types.Concrete(types.TBool)))
}

func TestInferUnaryNot(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	inf := New(f.a, tab)

	idx := f.unary("!", f.literalInt(0))
	require.True(t, inf.Infer(idx).Equal(types.Concrete(types.TBool)))
}

func TestInferBuiltinCall(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	inf := New(f.a, tab)

	idx := f.call("strlen", f.literalString("hi"))
	require.True(t, inf.Infer(idx).Equal(types.Concrete(types.TInt)))
}

func TestInferInputDependentBuiltinIsDynamic(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	inf := New(f.a, tab)

	idx := f.call("max", f.literalInt(1), f.literalInt(2))
	require.True(t, inf.Infer(idx).IsDynamic())
}

func TestInferUserFunctionCallUsesDeclaredReturnType(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	tab.DefineFunction("double", nil, types.Concrete(types.TInt), ast.NoLocation)
	inf := New(f.a, tab)

	idx := f.call("double", f.literalInt(3))
	require.True(t, inf.Infer(idx).Equal(types.Concrete(types.TInt)))
}

func TestInferUnknownCallIsDynamic(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	inf := New(f.a, tab)

	idx := f.call("totally_unknown_fn")
	require.True(t, inf.Infer(idx).IsDynamic())
}

func TestInferMatchExprWidensOrCollapses(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	inf := New(f.a, tab)

	arm1 := f.add(ast.Node{Tag: ast.TagMatchArm, Children: []ast.NodeIndex{f.literalInt(1)}})
	arm2 := f.add(ast.Node{Tag: ast.TagMatchArm, Children: []ast.NodeIndex{f.literalInt(2)}})
	match := f.add(ast.Node{Tag: ast.TagMatchExpr, Children: []ast.NodeIndex{arm1, arm2}})
	require.True(t, inf.Infer(match).Equal(types.Concrete(types.TInt)))

	arm3 := f.add(ast.Node{Tag: ast.TagMatchArm, Children: []ast.NodeIndex{f.literalString("s")}})
	mismatched := f.add(ast.Node{Tag: ast.TagMatchExpr, Children: []ast.NodeIndex{arm1, arm3}})
	require.True(t, inf.Infer(mismatched).IsDynamic())
}

func TestInferUnionTypeNode(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	inf := New(f.a, tab)

	intType := f.add(ast.Node{Tag: ast.TagNamedType, Str: f.a.Strings.Intern("int")})
	strType := f.add(ast.Node{Tag: ast.TagNamedType, Str: f.a.Strings.Intern("string")})
	union := f.add(ast.Node{Tag: ast.TagUnionType, Children: []ast.NodeIndex{intType, strType}})

	result := inf.Infer(union)
	require.True(t, result.IsUnion())
	members, ok := result.UnionMembers()
	require.True(t, ok)
	require.Equal(t, []types.ConcreteType{types.TInt, types.TString}, members)
}

func TestInferMethodAndPropertyAccessAreDynamic(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	inf := New(f.a, tab)

	method := f.add(ast.Node{Tag: ast.TagMethodCall})
	prop := f.add(ast.Node{Tag: ast.TagPropertyAccess})
	require.True(t, inf.Infer(method).IsDynamic())
	require.True(t, inf.Infer(prop).IsDynamic())
}

// TestInferenceSanitySampledGrid sweeps every binary operator over a grid
// of literal operand shapes and checks the stated result type for each:
// comparisons and logicals are always bool, concatenation is always
// string, bitwise is always int, arithmetic goes through the lattice's
// arithmetic join. The grid covers well over 100 combinations.
func TestInferenceSanitySampledGrid(t *testing.T) {
	f := newFixture()
	tab := symtab.New()
	tab.Init()
	inf := New(f.a, tab)

	operandFor := map[types.ConcreteType]func() ast.NodeIndex{
		types.TInt:    func() ast.NodeIndex { return f.literalInt(1) },
		types.TFloat:  func() ast.NodeIndex { return f.add(ast.Node{Tag: ast.TagLiteralFloat, Float: 1.5}) },
		types.TString: func() ast.NodeIndex { return f.literalString("s") },
		types.TBool:   func() ast.NodeIndex { return f.add(ast.Node{Tag: ast.TagLiteralBool, Bool: true}) },
		types.TNull:   func() ast.NodeIndex { return f.add(ast.Node{Tag: ast.TagLiteralNull}) },
	}
	shapes := []types.ConcreteType{types.TInt, types.TFloat, types.TString, types.TBool, types.TNull}

	comparisons := []string{"==", "!=", "===", "!==", "<", "<=", ">", ">=", "<=>"}
	logicals := []string{"&&", "||", "xor"}
	bitwise := []string{"&", "|", "^", "<<", ">>"}
	arithmetic := []string{"+", "-", "*", "/", "%", "**"}

	cases := 0
	for _, lt := range shapes {
		for _, rt := range shapes {
			lhs, rhs := operandFor[lt](), operandFor[rt]()
			for _, op := range comparisons {
				require.True(t, inf.Infer(f.binary(op, lhs, rhs)).Equal(types.Concrete(types.TBool)), "op %q %v %v", op, lt, rt)
				cases++
			}
			for _, op := range logicals {
				require.True(t, inf.Infer(f.binary(op, lhs, rhs)).Equal(types.Concrete(types.TBool)), "op %q %v %v", op, lt, rt)
				cases++
			}
			for _, op := range bitwise {
				require.True(t, inf.Infer(f.binary(op, lhs, rhs)).Equal(types.Concrete(types.TInt)), "op %q %v %v", op, lt, rt)
				cases++
			}
			for _, op := range arithmetic {
				want := types.ArithmeticJoin(types.Concrete(lt), types.Concrete(rt))
				require.True(t, inf.Infer(f.binary(op, lhs, rhs)).Equal(want), "op %q %v %v", op, lt, rt)
				cases++
			}
			require.True(t, inf.Infer(f.binary(".", lhs, rhs)).Equal(types.Concrete(types.TString)), "concat %v %v", lt, rt)
			cases++
		}
	}
	require.GreaterOrEqual(t, cases, 100)
}

// TestBuiltinMonomorphism: every entry in the closed built-in table
// returns a stable type across repeated queries.
func TestBuiltinMonomorphism(t *testing.T) {
	for name, want := range builtinTable {
		first, ok := LookupBuiltin(name)
		require.True(t, ok, name)
		second, ok := LookupBuiltin(name)
		require.True(t, ok, name)
		require.True(t, first.Equal(want), name)
		require.True(t, first.Equal(second), name)
	}
}
