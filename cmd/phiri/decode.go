package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wudi/phiri/ast"
)

// jsonLocation mirrors ast.SourceLocation for JSON decoding.
type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Length int    `json:"length"`
}

// jsonNode mirrors ast.Node for JSON decoding (§6.1): tag is spelled out
// by name rather than its numeric encoding, and Str is the raw string
// payload rather than an already-interned StringID, since nothing outside
// this process shares the core's string table.
type jsonNode struct {
	Tag      string        `json:"tag"`
	Loc      *jsonLocation `json:"loc"`
	Children []int         `json:"children"`
	Str      string        `json:"str"`
	Int      int64         `json:"int"`
	Float    float64       `json:"float"`
	Bool     bool          `json:"bool"`
}

// jsonAST is the top-level document shape: a flat node arena plus the
// index of its root, per §6.1's "nodes[] form plus a distinguished
// root_node_index".
type jsonAST struct {
	Root  int        `json:"root"`
	Nodes []jsonNode `json:"nodes"`
}

var tagByName = map[string]ast.Tag{
	"literal_int":          ast.TagLiteralInt,
	"literal_float":        ast.TagLiteralFloat,
	"literal_string":       ast.TagLiteralString,
	"literal_bool":         ast.TagLiteralBool,
	"literal_null":         ast.TagLiteralNull,
	"variable":             ast.TagVariable,
	"identifier":           ast.TagIdentifier,
	"array_init":           ast.TagArrayInit,
	"array_element":        ast.TagArrayElement,
	"closure":              ast.TagClosure,
	"arrow_function":       ast.TagArrowFunction,
	"object_instantiation": ast.TagObjectInstantiation,
	"clone_with":           ast.TagCloneWith,
	"binary_expr":          ast.TagBinaryExpr,
	"unary_expr":           ast.TagUnaryExpr,
	"postfix_inc_dec":      ast.TagPostfixIncDec,
	"ternary":              ast.TagTernary,
	"assign":               ast.TagAssign,
	"function_call":        ast.TagFunctionCall,
	"method_call":          ast.TagMethodCall,
	"static_method_call":   ast.TagStaticMethodCall,
	"property_access":      ast.TagPropertyAccess,
	"array_access":         ast.TagArrayAccess,
	"named_type":           ast.TagNamedType,
	"union_type":           ast.TagUnionType,
	"match_expr":           ast.TagMatchExpr,
	"match_arm":            ast.TagMatchArm,
	"interpolate":          ast.TagInterpolate,
	"yield":                ast.TagYield,
	"program":              ast.TagProgram,
	"block":                ast.TagBlock,
	"expr_stmt":            ast.TagExprStmt,
	"if":                   ast.TagIf,
	"while":                ast.TagWhile,
	"for":                  ast.TagFor,
	"foreach":              ast.TagForeach,
	"switch":               ast.TagSwitch,
	"switch_case":          ast.TagSwitchCase,
	"return":               ast.TagReturn,
	"throw":                ast.TagThrow,
	"try":                  ast.TagTry,
	"catch_clause":         ast.TagCatchClause,
	"function_decl":        ast.TagFunctionDecl,
	"param":                ast.TagParam,
}

// decodeAST reads a §6.1 JSON AST document from r and builds the
// equivalent *ast.AST, interning every string payload into a fresh
// string table as it goes.
func decodeAST(r io.Reader) (*ast.AST, error) {
	var doc jsonAST
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode AST json: %w", err)
	}

	tree := &ast.AST{
		Strings: ast.NewStringTable(),
		Root:    ast.NodeIndex(doc.Root),
	}
	tree.Nodes = make([]ast.Node, len(doc.Nodes))

	for i, jn := range doc.Nodes {
		tag, ok := tagByName[jn.Tag]
		if !ok {
			return nil, fmt.Errorf("node %d: unrecognized tag %q", i, jn.Tag)
		}
		node := ast.Node{
			Tag:   tag,
			Str:   tree.Strings.Intern(jn.Str),
			Int:   jn.Int,
			Float: jn.Float,
			Bool:  jn.Bool,
		}
		if jn.Loc != nil {
			node.Loc = ast.SourceLocation{
				File: jn.Loc.File, Line: jn.Loc.Line, Column: jn.Loc.Column, Length: jn.Loc.Length,
			}
		}
		node.Children = make([]ast.NodeIndex, len(jn.Children))
		for j, c := range jn.Children {
			node.Children[j] = ast.NodeIndex(c)
		}
		tree.Nodes[i] = node
	}

	if int(tree.Root) < 0 || int(tree.Root) >= len(tree.Nodes) {
		return nil, fmt.Errorf("root_node_index %d out of bounds for %d nodes", tree.Root, len(tree.Nodes))
	}
	return tree, nil
}
