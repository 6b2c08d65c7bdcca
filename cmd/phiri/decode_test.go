package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wudi/phiri/ast"
)

func TestDecodeASTBuildsNodesInOrder(t *testing.T) {
	doc := `{
		"root": 2,
		"nodes": [
			{"tag": "literal_int", "int": 10},
			{"tag": "literal_int", "int": 20},
			{"tag": "binary_expr", "str": "+", "children": [0, 1]}
		]
	}`

	tree, err := decodeAST(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, ast.NodeIndex(2), tree.Root)
	require.Len(t, tree.Nodes, 3)
	require.Equal(t, ast.TagBinaryExpr, tree.Nodes[2].Tag)
	require.Equal(t, "+", tree.Strings.Get(tree.Nodes[2].Str))
	require.Equal(t, []ast.NodeIndex{0, 1}, tree.Nodes[2].Children)
}

func TestDecodeASTRejectsUnknownTag(t *testing.T) {
	doc := `{"root": 0, "nodes": [{"tag": "not_a_real_tag"}]}`
	_, err := decodeAST(strings.NewReader(doc))
	require.Error(t, err)
}

func TestDecodeASTRejectsOutOfBoundsRoot(t *testing.T) {
	doc := `{"root": 5, "nodes": [{"tag": "literal_int", "int": 1}]}`
	_, err := decodeAST(strings.NewReader(doc))
	require.Error(t, err)
}

func TestDecodeASTPreservesNoNodeSentinelInChildren(t *testing.T) {
	doc := `{
		"root": 1,
		"nodes": [
			{"tag": "literal_int", "int": 1},
			{"tag": "return", "children": [-1]}
		]
	}`
	tree, err := decodeAST(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, ast.NoNode, tree.Nodes[1].Children[0])
}
