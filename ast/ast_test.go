package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringTableInternRoundTrip(t *testing.T) {
	st := NewStringTable()
	a := st.Intern("foo")
	b := st.Intern("bar")
	c := st.Intern("foo")

	require.Equal(t, a, c, "equal byte sequences must intern to the same ID")
	require.NotEqual(t, a, b)
	require.Equal(t, "foo", st.Get(a))
	require.Equal(t, "bar", st.Get(b))
	require.Equal(t, 2, st.Len())
}

func TestSourceLocationNoLocation(t *testing.T) {
	require.False(t, NoLocation.IsSet())
	require.Equal(t, "<no location>", NoLocation.String())

	loc := SourceLocation{File: "a.php", Line: 3, Column: 5}
	require.True(t, loc.IsSet())
	require.Equal(t, "a.php:3:5", loc.String())
}

func TestNodeChildAccessors(t *testing.T) {
	a := &AST{
		Nodes: []Node{
			{Tag: TagLiteralInt, Int: 1},
			{Tag: TagLiteralInt, Int: 2},
			{Tag: TagBinaryExpr, Children: []NodeIndex{0, 1}},
		},
		Root: 2,
	}

	require.Equal(t, NodeIndex(0), a.Child(2, 0))
	require.Equal(t, NodeIndex(1), a.Child(2, 1))
	require.Equal(t, NoNode, a.Child(2, 2))
	require.Equal(t, TagBinaryExpr, a.Node(a.Root).Tag)
}
