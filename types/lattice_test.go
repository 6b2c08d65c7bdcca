package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnionCollapsesSingletons(t *testing.T) {
	u := UnionOf(TInt)
	require.True(t, u.IsConcrete())
	c, ok := u.ConcreteValue()
	require.True(t, ok)
	require.Equal(t, TInt, c)
}

func TestUnionDedupsAndSorts(t *testing.T) {
	u := UnionOf(TString, TInt, TInt, TBool)
	require.True(t, u.IsUnion())
	members, ok := u.UnionMembers()
	require.True(t, ok)
	require.Len(t, members, 3)
	require.Equal(t, []ConcreteType{TBool, TInt, TString}, members)
}

func TestFromTypeNameRejectsMixed(t *testing.T) {
	_, ok := FromTypeName("mixed")
	require.False(t, ok)

	got, ok := FromTypeName("integer")
	require.True(t, ok)
	require.True(t, got.Equal(Concrete(TInt)))
}

func TestArithmeticJoin(t *testing.T) {
	require.True(t, ArithmeticJoin(Concrete(TFloat), Concrete(TInt)).Equal(Concrete(TFloat)))
	require.True(t, ArithmeticJoin(Concrete(TInt), Concrete(TFloat)).Equal(Concrete(TFloat)))
	require.True(t, ArithmeticJoin(Concrete(TInt), Concrete(TInt)).Equal(Concrete(TInt)))
	require.True(t, ArithmeticJoin(Concrete(TString), Concrete(TString)).Equal(Concrete(TString)))
	require.True(t, ArithmeticJoin(Dynamic(), Concrete(TInt)).IsDynamic())
	require.True(t, ArithmeticJoin(Concrete(TBool), Concrete(TInt)).IsDynamic())
}

func TestNullCoalesceJoin(t *testing.T) {
	require.True(t, NullCoalesceJoin(Concrete(TNull), Concrete(TString)).Equal(Concrete(TString)))
	require.True(t, NullCoalesceJoin(Concrete(TInt), Concrete(TInt)).Equal(Concrete(TInt)))
	require.True(t, NullCoalesceJoin(Concrete(TInt), Concrete(TString)).IsDynamic())
}

func TestToIRTypeMapping(t *testing.T) {
	require.Equal(t, "i64", Concrete(TInt).ToIRType().String())
	require.Equal(t, "f64", Concrete(TFloat).ToIRType().String())
	require.Equal(t, "void", Concrete(TVoid).ToIRType().String())
	require.Equal(t, "void", Concrete(TNever).ToIRType().String())
	require.Equal(t, "php_value", Concrete(TNull).ToIRType().String())
	require.Equal(t, "php_value", Dynamic().ToIRType().String())
	require.Equal(t, "php_value", Unknown().ToIRType().String())
	require.Equal(t, "php_value", UnionOf(TInt, TString).ToIRType().String())
}
