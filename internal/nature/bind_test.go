package nature

import (
	"testing"

	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Bind:
// - Primitive never accepts a child
// - HashMap takes a Primitive key, then any value, then rejects
// - HashMap rejects a non-Primitive first bind
// - Vec and Option accept exactly one bind
// - Tuple accepts unbounded binds in call order
// - Struct, Enum and EnumVariant append in order
// - Terminal wrappers (Func, NamedFunc, Field, FuncArg, Ref) are not bindable
// - nil target or child is rejected

func TestBind_Primitive(t *testing.T) {
	t.Parallel()

	err := Bind(Number, String)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParsing))
	assert.Contains(t, err.Error(), "cannot be bound")
}

func TestBind_HashMap(t *testing.T) {
	t.Parallel()

	m := NewHashMap()
	require.NoError(t, Bind(m, String))
	require.NoError(t, Bind(m, BigInt))

	key, ok := m.Key()
	require.True(t, ok)
	assert.Equal(t, String, key)
	assert.Equal(t, BigInt, m.Value())

	err := Bind(m, Number)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParsing))
	assert.Equal(t, "HashMap(Some(String), Some(BigInt))", m.String(), "failed bind must not change the map")
}

func TestBind_HashMapNonPrimitiveKey(t *testing.T) {
	t.Parallel()

	m := NewHashMap()
	err := Bind(m, Ref("Key"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParsing))
	assert.Contains(t, err.Error(), "only Primitive")

	_, ok := m.Key()
	assert.False(t, ok)
	assert.Nil(t, m.Value())
}

func TestBind_SingleSlot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target Nature
	}{
		{name: "Vec", target: NewVec()},
		{name: "Option", target: NewOption()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, Bind(tt.target, Number))

			err := Bind(tt.target, String)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParsing))
			assert.Contains(t, err.Error(), "already has been bound")

			err = Bind(tt.target, Boolean)
			require.Error(t, err)
			assert.Contains(t, tt.target.String(), "Some(Number)")
		})
	}
}

func TestBind_TupleUnbounded(t *testing.T) {
	t.Parallel()

	tup := NewTuple()
	order := []Nature{Number, BigInt, String, Ref("A"), NewVec(), Boolean, Number}
	for _, n := range order {
		require.NoError(t, Bind(tup, n))
	}

	assert.Equal(t, order, tup.Elems())
	assert.Equal(t, len(order), tup.Len())
}

func TestBind_NamedAppend(t *testing.T) {
	t.Parallel()

	ctx := Context{File: "lib.rs", Line: 3}

	s := NewStruct("User", ctx)
	a := NewField("a", ctx, Number)
	b := NewField("b", ctx, String)
	require.NoError(t, Bind(s, a))
	require.NoError(t, Bind(s, b))
	assert.Equal(t, []*Field{a, b}, s.Fields())

	e := NewEnum("Kind", ctx)
	one := NewEnumVariant("One", ctx)
	two := NewEnumVariant("Two", ctx)
	require.NoError(t, Bind(e, one))
	require.NoError(t, Bind(e, two))
	assert.Equal(t, []Nature{one, two}, e.Variants())

	require.NoError(t, Bind(two, Number))
	require.NoError(t, Bind(two, String))
	assert.Equal(t, []Nature{Number, String}, two.Values())
}

func TestBind_Terminal(t *testing.T) {
	t.Parallel()

	ctx := Context{}
	targets := []Nature{
		NewFunc(nil, nil, false),
		NewNamedFunc("f", ctx, NewFunc(nil, nil, false)),
		NewField("a", ctx, Number),
		NewFuncArg("a", ctx, Number),
		Ref("Other"),
	}

	for _, target := range targets {
		err := Bind(target, Number)
		require.Error(t, err, target.String())
		assert.True(t, errors.Is(err, ErrNotSupported), target.String())
	}
}

func TestBind_Nil(t *testing.T) {
	t.Parallel()

	assert.Error(t, Bind(nil, Number))
	assert.Error(t, Bind(NewVec(), nil))
}

func TestWalkAndRefs(t *testing.T) {
	t.Parallel()

	ctx := Context{}
	s := NewStruct("A", ctx)
	opt := NewOption()
	require.NoError(t, Bind(opt, Ref("B")))
	require.NoError(t, Bind(s, NewField("b", ctx, opt)))
	m := NewHashMap()
	require.NoError(t, Bind(m, String))
	require.NoError(t, Bind(m, Ref("C")))
	require.NoError(t, Bind(s, NewField("c", ctx, m)))

	assert.Equal(t, []string{"B", "C"}, Refs(s))

	var kinds []Kind
	Walk(s, func(n Nature) bool {
		kinds = append(kinds, n.Kind())
		return n.Kind() != KindHashMap
	})
	assert.Equal(t, []Kind{KindStruct, KindField, KindOption, KindRef, KindField, KindHashMap}, kinds)
}
