package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTuple(t *testing.T) {
	td := makeUsers(t)

	tup, err := NewTuple(td, []any{1, "ann", true})
	require.NoError(t, err)
	assert.Equal(t, []any{int32(1), "ann", true}, tup.Values())
	assert.Same(t, td, tup.TupleDesc())

	v, err := tup.Value(1)
	require.NoError(t, err)
	assert.Equal(t, "ann", v)

	_, err = tup.Value(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestNewTuple_Mismatch(t *testing.T) {
	td := makeUsers(t)

	_, err := NewTuple(td, []any{1, "ann"})
	assert.ErrorIs(t, err, ErrInvalidArity)

	_, err = NewTuple(td, []any{"1", "ann", true})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestConcatAndProject(t *testing.T) {
	a, err := NewTuple(MustTupleDesc([]FieldType{TypeInt}, Names("id")), []any{1})
	require.NoError(t, err)
	b, err := NewTuple(MustTupleDesc([]FieldType{TypeText}, Names("name")), []any{"bob"})
	require.NoError(t, err)

	joined := ConcatWith(Merge(a.TupleDesc(), b.TupleDesc()), a, b)
	assert.Equal(t, "INT(id),TEXT(name)", joined.TupleDesc().String())
	assert.Equal(t, []any{int32(1), "bob"}, joined.Values())
	assert.Equal(t, "1\tbob", joined.String())

	pd, err := joined.TupleDesc().Project(1)
	require.NoError(t, err)
	p := joined.Project(pd, []int{1})
	assert.Equal(t, []any{"bob"}, p.Values())
}
