package record

import (
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeUsers(t *testing.T) *TupleDesc {
	t.Helper()
	td, err := NewTupleDesc(
		[]FieldType{TypeInt, TypeText, TypeBool},
		Names("id", "name", "active"),
	)
	require.NoError(t, err)
	return td
}

func TestNewTupleDesc_FieldCount(t *testing.T) {
	td := makeUsers(t)
	assert.Equal(t, 3, td.NumFields())

	anon, err := NewAnonymousTupleDesc([]FieldType{TypeInt, TypeFloat})
	require.NoError(t, err)
	assert.Equal(t, 2, anon.NumFields())
}

func TestNewTupleDesc_InvalidArity(t *testing.T) {
	t.Run("length mismatch", func(t *testing.T) {
		td, err := NewTupleDesc([]FieldType{TypeInt, TypeText}, Names("id"))
		require.ErrorIs(t, err, ErrInvalidArity)
		require.Nil(t, td)
	})

	t.Run("empty", func(t *testing.T) {
		td, err := NewTupleDesc(nil, nil)
		require.ErrorIs(t, err, ErrInvalidArity)
		require.Nil(t, td)
	})

	t.Run("empty anonymous", func(t *testing.T) {
		td, err := NewAnonymousTupleDesc([]FieldType{})
		require.ErrorIs(t, err, ErrInvalidArity)
		require.Nil(t, td)
	})

	t.Run("must panics", func(t *testing.T) {
		require.Panics(t, func() { MustTupleDesc(nil, nil) })
	})
}

func TestNewTupleDesc_UnknownType(t *testing.T) {
	_, err := NewAnonymousTupleDesc([]FieldType{TypeInt, FieldType(0)})
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestNewTupleDesc_CopiesInput(t *testing.T) {
	types := []FieldType{TypeInt}
	names := Names("id")
	td, err := NewTupleDesc(types, names)
	require.NoError(t, err)

	types[0] = TypeText
	names[0] = Name("changed")

	ft, err := td.FieldType(0)
	require.NoError(t, err)
	assert.Equal(t, TypeInt, ft)
	fn, err := td.FieldName(0)
	require.NoError(t, err)
	assert.True(t, fn.Matches("id"))
}

func TestAccessors_ReturnConstructionValues(t *testing.T) {
	types := []FieldType{TypeInt, TypeText, TypeBigInt, TypeFloat}
	names := []FieldName{Name("a"), NoName, Name("c"), Name("")}
	td := MustTupleDesc(types, names)

	for i := range types {
		ft, err := td.FieldType(i)
		require.NoError(t, err)
		assert.Equal(t, types[i], ft)

		fn, err := td.FieldName(i)
		require.NoError(t, err)
		assert.Equal(t, names[i], fn)
	}

	_, ok := MustTupleDesc(types, names).fields[1].Name.Get()
	assert.False(t, ok)
}

func TestAccessors_OutOfRange(t *testing.T) {
	td := makeUsers(t)

	for _, i := range []int{-1, td.NumFields()} {
		_, err := td.FieldType(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)

		_, err = td.FieldName(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)

		_, err = td.Field(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)

		_, err = td.Offset(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
}

func TestIndexOf(t *testing.T) {
	td := MustTupleDesc(
		[]FieldType{TypeInt, TypeText, TypeInt, TypeText},
		[]FieldName{NoName, Name("x"), Name("y"), Name("x")},
	)

	i, err := td.IndexOf("x")
	require.NoError(t, err)
	assert.Equal(t, 1, i, "first match wins")

	i, err = td.IndexOf("y")
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	_, err = td.IndexOf("z")
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestIndexOf_AnonymousNeverMatches(t *testing.T) {
	td, err := NewAnonymousTupleDesc([]FieldType{TypeInt, TypeText})
	require.NoError(t, err)

	_, err = td.IndexOf("")
	assert.ErrorIs(t, err, ErrFieldNotFound)
	_, err = td.IndexOf("null")
	assert.ErrorIs(t, err, ErrFieldNotFound)

	// an explicitly empty name is still a name
	named := MustTupleDesc([]FieldType{TypeInt, TypeInt}, []FieldName{NoName, Name("")})
	i, err := named.IndexOf("")
	require.NoError(t, err)
	assert.Equal(t, 1, i)
}

func TestSize(t *testing.T) {
	td := MustTupleDesc([]FieldType{TypeInt, TypeText}, Names("id", "name"))
	assert.Equal(t, 132, td.Size())

	all := MustTupleDesc(
		[]FieldType{TypeInt, TypeBigInt, TypeBool, TypeFloat, TypeText},
		make([]FieldName, 5),
	)
	assert.Equal(t, 4+8+1+8+128, all.Size())
}

func TestOffset(t *testing.T) {
	td := MustTupleDesc([]FieldType{TypeInt, TypeText, TypeBool}, make([]FieldName, 3))
	for i, want := range []int{0, 4, 132} {
		off, err := td.Offset(i)
		require.NoError(t, err)
		assert.Equal(t, want, off)
	}
}

func TestMerge(t *testing.T) {
	a := MustTupleDesc([]FieldType{TypeInt}, Names("id"))
	b := MustTupleDesc([]FieldType{TypeText, TypeInt}, []FieldName{Name("name"), NoName})

	m := Merge(a, b)
	require.Equal(t, a.NumFields()+b.NumFields(), m.NumFields())
	assert.Equal(t, "INT(id),TEXT(name),INT(null)", m.String())

	for i := 0; i < m.NumFields(); i++ {
		src, j := a, i
		if i >= a.NumFields() {
			src, j = b, i-a.NumFields()
		}
		want, err := src.Field(j)
		require.NoError(t, err)
		got, err := m.Field(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// inputs untouched
	assert.Equal(t, 1, a.NumFields())
	assert.Equal(t, 2, b.NumFields())
}

func TestMerge_DuplicateNames(t *testing.T) {
	a := MustTupleDesc([]FieldType{TypeInt}, Names("id"))
	b := MustTupleDesc([]FieldType{TypeBigInt}, Names("id"))

	m := Merge(a, b)
	i, err := m.IndexOf("id")
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	assert.Equal(t, 12, m.Size())
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	a := MustTupleDesc([]FieldType{TypeInt, TypeInt}, Names("a", "b"))
	a.fields = a.fields[:1] // leave spare capacity behind the slice
	b := MustTupleDesc([]FieldType{TypeText}, Names("c"))

	m1 := Merge(a, b)
	m2 := Merge(a, MustTupleDesc([]FieldType{TypeBool}, Names("d")))
	assert.Equal(t, "INT(a),TEXT(c)", m1.String())
	assert.Equal(t, "INT(a),BOOL(d)", m2.String())
}

func TestProject(t *testing.T) {
	td := makeUsers(t)

	p, err := td.Project(2, 0)
	require.NoError(t, err)
	assert.Equal(t, "BOOL(active),INT(id)", p.String())

	_, err = td.Project()
	assert.ErrorIs(t, err, ErrInvalidArity)

	_, err = td.Project(0, 3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestEqual_IgnoresNames(t *testing.T) {
	a := MustTupleDesc([]FieldType{TypeInt, TypeText}, Names("a", "b"))
	b := MustTupleDesc([]FieldType{TypeInt, TypeText}, Names("x", "y"))
	swapped := MustTupleDesc([]FieldType{TypeText, TypeInt}, Names("a", "b"))
	shorter := MustTupleDesc([]FieldType{TypeInt}, Names("a"))
	anon, err := NewAnonymousTupleDesc([]FieldType{TypeInt, TypeText})
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.True(t, a.Equal(anon))
	assert.True(t, a.Equal(*b))
	assert.True(t, a.Equal(a))

	assert.False(t, a.Equal(swapped))
	assert.False(t, a.Equal(shorter))
	assert.False(t, shorter.Equal(a))
}

func TestEqual_NonDescriptor(t *testing.T) {
	a := makeUsers(t)
	var nilDesc *TupleDesc

	assert.False(t, a.Equal(nil))
	assert.False(t, a.Equal(nilDesc))
	assert.False(t, a.Equal("INT(id),TEXT(name),BOOL(active)"))
	assert.False(t, a.Equal(42))
}

func TestHash_NilDescriptor(t *testing.T) {
	var nilDesc *TupleDesc
	a := MustTupleDesc([]FieldType{TypeInt}, Names("a"))

	assert.NotPanics(t, func() { _ = nilDesc.Hash() })
	assert.Equal(t, fnv.New64a().Sum64(), nilDesc.Hash())
	assert.NotEqual(t, a.Hash(), nilDesc.Hash())
	assert.False(t, nilDesc.Equal(a))
}

func TestHash_ConsistentWithEqual(t *testing.T) {
	a := MustTupleDesc([]FieldType{TypeInt, TypeText}, Names("a", "b"))
	b := MustTupleDesc([]FieldType{TypeInt, TypeText}, Names("x", "y"))
	anon, err := NewAnonymousTupleDesc([]FieldType{TypeInt, TypeText})
	require.NoError(t, err)
	swapped := MustTupleDesc([]FieldType{TypeText, TypeInt}, Names("a", "b"))

	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, a.Hash(), anon.Hash())
	assert.Equal(t, a.Hash(), a.Hash())
	assert.NotEqual(t, a.Hash(), swapped.Hash())

	m := map[uint64]*TupleDesc{a.Hash(): a}
	got, ok := m[b.Hash()]
	require.True(t, ok)
	assert.True(t, got.Equal(b))
}

func TestAll_Restartable(t *testing.T) {
	td := makeUsers(t)

	collect := func() []FieldDesc {
		var out []FieldDesc
		for i, f := range td.All() {
			assert.Len(t, out, i)
			out = append(out, f)
		}
		return out
	}

	first := collect()
	second := collect()
	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, td.Fields(), first)

	// early break leaves the next traversal intact
	for range td.All() {
		break
	}
	assert.Equal(t, first, collect())
}

func TestFields_ReturnsCopy(t *testing.T) {
	td := makeUsers(t)
	fs := td.Fields()
	fs[0] = FieldDesc{Type: TypeText, Name: Name("evil")}

	f, err := td.Field(0)
	require.NoError(t, err)
	assert.Equal(t, TypeInt, f.Type)
}

func TestString(t *testing.T) {
	td := makeUsers(t)
	assert.Equal(t, "INT(id),TEXT(name),BOOL(active)", td.String())

	single := MustTupleDesc([]FieldType{TypeFloat}, []FieldName{NoName})
	assert.Equal(t, "FLOAT(null)", single.String())

	f, err := td.Field(1)
	require.NoError(t, err)
	assert.Equal(t, "name(TEXT)", f.String())
	assert.Equal(t, "null(INT)", FieldDesc{Type: TypeInt}.String())
}

func TestColumnNames(t *testing.T) {
	td := MustTupleDesc([]FieldType{TypeInt, TypeInt}, []FieldName{Name("a"), NoName})
	assert.Equal(t, []string{"a", "?column?"}, td.ColumnNames())
}
