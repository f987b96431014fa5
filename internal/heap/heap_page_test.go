package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novatuple/internal/record"
	"github.com/tuannm99/novatuple/internal/storage"
)

// usersDesc is (id BIGINT, name TEXT, active BOOL): 137 bytes per tuple.
func usersDesc() *record.TupleDesc {
	return record.MustTupleDesc(
		[]record.FieldType{record.TypeBigInt, record.TypeText, record.TypeBool},
		record.Names("id", "name", "active"),
	)
}

// newTestHeapPage creates an empty page for HeapPage tests.
func newTestHeapPage(t *testing.T, pageSize int) *HeapPage {
	t.Helper()

	p := &storage.Page{ID: 0, Buf: make([]byte, pageSize)}
	hp, err := NewHeapPage(p, storage.NewLayout(usersDesc()))
	require.NoError(t, err)
	return hp
}

func TestNumSlots(t *testing.T) {
	// 4096*8 / (132*8+1) = 32768 / 1057
	require.Equal(t, 31, NumSlots(4096, 132))
	require.Equal(t, 0, NumSlots(100, 132))
}

func TestHeapPage_InsertAndRead(t *testing.T) {
	hp := newTestHeapPage(t, 4096)
	require.Equal(t, NumSlots(4096, 137), hp.NumSlots())
	require.Equal(t, hp.NumSlots(), hp.NumEmptySlots())

	slot, err := hp.InsertTuple([]any{int64(1), "user-1", true})
	require.NoError(t, err)
	require.Equal(t, 0, slot)
	require.True(t, hp.IsUsed(0))

	row, err := hp.ReadTuple(slot)
	require.NoError(t, err)
	require.Equal(t, []any{int64(1), "user-1", true}, row)
	require.Equal(t, hp.NumSlots()-1, hp.NumEmptySlots())
}

func TestHeapPage_FillUntilFull(t *testing.T) {
	hp := newTestHeapPage(t, storage.MinPageSize)
	n := hp.NumSlots()
	require.Equal(t, 3, n)

	for i := 0; i < n; i++ {
		_, err := hp.InsertTuple([]any{int64(i), "x", false})
		require.NoError(t, err)
	}
	_, err := hp.InsertTuple([]any{int64(99), "x", false})
	require.ErrorIs(t, err, ErrPageFull)
	require.Equal(t, 0, hp.NumEmptySlots())
}

func TestHeapPage_DeleteReusesSlot(t *testing.T) {
	hp := newTestHeapPage(t, 4096)

	for i := 0; i < 3; i++ {
		_, err := hp.InsertTuple([]any{int64(i), "u", true})
		require.NoError(t, err)
	}
	require.NoError(t, hp.DeleteTuple(1))

	_, err := hp.ReadTuple(1)
	require.ErrorIs(t, err, ErrSlotEmpty)
	require.ErrorIs(t, hp.DeleteTuple(1), ErrSlotEmpty)

	slot, err := hp.InsertTuple([]any{int64(10), "again", false})
	require.NoError(t, err)
	require.Equal(t, 1, slot)
}

func TestHeapPage_BadSlotAndValues(t *testing.T) {
	hp := newTestHeapPage(t, 4096)

	_, err := hp.ReadTuple(-1)
	require.ErrorIs(t, err, ErrSlotOutOfRange)
	require.ErrorIs(t, hp.DeleteTuple(hp.NumSlots()), ErrSlotOutOfRange)

	_, err = hp.InsertTuple([]any{"nope", "u", true})
	require.ErrorIs(t, err, storage.ErrSchemaMismatch)
	require.Equal(t, hp.NumSlots(), hp.NumEmptySlots(), "failed insert leaves slot free")
}

func TestHeapPage_Scan(t *testing.T) {
	hp := newTestHeapPage(t, 4096)
	for i := 0; i < 4; i++ {
		_, err := hp.InsertTuple([]any{int64(i), "u", true})
		require.NoError(t, err)
	}
	require.NoError(t, hp.DeleteTuple(2))

	var ids []int64
	require.NoError(t, hp.Scan(func(slot int, row []any) error {
		ids = append(ids, row[0].(int64))
		return nil
	}))
	require.Equal(t, []int64{0, 1, 3}, ids)
}

func TestNewHeapPage_TupleTooLarge(t *testing.T) {
	p := &storage.Page{Buf: make([]byte, 100)}
	_, err := NewHeapPage(p, storage.NewLayout(usersDesc()))
	require.ErrorIs(t, err, ErrTupleTooLarge)
}
