package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novatuple/internal/heap"
	"github.com/tuannm99/novatuple/internal/record"
	"github.com/tuannm99/novatuple/internal/storage"
)

func newTestCatalog(t *testing.T, dir string) *Catalog {
	t.Helper()
	sm, err := storage.NewStorageManager(storage.DefaultPageSize)
	require.NoError(t, err)
	return New(dir, sm, storage.NewLayoutCache(8), 8)
}

func usersDesc() *record.TupleDesc {
	return record.MustTupleDesc(
		[]record.FieldType{record.TypeInt, record.TypeText},
		record.Names("id", "name"),
	)
}

func TestCatalog_CreateAndLookup(t *testing.T) {
	c := newTestCatalog(t, t.TempDir())

	tbl, err := c.CreateTable("users", usersDesc(), "id")
	require.NoError(t, err)
	assert.Equal(t, TableID("users"), tbl.ID)
	assert.Equal(t, "id", tbl.PrimaryKey)

	got, err := c.Table("users")
	require.NoError(t, err)
	assert.Same(t, tbl, got)

	byID, err := c.TableByID(tbl.ID)
	require.NoError(t, err)
	assert.Same(t, tbl, byID)

	desc, err := c.TupleDesc("users")
	require.NoError(t, err)
	assert.Equal(t, "INT(id),TEXT(name)", desc.String())

	_, err = c.Table("nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = c.TableByID(TableID("nope"))
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = c.CreateTable("users", usersDesc(), "")
	assert.ErrorIs(t, err, ErrTableExists)
}

func TestCatalog_ValidatesColumns(t *testing.T) {
	c := newTestCatalog(t, t.TempDir())

	anon, err := record.NewAnonymousTupleDesc([]record.FieldType{record.TypeInt})
	require.NoError(t, err)
	_, err = c.CreateTable("a", anon, "")
	assert.ErrorIs(t, err, ErrAnonymousColumn)

	dup := record.MustTupleDesc([]record.FieldType{record.TypeInt, record.TypeInt}, record.Names("x", "x"))
	_, err = c.CreateTable("d", dup, "")
	assert.ErrorIs(t, err, ErrDuplicateColumn)

	_, err = c.CreateTable("u", usersDesc(), "email")
	assert.ErrorIs(t, err, ErrUnknownPrimaryKey)

	assert.Empty(t, c.TableNames())
}

func TestCatalog_AddTableReplaces(t *testing.T) {
	c := newTestCatalog(t, t.TempDir())

	_, err := c.AddTable("t", usersDesc(), "")
	require.NoError(t, err)

	other := record.MustTupleDesc([]record.FieldType{record.TypeBool}, record.Names("flag"))
	_, err = c.AddTable("t", other, "")
	require.NoError(t, err)

	desc, err := c.TupleDesc("t")
	require.NoError(t, err)
	assert.True(t, desc.Equal(other))
	assert.Equal(t, []string{"t"}, c.TableNames())
}

func TestCatalog_AddTableKeepsStoredRows(t *testing.T) {
	c := newTestCatalog(t, t.TempDir())

	pair := record.MustTupleDesc([]record.FieldType{record.TypeInt, record.TypeInt}, record.Names("a", "b"))
	tbl, err := c.CreateTable("t", pair, "")
	require.NoError(t, err)
	_, err = tbl.File.Insert([]any{7, 9})
	require.NoError(t, err)
	require.NoError(t, tbl.File.Flush())

	wide := record.MustTupleDesc([]record.FieldType{record.TypeBigInt}, record.Names("x"))
	_, err = c.AddTable("t", wide, "")
	require.ErrorIs(t, err, ErrSchemaMismatch)

	// the original definition is still registered and readable
	got, err := c.Table("t")
	require.NoError(t, err)
	assert.Same(t, tbl, got)
	row, err := got.File.Get(heap.TID{PageID: 0, Slot: 0})
	require.NoError(t, err)
	assert.Equal(t, []any{int32(7), int32(9)}, row)

	// renaming columns keeps the types, so it is allowed and sees the rows
	renamed := record.MustTupleDesc([]record.FieldType{record.TypeInt, record.TypeInt}, record.Names("left", "right"))
	tbl2, err := c.AddTable("t", renamed, "")
	require.NoError(t, err)
	row, err = tbl2.File.Get(heap.TID{PageID: 0, Slot: 0})
	require.NoError(t, err)
	assert.Equal(t, []any{int32(7), int32(9)}, row)
}

func TestCatalog_LoadSchemaRejectsChangedStoredTable(t *testing.T) {
	dir := t.TempDir()
	c := newTestCatalog(t, dir)
	tbl, err := c.CreateTable("users", usersDesc(), "id")
	require.NoError(t, err)
	_, err = tbl.File.Insert([]any{1, "ann"})
	require.NoError(t, err)
	require.NoError(t, c.Flush())

	schema := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(schema, []byte("CREATE TABLE users (id BIGINT, name TEXT);\n"), 0o644))

	reopened := newTestCatalog(t, dir)
	require.NoError(t, reopened.Open())
	require.ErrorIs(t, reopened.LoadSchema(schema), ErrSchemaMismatch)

	desc, err := reopened.TupleDesc("users")
	require.NoError(t, err)
	assert.Equal(t, "INT(id),TEXT(name)", desc.String())
}

func TestCatalog_PersistAndReopen(t *testing.T) {
	dir := t.TempDir()
	c := newTestCatalog(t, dir)

	tbl, err := c.CreateTable("users", usersDesc(), "id")
	require.NoError(t, err)
	_, err = tbl.File.Insert([]any{1, "ann"})
	require.NoError(t, err)
	_, err = c.CreateTable("flags", record.MustTupleDesc([]record.FieldType{record.TypeBool}, record.Names("enabled")), "")
	require.NoError(t, err)
	require.NoError(t, c.Flush())

	data, err := os.ReadFile(filepath.Join(dir, catalogFile))
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE flags (enabled BOOL);\nCREATE TABLE users (id INT PRIMARY KEY, name TEXT);\n",
		string(data))

	reopened := newTestCatalog(t, dir)
	require.NoError(t, reopened.Open())
	assert.Equal(t, []string{"flags", "users"}, reopened.TableNames())

	users, err := reopened.Table("users")
	require.NoError(t, err)
	assert.Equal(t, tbl.ID, users.ID)
	assert.Equal(t, "id", users.PrimaryKey)

	var rows [][]any
	require.NoError(t, users.File.Scan(func(_ heap.TID, row []any) error {
		rows = append(rows, row)
		return nil
	}))
	assert.Equal(t, [][]any{{int32(1), "ann"}}, rows)
}

func TestCatalog_OpenEmptyDir(t *testing.T) {
	c := newTestCatalog(t, t.TempDir())
	require.NoError(t, c.Open())
	assert.Empty(t, c.TableNames())
}

func TestCatalog_DropTable(t *testing.T) {
	dir := t.TempDir()
	c := newTestCatalog(t, dir)

	tbl, err := c.CreateTable("users", usersDesc(), "")
	require.NoError(t, err)
	_, err = tbl.File.Insert([]any{1, "ann"})
	require.NoError(t, err)
	require.NoError(t, tbl.File.Flush())

	require.NoError(t, c.DropTable("users"))
	_, err = c.Table("users")
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = os.Stat(filepath.Join(dir, "tables", "users"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.ErrorIs(t, c.DropTable("users"), ErrTableNotFound)
}

func TestCatalog_LoadSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte(`
-- test schema
CREATE TABLE users (id INT PRIMARY KEY, name TEXT);
CREATE TABLE orders (id BIGINT, user_id INT, total FLOAT);
CREATE TABLE users (id INT, name TEXT, active BOOL);
`), 0o644))

	c := newTestCatalog(t, filepath.Join(dir, "data"))
	require.NoError(t, c.LoadSchema(path))
	assert.Equal(t, []string{"orders", "users"}, c.TableNames())

	users, err := c.TupleDesc("users")
	require.NoError(t, err)
	assert.Equal(t, "INT(id),TEXT(name),BOOL(active)", users.String(), "later definition wins")

	orders, err := c.TupleDesc("orders")
	require.NoError(t, err)
	assert.Equal(t, 8+4+8, orders.Size())
}

func TestCatalog_LoadSchema_Errors(t *testing.T) {
	dir := t.TempDir()
	c := newTestCatalog(t, dir)

	write := func(body string) string {
		p := filepath.Join(dir, "s.sql")
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	require.ErrorIs(t, c.LoadSchema(write("CREATE TABLE t (a JSONB);")), record.ErrUnknownType)
	require.Error(t, c.LoadSchema(write("SELECT * FROM t;")))
	require.Error(t, c.LoadSchema(filepath.Join(dir, "missing.sql")))
}

func TestCatalog_ConcurrentReads(t *testing.T) {
	c := newTestCatalog(t, t.TempDir())
	_, err := c.CreateTable("users", usersDesc(), "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			desc, err := c.TupleDesc("users")
			assert.NoError(t, err)
			assert.Equal(t, 132, desc.Size())
		}()
	}
	wg.Wait()
}

func TestCreateTableSQL(t *testing.T) {
	assert.Equal(t,
		"CREATE TABLE users (id INT, name TEXT PRIMARY KEY);",
		CreateTableSQL("users", usersDesc(), "name"))
}
