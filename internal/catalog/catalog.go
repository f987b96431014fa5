package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tuannm99/novatuple/internal/gologger"
	"github.com/tuannm99/novatuple/internal/heap"
	"github.com/tuannm99/novatuple/internal/record"
	"github.com/tuannm99/novatuple/internal/sql/parser"
	"github.com/tuannm99/novatuple/internal/storage"
)

var logger = gologger.NewLogger()

var (
	ErrTableNotFound     = errors.New("catalog: table not found")
	ErrTableExists       = errors.New("catalog: table already exists")
	ErrAnonymousColumn   = errors.New("catalog: table columns must be named")
	ErrDuplicateColumn   = errors.New("catalog: duplicate column name")
	ErrUnknownPrimaryKey = errors.New("catalog: primary key is not a column")
	ErrSchemaMismatch    = errors.New("catalog: stored rows do not match the new schema")
)

// catalogFile is the DDL log rewritten on every CREATE/DROP.
const catalogFile = "catalog.sql"

// Table is one registered relation.
type Table struct {
	ID         uuid.UUID
	Name       string
	Desc       *record.TupleDesc
	PrimaryKey string
	File       *heap.HeapFile
}

// Catalog maps table names and IDs to their descriptor and heap file.
// It is safe for concurrent use.
type Catalog struct {
	dataDir      string
	sm           *storage.StorageManager
	layouts      *storage.LayoutCache
	poolCapacity int

	mu     sync.RWMutex
	byName map[string]*Table
	byID   map[uuid.UUID]*Table
}

func New(dataDir string, sm *storage.StorageManager, layouts *storage.LayoutCache, poolCapacity int) *Catalog {
	return &Catalog{
		dataDir:      dataDir,
		sm:           sm,
		layouts:      layouts,
		poolCapacity: poolCapacity,
		byName:       make(map[string]*Table),
		byID:         make(map[uuid.UUID]*Table),
	}
}

// TableID is derived from the table name, so a table keeps its ID across
// restarts.
func TableID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("novatuple.table."+name))
}

func (c *Catalog) tableDir() string { return filepath.Join(c.dataDir, "tables") }

func (c *Catalog) fileSet(name string) storage.LocalFileSet {
	return storage.LocalFileSet{Dir: c.tableDir(), Base: name}
}

func validateColumns(desc *record.TupleDesc, pk string) error {
	seen := make(map[string]bool, desc.NumFields())
	for i, f := range desc.All() {
		name, ok := f.Name.Get()
		if !ok {
			return fmt.Errorf("%w: field %d", ErrAnonymousColumn, i)
		}
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		seen[name] = true
	}
	if pk != "" && !seen[pk] {
		return fmt.Errorf("%w: %q", ErrUnknownPrimaryKey, pk)
	}
	return nil
}

// CreateTable registers a new table and opens its heap file.
func (c *Catalog) CreateTable(name string, desc *record.TupleDesc, pk string) (*Table, error) {
	if err := validateColumns(desc, pk); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	t, err := c.openLocked(name, desc, pk)
	if err != nil {
		return nil, err
	}
	if err := c.persistLocked(); err != nil {
		c.forgetLocked(t)
		return nil, err
	}
	return t, nil
}

// AddTable registers a table, replacing any previous table of that name.
// A table that already holds pages can only be redefined with an Equal
// descriptor; anything else fails with ErrSchemaMismatch.
func (c *Catalog) AddTable(name string, desc *record.TupleDesc, pk string) (*Table, error) {
	if err := validateColumns(desc, pk); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.byName[name]; ok {
		if !old.Desc.Equal(desc) && old.File.NumPages() > 0 {
			return nil, fmt.Errorf("%w: %s is stored as %s, cannot redefine as %s",
				ErrSchemaMismatch, name, old.Desc, desc)
		}
		if err := old.File.Flush(); err != nil {
			return nil, fmt.Errorf("catalog: redefine %s: %w", name, err)
		}
		c.forgetLocked(old)
	}
	t, err := c.openLocked(name, desc, pk)
	if err != nil {
		return nil, err
	}
	if err := c.persistLocked(); err != nil {
		return nil, err
	}
	return t, nil
}

func (c *Catalog) openLocked(name string, desc *record.TupleDesc, pk string) (*Table, error) {
	f, err := heap.OpenHeapFile(name, desc, c.sm, c.fileSet(name), c.layouts, c.poolCapacity)
	if err != nil {
		return nil, err
	}
	t := &Table{ID: TableID(name), Name: name, Desc: desc, PrimaryKey: pk, File: f}
	c.byName[name] = t
	c.byID[t.ID] = t

	logger.Debug().Str("table", name).Str("id", t.ID.String()).Str("schema", desc.String()).Msg("table registered")
	return t, nil
}

func (c *Catalog) forgetLocked(t *Table) {
	delete(c.byName, t.Name)
	delete(c.byID, t.ID)
}

// DropTable unregisters name and removes its data files.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	c.forgetLocked(t)
	if err := storage.RemoveAllSegments(c.fileSet(name)); err != nil {
		return fmt.Errorf("catalog: drop %s: %w", name, err)
	}
	return c.persistLocked()
}

func (c *Catalog) Table(name string) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return t, nil
}

func (c *Catalog) TableByID(id uuid.UUID) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %s", ErrTableNotFound, id)
	}
	return t, nil
}

func (c *Catalog) TupleDesc(name string) (*record.TupleDesc, error) {
	t, err := c.Table(name)
	if err != nil {
		return nil, err
	}
	return t.Desc, nil
}

// TableNames returns registered names in sorted order.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.byName))
	for n := range c.byName {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Flush writes every table's dirty pages.
func (c *Catalog) Flush() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []error
	for _, t := range c.byName {
		if err := t.File.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}

// CreateTableSQL renders the DDL for a table.
func CreateTableSQL(name string, desc *record.TupleDesc, pk string) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(name)
	sb.WriteString(" (")
	for i, f := range desc.All() {
		if i > 0 {
			sb.WriteString(", ")
		}
		col := f.Name.Or("")
		sb.WriteString(col)
		sb.WriteByte(' ')
		sb.WriteString(f.Type.String())
		if col == pk {
			sb.WriteString(" PRIMARY KEY")
		}
	}
	sb.WriteString(");")
	return sb.String()
}

func (c *Catalog) persistLocked() error {
	names := make([]string, 0, len(c.byName))
	for n := range c.byName {
		names = append(names, n)
	}
	slices.Sort(names)

	var sb strings.Builder
	for _, n := range names {
		t := c.byName[n]
		sb.WriteString(CreateTableSQL(t.Name, t.Desc, t.PrimaryKey))
		sb.WriteByte('\n')
	}

	if err := os.MkdirAll(c.dataDir, storage.FileMode0755); err != nil {
		return fmt.Errorf("catalog: persist: %w", err)
	}
	tmp := filepath.Join(c.dataDir, catalogFile+".tmp")
	if err := os.WriteFile(tmp, []byte(sb.String()), storage.FileMode0644); err != nil {
		return fmt.Errorf("catalog: persist: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(c.dataDir, catalogFile)); err != nil {
		return fmt.Errorf("catalog: persist: %w", err)
	}
	return nil
}

// Open reloads the tables recorded in the data directory, if any.
func (c *Catalog) Open() error {
	path := filepath.Join(c.dataDir, catalogFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return c.LoadSchema(path)
}

// LoadSchema registers every CREATE TABLE statement found in path. Later
// definitions of the same name replace earlier ones.
func (c *Catalog) LoadSchema(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("catalog: load schema: %w", err)
	}
	stmts, err := parser.ParseScript(string(data))
	if err != nil {
		return fmt.Errorf("catalog: load schema %s: %w", path, err)
	}

	n := 0
	for _, st := range stmts {
		ct, ok := st.(*parser.CreateTableStmt)
		if !ok {
			return fmt.Errorf("catalog: load schema %s: only CREATE TABLE is allowed, got %T", path, st)
		}
		desc, err := DescFromColumns(ct.Columns)
		if err != nil {
			return fmt.Errorf("catalog: table %s: %w", ct.TableName, err)
		}
		if _, err := c.AddTable(ct.TableName, desc, ct.PrimaryKey); err != nil {
			return err
		}
		n++
	}
	logger.Info().Str("path", path).Int("tables", n).Msg("schema loaded")
	return nil
}

// DescFromColumns binds parsed column definitions to a TupleDesc.
func DescFromColumns(cols []parser.ColumnDef) (*record.TupleDesc, error) {
	types := make([]record.FieldType, len(cols))
	names := make([]record.FieldName, len(cols))
	for i, col := range cols {
		ft, err := record.ParseFieldType(col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		types[i] = ft
		names[i] = record.Name(col.Name)
	}
	return record.NewTupleDesc(types, names)
}
