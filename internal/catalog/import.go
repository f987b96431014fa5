package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/tuannm99/novatuple/internal/record"
	"github.com/tuannm99/novatuple/internal/sql/parser"
)

// Dialect names an external database whose column metadata can be imported.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

var ErrUnsupportedDialect = errors.New("catalog: unsupported dialect")

func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(s); d {
	case SQLite, Postgres, MySQL:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, s)
}

// OpenExternal opens a database/sql handle for d. The driver name matches
// the dialect name.
func OpenExternal(d Dialect, dsn string) (*sql.DB, error) {
	if _, err := ParseDialect(string(d)); err != nil {
		return nil, err
	}
	db, err := sql.Open(string(d), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d, err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func columnsQuery(d Dialect) (string, error) {
	switch d {
	case SQLite:
		return `SELECT name, type, pk FROM pragma_table_info(?) ORDER BY cid`, nil
	case Postgres:
		return `SELECT c.column_name, c.data_type,
       EXISTS (
         SELECT 1 FROM information_schema.table_constraints tc
         JOIN information_schema.key_column_usage k
           ON k.constraint_name = tc.constraint_name AND k.table_name = tc.table_name
         WHERE tc.constraint_type = 'PRIMARY KEY'
           AND tc.table_name = c.table_name AND k.column_name = c.column_name
       )::int
FROM information_schema.columns c
WHERE c.table_name = $1 AND c.table_schema = current_schema()
ORDER BY c.ordinal_position`, nil
	case MySQL:
		return `SELECT column_name, data_type, column_key = 'PRI'
FROM information_schema.columns
WHERE table_name = ? AND table_schema = DATABASE()
ORDER BY ordinal_position`, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, string(d))
	}
}

// Imported is a table definition read from an external database.
type Imported struct {
	Desc       *record.TupleDesc
	PrimaryKey string
}

// Import reads the column list of table from db and maps every declared
// type onto a field type. A type outside the supported set fails with
// record.ErrUnknownType; a missing table fails with ErrTableNotFound.
func Import(ctx context.Context, db *sql.DB, d Dialect, table string) (*Imported, error) {
	q, err := columnsQuery(d)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: import %s: %w", table, err)
	}
	defer rows.Close()

	var (
		cols []parser.ColumnDef
		pk   string
	)
	for rows.Next() {
		var (
			name, typ string
			isPK      int
		)
		if err := rows.Scan(&name, &typ, &isPK); err != nil {
			return nil, fmt.Errorf("catalog: import %s: %w", table, err)
		}
		cols = append(cols, parser.ColumnDef{Name: name, Type: typ})
		if isPK > 0 && pk == "" {
			pk = name
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: import %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrTableNotFound, table, d)
	}

	desc, err := DescFromColumns(cols)
	if err != nil {
		return nil, fmt.Errorf("catalog: import %s: %w", table, err)
	}
	return &Imported{Desc: desc, PrimaryKey: pk}, nil
}

// ImportTable imports table from db and registers it under the same name.
func (c *Catalog) ImportTable(ctx context.Context, db *sql.DB, d Dialect, table string) (*Table, error) {
	imp, err := Import(ctx, db, d, table)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("table", table).Str("dialect", string(d)).Str("schema", imp.Desc.String()).Msg("table imported")
	return c.AddTable(table, imp.Desc, imp.PrimaryKey)
}
