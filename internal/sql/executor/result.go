package executor

import (
	"strings"

	"github.com/tuannm99/novatuple/internal/record"
)

// Result is the generic query result returned to the caller.
type Result struct {
	Columns []string
	Rows    [][]any

	// For DML:
	AffectedRows int64
}

// columnNames renders desc's names for display. The "table." qualifier is
// dropped unless two output columns would then share a name.
func columnNames(desc *record.TupleDesc) []string {
	names := desc.ColumnNames()
	short := make([]string, len(names))
	count := make(map[string]int, len(names))
	for i, n := range names {
		if _, col, ok := strings.Cut(n, "."); ok {
			short[i] = col
		} else {
			short[i] = n
		}
		count[short[i]]++
	}
	for i := range short {
		if count[short[i]] > 1 {
			short[i] = names[i]
		}
	}
	return short
}

func resultOf(desc *record.TupleDesc, tuples []*record.Tuple) *Result {
	rows := make([][]any, len(tuples))
	for i, t := range tuples {
		rows[i] = t.Values()
	}
	return &Result{
		Columns:      columnNames(desc),
		Rows:         rows,
		AffectedRows: int64(len(rows)),
	}
}
