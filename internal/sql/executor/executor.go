package executor

import (
	"errors"
	"fmt"

	"github.com/tuannm99/novatuple/internal/catalog"
	"github.com/tuannm99/novatuple/internal/gologger"
	"github.com/tuannm99/novatuple/internal/heap"
	"github.com/tuannm99/novatuple/internal/sql/parser"
	"github.com/tuannm99/novatuple/internal/sql/planner"
)

var logger = gologger.NewLogger()

var ErrDuplicateKey = errors.New("executor: duplicate primary key")

// Executor executes plans against a catalog.
type Executor struct {
	Cat *catalog.Catalog
}

func NewExecutor(cat *catalog.Catalog) *Executor {
	return &Executor{Cat: cat}
}

// ExecSQL is the top-level entry: SQL string -> Result.
func (e *Executor) ExecSQL(sql string) (*Result, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	plan, err := planner.BuildPlan(stmt, e.Cat)
	if err != nil {
		return nil, err
	}
	res, err := e.Exec(plan)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("sql", sql).Int64("rows", res.AffectedRows).Msg("statement executed")
	return res, nil
}

// ExecScript runs every statement of script in order and stops at the
// first error.
func (e *Executor) ExecScript(script string) ([]*Result, error) {
	stmts, err := parser.ParseScript(script)
	if err != nil {
		return nil, err
	}
	out := make([]*Result, 0, len(stmts))
	for i, stmt := range stmts {
		plan, err := planner.BuildPlan(stmt, e.Cat)
		if err != nil {
			return out, fmt.Errorf("statement %d: %w", i+1, err)
		}
		res, err := e.Exec(plan)
		if err != nil {
			return out, fmt.Errorf("statement %d: %w", i+1, err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (e *Executor) Exec(p planner.Plan) (*Result, error) {
	switch plan := p.(type) {
	case *planner.CreateTablePlan:
		return e.execCreateTable(plan)
	case *planner.DropTablePlan:
		return e.execDropTable(plan)
	case *planner.DescribePlan:
		return e.execDescribe(plan)
	case *planner.InsertPlan:
		return e.execInsert(plan)
	case *planner.SelectPlan:
		return e.execSelect(plan)
	case *planner.DeletePlan:
		return e.execDelete(plan)
	default:
		return nil, fmt.Errorf("executor: unsupported plan type %T", p)
	}
}

func (e *Executor) execCreateTable(p *planner.CreateTablePlan) (*Result, error) {
	if _, err := e.Cat.CreateTable(p.TableName, p.Desc, p.PrimaryKey); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: 0}, nil
}

func (e *Executor) execDropTable(p *planner.DropTablePlan) (*Result, error) {
	if err := e.Cat.DropTable(p.TableName); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: 0}, nil
}

// execDescribe lists one row per field: name, type, width and offset.
func (e *Executor) execDescribe(p *planner.DescribePlan) (*Result, error) {
	desc := p.Table.Desc
	res := &Result{Columns: []string{"column", "type", "width", "offset", "key"}}
	for i, f := range desc.All() {
		off, err := desc.Offset(i)
		if err != nil {
			return nil, err
		}
		name := f.Name.Or("")
		key := ""
		if name == p.Table.PrimaryKey {
			key = "PRI"
		}
		res.Rows = append(res.Rows, []any{name, f.Type.String(), f.Type.Len(), off, key})
	}
	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

func (e *Executor) execInsert(p *planner.InsertPlan) (*Result, error) {
	t := p.Table
	if t.PrimaryKey != "" {
		if err := checkUniqueKey(t, p.Values); err != nil {
			return nil, err
		}
	}

	tid, err := t.File.Insert(p.Values)
	if err != nil {
		return nil, err
	}
	if err := t.File.Flush(); err != nil {
		return nil, err
	}
	logger.Debug().Str("table", t.Name).Str("tid", tid.String()).Msg("row inserted")
	return &Result{AffectedRows: 1}, nil
}

func checkUniqueKey(t *catalog.Table, values []any) error {
	idx, err := t.Desc.IndexOf(t.PrimaryKey)
	if err != nil {
		return err
	}
	key := values[idx]
	errFound := errors.New("found")
	err = t.File.Scan(func(_ heap.TID, row []any) error {
		if row[idx] == key {
			return errFound
		}
		return nil
	})
	if errors.Is(err, errFound) {
		return fmt.Errorf("%w: %s.%s = %v", ErrDuplicateKey, t.Name, t.PrimaryKey, key)
	}
	return err
}

// BuildOperator turns a SelectPlan into an operator tree.
func BuildOperator(p *planner.SelectPlan) (Operator, error) {
	scan, err := NewSeqScan(p.Table.File, planner.Qualify(p.Table.Name, p.Table.Desc))
	if err != nil {
		return nil, err
	}
	var op Operator = scan

	if p.Join != nil {
		inner, err := NewSeqScan(p.Join.Table.File, planner.Qualify(p.Join.Table.Name, p.Join.Table.Desc))
		if err != nil {
			return nil, err
		}
		if op, err = NewNestedLoopJoin(op, inner, p.Join.LeftIndex, p.Join.RightIndex); err != nil {
			return nil, err
		}
	}

	if p.Filter != nil {
		if op, err = NewFilter(op, p.Filter.Index, p.Filter.Value); err != nil {
			return nil, err
		}
	}

	if p.Projection != nil {
		if op, err = NewProject(op, p.Projection); err != nil {
			return nil, err
		}
	}
	return op, nil
}

func (e *Executor) execSelect(p *planner.SelectPlan) (*Result, error) {
	op, err := BuildOperator(p)
	if err != nil {
		return nil, err
	}
	tuples, err := Drain(op)
	if err != nil {
		return nil, err
	}
	return resultOf(op.TupleDesc(), tuples), nil
}

func (e *Executor) execDelete(p *planner.DeletePlan) (*Result, error) {
	t := p.Table

	var victims []heap.TID
	err := t.File.Scan(func(id heap.TID, row []any) error {
		if p.Filter == nil || row[p.Filter.Index] == p.Filter.Value {
			victims = append(victims, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, id := range victims {
		if err := t.File.Delete(id); err != nil {
			return nil, err
		}
	}
	if err := t.File.Flush(); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: int64(len(victims))}, nil
}
