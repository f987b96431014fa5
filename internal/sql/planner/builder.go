package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tuannm99/novatuple/internal/catalog"
	"github.com/tuannm99/novatuple/internal/record"
	"github.com/tuannm99/novatuple/internal/sql/parser"
)

var (
	ErrUnknownColumn   = errors.New("planner: unknown column")
	ErrAmbiguousColumn = errors.New("planner: ambiguous column")
	ErrSelfJoin        = errors.New("planner: self join is not supported")
)

// Catalog is the part of the catalog the planner reads.
type Catalog interface {
	Table(name string) (*catalog.Table, error)
}

// BuildPlan binds an AST Statement against cat.
func BuildPlan(stmt parser.Statement, cat Catalog) (Plan, error) {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return buildCreateTablePlan(s)
	case *parser.DropTableStmt:
		return &DropTablePlan{TableName: s.TableName}, nil
	case *parser.DescribeStmt:
		t, err := cat.Table(s.TableName)
		if err != nil {
			return nil, err
		}
		return &DescribePlan{Table: t}, nil
	case *parser.InsertStmt:
		return buildInsertPlan(s, cat)
	case *parser.SelectStmt:
		return buildSelectPlan(s, cat)
	case *parser.DeleteStmt:
		return buildDeletePlan(s, cat)
	default:
		return nil, fmt.Errorf("planner: unsupported statement type %T", stmt)
	}
}

func buildCreateTablePlan(s *parser.CreateTableStmt) (Plan, error) {
	desc, err := catalog.DescFromColumns(s.Columns)
	if err != nil {
		return nil, fmt.Errorf("planner: create table %s: %w", s.TableName, err)
	}
	return &CreateTablePlan{TableName: s.TableName, Desc: desc, PrimaryKey: s.PrimaryKey}, nil
}

func buildInsertPlan(s *parser.InsertStmt, cat Catalog) (Plan, error) {
	t, err := cat.Table(s.TableName)
	if err != nil {
		return nil, err
	}
	if len(s.Values) != t.Desc.NumFields() {
		return nil, fmt.Errorf("%w: table %s has %d columns, got %d values",
			record.ErrInvalidArity, t.Name, t.Desc.NumFields(), len(s.Values))
	}

	vals := make([]any, len(s.Values))
	for i, expr := range s.Values {
		lit, ok := expr.(*parser.LiteralExpr)
		if !ok {
			return nil, fmt.Errorf("planner: only literal values are supported, got %T", expr)
		}
		ft, _ := t.Desc.FieldType(i)
		v, err := record.Coerce(ft, lit.Value)
		if err != nil {
			name, _ := t.Desc.FieldName(i)
			return nil, fmt.Errorf("planner: column %s: %w", name, err)
		}
		vals[i] = v
	}
	return &InsertPlan{Table: t, Values: vals}, nil
}

func buildSelectPlan(s *parser.SelectStmt, cat Catalog) (Plan, error) {
	t, err := cat.Table(s.TableName)
	if err != nil {
		return nil, err
	}
	plan := &SelectPlan{Table: t, Input: Qualify(t.Name, t.Desc)}

	if s.Join != nil {
		if s.Join.TableName == t.Name {
			return nil, fmt.Errorf("%w: %s", ErrSelfJoin, t.Name)
		}
		inner, err := cat.Table(s.Join.TableName)
		if err != nil {
			return nil, err
		}
		outerDesc := plan.Input
		innerDesc := Qualify(inner.Name, inner.Desc)
		merged := record.Merge(outerDesc, innerDesc)

		l, err := Resolve(merged, s.Join.Left)
		if err != nil {
			return nil, err
		}
		r, err := Resolve(merged, s.Join.Right)
		if err != nil {
			return nil, err
		}
		// ON may name the inner column first.
		if l >= outerDesc.NumFields() {
			l, r = r, l
		}
		if l >= outerDesc.NumFields() || r < outerDesc.NumFields() {
			return nil, fmt.Errorf("planner: JOIN ON %s = %s must compare %s with %s",
				s.Join.Left, s.Join.Right, t.Name, inner.Name)
		}
		lt, _ := merged.FieldType(l)
		rt, _ := merged.FieldType(r)
		if lt != rt {
			return nil, fmt.Errorf("%w: cannot join %s with %s", record.ErrTypeMismatch, lt, rt)
		}

		plan.Join = &JoinSpec{Table: inner, LeftIndex: l, RightIndex: r - outerDesc.NumFields()}
		plan.Input = merged
	}

	if s.Where != nil {
		p, err := bindPredicate(plan.Input, s.Where)
		if err != nil {
			return nil, err
		}
		plan.Filter = p
	}

	plan.Output = plan.Input
	if s.Columns != nil {
		idx := make([]int, len(s.Columns))
		for i, ref := range s.Columns {
			if idx[i], err = Resolve(plan.Input, ref); err != nil {
				return nil, err
			}
		}
		out, err := plan.Input.Project(idx...)
		if err != nil {
			return nil, err
		}
		plan.Projection = idx
		plan.Output = out
	}
	return plan, nil
}

func buildDeletePlan(s *parser.DeleteStmt, cat Catalog) (Plan, error) {
	t, err := cat.Table(s.TableName)
	if err != nil {
		return nil, err
	}
	plan := &DeletePlan{Table: t}
	if s.Where != nil {
		p, err := bindPredicate(Qualify(t.Name, t.Desc), s.Where)
		if err != nil {
			return nil, err
		}
		plan.Filter = p
	}
	return plan, nil
}

func bindPredicate(desc *record.TupleDesc, w *parser.WhereEq) (*Predicate, error) {
	i, err := Resolve(desc, w.Column)
	if err != nil {
		return nil, err
	}
	ft, _ := desc.FieldType(i)
	v, err := record.Coerce(ft, w.Value.Value)
	if err != nil {
		return nil, fmt.Errorf("planner: WHERE %s: %w", w.Column, err)
	}
	return &Predicate{Index: i, Value: v}, nil
}

// Qualify returns desc with every field renamed to "table.column".
func Qualify(table string, desc *record.TupleDesc) *record.TupleDesc {
	fields := desc.Fields()
	for i, f := range fields {
		if name, ok := f.Name.Get(); ok {
			fields[i].Name = record.Name(table + "." + name)
		}
	}
	out, err := record.NewTupleDescFromFields(fields)
	if err != nil {
		// fields came from a valid descriptor
		panic(err)
	}
	return out
}

// Resolve finds ref in a qualified descriptor. A bare column matches any
// table's column of that name and must match exactly one.
func Resolve(desc *record.TupleDesc, ref parser.ColumnRef) (int, error) {
	if ref.Table != "" {
		i, err := desc.IndexOf(ref.String())
		if err != nil {
			return -1, fmt.Errorf("%w: %s", ErrUnknownColumn, ref)
		}
		return i, nil
	}

	found := -1
	for i, f := range desc.All() {
		name, ok := f.Name.Get()
		if !ok {
			continue
		}
		if name != ref.Column && !strings.HasSuffix(name, "."+ref.Column) {
			continue
		}
		if found >= 0 {
			return -1, fmt.Errorf("%w: %s", ErrAmbiguousColumn, ref)
		}
		found = i
	}
	if found < 0 {
		return -1, fmt.Errorf("%w: %s", ErrUnknownColumn, ref)
	}
	return found, nil
}
