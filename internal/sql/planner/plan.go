package planner

import (
	"github.com/tuannm99/novatuple/internal/catalog"
	"github.com/tuannm99/novatuple/internal/record"
)

// Plan is the interface for executable plans.
type Plan interface {
	planNode()
}

// ----- Plan nodes -----

type CreateTablePlan struct {
	TableName  string
	Desc       *record.TupleDesc
	PrimaryKey string
}

func (*CreateTablePlan) planNode() {}

type DropTablePlan struct {
	TableName string
}

func (*DropTablePlan) planNode() {}

type DescribePlan struct {
	Table *catalog.Table
}

func (*DescribePlan) planNode() {}

// InsertPlan carries values already coerced to the table's field types.
type InsertPlan struct {
	Table  *catalog.Table
	Values []any
}

func (*InsertPlan) planNode() {}

// Predicate keeps rows whose field Index equals Value.
type Predicate struct {
	Index int
	Value any
}

// JoinSpec is an equi-join with a second table. LeftIndex is a position in
// the outer input, RightIndex a position in the inner table.
type JoinSpec struct {
	Table      *catalog.Table
	LeftIndex  int
	RightIndex int
}

// SelectPlan is scan -> [join] -> [filter] -> project.
type SelectPlan struct {
	Table *catalog.Table
	Join  *JoinSpec

	// Input is the qualified descriptor the filter and projection index into.
	Input  *record.TupleDesc
	Filter *Predicate

	// Projection is nil for SELECT *.
	Projection []int
	Output     *record.TupleDesc
}

func (*SelectPlan) planNode() {}

type DeletePlan struct {
	Table  *catalog.Table
	Filter *Predicate
}

func (*DeletePlan) planNode() {}
