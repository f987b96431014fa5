package parser

// Statement is the root interface for all SQL statements.
type Statement interface {
	stmtNode()
}

// ----- CREATE TABLE -----
type ColumnDef struct {
	Name string
	Type string // "INT", "TEXT", ...; mapped onto a field type by the planner
}

type CreateTableStmt struct {
	TableName  string
	Columns    []ColumnDef
	PrimaryKey string // "" when none was declared
}

func (*CreateTableStmt) stmtNode() {}

type DropTableStmt struct {
	TableName string
}

func (*DropTableStmt) stmtNode() {}

type DescribeStmt struct {
	TableName string
}

func (*DescribeStmt) stmtNode() {}

// ----- INSERT -----
type InsertStmt struct {
	TableName string
	Values    []Expr // only constant expr for now
}

func (*InsertStmt) stmtNode() {}

// ----- SELECT -----

// ColumnRef names a column, optionally qualified by its table.
type ColumnRef struct {
	Table  string
	Column string
}

func (c ColumnRef) String() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

type JoinClause struct {
	TableName string
	Left      ColumnRef
	Right     ColumnRef
}

type WhereEq struct {
	Column ColumnRef
	Value  *LiteralExpr
}

type SelectStmt struct {
	Columns   []ColumnRef // nil => *
	TableName string
	Join      *JoinClause
	Where     *WhereEq
}

func (*SelectStmt) stmtNode() {}

// ----- DELETE -----
type DeleteStmt struct {
	TableName string
	Where     *WhereEq
}

func (*DeleteStmt) stmtNode() {}

// ----- Expressions -----
type Expr interface {
	exprNode()
}

// LiteralExpr holds int64, float64, string or bool.
type LiteralExpr struct {
	Value any
}

func (*LiteralExpr) exprNode() {}
