package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrSyntax = errors.New("parser: syntax error")

func syntaxErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}

// parseIdent validates an identifier (table/column name).
// Rules (simple):
//   - must be exactly one token (no spaces)
//   - first char: letter or '_'
//   - rest: letter/digit/'_'
func parseIdent(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", syntaxErr("missing identifier")
	}

	parts := strings.Fields(s)
	if len(parts) != 1 {
		return "", syntaxErr("invalid identifier %q", s)
	}
	id := parts[0]

	for i, r := range id {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return "", syntaxErr("invalid identifier %q", id)
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "", syntaxErr("invalid identifier %q", id)
		}
	}
	return id, nil
}

// parseColumnRef accepts "col" or "table.col".
func parseColumnRef(s string) (ColumnRef, error) {
	s = strings.TrimSpace(s)
	table, col, qualified := strings.Cut(s, ".")
	if !qualified {
		c, err := parseIdent(s)
		return ColumnRef{Column: c}, err
	}
	t, err := parseIdent(table)
	if err != nil {
		return ColumnRef{}, err
	}
	c, err := parseIdent(col)
	if err != nil {
		return ColumnRef{}, err
	}
	return ColumnRef{Table: t, Column: c}, nil
}

// Parse parses a single SQL statement into an AST.
// Policy: statement MUST end with ';'
func Parse(sql string) (Statement, error) {
	s := strings.TrimSpace(sql)
	if s == "" {
		return nil, syntaxErr("empty statement")
	}
	if !strings.HasSuffix(s, ";") {
		return nil, syntaxErr("missing ';' terminator")
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return nil, syntaxErr("empty statement")
	}

	up := strings.ToUpper(s)

	switch {
	case strings.HasPrefix(up, "CREATE TABLE"):
		return parseCreateTable(s)
	case strings.HasPrefix(up, "DROP TABLE"):
		return parseDropTable(s)
	case strings.HasPrefix(up, "DESCRIBE "):
		return parseDescribe(s)
	case strings.HasPrefix(up, "INSERT INTO"):
		return parseInsert(s)
	case strings.HasPrefix(up, "SELECT "):
		return parseSelect(s)
	case strings.HasPrefix(up, "DELETE FROM"):
		return parseDelete(s)
	default:
		return nil, syntaxErr("unsupported statement: %q", sql)
	}
}

// ParseScript splits a script on ';' (outside quotes) and parses every
// non-empty statement. Lines starting with "--" are comments.
func ParseScript(script string) ([]Statement, error) {
	lines := strings.Split(script, "\n")
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "--") {
			lines[i] = ""
		}
	}

	var stmts []Statement
	for _, raw := range splitStatements(strings.Join(lines, "\n")) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		st, err := Parse(raw + ";")
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	return stmts, nil
}

func parseCreateTable(sql string) (Statement, error) {
	// "CREATE TABLE users (id INT PRIMARY KEY, name TEXT, active BOOL)"
	withoutPrefix := strings.TrimSpace(sql[len("CREATE TABLE"):])
	namePart, defPart, ok := strings.Cut(withoutPrefix, "(")
	if !ok || !strings.HasSuffix(defPart, ")") {
		return nil, syntaxErr("invalid CREATE TABLE syntax")
	}

	tableName, err := parseIdent(namePart)
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax: %w", err)
	}

	defPart = strings.TrimSpace(strings.TrimSuffix(defPart, ")"))
	if defPart == "" {
		return nil, syntaxErr("invalid CREATE TABLE syntax: empty column list")
	}

	stmt := &CreateTableStmt{TableName: tableName}
	for _, def := range splitComma(defPart) {
		toks := strings.Fields(def)
		if len(toks) < 2 {
			return nil, syntaxErr("invalid column def: %q", strings.TrimSpace(def))
		}

		colName, err := parseIdent(toks[0])
		if err != nil {
			return nil, fmt.Errorf("invalid column name: %w", err)
		}

		typeToks := toks[1:]
		if n := len(typeToks); n >= 2 &&
			strings.EqualFold(typeToks[n-2], "PRIMARY") && strings.EqualFold(typeToks[n-1], "KEY") {
			if stmt.PrimaryKey != "" {
				return nil, syntaxErr("multiple primary keys in %s", tableName)
			}
			stmt.PrimaryKey = colName
			typeToks = typeToks[:n-2]
		}
		if len(typeToks) == 0 {
			return nil, syntaxErr("missing type for column %q", colName)
		}

		stmt.Columns = append(stmt.Columns, ColumnDef{
			Name: colName,
			Type: strings.ToUpper(strings.Join(typeToks, " ")),
		})
	}
	return stmt, nil
}

func parseDropTable(sql string) (Statement, error) {
	name, err := parseIdent(sql[len("DROP TABLE"):])
	if err != nil {
		return nil, fmt.Errorf("invalid DROP TABLE syntax: %w", err)
	}
	return &DropTableStmt{TableName: name}, nil
}

func parseDescribe(sql string) (Statement, error) {
	name, err := parseIdent(sql[len("DESCRIBE "):])
	if err != nil {
		return nil, fmt.Errorf("invalid DESCRIBE syntax: %w", err)
	}
	return &DescribeStmt{TableName: name}, nil
}

func parseInsert(sql string) (Statement, error) {
	// "INSERT INTO users VALUES (1, 'abc', true)"
	rest := strings.TrimSpace(sql[len("INSERT INTO"):])

	tablePart, valPart := splitKeyword(rest, "VALUES")
	if strings.TrimSpace(valPart) == "" {
		return nil, syntaxErr("invalid INSERT syntax")
	}

	tableName, err := parseIdent(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid INSERT syntax: %w", err)
	}

	valPart = strings.TrimSpace(valPart)
	if !strings.HasPrefix(valPart, "(") || !strings.HasSuffix(valPart, ")") {
		return nil, syntaxErr("invalid INSERT values syntax")
	}
	valPart = strings.TrimSpace(valPart[1 : len(valPart)-1])

	var exprs []Expr
	for _, rv := range splitComma(valPart) {
		lit, err := parseLiteral(strings.TrimSpace(rv))
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, &LiteralExpr{Value: lit})
	}
	return &InsertStmt{TableName: tableName, Values: exprs}, nil
}

func parseSelect(sql string) (Statement, error) {
	// "SELECT <*|cols> FROM t [JOIN u ON a = b] [WHERE col = literal]"
	rest := strings.TrimSpace(sql[len("SELECT "):])
	colPart, fromPart := splitKeyword(" "+rest, "FROM")
	if strings.TrimSpace(fromPart) == "" {
		return nil, syntaxErr("invalid SELECT syntax: missing FROM")
	}

	stmt := &SelectStmt{}
	if strings.TrimSpace(colPart) != "*" {
		for _, c := range splitComma(colPart) {
			ref, err := parseColumnRef(c)
			if err != nil {
				return nil, fmt.Errorf("invalid SELECT column: %w", err)
			}
			stmt.Columns = append(stmt.Columns, ref)
		}
	}

	fromPart, wherePart := splitKeyword(fromPart, "WHERE")
	tablePart, joinPart := splitKeyword(fromPart, "JOIN")

	tableName, err := parseIdent(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid SELECT syntax: %w", err)
	}
	stmt.TableName = tableName

	if strings.TrimSpace(joinPart) != "" {
		j, err := parseJoin(joinPart)
		if err != nil {
			return nil, err
		}
		stmt.Join = j
	}

	if strings.TrimSpace(wherePart) != "" {
		w, err := parseWhereEq(wherePart)
		if err != nil {
			return nil, err
		}
		stmt.Where = w
	}
	return stmt, nil
}

func parseJoin(s string) (*JoinClause, error) {
	// "u ON a = b"
	tablePart, onPart := splitKeyword(s, "ON")
	if strings.TrimSpace(onPart) == "" {
		return nil, syntaxErr("JOIN requires ON <col> = <col>")
	}
	tableName, err := parseIdent(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid JOIN table: %w", err)
	}

	l, r, ok := strings.Cut(onPart, "=")
	if !ok {
		return nil, syntaxErr("only JOIN ... ON <col> = <col> supported")
	}
	left, err := parseColumnRef(l)
	if err != nil {
		return nil, fmt.Errorf("invalid JOIN column: %w", err)
	}
	right, err := parseColumnRef(r)
	if err != nil {
		return nil, fmt.Errorf("invalid JOIN column: %w", err)
	}
	return &JoinClause{TableName: tableName, Left: left, Right: right}, nil
}

func parseDelete(sql string) (Statement, error) {
	// "DELETE FROM t [WHERE col=literal]"
	rest := strings.TrimSpace(sql[len("DELETE FROM"):])
	tablePart, wherePart := splitKeyword(rest, "WHERE")

	tableName, err := parseIdent(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid DELETE syntax: %w", err)
	}

	stmt := &DeleteStmt{TableName: tableName}
	if strings.TrimSpace(wherePart) != "" {
		w, err := parseWhereEq(wherePart)
		if err != nil {
			return nil, err
		}
		stmt.Where = w
	}
	return stmt, nil
}

func parseWhereEq(s string) (*WhereEq, error) {
	// very naive: "col = literal"
	colPart, valPart, ok := strings.Cut(s, "=")
	if !ok {
		return nil, syntaxErr("only WHERE <col> = <literal> supported")
	}

	col, err := parseColumnRef(colPart)
	if err != nil {
		return nil, fmt.Errorf("invalid WHERE column: %w", err)
	}

	lit, err := parseLiteral(strings.TrimSpace(valPart))
	if err != nil {
		return nil, err
	}
	return &WhereEq{Column: col, Value: &LiteralExpr{Value: lit}}, nil
}

func parseLiteral(rv string) (any, error) {
	up := strings.ToUpper(rv)

	if up == "TRUE" {
		return true, nil
	}
	if up == "FALSE" {
		return false, nil
	}

	// STRING (single quotes, '' escapes a quote)
	if len(rv) >= 2 && rv[0] == '\'' && rv[len(rv)-1] == '\'' {
		return strings.ReplaceAll(rv[1:len(rv)-1], "''", "'"), nil
	}

	if i, err := strconv.ParseInt(rv, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(rv, 64); err == nil {
		return f, nil
	}

	return nil, syntaxErr("unsupported literal: %q", rv)
}

// splitKeyword splits "X <keyword> Y" case-insensitively on the first
// occurrence outside quotes. Returns (X, Y); (s, "") when absent.
// The keyword must be surrounded by spaces.
func splitKeyword(s, keyword string) (string, string) {
	up := strings.ToUpper(s)
	k := " " + strings.ToUpper(keyword) + " "

	inQuote := false
	for i := 0; i+len(k) <= len(up); i++ {
		if up[i] == '\'' {
			inQuote = !inQuote
			continue
		}
		if !inQuote && up[i:i+len(k)] == k {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(k):])
		}
	}
	return s, ""
}

// splitComma splits a comma-separated list, ignoring commas inside quotes
// and parentheses. Parts are trimmed.
func splitComma(s string) []string {
	return splitOutside(s, ',', true)
}

func splitStatements(s string) []string {
	return splitOutside(s, ';', false)
}

func splitOutside(s string, sep rune, trackParens bool) []string {
	parts := []string{}
	cur := strings.Builder{}
	inQuote := false
	depth := 0
	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case !inQuote && trackParens && r == '(':
			depth++
		case !inQuote && trackParens && r == ')':
			depth--
		case !inQuote && depth == 0 && r == sep:
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	if strings.TrimSpace(cur.String()) != "" {
		parts = append(parts, strings.TrimSpace(cur.String()))
	}
	return parts
}
