package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tuannm99/novatuple/internal/sql/executor"
)

// compactOneLine collapses newlines, tabs and repeated spaces.
func compactOneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// statementComplete checks if we have a terminating ';' outside single quotes.
func statementComplete(buf string) bool {
	inQuote := false
	for _, r := range buf {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == ';' && !inQuote:
			return true
		}
	}
	return false
}

func isMetaCommand(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "\\") ||
		line == "quit" || line == "exit"
}

func printResult(res *executor.Result) {
	writeResult(os.Stdout, res)
}

func writeResult(w io.Writer, res *executor.Result) {
	if len(res.Columns) == 0 {
		// DDL/DML
		fmt.Fprintf(w, "OK (%d affected)\n", res.AffectedRows)
		return
	}

	cols := res.Columns
	cells := make([][]string, len(res.Rows))
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	for r, row := range res.Rows {
		cells[r] = make([]string, len(cols))
		for i := range cols {
			s := "NULL"
			if i < len(row) && row[i] != nil {
				s = fmt.Sprintf("%v", row[i])
			}
			cells[r][i] = s
			widths[i] = max(widths[i], len(s))
		}
	}

	printRow := func(values []string) {
		for i := range cols {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprint(w, padRight(values[i], widths[i]))
		}
		fmt.Fprintln(w)
	}

	printRow(cols)
	for i := range cols {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", widths[i]))
	}
	fmt.Fprintln(w)
	for _, row := range cells {
		printRow(row)
	}
	fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
