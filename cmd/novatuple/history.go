package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// History keeps executed statements, one per line, in a file shared across
// sessions. Consecutive repeats are stored once.
type History struct {
	path  string
	limit int
	lines []string
}

func NewHistory(path string, limit int) *History {
	return &History{path: path, limit: limit}
}

func (h *History) push(stmt string) {
	if n := len(h.lines); n > 0 && h.lines[n-1] == stmt {
		return
	}
	h.lines = append(h.lines, stmt)
	if h.limit > 0 && len(h.lines) > h.limit {
		h.lines = h.lines[len(h.lines)-h.limit:]
	}
}

func (h *History) Load() error {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			h.push(s)
		}
	}
	return sc.Err()
}

// Append records stmt in memory and on disk. It returns false when stmt was
// empty or repeated the previous entry.
func (h *History) Append(stmt string) (bool, error) {
	stmt = compactOneLine(stmt)
	if stmt == "" {
		return false, nil
	}
	if n := len(h.lines); n > 0 && h.lines[n-1] == stmt {
		return false, nil
	}
	h.push(stmt)
	if h.path == "" {
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return true, err
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return true, err
	}
	defer func() { _ = f.Close() }()

	_, err = fmt.Fprintln(f, stmt)
	return true, err
}

// Last returns up to n most recent entries, oldest first.
func (h *History) Last(n int) []string {
	if n <= 0 || n > len(h.lines) {
		n = len(h.lines)
	}
	return h.lines[len(h.lines)-n:]
}
