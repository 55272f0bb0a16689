// Package compare implements the cross-session comparison engine: fetching
// session datasets, reapplying their configured transforms, matching rows
// against a query identifier list under one of three strategies, and
// assembling the merged multi-session result.
package compare

import (
	"fmt"
	"strings"
)

// Table is a parsed tab-separated dataset. Rows hold raw cell strings in
// column order; numeric interpretation happens later, per column role.
type Table struct {
	Columns []string
	Rows    [][]string

	colIndex map[string]int
}

// ParseTSV parses a TSV string with a header line. Short rows are padded
// with empty cells so every row has one cell per column.
func ParseTSV(data string) (*Table, error) {
	data = strings.TrimRight(data, "\r\n")
	if data == "" {
		return nil, fmt.Errorf("empty table")
	}

	lines := strings.Split(data, "\n")
	header := strings.Split(strings.TrimRight(lines[0], "\r"), "\t")
	t := &Table{
		Columns:  header,
		colIndex: make(map[string]int, len(header)),
	}
	for i, name := range header {
		t.colIndex[name] = i
	}

	t.Rows = make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		for len(cells) < len(header) {
			cells = append(cells, "")
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

// ColumnIndex returns the position of a named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.colIndex[name]; ok {
		return i
	}
	return -1
}

// Cell returns the value of a named column in a row, or "" if the column is
// absent.
func (t *Table) Cell(row []string, name string) string {
	i := t.ColumnIndex(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
