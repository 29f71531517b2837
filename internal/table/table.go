//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package table provides in-memory typed tables and the relational
// operations the mallflow pipeline is built from. Operations never modify
// their receiver; each returns a new table, possibly sharing unchanged rows.
package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is one record. Its length always equals the owning table's column
// count.
type Row []Value

// Table is an ordered sequence of rows with named, typed columns.
type Table struct {
	Name    string
	Columns []string
	Types   []ColumnType
	Rows    []Row
}

// New creates an empty table. A nil types slice makes every column a string.
func New(name string, columns []string, types []ColumnType) *Table {
	if types == nil {
		types = make([]ColumnType, len(columns))
	}
	return &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Types:   append([]ColumnType(nil), types...),
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of a column, or -1.
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Append adds a row after checking its arity.
func (t *Table) Append(row Row) error {
	if len(row) != len(t.Columns) {
		return &SchemaError{Table: t.Name, Want: len(t.Columns), Got: len(row)}
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Get returns the value at a row and column.
func (t *Table) Get(row int, col string) (Value, bool) {
	i := t.Index(col)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return Value{}, false
	}
	return t.Rows[row][i], true
}

func (t *Table) derive(columns []string, types []ColumnType, rows []Row) *Table {
	return &Table{Name: t.Name, Columns: columns, Types: types, Rows: rows}
}

func (t *Table) mustIndex(col string) (int, error) {
	i := t.Index(col)
	if i < 0 {
		return -1, fmt.Errorf("table %s: no column %q", t.Name, col)
	}
	return i, nil
}

// Rename replaces the column names by position. The number of names must
// equal the number of columns.
func (t *Table) Rename(names []string) (*Table, error) {
	if len(names) != len(t.Columns) {
		return nil, &SchemaError{Table: t.Name, Want: len(names), Got: len(t.Columns)}
	}
	return t.derive(append([]string(nil), names...), t.Types, t.Rows), nil
}

// WithSuffix appends tag to every column name. It is used to give each role
// of a self-join its own column namespace.
func (t *Table) WithSuffix(tag string) *Table {
	columns := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = c + tag
	}
	return t.derive(columns, t.Types, t.Rows)
}

// DropDuplicates removes rows identical to an earlier row across all
// columns, keeping first occurrences in their original order.
func (t *Table) DropDuplicates() *Table {
	seen := make(map[string]struct{}, len(t.Rows))
	rows := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		k := rowKey(row)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, row)
	}
	return t.derive(t.Columns, t.Types, rows)
}

// DropDuplicatesOn keeps the first row for each distinct value of col.
func (t *Table) DropDuplicatesOn(col string) (*Table, error) {
	ci, err := t.mustIndex(col)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(t.Rows))
	rows := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		k := row[ci].key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, row)
	}
	return t.derive(t.Columns, t.Types, rows), nil
}

// Select projects the table onto the named columns, in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	types := make([]ColumnType, len(cols))
	for i, c := range cols {
		ci, err := t.mustIndex(c)
		if err != nil {
			return nil, err
		}
		idx[i] = ci
		types[i] = t.Types[ci]
	}
	return t.derive(append([]string(nil), cols...), types, project(t.Rows, idx)), nil
}

// Drop removes the named columns.
func (t *Table) Drop(cols ...string) (*Table, error) {
	drop := make(map[int]bool, len(cols))
	for _, c := range cols {
		ci, err := t.mustIndex(c)
		if err != nil {
			return nil, err
		}
		drop[ci] = true
	}
	var keep []string
	for i, c := range t.Columns {
		if !drop[i] {
			keep = append(keep, c)
		}
	}
	return t.Select(keep...)
}

// DropMissing removes rows whose value in col is missing.
func (t *Table) DropMissing(col string) (*Table, error) {
	ci, err := t.mustIndex(col)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row[ci].Valid {
			rows = append(rows, row)
		}
	}
	return t.derive(t.Columns, t.Types, rows), nil
}

// Coalesce appends column dst holding a's value where present, otherwise b's.
func (t *Table) Coalesce(dst, a, b string) (*Table, error) {
	if t.Index(dst) >= 0 {
		return nil, fmt.Errorf("table %s: column %q already exists", t.Name, dst)
	}
	ai, err := t.mustIndex(a)
	if err != nil {
		return nil, err
	}
	bi, err := t.mustIndex(b)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		v := row[ai]
		if !v.Valid {
			v = row[bi]
		}
		out := make(Row, len(row), len(row)+1)
		copy(out, row)
		rows[i] = append(out, v)
	}
	columns := append(append([]string(nil), t.Columns...), dst)
	types := append(append([]ColumnType(nil), t.Types...), t.Types[ai])
	return t.derive(columns, types, rows), nil
}

// Cast parses string columns into their declared types. Columns absent from
// types are left unchanged.
func (t *Table) Cast(types map[string]ColumnType, dateFormat string) (*Table, error) {
	target := append([]ColumnType(nil), t.Types...)
	for col, ct := range types {
		ci, err := t.mustIndex(col)
		if err != nil {
			return nil, err
		}
		target[ci] = ct
	}
	rows := make([]Row, len(t.Rows))
	for r, row := range t.Rows {
		out := make(Row, len(row))
		for ci, v := range row {
			out[ci] = v
			if target[ci] == v.Type {
				continue
			}
			if !v.Valid {
				out[ci] = Missing(target[ci])
				continue
			}
			if v.Type != String {
				return nil, fmt.Errorf("table %s: column %s is %s, cannot cast to %s",
					t.Name, t.Columns[ci], v.Type, target[ci])
			}
			parsed, err := parseValue(v.Str, target[ci], dateFormat)
			if err != nil {
				return nil, &ValueError{Table: t.Name, Column: t.Columns[ci], Row: r + 1, Err: err}
			}
			out[ci] = parsed
		}
		rows[r] = out
	}
	return t.derive(t.Columns, target, rows), nil
}

func project(rows []Row, idx []int) []Row {
	out := make([]Row, len(rows))
	for r, row := range rows {
		p := make(Row, len(idx))
		for i, ci := range idx {
			p[i] = row[ci]
		}
		out[r] = p
	}
	return out
}

func rowKey(row Row) string {
	var b strings.Builder
	for _, v := range row {
		k := v.key()
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}
