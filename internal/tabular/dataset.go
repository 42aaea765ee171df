package tabular

import "fmt"

// PreviewRowLimit is how many leading rows a preview carries at most.
const PreviewRowLimit = 10

// Column is one named, ordered sequence of cell values.
type Column struct {
	Name   string
	Values []Value
}

// Dataset is an ordered collection of uniquely named, equally long
// columns. Column order always matches the source file.
type Dataset struct {
	cols []Column
}

// NewDataset validates the column invariants: at least one column,
// every column named, names unique, lengths equal.
func NewDataset(cols []Column) (*Dataset, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("dataset has no columns")
	}
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if len(c.Values) != len(cols[0].Values) {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), len(cols[0].Values))
		}
	}
	return &Dataset{cols: cols}, nil
}

// FromRows builds a dataset from an ordered header and row-major cells.
// Every row must match the header width.
func FromRows(names []string, rows [][]Value) (*Dataset, error) {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Values: make([]Value, len(rows))}
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", r+1, len(row), len(names))
		}
		for c := range names {
			cols[c].Values[r] = row[c]
		}
	}
	return NewDataset(cols)
}

// Columns returns the ordered columns. Callers must not mutate them.
func (d *Dataset) Columns() []Column { return d.cols }

// ColumnNames returns the column names in source order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name
	}
	return names
}

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int {
	if len(d.cols) == 0 {
		return 0
	}
	return len(d.cols[0].Values)
}

// Row returns row i in column order.
func (d *Dataset) Row(i int) []Value {
	row := make([]Value, len(d.cols))
	for c, col := range d.cols {
		row[c] = col.Values[i]
	}
	return row
}

// Preview is the read-only projection handed to presentation layers:
// ordered column names plus the leading rows, each row a column-name to
// scalar map.
type Preview struct {
	Columns   []string           `json:"columns"`
	Rows      []map[string]Value `json:"rows"`
	TotalRows int                `json:"total_rows"`
}

// Preview projects the first n rows of the dataset. n <= 0 means
// PreviewRowLimit.
func (d *Dataset) Preview(n int) *Preview {
	if n <= 0 {
		n = PreviewRowLimit
	}
	if n > d.RowCount() {
		n = d.RowCount()
	}
	p := &Preview{
		Columns:   d.ColumnNames(),
		Rows:      make([]map[string]Value, 0, n),
		TotalRows: d.RowCount(),
	}
	for i := 0; i < n; i++ {
		row := make(map[string]Value, len(d.cols))
		for _, c := range d.cols {
			row[c.Name] = c.Values[i]
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}
