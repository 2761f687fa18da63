package models

// Frame is the in-memory tabular form shared by the client and the server.
type Frame struct {
	Columns []Column `json:"columns" msgpack:"columns"`
	Rows    []Row    `json:"rows" msgpack:"rows"`
}

// NewFrame creates an empty frame with the given column names, all typed as strings.
func NewFrame(names ...string) *Frame {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Type: CellTypeString}
	}
	return &Frame{
		Columns: cols,
		Rows:    make([]Row, 0),
	}
}

// ColumnNames returns the header names in order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of data rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// RowError describes a line skipped while decoding a frame.
type RowError struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}
