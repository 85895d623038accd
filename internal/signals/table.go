package signals

import "fmt"

// Table is an ordered collection of named numeric columns sharing one time
// axis. The time axis is in elapsed seconds and must be non-decreasing.
// A Table is owned by the pipeline stage processing one rank and is never
// shared across ranks.
type Table struct {
	Time    []float64
	names   []string
	columns map[string][]float64
}

// NewTable creates a table over the given time axis.
func NewTable(time []float64) *Table {
	return &Table{
		Time:    time,
		names:   make([]string, 0),
		columns: make(map[string][]float64),
	}
}

// Len returns the number of samples on the time axis.
func (t *Table) Len() int {
	return len(t.Time)
}

// Names returns the column names in insertion order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Column returns the named column, or false if it is not present.
func (t *Table) Column(name string) ([]float64, bool) {
	col, ok := t.columns[name]
	return col, ok
}

// HasColumn reports whether the named column is present.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// AddColumn appends a named column. The column must match the time axis
// length; an existing column of the same name is replaced in place, keeping
// its position in the name order.
func (t *Table) AddColumn(name string, values []float64) error {
	if len(values) != len(t.Time) {
		return fmt.Errorf("column %q has %d samples, time axis has %d", name, len(values), len(t.Time))
	}
	if _, exists := t.columns[name]; !exists {
		t.names = append(t.names, name)
	}
	t.columns[name] = values
	return nil
}

// Clone returns a deep copy of the table. Derived columns added to the
// clone do not show up in the original.
func (t *Table) Clone() *Table {
	out := NewTable(append([]float64(nil), t.Time...))
	for _, name := range t.names {
		out.names = append(out.names, name)
		out.columns[name] = append([]float64(nil), t.columns[name]...)
	}
	return out
}

// SampleTime returns the sampling interval derived from the first two
// samples. Tables with fewer than two samples report zero.
func (t *Table) SampleTime() float64 {
	if len(t.Time) < 2 {
		return 0
	}
	return t.Time[1] - t.Time[0]
}

// ShiftedTime returns a copy of the time axis with offset subtracted from
// every sample. The table itself keeps the raw simulator time axis.
func (t *Table) ShiftedTime(offset float64) []float64 {
	out := make([]float64, len(t.Time))
	for i, v := range t.Time {
		out[i] = v - offset
	}
	return out
}
