// Package model holds the tabular data types shared by the ETL stages.
package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/rotisserie/eris"
)

// CellKind discriminates the value stored in a Cell.
type CellKind string

const (
	// CellMissing marks a cell with no usable value (blank, unparseable, or
	// rejected during cleaning). It is never treated as zero.
	CellMissing CellKind = "missing"

	// CellString holds raw or categorical text (zona, refineria, producto).
	CellString CellKind = "string"

	// CellNumber holds a finite float64.
	CellNumber CellKind = "number"

	// CellDate holds a calendar date at UTC midnight.
	CellDate CellKind = "date"

	// CellUndefined marks a derived value with no mathematical meaning,
	// such as compliance against a zero budget. Distinct from missing so
	// presentation can surface it explicitly.
	CellUndefined CellKind = "undefined"
)

// Cell is one typed value in a table. The zero value is a missing cell.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Date time.Time
}

// String returns a text cell.
func String(s string) Cell { return Cell{Kind: CellString, Str: s} }

// Number returns a numeric cell.
func Number(v float64) Cell { return Cell{Kind: CellNumber, Num: v} }

// Date returns a date cell normalized to UTC midnight.
func Date(t time.Time) Cell {
	y, m, d := t.Date()
	return Cell{Kind: CellDate, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Missing returns an explicit missing cell.
func Missing() Cell { return Cell{Kind: CellMissing} }

// Undefined returns an explicit undefined cell.
func Undefined() Cell { return Cell{Kind: CellUndefined} }

// IsMissing reports whether the cell carries no value.
func (c Cell) IsMissing() bool { return c.Kind == CellMissing || c.Kind == "" }

// Equal reports whether two cells hold the same kind and value.
func (c Cell) Equal(other Cell) bool {
	ck, ok := c.Kind, other.Kind
	if ck == "" {
		ck = CellMissing
	}
	if ok == "" {
		ok = CellMissing
	}
	if ck != ok {
		return false
	}
	switch ck {
	case CellString:
		return c.Str == other.Str
	case CellNumber:
		return c.Num == other.Num
	case CellDate:
		return c.Date.Equal(other.Date)
	default:
		return true
	}
}

// cellJSON is the lossless wire form used by the result cache and HTTP API.
type cellJSON struct {
	Kind CellKind `json:"k"`
	Str  string   `json:"s,omitempty"`
	Num  *float64 `json:"n,omitempty"`
	Date string   `json:"d,omitempty"`
}

// MarshalJSON encodes the cell in a form that round-trips exactly.
func (c Cell) MarshalJSON() ([]byte, error) {
	cj := cellJSON{Kind: c.Kind}
	if cj.Kind == "" {
		cj.Kind = CellMissing
	}
	switch cj.Kind {
	case CellString:
		cj.Str = c.Str
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return nil, eris.Errorf("model: non-finite number cell %v", c.Num)
		}
		n := c.Num
		cj.Num = &n
	case CellDate:
		cj.Date = c.Date.Format("2006-01-02")
	}
	return json.Marshal(cj)
}

// UnmarshalJSON decodes a cell produced by MarshalJSON.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var cj cellJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return eris.Wrap(err, "model: decode cell")
	}
	switch cj.Kind {
	case CellString:
		*c = String(cj.Str)
	case CellNumber:
		if cj.Num == nil {
			return eris.New("model: number cell without value")
		}
		*c = Number(*cj.Num)
	case CellDate:
		t, err := time.Parse("2006-01-02", cj.Date)
		if err != nil {
			return eris.Wrapf(err, "model: decode date cell %q", cj.Date)
		}
		*c = Date(t)
	case CellUndefined:
		*c = Undefined()
	case CellMissing, "":
		*c = Missing()
	default:
		return eris.Errorf("model: unknown cell kind %q", cj.Kind)
	}
	return nil
}

// Table is an in-memory dataset: an ordered header plus rows of typed cells.
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// NewTable creates an empty table with the given header.
func NewTable(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// Cell returns the cell at (row, column name). Missing column or row yields
// a missing cell.
func (t *Table) Cell(row int, name string) Cell {
	idx := t.ColumnIndex(name)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return Missing()
	}
	return t.Rows[row][idx]
}

// AppendRow adds a row, padding or truncating it to the header width.
func (t *Table) AppendRow(cells []Cell) {
	row := make([]Cell, len(t.Columns))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = Missing()
		}
	}
	t.Rows = append(t.Rows, row)
}

// AppendColumn adds a derived column. The cell slice must match the row count.
func (t *Table) AppendColumn(name string, cells []Cell) error {
	if t.HasColumn(name) {
		return eris.Errorf("model: column %q already exists", name)
	}
	if len(cells) != len(t.Rows) {
		return eris.Errorf("model: column %q has %d cells, table has %d rows", name, len(cells), len(t.Rows))
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], cells[i])
	}
	return nil
}

// ReplaceColumn overwrites an existing column's cells.
func (t *Table) ReplaceColumn(name string, cells []Cell) error {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return eris.Errorf("model: column %q not found", name)
	}
	if len(cells) != len(t.Rows) {
		return eris.Errorf("model: column %q has %d cells, table has %d rows", name, len(cells), len(t.Rows))
	}
	for i := range t.Rows {
		t.Rows[i][idx] = cells[i]
	}
	return nil
}

// Clone returns a deep copy. Stages operate on their own copy so no stage
// mutates a table it does not own.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	out.Rows = make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]Cell(nil), row...)
	}
	return out
}
