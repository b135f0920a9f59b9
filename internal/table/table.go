package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Cell holds.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is a single spreadsheet value: empty, text, or a finite number.
type Cell struct {
	kind Kind
	text string
	num  float64
}

// Empty returns the empty cell.
func Empty() Cell { return Cell{} }

// Text returns a text cell. Blank strings collapse to Empty.
func Text(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{kind: KindText, text: s}
}

// Number returns a numeric cell. NaN and infinities collapse to Empty.
func Number(f float64) Cell {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Cell{}
	}
	return Cell{kind: KindNumber, num: f}
}

// Infer trims s and returns a Number when it parses as a finite float,
// Empty when blank, and Text otherwise.
func Infer(s string) Cell {
	v := strings.TrimSpace(s)
	if v == "" {
		return Cell{}
	}
	if f, ok := parseFinite(v); ok {
		return Cell{kind: KindNumber, num: f}
	}
	return Cell{kind: KindText, text: v}
}

func (c Cell) Kind() Kind     { return c.kind }
func (c Cell) IsEmpty() bool  { return c.kind == KindEmpty }
func (c Cell) IsNumber() bool { return c.kind == KindNumber }

// Float coerces the cell to a number. Text cells succeed only when their
// trimmed content parses as a finite float.
func (c Cell) Float() (float64, bool) {
	switch c.kind {
	case KindNumber:
		return c.num, true
	case KindText:
		return parseFinite(strings.TrimSpace(c.text))
	default:
		return 0, false
	}
}

// FloatOrZero is Float with parse failures mapped to 0.
func (c Cell) FloatOrZero() float64 {
	f, _ := c.Float()
	return f
}

// String returns the grouping key form of the cell.
func (c Cell) String() string {
	switch c.kind {
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindText:
		return c.text
	default:
		return ""
	}
}

// MarshalJSON writes numbers as JSON numbers and everything else as strings.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindNumber:
		return []byte(strconv.FormatFloat(c.num, 'f', -1, 64)), nil
	case KindText:
		return []byte(strconv.Quote(c.text)), nil
	default:
		return []byte(`""`), nil
	}
}

func parseFinite(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Row maps column names to cells. Missing keys read as Empty.
type Row map[string]Cell

// Get returns the cell for column, or Empty when absent.
func (r Row) Get(column string) Cell {
	if r == nil {
		return Cell{}
	}
	return r[column]
}

// Blank reports whether every cell in the row is empty.
func (r Row) Blank() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Dataset is an ordered set of rows with their column names in file order.
type Dataset struct {
	Name    string   `json:"name"`
	Sheet   string   `json:"sheet,omitempty"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Head returns at most n rows from the start of the dataset.
func (d *Dataset) Head(n int) []Row {
	if d == nil || n <= 0 {
		return nil
	}
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}
