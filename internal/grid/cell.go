// Package grid decodes the positional stock report exported by the factory's
// inventory system into per-SKU quantities.
package grid

import (
	"strconv"
)

// CellKind identifies which variant a Cell holds
type CellKind int

const (
	KindEmpty CellKind = iota
	KindText
	KindNumber
)

// Cell is a single spreadsheet value: empty, text or number
type Cell struct {
	Kind   CellKind
	text   string
	number float64
}

// Empty returns an empty cell
func Empty() Cell {
	return Cell{Kind: KindEmpty}
}

// Text returns a text cell. An empty string yields an empty cell.
func Text(s string) Cell {
	if s == "" {
		return Empty()
	}
	return Cell{Kind: KindText, text: s}
}

// Number returns a numeric cell
func Number(f float64) Cell {
	return Cell{Kind: KindNumber, number: f}
}

// IsEmpty reports whether the cell holds no value
func (c Cell) IsEmpty() bool {
	return c.Kind == KindEmpty
}

// AsText returns the text payload and true for text cells
func (c Cell) AsText() (string, bool) {
	if c.Kind != KindText {
		return "", false
	}
	return c.text, true
}

// AsNumber returns the numeric payload and true for number cells
func (c Cell) AsNumber() (float64, bool) {
	if c.Kind != KindNumber {
		return 0, false
	}
	return c.number, true
}

// String renders the cell the way a spreadsheet would display an unformatted value
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.text
	case KindNumber:
		return strconv.FormatFloat(c.number, 'f', -1, 64)
	default:
		return ""
	}
}

// Row is an ordered sequence of cells
type Row []Cell

// Grid is a rectangular-ish sheet: rows may have different lengths
type Grid []Row

// At returns the cell at (row, col), or an empty cell when out of range
func (g Grid) At(row, col int) Cell {
	if row < 0 || row >= len(g) {
		return Empty()
	}
	r := g[row]
	if col < 0 || col >= len(r) {
		return Empty()
	}
	return r[col]
}

// TextRow builds a row from strings, treating "" as empty. Handy for fixtures
// and CSV input.
func TextRow(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Text(v)
	}
	return row
}
