package canvas

import (
	"fmt"
)

// Font names understood by every backend.
const (
	FontRegular = "regular"
	FontOCRB    = "ocrb" // Machine readable payment line
)

// Align is a horizontal alignment.
type Align string

// Alignments.
const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// TextStyle describes how free-standing text is drawn.
type TextStyle struct {
	Font  string  // FontRegular when empty
	Size  float64 // Points
	Bold  bool
	Align Align   // Used together with Width
	Width float64 // Box width for aligned text, 0 for plain placement
}

// Padding is the space inside a cell, in millimetres.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// Pad returns a Padding with vertical and horizontal values.
func Pad(vertical, horizontal float64) Padding {
	return Padding{Top: vertical, Right: horizontal, Bottom: vertical, Left: horizontal}
}

// Column describes one table column.
type Column struct {
	Width float64
	Align Align
	Bold  bool
	Size  float64 // Font size override in points, 0 to inherit
}

// Cell is one table cell.
type Cell struct {
	Text    string
	Colspan int // 0 or 1 for a single column
	Bold    bool
}

// Span returns the number of columns the cell covers.
func (c Cell) Span() int {
	if c.Colspan < 1 {
		return 1
	}
	return c.Colspan
}

// Row is one table row with its own rules.
type Row struct {
	Cells []Cell

	Height         float64 // Content height in millimetres
	Bold           bool
	Size           float64 // Font size override in points, 0 to inherit
	PaddingTop     float64 // Extra space above the content
	PaddingBottom  float64 // Extra space below the content
	SeparatorBelow bool    // Rule drawn under the row with the table's frame width
}

// Extent returns the vertical space the row occupies.
func (r Row) Extent() float64 {
	return r.PaddingTop + r.Height + r.PaddingBottom
}

// Frame is the outer border of a table.
type Frame struct {
	Width float64 // Line width in millimetres, 0 for no frame
}

// Table is a fully described table. Styling is carried by named fields on
// columns and rows rather than by positional rules.
type Table struct {
	Columns []Column
	Rows    []Row
	Size    float64 // Default font size in points
	Padding Padding // Horizontal padding of every cell; vertical padding comes from the rows
	Frame   Frame
	Indent  float64 // Left offset from the frame origin
}

// Width returns the sum of the column widths.
func (t Table) Width() float64 {
	var w float64
	for _, c := range t.Columns {
		w += c.Width
	}
	return w
}

// Height returns the vertical extent the table consumes when drawn.
func (t Table) Height() float64 {
	var h float64
	for _, r := range t.Rows {
		h += r.Extent()
	}
	return h
}

// Validate checks that every row spans exactly the declared columns.
func (t Table) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("canvas: table has no columns")
	}
	for i, r := range t.Rows {
		span := 0
		for _, c := range r.Cells {
			span += c.Span()
		}
		if span != len(t.Columns) {
			return fmt.Errorf("canvas: row %d spans %d columns, table has %d", i, span, len(t.Columns))
		}
		if r.Height <= 0 {
			return fmt.Errorf("canvas: row %d has no height", i)
		}
	}
	return nil
}

// Widths returns the width of each cell of row r, honouring colspans.
func (t Table) Widths(r Row) []float64 {
	widths := make([]float64, 0, len(r.Cells))
	col := 0
	for _, c := range r.Cells {
		var w float64
		for i := 0; i < c.Span() && col < len(t.Columns); i++ {
			w += t.Columns[col].Width
			col++
		}
		widths = append(widths, w)
	}
	return widths
}

// ColumnAt returns the column a cell starts in.
func (t Table) ColumnAt(r Row, cell int) Column {
	col := 0
	for i := 0; i < cell && i < len(r.Cells); i++ {
		col += r.Cells[i].Span()
	}
	if col >= len(t.Columns) {
		return Column{}
	}
	return t.Columns[col]
}
