package recipe

import "recipes/internal/canvas"

// Geometry holds the positions and sizes of the one supported layout: A4
// portrait with margins of 14 mm top, 10 mm left and right, 18 mm bottom.
// All values are millimetres in content area coordinates, y downward.
//
// The page capacities in package paginate are derived from these values: the
// full header leaves room for 17 records above the footer reservation, the
// condensed header for 27.
type Geometry struct {
	Width  float64
	Height float64

	TitleBaseline float64 // Negative, the title sits in the top margin
	ReleaseX      float64
	MarkerX       float64

	FullHeaderHeight      float64
	CondensedHeaderHeight float64
	AddressWindow         canvas.Rect
	AddressLineHeight     float64

	FirstRecordsTop        float64 // Cursor at which page 1 records start
	ContinuationRecordsTop float64

	RecordIndent float64 // Description lines and the "CHF" of subtotals
	RecordGap    float64
	HeadingGap   float64 // Below the column heading row
	SubtotalGap  float64 // Blank line above a subtotal

	SmallRow  float64 // Row height at SmallFont
	MediumRow float64 // Row height at MediumFont
	HeaderRow float64 // Info header rows

	FooterReserve float64 // Space kept free at the bottom for the closing summary

	PageNumber    canvas.Point
	StripBaseline float64 // Below the content area
}

// Font sizes in points and line widths in millimetres.
const (
	SmallFont   = 6.5
	MediumFont  = 8
	TitleFont   = 16
	ReleaseFont = 7
	AddressFont = 10
	StripFont   = 10
	BorderWidth = 0.26
)

// A4 is the supported layout.
var A4 = Geometry{
	Width:  190,
	Height: 265,

	TitleBaseline: -3,
	ReleaseX:      154.7,
	MarkerX:       185.1,

	FullHeaderHeight:      95,
	CondensedHeaderHeight: 26,
	AddressWindow:         canvas.Rect{X: 120, Y: 35, Width: 70},
	AddressLineHeight:     4.2,

	FirstRecordsTop:        97,
	ContinuationRecordsTop: 30,

	RecordIndent: 31,
	RecordGap:    0.9,
	HeadingGap:   1.8,
	SubtotalGap:  3,

	SmallRow:  2.3,
	MediumRow: 2.8,
	HeaderRow: 2.6,

	FooterReserve: 52,

	PageNumber:    canvas.Point{X: 137, Y: 1},
	StripBaseline: 268.5,
}

// FooterTop is the cursor position at which the closing summary is drawn.
// A cursor below it leaves no room for the summary.
func (g Geometry) FooterTop() float64 {
	return g.Height - g.FooterReserve
}

// RecordHeight is the vertical extent of one service record entry.
func (g Geometry) RecordHeight() float64 {
	return g.SmallRow + g.MediumRow + g.RecordGap
}

// SubtotalHeight is the vertical extent of a subtotal row.
func (g Geometry) SubtotalHeight() float64 {
	return g.SubtotalGap + g.MediumRow
}

// HeadingHeight is the vertical extent of the column heading row.
func (g Geometry) HeadingHeight() float64 {
	return g.SmallRow + g.HeadingGap
}
