// Package canvastest provides a Canvas that records drawing calls instead of
// producing output, for testing layout decisions without a rendering backend.
package canvastest

import (
	"strconv"
	"strings"

	"recipes/internal/canvas"
)

// Kinds of recorded operations.
const (
	KindText       = "text"
	KindTable      = "table"
	KindPageNumber = "page-number"
	KindNewPage    = "new-page"
)

// Op is one recorded drawing call. Positions are absolute page coordinates.
type Op struct {
	Kind     string
	Page     int
	Text     string
	At       canvas.Point
	Table    canvas.Table
	Extent   float64
	Repeated bool // Drawn by a repeater or page-number annotation at Finish
}

type repeater struct {
	match  func(int) bool
	render func(canvas.Canvas)
}

type annotation struct {
	template string
	at       canvas.Point
}

// Recorder is an in-memory Canvas. Tables consume exactly Table.Height().
type Recorder struct {
	Ops []Op

	// InvalidTables counts tables that failed Table.Validate.
	InvalidTables int

	root      canvas.Rect
	frames    []canvas.Rect
	page      int
	y         float64
	repeating bool
	finished  bool

	repeaters   []repeater
	annotations []annotation
}

var _ canvas.Canvas = (*Recorder)(nil)

// New creates a Recorder whose pages have the given content area size.
func New(width, height float64) *Recorder {
	root := canvas.Rect{Width: width, Height: height}
	return &Recorder{
		root:   root,
		frames: []canvas.Rect{root},
		page:   1,
	}
}

func (r *Recorder) frame() canvas.Rect { return r.frames[len(r.frames)-1] }

func (r *Recorder) record(op Op) {
	op.Page = r.page
	op.Repeated = r.repeating
	r.Ops = append(r.Ops, op)
}

// DrawText implements canvas.Canvas.
func (r *Recorder) DrawText(text string, at canvas.Point, _ canvas.TextStyle) {
	f := r.frame()
	r.record(Op{Kind: KindText, Text: text, At: canvas.Point{X: f.X + at.X, Y: f.Y + at.Y}})
}

// DrawTable implements canvas.Canvas.
func (r *Recorder) DrawTable(t canvas.Table) float64 {
	if err := t.Validate(); err != nil {
		r.InvalidTables++
	}
	extent := t.Height()
	f := r.frame()
	r.record(Op{Kind: KindTable, Table: t, At: canvas.Point{X: f.X + t.Indent, Y: r.y}, Extent: extent})
	r.y += extent
	return extent
}

// BoundingBox implements canvas.Canvas.
func (r *Recorder) BoundingBox(origin canvas.Point, width, height float64, render func(canvas.Canvas)) {
	parent := r.frame()
	box := canvas.Rect{X: parent.X + origin.X, Y: parent.Y + origin.Y, Width: width, Height: height}

	r.frames = append(r.frames, box)
	r.y = box.Y
	render(r)
	end := r.y
	r.frames = r.frames[:len(r.frames)-1]

	if height > 0 {
		r.y = box.Y + height
	} else {
		r.y = end
	}
}

// Cursor implements canvas.Canvas.
func (r *Recorder) Cursor() float64 { return r.y - r.frame().Y }

// MoveDown implements canvas.Canvas.
func (r *Recorder) MoveDown(dy float64) { r.y += dy }

// StartNewPage implements canvas.Canvas.
func (r *Recorder) StartNewPage() {
	r.record(Op{Kind: KindNewPage})
	r.page++
	r.y = r.frame().Y
}

// RepeatOnEveryPage implements canvas.Canvas.
func (r *Recorder) RepeatOnEveryPage(render func(canvas.Canvas)) {
	r.repeaters = append(r.repeaters, repeater{match: func(int) bool { return true }, render: render})
}

// RepeatOnPagesMatching implements canvas.Canvas.
func (r *Recorder) RepeatOnPagesMatching(match func(page int) bool, render func(canvas.Canvas)) {
	r.repeaters = append(r.repeaters, repeater{match: match, render: render})
}

// PageNumberAnnotation implements canvas.Canvas.
func (r *Recorder) PageNumberAnnotation(template string, at canvas.Point, _ canvas.TextStyle) {
	r.annotations = append(r.annotations, annotation{template: template, at: at})
}

// Bounds implements canvas.Canvas.
func (r *Recorder) Bounds() canvas.Rect { return r.frame() }

// Finish stamps repeaters and page numbers on every page, like a real backend
// does before writing its output. Calling it twice has no further effect.
func (r *Recorder) Finish() {
	if r.finished {
		return
	}
	r.finished = true

	total := r.page
	saved := r.y
	r.repeating = true
	for p := 1; p <= total; p++ {
		r.page = p
		r.frames = []canvas.Rect{r.root}
		for _, rep := range r.repeaters {
			if rep.match(p) {
				r.y = 0
				rep.render(r)
			}
		}
		for _, a := range r.annotations {
			text := strings.NewReplacer("<page>", strconv.Itoa(p), "<total>", strconv.Itoa(total)).Replace(a.template)
			r.record(Op{Kind: KindPageNumber, Text: text, At: a.at})
		}
	}
	r.repeating = false
	r.page = total
	r.y = saved
}

// Pages returns the number of pages started so far.
func (r *Recorder) Pages() int { return r.page }

// OnPage returns the operations recorded for page p.
func (r *Recorder) OnPage(p int) []Op {
	var ops []Op
	for _, op := range r.Ops {
		if op.Page == p {
			ops = append(ops, op)
		}
	}
	return ops
}

// Texts returns all text drawn on page p, including table cell text.
func (r *Recorder) Texts(p int) []string {
	var texts []string
	for _, op := range r.OnPage(p) {
		switch op.Kind {
		case KindText, KindPageNumber:
			texts = append(texts, op.Text)
		case KindTable:
			for _, row := range op.Table.Rows {
				for _, c := range row.Cells {
					texts = append(texts, c.Text)
				}
			}
		}
	}
	return texts
}

// HasText reports whether text appears verbatim on page p.
func (r *Recorder) HasText(p int, text string) bool {
	for _, t := range r.Texts(p) {
		if t == text {
			return true
		}
	}
	return false
}

// RowsStartingWith returns the rows on page p whose first cell equals first.
func (r *Recorder) RowsStartingWith(p int, first string) []canvas.Row {
	var rows []canvas.Row
	for _, op := range r.OnPage(p) {
		if op.Kind != KindTable {
			continue
		}
		for _, row := range op.Table.Rows {
			if len(row.Cells) > 0 && row.Cells[0].Text == first {
				rows = append(rows, row)
			}
		}
	}
	return rows
}
