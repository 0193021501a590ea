// Package pdfcanvas implements canvas.Canvas on top of fpdf. Pages are A4
// portrait in millimetres with the margins of the recipe layout.
package pdfcanvas

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"recipes/internal/canvas"
	"recipes/internal/logger"
)

// Page layout in millimetres.
const (
	PageWidth    = 210
	PageHeight   = 297
	MarginTop    = 14
	MarginLeft   = 10
	MarginRight  = 10
	MarginBottom = 18

	ContentWidth  = PageWidth - MarginLeft - MarginRight
	ContentHeight = PageHeight - MarginTop - MarginBottom
)

// TrueType fonts looked up in the font directory.
const (
	RegularFontFile = "DejaVuSans.ttf"
	BoldFontFile    = "DejaVuSans-Bold.ttf"
	OCRBFontFile    = "ocrb10.ttf"
)

const (
	minShrinkSize = 4.0
	lineWidth     = 0.2
)

// ErrFinished is returned when a canvas is finished twice.
var ErrFinished = errors.New("canvas already finished")

type repeater struct {
	match  func(int) bool
	render func(canvas.Canvas)
}

type annotation struct {
	template string
	at       canvas.Point
	style    canvas.TextStyle
}

// Canvas draws on an fpdf document.
type Canvas struct {
	pdf *fpdf.Fpdf
	log zerolog.Logger

	root   canvas.Rect
	frames []canvas.Rect
	y      float64 // Absolute position in content coordinates

	regular string // Font families
	ocrb    string
	encode  func(string) string

	repeaters   []repeater
	annotations []annotation
	finished    bool
}

var _ canvas.Canvas = (*Canvas)(nil)

type options struct {
	fontDir string
	created time.Time
	title   string
	log     zerolog.Logger
}

// Option configures a Canvas.
type Option func(*options)

// WithFontDir registers DejaVuSans and OCR-B from dir. Without it, or when
// the files are missing, the core fonts Helvetica and Courier are used and
// text is encoded as Windows-1252.
func WithFontDir(dir string) Option {
	return func(o *options) { o.fontDir = dir }
}

// WithCreationDate fixes the document dates, making the output reproducible.
func WithCreationDate(t time.Time) Option {
	return func(o *options) { o.created = t }
}

// WithTitle sets the document title metadata.
func WithTitle(title string) Option {
	return func(o *options) { o.title = title }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a Canvas with the first page already started.
func New(opts ...Option) (*Canvas, error) {
	o := options{log: logger.WithComponent("pdfcanvas")}
	for _, opt := range opts {
		opt(&o)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(MarginLeft, MarginTop, MarginRight)
	pdf.SetAutoPageBreak(false, MarginBottom)
	pdf.SetCellMargin(0)
	pdf.SetLineWidth(lineWidth)
	if !o.created.IsZero() {
		pdf.SetCreationDate(o.created)
		pdf.SetModificationDate(o.created)
	}

	root := canvas.Rect{Width: ContentWidth, Height: ContentHeight}
	c := &Canvas{
		pdf:     pdf,
		log:     o.log,
		root:    root,
		frames:  []canvas.Rect{root},
		regular: "Helvetica",
		ocrb:    "Courier",
		encode:  windows1252(),
	}

	if o.fontDir != "" {
		c.registerFonts(o.fontDir)
	}
	if o.title != "" {
		pdf.SetTitle(o.title, true)
	}

	pdf.AddPage()
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("pdfcanvas: setup: %w", err)
	}
	return c, nil
}

func (c *Canvas) registerFonts(dir string) {
	regular := filepath.Join(dir, RegularFontFile)
	bold := filepath.Join(dir, BoldFontFile)
	ocrb := filepath.Join(dir, OCRBFontFile)

	for _, f := range []string{regular, bold} {
		if _, err := os.Stat(f); err != nil {
			c.log.Warn().Err(err).Str("dir", dir).Msg("UTF-8 fonts not found, using core fonts")
			return
		}
	}

	c.pdf.AddUTF8Font("DejaVuSans", "", regular)
	c.pdf.AddUTF8Font("DejaVuSans", "B", bold)
	c.regular = "DejaVuSans"
	c.encode = func(s string) string { return s }

	if _, err := os.Stat(ocrb); err != nil {
		c.log.Warn().Err(err).Msg("OCR-B font not found, payment line uses the regular font")
		c.ocrb = c.regular
		return
	}
	c.pdf.AddUTF8Font("OCRB", "", ocrb)
	c.ocrb = "OCRB"
}

// The square bullet of the form has no Windows-1252 code point.
var bulletReplacer = strings.NewReplacer("▪", "·")

// windows1252 returns an encoder for the core fonts. Encoders keep state, so
// every canvas gets its own.
func windows1252() func(string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	return func(s string) string {
		out, err := enc.String(bulletReplacer.Replace(s))
		if err != nil {
			return s
		}
		return out
	}
}

func (c *Canvas) frame() canvas.Rect { return c.frames[len(c.frames)-1] }

// page converts content coordinates to page coordinates.
func page(x, y float64) (float64, float64) {
	return MarginLeft + x, MarginTop + y
}

func (c *Canvas) setFont(font string, bold bool, size float64) {
	family, style := c.regular, ""
	if font == canvas.FontOCRB {
		family = c.ocrb
	} else if bold {
		style = "B"
	}
	c.pdf.SetFont(family, style, size)
}

// DrawText implements canvas.Canvas. at is the baseline start of the text,
// or of the box when style.Width is set.
func (c *Canvas) DrawText(text string, at canvas.Point, style canvas.TextStyle) {
	c.setFont(style.Font, style.Bold, orDefault(style.Size, 8))
	s := c.encode(text)

	f := c.frame()
	x := f.X + at.X
	if style.Width > 0 {
		w := c.pdf.GetStringWidth(s)
		switch style.Align {
		case canvas.AlignRight:
			x += style.Width - w
		case canvas.AlignCenter:
			x += (style.Width - w) / 2
		}
	}

	px, py := page(x, f.Y+at.Y)
	c.pdf.Text(px, py, s)
}

// DrawTable implements canvas.Canvas.
func (c *Canvas) DrawTable(t canvas.Table) float64 {
	if err := t.Validate(); err != nil {
		c.log.Error().Err(err).Msg("Drawing malformed table")
	}

	f := c.frame()
	x0 := f.X + t.Indent
	y0 := c.y
	y := y0

	for _, row := range t.Rows {
		y += row.PaddingTop

		x := x0
		widths := t.Widths(row)
		for i, cell := range row.Cells {
			col := t.ColumnAt(row, i)
			size := orDefault(row.Size, orDefault(col.Size, orDefault(t.Size, 8)))
			bold := row.Bold || col.Bold || cell.Bold
			c.drawCell(cell.Text, x, y, widths[i], row.Height, t.Padding, col.Align, bold, size)
			x += widths[i]
		}

		y += row.Height + row.PaddingBottom
		if row.SeparatorBelow {
			c.rule(x0, y, t.Width(), t.Frame.Width)
		}
	}

	height := y - y0
	if t.Frame.Width > 0 {
		c.pdf.SetLineWidth(t.Frame.Width)
		px, py := page(x0, y0)
		c.pdf.Rect(px, py, t.Width(), height, "D")
		c.pdf.SetLineWidth(lineWidth)
	}

	c.y = y
	return height
}

func (c *Canvas) drawCell(text string, x, y, w, h float64, pad canvas.Padding, align canvas.Align, bold bool, size float64) {
	if text == "" {
		return
	}
	s := c.encode(text)
	inner := w - pad.Left - pad.Right

	// Shrink to fit like the printed form does for long codes.
	c.setFont("", bold, size)
	for size > minShrinkSize && c.pdf.GetStringWidth(s) > inner {
		size -= 0.5
		c.setFont("", bold, size)
	}

	if align == "" {
		align = canvas.AlignLeft
	}
	px, py := page(x+pad.Left, y)
	c.pdf.SetXY(px, py)
	c.pdf.CellFormat(inner, h, s, "", 0, string(align)+"M", false, 0, "")
}

func (c *Canvas) rule(x, y, width, lw float64) {
	if lw <= 0 {
		lw = lineWidth
	}
	c.pdf.SetLineWidth(lw)
	x1, y1 := page(x, y)
	c.pdf.Line(x1, y1, x1+width, y1)
	c.pdf.SetLineWidth(lineWidth)
}

// BoundingBox implements canvas.Canvas.
func (c *Canvas) BoundingBox(origin canvas.Point, width, height float64, render func(canvas.Canvas)) {
	parent := c.frame()
	box := canvas.Rect{X: parent.X + origin.X, Y: parent.Y + origin.Y, Width: width, Height: height}

	c.frames = append(c.frames, box)
	c.y = box.Y
	render(c)
	end := c.y
	c.frames = c.frames[:len(c.frames)-1]

	if height > 0 {
		c.y = box.Y + height
	} else {
		c.y = end
	}
}

// Cursor implements canvas.Canvas.
func (c *Canvas) Cursor() float64 { return c.y - c.frame().Y }

// MoveDown implements canvas.Canvas.
func (c *Canvas) MoveDown(dy float64) { c.y += dy }

// StartNewPage implements canvas.Canvas.
func (c *Canvas) StartNewPage() {
	c.pdf.AddPage()
	c.y = c.frame().Y
}

// RepeatOnEveryPage implements canvas.Canvas.
func (c *Canvas) RepeatOnEveryPage(render func(canvas.Canvas)) {
	c.repeaters = append(c.repeaters, repeater{match: func(int) bool { return true }, render: render})
}

// RepeatOnPagesMatching implements canvas.Canvas.
func (c *Canvas) RepeatOnPagesMatching(match func(page int) bool, render func(canvas.Canvas)) {
	c.repeaters = append(c.repeaters, repeater{match: match, render: render})
}

// PageNumberAnnotation implements canvas.Canvas.
func (c *Canvas) PageNumberAnnotation(template string, at canvas.Point, style canvas.TextStyle) {
	c.annotations = append(c.annotations, annotation{template: template, at: at, style: style})
}

// Bounds implements canvas.Canvas.
func (c *Canvas) Bounds() canvas.Rect { return c.frame() }

// Pages returns the number of pages started so far.
func (c *Canvas) Pages() int { return c.pdf.PageCount() }

// Finish stamps the repeated content on every page and writes the document
// to w.
func (c *Canvas) Finish(w io.Writer) error {
	if c.finished {
		return ErrFinished
	}
	c.finished = true

	total := c.pdf.PageCount()
	for p := 1; p <= total; p++ {
		c.pdf.SetPage(p)
		c.frames = []canvas.Rect{c.root}
		for _, rep := range c.repeaters {
			if rep.match(p) {
				c.y = 0
				rep.render(c)
			}
		}
		for _, a := range c.annotations {
			text := strings.NewReplacer("<page>", strconv.Itoa(p), "<total>", strconv.Itoa(total)).Replace(a.template)
			c.DrawText(text, a.at, a.style)
		}
	}
	c.pdf.SetPage(total)

	if err := c.pdf.Output(w); err != nil {
		return fmt.Errorf("pdfcanvas: write: %w", err)
	}
	c.log.Debug().Int("pages", total).Msg("PDF written")
	return nil
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
