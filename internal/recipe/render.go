// Package recipe composes the insurance recipe ("Rückforderungsbeleg") of an
// invoice on a canvas: title and payment reference strip on every page, the
// full info header on page 1 and a condensed one on every other page, the
// service records paginated with subtotals and the closing summary.
package recipe

import (
	"github.com/rs/zerolog"

	"recipes/internal/canvas"
	"recipes/internal/logger"
	"recipes/internal/paginate"
	"recipes/internal/summary"
	"recipes/pkg/models"
)

// Report describes a finished render pass.
type Report struct {
	InvoiceID        string
	ValueDate        string // DD.MM.YYYY, empty when unset
	PaymentReference string
	Plan             []paginate.Page
	Summary          *summary.Summary

	// Inconsistencies lists records whose stated amount disagrees with their
	// streams. They are printed with the stated amount.
	Inconsistencies []*models.InconsistencyError

	TrailingSubtotal bool // The last record page got a subtotal from the footer check
	SummaryOnNewPage bool
	Pages            int
}

// Option configures a render pass.
type Option func(*composer)

// WithLogger sets the logger inconsistencies and progress are reported to.
func WithLogger(l zerolog.Logger) Option {
	return func(c *composer) { c.log = l }
}

// WithCopy marks the document as a copy ("Rechnungskopie ▪ Ja"), overriding
// the invoice's own flag.
func WithCopy(marked bool) Option {
	return func(c *composer) { c.copy = &marked }
}

// WithGeometry replaces the A4 layout, e.g. to exercise the footer checks
// with a larger footer reservation.
func WithGeometry(g Geometry) Option {
	return func(c *composer) { c.g = g }
}

// WithTable replaces the category table used for the closing summary.
func WithTable(t summary.Table) Option {
	return func(c *composer) { c.table = t }
}

type composer struct {
	inv   *models.Invoice
	c     canvas.Canvas
	g     Geometry
	log   zerolog.Logger
	copy  *bool
	table summary.Table
}

// Render draws the recipe of inv on c. The invoice is checked first: when the
// biller, provider, patient or law is missing, a *PreconditionError is
// returned and nothing is drawn. The caller finishes the canvas.
func Render(inv *models.Invoice, c canvas.Canvas, opts ...Option) (*Report, error) {
	const op = "Render"

	if err := checkPreconditions(inv); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewRenderError(op, ErrNilCanvas, inv.ID)
	}

	r := &composer{
		inv:   inv,
		c:     c,
		g:     A4,
		log:   logger.WithComponent("recipe"),
		table: summary.DefaultTable,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With().Str("invoice_id", inv.ID).Logger()

	// Everything that can fail is decided before the first drawing call.
	plan, err := paginate.Plan(len(inv.ServiceRecords))
	if err != nil {
		return nil, NewRenderError("Plan", err, inv.ID)
	}
	if err := r.table.Validate(); err != nil {
		return nil, NewRenderError("Aggregate", err, "invalid category table")
	}
	sum := summary.Aggregate(inv.ServiceRecords, r.table)
	sum.ObligationAmount = inv.ObligationAmount
	if err := sum.Verify(); err != nil {
		return nil, NewRenderError("Aggregate", err, inv.ID)
	}

	report := &Report{
		InvoiceID:        inv.ID,
		ValueDate:        formatTime(inv.ValueDate, dateLayout),
		PaymentReference: inv.PaymentReference,
		Plan:             plan,
		Summary:          sum,
		Inconsistencies:  inv.CheckRecords(),
	}
	for _, ie := range report.Inconsistencies {
		r.log.Warn().
			Err(ie).
			Int("index", ie.Index).
			Str("code", ie.Code).
			Str("stated", ie.Stated.Format()).
			Str("computed", ie.Computed.Format()).
			Msg("Service record amount disagrees with its streams, printing stated amount")
	}

	r.registerRepeaters()
	r.drawFullHeader()

	pages := r.drawRecords(plan)

	d := paginate.PlaceFooter(paginate.FooterInput{
		Cursor:                c.Cursor(),
		Threshold:             r.g.FooterTop(),
		SubtotalHeight:        r.g.SubtotalHeight(),
		NeedsTrailingSubtotal: paginate.NeedsTrailingSubtotal(plan),
	})
	if d.TrailingSubtotal {
		r.drawSubtotal(plan[len(plan)-1])
	}
	if d.BreakBeforeSummary {
		c.StartNewPage()
		pages++
	}
	r.drawFooter(sum)

	report.TrailingSubtotal = d.TrailingSubtotal
	report.SummaryOnNewPage = d.BreakBeforeSummary
	report.Pages = pages

	r.log.Debug().
		Int("records", len(inv.ServiceRecords)).
		Int("pages", pages).
		Str("total", sum.GrandTotal.Format()).
		Msg("Recipe rendered")

	return report, nil
}

func checkPreconditions(inv *models.Invoice) error {
	switch {
	case inv == nil:
		return &PreconditionError{Field: "invoice"}
	case inv.Biller == nil:
		return &PreconditionError{Field: "biller"}
	case inv.Provider == nil:
		return &PreconditionError{Field: "provider"}
	case inv.Patient == nil:
		return &PreconditionError{Field: "patient"}
	case inv.Law == nil:
		return &PreconditionError{Field: "law"}
	}
	return nil
}

func (r *composer) isCopy() bool {
	if r.copy != nil {
		return *r.copy
	}
	return r.inv.Copy
}

// registerRepeaters sets up everything drawn on more than one page.
func (r *composer) registerRepeaters() {
	r.c.RepeatOnEveryPage(r.drawTitle)
	r.c.RepeatOnPagesMatching(canvas.NotOnFirstPage, func(c canvas.Canvas) {
		c.BoundingBox(canvas.Point{}, r.g.Width, r.g.CondensedHeaderHeight, func(c canvas.Canvas) {
			c.DrawTable(r.condensedHeader())
		})
	})
	r.c.PageNumberAnnotation("<page>", r.g.PageNumber, canvas.TextStyle{Size: SmallFont})
	r.c.RepeatOnEveryPage(r.drawStrip)
}

func (r *composer) drawTitle(c canvas.Canvas) {
	y := r.g.TitleBaseline
	c.DrawText(Title, canvas.Point{X: 0, Y: y}, canvas.TextStyle{Size: TitleFont, Bold: true})
	c.DrawText(Marker, canvas.Point{X: r.g.MarkerX, Y: y}, canvas.TextStyle{Size: TitleFont, Bold: true})
	c.DrawText(Release, canvas.Point{X: r.g.ReleaseX, Y: y}, canvas.TextStyle{Size: ReleaseFont})
}

func (r *composer) drawStrip(c canvas.Canvas) {
	c.DrawText(r.inv.PaymentReference, canvas.Point{X: 0, Y: r.g.StripBaseline}, canvas.TextStyle{
		Font:  canvas.FontOCRB,
		Size:  StripFont,
		Align: canvas.AlignRight,
		Width: r.g.Width,
	})
}
