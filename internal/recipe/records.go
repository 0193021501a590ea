package recipe

import (
	"strconv"

	"recipes/internal/canvas"
	"recipes/internal/paginate"
	"recipes/pkg/models"
	"recipes/pkg/money"
)

// Column widths of the service record table in millimetres. They add up to
// the content width.
var recordWidths = []float64{22, 9, 15, 17, 8, 10, 17, 14, 14, 14, 11, 11, 5, 3, 3, 3, 14}

// RecordHeadings are the column headings of the service record table.
var RecordHeadings = []string{
	"Datum", "Tarif", "Tarifziffer", "Bezugsziffer", "Si St", "Anzahl",
	"TP AL/Preis", "f AL", "TPW AL", "TP TL", "f TL", "TPW TL",
	"A", "V", "P", "M", "Betrag",
}

// SubtotalLabel starts every subtotal row.
const SubtotalLabel = "Zwischentotal"

// firstNumericColumn is the first right aligned column of the record table.
const firstNumericColumn = 5

func recordColumns() []canvas.Column {
	cols := make([]canvas.Column, len(recordWidths))
	for i, w := range recordWidths {
		cols[i] = canvas.Column{Width: w, Align: canvas.AlignLeft}
		if i >= firstNumericColumn {
			cols[i].Align = canvas.AlignRight
		}
	}
	return cols
}

// drawRecords draws every page of the plan and returns the number of pages
// used.
func (r *composer) drawRecords(plan []paginate.Page) int {
	for _, p := range plan {
		if p.Continuation {
			r.c.StartNewPage()
			r.c.MoveDown(r.g.ContinuationRecordsTop)
		}

		r.c.DrawTable(r.heading())
		for _, rec := range r.inv.ServiceRecords[p.Start:p.End] {
			r.drawRecord(rec)
		}
		if p.Subtotal {
			r.drawSubtotal(p)
		}
	}
	return len(plan)
}

func (r *composer) heading() canvas.Table {
	return canvas.Table{
		Columns: recordColumns(),
		Rows: []canvas.Row{{
			Cells:         cells(RecordHeadings...),
			Height:        r.g.SmallRow,
			Bold:          true,
			PaddingBottom: r.g.HeadingGap,
		}},
		Size: SmallFont,
	}
}

func (r *composer) drawRecord(rec models.ServiceRecord) {
	r.c.DrawTable(canvas.Table{
		Columns: []canvas.Column{{Width: r.g.Width - r.g.RecordIndent, Bold: true}},
		Rows:    []canvas.Row{{Cells: cells(rec.Text), Height: r.g.SmallRow, Bold: true}},
		Size:    SmallFont,
		Indent:  r.g.RecordIndent,
	})

	r.c.DrawTable(canvas.Table{
		Columns: recordColumns(),
		Rows: []canvas.Row{{
			Cells:         cells(RecordCells(rec)...),
			Height:        r.g.MediumRow,
			PaddingBottom: r.g.RecordGap,
		}},
		Size: MediumFont,
	})
}

// RecordCells returns the printed cells of a service record. The amount is
// the stated amount, unrounded.
func RecordCells(rec models.ServiceRecord) []string {
	return []string{
		bullet + formatTime(rec.Date, dateLayout),
		rec.TariffKey(),
		rec.Code,
		rec.RefCode,
		strconv.Itoa(rec.Session),
		rec.Quantity.StringFixed(2),
		rec.AmountA.StringFixed(2),
		rec.UnitFactorA.StringFixed(2),
		rec.UnitValueA.StringFixed(2),
		rec.AmountB.StringFixed(2),
		rec.UnitFactorB.StringFixed(2),
		rec.UnitValueB.StringFixed(2),
		"1",
		"1",
		"0",
		"0",
		rec.Amount.Format(),
	}
}

// drawSubtotal draws the subtotal of the records on page p.
func (r *composer) drawSubtotal(p paginate.Page) {
	total := money.Zero()
	for _, rec := range r.inv.ServiceRecords[p.Start:p.End] {
		total = total.Add(rec.Amount)
	}

	const amountWidth = 50
	r.c.DrawTable(canvas.Table{
		Columns: []canvas.Column{
			{Width: r.g.RecordIndent},
			{Width: r.g.Width - r.g.RecordIndent - amountWidth},
			{Width: amountWidth, Align: canvas.AlignRight},
		},
		Rows: []canvas.Row{{
			Cells:      cells(SubtotalLabel, "CHF", total.CurrencyRound().Format()),
			Height:     r.g.MediumRow,
			Bold:       true,
			PaddingTop: r.g.SubtotalGap,
		}},
		Size: MediumFont,
	})
}
