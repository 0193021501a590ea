package recipe

import (
	"recipes/internal/canvas"
	"recipes/internal/summary"
)

// Closing summary labels.
const (
	LabelObligation  = "▪ PFL"
	LabelTotalAmount = "▪ Gesamtbetrag"
	LabelAmountPFL   = "davon PFL"
	LabelPrepayment  = "Anzahlung"
	LabelAmountDue   = "Fälliger Betrag"
	LabelVATNumber   = "▪ MWST-Nr."
	LabelTotal       = "Total"
)

// VATHeadings are the column headings of the VAT table.
var VATHeadings = []string{"Code", "Satz", "Betrag", "MWST"}

const zero = "0.00"

// drawFooter draws the closing summary at the footer position of the
// current page.
func (r *composer) drawFooter(sum *summary.Summary) {
	r.c.BoundingBox(canvas.Point{Y: r.g.FooterTop()}, r.g.Width, 0, func(c canvas.Canvas) {
		c.DrawTable(r.tarmedFooter(sum))
		c.DrawTable(canvas.Table{
			Columns: []canvas.Column{{Width: r.g.Width, Bold: true}},
			Rows:    []canvas.Row{{Cells: cells(LabelVATNumber), Height: r.g.SmallRow, PaddingTop: 1, Bold: true}},
			Size:    SmallFont,
		})
		c.DrawTable(r.vatTable(sum))
	})
}

func amount(b summary.Bucket) string {
	return b.Amount.CurrencyRound().Format()
}

func points(b summary.Bucket) string {
	return b.TaxPoints.StringFixed(2)
}

// tarmedFooter is the bucket table: three rows of thirteen columns.
func (r *composer) tarmedFooter(sum *summary.Summary) canvas.Table {
	al, tl := sum.Bucket(summary.TarmedAL), sum.Bucket(summary.TarmedTL)
	physio, lab := sum.Bucket(summary.Physio), sum.Bucket(summary.Laboratory)
	migel, medi := sum.Bucket(summary.MiGeL), sum.Bucket(summary.Medication)
	other, cantonal := sum.Bucket(summary.Other), sum.Bucket(summary.Cantonal)

	total := sum.GrandTotal.CurrencyRound().Format()

	row := func(bold bool, cs ...canvas.Cell) canvas.Row {
		return canvas.Row{Cells: cs, Height: r.g.SmallRow, Bold: bold, PaddingTop: 0.18, PaddingBottom: 0.18}
	}

	totals := row(true,
		span(LabelTotalAmount, 2), canvas.Cell{Text: total}, canvas.Cell{},
		canvas.Cell{Text: LabelAmountPFL}, canvas.Cell{Text: sum.ObligationAmount.CurrencyRound().Format()}, canvas.Cell{},
		canvas.Cell{Text: LabelPrepayment}, canvas.Cell{Text: zero}, canvas.Cell{},
		canvas.Cell{Text: LabelAmountDue}, canvas.Cell{Text: total}, canvas.Cell{},
	)
	totals.PaddingTop = 3.5

	widths := []float64{12, 14, 14, 14, 22, 14, 14, 18, 14, 14, 16, 14, 10}
	cols := make([]canvas.Column, len(widths))
	for i, w := range widths {
		cols[i] = canvas.Column{Width: w}
		switch i {
		case 0:
			cols[i].Bold = true
		case 2, 3, 5, 6, 8, 9, 11, 12:
			cols[i].Align = canvas.AlignRight
		}
	}

	return canvas.Table{
		Columns: cols,
		Rows: []canvas.Row{
			row(false, cells(
				LabelObligation, al.Label, amount(al), points(al),
				physio.Label, amount(physio), points(physio),
				migel.Label, amount(migel), points(migel),
				other.Label, amount(other), "")...),
			row(false, cells(
				"", tl.Label, amount(tl), points(tl),
				lab.Label, amount(lab), points(lab),
				medi.Label, amount(medi), points(medi),
				cantonal.Label, amount(cantonal), "")...),
			totals,
		},
		Size:    SmallFont,
		Padding: canvas.Pad(0, 0.7),
	}
}

// vatTable lists the amounts by VAT code. Medical services are exempt, so
// the whole amount is listed under code 0.
func (r *composer) vatTable(sum *summary.Summary) canvas.Table {
	total := sum.GrandTotal.CurrencyRound().Format()

	return canvas.Table{
		Columns: []canvas.Column{
			{Width: 10},
			{Width: 20, Align: canvas.AlignRight},
			{Width: 20, Align: canvas.AlignRight},
			{Width: 20, Align: canvas.AlignRight},
		},
		Rows: []canvas.Row{
			{Cells: cells(VATHeadings...), Height: r.g.SmallRow, Bold: true, Size: SmallFont, PaddingTop: 0.18, PaddingBottom: 0.18},
			{Cells: cells("0", zero, total, zero), Height: r.g.MediumRow, PaddingTop: 0.18, PaddingBottom: 0.18},
			{Cells: cells(LabelTotal, "", total, zero), Height: r.g.MediumRow, Bold: true, PaddingTop: 0.18, PaddingBottom: 0.18},
		},
		Size:    MediumFont,
		Padding: canvas.Pad(0, 0.7),
	}
}
