package recipe

import (
	"strings"
	"time"

	"recipes/internal/canvas"
)

// Printed title of every page.
const (
	Title   = "Rückforderungsbeleg"
	Marker  = "M"
	Release = "Release ▪ 4.0M/de"
)

const (
	bullet          = "▪ "
	dateLayout      = "02.01.2006"
	timestampLayout = "02.01.2006 15:04:05"
)

// Info header rows followed by a rule.
var headerSeparators = map[int]bool{4: true, 23: true, 24: true, 25: true, 26: true}

func (r *composer) drawFullHeader() {
	r.c.BoundingBox(canvas.Point{}, r.g.Width, r.g.FullHeaderHeight, func(c canvas.Canvas) {
		c.DrawTable(r.fullHeader())

		window := r.g.AddressWindow
		c.BoundingBox(canvas.Point{X: window.X, Y: window.Y}, window.Width, 0, func(c canvas.Canvas) {
			addr := r.inv.AddressWindow()
			for i, line := range addr.Lines() {
				y := float64(i+1) * r.g.AddressLineHeight
				c.DrawText(line, canvas.Point{Y: y}, canvas.TextStyle{Size: AddressFont})
			}
		})
	})
	r.c.MoveDown(r.g.FirstRecordsTop - r.c.Cursor())
}

// headerTable returns the four column frame shared by both header variants.
func (r *composer) headerTable(rows []canvas.Row) canvas.Table {
	last := len(rows) - 1
	rows[0].PaddingTop = 0.35
	rows[last].PaddingBottom = 0.35

	return canvas.Table{
		Columns: []canvas.Column{
			{Width: 20, Bold: true, Size: SmallFont},
			{Width: 25, Size: SmallFont},
			{Width: 46},
			{Width: r.g.Width - 91, Size: SmallFont},
		},
		Rows:    rows,
		Size:    MediumFont,
		Padding: canvas.Pad(0, 0.7),
		Frame:   canvas.Frame{Width: BorderWidth},
	}
}

func (r *composer) headerRow(cells ...canvas.Cell) canvas.Row {
	return canvas.Row{Cells: cells, Height: r.g.HeaderRow, PaddingTop: 0.18, PaddingBottom: 0.18}
}

func cells(texts ...string) []canvas.Cell {
	out := make([]canvas.Cell, len(texts))
	for i, t := range texts {
		out[i] = canvas.Cell{Text: t}
	}
	return out
}

func span(text string, n int) canvas.Cell {
	return canvas.Cell{Text: text, Colspan: n}
}

// documentRows are the rows shared by the full and the condensed header.
func (r *composer) documentRows() []canvas.Row {
	inv := r.inv
	b, p := inv.Biller, inv.Provider

	return []canvas.Row{
		r.headerRow(cells("Dokument", "", bullet+inv.ID+" "+formatTime(inv.UpdatedAt, timestampLayout), "Seite ▪")...),
		r.headerRow(cells("Rechnungs-", "EAN-Nr.", bullet+b.EANParty, b.Address.FullAddress(", "))...),
		r.headerRow(cells("steller", "ZSR-Nr.", bullet+b.ZSR, b.Address.Contact(", "))...),
		r.headerRow(cells("Leistungs-", "EAN-Nr.", bullet+p.EANParty, p.Address.FullAddress(", "))...),
		r.headerRow(cells("erbringer", "ZSR-Nr./NIF-Nr.", bullet+p.ZSR, p.Address.Contact(", "))...),
	}
}

func (r *composer) fullHeader() canvas.Table {
	inv := r.inv
	pat, law, tr := inv.Patient, inv.Law, inv.Treatment

	copyMarker := "Nein"
	if r.isCopy() {
		copyMarker = "Ja"
	}

	var referrer, referrerAddress string
	if inv.Referrer != nil {
		referrer = joinNonEmpty("/", inv.Referrer.EANParty, inv.Referrer.ZSR)
		referrerAddress = inv.Referrer.Address.FullAddress(", ")
	}

	var eanList string
	if inv.Biller.EANParty != "" {
		eanList = bullet + "1/" + inv.Biller.EANParty
	}

	rows := r.documentRows()
	rows = append(rows,
		r.headerRow(cells("Patient", "Name", bullet+pat.FamilyName, "EAN-Nr. ▪ "+pat.EANParty)...),
		r.headerRow(cells("", "Vorname", bullet+pat.GivenName, "")...),
		r.headerRow(cells("", "Strasse", bullet+pat.Street, "")...),
		r.headerRow(cells("", "PLZ", bullet+pat.PostalCode, "")...),
		r.headerRow(cells("", "Ort", bullet+pat.Locality, "")...),
		r.headerRow(cells("", "Geburtsdatum", bullet+formatTime(pat.BirthDate, dateLayout), "")...),
		r.headerRow(cells("", "Geschlecht", bullet+pat.Sex, "")...),
		r.headerRow(cells("", "Unfalldatum", "▪", "")...),
		r.headerRow(cells("", "Unfall-/Verfüg.Nr.", bullet+law.CaseID, "")...),
		r.headerRow(cells("", "AHV-Nr.", bullet+law.SSN, "")...),
		r.headerRow(cells("", "Versicherten-Nr.", bullet+law.InsuredID, "")...),
		r.headerRow(cells("", "Betriebs-Nr./-Name", "▪", "")...),
		r.headerRow(cells("", "Kanton", bullet+tr.Canton, "")...),
		r.headerRow(cells("", "Rechnungskopie", bullet+copyMarker, "")...),
		r.headerRow(cells("", "Vergütungsart", bullet+inv.Tiers.Name, "")...),
		r.headerRow(cells("", "Gesetz", bullet+law.Name, "")...),
		r.headerRow(cells("", "Behandlungsgrund", bullet+tr.Reason, "")...),
		r.headerRow(cells("", "Behandlung",
			bullet+formatTime(inv.DateBegin, dateLayout)+" - "+formatTime(inv.DateEnd, dateLayout),
			"Rechnungsnr. ▪ "+inv.ID)...),
		r.headerRow(cells("", "Erbringungsort", bullet+inv.PlaceType,
			"Rechnungs-/Mahndatum ▪ "+formatTime(inv.ValueDate, dateLayout))...),
		r.headerRow(cells("Auftraggeber", "EAN-Nr./ZSR-Nr.", bullet+referrer, referrerAddress)...),
		r.headerRow(cells("Diagnose",
			bullet+strings.Join(tr.DiagnosisTypes(), "; "),
			bullet+strings.Join(tr.DiagnosisCodes(), "; "), "")...),
		r.headerRow(canvas.Cell{Text: "EAN-Liste"}, span(eanList, 2), canvas.Cell{}),
		r.headerRow(canvas.Cell{Text: "Bemerkungen"}, span(inv.Remark, 2), canvas.Cell{}),
	)

	for i := range rows {
		if headerSeparators[i] {
			rows[i].SeparatorBelow = true
			rows[i].PaddingBottom = 0.35
			if i+1 < len(rows) {
				rows[i+1].PaddingTop = 0.35
			}
		}
	}
	rows[len(rows)-1].Height = 7

	return r.headerTable(rows)
}

// condensedHeader repeats the document identification and the patient on
// continuation pages.
func (r *composer) condensedHeader() canvas.Table {
	pat := r.inv.Patient

	rows := r.documentRows()
	rows[4].SeparatorBelow = true
	rows[4].PaddingBottom = 0.35

	patient := pat.FamilyName + " " + pat.GivenName + ", " + formatTime(pat.BirthDate, dateLayout)
	row := r.headerRow(canvas.Cell{Text: "Patient"}, span(patient, 2), canvas.Cell{})
	row.PaddingTop = 0.35
	row.Height = 4.2
	rows = append(rows, row)

	return r.headerTable(rows)
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
