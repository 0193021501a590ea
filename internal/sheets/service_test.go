package sheets

import (
	"errors"
	"testing"
	"time"

	"recipes/internal/recipe"
	"recipes/internal/summary"
	"recipes/pkg/models"
	"recipes/pkg/money"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"Edit URL", "https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0", "1AbC-d_9", false},
		{"Bare URL", "https://docs.google.com/spreadsheets/d/xyz", "xyz", false},
		{"Not a sheet", "https://example.com/doc/1", "", true},
		{"Empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractSpreadsheetID(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidURL) {
				t.Errorf("got %v, want ErrInvalidURL", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func testReport(inconsistent bool) *recipe.Report {
	sum := &summary.Summary{
		Buckets: []summary.Bucket{
			{Key: summary.TarmedAL, Amount: money.MustParse("8.52")},
			{Key: summary.TarmedTL, Amount: money.MustParse("7.29")},
			{Key: summary.Physio, Amount: money.MustParse("48.00")},
		},
		GrandTotal:       money.MustParse("63.81"),
		ObligationAmount: money.MustParse("63.80"),
	}
	rep := &recipe.Report{InvoiceID: "2024-0042", ValueDate: "01.03.2024", Summary: sum, Pages: 1}
	if inconsistent {
		rep.Inconsistencies = []*models.InconsistencyError{{Index: 0}}
	}
	return rep
}

func TestBuildRows(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	rows := BuildRows([]Result{
		{Filename: "a.json", Patient: "Hans Muster", Report: testReport(false)},
		{Filename: "b.json", Report: testReport(true)},
		{Filename: "c.json", Err: errors.New("missing biller")},
	}, at)

	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3", len(rows))
	}

	ok := rows[0]
	if ok.Status != StatusOK || ok.InvoiceID != "2024-0042" || ok.ProcessedAt != "01.03.2024 09:30:00" {
		t.Errorf("row 0: %+v", ok)
	}
	if len(ok.Buckets) != len(summary.Order) {
		t.Fatalf("buckets: got %d, want %d", len(ok.Buckets), len(summary.Order))
	}
	if got := ok.Buckets[2].Format(); got != "48.00" {
		t.Errorf("physio: got %s", got)
	}
	// Totals are rounded to 0.05 like the printed footer.
	if got := ok.GrandTotal.Format(); got != "63.80" {
		t.Errorf("grand total: got %s, want 63.80", got)
	}

	if rows[1].Status != StatusInconsistent {
		t.Errorf("row 1 status: %s", rows[1].Status)
	}
	if rows[2].Status != StatusFailed || rows[2].Description != "missing biller" {
		t.Errorf("row 2: %+v", rows[2])
	}
}

func TestRowToValues(t *testing.T) {
	rows := BuildRows([]Result{
		{Filename: "a.json", Patient: "Hans Muster", Report: testReport(false)},
		{Filename: "c.json", Err: errors.New("boom")},
	}, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	for i, row := range rows {
		if got := len(rowToValues(row)); got != len(Headers) {
			t.Errorf("row %d: %d values, want %d", i, got, len(Headers))
		}
	}

	values := rowToValues(rows[0])
	if values[6] != 48.0 {
		t.Errorf("physio cell: %v", values[6])
	}
	if values[12] != 63.8 || values[14] != 1 || values[15] != StatusOK {
		t.Errorf("tail: %v", values[12:])
	}

	failed := rowToValues(rows[1])
	if failed[4] != "" || failed[15] != "Fehler: boom" {
		t.Errorf("failed row: %v", failed)
	}
}

func TestLoadCredentials(t *testing.T) {
	if _, err := LoadCredentials("", ""); err == nil {
		t.Error("expected error without credentials")
	}
	got, err := LoadCredentials("", `{"type":"service_account"}`)
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Errorf("inline credentials: %s, %v", got, err)
	}
	if _, err := LoadCredentials("/nonexistent/creds.json", ""); err == nil {
		t.Error("expected error for missing file")
	}
}
