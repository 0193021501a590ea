package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"recipes/internal/recipe"
	"recipes/internal/source"
	"recipes/pkg/models"
	"recipes/pkg/money"
)

func testInvoice(id string, records int) *models.Invoice {
	party := func(name string) *models.Party {
		return &models.Party{
			EANParty: "7601000000001",
			ZSR:      "K123456",
			Address:  models.Address{FamilyName: name, Street: "Seeweg 1", PostalCode: "8700", Locality: "Küsnacht"},
		}
	}

	inv := &models.Invoice{
		ID:               id,
		ValueDate:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:        time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		PaymentReference: "0100000170006>210000000000000000000420042+ 010001628>",
		Biller:           party("Physio Seeweg"),
		Provider:         party("Meier"),
		Patient: &models.Patient{
			Address:   models.Address{GivenName: "Hans", FamilyName: "Muster", Street: "Seeweg 3", PostalCode: "8700", Locality: "Küsnacht"},
			BirthDate: time.Date(1970, 5, 17, 0, 0, 0, 0, time.UTC),
		},
		Law: &models.Law{Name: "KVG"},
	}
	for i := 0; i < records; i++ {
		inv.ServiceRecords = append(inv.ServiceRecords, models.ServiceRecord{
			Date:        time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
			TariffType:  311,
			Code:        "7301",
			Session:     i + 1,
			Text:        "Allgemeine Physiotherapie",
			Quantity:    decimal.NewFromInt(1),
			AmountA:     decimal.NewFromInt(10),
			UnitFactorA: decimal.NewFromInt(1),
			UnitValueA:  decimal.NewFromInt(1),
			Amount:      money.MustParse("10.00"),
		})
	}
	return inv
}

func writeInvoice(t *testing.T, dir, name string, inv *models.Invoice) string {
	t.Helper()
	data, err := json.Marshal(inv)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderInvoice(t *testing.T) {
	var buf bytes.Buffer
	rep, err := RenderInvoice(testInvoice("2024-0001", 18), &buf, Options{Log: zerolog.Nop()})
	if err != nil {
		t.Fatalf("RenderInvoice: %v", err)
	}
	if rep.Pages != 2 {
		t.Errorf("pages: got %d, want 2", rep.Pages)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

func TestRenderInvoicePrecondition(t *testing.T) {
	inv := testInvoice("2024-0002", 1)
	inv.Law = nil

	var buf bytes.Buffer
	_, err := RenderInvoice(inv, &buf, Options{Log: zerolog.Nop()})
	if !errors.Is(err, recipe.ErrPrecondition) {
		t.Fatalf("got %v, want ErrPrecondition", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written for a failed render")
	}
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	in := writeInvoice(t, dir, "a.json", testInvoice("2024-0003", 3))
	out := filepath.Join(dir, "out", "a.pdf")

	res := RenderFile(in, out, Options{Log: zerolog.Nop()})
	if res.Err != nil {
		t.Fatalf("RenderFile: %v", res.Err)
	}
	if res.Status() != "success" || res.Patient != "Hans Muster" {
		t.Errorf("result: %+v", res)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output missing: %v", err)
	}

	dry := RenderFile(in, filepath.Join(dir, "dry.pdf"), Options{Log: zerolog.Nop(), DryRun: true})
	if dry.Err != nil || dry.Output != "" {
		t.Errorf("dry run: %+v", dry)
	}
	if _, err := os.Stat(filepath.Join(dir, "dry.pdf")); !os.IsNotExist(err) {
		t.Error("dry run wrote a file")
	}
}

func TestRunKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()

	var files []string
	for i := 0; i < 9; i++ {
		// Uneven sizes finish out of order.
		inv := testInvoice(fmt.Sprintf("2024-%04d", i), (9-i)*8)
		files = append(files, writeInvoice(t, dir, fmt.Sprintf("%02d.json", i), inv))
	}
	files = append(files, filepath.Join(dir, "missing.json"))

	var order []int
	results, err := Run(context.Background(), files, Options{
		OutputDir: filepath.Join(dir, "out"),
		Workers:   3,
		Log:       zerolog.Nop(),
	}, func(done, total int, r Result) {
		if total != len(files) || done != len(order)+1 {
			t.Errorf("progress %d/%d after %d calls", done, total, len(order))
		}
		order = append(order, r.Index)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i, idx := range order {
		if idx != i {
			t.Fatalf("progress order: %v", order)
		}
	}
	if len(order) != len(files) {
		t.Fatalf("progress calls: got %d, want %d", len(order), len(files))
	}

	for i, r := range results[:9] {
		if r.Err != nil {
			t.Errorf("file %d: %v", i, r.Err)
		}
		if r.Report.InvoiceID != fmt.Sprintf("2024-%04d", i) {
			t.Errorf("file %d: invoice %s", i, r.Report.InvoiceID)
		}
	}
	if last := results[9]; last.Status() != "error" {
		t.Errorf("missing file: status %s", last.Status())
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "00.pdf")); err != nil {
		t.Errorf("output: %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, []string{"a.json", "b.json"}, Options{Log: zerolog.Nop()}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestRunKeepsSubfolders(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")

	files := []string{
		writeInvoice(t, in, filepath.Join("praxis-a", "rechnung.json"), testInvoice("2024-0001", 3)),
		writeInvoice(t, in, filepath.Join("praxis-b", "rechnung.json"), testInvoice("2024-0002", 5)),
	}

	results, err := Run(context.Background(), files, Options{
		OutputDir: out,
		Root:      in,
		Log:       zerolog.Nop(),
	}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i, want := range []string{
		filepath.Join(out, "praxis-a", "rechnung.pdf"),
		filepath.Join(out, "praxis-b", "rechnung.pdf"),
	} {
		if results[i].Err != nil {
			t.Fatalf("file %d: %v", i, results[i].Err)
		}
		if results[i].Output != want {
			t.Errorf("file %d: output %s, want %s", i, results[i].Output, want)
		}
		if _, err := os.Stat(want); err != nil {
			t.Errorf("file %d: %v", i, err)
		}
	}
}

func TestRunRejectsSharedOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	files := []string{
		writeInvoice(t, dir, filepath.Join("praxis-a", "rechnung.json"), testInvoice("2024-0001", 3)),
		writeInvoice(t, dir, filepath.Join("praxis-b", "rechnung.json"), testInvoice("2024-0002", 3)),
	}

	calls := 0
	results, err := Run(context.Background(), files, Options{
		OutputDir: out,
		Log:       zerolog.Nop(),
	}, func(int, int, Result) { calls++ })
	if !errors.Is(err, source.ErrOutputClash) {
		t.Fatalf("got %v, want source.ErrOutputClash", err)
	}
	if results != nil || calls != 0 {
		t.Errorf("rendered before failing: %d results, %d progress calls", len(results), calls)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output folder was created")
	}
}
