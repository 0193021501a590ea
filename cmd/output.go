package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"recipes/internal/recipe"
	"recipes/internal/source"
	"recipes/internal/summary"
)

// ReportOutput is the JSON form of a render report.
type ReportOutput struct {
	InvoiceID        string          `json:"invoice_id"`
	Output           string          `json:"output,omitempty"`
	Pages            int             `json:"pages"`
	TrailingSubtotal bool            `json:"trailing_subtotal"`
	SummaryOnNewPage bool            `json:"summary_on_new_page"`
	Buckets          []BucketOutput  `json:"buckets"`
	GrandTotal       string          `json:"grand_total"`
	RoundedTotal     string          `json:"rounded_total"`
	ObligationAmount string          `json:"obligation_amount"`
	Inconsistencies  []string        `json:"inconsistencies,omitempty"`
	Metadata         *OutputMetadata `json:"metadata,omitempty"`
}

// BucketOutput is one category of the closing summary.
type BucketOutput struct {
	Key       summary.Key `json:"key"`
	Label     string      `json:"label"`
	Amount    string      `json:"amount"`
	TaxPoints string      `json:"tax_points"`
	Records   int         `json:"records"`
}

// OutputMetadata describes the processing run.
type OutputMetadata struct {
	ProcessingDuration time.Duration `json:"processing_duration"`
	GeneratedAt        time.Time     `json:"generated_at"`
	ToolVersion        string        `json:"tool_version"`
}

func newReportOutput(rep *recipe.Report, output string) ReportOutput {
	out := ReportOutput{
		InvoiceID:        rep.InvoiceID,
		Output:           output,
		Pages:            rep.Pages,
		TrailingSubtotal: rep.TrailingSubtotal,
		SummaryOnNewPage: rep.SummaryOnNewPage,
	}
	out.Buckets, out.GrandTotal, out.RoundedTotal, out.ObligationAmount = summaryOutput(rep.Summary)
	for _, ie := range rep.Inconsistencies {
		out.Inconsistencies = append(out.Inconsistencies, ie.Error())
	}
	return out
}

func summaryOutput(sum *summary.Summary) (buckets []BucketOutput, total, rounded, obligation string) {
	for _, b := range sum.Buckets {
		buckets = append(buckets, BucketOutput{
			Key:       b.Key,
			Label:     b.Label,
			Amount:    b.Amount.Format(),
			TaxPoints: b.TaxPoints.StringFixed(2),
			Records:   b.Records,
		})
	}
	return buckets, sum.GrandTotal.Format(), sum.GrandTotal.CurrencyRound().Format(), sum.ObligationAmount.Format()
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// printSummary prints the closing summary as a table.
func printSummary(sum *summary.Summary) {
	for _, b := range sum.Buckets {
		fmt.Printf("%-12s %14s  (%d Pos.)\n", b.Label, "CHF "+b.Amount.FormatGrouped(), b.Records)
	}
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("%-12s %14s\n", "Total", "CHF "+sum.GrandTotal.CurrencyRound().FormatGrouped())
	fmt.Printf("%-12s %14s\n", "davon PFL", "CHF "+sum.ObligationAmount.FormatGrouped())
}

func printReport(patient string, rep *recipe.Report, output string) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("               %s %s\n", recipe.Title, rep.InvoiceID)
	fmt.Println(strings.Repeat("=", 60))
	if patient != "" {
		fmt.Printf("Patient: %s\n", patient)
	}
	if rep.ValueDate != "" {
		fmt.Printf("Datum:   %s\n", rep.ValueDate)
	}
	fmt.Printf("Seiten:  %d\n", rep.Pages)
	if output != "" {
		fmt.Printf("Datei:   %s\n", output)
	}
	fmt.Println()
	printSummary(rep.Summary)

	if len(rep.Inconsistencies) > 0 {
		fmt.Println()
		fmt.Printf("⚠️  %d Positionen mit abweichendem Betrag (gedruckt wird der angegebene Betrag):\n", len(rep.Inconsistencies))
		for _, ie := range rep.Inconsistencies {
			fmt.Printf("   - %s\n", ie.Error())
		}
	}
}

// createContext creates a context with timeout and signal handling
func createContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleRenderError provides user-friendly error messages for render failures
func handleRenderError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Rendering failed")

	var pe *recipe.PreconditionError
	var le *source.LoadError
	switch {
	case errors.As(err, &pe):
		return fmt.Errorf("invoice cannot be rendered: the %s is missing", pe.Field)
	case errors.Is(err, source.ErrEmptyInvoice):
		return fmt.Errorf("invoice file is empty")
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("invoice file not found: %w", err)
	case errors.As(err, &le):
		return fmt.Errorf("invoice file could not be read. Please check that it is a valid invoice export: %w", err)
	case errors.Is(err, summary.ErrPartition):
		return fmt.Errorf("closing summary does not add up, nothing was rendered: %w", err)
	default:
		return fmt.Errorf("rendering failed: %w", err)
	}
}
