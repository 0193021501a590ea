package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"recipes/internal/batch"
	"recipes/internal/logger"
	"recipes/internal/sheets"
	"recipes/internal/source"
)

var batchCmd = &cobra.Command{
	Use:   "batch [folder-path]",
	Short: "Render the recipes of all invoices in a folder",
	Long: `Render every invoice JSON file in a folder (including subfolders) as PDF
recipe, using a pool of parallel workers. Progress is printed in input order.

With --sheet the closing summary of every rendered invoice is appended to
the configured Google Sheet. Invoices already listed there are skipped.

Optional environment variables:
  BATCH_WORKERS - Number of parallel workers (default: 4)
  RECIPES_OUTPUT_DIR - Folder for rendered PDFs, subfolders are kept
                       (default: next to each invoice)
  RECIPES_FONT_DIR - Folder with DejaVuSans and OCR-B fonts
  GOOGLE_SHEET_URL - Google Sheets URL, required with --sheet
  GOOGLE_SHEET_WORKSHEET - Worksheet name (default: Rückforderungsbelege)
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - required with --sheet`,
	Example: `  # Render all invoices of a folder
  recipes batch ./invoices

  # Render as copies and export the summaries to Google Sheets
  recipes batch ./invoices --copy --sheet

  # Check every invoice renders without writing any PDF
  recipes batch ./invoices --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Bool("copy", false, "Mark all recipes as copies (Rechnungskopie)")
	batchCmd.Flags().Bool("sheet", false, "Append the summaries to the Google Sheet")
	batchCmd.Flags().Bool("dry-run", false, "Render in memory, write no PDF and no sheet rows")
	batchCmd.Flags().Int("workers", 0, "Number of parallel workers (overrides BATCH_WORKERS)")
	batchCmd.Flags().Duration("timeout", 30*time.Minute, "Timeout for the whole run")
}

func runBatch(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	log := logger.WithRunID(logger.WithComponent("batch"), runID)

	folderPath := args[0]
	toSheet, _ := cmd.Flags().GetBool("sheet")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	workers, _ := cmd.Flags().GetInt("workers")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if workers <= 0 {
		workers = appConfig.BatchWorkers
	}
	if toSheet && !dryRun {
		if err := appConfig.RequireSheets(); err != nil {
			return err
		}
	}

	opts := batch.Options{
		OutputDir: appConfig.OutputDir,
		Root:      folderPath,
		FontDir:   appConfig.FontDir,
		DryRun:    dryRun,
		Workers:   workers,
		Log:       log,
	}
	if cmd.Flags().Changed("copy") {
		marked, _ := cmd.Flags().GetBool("copy")
		opts.Copy = &marked
	}

	files, err := source.FindInvoiceFiles(folderPath)
	if err != nil {
		return fmt.Errorf("failed to find invoice files: %w", err)
	}

	log.Info().
		Str("folder", folderPath).
		Int("files", len(files)).
		Int("workers", workers).
		Bool("dry_run", dryRun).
		Bool("sheet", toSheet).
		Msg("Starting batch print run")

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("                         RÜCKFORDERUNGSBELEGE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Ordner: %s\n", folderPath)
	fmt.Printf("Lauf:   %s\n", runID)
	if dryRun {
		fmt.Printf("Modus: Dry Run (keine PDFs, keine Google Sheets Aktualisierung)\n")
	}
	fmt.Println()

	if len(files) == 0 {
		fmt.Println("Keine Rechnungsdateien im Ordner gefunden.")
		return nil
	}

	ctx, cancel := createContext(timeout, log)
	defer cancel()

	fmt.Printf("Verarbeite %d Rechnungen mit %d parallelen Workern...\n\n", len(files), workers)

	results, runErr := batch.Run(ctx, files, opts, printProgress)

	fmt.Println()

	counts := make(map[string]int)
	for _, r := range results {
		if r.Path != "" {
			counts[r.Status()]++
		}
	}

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 ERGEBNIS")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Erfolgreich: %d\n", counts["success"])
	if counts["warning"] > 0 {
		fmt.Printf("Mit Warnungen: %d\n", counts["warning"])
	}
	if counts["error"] > 0 {
		fmt.Printf("Fehler: %d\n", counts["error"])
	}
	fmt.Println()

	if runErr != nil {
		return fmt.Errorf("batch run aborted: %w", runErr)
	}

	if toSheet && !dryRun {
		written, err := exportResults(ctx, results)
		if err != nil {
			return err
		}
		fmt.Printf("Sheet: %s\n", appConfig.GoogleSheetWorksheet)
		fmt.Printf("Zeilen hinzugefügt: %d\n", written)
		fmt.Printf("URL: %s\n", appConfig.GoogleSheetURL)
	}

	fmt.Println(strings.Repeat("=", 80))

	log.Info().
		Int("total", len(files)).
		Int("success", counts["success"]).
		Int("warnings", counts["warning"]).
		Int("errors", counts["error"]).
		Msg("Batch print run completed")

	return nil
}

func printProgress(done, total int, r batch.Result) {
	fmt.Printf("[%d/%d] %s - %s", done, total, filepath.Base(r.Path), getStatusEmoji(r.Status()))
	switch {
	case r.Err != nil:
		fmt.Printf(" (%s)", r.Err.Error())
	case r.Report != nil:
		fmt.Printf(" (CHF %s, %d S.)", r.Report.Summary.GrandTotal.CurrencyRound().FormatGrouped(), r.Report.Pages)
	}
	fmt.Println()
}

// getStatusEmoji returns an emoji for the processing status
func getStatusEmoji(status string) string {
	switch status {
	case "success":
		return "✅"
	case "warning":
		return "⚠️"
	case "error":
		return "❌"
	default:
		return "❓"
	}
}

func sheetResults(results []batch.Result) []sheets.Result {
	out := make([]sheets.Result, 0, len(results))
	for _, r := range results {
		if r.Path == "" {
			continue
		}
		out = append(out, sheets.Result{
			Filename: filepath.Base(r.Path),
			Patient:  r.Patient,
			Report:   r.Report,
			Err:      r.Err,
		})
	}
	return out
}
