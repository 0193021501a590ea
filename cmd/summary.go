package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"recipes/internal/batch"
	"recipes/internal/logger"
	"recipes/internal/sheets"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [invoice.json]",
	Short: "Print the closing summary of an invoice",
	Long: `Print the closing summary of an invoice by tariff category (Tarmed AL/TL,
physio, laboratory, MiGeL, medication, others, cantonal) with the grand
total and the obligation amount.

The recipe is laid out in memory, so the page count is reported as well.
With --sheet the summary is appended to the configured Google Sheet.`,
	Example: `  # Print the summary
  recipes summary invoices/2024-0042.json

  # Print as JSON and export to Google Sheets
  recipes summary invoices/2024-0042.json --json --sheet`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().Bool("sheet", false, "Append the summary to the Google Sheet")
	summaryCmd.Flags().Bool("json", false, "Print the summary as JSON")
	summaryCmd.Flags().Duration("timeout", 2*time.Minute, "Timeout for the Google Sheets export")
}

func runSummary(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("summary")

	invoicePath := args[0]
	toSheet, _ := cmd.Flags().GetBool("sheet")
	asJSON, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if toSheet {
		if err := appConfig.RequireSheets(); err != nil {
			return err
		}
	}

	res := batch.RenderFile(invoicePath, "", batch.Options{
		FontDir: appConfig.FontDir,
		DryRun:  true,
		Log:     log,
	})
	if res.Err != nil {
		return handleRenderError(res.Err, log)
	}

	if asJSON {
		if err := printJSON(newReportOutput(res.Report, "")); err != nil {
			return err
		}
	} else {
		printReport(res.Patient, res.Report, "")
	}

	if !toSheet {
		return nil
	}

	ctx, cancel := createContext(timeout, log)
	defer cancel()

	written, err := exportResults(ctx, []batch.Result{res})
	if err != nil {
		return err
	}
	log.Info().
		Int("rows", written).
		Str("sheet", appConfig.GoogleSheetWorksheet).
		Msg("Summary exported")
	if !asJSON {
		if written == 0 {
			fmt.Println("\nBereits im Google Sheet vorhanden.")
		} else {
			fmt.Printf("\nIn Google Sheet geschrieben: %s\n", appConfig.GoogleSheetWorksheet)
		}
	}
	return nil
}

// exportResults appends the rendered results to the configured worksheet.
func exportResults(ctx context.Context, results []batch.Result) (int, error) {
	creds, err := sheets.LoadCredentials(appConfig.CredentialsFile, appConfig.CredentialsJSON)
	if err != nil {
		return 0, err
	}

	svc, err := sheets.NewSheetsService(ctx, appConfig.GoogleSheetURL, creds)
	if err != nil {
		return 0, fmt.Errorf("failed to create Google Sheets service: %w", err)
	}

	written, err := svc.WriteResults(ctx, sheetResults(results), appConfig.GoogleSheetWorksheet)
	if err != nil {
		return 0, fmt.Errorf("failed to write to Google Sheet: %w", err)
	}
	return written, nil
}
