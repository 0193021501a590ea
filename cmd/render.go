package cmd

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"recipes/internal/batch"
	"recipes/internal/logger"
	"recipes/internal/source"
)

var renderCmd = &cobra.Command{
	Use:   "render [invoice.json]",
	Short: "Render the recipe of one invoice as PDF",
	Long: `Render the insurance recipe ("Rückforderungsbeleg") of an invoice exported
as JSON by the billing system.

The first page carries the full info header and the patient address window,
every further page a condensed header. Service records are paginated with a
subtotal at the end of each full page and the recipe closes with the summary
by tariff category.

Optional environment variables:
  RECIPES_OUTPUT_DIR - Folder for rendered PDFs (default: next to the invoice)
  RECIPES_FONT_DIR - Folder with DejaVuSans.ttf, DejaVuSans-Bold.ttf and ocrb10.ttf`,
	Example: `  # Render next to the configured output folder
  recipes render invoices/2024-0042.json

  # Render to a given file, marked as a copy
  recipes render invoices/2024-0042.json -o /tmp/recipe.pdf --copy

  # Print the render report as JSON
  recipes render invoices/2024-0042.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("output", "o", "", "Output PDF path (default: <RECIPES_OUTPUT_DIR>/<invoice>.pdf)")
	renderCmd.Flags().Bool("copy", false, "Mark the recipe as a copy (Rechnungskopie)")
	renderCmd.Flags().Bool("json", false, "Print the render report as JSON")
	renderCmd.Flags().String("font-dir", "", "Font folder (overrides RECIPES_FONT_DIR)")
}

func runRender(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("render")

	invoicePath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	asJSON, _ := cmd.Flags().GetBool("json")
	fontDir, _ := cmd.Flags().GetString("font-dir")

	if outputPath == "" {
		outputPath = source.OutputPath(invoicePath, appConfig.OutputDir)
	}
	if fontDir == "" {
		fontDir = appConfig.FontDir
	}

	opts := batch.Options{FontDir: fontDir, Log: log}
	if cmd.Flags().Changed("copy") {
		marked, _ := cmd.Flags().GetBool("copy")
		opts.Copy = &marked
	}

	log.Info().
		Str("file", invoicePath).
		Str("output", outputPath).
		Msg("Rendering recipe")

	start := time.Now()
	res := batch.RenderFile(invoicePath, outputPath, opts)
	if res.Err != nil {
		return handleRenderError(res.Err, log)
	}

	log.Info().
		Str("invoice_id", res.Report.InvoiceID).
		Int("pages", res.Report.Pages).
		Str("total", res.Report.Summary.GrandTotal.Format()).
		Dur("duration", res.Duration).
		Msg("Recipe rendered")

	if asJSON {
		out := newReportOutput(res.Report, filepath.Clean(outputPath))
		out.Metadata = &OutputMetadata{
			ProcessingDuration: time.Since(start),
			GeneratedAt:        time.Now(),
			ToolVersion:        version,
		}
		return printJSON(out)
	}

	printReport(res.Patient, res.Report, outputPath)
	return nil
}
