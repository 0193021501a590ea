package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"recipes/internal/batch"
	"recipes/internal/logger"
	"recipes/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [recipe.pdf]",
	Short: "Check a rendered recipe with Google Cloud OCR",
	Long: `Read a rendered recipe back with Google Cloud and compare it with the
invoice it was rendered from.

  - Cloud Vision OCR: every page carries the title and the payment
    reference line, and the page count matches the layout.
  - Document AI invoice parser: the total amount equals the grand total
    rounded to 0.05.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT - Your Google Cloud project ID (total check)
  GOOGLE_CLOUD_LOCATION - Processing location (us, eu, etc.)
  DOCUMENT_AI_PROCESSOR_ID - Your Document AI invoice processor ID (total check)`,
	Example: `  # Run both checks
  recipes verify out/2024-0042.pdf --invoice invoices/2024-0042.json

  # OCR check only
  recipes verify out/2024-0042.pdf --invoice invoices/2024-0042.json --skip-total`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("invoice", "", "Invoice JSON the recipe was rendered from [REQUIRED]")
	verifyCmd.Flags().Bool("skip-ocr", false, "Skip the Cloud Vision page check")
	verifyCmd.Flags().Bool("skip-total", false, "Skip the Document AI total check")
	verifyCmd.Flags().Bool("json", false, "Print the findings as JSON")
	verifyCmd.Flags().Duration("timeout", 2*time.Minute, "Processing timeout")

	verifyCmd.MarkFlagRequired("invoice")
}

// VerifyOutput is the JSON form of a verification run.
type VerifyOutput struct {
	File     string   `json:"file"`
	OK       bool     `json:"ok"`
	Pages    int      `json:"pages"`
	Total    string   `json:"total,omitempty"`
	Findings []string `json:"findings,omitempty"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("verify")

	pdfPath := args[0]
	invoicePath, _ := cmd.Flags().GetString("invoice")
	skipOCR, _ := cmd.Flags().GetBool("skip-ocr")
	skipTotal, _ := cmd.Flags().GetBool("skip-total")
	asJSON, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if skipOCR && skipTotal {
		return errors.New("nothing to check: both --skip-ocr and --skip-total are set")
	}
	if !skipTotal {
		if err := appConfig.RequireDocumentAI(); err != nil {
			return err
		}
	}

	// Lay the invoice out again to know what the document must show.
	res := batch.RenderFile(invoicePath, "", batch.Options{FontDir: appConfig.FontDir, DryRun: true, Log: log})
	if res.Err != nil {
		return handleRenderError(res.Err, log)
	}
	exp := verify.ExpectationFor(res.Report)

	ctx, cancel := createContext(timeout, log)
	defer cancel()

	v, closeAll, err := newVerifier(ctx, skipOCR, skipTotal)
	if err != nil {
		return handleVerifyError(err, log)
	}
	defer closeAll()

	pdfFile, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer pdfFile.Close()

	log.Info().
		Str("file", pdfPath).
		Str("invoice_id", res.Report.InvoiceID).
		Int("expected_pages", exp.Pages).
		Msg("Verifying rendered recipe")

	result, err := v.Verify(ctx, pdfFile, exp)
	if err != nil {
		return handleVerifyError(err, log)
	}

	out := VerifyOutput{File: pdfPath, OK: result.OK(), Pages: result.Pages}
	if !skipTotal {
		out.Total = result.Total.Format()
	}
	for _, f := range result.Findings {
		out.Findings = append(out.Findings, f.Error())
	}

	if asJSON {
		if err := printJSON(out); err != nil {
			return err
		}
	} else {
		printVerifyResult(out, exp)
	}

	if !result.OK() {
		return fmt.Errorf("%d findings in %s", len(result.Findings), pdfPath)
	}
	return nil
}

func newVerifier(ctx context.Context, skipOCR, skipTotal bool) (*verify.Verifier, func(), error) {
	opts := verify.ClientOptions(appConfig.CredentialsFile, appConfig.CredentialsJSON)

	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	var text verify.TextExtractor
	if !skipOCR {
		vision, err := verify.NewVisionExtractor(ctx, opts...)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, vision.Close)
		text = vision
	}

	var total verify.TotalExtractor
	if !skipTotal {
		docAI, err := verify.NewDocumentAIExtractor(ctx, verify.DocumentAIConfig{
			ProjectID:        appConfig.GoogleCloudProject,
			Location:         appConfig.GoogleCloudLocation,
			ProcessorID:      appConfig.DocumentAIProcessorID,
			ProcessorVersion: appConfig.DocumentAIProcessorVersion,
		}, opts...)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, docAI.Close)
		total = docAI
	}

	return verify.NewVerifier(text, total), closeAll, nil
}

func printVerifyResult(out VerifyOutput, exp verify.Expectation) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Datei:  %s\n", out.File)
	fmt.Printf("Seiten: %d (erwartet %d)\n", out.Pages, exp.Pages)
	if out.Total != "" {
		fmt.Printf("Total:  CHF %s (erwartet CHF %s)\n", out.Total, exp.GrandTotal.CurrencyRound().Format())
	}
	fmt.Println(strings.Repeat("=", 60))
	if out.OK {
		fmt.Println("✅ Beleg stimmt mit der Rechnung überein")
		return
	}
	for _, f := range out.Findings {
		fmt.Printf("❌ %s\n", f)
	}
}

// handleVerifyError provides user-friendly error messages for verification failures
func handleVerifyError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Verification failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("verification timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("verification was canceled")
	case errors.Is(err, verify.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity")
	case errors.Is(err, verify.ErrPDFTooLarge):
		return fmt.Errorf("PDF file is too large (maximum 20MB)")
	case errors.Is(err, verify.ErrProcessorNotFound):
		return fmt.Errorf("Document AI processor not found. Please check DOCUMENT_AI_PROCESSOR_ID")
	case errors.Is(err, verify.ErrInvalidCredentials):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials:\n\n" +
			"1. Set GOOGLE_APPLICATION_CREDENTIALS to your service account JSON file path\n" +
			"2. Or set GOOGLE_CREDENTIALS with inline JSON credentials\n" +
			"3. Ensure the service account has the 'Document AI API User' and 'Cloud Vision API User' roles\n\n" +
			"Original error: %v", err)
	case errors.Is(err, verify.ErrQuotaExceeded):
		return fmt.Errorf("API quota exceeded. Check your project quotas in Google Cloud Console")
	default:
		return fmt.Errorf("verification failed: %w", err)
	}
}
