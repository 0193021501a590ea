// Package sheets exports recipe summaries to a Google Sheets worksheet, one
// row per rendered invoice.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"recipes/internal/logger"
	"recipes/internal/recipe"
	"recipes/internal/summary"
	"recipes/pkg/money"
)

// Row statuses
const (
	StatusOK           = "OK"
	StatusInconsistent = "Inkonsistent"
	StatusFailed       = "Fehler"
)

// ErrInvalidURL is returned for URLs that do not name a spreadsheet.
var ErrInvalidURL = errors.New("invalid Google Sheets URL format")

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Headers of the summary worksheet, one per column from A to Q.
var Headers = []string{
	"Datei", "Rechnung", "Patient", "Rechnungsdatum",
	"Tarmed AL", "Tarmed TL", "Physio", "Labor", "MiGeL", "Medi", "Übrige", "Kantonal",
	"Total", "PFL", "Seiten", "Status", "Verarbeitet",
}

// Service handles Google Sheets operations
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// Result is the outcome of rendering one invoice file.
type Result struct {
	Filename string
	Patient  string
	Report   *recipe.Report
	Err      error
}

// Row is one line of the summary worksheet.
type Row struct {
	Filename    string
	InvoiceID   string
	Patient     string
	ValueDate   string
	Buckets     []money.Amount // In summary.Order
	GrandTotal  money.Amount
	Obligation  money.Amount
	Pages       int
	Status      string
	Description string
	ProcessedAt string
}

// LoadCredentials returns the service account JSON from credsFile, or
// credsJSON when no file is configured.
func LoadCredentials(credsFile, credsJSON string) ([]byte, error) {
	switch {
	case credsFile != "":
		creds, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return creds, nil
	case credsJSON != "":
		return []byte(credsJSON), nil
	default:
		return nil, errors.New("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")
	}
}

// NewSheetsService creates a new Google Sheets service
func NewSheetsService(ctx context.Context, sheetURL string, creds []byte) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	client := config.Client(ctx)
	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", ErrInvalidURL
	}
	return matches[1], nil
}

// WriteResults appends one row per result to sheetName. Invoices already
// listed in the worksheet are skipped so a batch can be re-run.
func (s *Service) WriteResults(ctx context.Context, results []Result, sheetName string) (int, error) {
	const op = "WriteResults"

	s.log.Info().
		Str("sheet", sheetName).
		Int("results", len(results)).
		Msg("Writing recipe summaries to Google Sheet")

	if err := s.ensureSheetWithHeaders(ctx, sheetName); err != nil {
		return 0, fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}

	exported, err := s.ExportedInvoiceIDs(ctx, sheetName)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var values [][]interface{}
	for _, row := range BuildRows(results, time.Now()) {
		if row.Status != StatusFailed && exported[row.InvoiceID] {
			s.log.Debug().Str("invoice_id", row.InvoiceID).Msg("Already exported, skipping")
			continue
		}
		values = append(values, rowToValues(row))
	}
	if len(values) == 0 {
		s.log.Info().Msg("Nothing new to export")
		return 0, nil
	}

	_, err = s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		sheetName+"!A:Q",
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Int("rows_written", len(values)).
		Msg("Successfully wrote recipe summaries to Google Sheet")

	return len(values), nil
}

// ExportedInvoiceIDs returns the invoice ids listed in column B of sheetName.
func (s *Service) ExportedInvoiceIDs(ctx context.Context, sheetName string) (map[string]bool, error) {
	values, err := s.ReadRange(ctx, sheetName+"!B2:B")
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(values))
	for _, row := range values {
		if len(row) > 0 {
			if id, ok := row[0].(string); ok && id != "" {
				ids[id] = true
			}
		}
	}
	return ids, nil
}

// BuildRows converts render results into worksheet rows.
func BuildRows(results []Result, processedAt time.Time) []Row {
	stamp := processedAt.Format("02.01.2006 15:04:05")

	rows := make([]Row, 0, len(results))
	for _, result := range results {
		row := Row{
			Filename:    result.Filename,
			Patient:     result.Patient,
			ProcessedAt: stamp,
			Status:      StatusOK,
		}

		if result.Err != nil || result.Report == nil {
			row.Status = StatusFailed
			if result.Err != nil {
				row.Description = result.Err.Error()
			}
			rows = append(rows, row)
			continue
		}

		rep := result.Report
		row.InvoiceID = rep.InvoiceID
		row.ValueDate = rep.ValueDate
		row.Pages = rep.Pages
		if len(rep.Inconsistencies) > 0 {
			row.Status = StatusInconsistent
			row.Description = fmt.Sprintf("%d inkonsistente Positionen", len(rep.Inconsistencies))
		}
		if sum := rep.Summary; sum != nil {
			for _, k := range summary.Order {
				row.Buckets = append(row.Buckets, sum.Bucket(k).Amount.CurrencyRound())
			}
			row.GrandTotal = sum.GrandTotal.CurrencyRound()
			row.Obligation = sum.ObligationAmount.CurrencyRound()
		}

		rows = append(rows, row)
	}

	return rows
}

// rowToValues converts a Row to the cell values of columns A to Q.
func rowToValues(row Row) []interface{} {
	status := row.Status
	if row.Description != "" {
		status += ": " + row.Description
	}

	values := []interface{}{
		row.Filename,  // A: Datei
		row.InvoiceID, // B: Rechnung
		row.Patient,   // C: Patient
		row.ValueDate, // D: Rechnungsdatum
	}
	for i := range summary.Order { // E-L: buckets
		if i < len(row.Buckets) {
			values = append(values, row.Buckets[i].Decimal().InexactFloat64())
		} else {
			values = append(values, "")
		}
	}
	if row.Status == StatusFailed {
		return append(values, "", "", "", status, row.ProcessedAt)
	}
	return append(values,
		row.GrandTotal.Decimal().InexactFloat64(), // M: Total
		row.Obligation.Decimal().InexactFloat64(), // N: PFL
		row.Pages,       // O: Seiten
		status,          // P: Status
		row.ProcessedAt, // Q: Verarbeitet
	)
}

// ensureSheetWithHeaders ensures the sheet exists and has proper headers
func (s *Service) ensureSheetWithHeaders(ctx context.Context, sheetName string) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		s.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: sheetName},
				}},
			},
		}

		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}

		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	headerRange := fmt.Sprintf("%s!A1:Q1", sheetName)
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		s.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

		header := make([]interface{}, len(Headers))
		for i, h := range Headers {
			header[i] = h
		}

		_, err = s.sheetsService.Spreadsheets.Values.Update(
			s.spreadsheetID,
			headerRange,
			&sheets.ValueRange{Values: [][]interface{}{header}},
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to add headers: %w", op, err)
		}

		if err := s.formatHeaders(ctx, sheetID); err != nil {
			s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
		}
	}

	return nil
}

// formatHeaders makes the header row bold and resizes the columns
func (s *Service) formatHeaders(ctx context.Context, sheetID int64) error {
	const op = "formatHeaders"

	columns := int64(len(Headers))
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{
							Red:   0.9,
							Green: 0.9,
							Blue:  0.9,
						},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}

	return nil
}

// ReadRange reads values from a specified range in the spreadsheet
func (s *Service) ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	const op = "ReadRange"

	s.log.Debug().
		Str("range", rangeSpec).
		Msg("Reading range from spreadsheet")

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, rangeSpec, err)
	}

	s.log.Debug().
		Int("rows", len(resp.Values)).
		Str("range", rangeSpec).
		Msg("Successfully read range from spreadsheet")

	return resp.Values, nil
}
