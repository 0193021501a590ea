// Package verify reads a rendered recipe back through Google Cloud and checks
// it against the render report.
//
// Two checks are run:
//   - OCR (Cloud Vision): every page carries the title and the payment
//     reference line, and the page count matches.
//   - Totals (Document AI invoice parser): the total amount entity equals
//     the grand total rounded to 0.05.
//
// The cloud clients sit behind TextExtractor and TotalExtractor, so the
// checks themselves run without credentials.
package verify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"recipes/internal/logger"
	"recipes/internal/recipe"
	"recipes/pkg/money"
)

// MaxFileSizeBytes is the largest document accepted by the synchronous APIs.
const MaxFileSizeBytes = 20 * 1024 * 1024

// TextExtractor returns the text of every page of a PDF in page order.
type TextExtractor interface {
	ExtractPages(ctx context.Context, pdf []byte) ([]string, error)
}

// TotalExtractor returns the total amount stated in a PDF. ok is false when
// the document carries no recognizable total.
type TotalExtractor interface {
	ExtractTotal(ctx context.Context, pdf []byte) (total money.Amount, ok bool, err error)
}

// Expectation is what the rendered document must show.
type Expectation struct {
	Title            string
	PaymentReference string
	Pages            int
	GrandTotal       money.Amount // Printed rounded to 0.05
}

// ExpectationFor derives the expectation from a render report.
func ExpectationFor(rep *recipe.Report) Expectation {
	exp := Expectation{
		Title:            recipe.Title,
		PaymentReference: rep.PaymentReference,
		Pages:            rep.Pages,
	}
	if rep.Summary != nil {
		exp.GrandTotal = rep.Summary.GrandTotal
	}
	return exp
}

// Result collects the findings of one verification run.
type Result struct {
	Pages    int
	Total    money.Amount
	Findings []error
}

// OK reports whether nothing was found.
func (r *Result) OK() bool {
	return len(r.Findings) == 0
}

// Verifier runs the configured checks. Either extractor may be nil to skip
// its check.
type Verifier struct {
	Text  TextExtractor
	Total TotalExtractor
	log   zerolog.Logger
}

// NewVerifier returns a Verifier using the given extractors.
func NewVerifier(text TextExtractor, total TotalExtractor) *Verifier {
	return &Verifier{
		Text:  text,
		Total: total,
		log:   logger.WithComponent("verify"),
	}
}

// Verify reads pdf and checks it against exp. Extraction failures are
// returned as errors; mismatches are reported as findings.
func (v *Verifier) Verify(ctx context.Context, pdf io.Reader, exp Expectation) (*Result, error) {
	const op = "Verify"

	data, err := ReadPDF(pdf)
	if err != nil {
		return nil, WrapVerifyError(op, err, "failed to read document")
	}

	res := &Result{}

	if v.Text != nil {
		pages, err := v.Text.ExtractPages(ctx, data)
		if err != nil {
			return nil, WrapVerifyError(op, err, "text extraction")
		}
		res.Pages = len(pages)
		res.Findings = append(res.Findings, CheckPages(pages, exp)...)
		v.log.Debug().Int("pages", len(pages)).Msg("Checked page texts")
	}

	if v.Total != nil {
		total, ok, err := v.Total.ExtractTotal(ctx, data)
		if err != nil {
			return nil, WrapVerifyError(op, err, "total extraction")
		}
		res.Total = total
		if err := CheckTotal(total, ok, exp); err != nil {
			res.Findings = append(res.Findings, err)
		}
		v.log.Debug().Str("total", total.Format()).Bool("found", ok).Msg("Checked total")
	}

	return res, nil
}

// ReadPDF reads a whole PDF and checks its size and header.
func ReadPDF(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSizeBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFileSizeBytes {
		return nil, ErrPDFTooLarge
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, ErrInvalidPDF
	}
	return data, nil
}

// CheckPages checks the page count and that every page shows the title and
// the payment reference. OCR output is compared with whitespace removed.
func CheckPages(pages []string, exp Expectation) []error {
	var findings []error
	if len(pages) != exp.Pages {
		findings = append(findings, fmt.Errorf("%w: found %d, rendered %d", ErrPageCount, len(pages), exp.Pages))
	}

	title := squash(exp.Title)
	reference := squash(exp.PaymentReference)
	for i, text := range pages {
		text = squash(text)
		if title != "" && !strings.Contains(text, title) {
			findings = append(findings, &PageError{Page: i + 1, Err: ErrMissingTitle})
		}
		if reference != "" && !strings.Contains(text, reference) {
			findings = append(findings, &PageError{Page: i + 1, Err: ErrMissingReference})
		}
	}
	return findings
}

// CheckTotal compares an extracted total with the rounded grand total.
func CheckTotal(found money.Amount, ok bool, exp Expectation) error {
	if !ok {
		return ErrTotalMissing
	}
	want := exp.GrandTotal.CurrencyRound()
	if !found.Equal(want) {
		return fmt.Errorf("%w: found %s, want %s", ErrTotalMismatch, found.Format(), want.Format())
	}
	return nil
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
