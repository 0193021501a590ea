package verify

import (
	"errors"
	"fmt"
)

// Errors returned while reading a rendered document
var (
	// ErrPDFTooLarge is returned when the PDF exceeds the synchronous API limit of 20MB.
	ErrPDFTooLarge = errors.New("PDF file size exceeds the maximum limit (20MB)")

	// ErrInvalidPDF is returned when the data does not start with a PDF header.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrOCRFailed is returned when the Vision API cannot process the document.
	ErrOCRFailed = errors.New("OCR processing failed")

	// ErrExtractionFailed is returned when the Document AI call fails.
	ErrExtractionFailed = errors.New("document AI processing failed")

	// ErrInvalidCredentials is returned when the credentials lack permission.
	ErrInvalidCredentials = errors.New("invalid Google Cloud credentials")

	// ErrProcessorNotFound is returned when the Document AI processor does not exist.
	ErrProcessorNotFound = errors.New("Document AI processor not found")

	// ErrQuotaExceeded is returned when API quota limits are exceeded.
	ErrQuotaExceeded = errors.New("API quota exceeded")
)

// Findings of a verification run
var (
	ErrPageCount        = errors.New("page count differs from the rendered recipe")
	ErrMissingTitle     = errors.New("page does not carry the title")
	ErrMissingReference = errors.New("page does not carry the payment reference")
	ErrTotalMissing     = errors.New("no total amount found in the document")
	ErrTotalMismatch    = errors.New("total amount differs from the grand total")
)

// VerifyError wraps errors with the operation that failed.
type VerifyError struct {
	// Op is the operation that failed (e.g., "ExtractPages", "ExtractTotal").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *VerifyError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("verify: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("verify: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *VerifyError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *VerifyError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapVerifyError wraps an error as a VerifyError if it isn't already one.
func WrapVerifyError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var verr *VerifyError
	if errors.As(err, &verr) {
		return err
	}

	return &VerifyError{Op: op, Err: err, Details: details}
}

// PageError is a finding on one page of the document.
type PageError struct {
	Page int // 1-based
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}
