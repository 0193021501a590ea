package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"recipes/internal/logger"
	"recipes/pkg/money"
)

// DocumentAIConfig names the invoice processor to call.
type DocumentAIConfig struct {
	ProjectID        string
	Location         string // "us" or "eu"
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// ProcessorName returns the full resource name of the processor.
func (c DocumentAIConfig) ProcessorName() string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
	if c.ProcessorVersion != "" {
		name += "/processorVersions/" + c.ProcessorVersion
	}
	return name
}

// Entity types carrying the invoice total, in order of preference.
var totalEntityTypes = []string{"total_amount", "amount_due", "gross_amount"}

// DocumentAIExtractor implements TotalExtractor with the Document AI invoice
// parser.
type DocumentAIExtractor struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIExtractor creates a client on the regional endpoint of
// config.Location.
func NewDocumentAIExtractor(ctx context.Context, config DocumentAIConfig, opts ...option.ClientOption) (*DocumentAIExtractor, error) {
	const op = "NewDocumentAIExtractor"

	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, WrapVerifyError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIExtractor{
		client: client,
		config: config,
		log:    logger.WithComponent("document-ai"),
	}, nil
}

// ExtractTotal processes pdf and returns its total amount entity.
func (p *DocumentAIExtractor) ExtractTotal(ctx context.Context, pdf []byte) (money.Amount, bool, error) {
	const op = "ExtractTotal"

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: p.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdf,
				MimeType: "application/pdf",
			},
		},
	}

	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return money.Zero(), false, p.handleProcessingError(op, err)
	}
	if resp.Document == nil {
		return money.Zero(), false, WrapVerifyError(op, ErrExtractionFailed, "no document in response")
	}

	total, ok := p.totalFromEntities(resp.Document.Entities)
	return total, ok, nil
}

// handleProcessingError maps gRPC status codes to package errors.
func (p *DocumentAIExtractor) handleProcessingError(op string, err error) error {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return WrapVerifyError(op, ErrInvalidCredentials, "insufficient permissions for Document AI")
	case codes.ResourceExhausted:
		return WrapVerifyError(op, ErrQuotaExceeded, "Document AI API quota exceeded")
	case codes.NotFound:
		return WrapVerifyError(op, ErrProcessorNotFound, fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
	case codes.InvalidArgument:
		return WrapVerifyError(op, ErrInvalidPDF, "document format not supported or corrupted")
	case codes.DeadlineExceeded:
		return WrapVerifyError(op, context.DeadlineExceeded, "processing timeout")
	case codes.Canceled:
		return WrapVerifyError(op, context.Canceled, "processing was canceled")
	default:
		return WrapVerifyError(op, ErrExtractionFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// totalFromEntities picks the highest ranked total entity that parses.
func (p *DocumentAIExtractor) totalFromEntities(entities []*documentaipb.Document_Entity) (money.Amount, bool) {
	byType := make(map[string]*documentaipb.Document_Entity)
	for _, e := range entities {
		if _, seen := byType[e.Type]; !seen {
			byType[e.Type] = e
		}
	}

	for _, t := range totalEntityTypes {
		e, ok := byType[t]
		if !ok {
			continue
		}
		amount, err := entityAmount(e)
		if err != nil {
			p.log.Warn().
				Err(err).
				Str("entity_type", t).
				Str("raw_value", e.MentionText).
				Msg("Failed to extract amount from Document AI")
			continue
		}
		p.log.Debug().
			Str("entity_type", t).
			Str("amount", amount.Format()).
			Float32("confidence", e.Confidence).
			Msg("Extracted total from Document AI")
		return amount, true
	}
	return money.Zero(), false
}

// entityAmount reads the normalized money value of e, falling back to its
// mention text.
func entityAmount(e *documentaipb.Document_Entity) (money.Amount, error) {
	if nv := e.GetNormalizedValue(); nv != nil {
		if m := nv.GetMoneyValue(); m != nil {
			units := decimal.NewFromInt(m.Units)
			nanos := decimal.New(int64(m.Nanos), -9)
			return money.New(units.Add(nanos)).RoundCents(), nil
		}
	}
	return ParseAmount(e.MentionText)
}

// ParseAmount parses an amount as printed on Swiss documents ("1'234.50",
// "CHF 63.80") and the German form ("1.234,50").
func ParseAmount(s string) (money.Amount, error) {
	cleaned := strings.TrimSpace(s)
	for _, r := range []string{"CHF", "Fr.", "EUR", "€", " ", "\u00a0", "'", "’"} {
		cleaned = strings.ReplaceAll(cleaned, r, "")
	}
	if cleaned == "" {
		return money.Zero(), fmt.Errorf("empty amount value")
	}

	if strings.Contains(cleaned, ",") {
		if strings.Contains(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else if parts := strings.Split(cleaned, ","); len(parts) == 2 && len(parts[1]) <= 2 {
			cleaned = parts[0] + "." + parts[1]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	amount, err := money.Parse(cleaned)
	if err != nil {
		return money.Zero(), fmt.Errorf("unable to parse amount: %s (cleaned: %s)", s, cleaned)
	}
	return amount, nil
}

// Close closes the underlying Document AI client.
func (p *DocumentAIExtractor) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
