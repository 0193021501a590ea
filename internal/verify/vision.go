package verify

import (
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"recipes/internal/logger"
	"recipes/internal/paginate"
)

// MaxPagesPerRequest is the page limit of synchronous file annotation.
const MaxPagesPerRequest = 5

// ClientOptions returns the credential options shared by the cloud clients.
// Without file or JSON the default credentials are used.
func ClientOptions(credsFile, credsJSON string) []option.ClientOption {
	switch {
	case credsJSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credsJSON))}
	case credsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(credsFile)}
	default:
		return nil
	}
}

// VisionExtractor implements TextExtractor with Cloud Vision document text
// detection.
type VisionExtractor struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionExtractor creates a Vision client with opts.
func NewVisionExtractor(ctx context.Context, opts ...option.ClientOption) (*VisionExtractor, error) {
	const op = "NewVisionExtractor"

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, WrapVerifyError(op, err, "failed to create Vision client")
	}

	return &VisionExtractor{
		client: client,
		log:    logger.WithComponent("vision"),
	}, nil
}

// ExtractPages returns the text of every page. The first request also yields
// the page count; the remaining pages are fetched concurrently in chunks of
// MaxPagesPerRequest.
func (v *VisionExtractor) ExtractPages(ctx context.Context, pdf []byte) ([]string, error) {
	const op = "ExtractPages"

	first, total, err := v.annotate(ctx, pdf, paginate.Range{Start: 0, End: MaxPagesPerRequest})
	if err != nil {
		return nil, WrapVerifyError(op, err, "pages 1-5")
	}
	if total <= len(first) {
		return first[:total], nil
	}

	texts := make([]string, total)
	copy(texts, first)

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range paginate.Chunk(total, MaxPagesPerRequest)[1:] {
		g.Go(func() error {
			pages, _, err := v.annotate(gctx, pdf, r)
			if err != nil {
				return WrapVerifyError(op, err, fmt.Sprintf("pages %d-%d", r.Start+1, r.End))
			}
			copy(texts[r.Start:r.End], pages)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v.log.Debug().Int("pages", total).Msg("Extracted page texts")
	return texts, nil
}

// annotate runs text detection on the 0-based page range r and returns the
// page texts together with the document's total page count.
func (v *VisionExtractor) annotate(ctx context.Context, pdf []byte, r paginate.Range) ([]string, int, error) {
	pages := make([]int32, 0, r.End-r.Start)
	for p := r.Start; p < r.End; p++ {
		pages = append(pages, int32(p+1))
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  pdf,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				Pages: pages,
			},
		},
	}

	resp, err := v.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: Vision API call failed: %v", ErrOCRFailed, err)
	}
	if len(resp.Responses) == 0 {
		return nil, 0, fmt.Errorf("%w: no response from Vision API", ErrOCRFailed)
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, 0, fmt.Errorf("%w: Vision API error: %s", ErrOCRFailed, fileResp.Error.Message)
	}

	texts, err := pageTexts(fileResp)
	if err != nil {
		return nil, 0, err
	}
	return texts, int(fileResp.TotalPages), nil
}

// pageTexts returns the full text annotation of each page response.
func pageTexts(fileResp *visionpb.AnnotateFileResponse) ([]string, error) {
	texts := make([]string, 0, len(fileResp.Responses))
	for i, page := range fileResp.Responses {
		if page.Error != nil {
			return nil, fmt.Errorf("%w: page %d: %s", ErrOCRFailed, i+1, page.Error.Message)
		}
		var text string
		if page.FullTextAnnotation != nil {
			text = page.FullTextAnnotation.Text
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// Close closes the underlying Vision client.
func (v *VisionExtractor) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
