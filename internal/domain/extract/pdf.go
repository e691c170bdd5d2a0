package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/medrec/medrec/internal/domain/document"
)

// OCRPage is one page of recognized text. Page numbers are 1-based.
type OCRPage struct {
	Number int
	Text   string
}

// OCR recognizes text in a PDF document. The production implementation
// calls an external OCR service; tests substitute a stub.
type OCR interface {
	Recognize(ctx context.Context, pdf []byte) ([]OCRPage, error)
}

// PDFExtractor hands the whole document to OCR and turns each recognized
// page into a page-tagged free-text segment. PDF extraction never produces
// structured fields.
type PDFExtractor struct {
	ocr OCR
}

// NewPDFExtractor creates a PDF extractor backed by the given OCR client.
func NewPDFExtractor(ocr OCR) *PDFExtractor {
	return &PDFExtractor{ocr: ocr}
}

func (e *PDFExtractor) Extract(ctx context.Context, doc *document.Document) (*RawExtraction, error) {
	pages, err := e.ocr.Recognize(ctx, doc.Raw)
	if err != nil {
		// OCR is the only way into a PDF, so any failure here is a
		// capability outage rather than a document problem.
		return nil, &ExtractionError{Format: document.FormatPDF, Err: fmt.Errorf("%w: ocr: %v", ErrUnavailable, err)}
	}

	out := &RawExtraction{DocumentID: doc.ID.String(), Format: document.FormatPDF}
	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		out.Segments = append(out.Segments, Segment{Text: text, Role: RolePage, Page: p.Number})
	}
	return out, nil
}
