package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/medrec/medrec/internal/domain/document"
)

// =========== Mocks ===========

type stubOCR struct {
	pages []OCRPage
	err   error
	calls int
}

func (s *stubOCR) Recognize(_ context.Context, _ []byte) ([]OCRPage, error) {
	s.calls++
	return s.pages, s.err
}

// =========== Tests ===========

func TestPDFExtract_PageSegments(t *testing.T) {
	ocr := &stubOCR{pages: []OCRPage{
		{Number: 1, Text: "CHIEF COMPLAINT: chest pain"},
		{Number: 2, Text: "  "},
		{Number: 3, Text: "Assessment: stable angina"},
	}}

	doc := document.New("scan.pdf", []byte("%PDF-1.7"))
	out, err := NewPDFExtractor(ocr).Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Fields) != 0 {
		t.Errorf("pdf extraction must not produce fields, got %+v", out.Fields)
	}
	if len(out.Segments) != 2 {
		t.Fatalf("expected 2 segments (blank page dropped), got %d", len(out.Segments))
	}
	if out.Segments[0].Page != 1 || out.Segments[1].Page != 3 {
		t.Errorf("page numbers not preserved: %+v", out.Segments)
	}
	for _, seg := range out.Segments {
		if seg.Role != RolePage {
			t.Errorf("role = %q, want %q", seg.Role, RolePage)
		}
	}
	if ocr.calls != 1 {
		t.Errorf("expected a single OCR call for the whole document, got %d", ocr.calls)
	}
}

func TestPDFExtract_OCRFailure(t *testing.T) {
	ocr := &stubOCR{err: errors.New("service unavailable")}

	doc := document.New("scan.pdf", []byte("%PDF-1.7"))
	_, err := NewPDFExtractor(ocr).Extract(context.Background(), doc)
	if err == nil {
		t.Fatal("expected error")
	}
	var exErr *ExtractionError
	if !errors.As(err, &exErr) || exErr.Format != document.FormatPDF {
		t.Fatalf("expected PDF extraction error, got %v", err)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("ocr failure must map to ErrUnavailable")
	}
}
