package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrec/medrec/internal/domain/document"
	"github.com/medrec/medrec/internal/domain/extract"
	"github.com/medrec/medrec/internal/domain/nlp"
	"github.com/medrec/medrec/internal/domain/record"
	"github.com/medrec/medrec/internal/domain/standardize"
	"github.com/medrec/medrec/internal/domain/terminology"
	"github.com/medrec/medrec/internal/domain/validate"
	"github.com/medrec/medrec/internal/pipeline"
)

// =========== Mocks ===========

type stubRecognizer struct{}

func (stubRecognizer) Recognize(_ context.Context, text string) ([]nlp.Mention, error) {
	lower := strings.ToLower(text)
	i := strings.Index(lower, "hypertension")
	if i < 0 {
		return nil, nil
	}
	return []nlp.Mention{{
		Label: "diagnosis", Text: text[i : i+len("hypertension")],
		Start: i, End: i + len("hypertension"), Confidence: 0.9,
	}}, nil
}

type stubOCR struct{}

func (stubOCR) Recognize(context.Context, []byte) ([]extract.OCRPage, error) {
	return nil, nil
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	registry := extract.NewRegistry(map[document.FormatTag]extract.Extractor{
		document.FormatHL7:  extract.NewHL7Extractor(),
		document.FormatFHIR: extract.NewFHIRExtractor(),
		document.FormatPDF:  extract.NewPDFExtractor(stubOCR{}),
		document.FormatTEXT: extract.NewTextExtractor(),
	})
	orch := pipeline.NewOrchestrator(
		registry,
		nlp.NewExtractor(stubRecognizer{}, 2000, 200),
		standardize.NewEngine(terminology.SeedTable(), standardize.DefaultPolicy()),
		validate.New(),
		zerolog.Nop(),
		pipeline.Options{StageRetries: 1, StageTimeout: time.Second, RetryInterval: time.Millisecond},
	)

	e := echo.New()
	NewHandler(orch, nil, zerolog.Nop()).RegisterRoutes(e)
	return e
}

// =========== Tests ===========

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestProcessDocument_RawBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process",
		strings.NewReader("Patient has hypertension."))
	req.Header.Set("X-Document-Name", "note.txt")
	rec := httptest.NewRecorder()
	newServer(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var out record.MedicalRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a record: %v", err)
	}
	if out.Status != record.StatusComplete {
		t.Errorf("status = %s, want COMPLETE", out.Status)
	}
	if out.DocumentName != "note.txt" {
		t.Errorf("document name = %q", out.DocumentName)
	}
	if len(out.Entities) != 1 {
		t.Errorf("expected one entity, got %+v", out.Entities)
	}
}

func TestProcessDocument_Multipart(t *testing.T) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("document", "visit.txt")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("Assessment: hypertension, stable."))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	newServer(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out record.MedicalRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.DocumentName != "visit.txt" {
		t.Errorf("document name = %q, want filename from the part", out.DocumentName)
	}
}

func TestProcessDocument_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", nil)
	rec := httptest.NewRecorder()
	newServer(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProcessDocument_FailedDocumentStillReturnsRecord(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process",
		bytes.NewReader([]byte{0x00, 0x01}))
	rec := httptest.NewRecorder()
	newServer(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with a FAILED record", rec.Code)
	}
	var out record.MedicalRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Status != record.StatusFailed {
		t.Errorf("status = %s, want FAILED", out.Status)
	}
}
