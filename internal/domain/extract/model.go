package extract

import (
	"errors"
	"fmt"

	"github.com/medrec/medrec/internal/domain/document"
	"github.com/medrec/medrec/internal/domain/terminology"
)

// ErrUnavailable indicates an external extraction capability (OCR) could
// not be reached. Unlike a parse failure it is recoverable: the pipeline
// substitutes an empty extraction and degrades the record.
var ErrUnavailable = errors.New("extract: capability unavailable")

// Segment roles recognized by the pipeline. Free-text segments without a
// recognizable role carry RoleBody.
const (
	RoleBody           = "body"
	RoleChiefComplaint = "chief complaint"
	RoleHistory        = "history"
	RoleMedications    = "medications"
	RoleAssessment     = "assessment"
	RolePlan           = "plan"
	RoleNote           = "note"
	RoleNarrative      = "narrative"
	RolePage           = "page"
)

// StructuredField is one key/value extracted from a structured source, with
// the location token identifying where in the source it came from (e.g.
// "DG1-3.1" or "Condition.code"). Fields carrying a code in the source keep
// it in System/Code so standardization can validate instead of re-matching.
type StructuredField struct {
	ID       string                 `json:"id"`
	Key      string                 `json:"key"`
	Value    string                 `json:"value"`
	Location string                 `json:"location"`
	System   terminology.CodeSystem `json:"system,omitempty"`
	Code     string                 `json:"code,omitempty"`
	Unparsed bool                   `json:"unparsed,omitempty"`
}

// Segment is one free-text portion of a document, tagged with its role and,
// for OCR output, the page it came from.
type Segment struct {
	Text string `json:"text"`
	Role string `json:"role"`
	Page int    `json:"page,omitempty"`
}

// RawExtraction is the per-document output of a format extractor: ordered
// structured fields and free-text segments. It is owned exclusively by the
// pipeline run that produced it and never mutated afterwards.
type RawExtraction struct {
	DocumentID string            `json:"document_id"`
	Format     document.FormatTag `json:"format"`
	Fields     []StructuredField `json:"fields"`
	Segments   []Segment         `json:"segments"`
}

// Empty reports whether the extraction produced nothing at all, which the
// orchestrator treats as a fatal extraction failure.
func (r *RawExtraction) Empty() bool {
	return len(r.Fields) == 0 && len(r.Segments) == 0
}

// ExtractionError wraps a format-specific extraction failure. The
// orchestrator treats it as fatal only when no partial structure was
// produced; extractors themselves always prefer partial output to failure.
type ExtractionError struct {
	Format document.FormatTag
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract: %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
