package record

import (
	"time"

	"github.com/google/uuid"

	"github.com/medrec/medrec/internal/domain/document"
	"github.com/medrec/medrec/internal/domain/extract"
	"github.com/medrec/medrec/internal/domain/standardize"
	"github.com/medrec/medrec/internal/domain/validate"
)

// Status is the terminal state of one document's pipeline run.
type Status string

const (
	// StatusComplete: every stage ran, every entity coded, no errors.
	StatusComplete Status = "COMPLETE"
	// StatusPartial: the record is usable but a stage degraded, an
	// error-severity issue exists, or an entity went uncoded.
	StatusPartial Status = "PARTIAL"
	// StatusFailed: classification or extraction produced nothing.
	StatusFailed Status = "FAILED"
)

// MedicalRecord is the per-document output of the pipeline: the extraction,
// the coded entities, the validated field codes, and every issue found.
// Exactly one record exists per input document regardless of outcome.
type MedicalRecord struct {
	ID            uuid.UUID                     `json:"id"`
	DocumentID    uuid.UUID                     `json:"document_id"`
	DocumentName  string                        `json:"document_name"`
	Format        document.FormatTag            `json:"format,omitempty"`
	Extraction    *extract.RawExtraction        `json:"extraction,omitempty"`
	Entities      []standardize.CodedEntity     `json:"entities,omitempty"`
	FieldCodes    []standardize.StandardizedCode `json:"field_codes,omitempty"`
	Issues        []validate.Issue              `json:"issues,omitempty"`
	Status        Status                        `json:"status"`
	FailureReason string                        `json:"failure_reason,omitempty"`
	CreatedAt     time.Time                     `json:"created_at"`
	CompletedAt   time.Time                     `json:"completed_at"`
}

// New starts a record for a document.
func New(doc *document.Document) *MedicalRecord {
	return &MedicalRecord{
		ID:           uuid.New(),
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		CreatedAt:    time.Now().UTC(),
	}
}

// Fail marks the record failed and stamps completion. Only classification
// and extraction failures reach here.
func (r *MedicalRecord) Fail(reason string) *MedicalRecord {
	r.Status = StatusFailed
	r.FailureReason = reason
	r.CompletedAt = time.Now().UTC()
	return r
}

// Finalize computes the terminal status from the accumulated state.
// degraded reports whether any stage substituted an empty result.
func (r *MedicalRecord) Finalize(degraded bool) *MedicalRecord {
	r.Status = StatusComplete
	if degraded || r.hasErrorIssue() || r.hasUncodedEntity() {
		r.Status = StatusPartial
	}
	r.CompletedAt = time.Now().UTC()
	return r
}

func (r *MedicalRecord) hasErrorIssue() bool {
	for _, issue := range r.Issues {
		if issue.Severity == validate.SeverityError {
			return true
		}
	}
	return false
}

func (r *MedicalRecord) hasUncodedEntity() bool {
	for _, ent := range r.Entities {
		if _, ok := ent.Selected(); !ok {
			return true
		}
	}
	return false
}
