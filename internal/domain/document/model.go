package document

import (
	"github.com/google/uuid"
)

// FormatTag identifies the source format of an ingested document.
type FormatTag string

// Supported source formats. The set is closed: adding a format means adding
// a tag here, a router signature, and an extractor registration.
const (
	FormatHL7  FormatTag = "HL7"
	FormatFHIR FormatTag = "FHIR"
	FormatPDF  FormatTag = "PDF"
	FormatTEXT FormatTag = "TEXT"
)

// Document is an immutable ingested input. Raw is never mutated after
// construction; every downstream artifact references the document by ID.
type Document struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Format FormatTag `json:"format"`
	Raw    []byte    `json:"-"`
}

// New creates a Document with a fresh ID. The format is left empty until the
// router classifies the content.
func New(name string, raw []byte) *Document {
	return &Document{
		ID:   uuid.New(),
		Name: name,
		Raw:  raw,
	}
}
