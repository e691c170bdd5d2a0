package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrUnrecognizedFormat is returned when no format signature claims the
// content. It is fatal for the document: the caller records a FAILED
// MedicalRecord and runs no further stages.
var ErrUnrecognizedFormat = errors.New("document: unrecognized format")

var pdfMagic = []byte("%PDF-")

// Classify inspects the content signature of a document and returns its
// FormatTag. The filename is never consulted; uploaded content is routinely
// mislabeled.
//
// Signatures, checked in order: HL7v2 batch/message headers (MSH/BHS/FHS
// followed by a field separator), a JSON object carrying a FHIR resourceType,
// the PDF magic bytes, and finally any valid UTF-8 text. Binary content that
// matches none of these is unrecognized.
func Classify(doc *Document) (FormatTag, error) {
	raw := doc.Raw
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", fmt.Errorf("%w: empty document", ErrUnrecognizedFormat)
	}

	trimmed := bytes.TrimSpace(raw)

	if isHL7(trimmed) {
		return FormatHL7, nil
	}
	if isFHIR(trimmed) {
		return FormatFHIR, nil
	}
	if bytes.HasPrefix(trimmed, pdfMagic) {
		return FormatPDF, nil
	}
	if utf8.Valid(raw) && !bytes.ContainsRune(raw, 0) {
		return FormatTEXT, nil
	}

	return "", fmt.Errorf("%w: no signature matched %d bytes", ErrUnrecognizedFormat, len(raw))
}

func isHL7(b []byte) bool {
	for _, header := range []string{"MSH", "BHS", "FHS"} {
		if bytes.HasPrefix(b, []byte(header)) && len(b) > 3 && b[3] == '|' {
			return true
		}
	}
	return false
}

func isFHIR(b []byte) bool {
	if len(b) == 0 || b[0] != '{' {
		return false
	}
	var envelope struct {
		ResourceType string `json:"resourceType"`
	}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return false
	}
	return envelope.ResourceType != ""
}
