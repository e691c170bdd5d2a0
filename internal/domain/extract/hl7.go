package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/medrec/medrec/internal/domain/document"
	"github.com/medrec/medrec/internal/domain/terminology"
	"github.com/medrec/medrec/internal/platform/hl7v2"
)

// HL7Extractor maps HL7v2 segment/field/component structure into structured
// fields. Segments that fail strict parsing are retained as opaque unparsed
// fields rather than aborting the message.
type HL7Extractor struct{}

// NewHL7Extractor creates an HL7v2 extractor.
func NewHL7Extractor() *HL7Extractor {
	return &HL7Extractor{}
}

// fieldLabels names the fields worth extracting individually from well-known
// segments. Fields of other segments are extracted generically.
var fieldLabels = map[string]map[int]string{
	"PID": {3: "patient_id", 5: "patient_name", 7: "date_of_birth", 8: "gender"},
	"PV1": {2: "patient_class", 3: "assigned_location", 7: "attending_provider", 44: "admit_date"},
	"DG1": {3: "diagnosis_code", 4: "diagnosis_description", 5: "diagnosis_date"},
	"PR1": {3: "procedure_code", 4: "procedure_description", 5: "procedure_date"},
	"AL1": {3: "allergen"},
	"IN1": {2: "insurance_plan", 4: "insurance_company"},
}

// codedFields identifies CWE fields whose third component names a coding
// system; their code component is carried as an embedded code.
var codedFields = map[string]map[int]bool{
	"DG1": {3: true},
	"PR1": {3: true},
}

func (e *HL7Extractor) Extract(_ context.Context, doc *document.Document) (*RawExtraction, error) {
	msg, err := hl7v2.Parse(doc.Raw)
	if err != nil {
		return nil, &ExtractionError{Format: document.FormatHL7, Err: err}
	}

	out := &RawExtraction{DocumentID: doc.ID.String(), Format: document.FormatHL7}
	ids := newFieldIDSeq()

	if msg.Type != "" {
		out.Fields = append(out.Fields, StructuredField{
			ID: ids.next(), Key: "message_type", Value: msg.Type, Location: "MSH-9",
		})
	}

	for _, seg := range msg.Segments {
		switch {
		case seg.Unparsed:
			out.Fields = append(out.Fields, StructuredField{
				ID: ids.next(), Key: strings.ToLower(seg.Name), Value: seg.Raw,
				Location: seg.Name, Unparsed: true,
			})
		case seg.Name == "MSH":
			// Header already captured above.
		case seg.Name == "NTE":
			if text := seg.GetField(3); text != "" {
				out.Segments = append(out.Segments, Segment{Text: text, Role: RoleNote})
			}
		case seg.Name == "OBX" && isTextValueType(seg.GetField(2)):
			if text := seg.GetField(5); text != "" {
				out.Segments = append(out.Segments, Segment{Text: text, Role: RoleNote})
			}
		default:
			e.extractSegment(out, ids, &seg)
		}
	}

	return out, nil
}

func (e *HL7Extractor) extractSegment(out *RawExtraction, ids *fieldIDSeq, seg *hl7v2.Segment) {
	labels := fieldLabels[seg.Name]

	for i := range seg.Fields {
		fieldNum := i + 1
		value := seg.Fields[i].Value
		if strings.TrimSpace(value) == "" {
			continue
		}

		label, known := labels[fieldNum]
		if labels != nil && !known {
			// For well-known segments only the labeled fields are kept;
			// sequence numbers and filler fields add nothing downstream.
			continue
		}
		if label == "" {
			label = fmt.Sprintf("%s-%d", strings.ToLower(seg.Name), fieldNum)
		}

		field := StructuredField{
			ID:       ids.next(),
			Key:      label,
			Value:    value,
			Location: fmt.Sprintf("%s-%d", seg.Name, fieldNum),
		}

		if codedFields[seg.Name][fieldNum] {
			code := seg.GetComponent(fieldNum, 1)
			system := codingSystemTag(seg.GetComponent(fieldNum, 3))
			if code != "" && system != "" {
				field.Code = code
				field.System = system
				field.Location = fmt.Sprintf("%s-%d.1", seg.Name, fieldNum)
			}
			// Keep the human-readable description component as the value.
			if desc := seg.GetComponent(fieldNum, 2); desc != "" {
				field.Value = desc
			}
		}

		out.Fields = append(out.Fields, field)
	}
}

// isTextValueType reports whether an OBX-2 value type carries narrative text.
func isTextValueType(vt string) bool {
	switch vt {
	case "TX", "ST", "FT":
		return true
	}
	return false
}

// codingSystemTag maps an HL7 coding-system token (CWE component 3) onto a
// supported code system.
func codingSystemTag(token string) terminology.CodeSystem {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "I10", "ICD10", "ICD-10", "I10C", "ICD-10-CM":
		return terminology.SystemICD10
	case "C4", "CPT", "CPT4", "CPT-4":
		return terminology.SystemCPT
	case "HCPCS", "HCP":
		return terminology.SystemHCPCS
	}
	return ""
}

// fieldIDSeq hands out stable per-extraction field identifiers.
type fieldIDSeq struct{ n int }

func newFieldIDSeq() *fieldIDSeq { return &fieldIDSeq{} }

func (s *fieldIDSeq) next() string {
	s.n++
	return fmt.Sprintf("f%03d", s.n)
}
