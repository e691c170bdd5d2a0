package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/medrec/medrec/internal/domain/document"
	"github.com/medrec/medrec/internal/domain/terminology"
)

// FHIRExtractor walks FHIR JSON resources (a single resource or a Bundle)
// and maps populated attributes to structured fields and narrative text to
// free-text segments. Resources are handled as raw JSON maps; unknown
// resource types contribute their resourceType field only.
type FHIRExtractor struct{}

// NewFHIRExtractor creates a FHIR resource extractor.
func NewFHIRExtractor() *FHIRExtractor {
	return &FHIRExtractor{}
}

func (e *FHIRExtractor) Extract(_ context.Context, doc *document.Document) (*RawExtraction, error) {
	var resource map[string]interface{}
	if err := json.Unmarshal(doc.Raw, &resource); err != nil {
		return nil, &ExtractionError{Format: document.FormatFHIR, Err: fmt.Errorf("parse resource: %w", err)}
	}

	rt, _ := resource["resourceType"].(string)
	if rt == "" {
		return nil, &ExtractionError{Format: document.FormatFHIR, Err: fmt.Errorf("missing resourceType")}
	}

	out := &RawExtraction{DocumentID: doc.ID.String(), Format: document.FormatFHIR}
	ids := newFieldIDSeq()

	if rt == "Bundle" {
		entries, _ := resource["entry"].([]interface{})
		for _, entry := range entries {
			em, _ := entry.(map[string]interface{})
			if res, ok := em["resource"].(map[string]interface{}); ok {
				e.extractResource(out, ids, res)
			}
		}
		return out, nil
	}

	e.extractResource(out, ids, resource)
	return out, nil
}

func (e *FHIRExtractor) extractResource(out *RawExtraction, ids *fieldIDSeq, res map[string]interface{}) {
	rt, _ := res["resourceType"].(string)
	if rt == "" {
		return
	}

	out.Fields = append(out.Fields, StructuredField{
		ID: ids.next(), Key: "resource_type", Value: rt, Location: rt,
	})

	addField := func(key, value, location string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		out.Fields = append(out.Fields, StructuredField{
			ID: ids.next(), Key: key, Value: value, Location: location,
		})
	}

	switch rt {
	case "Patient":
		addField("patient_id", str(res["id"]), "Patient.id")
		if names, ok := res["name"].([]interface{}); ok && len(names) > 0 {
			if nm, ok := names[0].(map[string]interface{}); ok {
				addField("family_name", str(nm["family"]), "Patient.name.family")
				if given, ok := nm["given"].([]interface{}); ok && len(given) > 0 {
					addField("given_name", str(given[0]), "Patient.name.given")
				}
			}
		}
		addField("date_of_birth", str(res["birthDate"]), "Patient.birthDate")
		addField("gender", str(res["gender"]), "Patient.gender")

	case "Condition":
		e.extractCodeable(out, ids, res["code"], "diagnosis", rt+".code")
		addField("subject", refID(res["subject"]), "Condition.subject")
		addField("onset_date", str(res["onsetDateTime"]), "Condition.onsetDateTime")
		addField("clinical_status", codeableText(res["clinicalStatus"]), "Condition.clinicalStatus")

	case "Procedure":
		e.extractCodeable(out, ids, res["code"], "procedure", rt+".code")
		addField("subject", refID(res["subject"]), "Procedure.subject")
		addField("performed_date", str(res["performedDateTime"]), "Procedure.performedDateTime")
		addField("status", str(res["status"]), "Procedure.status")

	case "Observation":
		e.extractCodeable(out, ids, res["code"], "observation", rt+".code")
		addField("status", str(res["status"]), "Observation.status")
		if vq, ok := res["valueQuantity"].(map[string]interface{}); ok {
			addField("value", fmt.Sprintf("%v %s", vq["value"], str(vq["unit"])), "Observation.valueQuantity")
		}
		addField("value", str(res["valueString"]), "Observation.valueString")

	case "MedicationRequest", "MedicationStatement":
		e.extractCodeable(out, ids, res["medicationCodeableConcept"], "medication", rt+".medicationCodeableConcept")
		addField("subject", refID(res["subject"]), rt+".subject")
		addField("status", str(res["status"]), rt+".status")
	}

	// Narrative and notes become free-text segments for the NLP stage.
	if text, ok := res["text"].(map[string]interface{}); ok {
		if div := stripTags(str(text["div"])); div != "" {
			out.Segments = append(out.Segments, Segment{Text: div, Role: RoleNarrative})
		}
	}
	if notes, ok := res["note"].([]interface{}); ok {
		for _, n := range notes {
			if nm, ok := n.(map[string]interface{}); ok {
				if txt := strings.TrimSpace(str(nm["text"])); txt != "" {
					out.Segments = append(out.Segments, Segment{Text: txt, Role: RoleNote})
				}
			}
		}
	}
}

// extractCodeable flattens a CodeableConcept: its text becomes a field and
// each coding with a recognizable system becomes a field with an embedded
// code for validation.
func (e *FHIRExtractor) extractCodeable(out *RawExtraction, ids *fieldIDSeq, v interface{}, key, location string) {
	cc, ok := v.(map[string]interface{})
	if !ok {
		return
	}

	text := str(cc["text"])
	codings, _ := cc["coding"].([]interface{})

	added := false
	for _, c := range codings {
		cm, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		code := str(cm["code"])
		if code == "" {
			continue
		}
		value := str(cm["display"])
		if value == "" {
			value = text
		}
		out.Fields = append(out.Fields, StructuredField{
			ID:       ids.next(),
			Key:      key,
			Value:    value,
			Location: location + ".coding",
			System:   codingSystemURI(str(cm["system"])),
			Code:     code,
		})
		added = true
	}

	if !added && text != "" {
		out.Fields = append(out.Fields, StructuredField{
			ID: ids.next(), Key: key, Value: text, Location: location + ".text",
		})
	}
}

// codingSystemURI maps a FHIR coding system URI onto a supported code system.
func codingSystemURI(uri string) terminology.CodeSystem {
	switch strings.TrimSuffix(strings.ToLower(uri), "/") {
	case "http://hl7.org/fhir/sid/icd-10", "http://hl7.org/fhir/sid/icd-10-cm":
		return terminology.SystemICD10
	case "http://www.ama-assn.org/go/cpt":
		return terminology.SystemCPT
	case "https://www.cms.gov/medicare/coding/hcpcsreleasecodesets", "http://www.cms.gov/medicare/coding/hcpcsreleasecodesets":
		return terminology.SystemHCPCS
	}
	return ""
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func refID(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	ref := str(m["reference"])
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func codeableText(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	if t := str(m["text"]); t != "" {
		return t
	}
	if codings, ok := m["coding"].([]interface{}); ok && len(codings) > 0 {
		if cm, ok := codings[0].(map[string]interface{}); ok {
			return str(cm["code"])
		}
	}
	return ""
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripTags removes XHTML markup from a narrative div.
func stripTags(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, " "))
}
