package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medrec/medrec/internal/domain/document"
	"github.com/medrec/medrec/internal/domain/terminology"
)

const sampleADT = "MSH|^~\\&|SENDER|FAC|RECEIVER|FAC|20240115083000||ADT^A01|MSG001|P|2.5.1\r" +
	"PID|1||12345^^^MRN||Doe^Jane||19800101|F\r" +
	"PV1|1|I|ICU^101^A|||||||||||||||||||||||||||||||||||||||||20240115\r" +
	"DG1|1||I10^Essential (primary) hypertension^I10|||F\r" +
	"NTE|1||Patient reports occasional dizziness.\r" +
	"OBX|1|TX|NOTE||Blood pressure elevated on admission.||||||F\r"

func extractHL7(t *testing.T, raw string) *RawExtraction {
	t.Helper()
	doc := document.New("msg.hl7", []byte(raw))
	out, err := NewHL7Extractor().Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func findField(out *RawExtraction, key string) (StructuredField, bool) {
	for _, f := range out.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return StructuredField{}, false
}

func TestHL7Extract_Fields(t *testing.T) {
	out := extractHL7(t, sampleADT)

	tests := []struct {
		key  string
		want string
	}{
		{"message_type", "ADT^A01"},
		{"patient_id", "12345^^^MRN"},
		{"patient_name", "Doe^Jane"},
		{"date_of_birth", "19800101"},
		{"gender", "F"},
		{"patient_class", "I"},
	}
	for _, tt := range tests {
		f, ok := findField(out, tt.key)
		if !ok {
			t.Errorf("field %q missing", tt.key)
			continue
		}
		if f.Value != tt.want {
			t.Errorf("field %q = %q, want %q", tt.key, f.Value, tt.want)
		}
	}
}

func TestHL7Extract_EmbeddedDiagnosisCode(t *testing.T) {
	out := extractHL7(t, sampleADT)

	f, ok := findField(out, "diagnosis_code")
	if !ok {
		t.Fatal("diagnosis_code field missing")
	}
	if f.Code != "I10" {
		t.Errorf("code = %q, want I10", f.Code)
	}
	if f.System != terminology.SystemICD10 {
		t.Errorf("system = %q, want %q", f.System, terminology.SystemICD10)
	}
	if f.Value != "Essential (primary) hypertension" {
		t.Errorf("value = %q, want description component", f.Value)
	}
	if f.Location != "DG1-3.1" {
		t.Errorf("location = %q, want DG1-3.1", f.Location)
	}
}

func TestHL7Extract_NoteSegments(t *testing.T) {
	out := extractHL7(t, sampleADT)

	if len(out.Segments) != 2 {
		t.Fatalf("expected 2 note segments, got %d: %+v", len(out.Segments), out.Segments)
	}
	for _, seg := range out.Segments {
		if seg.Role != RoleNote {
			t.Errorf("segment role = %q, want %q", seg.Role, RoleNote)
		}
	}
	if out.Segments[0].Text != "Patient reports occasional dizziness." {
		t.Errorf("unexpected NTE text: %q", out.Segments[0].Text)
	}
	if out.Segments[1].Text != "Blood pressure elevated on admission." {
		t.Errorf("unexpected OBX text: %q", out.Segments[1].Text)
	}
}

func TestHL7Extract_NumericOBXNotASegment(t *testing.T) {
	raw := "MSH|^~\\&|S|F|R|F|20240115083000||ORU^R01|M1|P|2.5.1\r" +
		"OBX|1|NM|8480-6^Systolic BP||142|mm[Hg]|||||F\r"
	out := extractHL7(t, raw)

	if len(out.Segments) != 0 {
		t.Errorf("numeric OBX must not become a note segment: %+v", out.Segments)
	}
}

func TestHL7Extract_UnparsedSegmentRetained(t *testing.T) {
	raw := "MSH|^~\\&|S|F|R|F|20240115083000||ADT^A01|M1|P|2.5.1\r" +
		"BADSEGMENT|garbage|here\r" +
		"PID|1||99^^^MRN\r"
	out := extractHL7(t, raw)

	var unparsed *StructuredField
	for i := range out.Fields {
		if out.Fields[i].Unparsed {
			unparsed = &out.Fields[i]
		}
	}
	if unparsed == nil {
		t.Fatal("expected an unparsed field for the malformed segment")
	}
	if !strings.HasPrefix(unparsed.Value, "BADSEGMENT|") {
		t.Errorf("unparsed field must retain the raw line, got %q", unparsed.Value)
	}

	if _, ok := findField(out, "patient_id"); !ok {
		t.Error("segments after the malformed one must still be extracted")
	}
}

func TestHL7Extract_InvalidMessage(t *testing.T) {
	doc := document.New("bad.hl7", []byte("not an hl7 message"))
	_, err := NewHL7Extractor().Extract(context.Background(), doc)
	if err == nil {
		t.Fatal("expected error")
	}
	var exErr *ExtractionError
	if !errors.As(err, &exErr) {
		t.Fatalf("expected *ExtractionError, got %T", err)
	}
	if exErr.Format != document.FormatHL7 {
		t.Errorf("format = %q, want %q", exErr.Format, document.FormatHL7)
	}
}
