package extract

import (
	"context"
	"strings"

	"github.com/medrec/medrec/internal/domain/document"
)

// sectionHeaders maps recognized clinical section headers (matched on a
// whole line, case-insensitive, optional trailing colon) to segment roles.
var sectionHeaders = map[string]string{
	"chief complaint":            RoleChiefComplaint,
	"cc":                         RoleChiefComplaint,
	"history":                    RoleHistory,
	"history of present illness": RoleHistory,
	"hpi":                        RoleHistory,
	"past medical history":       RoleHistory,
	"pmh":                        RoleHistory,
	"medications":                RoleMedications,
	"current medications":        RoleMedications,
	"assessment":                 RoleAssessment,
	"impression":                 RoleAssessment,
	"assessment and plan":        RoleAssessment,
	"plan":                       RolePlan,
}

// TextExtractor splits free text on recognized section headers. Text before
// the first header, or the whole document when no header matches, becomes a
// single body segment.
type TextExtractor struct{}

// NewTextExtractor creates a plain-text extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) Extract(_ context.Context, doc *document.Document) (*RawExtraction, error) {
	out := &RawExtraction{DocumentID: doc.ID.String(), Format: document.FormatTEXT}

	role := RoleBody
	var buf []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if text == "" {
			return
		}
		out.Segments = append(out.Segments, Segment{Text: text, Role: role})
	}

	for _, line := range strings.Split(string(doc.Raw), "\n") {
		if r, ok := headerRole(line); ok {
			flush()
			role = r
			continue
		}
		buf = append(buf, line)
	}
	flush()

	return out, nil
}

// headerRole reports whether a line is a recognized section header.
func headerRole(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimSuffix(trimmed, ":")
	role, ok := sectionHeaders[strings.ToLower(trimmed)]
	return role, ok
}
