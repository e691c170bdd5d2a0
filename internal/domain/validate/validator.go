package validate

import (
	"fmt"
	"strings"

	"github.com/medrec/medrec/internal/domain/document"
	"github.com/medrec/medrec/internal/domain/extract"
	"github.com/medrec/medrec/internal/domain/standardize"
	"github.com/medrec/medrec/internal/domain/terminology"
)

// Input is the intermediate pipeline state the validator inspects.
// FieldCodes are the embedded codes that validated against the table,
// keyed by field id through their Ref.
type Input struct {
	Format     document.FormatTag
	Fields     []extract.StructuredField
	FieldCodes []standardize.StandardizedCode
	Entities   []standardize.CodedEntity
}

// requiredFieldKeys names the field each format is expected to supply.
var requiredFieldKeys = map[document.FormatTag]string{
	document.FormatHL7:  "diagnosis_code",
	document.FormatFHIR: "resource_type",
}

// Validator runs the consistency checks. All checks are independent, run
// regardless of earlier findings, and never mutate the input: validating
// the same state twice yields the same issues.
type Validator struct{}

// New creates a validator.
func New() *Validator {
	return &Validator{}
}

// Validate runs every check and returns the accumulated issues in a
// deterministic order.
func (v *Validator) Validate(in Input) []Issue {
	var issues []Issue
	issues = append(issues, v.crossSource(in)...)
	issues = append(issues, v.duplicateCodes(in)...)
	issues = append(issues, v.missingRequired(in)...)
	issues = append(issues, v.lowConfidence(in)...)
	return issues
}

// crossSource flags a structured field's embedded code disagreeing with an
// entity's selected code for the same clinical concept. Concepts match when
// the code system is shared and the descriptions overlap.
func (v *Validator) crossSource(in Input) []Issue {
	var issues []Issue
	for _, fc := range in.FieldCodes {
		for _, ent := range in.Entities {
			sel, ok := ent.Selected()
			if !ok {
				continue
			}
			if sel.System != fc.System || sel.Code == fc.Code {
				continue
			}
			if !descriptionsOverlap(fc.Description, sel.Description) {
				continue
			}

			severity := SeverityInfo
			if fc.Confidence >= 0.8 && sel.Confidence >= 0.8 {
				severity = SeverityWarning
			}
			issues = append(issues, Issue{
				Severity: severity,
				Check:    CheckCrossSource,
				RefA:     fc.Ref,
				RefB:     sel.Ref,
				Description: fmt.Sprintf("structured field codes %s %s but text suggests %s %s",
					fc.System, fc.Code, sel.System, sel.Code),
			})
		}
	}
	return issues
}

// duplicateCodes flags two or more entities resolving to the identical
// selected code, a possible double-count. The entities stay coded; the
// finding is advisory.
func (v *Validator) duplicateCodes(in Input) []Issue {
	type key struct {
		system terminology.CodeSystem
		code   string
	}
	firstRef := make(map[key]string)
	reported := make(map[key]bool)

	var issues []Issue
	for _, ent := range in.Entities {
		sel, ok := ent.Selected()
		if !ok {
			continue
		}
		k := key{system: sel.System, code: sel.Code}
		first, seen := firstRef[k]
		if !seen {
			firstRef[k] = ent.Entity.ID.String()
			continue
		}
		if reported[k] {
			continue
		}
		reported[k] = true
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Check:    CheckDuplicateCode,
			RefA:     first,
			RefB:     ent.Entity.ID.String(),
			Description: fmt.Sprintf("multiple entities map to %s %s; possible duplicate submission",
				sel.System, sel.Code),
		})
	}
	return issues
}

// missingRequired flags a document lacking the field its format is expected
// to supply. This is the only error-severity check and caps the record at
// PARTIAL.
func (v *Validator) missingRequired(in Input) []Issue {
	required, ok := requiredFieldKeys[in.Format]
	if !ok {
		return nil
	}
	for _, f := range in.Fields {
		if f.Key == required {
			return nil
		}
	}
	return []Issue{{
		Severity:    SeverityError,
		Check:       CheckMissingField,
		Description: fmt.Sprintf("%s document has no %s field", in.Format, required),
	}}
}

// lowConfidence flags entities extracted below 0.5 confidence that also
// failed to standardize, for human review.
func (v *Validator) lowConfidence(in Input) []Issue {
	var issues []Issue
	for _, ent := range in.Entities {
		if ent.Entity.Confidence >= 0.5 {
			continue
		}
		if _, ok := ent.Selected(); ok {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityInfo,
			Check:    CheckLowConfidence,
			RefA:     ent.Entity.ID.String(),
			Description: fmt.Sprintf("entity %q extracted at %.2f confidence with no accepted code",
				ent.Entity.Surface, ent.Entity.Confidence),
		})
	}
	return issues
}

// descriptionsOverlap reports whether two code descriptions share at least
// one meaningful token.
func descriptionsOverlap(a, b string) bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(terminology.Normalize(a)) {
		if len(tok) > 3 {
			set[tok] = true
		}
	}
	for _, tok := range strings.Fields(terminology.Normalize(b)) {
		if set[tok] {
			return true
		}
	}
	return false
}
