package standardize

import (
	"reflect"
	"testing"

	"github.com/medrec/medrec/internal/domain/terminology"
)

func seedEngine() *Engine {
	return NewEngine(terminology.SeedTable(), DefaultPolicy())
}

func TestStandardize_ExactTier(t *testing.T) {
	got := seedEngine().Standardize("e1", "Hypertension")

	if len(got) != 1 {
		t.Fatalf("expected one candidate, got %+v", got)
	}
	c := got[0]
	if c.System != terminology.SystemICD10 || c.Code != "I10" {
		t.Errorf("code = %s/%s, want ICD-10/I10", c.System, c.Code)
	}
	if c.Confidence != 1.0 || c.Method != MethodExact {
		t.Errorf("confidence/method = %v/%s, want 1.0/exact", c.Confidence, c.Method)
	}
	if !c.Selected {
		t.Error("exact match must be selected")
	}
	if c.Ref != "e1" {
		t.Errorf("ref = %q, want e1", c.Ref)
	}
}

func TestStandardize_AbbreviationTier(t *testing.T) {
	tests := []struct {
		surface string
		code    string
	}{
		{"HTN", "I10"},
		{"HTN dx", "I10"}, // shorthand stripped on retry
		{"DM2", "E11.9"},
	}
	for _, tt := range tests {
		t.Run(tt.surface, func(t *testing.T) {
			got := seedEngine().Standardize("e1", tt.surface)
			if len(got) == 0 {
				t.Fatalf("no candidates for %q", tt.surface)
			}
			c := got[0]
			if c.Code != tt.code {
				t.Errorf("code = %s, want %s", c.Code, tt.code)
			}
			if c.Confidence != 0.9 || c.Method != MethodAbbreviation {
				t.Errorf("confidence/method = %v/%s, want 0.9/%s", c.Confidence, c.Method, MethodAbbreviation)
			}
			if !c.Selected {
				t.Error("0.9 clears the default threshold and must be selected")
			}
		})
	}
}

func TestStandardize_SynonymTier(t *testing.T) {
	got := seedEngine().Standardize("e1", "high blood pressure")

	if len(got) == 0 {
		t.Fatal("no candidates")
	}
	c := got[0]
	if c.Code != "I10" || c.Confidence != 0.85 || c.Method != MethodSynonym {
		t.Errorf("got %+v, want I10 at 0.85 via synonym", c)
	}
	if !c.Selected {
		t.Error("0.85 clears the default threshold and must be selected")
	}
}

func TestStandardize_FuzzyTier(t *testing.T) {
	got := seedEngine().Standardize("e1", "hypertenson") // misspelled

	if len(got) == 0 {
		t.Fatal("no candidates")
	}
	c := got[0]
	if c.Code != "I10" || c.Method != MethodFuzzy {
		t.Errorf("got %+v, want I10 via fuzzy", c)
	}
	if c.Confidence >= 1.0 || c.Confidence < 0.75 {
		t.Errorf("confidence = %v, want within [0.75, 1.0) for a one-letter typo", c.Confidence)
	}
	if !c.Selected {
		t.Error("strong fuzzy match must be selected")
	}
}

func TestStandardize_FuzzyBelowThresholdNotSelected(t *testing.T) {
	table := terminology.NewTable(
		[]terminology.Code{{System: terminology.SystemICD10, Code: "A1", Display: "alpha beta gamma"}},
		nil, nil, nil,
	)
	engine := NewEngine(table, DefaultPolicy())

	// Two of three tokens shared: overlap 2/3, inside [floor, threshold).
	got := engine.Standardize("e1", "alpha beta")
	if len(got) != 1 {
		t.Fatalf("expected one fuzzy candidate, got %+v", got)
	}
	if got[0].Selected {
		t.Errorf("candidate below acceptance threshold must not be selected: %+v", got[0])
	}
	if got[0].Confidence < 0.6 || got[0].Confidence >= 0.75 {
		t.Errorf("confidence = %v, want inside [0.6, 0.75)", got[0].Confidence)
	}
}

func TestStandardize_NoMatch(t *testing.T) {
	if got := seedEngine().Standardize("e1", "zzzzqqqq"); got != nil {
		t.Errorf("expected no candidates, got %+v", got)
	}
	if got := seedEngine().Standardize("e1", "   "); got != nil {
		t.Errorf("blank surface must not match, got %+v", got)
	}
}

func TestStandardize_CandidateOrdering(t *testing.T) {
	table := terminology.NewTable(
		[]terminology.Code{
			{System: terminology.SystemICD10, Code: "B2", Display: "a much longer description"},
			{System: terminology.SystemICD10, Code: "A1", Display: "short one"},
		},
		[]terminology.TermEntry{
			{Term: "shared term", System: terminology.SystemICD10, Code: "A1"},
			{Term: "shared term", System: terminology.SystemICD10, Code: "B2"},
		},
		nil, nil,
	)
	engine := NewEngine(table, DefaultPolicy())

	got := engine.Standardize("e1", "shared term")
	if len(got) != 2 {
		t.Fatalf("expected two candidates, got %+v", got)
	}
	if got[0].Code != "A1" {
		t.Errorf("equal confidence must order by shorter description: %+v", got)
	}
	if !got[0].Selected || got[1].Selected {
		t.Error("only the top candidate may be selected")
	}
}

func TestStandardize_Deterministic(t *testing.T) {
	engine := seedEngine()
	a := engine.Standardize("e1", "hypertenson")
	b := engine.Standardize("e1", "hypertenson")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated calls differ:\n%+v\n%+v", a, b)
	}
}

func TestValidateEmbedded(t *testing.T) {
	engine := seedEngine()

	c, ok := engine.ValidateEmbedded("f001", terminology.SystemICD10, "I10")
	if !ok {
		t.Fatal("expected I10 to validate")
	}
	if c.Description != "Essential (primary) hypertension" || c.Confidence != 1.0 || !c.Selected {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if c.Ref != "f001" {
		t.Errorf("ref = %q, want f001", c.Ref)
	}

	if _, ok := engine.ValidateEmbedded("f001", terminology.SystemICD10, "NOPE"); ok {
		t.Error("unknown code must not validate")
	}
	if _, ok := engine.ValidateEmbedded("f001", terminology.SystemCPT, "I10"); ok {
		t.Error("code must validate against its claimed system only")
	}
}
