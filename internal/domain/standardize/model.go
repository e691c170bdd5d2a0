package standardize

import (
	"github.com/medrec/medrec/internal/domain/terminology"
)

// Method identifies how a candidate code was matched.
type Method string

const (
	MethodExact        Method = "exact"
	MethodAbbreviation Method = "abbreviation-expansion"
	MethodSynonym      Method = "synonym"
	MethodFuzzy        Method = "fuzzy"
)

// StandardizedCode is one candidate code for an entity or field. Ref points
// at the entity or field id it standardizes. At most one candidate per ref
// carries Selected.
type StandardizedCode struct {
	System      terminology.CodeSystem `json:"system"`
	Code        string                 `json:"code"`
	Description string                 `json:"description"`
	Confidence  float64                `json:"confidence"`
	Method      Method                 `json:"method"`
	Selected    bool                   `json:"selected"`
	Ref         string                 `json:"ref"`
}

// Policy holds the match thresholds. AcceptanceThreshold gates selection;
// FuzzyFloor discards fuzzy matches too weak to even be candidates.
type Policy struct {
	AcceptanceThreshold float64
	FuzzyFloor          float64
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{AcceptanceThreshold: 0.75, FuzzyFloor: 0.6}
}
