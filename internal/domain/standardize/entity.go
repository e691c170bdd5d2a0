package standardize

import (
	"github.com/medrec/medrec/internal/domain/nlp"
)

// CodedEntity pairs a recognized entity with its candidate codes.
type CodedEntity struct {
	Entity     nlp.Entity         `json:"entity"`
	Candidates []StandardizedCode `json:"candidates,omitempty"`
}

// Selected returns the entity's selected code, if any candidate cleared the
// acceptance threshold.
func (c CodedEntity) Selected() (StandardizedCode, bool) {
	for _, cand := range c.Candidates {
		if cand.Selected {
			return cand, true
		}
	}
	return StandardizedCode{}, false
}

// StandardizeEntity runs the match tiers over an entity's surface text.
func (e *Engine) StandardizeEntity(ent nlp.Entity) CodedEntity {
	return CodedEntity{
		Entity:     ent,
		Candidates: e.Standardize(ent.ID.String(), ent.Surface),
	}
}
