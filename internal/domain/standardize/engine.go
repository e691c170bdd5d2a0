package standardize

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/medrec/medrec/internal/domain/terminology"
)

// qualifierWords are documentation shorthand tokens that carry no clinical
// meaning of their own; they are stripped on the abbreviation-expansion
// retry so "HTN dx" still resolves to hypertension.
var qualifierWords = map[string]bool{
	"diagnosis": true,
	"diagnoses": true,
	"history":   true,
	"symptoms":  true,
	"of":        true,
	"patient":   true,
	"noted":     true,
	"known":     true,
}

// Engine matches entity surface text against the terminology table. Tiers
// run in order and the first tier producing candidates wins:
//
//	exact term match           1.0
//	abbreviation expansion     0.9
//	synonym                    0.85
//	fuzzy similarity           computed score, never below the floor
//
// The engine is stateless over an immutable table and safe for concurrent
// use.
type Engine struct {
	table  *terminology.Table
	policy Policy
}

// NewEngine creates a standardization engine over a loaded table.
func NewEngine(table *terminology.Table, policy Policy) *Engine {
	return &Engine{table: table, policy: policy}
}

// Standardize returns the candidate codes for a surface string, sorted by
// confidence desc, then shorter description, then system/code. The top
// candidate is marked Selected when it clears the acceptance threshold.
// No match returns nil.
func (e *Engine) Standardize(ref, surface string) []StandardizedCode {
	norm := terminology.Normalize(surface)
	if norm == "" {
		return nil
	}

	candidates := e.exactTier(ref, norm)
	if candidates == nil {
		candidates = e.abbreviationTier(ref, norm)
	}
	if candidates == nil {
		candidates = e.synonymTier(ref, norm)
	}
	if candidates == nil {
		candidates = e.fuzzyTier(ref, norm)
	}
	if candidates == nil {
		return nil
	}

	sortCandidates(candidates)
	if candidates[0].Confidence >= e.policy.AcceptanceThreshold {
		candidates[0].Selected = true
	}
	return candidates
}

// ValidateEmbedded checks a code carried by the source document against the
// table. A valid code becomes a selected exact candidate; an unknown system
// or code returns false and the caller reports it.
func (e *Engine) ValidateEmbedded(ref string, system terminology.CodeSystem, code string) (StandardizedCode, bool) {
	c, ok := e.table.Lookup(system, code)
	if !ok {
		return StandardizedCode{}, false
	}
	return StandardizedCode{
		System:      c.System,
		Code:        c.Code,
		Description: c.Display,
		Confidence:  1.0,
		Method:      MethodExact,
		Selected:    true,
		Ref:         ref,
	}, true
}

func (e *Engine) exactTier(ref, norm string) []StandardizedCode {
	return e.fromCodes(ref, e.table.Term(norm), 1.0, MethodExact)
}

func (e *Engine) abbreviationTier(ref, norm string) []StandardizedCode {
	tokens := strings.Fields(norm)
	expanded := make([]string, 0, len(tokens))
	changed := false
	for _, tok := range tokens {
		if exp, ok := e.table.Abbreviation(tok); ok {
			expanded = append(expanded, strings.Fields(exp)...)
			changed = true
			continue
		}
		expanded = append(expanded, tok)
	}
	if !changed {
		return nil
	}

	if codes := e.table.Term(strings.Join(expanded, " ")); codes != nil {
		return e.fromCodes(ref, codes, 0.9, MethodAbbreviation)
	}

	// Retry without documentation shorthand ("dx", "hx of" and the like
	// expand to qualifier words that the term index does not carry).
	kept := expanded[:0]
	for _, tok := range expanded {
		if !qualifierWords[tok] {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 || len(kept) == len(expanded) {
		return nil
	}
	return e.fromCodes(ref, e.table.Term(strings.Join(kept, " ")), 0.9, MethodAbbreviation)
}

func (e *Engine) synonymTier(ref, norm string) []StandardizedCode {
	canonical, ok := e.table.Synonym(norm)
	if !ok {
		return nil
	}
	return e.fromCodes(ref, e.table.Term(canonical), 0.85, MethodSynonym)
}

func (e *Engine) fuzzyTier(ref, norm string) []StandardizedCode {
	type best struct {
		code  terminology.Code
		score float64
	}
	byCode := make(map[terminology.CodeSystem]map[string]best)

	for _, te := range e.table.Terms() {
		score := similarity(norm, te.Term)
		if score < e.policy.FuzzyFloor {
			continue
		}
		c, ok := e.table.Lookup(te.System, te.Code)
		if !ok {
			continue
		}
		m := byCode[c.System]
		if m == nil {
			m = make(map[string]best)
			byCode[c.System] = m
		}
		if prev, ok := m[c.Code]; !ok || score > prev.score {
			m[c.Code] = best{code: c, score: score}
		}
	}

	var out []StandardizedCode
	for _, m := range byCode {
		for _, b := range m {
			out = append(out, StandardizedCode{
				System:      b.code.System,
				Code:        b.code.Code,
				Description: b.code.Display,
				Confidence:  b.score,
				Method:      MethodFuzzy,
				Ref:         ref,
			})
		}
	}
	return out
}

func (e *Engine) fromCodes(ref string, codes []terminology.Code, conf float64, method Method) []StandardizedCode {
	if len(codes) == 0 {
		return nil
	}
	out := make([]StandardizedCode, 0, len(codes))
	for _, c := range codes {
		out = append(out, StandardizedCode{
			System:      c.System,
			Code:        c.Code,
			Description: c.Display,
			Confidence:  conf,
			Method:      method,
			Ref:         ref,
		})
	}
	return out
}

func sortCandidates(candidates []StandardizedCode) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if len(a.Description) != len(b.Description) {
			return len(a.Description) < len(b.Description)
		}
		if a.System != b.System {
			return a.System < b.System
		}
		return a.Code < b.Code
	})
}

// similarity is the stronger of edit-distance similarity and token overlap,
// so both misspellings ("hypertenson") and reordered or partial phrases
// score.
func similarity(a, b string) float64 {
	dist := levenshtein.ComputeDistance(a, b)
	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}
	lev := 0.0
	if longer > 0 {
		lev = 1 - float64(dist)/float64(longer)
	}

	if overlap := tokenOverlap(a, b); overlap > lev {
		return overlap
	}
	return lev
}

// tokenOverlap is the Jaccard index of the two token sets.
func tokenOverlap(a, b string) float64 {
	as := strings.Fields(a)
	bs := strings.Fields(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	set := make(map[string]bool, len(as))
	for _, t := range as {
		set[t] = true
	}
	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(bs))
	for _, t := range bs {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}
