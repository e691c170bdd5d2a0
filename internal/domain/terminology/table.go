package terminology

import "sort"

// Table is the read-only terminology lookup state shared by all pipeline
// instances. It is fully constructed before the pipeline starts and never
// mutated afterwards, so concurrent lookups need no locking. Multiple tables
// (e.g. different code-system versions) can coexist; there is no process-wide
// singleton.
type Table struct {
	codes         map[CodeSystem]map[string]Code
	terms         map[string][]Code
	synonyms      map[string]string
	abbreviations map[string]string
}

// NewTable builds an immutable Table. The canonical-term index is populated
// from every code's display string plus the curated term entries; a term
// entry referencing an unknown code is ignored.
func NewTable(codes []Code, terms []TermEntry, synonyms []Synonym, abbreviations []Abbreviation) *Table {
	t := &Table{
		codes:         make(map[CodeSystem]map[string]Code),
		terms:         make(map[string][]Code),
		synonyms:      make(map[string]string),
		abbreviations: make(map[string]string),
	}

	for _, c := range codes {
		if t.codes[c.System] == nil {
			t.codes[c.System] = make(map[string]Code)
		}
		t.codes[c.System][c.Code] = c
		t.addTerm(Normalize(c.Display), c)
	}

	for _, te := range terms {
		if c, ok := t.Lookup(te.System, te.Code); ok {
			t.addTerm(Normalize(te.Term), c)
		}
	}

	for _, s := range synonyms {
		t.synonyms[Normalize(s.Synonym)] = Normalize(s.Canonical)
	}
	for _, a := range abbreviations {
		t.abbreviations[Normalize(a.Abbreviation)] = Normalize(a.Expansion)
	}

	// Deterministic candidate order regardless of input order.
	for term := range t.terms {
		cs := t.terms[term]
		sort.Slice(cs, func(i, j int) bool {
			if cs[i].System != cs[j].System {
				return cs[i].System < cs[j].System
			}
			return cs[i].Code < cs[j].Code
		})
	}

	return t
}

func (t *Table) addTerm(term string, c Code) {
	if term == "" {
		return
	}
	for _, existing := range t.terms[term] {
		if existing.System == c.System && existing.Code == c.Code {
			return
		}
	}
	t.terms[term] = append(t.terms[term], c)
}

// Lookup returns the code entry for (system, code), if present.
func (t *Table) Lookup(system CodeSystem, code string) (Code, bool) {
	c, ok := t.codes[system][code]
	return c, ok
}

// Term returns all codes registered under a normalized canonical term.
func (t *Table) Term(normalized string) []Code {
	return t.terms[normalized]
}

// Synonym resolves a normalized synonym to its canonical term.
func (t *Table) Synonym(normalized string) (string, bool) {
	c, ok := t.synonyms[normalized]
	return c, ok
}

// Abbreviation resolves a normalized abbreviation to its expansion.
func (t *Table) Abbreviation(normalized string) (string, bool) {
	e, ok := t.abbreviations[normalized]
	return e, ok
}

// Codes returns every code of a system in deterministic order.
func (t *Table) Codes(system CodeSystem) []Code {
	out := make([]Code, 0, len(t.codes[system]))
	for _, c := range t.codes[system] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Terms returns the canonical-term index in deterministic order, one entry
// per (term, code) pair.
func (t *Table) Terms() []TermEntry {
	keys := make([]string, 0, len(t.terms))
	for term := range t.terms {
		keys = append(keys, term)
	}
	sort.Strings(keys)

	var out []TermEntry
	for _, term := range keys {
		for _, c := range t.terms[term] {
			out = append(out, TermEntry{Term: term, System: c.System, Code: c.Code})
		}
	}
	return out
}

// Empty reports whether the table holds no codes at all. Starting the
// pipeline with an empty table is a configuration error.
func (t *Table) Empty() bool {
	for _, m := range t.codes {
		if len(m) > 0 {
			return false
		}
	}
	return true
}
