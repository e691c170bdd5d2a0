package terminology

import "strings"

// CodeSystem identifies a standardized terminology code system.
type CodeSystem string

const (
	SystemICD10 CodeSystem = "ICD-10"
	SystemCPT   CodeSystem = "CPT"
	SystemHCPCS CodeSystem = "HCPCS"
)

// KnownSystem reports whether s names a supported code system.
func KnownSystem(s CodeSystem) bool {
	switch s {
	case SystemICD10, SystemCPT, SystemHCPCS:
		return true
	}
	return false
}

// Code is one entry of a terminology code system.
type Code struct {
	System  CodeSystem `db:"system" json:"system"`
	Code    string     `db:"code" json:"code"`
	Display string     `db:"display" json:"display"`
}

// TermEntry binds a curated canonical term to a code. The exact-match tier of
// standardization consults these in addition to code display strings.
type TermEntry struct {
	Term   string     `db:"term" json:"term"`
	System CodeSystem `db:"system" json:"system"`
	Code   string     `db:"code" json:"code"`
}

// Synonym maps a registered synonym to its canonical term.
type Synonym struct {
	Synonym   string `db:"synonym" json:"synonym"`
	Canonical string `db:"canonical" json:"canonical"`
}

// Abbreviation maps a clinical abbreviation to its expansion.
type Abbreviation struct {
	Abbreviation string `db:"abbreviation" json:"abbreviation"`
	Expansion    string `db:"expansion" json:"expansion"`
}

// Normalize canonicalizes surface text for table lookups: case-folded with
// runs of whitespace collapsed to single spaces.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
