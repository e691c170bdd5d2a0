package terminology

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RepoJSON loads terminology data from JSON files in a directory:
// codes.json, terms.json, synonyms.json, abbreviations.json. Missing
// optional files (all but codes.json) yield empty slices.
type RepoJSON struct {
	dir string
}

// NewRepoJSON creates a JSON file repository rooted at dir.
func NewRepoJSON(dir string) *RepoJSON {
	return &RepoJSON{dir: dir}
}

func (r *RepoJSON) LoadCodes(_ context.Context) ([]Code, error) {
	var out []Code
	if err := r.readFile("codes.json", &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RepoJSON) LoadTerms(_ context.Context) ([]TermEntry, error) {
	var out []TermEntry
	if err := r.readFile("terms.json", &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RepoJSON) LoadSynonyms(_ context.Context) ([]Synonym, error) {
	var out []Synonym
	if err := r.readFile("synonyms.json", &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RepoJSON) LoadAbbreviations(_ context.Context) ([]Abbreviation, error) {
	var out []Abbreviation
	if err := r.readFile("abbreviations.json", &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RepoJSON) readFile(name string, dest interface{}, required bool) error {
	path := filepath.Join(r.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("terminology: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("terminology: parse %s: %w", name, err)
	}
	return nil
}
