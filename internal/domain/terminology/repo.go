package terminology

import "context"

// Repository supplies the raw terminology data a Table is built from.
// Implementations: RepoJSON (files on disk) and RepoPG (Postgres reference
// tables). Tables are loaded once at process start; reload requires restart.
type Repository interface {
	LoadCodes(ctx context.Context) ([]Code, error)
	LoadTerms(ctx context.Context) ([]TermEntry, error)
	LoadSynonyms(ctx context.Context) ([]Synonym, error)
	LoadAbbreviations(ctx context.Context) ([]Abbreviation, error)
}

// Load builds an immutable Table from a repository. Failure here is the one
// process-fatal condition of the pipeline.
func Load(ctx context.Context, repo Repository) (*Table, error) {
	codes, err := repo.LoadCodes(ctx)
	if err != nil {
		return nil, err
	}
	terms, err := repo.LoadTerms(ctx)
	if err != nil {
		return nil, err
	}
	synonyms, err := repo.LoadSynonyms(ctx)
	if err != nil {
		return nil, err
	}
	abbreviations, err := repo.LoadAbbreviations(ctx)
	if err != nil {
		return nil, err
	}
	return NewTable(codes, terms, synonyms, abbreviations), nil
}
