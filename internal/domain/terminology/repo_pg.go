package terminology

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepoPG loads terminology reference tables from Postgres. The tables are
// read in full at startup; the pipeline never queries them per document.
type RepoPG struct {
	pool *pgxpool.Pool
}

// NewRepoPG creates a Postgres-backed terminology repository.
func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) LoadCodes(ctx context.Context) ([]Code, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT system, code, display
		 FROM reference_codes
		 ORDER BY system, code`)
	if err != nil {
		return nil, fmt.Errorf("terminology: load codes: %w", err)
	}
	defer rows.Close()

	var out []Code
	for rows.Next() {
		var c Code
		if err := rows.Scan(&c.System, &c.Code, &c.Display); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *RepoPG) LoadTerms(ctx context.Context) ([]TermEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT term, system, code
		 FROM reference_terms
		 ORDER BY term, system, code`)
	if err != nil {
		return nil, fmt.Errorf("terminology: load terms: %w", err)
	}
	defer rows.Close()

	var out []TermEntry
	for rows.Next() {
		var t TermEntry
		if err := rows.Scan(&t.Term, &t.System, &t.Code); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *RepoPG) LoadSynonyms(ctx context.Context) ([]Synonym, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT synonym, canonical
		 FROM reference_synonyms
		 ORDER BY synonym`)
	if err != nil {
		return nil, fmt.Errorf("terminology: load synonyms: %w", err)
	}
	defer rows.Close()

	var out []Synonym
	for rows.Next() {
		var s Synonym
		if err := rows.Scan(&s.Synonym, &s.Canonical); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *RepoPG) LoadAbbreviations(ctx context.Context) ([]Abbreviation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT abbreviation, expansion
		 FROM reference_abbreviations
		 ORDER BY abbreviation`)
	if err != nil {
		return nil, fmt.Errorf("terminology: load abbreviations: %w", err)
	}
	defer rows.Close()

	var out []Abbreviation
	for rows.Next() {
		var a Abbreviation
		if err := rows.Scan(&a.Abbreviation, &a.Expansion); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
