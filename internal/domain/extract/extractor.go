package extract

import (
	"context"
	"fmt"

	"github.com/medrec/medrec/internal/domain/document"
)

// Extractor converts one document format into a RawExtraction. One
// implementation exists per FormatTag; the set is closed.
type Extractor interface {
	Extract(ctx context.Context, doc *document.Document) (*RawExtraction, error)
}

// Registry dispatches documents to the extractor for their classified
// format. It is populated once at construction and read-only afterwards.
type Registry struct {
	extractors map[document.FormatTag]Extractor
}

// NewRegistry creates a registry over the given extractors.
func NewRegistry(extractors map[document.FormatTag]Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// For returns the extractor registered for a format.
func (r *Registry) For(format document.FormatTag) (Extractor, error) {
	ex, ok := r.extractors[format]
	if !ok {
		return nil, fmt.Errorf("extract: no extractor registered for format %s", format)
	}
	return ex, nil
}
