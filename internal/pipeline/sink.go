package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/medrec/medrec/internal/domain/record"
)

// Sink accepts completed records for durable storage. The pipeline hands
// records over by value and never reads them back.
type Sink interface {
	Write(ctx context.Context, rec *record.MedicalRecord) error
}

// JSONLSink writes one JSON record per line. Safe for concurrent writers.
type JSONLSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLSink creates a sink over any writer.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

func (s *JSONLSink) Write(_ context.Context, rec *record.MedicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("pipeline: encode record %s: %w", rec.ID, err)
	}
	return nil
}
