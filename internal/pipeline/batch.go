package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/medrec/medrec/internal/domain/document"
	"github.com/medrec/medrec/internal/domain/record"
)

// Summary tallies one batch run. Errors maps document names to what went
// wrong, so one malformed document never aborts the batch.
type Summary struct {
	Processed int               `json:"processed"`
	Complete  int               `json:"complete"`
	Partial   int               `json:"partial"`
	Failed    int               `json:"failed"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Batch fans document paths out over a bounded worker pool, one sequential
// pipeline per document. The pool size is the backpressure control against
// the external OCR and NER services.
type Batch struct {
	orch    *Orchestrator
	workers int
	logger  zerolog.Logger
}

// NewBatch creates a batch runner with the given worker count.
func NewBatch(orch *Orchestrator, workers int, logger zerolog.Logger) *Batch {
	if workers <= 0 {
		workers = 4
	}
	return &Batch{orch: orch, workers: workers, logger: logger}
}

// Run processes every path and writes each resulting record to the sink.
// Cancelling ctx stops new documents from starting; in-flight documents
// finish their current stage and emit a degraded record.
func (b *Batch) Run(ctx context.Context, paths []string, sink Sink) (*Summary, error) {
	results := make(chan *record.MedicalRecord)

	summary := &Summary{Errors: make(map[string]string)}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for rec := range results {
			summary.Processed++
			switch rec.Status {
			case record.StatusComplete:
				summary.Complete++
			case record.StatusPartial:
				summary.Partial++
			case record.StatusFailed:
				summary.Failed++
				summary.Errors[rec.DocumentName] = rec.FailureReason
			}
			// Sink writes use the background context so a cancelled batch
			// still lands the records of documents that finished.
			if err := sink.Write(context.Background(), rec); err != nil {
				b.logger.Error().Err(err).Str("document", rec.DocumentName).Msg("sink write failed")
				summary.Errors[rec.DocumentName] = err.Error()
			}
		}
	}()

	g := &errgroup.Group{}
	g.SetLimit(b.workers)
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		path := path
		g.Go(func() error {
			name := filepath.Base(path)
			data, err := os.ReadFile(path)
			if err != nil {
				b.logger.Error().Err(err).Str("document", name).Msg("read failed")
				results <- record.New(document.New(name, nil)).Fail(fmt.Sprintf("read document: %v", err))
				return nil
			}
			results <- b.orch.Process(ctx, document.New(name, data))
			return nil
		})
	}

	g.Wait()
	close(results)
	<-done

	if len(summary.Errors) == 0 {
		summary.Errors = nil
	}
	return summary, ctx.Err()
}

// DocumentPaths lists the processable files directly under dir, sorted by
// name. Subdirectories and dotfiles are skipped.
func DocumentPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: list documents: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
