// Package pipeline drives one document through extraction, entity
// recognition, standardization, and validation, and fans batches of
// documents out over a bounded worker pool.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/medrec/medrec/internal/domain/document"
	"github.com/medrec/medrec/internal/domain/extract"
	"github.com/medrec/medrec/internal/domain/nlp"
	"github.com/medrec/medrec/internal/domain/record"
	"github.com/medrec/medrec/internal/domain/standardize"
	"github.com/medrec/medrec/internal/domain/terminology"
	"github.com/medrec/medrec/internal/domain/validate"
)

// Options tune the orchestrator's stage-local retry policy.
type Options struct {
	// StageRetries is the total attempts for stages with external calls.
	StageRetries int
	// StageTimeout bounds each individual external call.
	StageTimeout time.Duration
	// RetryInterval seeds the exponential backoff between attempts.
	RetryInterval time.Duration
}

func (o *Options) defaults() {
	if o.StageRetries <= 0 {
		o.StageRetries = 3
	}
	if o.StageTimeout <= 0 {
		o.StageTimeout = 30 * time.Second
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 500 * time.Millisecond
	}
}

// Orchestrator runs the per-document pipeline in strict stage order. Each
// stage's output is the next stage's input; a run owns all its intermediate
// state, so orchestrators are safe for concurrent use across documents.
type Orchestrator struct {
	registry  *extract.Registry
	entities  *nlp.Extractor
	engine    *standardize.Engine
	validator *validate.Validator
	logger    zerolog.Logger
	opts      Options
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(
	registry *extract.Registry,
	entities *nlp.Extractor,
	engine *standardize.Engine,
	validator *validate.Validator,
	logger zerolog.Logger,
	opts Options,
) *Orchestrator {
	opts.defaults()
	return &Orchestrator{
		registry:  registry,
		entities:  entities,
		engine:    engine,
		validator: validator,
		logger:    logger,
		opts:      opts,
	}
}

// Process runs one document through every stage and always returns a
// record: recoverable stage failures degrade the record, fatal ones
// (unrecognized format, extraction yielding nothing) fail it immediately.
// Stage errors never propagate to the caller.
func (o *Orchestrator) Process(ctx context.Context, doc *document.Document) *record.MedicalRecord {
	rec := record.New(doc)
	log := o.logger.With().Str("document", doc.ID.String()).Str("name", doc.Name).Logger()
	degraded := false

	// Stage 1: classification.
	format, err := document.Classify(doc)
	if err != nil {
		log.Warn().Err(err).Msg("classification failed")
		return rec.Fail(err.Error())
	}
	rec.Format = format
	log.Debug().Str("format", string(format)).Msg("classified")

	// Stage 2: extraction.
	extraction, err := o.runExtraction(ctx, format, doc)
	switch {
	case err != nil && recoverable(err):
		log.Warn().Err(err).Msg("extraction degraded")
		extraction = &extract.RawExtraction{DocumentID: doc.ID.String(), Format: format}
		degraded = true
		rec.Issues = append(rec.Issues, validate.Issue{
			Severity:    validate.SeverityInfo,
			Check:       validate.CheckDegradedStage,
			Description: "text extraction unavailable; document content not processed",
		})
	case err != nil:
		log.Warn().Err(err).Msg("extraction failed")
		return rec.Fail(err.Error())
	case extraction.Empty():
		log.Warn().Msg("extraction produced nothing")
		return rec.Fail(fmt.Sprintf("extract: %s: no fields or segments", format))
	}
	rec.Extraction = extraction

	if cancelled(ctx, rec, &degraded) {
		return rec.Finalize(degraded)
	}

	// Stage 3: entity recognition.
	entities, err := o.runRecognition(ctx, extraction)
	if err != nil {
		log.Warn().Err(err).Msg("entity recognition degraded")
		entities = nil
		degraded = true
		rec.Issues = append(rec.Issues, validate.Issue{
			Severity:    validate.SeverityInfo,
			Check:       validate.CheckDegradedStage,
			Description: "entity recognition unavailable; no entities extracted",
		})
	}

	if cancelled(ctx, rec, &degraded) {
		return rec.Finalize(degraded)
	}

	// Stage 4: standardization. Pure and local, never retried.
	for _, ent := range entities {
		rec.Entities = append(rec.Entities, o.engine.StandardizeEntity(ent))
	}
	o.validateEmbedded(rec, extraction.Fields)

	if cancelled(ctx, rec, &degraded) {
		return rec.Finalize(degraded)
	}

	// Stage 5: consistency validation.
	rec.Issues = append(rec.Issues, o.validator.Validate(validate.Input{
		Format:     format,
		Fields:     extraction.Fields,
		FieldCodes: rec.FieldCodes,
		Entities:   rec.Entities,
	})...)

	rec.Finalize(degraded)
	log.Info().
		Str("status", string(rec.Status)).
		Int("entities", len(rec.Entities)).
		Int("issues", len(rec.Issues)).
		Msg("document processed")
	return rec
}

// validateEmbedded checks codes the source document carried. Valid ones
// become selected field codes; unknown ones stay on the field and are
// reported, never dropped.
func (o *Orchestrator) validateEmbedded(rec *record.MedicalRecord, fields []extract.StructuredField) {
	for _, f := range fields {
		if f.Code == "" || !terminology.KnownSystem(f.System) {
			continue
		}
		code, ok := o.engine.ValidateEmbedded(f.ID, f.System, f.Code)
		if !ok {
			rec.Issues = append(rec.Issues, validate.Issue{
				Severity:    validate.SeverityWarning,
				Check:       validate.CheckInvalidCode,
				RefA:        f.ID,
				Description: fmt.Sprintf("field %s carries unknown %s code %q", f.Location, f.System, f.Code),
			})
			continue
		}
		rec.FieldCodes = append(rec.FieldCodes, code)
	}
}

func (o *Orchestrator) runExtraction(ctx context.Context, format document.FormatTag, doc *document.Document) (*extract.RawExtraction, error) {
	extractor, err := o.registry.For(format)
	if err != nil {
		return nil, err
	}

	var out *extract.RawExtraction
	err = o.retryStage(ctx, func(callCtx context.Context) error {
		var stageErr error
		out, stageErr = extractor.Extract(callCtx, doc)
		return stageErr
	})
	return out, err
}

func (o *Orchestrator) runRecognition(ctx context.Context, extraction *extract.RawExtraction) ([]nlp.Entity, error) {
	var out []nlp.Entity
	err := o.retryStage(ctx, func(callCtx context.Context) error {
		var stageErr error
		out, stageErr = o.entities.Extract(callCtx, extraction)
		return stageErr
	})
	return out, err
}

// retryStage runs fn with a per-call timeout under bounded exponential
// backoff. Only capability outages are retried; anything else is a property
// of the document and fails fast.
func (o *Orchestrator) retryStage(ctx context.Context, fn func(ctx context.Context) error) error {
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
		defer cancel()

		err := fn(callCtx)
		if err != nil && !recoverable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.opts.RetryInterval
	return backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(o.opts.StageRetries-1)), ctx))
}

// recoverable reports whether a stage failure should degrade the record
// instead of failing it.
func recoverable(err error) bool {
	return errors.Is(err, extract.ErrUnavailable) ||
		errors.Is(err, nlp.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

// cancelled notes batch cancellation between stages. The current record is
// finished as-is rather than torn down mid-stage.
func cancelled(ctx context.Context, rec *record.MedicalRecord, degraded *bool) bool {
	if ctx.Err() == nil {
		return false
	}
	*degraded = true
	rec.Issues = append(rec.Issues, validate.Issue{
		Severity:    validate.SeverityInfo,
		Check:       validate.CheckDegradedStage,
		Description: "processing cancelled before remaining stages",
	})
	return true
}
