package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medrec/medrec/internal/domain/record"
)

// PGSink persists records into the medical_record table, with the full
// record as jsonb alongside the columns worth querying on.
type PGSink struct {
	pool *pgxpool.Pool
}

// NewPGSink creates a Postgres-backed sink.
func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

func (s *PGSink) Write(ctx context.Context, rec *record.MedicalRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("pipeline: marshal record %s: %w", rec.ID, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO medical_record (id, document_id, document_name, format, status, failure_reason, payload, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			failure_reason = EXCLUDED.failure_reason,
			payload = EXCLUDED.payload,
			completed_at = EXCLUDED.completed_at`,
		rec.ID, rec.DocumentID, rec.DocumentName, string(rec.Format),
		string(rec.Status), rec.FailureReason, payload, rec.CreatedAt, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("pipeline: insert record %s: %w", rec.ID, err)
	}
	return nil
}
