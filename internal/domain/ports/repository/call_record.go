package repository

import (
	"context"

	"call-stt-pipeline/internal/domain/model"
)

// CallRecordRepository is the narrow read/update contract the pipeline has
// over call records. Creation and deletion belong to the export layer.
type CallRecordRepository interface {
	FindByID(ctx context.Context, tx Tx, id int64) (*model.CallRecord, error)

	// MarkTranscribing moves the record to the transcribing status, bumps
	// retry_count and stamps last_retry_at. Returns domain.ErrNotFound when
	// the record does not exist (orphaned job).
	MarkTranscribing(ctx context.Context, tx Tx, id int64) error

	// RecordSuccess persists the transcript location and detected language,
	// marks the record completed and clears error fields.
	RecordSuccess(ctx context.Context, tx Tx, id int64, transcriptPath, language string) error

	// RecordFailure marks the record errored with diagnostic fields.
	RecordFailure(ctx context.Context, tx Tx, id int64, errorCode, errorMessage string) error

	// ResetForReplay returns the record to the downloaded (pre-transcription)
	// state and clears error fields so a replayed job starts clean.
	ResetForReplay(ctx context.Context, tx Tx, id int64) error
}
