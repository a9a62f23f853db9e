package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"call-stt-pipeline/internal/domain"
	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/domain/ports/repository"
)

var _ repository.CallRecordRepository = (*callRecordRepo)(nil)

type callRecordRepo struct {
	pool *pgxpool.Pool
}

func NewCallRecordRepo(pool *pgxpool.Pool) *callRecordRepo {
	return &callRecordRepo{pool: pool}
}

func (r *callRecordRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.CallRecord, error) {
	const q = `
SELECT id, call_id, recording_url, status, retry_count, last_retry_at,
       transcript_path, language, error_code, error_message
  FROM call_records WHERE id=$1;`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	var (
		rec            model.CallRecord
		statusStr      string
		lastRetryAt    *time.Time
		transcriptPath *string
		language       *string
		errorCode      *string
		errorMessage   *string
	)
	if err := row.Scan(
		&rec.ID, &rec.CallID, &rec.RecordingURL, &statusStr, &rec.RetryCount, &lastRetryAt,
		&transcriptPath, &language, &errorCode, &errorMessage,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rec.Status = model.CallRecordStatus(statusStr)
	rec.LastRetryAt = lastRetryAt
	rec.TranscriptPath = deref(transcriptPath)
	rec.Language = deref(language)
	rec.ErrorCode = deref(errorCode)
	rec.ErrorMessage = deref(errorMessage)
	return &rec, nil
}

func (r *callRecordRepo) MarkTranscribing(ctx context.Context, tx repository.Tx, id int64) error {
	const q = `
UPDATE call_records
   SET status=$2, retry_count=retry_count+1, last_retry_at=now()
 WHERE id=$1;`

	tag, err := execSQL(ctx, r.pool, tx, q, id, string(model.CallRecordStatusTranscribing))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *callRecordRepo) RecordSuccess(ctx context.Context, tx repository.Tx, id int64, transcriptPath, language string) error {
	const q = `
UPDATE call_records
   SET status=$2, transcript_path=$3, language=NULLIF($4,''),
       error_code=NULL, error_message=NULL, last_retry_at=now()
 WHERE id=$1;`

	tag, err := execSQL(ctx, r.pool, tx, q, id, string(model.CallRecordStatusCompleted), transcriptPath, language)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *callRecordRepo) RecordFailure(ctx context.Context, tx repository.Tx, id int64, errorCode, errorMessage string) error {
	const q = `
UPDATE call_records
   SET status=$2, error_code=$3, error_message=$4, last_retry_at=now()
 WHERE id=$1;`

	tag, err := execSQL(ctx, r.pool, tx, q, id, string(model.CallRecordStatusError), errorCode, errorMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *callRecordRepo) ResetForReplay(ctx context.Context, tx repository.Tx, id int64) error {
	const q = `
UPDATE call_records
   SET status=$2, error_code=NULL, error_message=NULL
 WHERE id=$1;`

	tag, err := execSQL(ctx, r.pool, tx, q, id, string(model.CallRecordStatusDownloaded))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
