package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"call-stt-pipeline/internal/domain"
	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/domain/ports/adapter"
	"call-stt-pipeline/internal/domain/ports/repository"
	"call-stt-pipeline/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// STTWorker drives single transcription attempts: fetch a job, transition
// the call record, invoke the provider, classify the outcome and either
// record success, retry with exponential backoff or dead-letter the job.
//
// One STTWorker runs one sequential loop; throughput scales by running
// several loops (or processes) against the same queue store.
type STTWorker struct {
	queue       repository.JobQueue
	records     repository.CallRecordRepository
	provider    adapter.SpeechToTextProvider
	log         *zerolog.Logger
	maxRetries  int
	baseBackoff time.Duration
	idleSleep   time.Duration
	sleep       func(time.Duration)
}

func NewSTTWorker(
	queue repository.JobQueue,
	records repository.CallRecordRepository,
	provider adapter.SpeechToTextProvider,
	maxRetries int,
	baseBackoff time.Duration,
	idleSleep time.Duration,
	log *zerolog.Logger,
) *STTWorker {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if baseBackoff < 100*time.Millisecond {
		baseBackoff = 100 * time.Millisecond
	}
	if idleSleep < 100*time.Millisecond {
		idleSleep = 100 * time.Millisecond
	}
	return &STTWorker{
		queue:       queue,
		records:     records,
		provider:    provider,
		log:         log,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		idleSleep:   idleSleep,
		sleep:       time.Sleep,
	}
}

// RunForever keeps polling the queue until the context is cancelled. Store
// failures are logged and absorbed by the idle sleep; job-level failures
// are handled inside ProcessNext.
func (w *STTWorker) RunForever(ctx context.Context, timeout time.Duration) {
	w.log.Info().Msg("starting stt worker loop")
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stt worker loop stopping")
			return
		default:
		}

		handled, err := w.ProcessNext(ctx, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("stt worker iteration failed")
			w.sleep(w.idleSleep)
			continue
		}
		if !handled {
			w.sleep(w.idleSleep)
		}
	}
}

// ProcessNext handles a single job. It reports (false, nil) when the queue
// had no work within the timeout. Store-level errors propagate; everything
// the provider does wrong is classified and resolved here.
func (w *STTWorker) ProcessNext(ctx context.Context, timeout time.Duration) (bool, error) {
	job, err := w.queue.FetchJob(ctx, timeout)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	log := w.log.With().
		Str("call_id", job.CallID).
		Str("engine", job.Engine).
		Int64("record_id", job.RecordID).
		Logger()
	log.Info().Msg("processing stt job")

	start := time.Now()
	defer func() { metrics.ObserveJobDuration(time.Since(start)) }()

	err = w.records.MarkTranscribing(ctx, nil, job.RecordID)
	if errors.Is(err, domain.ErrNotFound) {
		// Orphaned job: the record was deleted after enqueue. Mark the key
		// processed so stray duplicates stop circulating.
		metrics.IncJob("missing_record")
		log.Warn().Msg("call record for stt job not found")
		if err := w.queue.MarkProcessed(ctx, *job); err != nil {
			return true, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	result := w.transcribeWithRetry(ctx, &log, *job)
	if result == nil {
		return true, nil
	}

	if err := w.records.RecordSuccess(ctx, nil, job.RecordID, result.TranscriptPath, result.Language); err != nil {
		return true, err
	}
	if err := w.queue.MarkProcessed(ctx, *job); err != nil {
		return true, err
	}
	metrics.IncJob("success")
	log.Info().Msg("stt job completed")
	return true, nil
}

// transcribeWithRetry executes the provider call with exponential backoff
// for retryable failures. It returns nil when the job was resolved as a
// failure (already recorded and dead-lettered).
func (w *STTWorker) transcribeWithRetry(ctx context.Context, log *zerolog.Logger, job model.TranscriptionJob) *adapter.TranscriptionResult {
	attempt := 0
	for {
		result, err := w.provider.Transcribe(ctx, job)
		if err == nil {
			return result
		}

		attempt++
		class, statusCode := adapter.ClassifyFailure(err)

		if class == adapter.FailureTerminal {
			w.deadLetter(ctx, log, job, deadLetterParams{
				errorCode:    fmt.Sprintf("http_%d", statusCode),
				errorMessage: failureMessage(err),
				reason:       fmt.Sprintf("%d: %s", statusCode, failureMessage(err)),
				statusCode:   &statusCode,
			})
			log.Error().Int("status_code", statusCode).Msg("stt job moved to dlq after client error")
			return nil
		}

		if attempt >= w.maxRetries {
			// err.Error() keeps the "<code>: message" form when a status
			// code is known, matching the DLQ entry diagnostics.
			params := deadLetterParams{
				errorCode:    "max_retries",
				errorMessage: err.Error(),
				reason:       "max_retries",
			}
			if statusCode != 0 {
				params.statusCode = &statusCode
			}
			w.deadLetter(ctx, log, job, params)
			log.Error().Int("attempt", attempt).Msg("stt job moved to dlq after exhausting retries")
			return nil
		}

		delay := w.baseBackoff * (1 << (attempt - 1))
		metrics.IncJob("retry")
		log.Warn().
			Int("attempt", attempt).
			Int("status_code", statusCode).
			Dur("delay", delay).
			Msg("retrying stt job after transient failure")
		w.sleep(delay)
	}
}

type deadLetterParams struct {
	errorCode    string
	errorMessage string
	reason       string
	statusCode   *int
}

// deadLetter persists the failure on the call record, appends a DLQ entry
// and marks the dedup key processed so in-flight duplicates are dropped.
// Only an explicit admin replay reverses any of this.
func (w *STTWorker) deadLetter(ctx context.Context, log *zerolog.Logger, job model.TranscriptionJob, p deadLetterParams) {
	if err := w.records.RecordFailure(ctx, nil, job.RecordID, p.errorCode, p.errorMessage); err != nil {
		log.Error().Err(err).Msg("failed to persist stt failure on call record")
	}
	entry := model.DLQEntry{
		Job:        job,
		Reason:     p.reason,
		FailedAt:   time.Now().UTC(),
		StatusCode: p.statusCode,
	}
	if err := w.queue.PushToDLQ(ctx, entry); err != nil {
		log.Error().Err(err).Msg("failed to push stt job to dlq")
	}
	if err := w.queue.MarkProcessed(ctx, job); err != nil {
		log.Error().Err(err).Msg("failed to mark dead-lettered stt job processed")
	}
	metrics.IncJob("dlq")
}

func failureMessage(err error) string {
	var terr *adapter.TranscriptionError
	if errors.As(err, &terr) {
		return terr.Message
	}
	return err.Error()
}
