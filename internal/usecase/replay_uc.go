package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"call-stt-pipeline/internal/domain"
	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/domain/ports/repository"
	"call-stt-pipeline/internal/infra/metrics"
	redisinfra "call-stt-pipeline/internal/infra/redis"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

const replayLockTTL = 30 * time.Second

// ReplayUseCase is the operator-facing surface over the DLQ: inspection and
// the replay action that resurrects a dead-lettered job.
type ReplayUseCase interface {
	ListDLQ(ctx context.Context) ([]model.DLQEntry, error)
	// Requeue removes the DLQ entry, resets the call record to a
	// pre-transcription state, clears the idempotency marker and pushes the
	// job back onto the pending queue. Returns domain.ErrNotFound when no
	// entry matches entryID.
	Requeue(ctx context.Context, entryID, actor string) (*model.DLQEntry, error)
}

var _ ReplayUseCase = (*replayUC)(nil)

type replayUC struct {
	queue   repository.JobQueue
	records repository.CallRecordRepository
	audit   repository.AuditLogRepository
	tm      repository.TransactionManager
	locker  redisinfra.Locker
	log     *zerolog.Logger
}

func NewReplayUseCase(
	queue repository.JobQueue,
	records repository.CallRecordRepository,
	audit repository.AuditLogRepository,
	tm repository.TransactionManager,
	locker redisinfra.Locker,
	log *zerolog.Logger,
) *replayUC {
	return &replayUC{
		queue:   queue,
		records: records,
		audit:   audit,
		tm:      tm,
		locker:  locker,
		log:     log,
	}
}

func (uc *replayUC) ListDLQ(ctx context.Context) ([]model.DLQEntry, error) {
	return uc.queue.ListDLQEntries(ctx)
}

// Requeue is a composite of atomic store primitives, not a transaction:
// remove entry -> reset record (+audit, in one DB tx) -> clear dedup key ->
// re-enqueue. The per-entry lock keeps two operators from replaying the
// same entry at once; if the record reset fails the entry is pushed back to
// the DLQ so nothing is lost half-way.
func (uc *replayUC) Requeue(ctx context.Context, entryID, actor string) (*model.DLQEntry, error) {
	token, err := uc.locker.TryLock(ctx, "stt:replay:"+entryID, replayLockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := uc.locker.Unlock(ctx, "stt:replay:"+entryID, token); err != nil {
			uc.log.Warn().Err(err).Str("entry_id", entryID).Msg("failed to release replay lock")
		}
	}()

	entry, err := uc.queue.RemoveDLQEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncDLQRequeue("not_found")
		}
		return nil, err
	}

	log := uc.log.With().
		Str("entry_id", entryID).
		Str("call_id", entry.Job.CallID).
		Int64("record_id", entry.Job.RecordID).
		Logger()

	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.records.ResetForReplay(ctx, tx, entry.Job.RecordID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// The record vanished while the job sat in the DLQ. Requeue
				// anyway; the worker resolves it through the orphan path.
				log.Warn().Msg("call record missing during dlq replay")
				return nil
			}
			return err
		}
		return uc.audit.Append(ctx, tx, auditEntryForRequeue(actor, entryID, entry))
	})
	if err != nil {
		uc.restoreEntry(ctx, &log, entry)
		return nil, fmt.Errorf("reset call record for replay: %w", err)
	}

	// The entry is already removed; any failure from here on must put it
	// back so the job stays durably referenced somewhere.
	if err := uc.queue.ClearProcessed(ctx, entry.Job); err != nil {
		uc.restoreEntry(ctx, &log, entry)
		return nil, err
	}
	if err := uc.queue.Enqueue(ctx, entry.Job); err != nil {
		uc.restoreEntry(ctx, &log, entry)
		return nil, err
	}

	metrics.IncDLQRequeue("requeued")
	log.Info().Str("actor", actor).Msg("dlq entry requeued")
	return entry, nil
}

// restoreEntry pushes a removed DLQ entry back after a failed replay step.
func (uc *replayUC) restoreEntry(ctx context.Context, log *zerolog.Logger, entry *model.DLQEntry) {
	if err := uc.queue.PushToDLQ(ctx, *entry); err != nil {
		log.Error().Err(err).Msg("failed to restore dlq entry after replay failure")
	}
}

func auditEntryForRequeue(actor, entryID string, entry *model.DLQEntry) *model.AuditLogEntry {
	payload, _ := json.Marshal(map[string]any{
		"entry_id":  entryID,
		"record_id": entry.Job.RecordID,
		"call_id":   entry.Job.CallID,
		"engine":    entry.Job.Engine,
		"reason":    entry.Reason,
	})
	return &model.AuditLogEntry{
		Actor:   actor,
		Action:  model.AuditActionDLQRequeue,
		Payload: string(payload),
	}
}
