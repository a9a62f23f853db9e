package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"call-stt-pipeline/internal/domain"
	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

const (
	QueueKey     = "stt:jobs"
	DLQKey       = "stt:jobs:dlq"
	ProcessedKey = "stt:jobs:processed"
)

var _ repository.JobQueue = (*JobQueue)(nil)

// JobQueue implements the queue store bindings on Redis: RPUSH/LPOP/BLPOP
// for the pending list, LRANGE/LREM for the DLQ and SADD/SISMEMBER/SREM for
// the processed set. Every mutation is a single atomic Redis primitive;
// composite sequences are best effort (see the port contract).
type JobQueue struct {
	client       RedisClient
	queueKey     string
	dlqKey       string
	processedKey string
	log          *zerolog.Logger
}

func NewJobQueue(client RedisClient, log *zerolog.Logger) *JobQueue {
	return &JobQueue{
		client:       client,
		queueKey:     QueueKey,
		dlqKey:       DLQKey,
		processedKey: ProcessedKey,
		log:          log,
	}
}

func (q *JobQueue) Enqueue(ctx context.Context, job model.TranscriptionJob) error {
	processed, err := q.IsProcessed(ctx, job)
	if err != nil {
		return err
	}
	if processed {
		q.log.Info().
			Str("call_id", job.CallID).
			Str("engine", job.Engine).
			Msg("skipping enqueue for already processed transcription job")
		return nil
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job payload: %w", err)
	}
	return q.client.RPush(ctx, q.queueKey, string(raw))
}

// FetchJob performs at most one blocking wait (when timeout > 0) and then
// drains non-blocking pops until it finds a job that is not yet processed.
// Once the blocking wait elapses the call returns empty instead of
// re-blocking; callers poll again on their own schedule.
func (q *JobQueue) FetchJob(ctx context.Context, timeout time.Duration) (*model.TranscriptionJob, error) {
	block := timeout > 0
	for {
		var (
			raw string
			ok  bool
			err error
		)
		if block {
			raw, ok, err = q.client.BLPop(ctx, timeout, q.queueKey)
			block = false
		} else {
			raw, ok, err = q.client.LPop(ctx, q.queueKey)
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}

		var job model.TranscriptionJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			return nil, fmt.Errorf("decode job payload: %w", err)
		}

		processed, err := q.IsProcessed(ctx, job)
		if err != nil {
			return nil, err
		}
		if processed {
			q.log.Warn().
				Str("call_id", job.CallID).
				Str("engine", job.Engine).
				Msg("skipping duplicate transcription job")
			continue
		}
		return &job, nil
	}
}

func (q *JobQueue) IsProcessed(ctx context.Context, job model.TranscriptionJob) (bool, error) {
	return q.client.SIsMember(ctx, q.processedKey, job.DedupKey())
}

func (q *JobQueue) MarkProcessed(ctx context.Context, job model.TranscriptionJob) error {
	return q.client.SAdd(ctx, q.processedKey, job.DedupKey())
}

func (q *JobQueue) ClearProcessed(ctx context.Context, job model.TranscriptionJob) error {
	return q.client.SRem(ctx, q.processedKey, job.DedupKey())
}

func (q *JobQueue) PushToDLQ(ctx context.Context, entry model.DLQEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode dlq entry: %w", err)
	}
	return q.client.RPush(ctx, q.dlqKey, string(raw))
}

func (q *JobQueue) ListDLQEntries(ctx context.Context) ([]model.DLQEntry, error) {
	raws, err := q.client.LRange(ctx, q.dlqKey, 0, -1)
	if err != nil {
		return nil, err
	}

	entries := make([]model.DLQEntry, 0, len(raws))
	for _, raw := range raws {
		var entry model.DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode dlq entry: %w", err)
		}
		entry.EntryID = dlqEntryID(raw)
		entries = append(entries, entry)
	}
	return entries, nil
}

// RemoveDLQEntry locates the entry whose derived id matches and removes a
// single occurrence via LREM. LREM reporting zero removals means another
// replay won the race; that surfaces as not found so an entry can never be
// requeued twice with the same id.
func (q *JobQueue) RemoveDLQEntry(ctx context.Context, entryID string) (*model.DLQEntry, error) {
	raws, err := q.client.LRange(ctx, q.dlqKey, 0, -1)
	if err != nil {
		return nil, err
	}

	for _, raw := range raws {
		if dlqEntryID(raw) != entryID {
			continue
		}
		removed, err := q.client.LRem(ctx, q.dlqKey, 1, raw)
		if err != nil {
			return nil, err
		}
		if removed == 0 {
			return nil, domain.ErrNotFound
		}
		var entry model.DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode dlq entry: %w", err)
		}
		entry.EntryID = entryID
		return &entry, nil
	}
	return nil, domain.ErrNotFound
}

// dlqEntryID derives a stable identifier from the serialized payload so the
// wire form stays the plain {job, reason, failed_at, status_code} object.
func dlqEntryID(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
