package repository

import (
	"context"
	"time"

	"call-stt-pipeline/internal/domain/model"
)

// JobQueue is the logic layer over the shared queue store: a FIFO list of
// pending jobs, a dead-letter list and a set of processed dedup keys.
//
// Composite operations (check-then-enqueue, remove-then-requeue) are NOT
// atomic across the underlying primitives; duplicate suppression at pop
// time is the compensating mechanism. Store-level errors propagate to the
// caller unretried.
type JobQueue interface {
	// Enqueue appends the job to the pending list. A job whose dedup key is
	// already marked processed is an idempotent no-op. Duplicates among
	// unprocessed pending jobs are tolerated and resolved at fetch time.
	Enqueue(ctx context.Context, job model.TranscriptionJob) error

	// FetchJob pops the next job. A positive timeout performs one blocking
	// wait; once it elapses the call returns (nil, nil) rather than
	// re-blocking. Jobs whose dedup key turns out processed are discarded
	// and popping continues.
	FetchJob(ctx context.Context, timeout time.Duration) (*model.TranscriptionJob, error)

	IsProcessed(ctx context.Context, job model.TranscriptionJob) (bool, error)
	MarkProcessed(ctx context.Context, job model.TranscriptionJob) error

	// ClearProcessed removes the dedup key so the job may run again. Only
	// the admin replay path uses this.
	ClearProcessed(ctx context.Context, job model.TranscriptionJob) error

	PushToDLQ(ctx context.Context, entry model.DLQEntry) error

	// ListDLQEntries returns all current dead-letter entries, each with a
	// stable EntryID usable for targeted removal.
	ListDLQEntries(ctx context.Context) ([]model.DLQEntry, error)

	// RemoveDLQEntry removes exactly one entry matching entryID and returns
	// it, or domain.ErrNotFound when no entry matches.
	RemoveDLQEntry(ctx context.Context, entryID string) (*model.DLQEntry, error)
}
