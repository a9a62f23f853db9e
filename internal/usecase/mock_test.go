//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"call-stt-pipeline/internal/domain"
	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/domain/ports/repository"
	redisinfra "call-stt-pipeline/internal/infra/redis"

	"github.com/jackc/pgx/v4"
)

// ---- Mock JobQueue ----

type MockQueue struct {
	mu sync.Mutex

	RemoveDLQEntryFunc func(ctx context.Context, entryID string) (*model.DLQEntry, error)
	EnqueueFunc        func(ctx context.Context, job model.TranscriptionJob) error
	ClearProcessedFunc func(ctx context.Context, job model.TranscriptionJob) error
	ListDLQFunc        func(ctx context.Context) ([]model.DLQEntry, error)

	Enqueued []model.TranscriptionJob
	Cleared  []string
	Pushed   []model.DLQEntry
}

var _ repository.JobQueue = (*MockQueue)(nil)

func (m *MockQueue) Enqueue(ctx context.Context, job model.TranscriptionJob) error {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Enqueued = append(m.Enqueued, job)
	return nil
}

func (m *MockQueue) FetchJob(context.Context, time.Duration) (*model.TranscriptionJob, error) {
	return nil, nil
}

func (m *MockQueue) IsProcessed(context.Context, model.TranscriptionJob) (bool, error) {
	return false, nil
}

func (m *MockQueue) MarkProcessed(context.Context, model.TranscriptionJob) error { return nil }

func (m *MockQueue) ClearProcessed(ctx context.Context, job model.TranscriptionJob) error {
	if m.ClearProcessedFunc != nil {
		return m.ClearProcessedFunc(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cleared = append(m.Cleared, job.DedupKey())
	return nil
}

func (m *MockQueue) PushToDLQ(_ context.Context, entry model.DLQEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pushed = append(m.Pushed, entry)
	return nil
}

func (m *MockQueue) ListDLQEntries(ctx context.Context) ([]model.DLQEntry, error) {
	if m.ListDLQFunc != nil {
		return m.ListDLQFunc(ctx)
	}
	return nil, nil
}

func (m *MockQueue) RemoveDLQEntry(ctx context.Context, entryID string) (*model.DLQEntry, error) {
	if m.RemoveDLQEntryFunc != nil {
		return m.RemoveDLQEntryFunc(ctx, entryID)
	}
	return nil, domain.ErrNotFound
}

// ---- Mock CallRecordRepository ----

type MockRecords struct {
	mu sync.Mutex

	ResetForReplayFunc func(ctx context.Context, tx repository.Tx, id int64) error

	Resets []int64
}

var _ repository.CallRecordRepository = (*MockRecords)(nil)

func (m *MockRecords) FindByID(context.Context, repository.Tx, int64) (*model.CallRecord, error) {
	return nil, domain.ErrNotFound
}

func (m *MockRecords) MarkTranscribing(context.Context, repository.Tx, int64) error { return nil }

func (m *MockRecords) RecordSuccess(context.Context, repository.Tx, int64, string, string) error {
	return nil
}

func (m *MockRecords) RecordFailure(context.Context, repository.Tx, int64, string, string) error {
	return nil
}

func (m *MockRecords) ResetForReplay(ctx context.Context, tx repository.Tx, id int64) error {
	if m.ResetForReplayFunc != nil {
		return m.ResetForReplayFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Resets = append(m.Resets, id)
	return nil
}

// ---- Mock AuditLogRepository ----

type MockAudit struct {
	mu      sync.Mutex
	Entries []model.AuditLogEntry
}

var _ repository.AuditLogRepository = (*MockAudit)(nil)

func (m *MockAudit) Append(_ context.Context, _ repository.Tx, entry *model.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, *entry)
	return nil
}

// ---- Mock TransactionManager ----

// MockTxManager runs the callback directly with a nil handle.
type MockTxManager struct{}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// ---- Mock Locker ----

type MockLocker struct {
	mu sync.Mutex

	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)

	Locked   []string
	Unlocked []string
}

var _ redisinfra.Locker = (*MockLocker)(nil)

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.TryLockFunc != nil {
		return m.TryLockFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Locked = append(m.Locked, key)
	return "token-" + key, nil
}

func (m *MockLocker) Unlock(_ context.Context, key, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unlocked = append(m.Unlocked, key)
	return nil
}
