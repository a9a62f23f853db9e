//go:build !integration

package redis

import (
	"context"
	"testing"
	"time"

	"call-stt-pipeline/internal/domain"
	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/domain/ports/repository"
	"call-stt-pipeline/internal/infra/stt"
	"call-stt-pipeline/internal/infra/worker"

	"github.com/rs/zerolog"
)

// memRecords is a minimal in-memory call-record store for the end-to-end
// scenario; only the transitions the worker drives are modeled.
type memRecords struct {
	records map[int64]*model.CallRecord
}

var _ repository.CallRecordRepository = (*memRecords)(nil)

func (m *memRecords) FindByID(_ context.Context, _ repository.Tx, id int64) (*model.CallRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memRecords) MarkTranscribing(_ context.Context, _ repository.Tx, id int64) error {
	rec, ok := m.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	rec.Status = model.CallRecordStatusTranscribing
	rec.RetryCount++
	rec.LastRetryAt = &now
	return nil
}

func (m *memRecords) RecordSuccess(_ context.Context, _ repository.Tx, id int64, transcriptPath, language string) error {
	rec, ok := m.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = model.CallRecordStatusCompleted
	rec.TranscriptPath = transcriptPath
	rec.Language = language
	rec.ErrorCode = ""
	rec.ErrorMessage = ""
	return nil
}

func (m *memRecords) RecordFailure(_ context.Context, _ repository.Tx, id int64, errorCode, errorMessage string) error {
	rec, ok := m.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = model.CallRecordStatusError
	rec.ErrorCode = errorCode
	rec.ErrorMessage = errorMessage
	return nil
}

func (m *memRecords) ResetForReplay(_ context.Context, _ repository.Tx, id int64) error {
	rec, ok := m.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = model.CallRecordStatusDownloaded
	rec.ErrorCode = ""
	rec.ErrorMessage = ""
	return nil
}

// Full happy path through the real queue store bindings and the stub
// provider: enqueue, process, verify record state, verify the repeat
// enqueue is a no-op.
func TestPipeline_EndToEndStubScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := zerolog.Nop()
	store := newFakeRedis()
	queue := NewJobQueue(store, &log)

	records := &memRecords{records: map[int64]*model.CallRecord{
		1: {ID: 1, CallID: "C1", RecordingURL: "http://x/1.wav", Status: model.CallRecordStatusDownloaded},
	}}
	provider := stt.NewStubTranscriber(t.TempDir())
	w := worker.NewSTTWorker(queue, records, provider, 5, 2*time.Second, time.Second, &log)

	job := model.TranscriptionJob{RecordID: 1, CallID: "C1", RecordingURL: "http://x/1.wav", Engine: "stub"}
	if err := queue.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	handled, err := w.ProcessNext(ctx, time.Second)
	if err != nil {
		t.Fatalf("ProcessNext: %v", err)
	}
	if !handled {
		t.Fatalf("expected the job to be processed")
	}

	rec := records.records[1]
	if rec.Status != model.CallRecordStatusCompleted {
		t.Fatalf("expected record completed, got %s", rec.Status)
	}
	if rec.TranscriptPath == "" {
		t.Fatalf("expected transcript path on the record")
	}
	if rec.RetryCount != 1 {
		t.Fatalf("expected retry_count 1, got %d", rec.RetryCount)
	}

	processed, err := queue.IsProcessed(ctx, job)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !processed {
		t.Fatalf("expected dedup key %q in the processed set", job.DedupKey())
	}

	// the identical job is now a no-op
	if err := queue.Enqueue(ctx, job); err != nil {
		t.Fatalf("repeat Enqueue: %v", err)
	}
	if got, err := queue.FetchJob(ctx, 0); err != nil || got != nil {
		t.Fatalf("expected empty queue after repeat enqueue, got job=%v err=%v", got, err)
	}
}
