//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"call-stt-pipeline/internal/domain"
	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/usecase"

	"github.com/rs/zerolog"
)

type mockReplayUC struct {
	ListDLQFunc func(ctx context.Context) ([]model.DLQEntry, error)
	RequeueFunc func(ctx context.Context, entryID, actor string) (*model.DLQEntry, error)
}

var _ usecase.ReplayUseCase = (*mockReplayUC)(nil)

func (m *mockReplayUC) ListDLQ(ctx context.Context) ([]model.DLQEntry, error) {
	if m.ListDLQFunc != nil {
		return m.ListDLQFunc(ctx)
	}
	return nil, nil
}

func (m *mockReplayUC) Requeue(ctx context.Context, entryID, actor string) (*model.DLQEntry, error) {
	if m.RequeueFunc != nil {
		return m.RequeueFunc(ctx, entryID, actor)
	}
	return nil, domain.ErrNotFound
}

func newTestServer(uc usecase.ReplayUseCase) (*Server, *AuthManager) {
	auth := NewAuthManager("test-secret", 30*time.Minute)
	log := zerolog.Nop()
	return NewServer(uc, auth, &log), auth
}

func authedRequest(t *testing.T, auth *AuthManager, method, target string) *http.Request {
	t.Helper()
	tok, err := auth.Mint("ops@example.com")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func sampleEntry() model.DLQEntry {
	code := 404
	return model.DLQEntry{
		Job: model.TranscriptionJob{
			RecordID:     11,
			CallID:       "call-11",
			RecordingURL: "https://cdn.example.com/rec/11.mp3",
			Engine:       "openai-whisper",
		},
		Reason:     "404: recording not found",
		FailedAt:   time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC),
		StatusCode: &code,
		EntryID:    "0123456789abcdef",
	}
}

func TestAdminAPI_RequiresToken(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(&mockReplayUC{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stt/dlq", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected problem+json, got %q", ct)
	}
}

func TestAdminAPI_RejectsGarbageToken(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(&mockReplayUC{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stt/dlq", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminAPI_ListDLQ(t *testing.T) {
	t.Parallel()

	entry := sampleEntry()
	uc := &mockReplayUC{ListDLQFunc: func(context.Context) ([]model.DLQEntry, error) {
		return []model.DLQEntry{entry}, nil
	}}
	srv, auth := newTestServer(uc)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, authedRequest(t, auth, http.MethodGet, "/api/v1/admin/stt/dlq"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dlqListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(resp.Entries))
	}
	got := resp.Entries[0]
	if got.EntryID != entry.EntryID || got.Reason != entry.Reason {
		t.Fatalf("unexpected entry payload: %+v", got)
	}
	if got.StatusCode == nil || *got.StatusCode != 404 {
		t.Fatalf("expected status_code 404, got %v", got.StatusCode)
	}
	if got.Job.CallID != "call-11" {
		t.Fatalf("unexpected job payload: %+v", got.Job)
	}
}

func TestAdminAPI_RequeueSuccess(t *testing.T) {
	t.Parallel()

	entry := sampleEntry()
	var gotActor string
	uc := &mockReplayUC{RequeueFunc: func(_ context.Context, entryID, actor string) (*model.DLQEntry, error) {
		if entryID != entry.EntryID {
			return nil, domain.ErrNotFound
		}
		gotActor = actor
		e := entry
		return &e, nil
	}}
	srv, auth := newTestServer(uc)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, authedRequest(t, auth, http.MethodPost, "/api/v1/admin/stt/dlq/"+entry.EntryID+"/requeue"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotActor != "ops@example.com" {
		t.Fatalf("expected token subject as actor, got %q", gotActor)
	}
	var resp requeueResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "requeued" || resp.EntryID != entry.EntryID {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Job.RecordID != 11 {
		t.Fatalf("unexpected job in response: %+v", resp.Job)
	}
}

func TestAdminAPI_RequeueNotFound(t *testing.T) {
	t.Parallel()

	srv, auth := newTestServer(&mockReplayUC{})
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, authedRequest(t, auth, http.MethodPost, "/api/v1/admin/stt/dlq/ffffffffffffffff/requeue"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var problem problemDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Status != http.StatusNotFound || problem.Title == "" {
		t.Fatalf("unexpected problem payload: %+v", problem)
	}
}

func TestAdminAPI_RequeueConflict(t *testing.T) {
	t.Parallel()

	uc := &mockReplayUC{RequeueFunc: func(context.Context, string, string) (*model.DLQEntry, error) {
		return nil, domain.ErrReplayInProgress
	}}
	srv, auth := newTestServer(uc)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, authedRequest(t, auth, http.MethodPost, "/api/v1/admin/stt/dlq/0123456789abcdef/requeue"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAdminAPI_RequestIDPropagation(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(&mockReplayUC{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}

func TestAuthManager_MintAndParse(t *testing.T) {
	t.Parallel()

	auth := NewAuthManager("test-secret", time.Minute)
	tok, err := auth.Mint("ops@example.com")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	claims, err := auth.ParseFromRequest(req)
	if err != nil {
		t.Fatalf("ParseFromRequest: %v", err)
	}
	if claims.Subject != "ops@example.com" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// a token signed with another secret must be rejected
	other := NewAuthManager("other-secret", time.Minute)
	badTok, err := other.Mint("ops@example.com")
	if err != nil {
		t.Fatalf("Mint other: %v", err)
	}
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.Header.Set("Authorization", "Bearer "+badTok)
	if _, err := auth.ParseFromRequest(req2); err == nil {
		t.Fatalf("expected foreign token to be rejected")
	}
}
