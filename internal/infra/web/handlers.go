package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"call-stt-pipeline/internal/domain"
	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/infra/logging"

	"github.com/go-chi/chi/v5"
)

type dlqEntryPayload struct {
	EntryID    string                 `json:"entry_id"`
	Job        model.TranscriptionJob `json:"job"`
	Reason     string                 `json:"reason"`
	FailedAt   time.Time              `json:"failed_at"`
	StatusCode *int                   `json:"status_code,omitempty"`
}

type dlqListResponse struct {
	Entries []dlqEntryPayload `json:"entries"`
}

type requeueResponse struct {
	Status     string                 `json:"status"`
	EntryID    string                 `json:"entry_id"`
	Job        model.TranscriptionJob `json:"job"`
	Reason     string                 `json:"reason"`
	FailedAt   time.Time              `json:"failed_at"`
	StatusCode *int                   `json:"status_code,omitempty"`
}

func (s *Server) handleListDLQ(w http.ResponseWriter, r *http.Request) {
	entries, err := s.replayUC.ListDLQ(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("failed to list dlq entries")
		writeProblem(w, r, http.StatusInternalServerError, "DLQ unavailable", "Could not read dead-letter entries from the queue store.")
		return
	}

	resp := dlqListResponse{Entries: make([]dlqEntryPayload, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, dlqEntryPayload{
			EntryID:    e.EntryID,
			Job:        e.Job,
			Reason:     e.Reason,
			FailedAt:   e.FailedAt,
			StatusCode: e.StatusCode,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRequeueDLQEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	actor := logging.Actor(r.Context())

	entry, err := s.replayUC.Requeue(r.Context(), entryID, actor)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeProblem(w, r, http.StatusNotFound, "DLQ entry not found", "Requested DLQ entry could not be located.")
		case errors.Is(err, domain.ErrReplayInProgress):
			writeProblem(w, r, http.StatusConflict, "Replay in progress", "Another replay of this entry is already running.")
		default:
			logging.With(r.Context(), s.log).Error().Err(err).Str("entry_id", entryID).Msg("dlq requeue failed")
			writeProblem(w, r, http.StatusInternalServerError, "Requeue failed", "The DLQ entry could not be requeued.")
		}
		return
	}

	writeJSON(w, http.StatusOK, requeueResponse{
		Status:     "requeued",
		EntryID:    entryID,
		Job:        entry.Job,
		Reason:     entry.Reason,
		FailedAt:   entry.FailedAt,
		StatusCode: entry.StatusCode,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// problemDetail follows the RFC 7807 shape used across the admin API.
type problemDetail struct {
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

func writeProblem(w http.ResponseWriter, r *http.Request, code int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(problemDetail{
		Title:     title,
		Status:    code,
		Detail:    detail,
		RequestID: logging.RequestID(r.Context()),
	})
}
