package web

import (
	"net/http"

	"call-stt-pipeline/internal/infra/logging"
	"call-stt-pipeline/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes the operator API: DLQ inspection, replay, health and
// metrics.
type Server struct {
	replayUC usecase.ReplayUseCase
	auth     *AuthManager
	log      *zerolog.Logger
}

func NewServer(replayUC usecase.ReplayUseCase, auth *AuthManager, logger *zerolog.Logger) *Server {
	return &Server{
		replayUC: replayUC,
		auth:     auth,
		log:      logger,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/admin/stt", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/dlq", s.handleListDLQ)
		r.Post("/dlq/{entryID}/requeue", s.handleRequeueDLQEntry)
	})
	return r
}

// requestIDMiddleware assigns each request an id carried in the response
// header and the request context for log correlation.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// authMiddleware validates the bearer JWT and stashes the token subject as
// the acting operator.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeProblem(w, r, http.StatusUnauthorized, "Unauthorized", "A valid admin token is required.")
			return
		}
		next.ServeHTTP(w, r.WithContext(logging.WithActor(r.Context(), claims.Subject)))
	})
}
