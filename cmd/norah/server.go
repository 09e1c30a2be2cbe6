package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goblincore/norah"
)

// apiHandler serves the analyst over HTTP, one session per user id.
type apiHandler struct {
	engine   *norah.Engine
	sessions *norah.Registry
	log      *zap.Logger
}

type replyRequest struct {
	Message string `json:"message"`
	Intent  string `json:"intent,omitempty"`
}

type replyResponse struct {
	Reply        string             `json:"reply"`
	State        norah.SessionState `json:"state"`
	MessageCount int                `json:"message_count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// newRouter wires the API routes. metrics may be nil.
func newRouter(h *apiHandler, metrics http.Handler, metricsPath string, timeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Route("/api/v1/agents/{userID}", func(r chi.Router) {
		r.Post("/reply", h.reply)
		r.Post("/reset", h.reset)
		r.Get("/session", h.session)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Handle(metricsPath, metrics)
	}
	return r
}

// reply handles POST /api/v1/agents/{userID}/reply
func (h *apiHandler) reply(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var opts []norah.ReplyOption
	if req.Intent != "" {
		intent, err := norah.ParseIntent(req.Intent)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		opts = append(opts, norah.WithIntent(intent))
	}

	if !h.sessions.Allow(userID) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		return
	}

	s := h.sessions.Get(userID)
	text := h.engine.Reply(norah.WithUser(r.Context(), userID), s, req.Message, opts...)
	st := s.Status()
	writeJSON(w, http.StatusOK, replyResponse{
		Reply:        text,
		State:        st.State,
		MessageCount: st.MessageCount,
	})
}

// reset handles POST /api/v1/agents/{userID}/reset
func (h *apiHandler) reset(w http.ResponseWriter, r *http.Request) {
	h.sessions.Reset(chi.URLParam(r, "userID"))
	w.WriteHeader(http.StatusNoContent)
}

// session handles GET /api/v1/agents/{userID}/session
func (h *apiHandler) session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.Get(chi.URLParam(r, "userID")).Status())
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
