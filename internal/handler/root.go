package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is anything that can report whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RootHandler serves the plain-text banner and the health probe.
type RootHandler struct {
	db     Pinger
	logger *slog.Logger
}

func NewRootHandler(db Pinger, logger *slog.Logger) *RootHandler {
	return &RootHandler{db: db, logger: logger}
}

// HandleRoot answers GET / with a fixed banner.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Reached Bird Tracker"))
}

// HandleHealth answers GET /health. It is 200 when the database answers a
// ping within two seconds and 503 otherwise.
func (h *RootHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
