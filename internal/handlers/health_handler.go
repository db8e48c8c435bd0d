package handlers

import (
	"context"
	"net/http"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Store pinger
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "HomeNest API is running!")
}

// Healthz reports whether the store answers a ping.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
