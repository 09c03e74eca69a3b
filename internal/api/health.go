package api

import (
	"net/http"
	"time"

	"github.com/transcribepro/transcribepro/internal/storage"
)

type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Store         string `json:"store"`
	Inbox         string `json:"inbox,omitempty"`
}

type HealthHandler struct {
	store     storage.TranscriptStore
	inboxDir  string
	version   string
	startTime time.Time
}

func NewHealthHandler(store storage.TranscriptStore, inboxDir, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		store:     store,
		inboxDir:  inboxDir,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Inbox:         h.inboxDir,
	}
	if h.store != nil {
		resp.Store = h.store.Type()
	}
	WriteJSON(w, http.StatusOK, resp)
}
