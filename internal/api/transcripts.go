package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/transcribepro/transcribepro/internal/storage"
)

// TranscriptListResponse is the body of GET /api/v1/transcripts.
type TranscriptListResponse struct {
	Transcripts []storage.Transcript `json:"transcripts"`
	Total       int                  `json:"total"`
}

// TranscriptsHandler serves saved transcripts.
type TranscriptsHandler struct {
	store storage.TranscriptStore
	log   zerolog.Logger
}

func NewTranscriptsHandler(store storage.TranscriptStore, log zerolog.Logger) *TranscriptsHandler {
	return &TranscriptsHandler{
		store: store,
		log:   log.With().Str("handler", "transcripts").Logger(),
	}
}

func (h *TranscriptsHandler) Routes(r chi.Router) {
	r.Get("/transcripts", h.List)
	r.Get("/transcripts/{name}", h.Get)
	r.Delete("/transcripts/{name}", h.Delete)
}

// List handles GET /api/v1/transcripts, newest first.
func (h *TranscriptsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	all, err := h.store.List(r.Context())
	if err != nil {
		log := requestLog(r, h.log)
		log.Error().Err(err).Msg("failed to list transcripts")
		WriteError(w, http.StatusInternalServerError, "failed to list transcripts")
		return
	}

	start, end := p.Window(len(all))
	WriteJSON(w, http.StatusOK, TranscriptListResponse{
		Transcripts: all[start:end],
		Total:       len(all),
	})
}

// Get handles GET /api/v1/transcripts/{name}.
func (h *TranscriptsHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/v1/transcripts/{name}.
func (h *TranscriptsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TranscriptsHandler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		WriteError(w, http.StatusNotFound, "transcript not found")
	default:
		log := requestLog(r, h.log)
		log.Error().Err(err).Msg("transcript store error")
		WriteError(w, http.StatusInternalServerError, "transcript store error")
	}
}
