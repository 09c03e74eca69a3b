package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/transcribepro/transcribepro/internal/storage"
	"github.com/transcribepro/transcribepro/internal/transcribe"
)

// maxUploadBody caps the request body. Files over transcribe.MaxUploadBytes
// are still forwarded so the API can report its own error.
const maxUploadBody = 2 * transcribe.MaxUploadBytes

// Transcriber turns an audio file into text or an error string.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath, language, apiKey string) string
}

// TranscriptionResult is the response body of POST /api/v1/transcriptions.
type TranscriptionResult struct {
	FileName   string              `json:"file_name"`
	Language   string              `json:"language"`
	Result     string              `json:"result"`
	IsError    bool                `json:"is_error"`
	Transcript *storage.Transcript `json:"transcript,omitempty"`
}

// TranscriptionHandler accepts audio uploads and forwards them for transcription.
type TranscriptionHandler struct {
	transcriber Transcriber
	store       storage.TranscriptStore
	apiKey      string
	language    string
	log         zerolog.Logger
}

// NewTranscriptionHandler creates a new upload handler. apiKey and language
// are defaults used when the request does not supply its own.
func NewTranscriptionHandler(tr Transcriber, store storage.TranscriptStore, apiKey, language string, log zerolog.Logger) *TranscriptionHandler {
	return &TranscriptionHandler{
		transcriber: tr,
		store:       store,
		apiKey:      apiKey,
		language:    language,
		log:         log.With().Str("handler", "transcriptions").Logger(),
	}
}

// Routes registers the upload endpoint.
func (h *TranscriptionHandler) Routes(r chi.Router) {
	r.Post("/transcriptions", h.Create)
}

// Create handles POST /api/v1/transcriptions.
// Multipart fields: file (required), language, save ("true" to persist).
// The OpenAI key comes from the X-OpenAI-Key header or server config.
func (h *TranscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	apiKey := r.Header.Get("X-OpenAI-Key")
	if apiKey == "" {
		apiKey = h.apiKey
	}
	if apiKey == "" {
		WriteError(w, http.StatusBadRequest, "OpenAI API key is required")
		return
	}

	log := requestLog(r, h.log)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "audio file too large")
			return
		}
		WriteErrorDetail(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "No audio file selected")
		return
	}
	defer file.Close()

	language := r.FormValue("language")
	if language == "" {
		language = h.language
	}

	// Spool to disk, keeping the extension: the API detects format from the filename.
	tmpPath, err := spool(file, filepath.Ext(header.Filename))
	if err != nil {
		log.Error().Err(err).Msg("failed to spool upload")
		WriteError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer os.Remove(tmpPath)

	result := h.transcriber.Transcribe(r.Context(), tmpPath, language, apiKey)
	log.Debug().Str("file", header.Filename).Str("language", language).Bool("is_error", transcribe.IsError(result)).Msg("transcription finished")
	resp := TranscriptionResult{
		FileName: header.Filename,
		Language: language,
		Result:   result,
		IsError:  transcribe.IsError(result),
	}

	if !resp.IsError && r.FormValue("save") == "true" {
		t, err := h.store.Save(r.Context(), result)
		if err != nil {
			log.Error().Err(err).Msg("failed to save transcript")
			WriteErrorDetail(w, http.StatusInternalServerError, "failed to save transcript", err.Error())
			return
		}
		resp.Transcript = &t
	}

	WriteJSON(w, http.StatusOK, resp)
}

func spool(src io.Reader, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "transcribepro-upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
