package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/transcribepro/transcribepro/internal/metrics"
)

const (
	errorPrefix    = "Error: "
	apiErrorPrefix = "API Error: "
)

var defaultClient = NewClient()

// Transcribe transcribes filePath with the default client and no
// cancellation; the request timeout is the only bound.
func Transcribe(filePath, language, apiKey string) string {
	return defaultClient.Transcribe(context.Background(), filePath, language, apiKey)
}

// Transcribe returns the transcribed text or a human-readable error string.
// It never panics and never returns an error: failures are reported as
//
//	"Error: File not found"
//	"API Error: {status} - {body}"
//	"Error: {message}"
func (c *Client) Transcribe(ctx context.Context, filePath, language, apiKey string) (result string) {
	start := time.Now()
	defer func() {
		if rv := recover(); rv != nil {
			c.log.Error().Interface("panic", rv).Msg("recovered from panic during transcription")
			result = errorPrefix + fmt.Sprint(rv)
			metrics.TranscriptionsTotal.WithLabelValues("error").Inc()
		}
		metrics.TranscriptionDuration.Observe(time.Since(start).Seconds())
	}()

	resp, err := c.TranscribeFile(ctx, filePath, TranscribeOpts{Language: language, APIKey: apiKey})
	if err == nil {
		metrics.TranscriptionsTotal.WithLabelValues("ok").Inc()
		return resp.Text
	}

	var apiErr *APIError
	switch {
	case errors.Is(err, ErrFileNotFound):
		metrics.TranscriptionsTotal.WithLabelValues("not_found").Inc()
		return errorPrefix + err.Error()
	case errors.As(err, &apiErr):
		metrics.TranscriptionsTotal.WithLabelValues("api_error").Inc()
		c.log.Warn().Int("status", apiErr.StatusCode).Msg("transcription API returned an error")
		return apiErr.Error()
	default:
		metrics.TranscriptionsTotal.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Msg("transcription failed")
		return errorPrefix + err.Error()
	}
}

// IsError reports whether a Transcribe result is an error string rather
// than transcribed text.
func IsError(result string) bool {
	return strings.HasPrefix(result, errorPrefix) || strings.HasPrefix(result, apiErrorPrefix)
}
