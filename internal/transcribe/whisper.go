package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/transcribepro/transcribepro/internal/metrics"
)

// TranscribeFile uploads an audio file and returns the parsed result.
// Errors are ErrFileNotFound, *APIError for non-200 responses, or a wrapped
// I/O, network or decode error.
func (c *Client) TranscribeFile(ctx context.Context, filePath string, opts TranscribeOpts) (*Response, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, ErrFileNotFound
	}

	uploadPath := filePath
	optimized, ok := c.optimize(filePath)
	if ok {
		uploadPath = optimized
	}

	resp, err := c.post(ctx, uploadPath, opts)

	// Best-effort cleanup of the substitute file.
	if ok && optimized != filePath {
		_ = os.Remove(optimized)
	}

	return resp, err
}

func (c *Client) post(ctx context.Context, audioPath string, opts TranscribeOpts) (*Response, error) {
	body, contentType, err := c.buildForm(audioPath, opts.Language)
	if err != nil {
		return nil, err
	}
	metrics.UploadBytes.Observe(float64(body.Len()))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+opts.APIKey)

	c.log.Debug().
		Str("file", filepath.Base(audioPath)).
		Str("language", opts.Language).
		Int("bytes", body.Len()).
		Msg("sending transcription request")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result *Response
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result == nil {
		return nil, errors.New("decode response: empty JSON body")
	}
	return result, nil
}

// buildForm reads the audio file into a multipart body. The file is closed
// before the request is sent.
func (c *Client) buildForm(audioPath, language string) (*bytes.Buffer, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy audio data: %w", err)
	}

	if err := w.WriteField("model", c.model); err != nil {
		return nil, "", fmt.Errorf("write model field: %w", err)
	}
	// Passed through as-is, no validation against known codes.
	if err := w.WriteField("language", language); err != nil {
		return nil, "", fmt.Errorf("write language field: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
