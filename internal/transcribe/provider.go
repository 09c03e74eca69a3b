package transcribe

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultURL is the OpenAI transcription endpoint.
	DefaultURL = "https://api.openai.com/v1/audio/transcriptions"
	// DefaultModel is sent in the "model" form field on every request.
	DefaultModel = "whisper-1"
	// DefaultTimeout bounds a single upload end to end.
	DefaultTimeout = 60 * time.Second
)

// ErrFileNotFound is returned when the input audio file does not exist.
// Its message is part of the string contract of Transcribe.
var ErrFileNotFound = errors.New("File not found")

// APIError is a non-200 response from the transcription API.
// Body is the raw response body, unparsed.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error: %d - %s", e.StatusCode, e.Body)
}

// Response is the parsed body of a successful transcription.
type Response struct {
	Text string `json:"text"`
}

// TranscribeOpts are the per-request values forwarded to the API verbatim.
type TranscribeOpts struct {
	Language string
	APIKey   string
}

// Client uploads audio files to an OpenAI-compatible /v1/audio/transcriptions endpoint.
type Client struct {
	url      string
	model    string
	timeout  time.Duration
	client   *http.Client
	optimize Optimizer
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithURL overrides the endpoint. Used to point the client at a test server.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithTimeout overrides the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the HTTP client. The caller owns its timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithOptimizer replaces the pre-upload optimizer.
func WithOptimizer(o Optimizer) Option {
	return func(c *Client) { c.optimize = o }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a transcription client with the fixed endpoint, model
// and timeout unless overridden.
func NewClient(opts ...Option) *Client {
	c := &Client{
		url:      DefaultURL,
		model:    DefaultModel,
		timeout:  DefaultTimeout,
		optimize: MaybeOptimize,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	if c.optimize == nil {
		c.optimize = MaybeOptimize
	}
	return c
}

// Model returns the model identifier sent with each request.
func (c *Client) Model() string { return c.model }

// Timeout returns the configured request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }
