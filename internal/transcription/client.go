package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// ErrClientClosed is returned by Recognize after Close
var ErrClientClosed = errors.New("recognition client closed")

// Client is a Recognizer for speech-to-text services speaking a simple
// multipart protocol: a "file" part plus "language" and "response_format"
// fields in, JSON {"text", "confidence"} out.
type Client struct {
	config     Config
	httpClient *http.Client
	semaphore  chan struct{} // Rate limiting semaphore
	logger     *slog.Logger

	// backoffBase is the delay before the first retry
	backoffBase time.Duration

	stats  requestStats
	closed atomic.Bool
}

// recognitionResponse represents the response from the recognition API
type recognitionResponse struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Language   string    `json:"language,omitempty"`
	Segments   []segment `json:"segments,omitempty"`
	Duration   float64   `json:"duration"`
}

// segment represents a segment of transcribed text
type segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// httpStatusError is a non-2xx reply from the recognition API
type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a new recognition HTTP client.
// Retries are disabled unless config.MaxRetries is positive.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}

	if config.OutputFormat == "" {
		config.OutputFormat = "json"
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		config:      config,
		httpClient:  httpClient,
		semaphore:   make(chan struct{}, config.MaxConcurrent),
		logger:      logger,
		backoffBase: time.Second,
	}, nil
}

// Name returns the backend name
func (c *Client) Name() string {
	return BackendHTTP
}

// Recognize sends canonical WAV bytes for recognition
func (c *Client) Recognize(ctx context.Context, wav []byte, language string) (string, error) {
	if c.closed.Load() {
		return "", ErrClientClosed
	}

	// Acquire semaphore for rate limiting
	select {
	case c.semaphore <- struct{}{}:
		defer func() { <-c.semaphore }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	// Close may have run while this request waited for a slot
	if c.closed.Load() {
		return "", ErrClientClosed
	}

	startTime := time.Now()
	c.stats.incrementTotalRequests()

	var lastErr error

	// Retry loop with exponential backoff
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			c.stats.incrementTotalRetries()

			backoffTime := time.Duration(math.Pow(2, float64(attempt-1))) * c.backoffBase
			if backoffTime > 30*time.Second {
				backoffTime = 30 * time.Second
			}

			c.logger.Debug("Retrying recognition request",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoffTime),
				slog.String("error", lastErr.Error()),
			)

			select {
			case <-time.After(backoffTime):
			case <-ctx.Done():
				c.stats.incrementFailedRequests()
				return "", ctx.Err()
			}
		}

		response, err := c.doRequest(ctx, wav, language)
		if err == nil {
			c.stats.recordSuccess(time.Since(startTime))
			return c.interpret(response)
		}

		lastErr = err

		if !isRetryableError(err) {
			break
		}
	}

	c.stats.incrementFailedRequests()
	return "", fmt.Errorf("recognition failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

// interpret applies the confidence floor to a successful response
func (c *Client) interpret(resp *recognitionResponse) (string, error) {
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrUnclearSpeech
	}

	// A zero confidence means the service does not report one
	if c.config.MinConfidence > 0 && resp.Confidence > 0 && resp.Confidence < c.config.MinConfidence {
		return "", fmt.Errorf("%w: confidence %.2f below %.2f", ErrUnclearSpeech, resp.Confidence, c.config.MinConfidence)
	}

	return text, nil
}

// doRequest performs a single HTTP request to the recognition API
func (c *Client) doRequest(ctx context.Context, wav []byte, language string) (*recognitionResponse, error) {
	body, contentType, err := c.createMultipartRequest(wav, language)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "spectrolingua/1.0")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var recognition recognitionResponse
	if err := json.Unmarshal(respBody, &recognition); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	return &recognition, nil
}

// createMultipartRequest creates a multipart/form-data request body
func (c *Client) createMultipartRequest(wav []byte, language string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := fileWriter.Write(wav); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	fields := map[string]string{
		"response_format": c.config.OutputFormat,
	}
	if language != "" {
		fields["language"] = language
	}
	if c.config.Model != "" {
		fields["model"] = c.config.Model
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// isRetryableError reports whether a failed attempt is worth repeating:
// timeouts, connection failures, rate limiting and 5xx replies.
func isRetryableError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}

// GetStats returns current client statistics
func (c *Client) GetStats() ClientStats {
	return c.stats.snapshot(c.Name(), len(c.semaphore))
}

// Close waits for in-flight requests to finish and releases idle
// connections. It is terminal: later Recognize calls fail with
// ErrClientClosed. Calling Close again is a no-op.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	for i := 0; i < cap(c.semaphore); i++ {
		c.semaphore <- struct{}{}
	}
	for i := 0; i < cap(c.semaphore); i++ {
		<-c.semaphore
	}

	c.httpClient.CloseIdleConnections()
	return nil
}
