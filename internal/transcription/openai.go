package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIRecognizer transcribes through an OpenAI-compatible Whisper endpoint
type OpenAIRecognizer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger

	active chan struct{}
	stats  requestStats
}

// NewOpenAIRecognizer creates a Whisper recogniser. cfg.Endpoint, when set,
// replaces the default API base URL (for self-hosted compatible servers).
func NewOpenAIRecognizer(cfg Config, logger *slog.Logger) (*OpenAIRecognizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIRecognizer{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
		active:  make(chan struct{}, cfg.MaxConcurrent),
	}, nil
}

// Name returns the backend name
func (r *OpenAIRecognizer) Name() string {
	return BackendOpenAI
}

// Recognize sends wav to the transcription endpoint. Whisper takes ISO-639-1
// codes, so the region subtag of language is dropped.
func (r *OpenAIRecognizer) Recognize(ctx context.Context, wav []byte, language string) (string, error) {
	select {
	case r.active <- struct{}{}:
		defer func() { <-r.active }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.stats.incrementTotalRequests()
	start := time.Now()

	resp, err := r.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    r.model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(wav),
		Language: primarySubtag(language),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		r.stats.incrementFailedRequests()

		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			r.logger.Warn("Transcription API error",
				slog.Int("status", apiErr.HTTPStatusCode),
				slog.String("message", apiErr.Message),
			)
		}
		return "", fmt.Errorf("whisper transcription: %w", err)
	}

	r.stats.recordSuccess(time.Since(start))

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrUnclearSpeech
	}

	return text, nil
}

// GetStats returns current request statistics
func (r *OpenAIRecognizer) GetStats() ClientStats {
	return r.stats.snapshot(r.Name(), len(r.active))
}
