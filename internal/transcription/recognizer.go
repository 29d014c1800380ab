package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Recognizer backends
const (
	BackendOpenAI = "openai"
	BackendHTTP   = "http"
)

// Recognizer turns canonical WAV bytes into text.
// Implementations return an error wrapping ErrUnclearSpeech when they ran
// but recognised nothing.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, wav []byte, language string) (string, error)
}

// StatsReporter is implemented by recognisers that keep request statistics
type StatsReporter interface {
	GetStats() ClientStats
}

// Config contains recogniser backend configuration
type Config struct {
	Backend       string
	Endpoint      string
	APIKey        string
	Model         string
	Timeout       time.Duration
	MaxRetries    int
	MaxConcurrent int
	MinConfidence float64
	OutputFormat  string // "json" or "verbose_json"
}

// New creates the recogniser selected by cfg.Backend
func New(cfg Config, logger *slog.Logger) (Recognizer, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendOpenAI:
		return NewOpenAIRecognizer(cfg, logger)
	case BackendHTTP:
		return NewClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown recognizer backend %q", cfg.Backend)
	}
}

// ClientStats represents recogniser request statistics
type ClientStats struct {
	Backend         string        `json:"backend"`
	TotalRequests   uint64        `json:"total_requests"`
	SuccessRequests uint64        `json:"success_requests"`
	FailedRequests  uint64        `json:"failed_requests"`
	SuccessRate     float64       `json:"success_rate"`
	TotalRetries    uint64        `json:"total_retries"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	ActiveRequests  int           `json:"active_requests"`
}

// requestStats accumulates per-backend request counters
type requestStats struct {
	totalRequests   uint64
	successRequests uint64
	failedRequests  uint64
	totalRetries    uint64
	avgResponseTime time.Duration

	mu sync.RWMutex
}

func (s *requestStats) incrementTotalRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRequests++
}

func (s *requestStats) incrementFailedRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedRequests++
}

func (s *requestStats) incrementTotalRetries() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRetries++
}

// recordSuccess counts a success and folds its latency into a moving average
func (s *requestStats) recordSuccess(responseTime time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.successRequests++
	if s.avgResponseTime == 0 {
		s.avgResponseTime = responseTime
	} else {
		s.avgResponseTime = (s.avgResponseTime + responseTime) / 2
	}
}

func (s *requestStats) snapshot(backend string, active int) ClientStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	successRate := float64(0)
	if s.totalRequests > 0 {
		successRate = float64(s.successRequests) / float64(s.totalRequests) * 100
	}

	return ClientStats{
		Backend:         backend,
		TotalRequests:   s.totalRequests,
		SuccessRequests: s.successRequests,
		FailedRequests:  s.failedRequests,
		SuccessRate:     successRate,
		TotalRetries:    s.totalRetries,
		AvgResponseTime: s.avgResponseTime,
		ActiveRequests:  active,
	}
}

// primarySubtag reduces a BCP-47 tag to its lowercase language subtag ("pt-BR" -> "pt")
func primarySubtag(code string) string {
	if idx := strings.IndexAny(code, "-_"); idx >= 0 {
		code = code[:idx]
	}
	return strings.ToLower(code)
}
