package transcription

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func whisperServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Expected bearer auth, got %q", got)
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("model"); got != openai.Whisper1 {
			t.Errorf("Expected model %s, got %q", openai.Whisper1, got)
		}
		if got := r.FormValue("language"); got != "pt" {
			t.Errorf("Expected language pt, got %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("Expected file part: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestWhisper(t *testing.T, url string) *OpenAIRecognizer {
	t.Helper()
	r, err := NewOpenAIRecognizer(Config{
		Endpoint: url + "/v1",
		APIKey:   "sk-test",
		Timeout:  5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewOpenAIRecognizer failed: %v", err)
	}
	return r
}

func TestOpenAIRecognize(t *testing.T) {
	srv := whisperServer(t, http.StatusOK, `{"text":"olá mundo"}`)
	r := newTestWhisper(t, srv.URL)

	text, err := r.Recognize(context.Background(), []byte("RIFF"), "pt-BR")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if text != "olá mundo" {
		t.Errorf("Expected %q, got %q", "olá mundo", text)
	}

	if stats := r.GetStats(); stats.SuccessRequests != 1 {
		t.Errorf("Expected 1 successful request, got %d", stats.SuccessRequests)
	}
}

func TestOpenAIRecognizeEmptyText(t *testing.T) {
	srv := whisperServer(t, http.StatusOK, `{"text":"  "}`)
	r := newTestWhisper(t, srv.URL)

	_, err := r.Recognize(context.Background(), []byte("RIFF"), "pt-BR")
	if !errors.Is(err, ErrUnclearSpeech) {
		t.Errorf("Expected ErrUnclearSpeech, got %v", err)
	}
}

func TestOpenAIRecognizeAPIError(t *testing.T) {
	srv := whisperServer(t, http.StatusInternalServerError,
		`{"error":{"message":"upstream exploded","type":"server_error"}}`)
	r := newTestWhisper(t, srv.URL)

	_, err := r.Recognize(context.Background(), []byte("RIFF"), "pt-BR")
	if err == nil {
		t.Fatal("Expected error for 500 reply")
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected wrapped APIError, got %v", err)
	}
	if apiErr.HTTPStatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", apiErr.HTTPStatusCode)
	}

	if stats := r.GetStats(); stats.FailedRequests != 1 {
		t.Errorf("Expected 1 failed request, got %d", stats.FailedRequests)
	}
}

func TestNewOpenAIRecognizerRequiresKey(t *testing.T) {
	if _, err := NewOpenAIRecognizer(Config{}, nil); err == nil {
		t.Error("Expected error for missing API key")
	}
}
