// Command mockrecognizer serves the multipart recognition contract used by
// the "http" transcription backend. It returns a fixed transcript for audio
// that contains voice activity and an empty one otherwise, which lets the
// full service run locally without a speech provider.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Prathuvj/spectrolingua/internal/audio"
	"github.com/Prathuvj/spectrolingua/internal/vad"
)

const defaultTranscript = "This is a test transcription of the uploaded audio"

// recognitionResponse mirrors the JSON the http backend expects
type recognitionResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
	Duration   float64 `json:"duration"`
}

type recognizerHandler struct {
	detector      *vad.Detector
	transcript    string
	minVoiceRatio float64
	maxBytes      int64
	logger        *slog.Logger
}

func (h *recognizerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	sig, err := audio.ReadWAV(bytes.NewReader(data))
	if err != nil {
		http.Error(w, "Audio must be PCM WAV", http.StatusBadRequest)
		return
	}

	activity := h.detector.Analyze(sig.Samples)
	response := recognitionResponse{
		Language: r.FormValue("language"),
		Duration: sig.Duration(),
	}
	if activity.HasSpeech(h.minVoiceRatio) {
		response.Text = h.transcript
		response.Confidence = activity.Confidence
	}

	h.logger.Info("Recognition request",
		slog.String("filename", header.Filename),
		slog.Int("size_bytes", len(data)),
		slog.String("language", response.Language),
		slog.String("response_format", r.FormValue("response_format")),
		slog.Float64("duration_seconds", response.Duration),
		slog.Float64("voice_ratio", activity.VoiceRatio),
		slog.Bool("speech", response.Text != ""),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func main() {
	addr := flag.String("addr", ":9000", "Listen address")
	transcript := flag.String("text", defaultTranscript, "Transcript returned for voiced audio")
	threshold := flag.Float64("threshold", vad.DefaultThreshold, "Minimum window RMS counted as voice")
	minVoiceRatio := flag.Float64("min-voice-ratio", 0.2, "Fraction of voiced windows required for a transcript")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	detector, err := vad.NewDetector(*threshold, vad.DefaultMaxZCR, vad.DefaultWindowSize)
	if err != nil {
		logger.Error("Invalid detector settings", slog.String("error", err.Error()))
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/transcribe", &recognizerHandler{
		detector:      detector,
		transcript:    *transcript,
		minVoiceRatio: *minVoiceRatio,
		maxBytes:      100 << 20,
		logger:        logger,
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Mock recognizer listening",
		slog.String("address", *addr),
		slog.String("endpoint", "/transcribe"),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
