package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Prathuvj/spectrolingua/internal/audio"
	"github.com/Prathuvj/spectrolingua/internal/staging"
)

// Converter produces canonical WAV bytes from any supported asset
type Converter interface {
	ConvertToCanonical(ctx context.Context, asset audio.Asset) ([]byte, error)
}

// Result is a successful transcription
type Result struct {
	Text     string `json:"transcription"`
	Language string `json:"language"`
	Filename string `json:"filename"`

	// AudioSeconds is the duration of the audio sent for recognition
	AudioSeconds float64 `json:"-"`
}

// Orchestrator guarantees canonical input for a Recognizer and classifies
// its outcome. It never retries.
type Orchestrator struct {
	stager     *staging.Stager
	converter  Converter
	recognizer Recognizer
	logger     *slog.Logger
}

// NewOrchestrator creates a transcription orchestrator
func NewOrchestrator(stager *staging.Stager, converter Converter, recognizer Recognizer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		stager:     stager,
		converter:  converter,
		recognizer: recognizer,
		logger:     logger,
	}
}

// Recognizer returns the backend in use
func (o *Orchestrator) Recognizer() Recognizer {
	return o.recognizer
}

// Transcribe converts asset to canonical WAV if needed and recognises it.
// An empty language selects DefaultLanguage; codes outside the catalog are
// passed through unchanged.
//
// Errors: audio.ErrUnsupportedFormat, ErrConversionForTranscription,
// audio.ErrDecodeFailure (unreadable .wav), ErrUnclearSpeech or
// ErrRecognitionService.
func (o *Orchestrator) Transcribe(ctx context.Context, asset audio.Asset, language string) (*Result, error) {
	if language == "" {
		language = DefaultLanguage
	}

	format, err := audio.Classify(asset.Filename)
	if err != nil {
		return nil, err
	}

	if !IsSupportedLanguage(language) {
		o.logger.Warn("Language not in catalog, passing through",
			slog.String("language", language),
			slog.String("filename", asset.Filename),
		)
	}

	canonical := asset.Data
	if !format.IsCanonical() {
		canonical, err = o.converter.ConvertToCanonical(ctx, asset)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConversionForTranscription, err)
		}
	}

	var (
		text    string
		seconds float64
	)
	err = o.stager.Scope(func(h *staging.Handle) error {
		path, err := h.Write("input.wav", canonical)
		if err != nil {
			return err
		}

		info, err := readWAVInfo(path)
		if err != nil {
			return err
		}
		seconds = info.Duration

		o.logger.Debug("Recognizing audio",
			slog.String("backend", o.recognizer.Name()),
			slog.String("filename", asset.Filename),
			slog.String("language", language),
			slog.Int("sample_rate", info.SampleRate),
			slog.Float64("duration_seconds", info.Duration),
		)

		start := time.Now()
		text, err = o.recognizer.Recognize(ctx, canonical, language)
		text, err = classifyOutcome(text, err)
		if err == nil {
			o.logger.Debug("Recognition complete",
				slog.String("filename", asset.Filename),
				slog.Duration("elapsed", time.Since(start)),
			)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Text:         text,
		Language:     language,
		Filename:     asset.Filename,
		AudioSeconds: seconds,
	}, nil
}

func readWAVInfo(path string) (*audio.WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open staged audio: %w", err)
	}
	defer f.Close()

	return audio.GetWAVInfo(f)
}

// classifyOutcome maps a recogniser result onto success, unclear speech or
// service failure
func classifyOutcome(text string, err error) (string, error) {
	if err != nil {
		if errors.Is(err, ErrUnclearSpeech) {
			return "", ErrUnclearSpeech
		}
		return "", fmt.Errorf("%w: %w", ErrRecognitionService, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrUnclearSpeech
	}

	return text, nil
}
