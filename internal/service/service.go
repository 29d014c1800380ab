package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Prathuvj/spectrolingua/internal/audio"
	"github.com/Prathuvj/spectrolingua/internal/metrics"
	"github.com/Prathuvj/spectrolingua/internal/render"
	"github.com/Prathuvj/spectrolingua/internal/staging"
	"github.com/Prathuvj/spectrolingua/internal/transcription"
)

// Operation names used in logs and metrics
const (
	OpConvert     = "convert"
	OpWaveform    = "waveform"
	OpSpectrogram = "spectrogram"
	OpTranscribe  = "transcribe"
)

// Outcome labels
const (
	OutcomeSuccess           = "success"
	OutcomeUnsupportedFormat = "unsupported_format"
	OutcomeDecodeFailure     = "decode_failure"
	OutcomeConversionFailed  = "conversion_failed"
	OutcomeUnclearSpeech     = "unclear_speech"
	OutcomeRecognitionError  = "recognition_error"
	OutcomeCanceled          = "canceled"
	OutcomeInternalError     = "internal_error"
)

// Options configures a Service
type Options struct {
	Stager     *staging.Stager
	Decoder    audio.Decoder
	Recognizer transcription.Recognizer

	// Metrics may be nil
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// DefaultLanguage applies when a transcription request names none
	DefaultLanguage string
}

// Service exposes the audio operations to the HTTP layer
type Service struct {
	stager      *staging.Stager
	converter   *audio.Converter
	waveform    *render.WaveformRenderer
	spectrogram *render.SpectrogramRenderer
	transcriber *transcription.Orchestrator

	metrics         *metrics.Metrics
	logger          *slog.Logger
	defaultLanguage string
}

// ConvertResult is the outcome of a canonical conversion. AlreadyCanonical
// reports a no-op: the input was already WAV and Data is nil.
type ConvertResult struct {
	Data             []byte
	Filename         string
	AlreadyCanonical bool
}

// Stats represents service statistics
type Stats struct {
	Staging    staging.Stats              `json:"staging"`
	Recognizer *transcription.ClientStats `json:"recognizer,omitempty"`
}

// New wires the audio components around a shared stager and decoder
func New(opts Options) (*Service, error) {
	if opts.Stager == nil {
		return nil, fmt.Errorf("stager cannot be nil")
	}
	if opts.Decoder == nil {
		return nil, fmt.Errorf("decoder cannot be nil")
	}
	if opts.Recognizer == nil {
		return nil, fmt.Errorf("recognizer cannot be nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lang := opts.DefaultLanguage
	if lang == "" {
		lang = transcription.DefaultLanguage
	}

	converter := audio.NewConverter(opts.Stager, opts.Decoder, logger)

	return &Service{
		stager:          opts.Stager,
		converter:       converter,
		waveform:        render.NewWaveformRenderer(opts.Stager, opts.Decoder, logger),
		spectrogram:     render.NewSpectrogramRenderer(opts.Stager, opts.Decoder, logger),
		transcriber:     transcription.NewOrchestrator(opts.Stager, converter, opts.Recognizer, logger),
		metrics:         opts.Metrics,
		logger:          logger,
		defaultLanguage: lang,
	}, nil
}

// ConvertToCanonical re-encodes asset as canonical WAV, or reports a no-op
// when it already is one
func (s *Service) ConvertToCanonical(ctx context.Context, asset audio.Asset) (result *ConvertResult, err error) {
	defer s.observe(OpConvert, asset, time.Now(), &err)

	format, err := audio.Classify(asset.Filename)
	if err != nil {
		return nil, err
	}

	if format.IsCanonical() {
		return &ConvertResult{Filename: asset.Filename, AlreadyCanonical: true}, nil
	}

	data, err := s.converter.ConvertToCanonical(ctx, asset)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordConversion(format.String())
	}

	return &ConvertResult{
		Data:     data,
		Filename: audio.BaseName(asset.Filename) + "." + audio.CanonicalFormat.String(),
	}, nil
}

// RenderWaveform plots amplitude over time
func (s *Service) RenderWaveform(ctx context.Context, asset audio.Asset) (img *render.Image, err error) {
	defer s.observe(OpWaveform, asset, time.Now(), &err)
	return s.waveform.Render(ctx, asset)
}

// RenderSpectrogram plots a log-frequency STFT spectrogram
func (s *Service) RenderSpectrogram(ctx context.Context, asset audio.Asset) (img *render.Image, err error) {
	defer s.observe(OpSpectrogram, asset, time.Now(), &err)
	return s.spectrogram.Render(ctx, asset)
}

// Transcribe recognises speech in asset. An empty language selects the
// configured default.
func (s *Service) Transcribe(ctx context.Context, asset audio.Asset, language string) (result *transcription.Result, err error) {
	start := time.Now()
	defer s.observe(OpTranscribe, asset, start, &err)

	if language == "" {
		language = s.defaultLanguage
	}

	result, err = s.transcriber.Transcribe(ctx, asset, language)

	if s.metrics != nil && !errors.Is(err, audio.ErrUnsupportedFormat) {
		s.metrics.RecordTranscription(s.transcriber.Recognizer().Name(), Outcome(err), time.Since(start).Seconds())
		if err == nil {
			s.metrics.RecordDecodedDuration(result.AudioSeconds)
		}
	}

	return result, err
}

// SupportedFormats lists accepted file extensions in canonical order
func (s *Service) SupportedFormats() []string {
	formats := audio.SupportedFormats()
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = f.String()
	}
	return out
}

// SupportedLanguages returns the language catalog
func (s *Service) SupportedLanguages() map[string]string {
	return transcription.SupportedLanguages()
}

// Stats returns staging and recogniser statistics
func (s *Service) Stats() Stats {
	stats := Stats{Staging: s.stager.Stats()}

	if reporter, ok := s.transcriber.Recognizer().(transcription.StatsReporter); ok {
		rs := reporter.GetStats()
		stats.Recognizer = &rs
	}

	return stats
}

// observe logs and records an operation once it returns
func (s *Service) observe(op string, asset audio.Asset, start time.Time, errp *error) {
	elapsed := time.Since(start)
	err := *errp
	outcome := Outcome(err)

	if s.metrics != nil {
		s.metrics.RecordUpload(len(asset.Data))
		s.metrics.RecordOperation(op, outcome, elapsed.Seconds())
	}

	attrs := []any{
		slog.String("operation", op),
		slog.String("filename", asset.Filename),
		slog.Int("size_bytes", len(asset.Data)),
		slog.String("outcome", outcome),
		slog.Duration("elapsed", elapsed),
	}

	switch outcome {
	case OutcomeSuccess:
		s.logger.Info("Operation completed", attrs...)
	case OutcomeInternalError:
		s.logger.Error("Operation failed", append(attrs, slog.String("error", err.Error()))...)
	default:
		s.logger.Warn("Operation rejected", append(attrs, slog.String("error", err.Error()))...)
	}
}

// Outcome classifies an operation error into a metrics label
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return OutcomeUnsupportedFormat
	case errors.Is(err, transcription.ErrConversionForTranscription):
		return OutcomeConversionFailed
	case errors.Is(err, transcription.ErrUnclearSpeech):
		return OutcomeUnclearSpeech
	case errors.Is(err, transcription.ErrRecognitionService):
		return OutcomeRecognitionError
	case errors.Is(err, audio.ErrDecodeFailure):
		return OutcomeDecodeFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeInternalError
	}
}
