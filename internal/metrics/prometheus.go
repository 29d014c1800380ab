package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Prathuvj/spectrolingua/internal/staging"
)

// Metrics contains all Prometheus metrics for the spectrolingua service
type Metrics struct {
	// Operation metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Conversions       *prometheus.CounterVec
	DecodedDuration   prometheus.Histogram
	UploadSize        prometheus.Histogram

	// Transcription metrics
	TranscriptionRequests *prometheus.CounterVec
	TranscriptionDuration prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec

	factory promauto.Factory
}

// NewMetrics creates and registers all Prometheus metrics with reg.
// A nil reg selects the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		factory: factory,

		// Operation metrics
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spectrolingua_operations_total",
			Help: "Total number of audio operations by outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spectrolingua_operation_duration_seconds",
			Help:    "Duration of audio operations",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}, []string{"operation"}),
		Conversions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spectrolingua_conversions_total",
			Help: "Total number of canonical conversions by source format",
		}, []string{"source_format"}),
		DecodedDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "spectrolingua_decoded_audio_duration_seconds",
			Help:    "Duration of audio handed to the recogniser",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17 minutes
		}),
		UploadSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "spectrolingua_upload_size_bytes",
			Help:    "Size of uploaded audio files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to ~256MB
		}),

		// Transcription metrics
		TranscriptionRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spectrolingua_transcription_requests_total",
			Help: "Total number of transcription requests by backend and outcome",
		}, []string{"backend", "outcome"}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "spectrolingua_transcription_duration_seconds",
			Help:    "Duration of transcription requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1 minute
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spectrolingua_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spectrolingua_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spectrolingua_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RegisterStager exports the stager's live handle counts
func (m *Metrics) RegisterStager(s *staging.Stager) {
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "spectrolingua_staging_active_handles",
		Help: "Current number of staging directories not yet released",
	}, func() float64 {
		return float64(s.Active())
	})
	m.factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "spectrolingua_staging_acquired_total",
		Help: "Total number of staging directories acquired",
	}, func() float64 {
		return float64(s.Stats().Acquired)
	})
}

// RecordOperation records an operation outcome and its duration
func (m *Metrics) RecordOperation(operation, outcome string, durationSeconds float64) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordConversion increments the conversions counter for a source format
func (m *Metrics) RecordConversion(sourceFormat string) {
	m.Conversions.WithLabelValues(sourceFormat).Inc()
}

// RecordUpload records the size of an uploaded file
func (m *Metrics) RecordUpload(sizeBytes int) {
	m.UploadSize.Observe(float64(sizeBytes))
}

// RecordTranscription records a transcription outcome
func (m *Metrics) RecordTranscription(backend, outcome string, durationSeconds float64) {
	m.TranscriptionRequests.WithLabelValues(backend, outcome).Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordDecodedDuration records the length of audio sent for recognition
func (m *Metrics) RecordDecodedDuration(seconds float64) {
	m.DecodedDuration.Observe(seconds)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
