package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Prathuvj/spectrolingua/internal/audio"
	"github.com/Prathuvj/spectrolingua/internal/config"
	"github.com/Prathuvj/spectrolingua/internal/metrics"
	"github.com/Prathuvj/spectrolingua/internal/service"
)

const (
	serviceName    = "spectrolingua"
	serviceVersion = "1.0.0"

	// formFieldAudio and formFieldLanguage name the multipart upload fields
	formFieldAudio    = "audio_file"
	formFieldLanguage = "language"

	// multipartMemory is kept in memory before parts spill to disk
	multipartMemory = 32 << 20
)

// HTTPServer serves the audio operations and monitoring endpoints
type HTTPServer struct {
	server   *http.Server
	handler  http.Handler
	logger   *slog.Logger
	svc      *service.Service
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	maxUploadBytes int64
	startTime      time.Time
}

// NewHTTPServer creates a new HTTP API server. A nil gatherer exposes the
// default Prometheus registry on /metrics.
func NewHTTPServer(cfg config.HTTPConfig, svc *service.Service, m *metrics.Metrics,
	gatherer prometheus.Gatherer, logger *slog.Logger) *HTTPServer {

	if logger == nil {
		logger = slog.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	h := &HTTPServer{
		logger:         logger,
		svc:            svc,
		metrics:        m,
		gatherer:       gatherer,
		maxUploadBytes: cfg.GetMaxUploadBytes(),
		startTime:      time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.handler = RequestID(AccessLog(logger, Recover(logger, mux)))

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      h.handler,
		ReadTimeout:  cfg.GetReadTimeoutDuration(),
		WriteTimeout: cfg.GetWriteTimeoutDuration(),
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// Handler returns the fully wrapped request handler
func (h *HTTPServer) Handler() http.Handler {
	return h.handler
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Audio operations
	h.route(mux, "/convert", h.handleConvert)
	h.route(mux, "/waveform", h.handleWaveform)
	h.route(mux, "/spectrogram", h.handleSpectrogram)
	h.route(mux, "/transcribe", h.handleTranscribe)

	// Catalogs
	h.route(mux, "/formats", h.handleFormats)
	h.route(mux, "/languages", h.handleLanguages)

	// Monitoring
	h.route(mux, "/health", h.handleHealth)
	h.route(mux, "/stats", h.handleStats)

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	metricsHandler := promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})
	mux.Handle("/metrics", metricsHandler)
	mux.Handle("/metrics/{$}", metricsHandler)

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// route registers handler for path with and without a trailing slash
func (h *HTTPServer) route(mux *http.ServeMux, path string, handler http.HandlerFunc) {
	wrapped := h.withMetrics(path, handler)
	mux.HandleFunc(path, wrapped)
	mux.HandleFunc(path+"/{$}", wrapped)
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.metrics == nil {
			handler(w, r)
			return
		}

		startTime := time.Now()

		// Create a response writer wrapper to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		h.metrics.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(ww.statusCode), duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
		slog.Int64("max_upload_bytes", h.maxUploadBytes),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// readUpload extracts the audio_file part. It writes the error reply and
// returns false when the request carries no usable file.
func (h *HTTPServer) readUpload(w http.ResponseWriter, r *http.Request) (audio.Asset, bool) {
	if r.ContentLength > h.maxUploadBytes {
		h.writeError(w, r, http.StatusRequestEntityTooLarge, msgFileTooLarge)
		return audio.Asset{}, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, r, http.StatusRequestEntityTooLarge, msgFileTooLarge)
			return audio.Asset{}, false
		}
		h.writeError(w, r, http.StatusBadRequest, msgNoAudioFile)
		return audio.Asset{}, false
	}

	file, header, err := r.FormFile(formFieldAudio)
	if err != nil {
		// A part sent without a filename lands among the plain values
		if _, ok := r.MultipartForm.Value[formFieldAudio]; ok {
			h.writeError(w, r, http.StatusBadRequest, msgInvalidFile)
			return audio.Asset{}, false
		}
		h.writeError(w, r, http.StatusBadRequest, msgNoAudioFile)
		return audio.Asset{}, false
	}
	defer file.Close()

	if header.Filename == "" {
		h.writeError(w, r, http.StatusBadRequest, msgInvalidFile)
		return audio.Asset{}, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, msgInvalidFile)
		return audio.Asset{}, false
	}

	return audio.Asset{Data: data, Filename: header.Filename}, true
}

// handleConvert implements the /convert endpoint
func (h *HTTPServer) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	asset, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.svc.ConvertToCanonical(r.Context(), asset)
	if err != nil {
		h.writeOperationError(w, r, service.OpConvert, err)
		return
	}

	if result.AlreadyCanonical {
		writeJSON(w, http.StatusOK, map[string]string{"message": msgAlreadyWAV})
		return
	}

	writeAttachment(w, "audio/wav", result.Filename, result.Data)
}

// handleWaveform implements the /waveform endpoint
func (h *HTTPServer) handleWaveform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	asset, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	img, err := h.svc.RenderWaveform(r.Context(), asset)
	if err != nil {
		h.writeOperationError(w, r, service.OpWaveform, err)
		return
	}

	writeAttachment(w, img.ContentType(), img.Filename, img.Data)
}

// handleSpectrogram implements the /spectrogram endpoint
func (h *HTTPServer) handleSpectrogram(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	asset, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	img, err := h.svc.RenderSpectrogram(r.Context(), asset)
	if err != nil {
		h.writeOperationError(w, r, service.OpSpectrogram, err)
		return
	}

	writeAttachment(w, img.ContentType(), img.Filename, img.Data)
}

// handleTranscribe implements the /transcribe endpoint
func (h *HTTPServer) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	asset, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Transcribe(r.Context(), asset, r.FormValue(formFieldLanguage))
	if err != nil {
		h.writeOperationError(w, r, service.OpTranscribe, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleFormats implements the /formats endpoint
func (h *HTTPServer) handleFormats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"supported_formats": h.svc.SupportedFormats(),
	})
}

// handleLanguages implements the /languages endpoint
func (h *HTTPServer) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"supported_languages": h.svc.SupportedLanguages(),
	})
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := h.svc.Stats()

	components := map[string]interface{}{
		"staging": map[string]interface{}{
			"status":         "running",
			"active_handles": stats.Staging.Active,
		},
	}
	if stats.Recognizer != nil {
		components["transcription"] = map[string]interface{}{
			"status":          "running",
			"backend":         stats.Recognizer.Backend,
			"total_requests":  stats.Recognizer.TotalRequests,
			"success_rate":    stats.Recognizer.SuccessRate,
			"active_requests": stats.Recognizer.ActiveRequests,
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    serviceName,
			"version": serviceVersion,
		},
		"components": components,
	})
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := h.svc.Stats()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime":        time.Since(h.startTime).String(),
		"timestamp":     time.Now().UTC(),
		"staging":       stats.Staging,
		"transcription": stats.Recognizer,
	})
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Spectrolingua Audio Utility Service",
		"version": serviceVersion,
		"endpoints": map[string]interface{}{
			"GET /":              "API documentation",
			"POST /convert/":     "Convert an uploaded audio file to WAV",
			"POST /waveform/":    "Render a waveform PNG",
			"POST /spectrogram/": "Render a log-frequency spectrogram PNG",
			"POST /transcribe/":  "Transcribe speech in an uploaded audio file",
			"GET /formats/":      "List supported audio formats",
			"GET /languages/":    "List supported transcription languages",
			"GET /health/":       "Service health check",
			"GET /stats":         "Get service statistics",
			"GET /metrics":       "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, apiDoc)
}

// writeOperationError maps err to a status and logs server-side failures
func (h *HTTPServer) writeOperationError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := FromError(op, err)
	if status >= http.StatusInternalServerError {
		reqID, _ := RequestIDFrom(r.Context())
		h.logger.Error("Operation failed",
			slog.String("request_id", reqID),
			slog.String("operation", op),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}
	h.writeError(w, r, status, msg)
}

func (h *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	reqID, _ := RequestIDFrom(r.Context())
	writeJSON(w, status, errorResponse{Error: msg, RequestID: reqID})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeAttachment sends data as a downloadable file
func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
