package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Prathuvj/spectrolingua/internal/audio"
	"github.com/Prathuvj/spectrolingua/internal/config"
	"github.com/Prathuvj/spectrolingua/internal/metrics"
	"github.com/Prathuvj/spectrolingua/internal/server"
	"github.com/Prathuvj/spectrolingua/internal/service"
	"github.com/Prathuvj/spectrolingua/internal/staging"
	"github.com/Prathuvj/spectrolingua/internal/transcription"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "spectrolingua"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	envFile := flag.String("env-file", ".env", "Path to a .env file with secrets")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.Int("http_port", cfg.HTTP.Port),
		slog.String("http_address", cfg.HTTP.Address),
		slog.Int("max_upload_mb", cfg.HTTP.MaxUploadMB),
		slog.String("staging_dir", cfg.Staging.Dir),
		slog.String("ffmpeg_path", cfg.Decoder.FFmpegPath),
		slog.String("transcription_backend", cfg.Transcription.Backend),
		slog.String("transcription_model", cfg.Transcription.Model),
		slog.Int("transcription_max_retries", cfg.Transcription.MaxRetries),
		slog.String("default_language", cfg.Transcription.DefaultLanguage),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(registry)

	stager, err := staging.NewStager(cfg.Staging.Dir, cfg.Staging.Prefix)
	if err != nil {
		logger.Error("Failed to create staging area", slog.String("error", err.Error()))
		os.Exit(1)
	}
	appMetrics.RegisterStager(stager)
	logger.Info("Staging area ready", slog.String("root", stager.Root()))

	decoder := audio.NewFFmpegDecoder(cfg.Decoder.FFmpegPath, logger)

	recognizer, err := transcription.New(transcription.Config{
		Backend:       cfg.Transcription.Backend,
		Endpoint:      cfg.Transcription.Endpoint,
		APIKey:        cfg.Transcription.APIKey,
		Model:         cfg.Transcription.Model,
		Timeout:       cfg.Transcription.GetTimeoutDuration(),
		MaxRetries:    cfg.Transcription.MaxRetries,
		MaxConcurrent: cfg.Transcription.MaxConcurrent,
		MinConfidence: cfg.Transcription.MinConfidence,
		OutputFormat:  cfg.Transcription.OutputFormat,
	}, logger)
	if err != nil {
		logger.Error("Failed to create recognizer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Recognizer initialized", slog.String("backend", recognizer.Name()))

	svc, err := service.New(service.Options{
		Stager:          stager,
		Decoder:         decoder,
		Recognizer:      recognizer,
		Metrics:         appMetrics,
		Logger:          logger,
		DefaultLanguage: cfg.Transcription.DefaultLanguage,
	})
	if err != nil {
		logger.Error("Failed to create service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	httpServer := server.NewHTTPServer(cfg.HTTP, svc, appMetrics, registry, logger)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Service started successfully, waiting for signals...")

	<-ctx.Done()
	logger.Info("Received shutdown signal, starting graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.GetShutdownTimeoutDuration())
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	if closer, ok := recognizer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Error closing recognizer", slog.String("error", err.Error()))
		}
	}

	stats := svc.Stats()
	logger.Info("Final service statistics",
		slog.Uint64("staging_acquired", stats.Staging.Acquired),
		slog.Uint64("staging_released", stats.Staging.Released),
		slog.Int64("staging_active", stats.Staging.Active),
	)

	logger.Info("Service stopped")
}

// loadConfig reads path, falling back to defaults plus environment when the
// default config file is absent
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path != defaultConfigPath || !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg = config.Default()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
