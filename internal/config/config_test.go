package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns a configuration that passes validation
func validConfig() Config {
	cfg := Default()
	cfg.Transcription.APIKey = "test-key"
	return *cfg
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "invalid http port",
			mutate:      func(c *Config) { c.HTTP.Port = 70000 },
			expectError: true,
			errorMsg:    "http config: port must be between 1 and 65535",
		},
		{
			name:        "zero upload limit",
			mutate:      func(c *Config) { c.HTTP.MaxUploadMB = 0 },
			expectError: true,
			errorMsg:    "max_upload_mb must be at least 1",
		},
		{
			name:        "empty ffmpeg path",
			mutate:      func(c *Config) { c.Decoder.FFmpegPath = "" },
			expectError: true,
			errorMsg:    "decoder config: ffmpeg_path cannot be empty",
		},
		{
			name:        "openai backend without key",
			mutate:      func(c *Config) { c.Transcription.APIKey = "" },
			expectError: true,
			errorMsg:    "api_key cannot be empty",
		},
		{
			name: "http backend without endpoint",
			mutate: func(c *Config) {
				c.Transcription.Backend = "http"
				c.Transcription.Endpoint = ""
			},
			expectError: true,
			errorMsg:    "endpoint cannot be empty",
		},
		{
			name: "http backend without key",
			mutate: func(c *Config) {
				c.Transcription.Backend = "http"
				c.Transcription.Endpoint = "http://localhost:9000/recognize"
				c.Transcription.APIKey = ""
			},
			expectError: false,
		},
		{
			name:        "unknown backend",
			mutate:      func(c *Config) { c.Transcription.Backend = "google" },
			expectError: true,
			errorMsg:    "backend must be 'openai' or 'http'",
		},
		{
			name:        "negative retries",
			mutate:      func(c *Config) { c.Transcription.MaxRetries = -1 },
			expectError: true,
			errorMsg:    "max_retries cannot be negative",
		},
		{
			name:        "confidence out of range",
			mutate:      func(c *Config) { c.Transcription.MinConfidence = 1.5 },
			expectError: true,
			errorMsg:    "min_confidence must be between 0 and 1",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "trace" },
			expectError: true,
			errorMsg:    "logging config: level must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestStagingDirMustBeDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	s := StagingConfig{Dir: file}
	if err := s.Validate(); err == nil {
		t.Error("Expected error for a staging dir that is a file")
	}

	// Missing directories are created by the stager
	s = StagingConfig{Dir: filepath.Join(t.TempDir(), "later")}
	if err := s.Validate(); err != nil {
		t.Errorf("Expected missing dir to be accepted, got %v", err)
	}
}

func TestConfigLoad(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvOpenAIAPIKey, "")

	tempDir := t.TempDir()

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config file",
			configYAML: `
http:
  port: 9000
  address: "127.0.0.1"
  max_upload_mb: 50
staging:
  dir: ""
decoder:
  ffmpeg_path: "/usr/bin/ffmpeg"
transcription:
  backend: "http"
  endpoint: "http://localhost:9001/recognize"
  timeout: 30
  max_retries: 2
  max_concurrent: 4
  min_confidence: 0.4
logging:
  level: "debug"
  format: "text"
  output: "stderr"
`,
			expectError: false,
		},
		{
			name: "invalid YAML syntax",
			configYAML: `
http:
  port: not_a_number
`,
			expectError: true,
			errorMsg:    "failed to parse",
		},
		{
			name: "missing api key",
			configYAML: `
transcription:
  backend: "openai"
`,
			expectError: true,
			errorMsg:    "api_key cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tempDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.configYAML), 0644)
			if err != nil {
				t.Fatalf("Failed to create test config file: %v", err)
			}

			config, err := Load(configPath)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				} else if config == nil {
					t.Errorf("Expected config to be loaded but got nil")
				}
			}
		})
	}
}

func TestConfigLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("transcription:\n  api_key: from-file\n"), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvOpenAIAPIKey, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.Port != 8000 {
		t.Errorf("Expected default port 8000, got %d", cfg.HTTP.Port)
	}
	if cfg.Transcription.Model != "whisper-1" {
		t.Errorf("Expected default model whisper-1, got %s", cfg.Transcription.Model)
	}
	if cfg.Transcription.MaxRetries != 0 {
		t.Errorf("Expected retries disabled by default, got %d", cfg.Transcription.MaxRetries)
	}
	if cfg.Transcription.APIKey != "from-file" {
		t.Errorf("Expected api key from file, got %q", cfg.Transcription.APIKey)
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Fatalf("Expected error for nonexistent file but got none")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected error about reading file, got: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name     string
		fileKey  string
		specific string
		openai   string
		want     string
	}{
		{"specific wins over file", "file", "specific", "openai", "specific"},
		{"openai fills empty key", "", "", "openai", "openai"},
		{"openai does not override file", "file", "", "openai", "file"},
		{"nothing set", "file", "", "", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvAPIKey, tt.specific)
			t.Setenv(EnvOpenAIAPIKey, tt.openai)

			cfg := Default()
			cfg.Transcription.APIKey = tt.fileKey
			cfg.ApplyEnv()

			if cfg.Transcription.APIKey != tt.want {
				t.Errorf("Expected api key %q, got %q", tt.want, cfg.Transcription.APIKey)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("SPECTROLINGUA_TEST_DOTENV=loaded\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Setenv("SPECTROLINGUA_TEST_DOTENV", "")
	os.Unsetenv("SPECTROLINGUA_TEST_DOTENV")

	if err := LoadDotEnv(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}

	if got := os.Getenv("SPECTROLINGUA_TEST_DOTENV"); got != "loaded" {
		t.Errorf("Expected variable from .env, got %q", got)
	}
}

func TestDurationHelpers(t *testing.T) {
	h := HTTPConfig{
		MaxUploadMB:     2,
		ReadTimeout:     15,
		WriteTimeout:    120,
		ShutdownTimeout: 30,
	}

	if h.GetMaxUploadBytes() != 2*1024*1024 {
		t.Errorf("Expected 2MiB, got %d", h.GetMaxUploadBytes())
	}

	if h.GetReadTimeoutDuration() != 15*time.Second {
		t.Errorf("Expected 15 seconds, got %v", h.GetReadTimeoutDuration())
	}

	if h.GetWriteTimeoutDuration() != 120*time.Second {
		t.Errorf("Expected 120 seconds, got %v", h.GetWriteTimeoutDuration())
	}

	if h.GetShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("Expected 30 seconds, got %v", h.GetShutdownTimeoutDuration())
	}

	transcription := TranscriptionConfig{
		Timeout: 30,
	}

	if transcription.GetTimeoutDuration() != 30*time.Second {
		t.Errorf("Expected 30 seconds, got %v", transcription.GetTimeoutDuration())
	}
}

func TestLoggingConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config LoggingConfig
		valid  bool
	}{
		{
			name:   "valid json to stdout",
			config: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
			valid:  true,
		},
		{
			name:   "valid text to file",
			config: LoggingConfig{Level: "debug", Format: "text", Output: "/var/log/spectrolingua.log"},
			valid:  true,
		},
		{
			name:   "invalid log level",
			config: LoggingConfig{Level: "trace", Format: "json", Output: "stdout"},
			valid:  false,
		},
		{
			name:   "invalid format",
			config: LoggingConfig{Level: "info", Format: "xml", Output: "stdout"},
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config but got error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected invalid config but got no error")
			}
		})
	}
}
