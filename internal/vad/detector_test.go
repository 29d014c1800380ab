package vad

import (
	"math"
	"math/rand"
	"testing"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func noise(n int) []float64 {
	rng := rand.New(rand.NewSource(1))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64() - 0.5
	}
	return out
}

func TestNewDetector(t *testing.T) {
	tests := []struct {
		name        string
		threshold   float64
		maxZCR      float64
		windowSize  int
		expectError bool
	}{
		{"valid parameters", DefaultThreshold, DefaultMaxZCR, DefaultWindowSize, false},
		{"negative threshold", -0.1, DefaultMaxZCR, DefaultWindowSize, true},
		{"threshold too high", 1.5, DefaultMaxZCR, DefaultWindowSize, true},
		{"zero zcr", DefaultThreshold, 0, DefaultWindowSize, true},
		{"zero window size", DefaultThreshold, DefaultMaxZCR, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDetector(tt.threshold, tt.maxZCR, tt.windowSize)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if d == nil {
				t.Fatal("Expected detector but got nil")
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	d, err := NewDetector(DefaultThreshold, DefaultMaxZCR, DefaultWindowSize)
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}

	tests := []struct {
		name       string
		samples    []float64
		wantSpeech bool
	}{
		{"tone", sine(440, 16000, 16000), true},
		{"silence", make([]float64, 16000), false},
		{"white noise", noise(16000), false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.Analyze(tt.samples)
			if got := result.HasSpeech(0.5); got != tt.wantSpeech {
				t.Errorf("Expected HasSpeech %v, got %v (%+v)", tt.wantSpeech, got, result)
			}
		})
	}
}

func TestAnalyzeWindowAccounting(t *testing.T) {
	d, _ := NewDetector(DefaultThreshold, DefaultMaxZCR, 512)

	// 1000 samples: one full window and one partial window
	result := d.Analyze(sine(440, 16000, 1000))
	if result.TotalWindows != 2 {
		t.Errorf("Expected 2 windows, got %d", result.TotalWindows)
	}
	if result.VoiceWindows != 2 {
		t.Errorf("Expected 2 voiced windows, got %d", result.VoiceWindows)
	}
	if result.VoiceRatio != 1 {
		t.Errorf("Expected voice ratio 1, got %f", result.VoiceRatio)
	}
	if result.Confidence != 1 {
		t.Errorf("Expected full confidence for a loud tone, got %f", result.Confidence)
	}
}

func TestAnalyzeMixedSignal(t *testing.T) {
	d, _ := NewDetector(DefaultThreshold, DefaultMaxZCR, 512)

	samples := append(sine(300, 16000, 512*4), make([]float64, 512*4)...)
	result := d.Analyze(samples)

	if result.VoiceWindows != 4 || result.TotalWindows != 8 {
		t.Errorf("Expected 4 of 8 windows voiced, got %d of %d", result.VoiceWindows, result.TotalWindows)
	}
	if !result.HasSpeech(0.5) {
		t.Error("Expected speech at ratio 0.5")
	}
	if result.HasSpeech(0.75) {
		t.Error("Expected no speech at ratio 0.75")
	}
}
