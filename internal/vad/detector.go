package vad

import (
	"fmt"
	"math"
)

// Defaults tuned for 8-48 kHz speech
const (
	DefaultThreshold  = 0.02
	DefaultMaxZCR     = 0.35
	DefaultWindowSize = 512
)

// fullScaleRMS is the window energy treated as certain voice
const fullScaleRMS = 0.1

// Detector classifies windows of a signal as voiced or unvoiced
type Detector struct {
	threshold  float64 // minimum window RMS, full scale = 1.0
	maxZCR     float64 // zero crossings per sample above which a window is noise
	windowSize int
}

// Result summarises voice activity over a whole signal
type Result struct {
	TotalWindows int     `json:"total_windows"`
	VoiceWindows int     `json:"voice_windows"`
	VoiceRatio   float64 `json:"voice_ratio"`
	Confidence   float64 `json:"confidence"` // mean probability of voiced windows
}

// NewDetector creates a detector
func NewDetector(threshold, maxZCR float64, windowSize int) (*Detector, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %f", threshold)
	}

	if maxZCR <= 0 || maxZCR > 1 {
		return nil, fmt.Errorf("max zero-crossing rate must be in (0, 1], got %f", maxZCR)
	}

	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}

	return &Detector{
		threshold:  threshold,
		maxZCR:     maxZCR,
		windowSize: windowSize,
	}, nil
}

// Analyze classifies every window of samples. A trailing partial window is
// analysed on its own; an empty signal yields a zero Result.
func (d *Detector) Analyze(samples []float64) Result {
	var (
		result  Result
		probSum float64
	)

	for start := 0; start < len(samples); start += d.windowSize {
		end := start + d.windowSize
		if end > len(samples) {
			end = len(samples)
		}

		prob, voiced := d.classify(samples[start:end])
		result.TotalWindows++
		if voiced {
			result.VoiceWindows++
			probSum += prob
		}
	}

	if result.TotalWindows > 0 {
		result.VoiceRatio = float64(result.VoiceWindows) / float64(result.TotalWindows)
	}
	if result.VoiceWindows > 0 {
		result.Confidence = probSum / float64(result.VoiceWindows)
	}

	return result
}

// HasSpeech reports whether at least minRatio of the windows are voiced
func (r Result) HasSpeech(minRatio float64) bool {
	return r.VoiceWindows > 0 && r.VoiceRatio >= minRatio
}

// classify returns the voice probability of one window and whether it counts as voiced
func (d *Detector) classify(window []float64) (float64, bool) {
	var energy float64
	crossings := 0
	for i, s := range window {
		energy += s * s
		if i > 0 && (s >= 0) != (window[i-1] >= 0) {
			crossings++
		}
	}
	rms := math.Sqrt(energy / float64(len(window)))

	zcr := 0.0
	if len(window) > 1 {
		zcr = float64(crossings) / float64(len(window)-1)
	}

	prob := math.Min(rms/fullScaleRMS, 1)
	return prob, rms >= d.threshold && zcr <= d.maxZCR
}
