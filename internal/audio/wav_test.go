package audio

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// sine generates a sine wave of the given length at half amplitude
func sine(freq float64, sampleRate, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func TestWAVRoundTrip(t *testing.T) {
	// 440Hz for 0.1 seconds at 8kHz
	sampleRate := 8000
	sig := &Signal{Samples: sine(440, sampleRate, 800), SampleRate: sampleRate}

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := WriteWAVFile(path, sig); err != nil {
		t.Fatalf("WriteWAVFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read encoded WAV: %v", err)
	}

	// Canonical header is 44 bytes followed by 2 bytes per sample
	expectedSize := 44 + sig.Len()*2
	if len(data) != expectedSize {
		t.Errorf("Expected WAV size %d, got %d", expectedSize, len(data))
	}

	decoded, err := ReadWAV(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}

	if decoded.SampleRate != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, decoded.SampleRate)
	}

	if decoded.Len() != sig.Len() {
		t.Fatalf("Expected %d samples, got %d", sig.Len(), decoded.Len())
	}

	for i := range sig.Samples {
		if math.Abs(decoded.Samples[i]-sig.Samples[i]) > 1.0/math.MaxInt16 {
			t.Errorf("Sample %d: expected %.5f, got %.5f", i, sig.Samples[i], decoded.Samples[i])
			break
		}
	}
}

func TestGetWAVInfo(t *testing.T) {
	sampleRate := 8000
	sig := &Signal{Samples: make([]float64, sampleRate), SampleRate: sampleRate}

	path := filepath.Join(t.TempDir(), "silence.wav")
	if err := WriteWAVFile(path, sig); err != nil {
		t.Fatalf("WriteWAVFile failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open WAV: %v", err)
	}
	defer f.Close()

	info, err := GetWAVInfo(f)
	if err != nil {
		t.Fatalf("GetWAVInfo failed: %v", err)
	}

	if info.SampleRate != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, info.SampleRate)
	}

	if info.Channels != CanonicalChannels {
		t.Errorf("Expected %d channel, got %d", CanonicalChannels, info.Channels)
	}

	if info.BitsPerSample != CanonicalBitDepth {
		t.Errorf("Expected %d bits per sample, got %d", CanonicalBitDepth, info.BitsPerSample)
	}

	if info.NumSamples != sampleRate {
		t.Errorf("Expected %d samples, got %d", sampleRate, info.NumSamples)
	}

	if math.Abs(info.Duration-1.0) > 0.001 {
		t.Errorf("Expected duration 1.000, got %.3f", info.Duration)
	}
}

func TestReadWAVDownmixesStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	// Left at +16384, right at 0: the mono mix sits at a quarter scale
	frames := 100
	data := make([]int, frames*2)
	for i := 0; i < frames; i++ {
		data[i*2] = 16384
		data[i*2+1] = 0
	}

	enc := wav.NewEncoder(f, 16000, 16, 2, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 16000},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Encoder write failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Encoder close failed: %v", err)
	}
	f.Close()

	sig, err := ReadWAVFile(path)
	if err != nil {
		t.Fatalf("ReadWAVFile failed: %v", err)
	}

	if sig.Len() != frames {
		t.Errorf("Expected %d mono samples, got %d", frames, sig.Len())
	}

	if sig.SampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", sig.SampleRate)
	}

	if math.Abs(sig.Samples[0]-0.25) > 1e-9 {
		t.Errorf("Expected down-mixed sample 0.25, got %f", sig.Samples[0])
	}
}

func TestReadWAVInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"too short", []byte{1, 2, 3}},
		{"not riff", append([]byte("FAKE"), make([]byte, 60)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadWAV(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrDecodeFailure) {
				t.Errorf("Expected ErrDecodeFailure, got %v", err)
			}
		})
	}
}

func TestEncodeWAVRejectsInvalidSignal(t *testing.T) {
	dir := t.TempDir()

	if err := WriteWAVFile(filepath.Join(dir, "empty.wav"), &Signal{SampleRate: 8000}); err == nil {
		t.Error("Expected error for empty samples")
	}

	if err := WriteWAVFile(filepath.Join(dir, "zero.wav"), &Signal{Samples: []float64{0.1}, SampleRate: 0}); err == nil {
		t.Error("Expected error for zero sample rate")
	}

	if err := WriteWAVFile(filepath.Join(dir, "neg.wav"), &Signal{Samples: []float64{0.1}, SampleRate: -1000}); err == nil {
		t.Error("Expected error for negative sample rate")
	}
}

func TestFloatToPCM16Clips(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{1, math.MaxInt16},
		{-1, -math.MaxInt16},
		{2.5, math.MaxInt16},
		{-7, -math.MaxInt16},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		if got := floatToPCM16(tt.in); got != tt.want {
			t.Errorf("floatToPCM16(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}
