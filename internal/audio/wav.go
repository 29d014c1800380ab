package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// CanonicalBitDepth is the sample width of canonical WAV output
	CanonicalBitDepth = 16

	// CanonicalChannels is the channel count of canonical WAV output
	CanonicalChannels = 1

	wavFormatPCM = 1
)

// errNotPCM marks a well-formed WAV whose samples are not integer PCM
// (IEEE float, extensible, compressed). Such files are decoded externally.
var errNotPCM = errors.New("wav samples are not integer PCM")

// WAVInfo contains basic information about a WAV file
type WAVInfo struct {
	SampleRate    int     `json:"sample_rate"`
	Channels      int     `json:"channels"`
	BitsPerSample int     `json:"bits_per_sample"`
	AudioFormat   int     `json:"audio_format"`
	NumSamples    int     `json:"num_samples"`
	Duration      float64 `json:"duration_seconds"`
}

// ReadWAV decodes an integer PCM WAV stream to a mono signal.
// Multi-channel audio is down-mixed by averaging channels.
func ReadWAV(r io.ReadSeeker) (*Signal, error) {
	dec := wav.NewDecoder(r)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: invalid WAV file: %v", ErrDecodeFailure, err)
	}

	if dec.NumChans < 1 || dec.SampleRate == 0 || dec.BitDepth < 8 {
		return nil, fmt.Errorf("%w: invalid WAV file: missing or malformed fmt chunk", ErrDecodeFailure)
	}

	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w (format tag %d)", errNotPCM, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read audio samples: %v", ErrDecodeFailure, err)
	}

	channels := int(dec.NumChans)
	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, fmt.Errorf("%w: no audio data found", ErrDecodeFailure)
	}

	bitDepth := int(dec.BitDepth)
	scale := float64(int64(1) << (bitDepth - 1))

	// 8-bit WAV is unsigned, everything wider is signed
	var offset float64
	if bitDepth == 8 {
		offset = 128
	}

	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += (float64(buf.Data[i*channels+ch]) - offset) / scale
		}
		samples[i] = sum / float64(channels)
	}

	return &Signal{
		Samples:    samples,
		SampleRate: int(dec.SampleRate),
	}, nil
}

// ReadWAVFile decodes the WAV file at path
func ReadWAVFile(path string) (*Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadWAV(f)
}

// GetWAVInfo reads the WAV header without decoding the audio data
func GetWAVInfo(r io.ReadSeeker) (*WAVInfo, error) {
	dec := wav.NewDecoder(r)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: invalid WAV file: %v", ErrDecodeFailure, err)
	}

	if dec.NumChans < 1 || dec.SampleRate == 0 || dec.BitDepth < 8 {
		return nil, fmt.Errorf("%w: invalid WAV file: missing or malformed fmt chunk", ErrDecodeFailure)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: missing data chunk: %v", ErrDecodeFailure, err)
	}

	bytesPerFrame := int(dec.NumChans) * ((int(dec.BitDepth)-1)/8 + 1)
	numSamples := dec.PCMSize / bytesPerFrame

	return &WAVInfo{
		SampleRate:    int(dec.SampleRate),
		Channels:      int(dec.NumChans),
		BitsPerSample: int(dec.BitDepth),
		AudioFormat:   int(dec.WavAudioFormat),
		NumSamples:    numSamples,
		Duration:      float64(numSamples) / float64(dec.SampleRate),
	}, nil
}

// EncodeWAV writes sig as canonical 16-bit PCM mono WAV.
// The header sizes are patched on Close, which is why a WriteSeeker is required.
func EncodeWAV(w io.WriteSeeker, sig *Signal) error {
	if sig == nil || len(sig.Samples) == 0 {
		return fmt.Errorf("cannot encode empty audio samples")
	}

	if sig.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sig.SampleRate)
	}

	data := make([]int, len(sig.Samples))
	for i, v := range sig.Samples {
		data[i] = floatToPCM16(v)
	}

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: CanonicalChannels,
			SampleRate:  sig.SampleRate,
		},
		Data:           data,
		SourceBitDepth: CanonicalBitDepth,
	}

	enc := wav.NewEncoder(w, sig.SampleRate, CanonicalBitDepth, CanonicalChannels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV header: %w", err)
	}

	return nil
}

// WriteWAVFile encodes sig as canonical WAV into a new file at path
func WriteWAVFile(path string, sig *Signal) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := EncodeWAV(f, sig); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// floatToPCM16 converts a normalised sample to a clipped 16-bit integer
func floatToPCM16(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(math.Round(v * math.MaxInt16))
}
