package render

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// STFT parameters
const (
	// FFTSize is the analysis window length in samples
	FFTSize = 2048

	// HopLength is the distance between successive frames (75% overlap)
	HopLength = 512

	// MinFrequency is the lower bound of the rendered frequency axis in Hz
	MinFrequency = 20.0

	// TopDB is the dynamic range kept below the loudest bin
	TopDB = 80.0

	// amin floors magnitudes before taking the logarithm
	amin = 1e-5
)

// FrameCount returns the number of STFT frames for a signal of n samples.
// Frames are not padded at the end; a signal shorter than one window
// is zero-padded to a single frame.
func FrameCount(n int) int {
	switch {
	case n <= 0:
		return 0
	case n < FFTSize:
		return 1
	default:
		return (n-FFTSize)/HopLength + 1
	}
}

// STFT computes Hann-windowed magnitude spectra, indexed [frame][bin].
// Each frame has FFTSize/2+1 bins.
func STFT(samples []float64) [][]float64 {
	frames := FrameCount(len(samples))
	if frames == 0 {
		return nil
	}

	// FFT plans keep scratch space, one per call
	fft := fourier.NewFFT(FFTSize)

	hann := make([]float64, FFTSize)
	for i := range hann {
		hann[i] = 1
	}
	window.Hann(hann)

	frame := make([]float64, FFTSize)
	coeffs := make([]complex128, FFTSize/2+1)
	out := make([][]float64, frames)

	for f := 0; f < frames; f++ {
		start := f * HopLength
		for i := range frame {
			var v float64
			if start+i < len(samples) {
				v = samples[start+i]
			}
			frame[i] = v * hann[i]
		}

		coeffs = fft.Coefficients(coeffs, frame)

		mags := make([]float64, len(coeffs))
		for k, c := range coeffs {
			mags[k] = math.Hypot(real(c), imag(c))
		}
		out[f] = mags
	}

	return out
}

// AmplitudeToDB converts magnitudes to decibels relative to the largest
// magnitude, clamped to [-TopDB, 0]. All-zero input yields all zeros.
func AmplitudeToDB(mags [][]float64) [][]float64 {
	peak := 0.0
	for _, frame := range mags {
		for _, m := range frame {
			if m > peak {
				peak = m
			}
		}
	}
	ref := 20 * math.Log10(math.Max(peak, amin))

	out := make([][]float64, len(mags))
	for f, frame := range mags {
		row := make([]float64, len(frame))
		for k, m := range frame {
			db := 20*math.Log10(math.Max(m, amin)) - ref
			if db < -TopDB {
				db = -TopDB
			} else if db > 0 {
				db = 0
			}
			row[k] = db
		}
		out[f] = row
	}

	return out
}

// FrequencyBins returns the centre frequency in Hz of every FFT bin
func FrequencyBins(sampleRate int) []float64 {
	bins := make([]float64, FFTSize/2+1)
	for k := range bins {
		bins[k] = float64(k) * float64(sampleRate) / FFTSize
	}
	return bins
}

// FrameTimes returns the start time in seconds of each of n frames
func FrameTimes(n, sampleRate int) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i*HopLength) / float64(sampleRate)
	}
	return times
}
