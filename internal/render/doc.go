// Package render turns decoded audio into PNG visualisations.
//
// Waveforms plot amplitude against time. Spectrograms take a Hann-windowed
// STFT (2048-point FFT, 512-sample hop), scale magnitudes to decibels
// relative to the loudest bin and draw them on a logarithmic frequency axis
// running from 20 Hz to the Nyquist frequency.
//
// Each render call builds and discards its own plot and canvas, so
// renderers are safe for concurrent use.
package render
