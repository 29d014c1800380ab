package render

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Prathuvj/spectrolingua/internal/audio"
	"github.com/Prathuvj/spectrolingua/internal/staging"
)

// Waveform canvas size (1800x900 px at 150 DPI)
const (
	WaveformWidth  = 12 * vg.Inch
	WaveformHeight = 6 * vg.Inch
)

// Signals up to maxLinePoints samples are drawn as a line through every
// sample. Longer ones are drawn as a filled min/max band of at most
// envelopeBuckets columns.
const (
	maxLinePoints   = 1000
	envelopeBuckets = 1200
)

var (
	waveformColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	gridColor     = color.NRGBA{R: 128, G: 128, B: 128, A: 77}
)

// WaveformRenderer draws amplitude over time for uploaded audio
type WaveformRenderer struct {
	stager  *staging.Stager
	decoder audio.Decoder
	logger  *slog.Logger
}

// NewWaveformRenderer creates a waveform renderer
func NewWaveformRenderer(stager *staging.Stager, decoder audio.Decoder, logger *slog.Logger) *WaveformRenderer {
	if logger == nil {
		logger = slog.Default()
	}

	return &WaveformRenderer{
		stager:  stager,
		decoder: decoder,
		logger:  logger,
	}
}

// Render decodes asset at its native rate and plots it
func (r *WaveformRenderer) Render(ctx context.Context, asset audio.Asset) (*Image, error) {
	sig, err := audio.DecodeAsset(ctx, r.stager, r.decoder, asset)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := PlotWaveform(sig, asset.Filename)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Rendered waveform",
		slog.String("filename", asset.Filename),
		slog.Int("samples", sig.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &Image{
		Data:     data,
		Filename: audio.BaseName(asset.Filename) + "_waveform.png",
	}, nil
}

// PlotWaveform renders sig as a PNG line plot titled after filename
func PlotWaveform(sig *audio.Signal, filename string) ([]byte, error) {
	if sig == nil || sig.Len() == 0 || sig.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: no audio samples to plot", audio.ErrDecodeFailure)
	}

	p := plot.New()
	p.Title.Text = "Audio Waveform - " + filename
	p.X.Label.Text = "Time (seconds)"
	p.Y.Label.Text = "Amplitude"

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Horizontal.Color = gridColor
	p.Add(grid)

	if sig.Len() <= maxLinePoints {
		line, err := plotter.NewLine(waveformPoints(sig))
		if err != nil {
			return nil, fmt.Errorf("failed to build waveform line: %w", err)
		}
		line.Color = waveformColor
		line.Width = vg.Points(0.5)
		p.Add(line)
	} else {
		band, err := plotter.NewPolygon(envelopeBand(sig, envelopeBuckets))
		if err != nil {
			return nil, fmt.Errorf("failed to build waveform envelope: %w", err)
		}
		band.Color = waveformColor
		band.LineStyle.Width = 0
		p.Add(band)
	}

	p.X.Min = 0
	p.X.Max = sig.Duration()

	c := newCanvas(WaveformWidth, WaveformHeight)
	p.Draw(draw.New(c))

	return encodePNG(c)
}

// waveformPoints returns (t[i], x[i]) with t[i] = i/sampleRate
func waveformPoints(sig *audio.Signal) plotter.XYs {
	rate := float64(sig.SampleRate)
	pts := make(plotter.XYs, sig.Len())
	for i, v := range sig.Samples {
		pts[i].X = float64(i) / rate
		pts[i].Y = v
	}
	return pts
}

// envelopeBand splits sig into at most buckets runs and returns the outline
// of the band between their extremes: the maxima in time order followed by
// the minima in reverse, each at the centre time of its run.
func envelopeBand(sig *audio.Signal, buckets int) plotter.XYs {
	n := sig.Len()
	rate := float64(sig.SampleRate)

	size := (n + buckets - 1) / buckets
	count := (n + size - 1) / size
	band := make(plotter.XYs, 2*count)

	b := 0
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}

		lo, hi := sig.Samples[start], sig.Samples[start]
		for _, v := range sig.Samples[start+1 : end] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}

		t := float64(start+end-1) / 2 / rate
		band[b] = plotter.XY{X: t, Y: hi}
		band[2*count-1-b] = plotter.XY{X: t, Y: lo}
		b++
	}

	return band
}
