package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Prathuvj/spectrolingua/internal/audio"
	"github.com/Prathuvj/spectrolingua/internal/staging"
)

// Spectrogram canvas size (2100x1200 px at 150 DPI)
const (
	SpectrogramWidth  = 14 * vg.Inch
	SpectrogramHeight = 8 * vg.Inch

	colorBarWidth = 1.6 * vg.Inch
)

// maxSpectrogramColumns bounds the number of heat map columns drawn.
// Longer spectrograms are max-pooled along time before plotting.
const maxSpectrogramColumns = 1200

// Spectrogram is a decibel-scaled STFT of a mono signal
type Spectrogram struct {
	// DB holds decibel values indexed [frame][bin], within [-TopDB, 0]
	DB [][]float64

	// Times holds the start time in seconds of each frame
	Times []float64

	// Freqs holds the centre frequency in Hz of each bin
	Freqs []float64

	SampleRate int
}

// ComputeSpectrogram runs the STFT over sig and scales it to decibels
func ComputeSpectrogram(sig *audio.Signal) (*Spectrogram, error) {
	if sig == nil || sig.Len() == 0 {
		return nil, fmt.Errorf("%w: no audio samples to analyse", audio.ErrDecodeFailure)
	}
	if float64(sig.SampleRate)/2 <= MinFrequency {
		return nil, fmt.Errorf("%w: sample rate %d too low for a %.0f Hz frequency floor",
			audio.ErrDecodeFailure, sig.SampleRate, MinFrequency)
	}

	db := AmplitudeToDB(STFT(sig.Samples))

	return &Spectrogram{
		DB:         db,
		Times:      FrameTimes(len(db), sig.SampleRate),
		Freqs:      FrequencyBins(sig.SampleRate),
		SampleRate: sig.SampleRate,
	}, nil
}

// Frames returns the number of STFT frames
func (s *Spectrogram) Frames() int {
	return len(s.DB)
}

// FrequencyRange returns the bounds of the rendered frequency axis
func (s *Spectrogram) FrequencyRange() (min, max float64) {
	return MinFrequency, float64(s.SampleRate) / 2
}

// heatGrid adapts a Spectrogram to plotter.GridXYZ, keeping only bins at or
// above MinFrequency and pooling frames into at most maxCols columns.
type heatGrid struct {
	sg       *Spectrogram
	firstBin int
	pool     int
	cols     int
}

func newHeatGrid(sg *Spectrogram, maxCols int) *heatGrid {
	first := 0
	for first < len(sg.Freqs) && sg.Freqs[first] < MinFrequency {
		first++
	}

	pool := 1
	if n := sg.Frames(); n > maxCols {
		pool = (n + maxCols - 1) / maxCols
	}

	return &heatGrid{
		sg:       sg,
		firstBin: first,
		pool:     pool,
		cols:     (sg.Frames() + pool - 1) / pool,
	}
}

func (g *heatGrid) Dims() (c, r int) {
	return g.cols, len(g.sg.Freqs) - g.firstBin
}

func (g *heatGrid) X(c int) float64 {
	return g.sg.Times[c*g.pool]
}

func (g *heatGrid) Y(r int) float64 {
	return g.sg.Freqs[g.firstBin+r]
}

func (g *heatGrid) Z(c, r int) float64 {
	bin := g.firstBin + r
	start := c * g.pool
	end := start + g.pool
	if end > g.sg.Frames() {
		end = g.sg.Frames()
	}

	z := math.Inf(-1)
	for f := start; f < end; f++ {
		if v := g.sg.DB[f][bin]; v > z {
			z = v
		}
	}
	return z
}

// dbTicks labels the colour bar in 10 dB steps
type dbTicks struct{}

func (dbTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for v := math.Ceil(min/10) * 10; v <= max; v += 10 {
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%+2.0f dB", v)})
	}
	return ticks
}

// PlotSpectrogram renders sg as a PNG heat map with a logarithmic
// frequency axis and a decibel colour bar
func PlotSpectrogram(sg *Spectrogram, filename string) ([]byte, error) {
	if sg == nil || sg.Frames() == 0 {
		return nil, fmt.Errorf("%w: empty spectrogram", audio.ErrDecodeFailure)
	}

	cmap := moreland.ExtendedBlackBody()
	cmap.SetMin(-TopDB)
	cmap.SetMax(0)

	heat := plotter.NewHeatMap(newHeatGrid(sg, maxSpectrogramColumns), cmap.Palette(256))
	heat.Min = -TopDB
	heat.Max = 0

	p := plot.New()
	p.Title.Text = fmt.Sprintf("STFT Spectrogram - %s (Log-Frequency Scale)", filename)
	p.X.Label.Text = "Time (seconds)"
	p.Y.Label.Text = "Frequency (Hz)"
	p.Add(heat)

	fmin, fmax := sg.FrequencyRange()
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Min = fmin
	p.Y.Max = fmax

	bar := plot.New()
	bar.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true, Colors: 256})
	bar.HideX()
	bar.Y.Label.Text = "Magnitude (dB)"
	bar.Y.Tick.Marker = dbTicks{}

	c := newCanvas(SpectrogramWidth, SpectrogramHeight)
	dc := draw.New(c)
	width := dc.Max.X - dc.Min.X

	p.Draw(draw.Crop(dc, 0, -colorBarWidth, 0, 0))
	bar.Draw(draw.Crop(dc, width-colorBarWidth, 0, 0, 0))

	return encodePNG(c)
}

// SpectrogramRenderer draws log-frequency STFT spectrograms for uploaded audio
type SpectrogramRenderer struct {
	stager  *staging.Stager
	decoder audio.Decoder
	logger  *slog.Logger
}

// NewSpectrogramRenderer creates a spectrogram renderer
func NewSpectrogramRenderer(stager *staging.Stager, decoder audio.Decoder, logger *slog.Logger) *SpectrogramRenderer {
	if logger == nil {
		logger = slog.Default()
	}

	return &SpectrogramRenderer{
		stager:  stager,
		decoder: decoder,
		logger:  logger,
	}
}

// Render decodes asset at its native rate, computes its spectrogram and plots it
func (r *SpectrogramRenderer) Render(ctx context.Context, asset audio.Asset) (*Image, error) {
	sig, err := audio.DecodeAsset(ctx, r.stager, r.decoder, asset)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sg, err := ComputeSpectrogram(sig)
	if err != nil {
		return nil, err
	}

	data, err := PlotSpectrogram(sg, asset.Filename)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Rendered spectrogram",
		slog.String("filename", asset.Filename),
		slog.Int("sample_rate", sig.SampleRate),
		slog.Int("frames", sg.Frames()),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &Image{
		Data:     data,
		Filename: audio.BaseName(asset.Filename) + "_spectrogram.png",
	}, nil
}
