package audio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Prathuvj/spectrolingua/internal/staging"
)

const canonicalOutputName = "output.wav"

// Converter re-encodes supported audio as canonical WAV
type Converter struct {
	stager  *staging.Stager
	decoder Decoder
	logger  *slog.Logger
}

// NewConverter creates a converter staging its buffers with stager
func NewConverter(stager *staging.Stager, decoder Decoder, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Converter{
		stager:  stager,
		decoder: decoder,
		logger:  logger,
	}
}

// ConvertToCanonical decodes asset at its native sample rate and encodes the
// result as 16-bit PCM mono WAV at that same rate. Callers short-circuit
// assets that are already canonical; this method always re-encodes.
func (c *Converter) ConvertToCanonical(ctx context.Context, asset Asset) ([]byte, error) {
	format, err := Classify(asset.Filename)
	if err != nil {
		return nil, err
	}

	var (
		out []byte
		sig *Signal
	)

	err = c.stager.Scope(func(h *staging.Handle) error {
		in, err := h.Write("input."+format.String(), asset.Data)
		if err != nil {
			return err
		}

		sig, err = c.decoder.Decode(ctx, in, format)
		if err != nil {
			return err
		}

		if err := WriteWAVFile(h.Path(canonicalOutputName), sig); err != nil {
			return fmt.Errorf("failed to encode canonical WAV: %w", err)
		}

		out, err = h.ReadFile(canonicalOutputName)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Converted audio to canonical WAV",
		slog.String("filename", asset.Filename),
		slog.String("source_format", format.String()),
		slog.Int("sample_rate", sig.SampleRate),
		slog.Int("samples", sig.Len()),
		slog.Int("output_bytes", len(out)),
	)

	return out, nil
}
