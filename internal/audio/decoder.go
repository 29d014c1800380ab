package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/Prathuvj/spectrolingua/internal/staging"
)

// DefaultFFmpegBinary is used when no ffmpeg path is configured
const DefaultFFmpegBinary = "ffmpeg"

// Decoder turns a staged audio file into a mono signal at its native rate
type Decoder interface {
	Decode(ctx context.Context, path string, format Format) (*Signal, error)
}

// FFmpegDecoder decodes integer PCM WAV natively and hands every other
// container to an ffmpeg subprocess.
type FFmpegDecoder struct {
	binary string
	logger *slog.Logger
}

// NewFFmpegDecoder creates a decoder running the given ffmpeg binary
func NewFFmpegDecoder(binary string, logger *slog.Logger) *FFmpegDecoder {
	if binary == "" {
		binary = DefaultFFmpegBinary
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &FFmpegDecoder{
		binary: binary,
		logger: logger,
	}
}

// Decode decodes the file at path. The ffmpeg output is written next to the
// input so it lives and dies with the caller's staging handle.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string, format Format) (*Signal, error) {
	if format == FormatWAV {
		sig, err := ReadWAVFile(path)
		if !errors.Is(err, errNotPCM) {
			return sig, err
		}
		d.logger.Debug("WAV is not integer PCM, decoding with ffmpeg",
			slog.String("path", path),
			slog.String("reason", err.Error()),
		)
	}

	out := path + ".decoded.wav"
	if err := d.transcode(ctx, path, out); err != nil {
		return nil, err
	}

	sig, err := ReadWAVFile(out)
	if err != nil {
		return nil, err
	}

	return sig, nil
}

// transcode runs ffmpeg -i in -vn -ac 1 -c:a pcm_s16le -f wav out.
// No -ar is passed, so the native sample rate is preserved.
func (d *FFmpegDecoder) transcode(ctx context.Context, in, out string) error {
	cmd := exec.CommandContext(ctx, d.binary,
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-y", "-i", in,
		"-vn", "-ac", "1",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		out,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err == nil {
		d.logger.Debug("ffmpeg decode complete",
			slog.String("input", in),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ffmpeg binary %q not available: %w", d.binary, err)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: ffmpeg: %s", ErrDecodeFailure, lastLine(stderr.String()))
	}

	return fmt.Errorf("ffmpeg: %w", err)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if s == "" {
		return "unknown error"
	}
	return s
}

// DecodeAsset validates the asset's format, stages its bytes and decodes them.
// Unsupported formats fail before anything is staged; the staging handle is
// released before DecodeAsset returns.
func DecodeAsset(ctx context.Context, stager *staging.Stager, dec Decoder, asset Asset) (*Signal, error) {
	format, err := Classify(asset.Filename)
	if err != nil {
		return nil, err
	}

	var sig *Signal
	err = stager.Scope(func(h *staging.Handle) error {
		path, err := h.Write("input."+format.String(), asset.Data)
		if err != nil {
			return err
		}

		sig, err = dec.Decode(ctx, path, format)
		return err
	})
	if err != nil {
		return nil, err
	}

	return sig, nil
}
