package audio

import (
	"fmt"
	"strings"
)

// Format is a lowercase file extension identifying an audio container
type Format string

// Supported formats
const (
	FormatMP3  Format = "mp3"
	FormatMP4  Format = "mp4"
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
	FormatAAC  Format = "aac"
	FormatOGG  Format = "ogg"
	FormatWMA  Format = "wma"
	FormatM4A  Format = "m4a"
	FormatAIFF Format = "aiff"
)

// CanonicalFormat is the uncompressed container every operation can consume
const CanonicalFormat = FormatWAV

var supportedFormats = []Format{
	FormatMP3, FormatMP4, FormatWAV, FormatFLAC, FormatAAC,
	FormatOGG, FormatWMA, FormatM4A, FormatAIFF,
}

// SupportedFormats returns the supported formats in their canonical order
func SupportedFormats() []Format {
	out := make([]Format, len(supportedFormats))
	copy(out, supportedFormats)
	return out
}

// IsSupported reports whether f is in the supported set
func IsSupported(f Format) bool {
	for _, s := range supportedFormats {
		if s == f {
			return true
		}
	}
	return false
}

// IsCanonical reports whether f is the canonical container
func (f Format) IsCanonical() bool {
	return f == CanonicalFormat
}

func (f Format) String() string {
	return string(f)
}

// Classify derives the format tag from a filename's final extension.
// It fails with ErrUnsupportedFormat when there is no extension or the
// extension is not supported. It performs no I/O.
func Classify(filename string) (Format, error) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "", fmt.Errorf("%w: %q has no file extension", ErrUnsupportedFormat, filename)
	}

	f := Format(strings.ToLower(filename[idx+1:]))
	if !IsSupported(f) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}

	return f, nil
}

// BaseName strips the final extension from a filename ("clip.mp3" -> "clip")
func BaseName(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return filename[:idx]
	}
	return filename
}
