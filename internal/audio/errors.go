package audio

import "errors"

var (
	// ErrUnsupportedFormat is returned when a filename's extension is not in
	// the supported set. It is always detected before any decoding.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrDecodeFailure is returned when bytes cannot be parsed as their
	// declared format (corrupt, truncated or mismatched content).
	ErrDecodeFailure = errors.New("audio decode failed")
)
