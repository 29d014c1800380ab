package transcription

import "errors"

// Transcription outcome errors
var (
	// ErrConversionForTranscription wraps a failure to produce canonical
	// input for the recogniser. The underlying audio error is wrapped too.
	ErrConversionForTranscription = errors.New("conversion for transcription failed")

	// ErrUnclearSpeech means the recogniser produced no confident text
	ErrUnclearSpeech = errors.New("could not understand audio")

	// ErrRecognitionService means the recogniser itself failed
	ErrRecognitionService = errors.New("speech recognition service error")
)
