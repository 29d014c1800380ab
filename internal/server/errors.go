package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/Prathuvj/spectrolingua/internal/audio"
	"github.com/Prathuvj/spectrolingua/internal/service"
	"github.com/Prathuvj/spectrolingua/internal/transcription"
)

// Client-facing messages
const (
	msgNoAudioFile   = "No audio file provided"
	msgInvalidFile   = "Invalid file"
	msgFileTooLarge  = "File too large"
	msgUnclearSpeech = "Could not understand audio - speech may be unclear or not present"
	msgAlreadyWAV    = "The file is already in .wav format"
)

// genericFailure is the message returned for unclassified failures of an operation
var genericFailure = map[string]string{
	service.OpConvert:     "Conversion failed",
	service.OpWaveform:    "Waveform generation failed",
	service.OpSpectrogram: "Spectrogram generation failed",
	service.OpTranscribe:  "Transcription failed",
}

// errorResponse is the JSON body of every error reply
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// FromError maps an operation error to an HTTP status and client message
func FromError(op string, err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	switch {
	case errors.Is(err, transcription.ErrConversionForTranscription):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, transcription.ErrUnclearSpeech):
		return http.StatusBadRequest, msgUnclearSpeech
	case errors.Is(err, transcription.ErrRecognitionService):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "request cancelled"
	}

	msg, ok := genericFailure[op]
	if !ok {
		msg = "internal error"
	}
	return http.StatusInternalServerError, msg
}
