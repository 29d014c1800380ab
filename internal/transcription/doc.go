// Package transcription turns uploaded audio into text.
//
// The Orchestrator makes sure a Recognizer only ever sees canonical WAV,
// converting other formats first, and reduces every recognition attempt to
// one of three outcomes: text, ErrUnclearSpeech or ErrRecognitionService.
//
// Two Recognizer backends are provided: OpenAIRecognizer for Whisper-style
// APIs and Client, a multipart HTTP client with rate limiting and an opt-in
// retry policy with exponential backoff.
package transcription
