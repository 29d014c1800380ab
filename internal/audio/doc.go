// Package audio handles format validation, decoding and canonical re-encoding.
// It classifies uploads by file extension, decodes supported containers to mono
// PCM at their native sample rate and encodes signals as 16-bit PCM WAV.
package audio
