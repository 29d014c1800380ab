// Package vad provides a lightweight voice activity detector. Signals are cut
// into fixed windows which are classified by short-time energy and
// zero-crossing rate; the result summarises how much of the signal is voiced.
package vad
