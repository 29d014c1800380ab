// Package server exposes the audio operations over HTTP. Uploads arrive as
// multipart forms; binary artifacts are returned as attachments and failures
// as JSON error bodies. Every request passes through request ID, access log
// and panic recovery middleware.
package server
