// Package service is the operations table the HTTP layer calls: conversion,
// waveform and spectrogram rendering, transcription and the format and
// language catalogs. It adds logging and metrics around each call.
package service
