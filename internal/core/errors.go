// Package core defines the error taxonomy shared by the generation pipeline.
package core

import "errors"

var (
	// ErrMissingCredential is returned at construction time when the Gemini
	// API key is absent. It is a configuration error, not a runtime one.
	ErrMissingCredential = errors.New("gemini api key not configured")

	// ErrBackend is returned when an outbound Gemini call itself fails
	// (transport error or non-200 status).
	ErrBackend = errors.New("gemini backend request failed")

	// ErrMalformedResponse is returned when a response carries no recoverable
	// JSON structure at all. Shape irregularities short of that are repaired
	// by the normalizer instead.
	ErrMalformedResponse = errors.New("malformed backend response")

	// ErrEmptyResponse is returned when a call succeeded but yielded no
	// usable payload (zero candidates or truncated-to-nothing text).
	ErrEmptyResponse = errors.New("empty backend response")

	// ErrPipelineBusy is returned when a search or generate trigger arrives
	// while a pipeline run is already in flight.
	ErrPipelineBusy = errors.New("pipeline already in flight")

	// ErrUnknownResult is returned when a generate trigger names a result id
	// that is not in the current search result list.
	ErrUnknownResult = errors.New("unknown search result id")
)
