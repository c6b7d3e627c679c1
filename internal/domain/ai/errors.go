package ai

import "errors"

var (
	// ErrQuotaExceeded is returned when the provider rate limits or rejects a
	// triage request for quota reasons (HTTP 429).
	ErrQuotaExceeded = errors.New("ai quota exceeded")

	// ErrNoTriage is returned when the provider answered without a usable
	// triage document.
	ErrNoTriage = errors.New("ai returned no triage")
)
