package services

import "errors"

var (
	// ErrNotFound covers any reference that does not resolve for the
	// requesting user. Cross-user access looks identical to a missing row.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation marks a malformed request payload.
	ErrValidation = errors.New("validation failed")

	// ErrUpstream marks a content-generation call that timed out or
	// returned an unusable shape. Callers may retry; the core never
	// substitutes placeholder content for a failed generation.
	ErrUpstream = errors.New("content generation failed")
)
