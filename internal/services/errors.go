// Package services defines the business logic for assessment intake,
// public-token resolution, and payment reconciliation. This file centralizes
// common service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrInvalidInput is returned when a submission's answers mapping is
	// missing, empty, or exceeds the configured size guards.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAssessmentNotFound indicates that the requested assessment does
	// not exist.
	ErrAssessmentNotFound = errors.New("assessment not found")

	// ErrTokenNotFound indicates that a public token does not exist or has
	// passed its expiry timestamp.
	ErrTokenNotFound = errors.New("token not found")

	// ErrInvalidTier is returned when a payment event resolves to a tier
	// outside the defined enum.
	ErrInvalidTier = errors.New("invalid tier")

	// ErrTokenExhausted is returned when token generation keeps colliding
	// with stored tokens past the retry bound.
	ErrTokenExhausted = errors.New("token generation retries exhausted")
)
