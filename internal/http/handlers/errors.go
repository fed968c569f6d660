// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them for
// programmatic error handling, alongside the human-readable message. Generic
// codes mirror common HTTP status semantics; domain-specific codes
// (intake_failed, invalid_signature) carry failures a status alone cannot.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_signature",
//	  "message": "webhook signature verification failed"
//	}
package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	// Domain-specific:
	ErrCodeIntakeFailed     = "intake_failed"
	ErrCodeInvalidSignature = "invalid_signature"
	ErrCodeReconcileFailed  = "reconcile_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
