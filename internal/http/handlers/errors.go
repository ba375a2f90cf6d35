// Package handlers implements the notifier's HTTP endpoints.
//
// This file lists the error codes of the {request_id, code, message}
// envelope. Generic codes mirror HTTP semantics. Delivery outcomes reuse
// the engine's upper-case codes (ORDER_NOT_FOUND, CHANNEL_INACTIVE, ...)
// so clients can branch on the same values the audit log records.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "CHANNEL_MISCONFIGURED",
//	  "message": "channel sender bot or target group is misconfigured"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeDeliveryFailed = "delivery_failed"
	ErrCodeListFailed     = "list_failed"
)
