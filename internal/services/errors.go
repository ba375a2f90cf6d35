// Package services defines the business logic for order notifications and
// short links. This file centralizes service-level error values and the
// structured failure codes returned inside DeliveryResult.
//
// Translation into HTTP status codes happens in the handler layer.
package services

import "errors"

// ErrorCode is a structured delivery failure reported in DeliveryResult.
type ErrorCode string

const (
	CodeOrderNotFound        ErrorCode = "ORDER_NOT_FOUND"
	CodeChannelNotFound      ErrorCode = "CHANNEL_NOT_FOUND"
	CodeChannelInactive      ErrorCode = "CHANNEL_INACTIVE"
	CodeChannelMisconfigured ErrorCode = "CHANNEL_MISCONFIGURED"
	CodeInvalidWindow        ErrorCode = "INVALID_WINDOW"
	CodeNoSources            ErrorCode = "NO_SOURCES"
)

var (
	// ErrInvalidID is returned before any I/O when an order or channel
	// identifier is malformed.
	ErrInvalidID = errors.New("invalid identifier")

	// ErrInvalidTargetURL is returned when a short link target is not an
	// http(s) URL.
	ErrInvalidTargetURL = errors.New("target url must be http or https")

	// ErrShortLinkNotFound covers malformed, unknown and expired codes.
	ErrShortLinkNotFound = errors.New("short link not found")

	// ErrShortLinkExhausted is returned by helpers that need a code when
	// every generation attempt collided.
	ErrShortLinkExhausted = errors.New("short link attempts exhausted")
)
