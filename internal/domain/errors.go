package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	// ErrTrackingCodeNotFound wraps ErrNotFound so callers can match either
	// the specific or the generic sentinel.
	ErrTrackingCodeNotFound  = fmt.Errorf("tracking code %w", ErrNotFound)
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflict")
	ErrAuthenticationFailed  = errors.New("missing or invalid api key")
	ErrSignatureInvalid      = errors.New("signature mismatch")
	ErrTimestampExpired      = errors.New("timestamp outside replay window")
	ErrInvalidEventType      = errors.New("unrecognized event type")
	ErrClickNotReportable    = errors.New("click events are recorded via the redirect endpoint")
	ErrValidationFailed      = errors.New("malformed amount or currency")
	ErrDownstreamUnavailable = errors.New("downstream dependency unavailable")
	ErrInvalidEnvelope       = errors.New("invalid event envelope")
	ErrUnsupportedEventType  = errors.New("unsupported canonical event type")
	ErrUnsupportedEventClass = errors.New("unsupported canonical event class")
)
