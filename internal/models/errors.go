package models

import (
	"fmt"
	"strings"
)

// ConfigurationError reports every missing configuration key at once.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing configuration: " + strings.Join(e.Missing, ", ")
}

// ValidationError reports every missing or malformed request field at once.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// GatewayError means the payment gateway rejected the session request.
type GatewayError struct {
	Reason string
}

func (e *GatewayError) Error() string {
	return "gateway rejected payment session: " + e.Reason
}

// MethodUnavailableError means the gateway did not offer the requested
// payment method in its session response.
type MethodUnavailableError struct {
	Method string
}

func (e *MethodUnavailableError) Error() string {
	return "payment method not available: " + e.Method
}

// DecodeError means the order payload could not be recovered from the
// gateway callback. Callers treat this as "context unavailable", not as a
// fatal error for the whole flow.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return "order payload could not be decoded: " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// PayloadTooLargeError means the encoded order payload would not fit the
// gateway's 4x255 character transport.
type PayloadTooLargeError struct {
	Size int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("encoded order payload is %d characters, limit is 1020", e.Size)
}

// ReconciliationError means the backend order update failed. Fatal for the
// success path only.
type ReconciliationError struct {
	StatusCode int
	Body       string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("order payment update failed with status %d: %s", e.StatusCode, e.Body)
}

// IdentityMismatchError means the transaction id inside the recovered
// payload does not match the tran_id echoed by the gateway.
type IdentityMismatchError struct {
	Payload  string
	Callback string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("transaction id mismatch: payload has %q, callback has %q", e.Payload, e.Callback)
}
