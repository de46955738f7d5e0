package service

import "errors"

var (
	// ErrInvalidAmount is a caller error and is never retried.
	ErrInvalidAmount = errors.New("amount must be a positive number of sats")
	// ErrGatewayUnavailable and ErrGatewayTimeout are transient node
	// failures. The caller may retry; no invoice record exists when
	// they are returned.
	ErrGatewayUnavailable = errors.New("node gateway unavailable")
	ErrGatewayTimeout     = errors.New("node gateway timed out")

	ErrInvalidPaymentRequest = errors.New("invalid payment request")
	ErrPaymentFailed         = errors.New("payment failed")
)
