package types

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by services and HTTP handlers. Services wrap these
// with fmt.Errorf("...: %w", ...) and handlers map them with errors.Is.
var (
	ErrProviderUnavailable = errors.New("payment provider not configured")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrNotFound            = errors.New("not found")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrProviderError       = errors.New("payment provider error")
	// ErrRecordNotReady marks a webhook whose local record does not exist yet.
	// It is soft: the provider is expected to redeliver.
	ErrRecordNotReady = errors.New("matching record not found yet")

	ErrInvalidTier   = fmt.Errorf("%w: unknown tier", ErrInvalidRequest)
	ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrInvalidRequest)
	ErrUserNotFound  = fmt.Errorf("user %w", ErrNotFound)
)
