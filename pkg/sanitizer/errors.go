package sanitizer

import "errors"

var (
	// ErrContentTooLarge is returned when input exceeds the policy's maximum content length.
	// Callers decide whether to truncate or reject; the sanitizer never truncates.
	ErrContentTooLarge = errors.New("content exceeds maximum allowed length")

	ErrInvalidPolicy = errors.New("invalid sanitization policy")
	ErrPolicyFile    = errors.New("failed to load sanitization policy file")

	// errMalformedMarkup triggers fail-closed stripping; it never leaves the package.
	errMalformedMarkup = errors.New("malformed markup")
)
