package notify

import "errors"

var (
	// ErrInvalidEmail indicates a recipient address could not be parsed.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidCode indicates a verification code is missing or malformed.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrSenderNotConfigured indicates the sender has no API key.
	ErrSenderNotConfigured = errors.New("email sender not configured")

	// ErrDeliveryFailed indicates the email provider rejected a message.
	ErrDeliveryFailed = errors.New("email delivery failed")
)
