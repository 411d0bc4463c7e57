package initdata

import "errors"

// ErrRejected is wrapped by every verification failure. HTTP boundaries
// check for it alone so responses never reveal which step failed.
var ErrRejected = errors.New("init data rejected")

var (
	// ErrMalformedPayload reports init data that is not a valid query string.
	ErrMalformedPayload = rejection("malformed payload")
	// ErrMissingSignature reports init data without a hash field.
	ErrMissingSignature = rejection("missing signature")
	// ErrInvalidSignature reports a hash that does not match the payload.
	ErrInvalidSignature = rejection("invalid signature")
	// ErrMissingConfiguration reports a verifier built without a bot token.
	ErrMissingConfiguration = rejection("missing bot token")
)

type rejectionError struct {
	reason string
}

func rejection(reason string) error {
	return &rejectionError{reason: reason}
}

func (e *rejectionError) Error() string {
	return "init data rejected: " + e.reason
}

func (e *rejectionError) Unwrap() error {
	return ErrRejected
}
