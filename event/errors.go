package event

import "errors"

var (
	// ErrNilEvent indicates a nil event was encoded.
	ErrNilEvent = errors.New("event: nil event")

	// ErrUnknownKind indicates a log entry of an unrecognized kind.
	ErrUnknownKind = errors.New("event: unknown kind")
)
