package server

import "errors"

var (
	// ErrMissingHeaders indicates a signed request without its caller headers.
	ErrMissingHeaders = errors.New("server: missing caller headers")

	// ErrInvalidPubKey indicates an undecodable caller public key.
	ErrInvalidPubKey = errors.New("server: invalid caller public key")

	// ErrBadSignature indicates a signature that does not verify.
	ErrBadSignature = errors.New("server: bad request signature")

	// ErrReplayedNonce indicates a nonce seen within the replay window.
	ErrReplayedNonce = errors.New("server: replayed nonce")

	// ErrBadRequest indicates a malformed path, query or body.
	ErrBadRequest = errors.New("server: bad request")

	// ErrNotFound indicates an absent record.
	ErrNotFound = errors.New("server: not found")

	// ErrUnknownAction indicates an unsupported admin action.
	ErrUnknownAction = errors.New("server: unknown admin action")
)
