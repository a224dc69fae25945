package access

import "errors"

var (
	// ErrNotOwner indicates a non-owner attempted an owner-only action.
	ErrNotOwner = errors.New("access: caller is not the owner")

	// ErrPaused indicates a state-changing call while paused.
	ErrPaused = errors.New("access: paused")

	// ErrAlreadyPaused indicates pause was requested while paused.
	ErrAlreadyPaused = errors.New("access: already paused")

	// ErrNotPaused indicates unpause was requested while running.
	ErrNotPaused = errors.New("access: not paused")

	// ErrReentrant indicates a nested call into a guarded entry point.
	ErrReentrant = errors.New("access: reentrant call")

	// ErrUnknownRole indicates an unrecognized role name.
	ErrUnknownRole = errors.New("access: unknown role")

	// ErrZeroAddress indicates the zero identity where one is required.
	ErrZeroAddress = errors.New("access: zero address")

	// ErrUnauthorized indicates the creator policy refused the caller.
	ErrUnauthorized = errors.New("access: creator not authorized")
)
