package factory

import "errors"

var (
	// ErrAccessDenied indicates the caller may not perform the action.
	ErrAccessDenied = errors.New("factory: access denied")

	// ErrInvalidRoyalty indicates a royalty above RoyaltyDenominator.
	ErrInvalidRoyalty = errors.New("factory: invalid royalty")

	// ErrInvalidType indicates an unregistered or out-of-range variant index.
	ErrInvalidType = errors.New("factory: invalid type")

	// ErrTypeExists indicates AddColType on an index that is already bound.
	ErrTypeExists = errors.New("factory: type already registered")

	// ErrSplitterFail indicates an invalid share configuration or a missing
	// or invalid splitter reference.
	ErrSplitterFail = errors.New("factory: splitter check failed")

	// ErrPaused indicates a state-changing call while paused.
	ErrPaused = errors.New("factory: paused")

	// ErrAlreadyPaused indicates Pause while paused.
	ErrAlreadyPaused = errors.New("factory: already paused")

	// ErrNotPaused indicates Unpause while running.
	ErrNotPaused = errors.New("factory: not paused")

	// ErrReentrancy indicates a nested call into a guarded entry point.
	ErrReentrancy = errors.New("factory: reentrant call")

	// ErrConstruction indicates a builder or splitter failed to produce a
	// valid instance.
	ErrConstruction = errors.New("factory: construction failed")

	// ErrInvalidParams indicates malformed call parameters.
	ErrInvalidParams = errors.New("factory: invalid parameters")

	// ErrDeployerClosed indicates a builder used its Deployer after Build returned.
	ErrDeployerClosed = errors.New("factory: deployer used outside its call")

	// ErrNotInitialized indicates the factory has no owner yet.
	ErrNotInitialized = errors.New("factory: no owner configured")
)
