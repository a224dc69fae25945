package registry

import "errors"

var (
	// ErrCollectionExists indicates a record is already stored under the ColID.
	ErrCollectionExists = errors.New("registry: collection already recorded")

	// ErrSplitterExists indicates a splitter is already bound to the pair.
	ErrSplitterExists = errors.New("registry: splitter already recorded for pair")

	// ErrAddressOccupied indicates code is already deployed at the address.
	ErrAddressOccupied = errors.New("registry: address already occupied")

	// ErrIndexOutOfRange indicates a creator index position past the end.
	ErrIndexOutOfRange = errors.New("registry: index position out of range")

	// ErrInvalidColID indicates a malformed collection identifier.
	ErrInvalidColID = errors.New("registry: invalid collection id")

	// ErrReadOnly indicates a write attempted inside a View transaction.
	ErrReadOnly = errors.New("registry: read-only transaction")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("registry: required parameter is nil")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("registry: store closed")
)
