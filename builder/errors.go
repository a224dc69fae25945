package builder

import "errors"

var (
	// ErrNilBuilder indicates a nil builder was registered.
	ErrNilBuilder = errors.New("builder: nil builder")

	// ErrDuplicateBuilder indicates a kind is already registered.
	ErrDuplicateBuilder = errors.New("builder: duplicate builder kind")

	// ErrInvalidParams indicates parameters the variant cannot build with.
	ErrInvalidParams = errors.New("builder: invalid parameters")

	// ErrDeploy indicates the deployer refused the instance.
	ErrDeploy = errors.New("builder: deploy failed")
)
