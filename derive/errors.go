package derive

import "errors"

// ErrInvalidSalt indicates a salt that is not 32 bytes of hex.
var ErrInvalidSalt = errors.New("derive: invalid salt")
