package ident

import "errors"

// ErrInvalidIdentity indicates a malformed identity encoding.
var ErrInvalidIdentity = errors.New("ident: invalid identity")
