// Package ident defines the 20-byte participant identity shared by every
// registry in the factory: creators, builders, splitters and role holders.
package ident

import (
	"encoding/hex"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

// Size is the length of an identity in bytes.
const Size = 20

// Identity is an account or instance address. The zero value means "none".
type Identity [Size]byte

// Zero is the empty identity.
var Zero Identity

// IsZero reports whether id is the empty identity.
func (id Identity) IsZero() bool {
	return id == Zero
}

// Hex returns the lowercase hex encoding with a 0x prefix.
func (id Identity) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

// String implements fmt.Stringer.
func (id Identity) String() string {
	return id.Hex()
}

// Bytes returns a copy of the identity bytes.
func (id Identity) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, id[:])
	return b
}

// MarshalText encodes the identity as 0x-prefixed hex.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText decodes a 0x-prefixed (or bare) hex identity.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Parse decodes a hex identity. The 0x prefix is optional; an empty string
// yields the zero identity.
func Parse(s string) (Identity, error) {
	var id Identity
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return id, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	if len(b) != Size {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidIdentity, Size, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// MustParse is like Parse but panics on malformed input.
// Only use with compile-time constants and in tests.
func MustParse(s string) Identity {
	id, err := Parse(s)
	if err != nil {
		panic("ident: " + err.Error())
	}
	return id
}

// FromBytes copies b into an Identity. b must be exactly Size bytes.
func FromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != Size {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidIdentity, Size, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// FromPubKey returns HASH160(compressed pubkey), the same 20-byte hash used
// in P2PKH addresses.
func FromPubKey(pub *ec.PublicKey) Identity {
	var id Identity
	copy(id[:], bsvhash.Hash160(pub.Compressed()))
	return id
}

// FromLabel derives a stable identity for an in-process component (a builder
// or a splitter implementation) from its name.
func FromLabel(label string) Identity {
	var id Identity
	copy(id[:], bsvhash.Hash160([]byte(label)))
	return id
}
