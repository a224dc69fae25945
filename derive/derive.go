// Package derive predicts deployment addresses before anything is deployed.
//
// Address formula (CREATE2):
//
//	address = keccak256(0xff || deployer || salt || code_fingerprint)[12:]
//
// where code_fingerprint = keccak256(init_code). For a fixed deployer,
// distinct (salt, fingerprint) pairs land on distinct addresses unless
// Keccak-256 collides.
package derive

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/bitfsorg/libfactory-go/ident"
)

const (
	// SaltSize is the length of a salt in bytes.
	SaltSize = 32

	// FingerprintSize is the length of a code fingerprint in bytes.
	FingerprintSize = 32

	create2Prefix = 0xff
)

// Salt is the 32-byte deployment salt.
type Salt [SaltSize]byte

// Fingerprint identifies the code deployed at an address.
type Fingerprint [FingerprintSize]byte

// Hex returns the 0x-prefixed hex encoding of the salt.
func (s Salt) Hex() string { return "0x" + hex.EncodeToString(s[:]) }

// String implements fmt.Stringer.
func (s Salt) String() string { return s.Hex() }

// MarshalText implements encoding.TextMarshaler.
func (s Salt) MarshalText() ([]byte, error) { return []byte(s.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Salt) UnmarshalText(text []byte) error {
	parsed, err := ParseSalt(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Hex returns the 0x-prefixed hex encoding of the fingerprint.
func (f Fingerprint) Hex() string { return "0x" + hex.EncodeToString(f[:]) }

// Deriver maps (deployer, salt, code fingerprint) to a deployment address.
// Implementations must be pure and total.
type Deriver interface {
	Derive(deployer ident.Identity, salt Salt, code Fingerprint) ident.Identity
}

// Create2 is the Keccak-256 CREATE2 deriver.
type Create2 struct{}

// Compile-time interface check.
var _ Deriver = Create2{}

// Derive implements Deriver.
func (Create2) Derive(deployer ident.Identity, salt Salt, code Fingerprint) ident.Identity {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte{create2Prefix})
	h.Write(deployer[:])
	h.Write(salt[:])
	h.Write(code[:])
	sum := h.Sum(nil)

	var addr ident.Identity
	copy(addr[:], sum[12:])
	return addr
}

// Keccak256 returns the legacy (pre-NIST) Keccak-256 digest of the
// concatenated inputs.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// FingerprintOf returns keccak256(code).
func FingerprintOf(code []byte) Fingerprint {
	return Fingerprint(Keccak256(code))
}

// SaltFromString hashes a human-readable salt into a Salt.
func SaltFromString(s string) Salt {
	return Salt(Keccak256([]byte(s)))
}

// Scoped binds a salt to the account that requested the deployment, so two
// accounts using the same salt string never collide.
func Scoped(owner ident.Identity, salt Salt) Salt {
	return Salt(Keccak256(owner[:], salt[:]))
}

// ParseSalt decodes a 32-byte hex salt (0x prefix optional).
func ParseSalt(s string) (Salt, error) {
	var salt Salt
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return salt, fmt.Errorf("%w: %w", ErrInvalidSalt, err)
	}
	if len(b) != SaltSize {
		return salt, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSalt, SaltSize, len(b))
	}
	copy(salt[:], b)
	return salt, nil
}

// ProxyFingerprint is the fingerprint of the minimal proxy every instance is
// deployed through. Because the proxy code never changes, addresses depend
// only on (deployer, salt) and can be predicted without knowing the variant.
var ProxyFingerprint = FingerprintOf([]byte("libfactory/deploy-proxy/v1"))
