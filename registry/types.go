// Package registry persists the factory's tables: collection records and the
// per-creator index, splitter records, the type dispatch table, role state,
// occupied deployment addresses, and the append-only event log.
//
// Every mutation happens inside Store.Update. A transaction either commits
// all of its writes or none of them.
package registry

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bitfsorg/libfactory-go/derive"
	"github.com/bitfsorg/libfactory-go/ident"
)

// ColIDSize is the length of a collection identifier.
const ColIDSize = 32

// ColID keys a collection record. It is derived from the deployed address,
// never from the creation inputs.
type ColID [ColIDSize]byte

// ColIDFromAddress left-pads the 20-byte address to 32 bytes.
func ColIDFromAddress(addr ident.Identity) ColID {
	var id ColID
	copy(id[ColIDSize-ident.Size:], addr[:])
	return id
}

// Address recovers the collection address from the identifier.
func (c ColID) Address() ident.Identity {
	var addr ident.Identity
	copy(addr[:], c[ColIDSize-ident.Size:])
	return addr
}

// IsZero reports whether c is the empty identifier.
func (c ColID) IsZero() bool { return c == ColID{} }

// Hex returns the 0x-prefixed hex encoding.
func (c ColID) Hex() string { return "0x" + hex.EncodeToString(c[:]) }

// String implements fmt.Stringer.
func (c ColID) String() string { return c.Hex() }

// MarshalText encodes the identifier as 0x-prefixed hex.
func (c ColID) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

// UnmarshalText decodes a hex identifier.
func (c *ColID) UnmarshalText(text []byte) error {
	parsed, err := ParseColID(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColID decodes a 32-byte hex identifier (0x prefix optional).
func ParseColID(s string) (ColID, error) {
	var id ColID
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return id, fmt.Errorf("%w: %w", ErrInvalidColID, err)
	}
	if len(b) != ColIDSize {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidColID, ColIDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// CollectionRecord is the provenance entry of a deployed collection.
type CollectionRecord struct {
	Address         ident.Identity `json:"address"`
	Creator         ident.Identity `json:"creator"`
	Variant         uint8          `json:"variant"`
	Salt            derive.Salt    `json:"salt"`
	CreatedAtHeight uint64         `json:"created_at_height"`
	Splitter        ident.Identity `json:"splitter"`
}

// IsZero reports whether r is the absent record.
func (r CollectionRecord) IsZero() bool {
	return r == CollectionRecord{}
}

// TypeEntry binds a variant index to a builder handle.
type TypeEntry struct {
	Index   uint8          `json:"index"`
	Builder ident.Identity `json:"builder"`
}

// AccessState holds the role addresses and the pause switch.
type AccessState struct {
	Owner     ident.Identity `json:"owner"`
	Router    ident.Identity `json:"router"`
	Market    ident.Identity `json:"market"`
	Signer    ident.Identity `json:"signer"`
	GateToken ident.Identity `json:"gate_token"` // zero = creation is not token-gated
	Paused    bool           `json:"paused"`
}

// Deployment marks an address as occupied by deployed code.
type Deployment struct {
	Address     ident.Identity
	Deployer    ident.Identity
	Kind        string
	Fingerprint derive.Fingerprint
	Height      uint64
}

// LogEntry is one persisted event. Kind names the event type and Payload
// holds its encoding; the registry never interprets either.
type LogEntry struct {
	Seq     uint64
	Height  uint64
	Kind    string
	Payload []byte
}
