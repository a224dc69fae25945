// Package event defines the factory's lifecycle events, their persisted
// encoding, and the sinks that receive them after a transaction commits.
//
// Each event carries enough fields to rebuild registry state from the log
// alone.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/bitfsorg/libfactory-go/builder"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/registry"
	"github.com/bitfsorg/libfactory-go/split"
)

// Event kinds.
const (
	KindCollectionCreated = "collection_created"
	KindSplitterCreated   = "splitter_created"
	KindTypeUpdated       = "type_updated"
	KindOwnerUpdated      = "owner_updated"
	KindMarketUpdated     = "market_updated"
	KindRouterUpdated     = "router_updated"
	KindSignerUpdated     = "signer_updated"
	KindGateTokenUpdated  = "gate_token_updated"
	KindPaused            = "paused"
	KindUnpaused          = "unpaused"
)

// Event is implemented by every lifecycle event.
type Event interface {
	Kind() string
}

// CollectionCreated is emitted once per successful collection creation.
// VariantKind and Fields are specific to the variant that built it.
type CollectionCreated struct {
	ColID       registry.ColID  `json:"col_id"`
	Collection  ident.Identity  `json:"collection"`
	Creator     ident.Identity  `json:"creator"`
	Splitter    ident.Identity  `json:"splitter"`
	Variant     uint8           `json:"variant"`
	VariantKind string          `json:"variant_kind"`
	Salt        string          `json:"salt"`
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	BaseURI     string          `json:"base_uri"`
	Fields      []builder.Field `json:"fields"`
}

// SplitterCreated is emitted when a new splitter is deployed.
type SplitterCreated struct {
	Splitter   ident.Identity `json:"splitter"`
	Creator    ident.Identity `json:"creator"`
	Ambassador ident.Identity `json:"ambassador"`
	Project    ident.Identity `json:"project"`
	Salt       string         `json:"salt"`
	Payees     []split.Payee  `json:"payees"`
}

// TypeUpdated is emitted when a variant index is bound. Redefined marks an
// explicit replacement of an existing binding.
type TypeUpdated struct {
	Index     uint8          `json:"index"`
	Builder   ident.Identity `json:"builder"`
	Previous  ident.Identity `json:"previous"`
	Redefined bool           `json:"redefined"`
}

// OwnerUpdated is emitted on ownership transfer.
type OwnerUpdated struct {
	Old ident.Identity `json:"old"`
	New ident.Identity `json:"new"`
}

// RoleUpdated is emitted when the market, router, signer or gate token changes.
type RoleUpdated struct {
	Role string         `json:"role"`
	Old  ident.Identity `json:"old"`
	New  ident.Identity `json:"new"`
}

// Paused is emitted when the factory is paused.
type Paused struct {
	By ident.Identity `json:"by"`
}

// Unpaused is emitted when the factory is resumed.
type Unpaused struct {
	By ident.Identity `json:"by"`
}

func (CollectionCreated) Kind() string { return KindCollectionCreated }
func (SplitterCreated) Kind() string   { return KindSplitterCreated }
func (TypeUpdated) Kind() string       { return KindTypeUpdated }
func (OwnerUpdated) Kind() string      { return KindOwnerUpdated }
func (e RoleUpdated) Kind() string     { return e.Role + "_updated" }
func (Paused) Kind() string            { return KindPaused }
func (Unpaused) Kind() string          { return KindUnpaused }

// Entry is a committed event with its log position.
type Entry struct {
	Seq    uint64 `json:"seq"`
	Height uint64 `json:"height"`
	Event  Event  `json:"event"`
}

// Encode turns ev into a registry log entry at height.
func Encode(ev Event, height uint64) (registry.LogEntry, error) {
	if ev == nil {
		return registry.LogEntry{}, ErrNilEvent
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return registry.LogEntry{}, fmt.Errorf("event: encode %s: %w", ev.Kind(), err)
	}
	return registry.LogEntry{Height: height, Kind: ev.Kind(), Payload: payload}, nil
}

// Decode turns a registry log entry back into an Entry.
func Decode(le registry.LogEntry) (Entry, error) {
	var ev Event
	var err error
	switch le.Kind {
	case KindCollectionCreated:
		ev, err = decodeAs[CollectionCreated](le.Payload)
	case KindSplitterCreated:
		ev, err = decodeAs[SplitterCreated](le.Payload)
	case KindTypeUpdated:
		ev, err = decodeAs[TypeUpdated](le.Payload)
	case KindOwnerUpdated:
		ev, err = decodeAs[OwnerUpdated](le.Payload)
	case KindMarketUpdated, KindRouterUpdated, KindSignerUpdated, KindGateTokenUpdated:
		ev, err = decodeAs[RoleUpdated](le.Payload)
	case KindPaused:
		ev, err = decodeAs[Paused](le.Payload)
	case KindUnpaused:
		ev, err = decodeAs[Unpaused](le.Payload)
	default:
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownKind, le.Kind)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("event: decode %s: %w", le.Kind, err)
	}
	return Entry{Seq: le.Seq, Height: le.Height, Event: ev}, nil
}

func decodeAs[T Event](payload []byte) (Event, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// MarshalJSON includes the event kind next to its body.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Seq    uint64 `json:"seq"`
		Height uint64 `json:"height"`
		Kind   string `json:"kind"`
		Event  Event  `json:"event"`
	}{e.Seq, e.Height, e.Event.Kind(), e.Event})
}
