// Package builder defines the pluggable constructors the factory dispatches
// to by variant index, and ships the built-in ERC-721 style variants.
//
// A builder never touches the registries. It receives the creation
// parameters and a Deployer bound to the caller's transaction, places its
// instance through the Deployer, and returns the resulting address plus the
// variant-specific fields that go into the creation event.
package builder

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bitfsorg/libfactory-go/derive"
	"github.com/bitfsorg/libfactory-go/ident"
)

// Params are the creation parameters handed to a builder.
type Params struct {
	Creator    ident.Identity
	Variant    uint8
	Salt       derive.Salt // already scoped to the creator
	Name       string
	Symbol     string
	Price      uint64
	MaxSupply  uint64
	BaseURI    string
	Splitter   ident.Identity
	RoyaltyBps uint64
	Extra      [][]byte
}

// Field is one variant-specific numeric value reported in the creation event.
type Field struct {
	Name  string `json:"name"`
	Value uint64 `json:"value"`
}

// Result is what a builder reports back after construction.
type Result struct {
	Address ident.Identity
	Fields  []Field
}

// Deployer places code instances. Implementations decide the address; a
// builder only chooses the salt it deploys under and the code it deploys.
type Deployer interface {
	Deploy(ctx context.Context, salt derive.Salt, kind string, code derive.Fingerprint) (ident.Identity, error)
}

// Builder constructs one collection variant.
type Builder interface {
	// Kind is the stable variant name, e.g. "erc721-basic".
	Kind() string

	// Build constructs an instance and returns its address.
	Build(ctx context.Context, d Deployer, p Params) (Result, error)
}

// Handle returns the identity a builder is registered under.
func Handle(b Builder) ident.Identity {
	return HandleOf(b.Kind())
}

// HandleOf returns the handle of the builder registered for kind.
func HandleOf(kind string) ident.Identity {
	return ident.FromLabel("builder:" + kind)
}

// Set maps builder handles to implementations. The factory's type table
// stores handles; the Set resolves them to code.
type Set struct {
	mu       sync.RWMutex
	builders map[ident.Identity]Builder
}

// NewSet creates a Set containing bs.
func NewSet(bs ...Builder) (*Set, error) {
	s := &Set{builders: make(map[ident.Identity]Builder)}
	for _, b := range bs {
		if _, err := s.Register(b); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register adds b and returns its handle.
func (s *Set) Register(b Builder) (ident.Identity, error) {
	if b == nil {
		return ident.Zero, ErrNilBuilder
	}
	h := Handle(b)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.builders[h]; exists {
		return ident.Zero, fmt.Errorf("%w: %s", ErrDuplicateBuilder, b.Kind())
	}
	s.builders[h] = b
	return h, nil
}

// Lookup resolves a handle.
func (s *Set) Lookup(h ident.Identity) (Builder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.builders[h]
	return b, ok
}

// Kinds lists the registered kinds in sorted order.
func (s *Set) Kinds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.builders))
	for _, b := range s.builders {
		out = append(out, b.Kind())
	}
	sort.Strings(out)
	return out
}

// Default returns a Set with every built-in variant registered.
func Default() *Set {
	s, err := NewSet(Minimal{}, Basic{}, Whitelist{}, Lazy{})
	if err != nil {
		panic("builder: default set: " + err.Error())
	}
	return s
}
