// Package access holds the factory's gatekeeping: owner checks over the
// persisted role state, the pause switch, the reentrancy guard, and the
// pluggable creator authorization policy.
package access

import (
	"fmt"
	"sync/atomic"

	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/registry"
)

// Role names a configurable address in AccessState.
type Role int

const (
	RoleOwner Role = iota
	RoleRouter
	RoleMarket
	RoleSigner
	RoleGateToken
)

// String returns a human-readable representation of the role.
func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleRouter:
		return "router"
	case RoleMarket:
		return "market"
	case RoleSigner:
		return "signer"
	case RoleGateToken:
		return "gate_token"
	default:
		return "unknown"
	}
}

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, error) {
	for r := RoleOwner; r <= RoleGateToken; r++ {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// RequireOwner fails with ErrNotOwner unless caller is the current owner.
func RequireOwner(state registry.AccessState, caller ident.Identity) error {
	if state.Owner.IsZero() || caller != state.Owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	return nil
}

// RequireActive fails with ErrPaused while the factory is paused.
func RequireActive(state registry.AccessState) error {
	if state.Paused {
		return ErrPaused
	}
	return nil
}

// Get returns the address currently holding role.
func Get(state registry.AccessState, role Role) ident.Identity {
	switch role {
	case RoleOwner:
		return state.Owner
	case RoleRouter:
		return state.Router
	case RoleMarket:
		return state.Market
	case RoleSigner:
		return state.Signer
	case RoleGateToken:
		return state.GateToken
	}
	return ident.Zero
}

// Assign sets role to who and returns the previous holder.
// The owner role cannot be handed to the zero identity.
func Assign(state *registry.AccessState, role Role, who ident.Identity) (ident.Identity, error) {
	prev := Get(*state, role)
	switch role {
	case RoleOwner:
		if who.IsZero() {
			return prev, fmt.Errorf("%w: owner", ErrZeroAddress)
		}
		state.Owner = who
	case RoleRouter:
		state.Router = who
	case RoleMarket:
		state.Market = who
	case RoleSigner:
		state.Signer = who
	case RoleGateToken:
		state.GateToken = who
	default:
		return prev, fmt.Errorf("%w: %d", ErrUnknownRole, role)
	}
	return prev, nil
}

// SetPaused flips the pause switch. It fails when already in the target state.
func SetPaused(state *registry.AccessState, paused bool) error {
	if state.Paused == paused {
		if paused {
			return ErrAlreadyPaused
		}
		return ErrNotPaused
	}
	state.Paused = paused
	return nil
}

// GuardState is the reentrancy guard's tri-state flag.
type GuardState int32

const (
	// GuardUnset is the state before the first entry.
	GuardUnset GuardState = iota
	// GuardIdle means no guarded call is in progress.
	GuardIdle
	// GuardEntered means a guarded call is in progress.
	GuardEntered
)

// Guard rejects nested entry into guarded calls.
type Guard struct {
	state atomic.Int32
}

// Enter marks a guarded call as in progress. It fails with ErrReentrant if
// one already is.
func (g *Guard) Enter() error {
	for {
		cur := g.state.Load()
		if cur == int32(GuardEntered) {
			return ErrReentrant
		}
		if g.state.CompareAndSwap(cur, int32(GuardEntered)) {
			return nil
		}
	}
}

// Exit marks the guarded call finished.
func (g *Guard) Exit() {
	g.state.Store(int32(GuardIdle))
}

// State returns the current flag.
func (g *Guard) State() GuardState {
	return GuardState(g.state.Load())
}
