package factory

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/libfactory-go/access"
	"github.com/bitfsorg/libfactory-go/builder"
	"github.com/bitfsorg/libfactory-go/event"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/registry"
)

// ownerCall runs fn as an owner-only state change.
func (f *Factory) ownerCall(caller ident.Identity, action string, fn func(c *call, state *registry.AccessState) error) error {
	err := f.mutate(func(c *call) error {
		state, err := c.tx.Access()
		if err != nil {
			return err
		}
		if state.Owner.IsZero() {
			return fmt.Errorf("%w: %s", ErrNotInitialized, action)
		}
		if err := access.RequireOwner(state, caller); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrAccessDenied, action, err)
		}
		return fn(c, &state)
	})
	if err != nil {
		f.log.Warn().Err(err).Stringer("caller", caller).Str("action", action).Msg("owner action rejected")
		return err
	}
	f.log.Info().Stringer("caller", caller).Str("action", action).Msg("owner action")
	return nil
}

// SetOwner transfers ownership. The change is immediate.
func (f *Factory) SetOwner(caller, owner ident.Identity) error {
	return f.setRole(caller, access.RoleOwner, owner)
}

// SetMarket sets the marketplace address.
func (f *Factory) SetMarket(caller, market ident.Identity) error {
	return f.setRole(caller, access.RoleMarket, market)
}

// SetRouter sets the router address.
func (f *Factory) SetRouter(caller, router ident.Identity) error {
	return f.setRole(caller, access.RoleRouter, router)
}

// SetSigner sets the signer address.
func (f *Factory) SetSigner(caller, signer ident.Identity) error {
	return f.setRole(caller, access.RoleSigner, signer)
}

// SetGateToken sets the token consulted by the creator policy. The zero
// identity disables gating.
func (f *Factory) SetGateToken(caller, token ident.Identity) error {
	return f.setRole(caller, access.RoleGateToken, token)
}

// SetRole sets any role by value; it backs the admin endpoints.
func (f *Factory) SetRole(caller ident.Identity, role access.Role, who ident.Identity) error {
	return f.setRole(caller, role, who)
}

func (f *Factory) setRole(caller ident.Identity, role access.Role, who ident.Identity) error {
	return f.ownerCall(caller, "set_"+role.String(), func(c *call, state *registry.AccessState) error {
		prev, err := access.Assign(state, role, who)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		if err := c.tx.PutAccess(*state); err != nil {
			return err
		}
		if role == access.RoleGateToken && !who.IsZero() {
			if _, open := f.policy.(access.OpenPolicy); open {
				f.log.Warn().Stringer("token", who).Msg("gate token set but the creator policy admits everyone")
			}
		}
		if role == access.RoleOwner {
			c.emit(event.OwnerUpdated{Old: prev, New: who})
		} else {
			c.emit(event.RoleUpdated{Role: role.String(), Old: prev, New: who})
		}
		return nil
	})
}

// AddColType binds a new variant index to a builder handle. The handle
// must resolve in the factory's builder set.
func (f *Factory) AddColType(caller ident.Identity, index uint8, handle ident.Identity) error {
	return f.ownerCall(caller, "add_col_type", func(c *call, _ *registry.AccessState) error {
		if err := f.checkHandle(handle); err != nil {
			return err
		}
		_, exists, err := c.tx.Type(index)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %d", ErrTypeExists, index)
		}
		if err := c.tx.PutType(registry.TypeEntry{Index: index, Builder: handle}); err != nil {
			return err
		}
		c.emit(event.TypeUpdated{Index: index, Builder: handle})
		return nil
	})
}

// ReplaceColType rebinds an existing variant index. Collections already
// created keep their records; only future creations use the new builder.
func (f *Factory) ReplaceColType(caller ident.Identity, index uint8, handle ident.Identity) error {
	var prev ident.Identity
	err := f.ownerCall(caller, "replace_col_type", func(c *call, _ *registry.AccessState) error {
		if err := f.checkHandle(handle); err != nil {
			return err
		}
		entry, exists, err := c.tx.Type(index)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %d is not registered", ErrInvalidType, index)
		}
		prev = entry.Builder
		if err := c.tx.PutType(registry.TypeEntry{Index: index, Builder: handle}); err != nil {
			return err
		}
		c.emit(event.TypeUpdated{Index: index, Builder: handle, Previous: prev, Redefined: true})
		return nil
	})
	if err == nil {
		f.log.Warn().
			Uint8("index", index).
			Stringer("previous", prev).
			Stringer("builder", handle).
			Msg("collection type redefined")
	}
	return err
}

func (f *Factory) checkHandle(handle ident.Identity) error {
	if handle.IsZero() {
		return fmt.Errorf("%w: zero builder handle", ErrInvalidParams)
	}
	if _, ok := f.builders.Lookup(handle); !ok {
		return fmt.Errorf("%w: unknown builder %s", ErrInvalidParams, handle)
	}
	return nil
}

// Pause stops collection and splitter creation. Owner setters keep working.
func (f *Factory) Pause(caller ident.Identity) error {
	return f.ownerCall(caller, "pause", func(c *call, state *registry.AccessState) error {
		if err := access.SetPaused(state, true); err != nil {
			return translatePause(err)
		}
		if err := c.tx.PutAccess(*state); err != nil {
			return err
		}
		c.emit(event.Paused{By: caller})
		return nil
	})
}

// Unpause resumes creation.
func (f *Factory) Unpause(caller ident.Identity) error {
	return f.ownerCall(caller, "unpause", func(c *call, state *registry.AccessState) error {
		if err := access.SetPaused(state, false); err != nil {
			return translatePause(err)
		}
		if err := c.tx.PutAccess(*state); err != nil {
			return err
		}
		c.emit(event.Unpaused{By: caller})
		return nil
	})
}

func translatePause(err error) error {
	switch {
	case errors.Is(err, access.ErrAlreadyPaused):
		return fmt.Errorf("%w: %w", ErrAlreadyPaused, err)
	case errors.Is(err, access.ErrNotPaused):
		return fmt.Errorf("%w: %w", ErrNotPaused, err)
	}
	return err
}

// InstallDefaultTypes binds indices 0..n-1 to the built-in variants in the
// order minimal, basic, whitelist, lazy, skipping indices already bound.
func (f *Factory) InstallDefaultTypes(caller ident.Identity) error {
	defaults := []builder.Builder{builder.Minimal{}, builder.Basic{}, builder.Whitelist{}, builder.Lazy{}}
	return f.ownerCall(caller, "install_default_types", func(c *call, _ *registry.AccessState) error {
		for i, b := range defaults {
			handle := builder.Handle(b)
			if _, ok := f.builders.Lookup(handle); !ok {
				continue
			}
			_, exists, err := c.tx.Type(uint8(i))
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := c.tx.PutType(registry.TypeEntry{Index: uint8(i), Builder: handle}); err != nil {
				return err
			}
			c.emit(event.TypeUpdated{Index: uint8(i), Builder: handle})
		}
		return nil
	})
}
