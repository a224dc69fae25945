package factory

import (
	"context"

	"github.com/bitfsorg/libfactory-go/access"
	"github.com/bitfsorg/libfactory-go/derive"
	"github.com/bitfsorg/libfactory-go/event"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/registry"
)

// ColInfo returns the record for id, or the zero record.
func (f *Factory) ColInfo(id registry.ColID) (registry.CollectionRecord, error) {
	var out registry.CollectionRecord
	err := f.view(func(tx registry.Tx) error {
		var err error
		out, err = tx.Collection(id)
		return err
	})
	return out, err
}

// ColTypes returns the builder handle bound to index, or the zero identity.
func (f *Factory) ColTypes(index uint8) (ident.Identity, error) {
	var out ident.Identity
	err := f.view(func(tx registry.Tx) error {
		entry, ok, err := tx.Type(index)
		if ok {
			out = entry.Builder
		}
		return err
	})
	return out, err
}

// Types lists every bound variant index.
func (f *Factory) Types() ([]registry.TypeEntry, error) {
	var out []registry.TypeEntry
	err := f.view(func(tx registry.Tx) error {
		var err error
		out, err = tx.Types()
		return err
	})
	return out, err
}

// TypeChecker returns the variant a collection was created with.
func (f *Factory) TypeChecker(id registry.ColID) (uint8, bool, error) {
	rec, err := f.ColInfo(id)
	if err != nil || rec.IsZero() {
		return 0, false, err
	}
	return rec.Variant, true, nil
}

// GetColID returns the id a collection deployed at addr is recorded under.
func (f *Factory) GetColID(addr ident.Identity) registry.ColID {
	return registry.ColIDFromAddress(addr)
}

// GetDeployedAddr predicts where deployer's instance for salt will land.
func (f *Factory) GetDeployedAddr(salt string, deployer ident.Identity) ident.Identity {
	return f.predict(deployer, derive.SaltFromString(salt))
}

// GetIDsLength returns how many collections creator has made.
func (f *Factory) GetIDsLength(creator ident.Identity) (uint64, error) {
	var n uint64
	err := f.view(func(tx registry.Tx) error {
		var err error
		n, err = tx.CreatorLen(creator)
		return err
	})
	return n, err
}

// UserTokens returns creator's collection at position pos.
func (f *Factory) UserTokens(creator ident.Identity, pos uint64) (registry.ColID, error) {
	var id registry.ColID
	err := f.view(func(tx registry.Tx) error {
		var err error
		id, err = tx.CreatorAt(creator, pos)
		return err
	})
	return id, err
}

// UserCollections returns up to limit of creator's collections starting at pos.
func (f *Factory) UserCollections(creator ident.Identity, pos uint64, limit int) ([]registry.ColID, error) {
	var out []registry.ColID
	err := f.view(func(tx registry.Tx) error {
		n, err := tx.CreatorLen(creator)
		if err != nil {
			return err
		}
		for i := pos; i < n && (limit <= 0 || len(out) < limit); i++ {
			id, err := tx.CreatorAt(creator, i)
			if err != nil {
				return err
			}
			out = append(out, id)
		}
		return nil
	})
	return out, err
}

// CreatorCheck returns the creator of id and whether it is caller.
func (f *Factory) CreatorCheck(caller ident.Identity, id registry.ColID) (ident.Identity, bool, error) {
	rec, err := f.ColInfo(id)
	if err != nil {
		return ident.Zero, false, err
	}
	return rec.Creator, !rec.IsZero() && rec.Creator == caller, nil
}

// CreatorAuth asks the creator policy whether user may create under token.
func (f *Factory) CreatorAuth(ctx context.Context, token, user ident.Identity) (bool, error) {
	return f.policy.CreatorAuth(ctx, token, user)
}

// Roles returns the current role state.
func (f *Factory) Roles() (registry.AccessState, error) {
	var out registry.AccessState
	err := f.view(func(tx registry.Tx) error {
		var err error
		out, err = tx.Access()
		return err
	})
	return out, err
}

func (f *Factory) role(r access.Role) (ident.Identity, error) {
	state, err := f.Roles()
	if err != nil {
		return ident.Zero, err
	}
	return access.Get(state, r), nil
}

// Owner returns the owner.
func (f *Factory) Owner() (ident.Identity, error) { return f.role(access.RoleOwner) }

// Market returns the marketplace address.
func (f *Factory) Market() (ident.Identity, error) { return f.role(access.RoleMarket) }

// Router returns the router address.
func (f *Factory) Router() (ident.Identity, error) { return f.role(access.RoleRouter) }

// Signer returns the signer address.
func (f *Factory) Signer() (ident.Identity, error) { return f.role(access.RoleSigner) }

// GateToken returns the creation gate token.
func (f *Factory) GateToken() (ident.Identity, error) { return f.role(access.RoleGateToken) }

// Paused reports whether creation is paused.
func (f *Factory) Paused() (bool, error) {
	state, err := f.Roles()
	return state.Paused, err
}

// Height returns the number of committed state-changing calls that emitted events.
func (f *Factory) Height() (uint64, error) {
	var h uint64
	err := f.view(func(tx registry.Tx) error {
		var err error
		h, err = tx.Height()
		return err
	})
	return h, err
}

// Events returns up to limit logged events with sequence >= from.
func (f *Factory) Events(from uint64, limit int) ([]event.Entry, error) {
	var out []event.Entry
	err := f.view(func(tx registry.Tx) error {
		logs, err := tx.Logs(from, limit)
		if err != nil {
			return err
		}
		out = make([]event.Entry, 0, len(logs))
		for _, le := range logs {
			e, err := event.Decode(le)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}
