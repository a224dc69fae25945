package factory

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfsorg/libfactory-go/access"
	"github.com/bitfsorg/libfactory-go/builder"
	"github.com/bitfsorg/libfactory-go/derive"
	"github.com/bitfsorg/libfactory-go/event"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/registry"
)

// CreateParams are the inputs of CreateCollection.
type CreateParams struct {
	Variant    uint8          `json:"variant"`
	Salt       string         `json:"salt"`
	Name       string         `json:"name"`
	Symbol     string         `json:"symbol"`
	Price      uint64         `json:"price"`
	MaxSupply  uint64         `json:"max_supply"`
	BaseURI    string         `json:"base_uri"`
	Splitter   ident.Identity `json:"splitter"` // zero = none
	RoyaltyBps uint64         `json:"royalty_bps"`
	Extra      [][]byte       `json:"extra,omitempty"`
}

// Created describes a successfully recorded collection.
type Created struct {
	ColID   registry.ColID            `json:"col_id"`
	Record  registry.CollectionRecord `json:"record"`
	Fields  []builder.Field           `json:"fields"`
	Kind    string                    `json:"kind"`
	Address ident.Identity            `json:"address"`
}

// CreateCollection deploys a collection of the requested variant through
// its registered builder and records it under an id derived from the
// deployed address. Either every write of the call lands or none does.
func (f *Factory) CreateCollection(ctx context.Context, caller ident.Identity, p CreateParams) (Created, error) {
	var out Created
	err := f.mutate(func(c *call) error {
		ctx := f.withinCall(ctx)
		state, err := c.tx.Access()
		if err != nil {
			return err
		}
		if err := access.RequireActive(state); err != nil {
			return fmt.Errorf("%w: %w", ErrPaused, err)
		}
		if err := f.authorizeCreator(ctx, state, caller); err != nil {
			return err
		}
		if p.RoyaltyBps > RoyaltyDenominator {
			return fmt.Errorf("%w: %d > %d", ErrInvalidRoyalty, p.RoyaltyBps, RoyaltyDenominator)
		}
		if p.Name == "" || p.Symbol == "" {
			return fmt.Errorf("%w: name and symbol are required", ErrInvalidParams)
		}

		b, err := f.resolveBuilder(c.tx, p.Variant)
		if err != nil {
			return err
		}

		salt := derive.SaltFromString(p.Salt)
		expected := f.predict(caller, salt)

		d := &txDeployer{f: f, c: c}
		res, err := b.Build(ctx, d, builder.Params{
			Creator:    caller,
			Variant:    p.Variant,
			Salt:       derive.Scoped(caller, salt),
			Name:       p.Name,
			Symbol:     p.Symbol,
			Price:      p.Price,
			MaxSupply:  p.MaxSupply,
			BaseURI:    p.BaseURI,
			Splitter:   p.Splitter,
			RoyaltyBps: p.RoyaltyBps,
			Extra:      p.Extra,
		})
		d.closed = true
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrConstruction, b.Kind(), err)
		}
		if res.Address.IsZero() || res.Address != expected {
			return fmt.Errorf("%w: %s returned %s, expected %s", ErrConstruction, b.Kind(), res.Address, expected)
		}
		if _, deployed, err := c.tx.Deployment(res.Address); err != nil {
			return err
		} else if !deployed {
			return fmt.Errorf("%w: %s returned undeployed address %s", ErrConstruction, b.Kind(), res.Address)
		}

		id := registry.ColIDFromAddress(res.Address)
		rec := registry.CollectionRecord{
			Address:         res.Address,
			Creator:         caller,
			Variant:         p.Variant,
			Salt:            salt,
			CreatedAtHeight: c.height,
			Splitter:        p.Splitter,
		}
		if err := c.tx.PutCollection(id, rec); err != nil {
			return err
		}
		if err := c.tx.AppendCreator(caller, id); err != nil {
			return err
		}

		if !p.Splitter.IsZero() {
			sr, err := c.tx.SplitterByAddress(p.Splitter)
			if err != nil {
				return err
			}
			if !sr.Valid {
				return fmt.Errorf("%w: unknown splitter %s", ErrSplitterFail, p.Splitter)
			}
		}

		c.emit(event.CollectionCreated{
			ColID:       id,
			Collection:  res.Address,
			Creator:     caller,
			Splitter:    p.Splitter,
			Variant:     p.Variant,
			VariantKind: b.Kind(),
			Salt:        p.Salt,
			Name:        p.Name,
			Symbol:      p.Symbol,
			BaseURI:     p.BaseURI,
			Fields:      res.Fields,
		})
		out = Created{ColID: id, Record: rec, Fields: res.Fields, Kind: b.Kind(), Address: res.Address}
		return nil
	})
	if err != nil {
		f.log.Debug().Err(err).Stringer("caller", caller).Uint8("variant", p.Variant).Msg("create collection failed")
		return Created{}, err
	}
	f.log.Info().
		Stringer("col_id", out.ColID).
		Stringer("creator", caller).
		Str("kind", out.Kind).
		Uint64("height", out.Record.CreatedAtHeight).
		Msg("collection created")
	return out, nil
}

func (f *Factory) authorizeCreator(ctx context.Context, state registry.AccessState, caller ident.Identity) error {
	if state.GateToken.IsZero() {
		return nil
	}
	ok, err := f.policy.CreatorAuth(ctx, state.GateToken, caller)
	if err != nil {
		return fmt.Errorf("%w: creator policy: %w", ErrAccessDenied, err)
	}
	if !ok {
		return fmt.Errorf("%w: %w: %s", ErrAccessDenied, access.ErrUnauthorized, caller)
	}
	return nil
}

// resolveBuilder maps a variant index to its implementation.
func (f *Factory) resolveBuilder(tx registry.Tx, variant uint8) (builder.Builder, error) {
	entry, ok, err := tx.Type(variant)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidType, variant)
	}
	b, ok := f.builders.Lookup(entry.Builder)
	if !ok {
		return nil, fmt.Errorf("%w: no implementation for builder %s (type %d)", ErrConstruction, entry.Builder, variant)
	}
	return b, nil
}

// ParseVariant converts an externally supplied index, rejecting values
// outside the dispatch table's range.
func ParseVariant(n int64) (uint8, error) {
	if n < 0 || n > MaxColType {
		return 0, fmt.Errorf("%w: %d out of range [0, %d]", ErrInvalidType, n, MaxColType)
	}
	return uint8(n), nil
}

// MaxColType is the largest variant index.
const MaxColType = 255

// IsConstructionFailure reports whether err came from a collaborator
// rather than from input validation.
func IsConstructionFailure(err error) bool {
	return errors.Is(err, ErrConstruction)
}
