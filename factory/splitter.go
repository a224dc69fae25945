package factory

import (
	"context"
	"fmt"

	"github.com/bitfsorg/libfactory-go/access"
	"github.com/bitfsorg/libfactory-go/derive"
	"github.com/bitfsorg/libfactory-go/event"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/registry"
	"github.com/bitfsorg/libfactory-go/split"
)

// SplitterCheck returns the splitter bound to the ordered (ambassador,
// project) pair, deploying one under the caller-scoped salt if none exists.
//
// Reusing an existing pair is idempotent: no deployment, no event. Asking
// for an existing pair with different shares fails with ErrSplitterFail.
func (f *Factory) SplitterCheck(ctx context.Context, caller ident.Identity, salt string, ambassador, project ident.Identity, ambassadorShare, projectShare uint64) (split.Record, error) {
	var out split.Record
	created := false
	err := f.mutate(func(c *call) error {
		ctx := f.withinCall(ctx)
		state, err := c.tx.Access()
		if err != nil {
			return err
		}
		if err := access.RequireActive(state); err != nil {
			return fmt.Errorf("%w: %w", ErrPaused, err)
		}
		if err := split.ValidateShares(ambassador, project, ambassadorShare, projectShare); err != nil {
			return fmt.Errorf("%w: %w", ErrSplitterFail, err)
		}

		existing, err := c.tx.Splitter(ambassador, project)
		if err != nil {
			return err
		}
		if existing.Valid {
			if existing.AmbassadorShare != ambassadorShare || existing.ProjectShare != projectShare {
				return fmt.Errorf("%w: pair %s/%s already bound with shares %d/%d",
					ErrSplitterFail, ambassador, project, existing.AmbassadorShare, existing.ProjectShare)
			}
			out = existing
			return nil
		}

		s := derive.SaltFromString(salt)
		expected := f.predict(caller, s)
		rec := split.Record{
			Salt:            s,
			Ambassador:      ambassador,
			Project:         project,
			AmbassadorShare: ambassadorShare,
			ProjectShare:    projectShare,
			Valid:           true,
			Creator:         caller,
			CreatedAtHeight: c.height,
		}
		payees := rec.Payees()

		d := &txDeployer{f: f, c: c}
		addr, err := f.splitters.BuildSplitter(ctx, d, derive.Scoped(caller, s), payees)
		d.closed = true
		if err != nil {
			return fmt.Errorf("%w: splitter: %w", ErrConstruction, err)
		}
		if addr.IsZero() || addr != expected {
			return fmt.Errorf("%w: splitter returned %s, expected %s", ErrConstruction, addr, expected)
		}
		rec.Address = addr
		if err := c.tx.PutSplitter(rec); err != nil {
			return err
		}

		c.emit(event.SplitterCreated{
			Splitter:   addr,
			Creator:    caller,
			Ambassador: ambassador,
			Project:    project,
			Salt:       salt,
			Payees:     payees,
		})
		out = rec
		created = true
		return nil
	})
	if err != nil {
		f.log.Debug().Err(err).Stringer("caller", caller).Msg("splitter check failed")
		return split.Record{}, err
	}
	if created {
		f.log.Info().
			Stringer("splitter", out.Address).
			Stringer("ambassador", ambassador).
			Stringer("project", project).
			Msg("splitter created")
	}
	return out, nil
}

// SplitterInfo returns the record for the ordered pair, or the zero record.
func (f *Factory) SplitterInfo(ambassador, project ident.Identity) (split.Record, error) {
	var out split.Record
	err := f.view(func(tx registry.Tx) error {
		var err error
		out, err = tx.Splitter(ambassador, project)
		return err
	})
	return out, err
}

// SplitterByAddress returns the record deployed at addr, or the zero record.
func (f *Factory) SplitterByAddress(addr ident.Identity) (split.Record, error) {
	var out split.Record
	err := f.view(func(tx registry.Tx) error {
		var err error
		out, err = tx.SplitterByAddress(addr)
		return err
	})
	return out, err
}

// SplitterPayouts computes how amount received by the splitter at addr is
// divided among its payees.
func (f *Factory) SplitterPayouts(addr ident.Identity, amount uint64) ([]split.Payout, error) {
	rec, err := f.SplitterByAddress(addr)
	if err != nil {
		return nil, err
	}
	if !rec.Valid {
		return nil, fmt.Errorf("%w: unknown splitter %s", ErrSplitterFail, addr)
	}
	return split.Distribute(amount, rec.Payees())
}
