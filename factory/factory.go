// Package factory is the orchestrating core: it composes address derivation,
// the type dispatch table, the collection and splitter registries, and the
// access controller into atomic entry points that emit lifecycle events.
//
// Factory is the contract itself. It executes one call at a time and is not
// safe for concurrent use; Ledger linearizes concurrent callers in front of
// it. Builders receive the Factory only through their own side effects, and
// any state-changing call they make back into it fails with ErrReentrancy.
package factory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/bitfsorg/libfactory-go/access"
	"github.com/bitfsorg/libfactory-go/builder"
	"github.com/bitfsorg/libfactory-go/derive"
	"github.com/bitfsorg/libfactory-go/event"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/registry"
)

// RoyaltyDenominator is the royalty basis; royalties are basis points.
const RoyaltyDenominator uint64 = 10_000

// Options configure a Factory. Zero fields get defaults.
type Options struct {
	// Self is the factory's own deployer identity.
	Self ident.Identity

	// Owner is installed when the store has no owner yet.
	Owner ident.Identity

	Deriver   derive.Deriver          // default derive.Create2
	Builders  *builder.Set            // default builder.Default()
	Splitters builder.SplitterBuilder // default builder.Splitter
	Policy    access.Policy           // default access.OpenPolicy
	Sink      event.Sink              // optional
	Logger    *zerolog.Logger         // default zerolog.Nop()
}

// Factory is the deterministic collection factory and splitter registry.
type Factory struct {
	self      ident.Identity
	store     registry.Store
	deriver   derive.Deriver
	builders  *builder.Set
	splitters builder.SplitterBuilder
	policy    access.Policy
	sink      event.Sink
	log       zerolog.Logger

	guard     access.Guard
	reentered atomic.Bool
	active    *call

	// committedOnly views ignore the in-flight call; see committed.
	committedOnly bool
}

// New creates a Factory over store. If the store has no owner and
// opts.Owner is set, ownership is initialized in its own transaction.
func New(store registry.Store, opts Options) (*Factory, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidParams)
	}
	if opts.Self.IsZero() {
		opts.Self = ident.FromLabel("libfactory")
	}
	if opts.Deriver == nil {
		opts.Deriver = derive.Create2{}
	}
	if opts.Builders == nil {
		opts.Builders = builder.Default()
	}
	if opts.Splitters == nil {
		opts.Splitters = builder.Splitter{}
	}
	if opts.Policy == nil {
		opts.Policy = access.OpenPolicy{}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	f := &Factory{
		self:      opts.Self,
		store:     store,
		deriver:   opts.Deriver,
		builders:  opts.Builders,
		splitters: opts.Splitters,
		policy:    opts.Policy,
		sink:      opts.Sink,
		log:       logger.With().Str("component", "factory").Logger(),
	}

	if !opts.Owner.IsZero() {
		if err := f.bootstrap(opts.Owner); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Self returns the factory's deployer identity.
func (f *Factory) Self() ident.Identity { return f.self }

// Builders returns the builder set the type table resolves against.
func (f *Factory) Builders() *builder.Set { return f.builders }

func (f *Factory) bootstrap(owner ident.Identity) error {
	return f.mutate(func(c *call) error {
		state, err := c.tx.Access()
		if err != nil {
			return err
		}
		if !state.Owner.IsZero() {
			return nil
		}
		state.Owner = owner
		if err := c.tx.PutAccess(state); err != nil {
			return err
		}
		c.emit(event.OwnerUpdated{New: owner})
		f.log.Info().Stringer("owner", owner).Msg("owner initialized")
		return nil
	})
}

// call is the state of one in-flight state-changing entry point.
type call struct {
	tx     registry.Tx
	height uint64
	events []event.Event
}

func (c *call) emit(ev event.Event) {
	c.events = append(c.events, ev)
}

// mutate runs fn as one guarded, atomic unit. Events are persisted in the
// same transaction and published to the sink only after commit. A call that
// emits nothing leaves the height unchanged.
func (f *Factory) mutate(fn func(c *call) error) error {
	if err := f.guard.Enter(); err != nil {
		f.reentered.Store(true)
		f.log.Warn().Msg("rejected reentrant call")
		return fmt.Errorf("%w: %w", ErrReentrancy, err)
	}
	f.reentered.Store(false)
	defer f.guard.Exit()

	var committed []event.Entry
	err := f.store.Update(func(tx registry.Tx) error {
		h, err := tx.Height()
		if err != nil {
			return err
		}
		c := &call{tx: tx, height: h + 1}
		f.active = c
		defer func() { f.active = nil }()

		fnErr := fn(c)
		if f.reentered.Load() {
			// A nested call was attempted; the outer call fails even if
			// the collaborator swallowed the rejection.
			return ErrReentrancy
		}
		if fnErr != nil {
			return fnErr
		}
		if len(c.events) == 0 {
			return nil
		}
		if err := tx.SetHeight(c.height); err != nil {
			return err
		}
		committed = committed[:0]
		for _, ev := range c.events {
			le, err := event.Encode(ev, c.height)
			if err != nil {
				return err
			}
			seq, err := tx.AppendLog(le)
			if err != nil {
				return err
			}
			committed = append(committed, event.Entry{Seq: seq, Height: c.height, Event: ev})
		}
		return nil
	})
	if err != nil {
		return err
	}
	if f.sink != nil && len(committed) > 0 {
		f.sink.Publish(committed)
	}
	return nil
}

// view runs fn against committed state, or against the in-flight
// transaction when called from inside a state-changing call.
func (f *Factory) view(fn func(tx registry.Tx) error) error {
	if !f.committedOnly {
		if c := f.active; c != nil {
			return fn(c.tx)
		}
	}
	return f.store.View(fn)
}

// committed returns a read-only Factory over the same store that always
// reads the last committed state. It never touches f's call state, so it
// is safe to use from any goroutine while f is inside a call.
func (f *Factory) committed() *Factory {
	return &Factory{
		self:          f.self,
		store:         f.store,
		deriver:       f.deriver,
		builders:      f.builders,
		splitters:     f.splitters,
		policy:        f.policy,
		log:           f.log,
		committedOnly: true,
	}
}

type callKey struct{}

// withinCall marks ctx as belonging to a call running on f. Builders and
// policies receive the marked context.
func (f *Factory) withinCall(ctx context.Context) context.Context {
	return context.WithValue(ctx, callKey{}, f)
}

// InCall reports whether ctx was handed out by f during a state-changing
// call, i.e. whether the holder is running inside that call.
func (f *Factory) InCall(ctx context.Context) bool {
	owner, _ := ctx.Value(callKey{}).(*Factory)
	return owner == f
}

// txDeployer places instances inside the caller's transaction.
type txDeployer struct {
	f      *Factory
	c      *call
	closed bool
}

// Deploy implements builder.Deployer.
func (d *txDeployer) Deploy(ctx context.Context, salt derive.Salt, kind string, code derive.Fingerprint) (ident.Identity, error) {
	if d.closed {
		return ident.Zero, ErrDeployerClosed
	}
	if err := ctx.Err(); err != nil {
		return ident.Zero, err
	}
	addr := d.f.deriver.Derive(d.f.self, salt, derive.ProxyFingerprint)
	err := d.c.tx.PutDeployment(registry.Deployment{
		Address:     addr,
		Deployer:    d.f.self,
		Kind:        kind,
		Fingerprint: code,
		Height:      d.c.height,
	})
	if err != nil {
		return ident.Zero, err
	}
	return addr, nil
}

// predict returns the address an instance deployed by owner under salt lands on.
func (f *Factory) predict(owner ident.Identity, salt derive.Salt) ident.Identity {
	return f.deriver.Derive(f.self, derive.Scoped(owner, salt), derive.ProxyFingerprint)
}
