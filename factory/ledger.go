package factory

import (
	"context"

	"github.com/bitfsorg/libfactory-go/access"
	"github.com/bitfsorg/libfactory-go/event"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/registry"
	"github.com/bitfsorg/libfactory-go/split"
)

// Ledger serializes concurrent callers in front of a Factory.
//
// State-changing calls run one at a time; a caller waiting for its turn
// gives up when its context is done. Reads never wait: they observe the last
// committed state, so they run alongside a write without seeing its partial
// effects.
//
// A builder that calls back into the Ledger with the context it was given
// is recognized as re-entrant: the call bypasses the queue and is rejected
// by the Factory with ErrReentrancy, failing the outer call too.
type Ledger struct {
	turn chan struct{}
	f    *Factory
	read *Factory
}

// NewLedger wraps f.
func NewLedger(f *Factory) *Ledger {
	return &Ledger{
		turn: make(chan struct{}, 1),
		f:    f,
		read: f.committed(),
	}
}

// Factory returns the wrapped factory. Callers must not use it concurrently
// with the Ledger.
func (l *Ledger) Factory() *Factory { return l.f }

// Self returns the factory's deployer identity.
func (l *Ledger) Self() ident.Identity { return l.f.Self() }

// acquire waits for the write turn. A context issued by the factory during
// a call skips the wait so the factory can reject the nested call itself.
func (l *Ledger) acquire(ctx context.Context) (func(), error) {
	if l.f.InCall(ctx) {
		return func() {}, nil
	}
	select {
	case l.turn <- struct{}{}:
		return func() { <-l.turn }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CreateCollection serializes Factory.CreateCollection.
func (l *Ledger) CreateCollection(ctx context.Context, caller ident.Identity, p CreateParams) (Created, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return Created{}, err
	}
	defer release()
	return l.f.CreateCollection(ctx, caller, p)
}

// SplitterCheck serializes Factory.SplitterCheck.
func (l *Ledger) SplitterCheck(ctx context.Context, caller ident.Identity, salt string, ambassador, project ident.Identity, ambassadorShare, projectShare uint64) (split.Record, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return split.Record{}, err
	}
	defer release()
	return l.f.SplitterCheck(ctx, caller, salt, ambassador, project, ambassadorShare, projectShare)
}

// owned runs an owner call in the write turn.
func (l *Ledger) owned(ctx context.Context, fn func() error) error {
	release, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// SetRole serializes Factory.SetRole.
func (l *Ledger) SetRole(ctx context.Context, caller ident.Identity, role access.Role, who ident.Identity) error {
	return l.owned(ctx, func() error { return l.f.SetRole(caller, role, who) })
}

// AddColType serializes Factory.AddColType.
func (l *Ledger) AddColType(ctx context.Context, caller ident.Identity, index uint8, handle ident.Identity) error {
	return l.owned(ctx, func() error { return l.f.AddColType(caller, index, handle) })
}

// ReplaceColType serializes Factory.ReplaceColType.
func (l *Ledger) ReplaceColType(ctx context.Context, caller ident.Identity, index uint8, handle ident.Identity) error {
	return l.owned(ctx, func() error { return l.f.ReplaceColType(caller, index, handle) })
}

// InstallDefaultTypes serializes Factory.InstallDefaultTypes.
func (l *Ledger) InstallDefaultTypes(ctx context.Context, caller ident.Identity) error {
	return l.owned(ctx, func() error { return l.f.InstallDefaultTypes(caller) })
}

// Pause serializes Factory.Pause.
func (l *Ledger) Pause(ctx context.Context, caller ident.Identity) error {
	return l.owned(ctx, func() error { return l.f.Pause(caller) })
}

// Unpause serializes Factory.Unpause.
func (l *Ledger) Unpause(ctx context.Context, caller ident.Identity) error {
	return l.owned(ctx, func() error { return l.f.Unpause(caller) })
}

// ColInfo returns the committed record for id.
func (l *Ledger) ColInfo(id registry.ColID) (registry.CollectionRecord, error) {
	return l.read.ColInfo(id)
}

// ColTypes returns the builder handle committed for index.
func (l *Ledger) ColTypes(index uint8) (ident.Identity, error) {
	return l.read.ColTypes(index)
}

// Types lists the committed type table.
func (l *Ledger) Types() ([]registry.TypeEntry, error) {
	return l.read.Types()
}

// TypeChecker returns the variant of a committed collection.
func (l *Ledger) TypeChecker(id registry.ColID) (uint8, bool, error) {
	return l.read.TypeChecker(id)
}

// GetColID derives the collection id of addr.
func (l *Ledger) GetColID(addr ident.Identity) registry.ColID {
	return l.read.GetColID(addr)
}

// GetDeployedAddr predicts the address deployer gets for salt.
func (l *Ledger) GetDeployedAddr(salt string, deployer ident.Identity) ident.Identity {
	return l.read.GetDeployedAddr(salt, deployer)
}

// GetIDsLength returns how many collections creator has.
func (l *Ledger) GetIDsLength(creator ident.Identity) (uint64, error) {
	return l.read.GetIDsLength(creator)
}

// UserTokens returns creator's collection at pos.
func (l *Ledger) UserTokens(creator ident.Identity, pos uint64) (registry.ColID, error) {
	return l.read.UserTokens(creator, pos)
}

// UserCollections pages through creator's collections.
func (l *Ledger) UserCollections(creator ident.Identity, pos uint64, limit int) ([]registry.ColID, error) {
	return l.read.UserCollections(creator, pos, limit)
}

// SplitterInfo returns the committed splitter of the ordered pair.
func (l *Ledger) SplitterInfo(ambassador, project ident.Identity) (split.Record, error) {
	return l.read.SplitterInfo(ambassador, project)
}

// SplitterByAddress returns the committed splitter deployed at addr.
func (l *Ledger) SplitterByAddress(addr ident.Identity) (split.Record, error) {
	return l.read.SplitterByAddress(addr)
}

// SplitterPayouts distributes amount over the splitter at addr.
func (l *Ledger) SplitterPayouts(addr ident.Identity, amount uint64) ([]split.Payout, error) {
	return l.read.SplitterPayouts(addr, amount)
}

// CreatorCheck reports the creator of id and whether it is caller.
func (l *Ledger) CreatorCheck(caller ident.Identity, id registry.ColID) (ident.Identity, bool, error) {
	return l.read.CreatorCheck(caller, id)
}

// CreatorAuth asks the creator policy whether user may create under token.
func (l *Ledger) CreatorAuth(ctx context.Context, token, user ident.Identity) (bool, error) {
	return l.read.CreatorAuth(ctx, token, user)
}

// Roles returns the committed access state.
func (l *Ledger) Roles() (registry.AccessState, error) {
	return l.read.Roles()
}

// Height returns the committed height.
func (l *Ledger) Height() (uint64, error) {
	return l.read.Height()
}

// Events returns committed events starting at sequence from.
func (l *Ledger) Events(from uint64, limit int) ([]event.Entry, error) {
	return l.read.Events(from, limit)
}
