package access

import (
	"context"
	"sync"

	"github.com/bitfsorg/libfactory-go/ident"
)

// Policy decides whether user may create collections, judged against the
// gate token configured on the factory.
type Policy interface {
	CreatorAuth(ctx context.Context, token, user ident.Identity) (bool, error)
}

// OpenPolicy authorizes everyone.
type OpenPolicy struct{}

// CreatorAuth implements Policy.
func (OpenPolicy) CreatorAuth(context.Context, ident.Identity, ident.Identity) (bool, error) {
	return true, nil
}

// BalanceReader reports how many units of token user holds.
type BalanceReader interface {
	BalanceOf(ctx context.Context, token, user ident.Identity) (uint64, error)
}

// HoldingPolicy authorizes users whose token balance lies in [Min, Max].
type HoldingPolicy struct {
	Balances BalanceReader
	Min      uint64 // 0 is treated as 1
	Max      uint64 // 0 = unbounded
}

// CreatorAuth implements Policy.
func (p HoldingPolicy) CreatorAuth(ctx context.Context, token, user ident.Identity) (bool, error) {
	if p.Balances == nil {
		return false, nil
	}
	bal, err := p.Balances.BalanceOf(ctx, token, user)
	if err != nil {
		return false, err
	}
	floor := p.Min
	if floor == 0 {
		floor = 1
	}
	if p.Max != 0 && bal > p.Max {
		return false, nil
	}
	return bal >= floor, nil
}

// AllowList authorizes a fixed set of users regardless of token.
type AllowList struct {
	mu    sync.RWMutex
	users map[ident.Identity]struct{}
}

// NewAllowList creates an AllowList with users.
func NewAllowList(users ...ident.Identity) *AllowList {
	a := &AllowList{users: make(map[ident.Identity]struct{}, len(users))}
	for _, u := range users {
		a.users[u] = struct{}{}
	}
	return a
}

// Add authorizes user.
func (a *AllowList) Add(user ident.Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[user] = struct{}{}
}

// CreatorAuth implements Policy.
func (a *AllowList) CreatorAuth(_ context.Context, _, user ident.Identity) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.users[user]
	return ok, nil
}

// Balances is an in-memory BalanceReader.
type Balances struct {
	mu   sync.RWMutex
	held map[[2 * ident.Size]byte]uint64
}

// NewBalances creates an empty ledger of balances.
func NewBalances() *Balances {
	return &Balances{held: make(map[[2 * ident.Size]byte]uint64)}
}

func balanceKey(token, user ident.Identity) [2 * ident.Size]byte {
	var k [2 * ident.Size]byte
	copy(k[:ident.Size], token[:])
	copy(k[ident.Size:], user[:])
	return k
}

// Set records that user holds n units of token.
func (b *Balances) Set(token, user ident.Identity, n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.held[balanceKey(token, user)] = n
}

// BalanceOf implements BalanceReader.
func (b *Balances) BalanceOf(_ context.Context, token, user ident.Identity) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.held[balanceKey(token, user)], nil
}
