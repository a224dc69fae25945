package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/registry"
)

var (
	owner    = ident.FromLabel("owner")
	stranger = ident.FromLabel("stranger")
)

func TestRequireOwner(t *testing.T) {
	state := registry.AccessState{Owner: owner}
	assert.NoError(t, RequireOwner(state, owner))
	assert.ErrorIs(t, RequireOwner(state, stranger), ErrNotOwner)

	// No owner configured: nobody passes, including the zero identity.
	assert.ErrorIs(t, RequireOwner(registry.AccessState{}, ident.Zero), ErrNotOwner)
}

func TestAssign(t *testing.T) {
	for _, role := range []Role{RoleOwner, RoleRouter, RoleMarket, RoleSigner, RoleGateToken} {
		t.Run(role.String(), func(t *testing.T) {
			state := registry.AccessState{Owner: owner}
			who := ident.FromLabel(role.String())
			prev, err := Assign(&state, role, who)
			require.NoError(t, err)
			if role == RoleOwner {
				assert.Equal(t, owner, prev)
			} else {
				assert.True(t, prev.IsZero())
			}
			assert.Equal(t, who, Get(state, role))
		})
	}
}

func TestAssign_ZeroOwner(t *testing.T) {
	state := registry.AccessState{Owner: owner}
	_, err := Assign(&state, RoleOwner, ident.Zero)
	assert.ErrorIs(t, err, ErrZeroAddress)
	assert.Equal(t, owner, state.Owner)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("signer")
	require.NoError(t, err)
	assert.Equal(t, RoleSigner, r)

	_, err = ParseRole("admin")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestSetPaused(t *testing.T) {
	var state registry.AccessState
	assert.ErrorIs(t, SetPaused(&state, false), ErrNotPaused)
	require.NoError(t, SetPaused(&state, true))
	assert.ErrorIs(t, RequireActive(state), ErrPaused)
	assert.ErrorIs(t, SetPaused(&state, true), ErrAlreadyPaused)
	require.NoError(t, SetPaused(&state, false))
	assert.NoError(t, RequireActive(state))
}

func TestGuard(t *testing.T) {
	var g Guard
	assert.Equal(t, GuardUnset, g.State())

	require.NoError(t, g.Enter())
	assert.Equal(t, GuardEntered, g.State())
	assert.ErrorIs(t, g.Enter(), ErrReentrant)

	g.Exit()
	assert.Equal(t, GuardIdle, g.State())
	require.NoError(t, g.Enter())
	g.Exit()
}

func TestPolicies(t *testing.T) {
	ctx := context.Background()
	token := ident.FromLabel("og-token")
	holder := ident.FromLabel("holder")

	ok, err := OpenPolicy{}.CreatorAuth(ctx, token, stranger)
	require.NoError(t, err)
	assert.True(t, ok)

	bal := NewBalances()
	bal.Set(token, holder, 2)
	hp := HoldingPolicy{Balances: bal}
	ok, _ = hp.CreatorAuth(ctx, token, holder)
	assert.True(t, ok)
	ok, _ = hp.CreatorAuth(ctx, token, stranger)
	assert.False(t, ok)

	hp.Min = 3
	ok, _ = hp.CreatorAuth(ctx, token, holder)
	assert.False(t, ok)

	hp.Min, hp.Max = 1, 1
	ok, _ = hp.CreatorAuth(ctx, token, holder)
	assert.False(t, ok, "balance above Max")
	hp.Max = 2
	ok, _ = hp.CreatorAuth(ctx, token, holder)
	assert.True(t, ok)

	ok, _ = HoldingPolicy{}.CreatorAuth(ctx, token, holder)
	assert.False(t, ok)

	al := NewAllowList(holder)
	ok, _ = al.CreatorAuth(ctx, token, holder)
	assert.True(t, ok)
	ok, _ = al.CreatorAuth(ctx, token, stranger)
	assert.False(t, ok)
	al.Add(stranger)
	ok, _ = al.CreatorAuth(ctx, token, stranger)
	assert.True(t, ok)
}
