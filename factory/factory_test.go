package factory

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libfactory-go/access"
	"github.com/bitfsorg/libfactory-go/builder"
	"github.com/bitfsorg/libfactory-go/event"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/registry"
)

var (
	owner    = ident.FromLabel("owner")
	creator1 = ident.FromLabel("creator-1")
	creator2 = ident.FromLabel("creator-2")
	amb      = ident.FromLabel("ambassador")
	proj     = ident.FromLabel("project")
)

type fixture struct {
	f     *Factory
	store registry.Store
	rec   *event.Recorder
}

// stores returns a fresh instance of every Store implementation.
func stores(t *testing.T) map[string]registry.Store {
	t.Helper()
	bolt, err := registry.OpenBoltStore(filepath.Join(t.TempDir(), "factory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })
	return map[string]registry.Store{
		"mem":  registry.NewMemStore(),
		"bolt": bolt,
	}
}

func newFixture(t *testing.T, s registry.Store, opts Options) *fixture {
	t.Helper()
	rec := &event.Recorder{}
	opts.Owner = owner
	if opts.Sink == nil {
		opts.Sink = rec
	}
	f, err := New(s, opts)
	require.NoError(t, err)
	return &fixture{f: f, store: s, rec: rec}
}

func eachStore(t *testing.T, opts Options, fn func(t *testing.T, fx *fixture)) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) { fn(t, newFixture(t, s, opts)) })
	}
}

func basicParams(salt string) CreateParams {
	return CreateParams{
		Variant:    0,
		Salt:       salt,
		Name:       "Name",
		Symbol:     "SYM",
		Price:      1,
		MaxSupply:  100,
		BaseURI:    "ipfs://x",
		RoyaltyBps: 500,
	}
}

func (fx *fixture) addType(t *testing.T, index uint8, b builder.Builder) {
	t.Helper()
	require.NoError(t, fx.f.AddColType(owner, index, builder.Handle(b)))
}

func TestNew(t *testing.T) {
	_, err := New(nil, Options{})
	assert.ErrorIs(t, err, ErrInvalidParams)

	eachStore(t, Options{}, func(t *testing.T, fx *fixture) {
		got, err := fx.f.Owner()
		require.NoError(t, err)
		assert.Equal(t, owner, got)

		h, err := fx.f.Height()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), h)
		assert.Equal(t, 1, fx.rec.Count(event.KindOwnerUpdated))
	})
}

func TestNew_KeepsExistingOwner(t *testing.T) {
	s := registry.NewMemStore()
	_, err := New(s, Options{Owner: owner})
	require.NoError(t, err)

	f, err := New(s, Options{Owner: creator1})
	require.NoError(t, err)
	got, err := f.Owner()
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	h, err := f.Height()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h, "second bootstrap emits nothing")
}

// Register type 0 as a capped collection and create one as C1.
func TestScenario_CreateCollection(t *testing.T) {
	eachStore(t, Options{}, func(t *testing.T, fx *fixture) {
		fx.addType(t, 0, builder.Basic{})

		created, err := fx.f.CreateCollection(context.Background(), creator1, basicParams("salt-A"))
		require.NoError(t, err)

		rec, err := fx.f.ColInfo(created.ColID)
		require.NoError(t, err)
		assert.Equal(t, creator1, rec.Creator)
		assert.Equal(t, uint8(0), rec.Variant)
		assert.Equal(t, created.Address, rec.Address)
		assert.True(t, rec.Splitter.IsZero())

		n, err := fx.f.GetIDsLength(creator1)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)

		id, err := fx.f.UserTokens(creator1, 0)
		require.NoError(t, err)
		assert.Equal(t, created.ColID, id)

		assert.Equal(t, fx.f.GetDeployedAddr("salt-A", creator1), created.Address)
		assert.Equal(t, created.ColID, fx.f.GetColID(created.Address))
		assert.Equal(t, builder.KindBasic, created.Kind)
		assert.Equal(t, []builder.Field{
			{Name: "royalty", Value: 500},
			{Name: "max_supply", Value: 100},
			{Name: "price", Value: 1},
		}, created.Fields)

		variant, found, err := fx.f.TypeChecker(created.ColID)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, uint8(0), variant)

		who, mine, err := fx.f.CreatorCheck(creator1, created.ColID)
		require.NoError(t, err)
		assert.Equal(t, creator1, who)
		assert.True(t, mine)
		_, mine, err = fx.f.CreatorCheck(creator2, created.ColID)
		require.NoError(t, err)
		assert.False(t, mine)

		assert.Equal(t, 1, fx.rec.Count(event.KindCollectionCreated))
		entries := fx.rec.Entries()
		last := entries[len(entries)-1]
		ev, ok := last.Event.(event.CollectionCreated)
		require.True(t, ok)
		assert.Equal(t, "Name", ev.Name)
		assert.Equal(t, "salt-A", ev.Salt)
		assert.Equal(t, rec.CreatedAtHeight, last.Height)
	})
}

func TestCreateCollection_SaltScopedPerCreator(t *testing.T) {
	eachStore(t, Options{}, func(t *testing.T, fx *fixture) {
		fx.addType(t, 0, builder.Basic{})
		ctx := context.Background()

		a, err := fx.f.CreateCollection(ctx, creator1, basicParams("same"))
		require.NoError(t, err)
		b, err := fx.f.CreateCollection(ctx, creator2, basicParams("same"))
		require.NoError(t, err)
		assert.NotEqual(t, a.ColID, b.ColID)

		// Same creator and salt lands on an occupied address.
		_, err = fx.f.CreateCollection(ctx, creator1, basicParams("same"))
		assert.ErrorIs(t, err, ErrConstruction)
		assert.ErrorIs(t, err, registry.ErrAddressOccupied)

		n, err := fx.f.GetIDsLength(creator1)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)
	})
}

func TestCreateCollection_Validation(t *testing.T) {
	eachStore(t, Options{}, func(t *testing.T, fx *fixture) {
		fx.addType(t, 0, builder.Basic{})
		ctx := context.Background()

		p := basicParams("r")
		p.RoyaltyBps = RoyaltyDenominator + 1
		_, err := fx.f.CreateCollection(ctx, creator1, p)
		assert.ErrorIs(t, err, ErrInvalidRoyalty)

		p.RoyaltyBps = RoyaltyDenominator
		_, err = fx.f.CreateCollection(ctx, creator1, p)
		assert.NoError(t, err, "royalty at the bound")

		p = basicParams("t")
		p.Variant = 9
		_, err = fx.f.CreateCollection(ctx, creator1, p)
		assert.ErrorIs(t, err, ErrInvalidType)

		p = basicParams("n")
		p.Name = ""
		_, err = fx.f.CreateCollection(ctx, creator1, p)
		assert.ErrorIs(t, err, ErrInvalidParams)

		p = basicParams("s")
		p.MaxSupply = 0
		_, err = fx.f.CreateCollection(ctx, creator1, p)
		assert.ErrorIs(t, err, ErrConstruction)
		assert.ErrorIs(t, err, builder.ErrInvalidParams)
		assert.True(t, IsConstructionFailure(err))

		n, err := fx.f.GetIDsLength(creator1)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)
	})
}

func TestCreateCollection_SplitterReference(t *testing.T) {
	eachStore(t, Options{}, func(t *testing.T, fx *fixture) {
		fx.addType(t, 0, builder.Basic{})
		ctx := context.Background()

		p := basicParams("with-splitter")
		p.Splitter = ident.FromLabel("nowhere")
		_, err := fx.f.CreateCollection(ctx, creator1, p)
		assert.ErrorIs(t, err, ErrSplitterFail)

		n, err := fx.f.GetIDsLength(creator1)
		require.NoError(t, err)
		assert.Zero(t, n)

		sp, err := fx.f.SplitterCheck(ctx, creator2, "s1", amb, proj, 3000, 7000)
		require.NoError(t, err)

		p.Splitter = sp.Address
		created, err := fx.f.CreateCollection(ctx, creator1, p)
		require.NoError(t, err)
		assert.Equal(t, sp.Address, created.Record.Splitter)
	})
}

// failingBuilder deploys and then reports failure.
type failingBuilder struct{ builder.Basic }

func (failingBuilder) Kind() string { return "failing" }

func (b failingBuilder) Build(ctx context.Context, d builder.Deployer, p builder.Params) (builder.Result, error) {
	if _, err := b.Basic.Build(ctx, d, p); err != nil {
		return builder.Result{}, err
	}
	return builder.Result{}, errors.New("boom")
}

// strayBuilder reports an address it never deployed.
type strayBuilder struct{}

func (strayBuilder) Kind() string { return "stray" }

func (strayBuilder) Build(context.Context, builder.Deployer, builder.Params) (builder.Result, error) {
	return builder.Result{Address: ident.FromLabel("elsewhere")}, nil
}

func TestCreateCollection_Atomicity(t *testing.T) {
	set, err := builder.NewSet(builder.Basic{}, failingBuilder{}, strayBuilder{})
	require.NoError(t, err)

	eachStore(t, Options{Builders: set}, func(t *testing.T, fx *fixture) {
		fx.addType(t, 0, builder.Basic{})
		fx.addType(t, 1, failingBuilder{})
		fx.addType(t, 2, strayBuilder{})
		ctx := context.Background()

		before, err := fx.f.Height()
		require.NoError(t, err)
		events := len(fx.rec.Entries())

		p := basicParams("atomic")
		p.Variant = 1
		_, err = fx.f.CreateCollection(ctx, creator1, p)
		assert.ErrorIs(t, err, ErrConstruction)

		p.Variant = 2
		_, err = fx.f.CreateCollection(ctx, creator1, p)
		assert.ErrorIs(t, err, ErrConstruction)

		after, err := fx.f.Height()
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Len(t, fx.rec.Entries(), events)
		n, err := fx.f.GetIDsLength(creator1)
		require.NoError(t, err)
		assert.Zero(t, n)

		// The failed deployment was rolled back, so the address is free.
		p.Variant = 0
		created, err := fx.f.CreateCollection(ctx, creator1, p)
		require.NoError(t, err)
		assert.Equal(t, fx.f.GetDeployedAddr("atomic", creator1), created.Address)
	})
}

// reentrantBuilder calls back into the factory during construction and
// ignores the outcome.
type reentrantBuilder struct {
	f *Factory
}

func (*reentrantBuilder) Kind() string { return "reentrant" }

func (b *reentrantBuilder) Build(ctx context.Context, d builder.Deployer, p builder.Params) (builder.Result, error) {
	res, err := builder.Basic{}.Build(ctx, d, p)
	if err != nil {
		return res, err
	}
	_, _ = b.f.CreateCollection(ctx, p.Creator, basicParams("nested"))
	_, _ = b.f.SplitterCheck(ctx, p.Creator, "nested", amb, proj, 1, 1)
	return res, nil
}

// peekingBuilder reads registry state while building.
type peekingBuilder struct {
	f    *Factory
	seen uint64
}

func (*peekingBuilder) Kind() string { return "peeking" }

func (b *peekingBuilder) Build(ctx context.Context, d builder.Deployer, p builder.Params) (builder.Result, error) {
	n, err := b.f.GetIDsLength(p.Creator)
	if err != nil {
		return builder.Result{}, err
	}
	b.seen = n
	return builder.Basic{}.Build(ctx, d, p)
}

func TestCreateCollection_Reentrancy(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rb := &reentrantBuilder{}
			set, err := builder.NewSet(builder.Basic{}, rb)
			require.NoError(t, err)
			fx := newFixture(t, s, Options{Builders: set})
			rb.f = fx.f
			fx.addType(t, 0, builder.Basic{})
			fx.addType(t, 1, rb)

			p := basicParams("outer")
			p.Variant = 1
			_, err = fx.f.CreateCollection(context.Background(), creator1, p)
			assert.ErrorIs(t, err, ErrReentrancy)

			n, err := fx.f.GetIDsLength(creator1)
			require.NoError(t, err)
			assert.Zero(t, n)
			assert.Zero(t, fx.rec.Count(event.KindCollectionCreated))
			assert.Zero(t, fx.rec.Count(event.KindSplitterCreated))
			assert.Equal(t, access.GuardIdle, fx.f.guard.State())

			// The guard is released: the next call succeeds.
			_, err = fx.f.CreateCollection(context.Background(), creator1, basicParams("after"))
			require.NoError(t, err)
		})
	}
}

// ledgerReentrantBuilder calls back through the Ledger during construction.
type ledgerReentrantBuilder struct {
	l          *Ledger
	seenHeight uint64
	nestedErrs []error
}

func (*ledgerReentrantBuilder) Kind() string { return "ledger-reentrant" }

func (b *ledgerReentrantBuilder) Build(ctx context.Context, d builder.Deployer, p builder.Params) (builder.Result, error) {
	res, err := builder.Basic{}.Build(ctx, d, p)
	if err != nil {
		return res, err
	}
	b.seenHeight, _ = b.l.Height()
	_, err = b.l.CreateCollection(ctx, p.Creator, basicParams("nested"))
	b.nestedErrs = append(b.nestedErrs, err)
	_, err = b.l.SplitterCheck(ctx, p.Creator, "nested", amb, proj, 1, 1)
	b.nestedErrs = append(b.nestedErrs, err)
	b.nestedErrs = append(b.nestedErrs, b.l.Pause(ctx, owner))
	return res, nil
}

func TestLedger_Reentrancy(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rb := &ledgerReentrantBuilder{}
			set, err := builder.NewSet(builder.Basic{}, rb)
			require.NoError(t, err)
			fx := newFixture(t, s, Options{Builders: set})
			l := NewLedger(fx.f)
			rb.l = l
			fx.addType(t, 0, builder.Basic{})
			fx.addType(t, 1, rb)
			before, err := l.Height()
			require.NoError(t, err)

			p := basicParams("outer")
			p.Variant = 1
			done := make(chan error, 1)
			go func() {
				_, err := l.CreateCollection(context.Background(), creator1, p)
				done <- err
			}()
			select {
			case err = <-done:
			case <-time.After(3 * time.Second):
				t.Fatal("re-entry through the Ledger did not return")
			}
			assert.ErrorIs(t, err, ErrReentrancy)

			require.Len(t, rb.nestedErrs, 3)
			for _, nested := range rb.nestedErrs {
				assert.ErrorIs(t, nested, ErrReentrancy)
			}
			assert.Equal(t, before, rb.seenHeight, "ledger reads see committed state")

			n, err := l.GetIDsLength(creator1)
			require.NoError(t, err)
			assert.Zero(t, n)
			paused, err := fx.f.Paused()
			require.NoError(t, err)
			assert.False(t, paused)
			after, err := l.Height()
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Zero(t, fx.rec.Count(event.KindCollectionCreated))

			// The write turn was released.
			_, err = l.CreateCollection(context.Background(), creator1, basicParams("after"))
			require.NoError(t, err)
		})
	}
}

// blockingBuilder parks inside Build until released.
type blockingBuilder struct {
	entered chan struct{}
	release chan struct{}
}

func (*blockingBuilder) Kind() string { return "blocking" }

func (b *blockingBuilder) Build(ctx context.Context, d builder.Deployer, p builder.Params) (builder.Result, error) {
	close(b.entered)
	<-b.release
	return builder.Basic{}.Build(ctx, d, p)
}

func TestLedger_WaitingWriterAndReaders(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			bb := &blockingBuilder{entered: make(chan struct{}), release: make(chan struct{})}
			set, err := builder.NewSet(builder.Basic{}, bb)
			require.NoError(t, err)
			fx := newFixture(t, s, Options{Builders: set})
			l := NewLedger(fx.f)
			fx.addType(t, 0, builder.Basic{})
			fx.addType(t, 1, bb)
			committed, err := l.Height()
			require.NoError(t, err)

			p := basicParams("slow")
			p.Variant = 1
			done := make(chan error, 1)
			go func() {
				_, err := l.CreateCollection(context.Background(), creator1, p)
				done <- err
			}()
			<-bb.entered

			// Reads do not wait for the write in flight.
			h, err := l.Height()
			require.NoError(t, err)
			assert.Equal(t, committed, h)

			// A second writer gives up when its context ends.
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			_, err = l.CreateCollection(ctx, creator2, basicParams("queued"))
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.ErrorIs(t, l.Pause(ctx, owner), context.DeadlineExceeded)

			close(bb.release)
			require.NoError(t, <-done)
			n, err := l.GetIDsLength(creator1)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), n)
			n, err = l.GetIDsLength(creator2)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestCreateCollection_ReadsDuringBuild(t *testing.T) {
	pb := &peekingBuilder{}
	set, err := builder.NewSet(pb)
	require.NoError(t, err)
	fx := newFixture(t, registry.NewMemStore(), Options{Builders: set})
	pb.f = fx.f
	fx.addType(t, 0, pb)

	ctx := context.Background()
	_, err = fx.f.CreateCollection(ctx, creator1, basicParams("a"))
	require.NoError(t, err)
	_, err = fx.f.CreateCollection(ctx, creator1, basicParams("b"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pb.seen)
}

// leakyBuilder keeps its Deployer past the end of Build.
type leakyBuilder struct {
	kept builder.Deployer
}

func (*leakyBuilder) Kind() string { return "leaky" }

func (b *leakyBuilder) Build(ctx context.Context, d builder.Deployer, p builder.Params) (builder.Result, error) {
	b.kept = d
	return builder.Basic{}.Build(ctx, d, p)
}

func TestDeployer_ClosedAfterBuild(t *testing.T) {
	lb := &leakyBuilder{}
	set, err := builder.NewSet(lb)
	require.NoError(t, err)
	fx := newFixture(t, registry.NewMemStore(), Options{Builders: set})
	fx.addType(t, 0, lb)

	_, err = fx.f.CreateCollection(context.Background(), creator1, basicParams("a"))
	require.NoError(t, err)

	_, err = lb.kept.Deploy(context.Background(), [32]byte{1}, "leaky", builder.BasicCode)
	assert.ErrorIs(t, err, ErrDeployerClosed)
}

func TestCreatorGate(t *testing.T) {
	allow := access.NewAllowList(creator1)
	eachStore(t, Options{Policy: allow}, func(t *testing.T, fx *fixture) {
		fx.addType(t, 0, builder.Basic{})
		ctx := context.Background()

		// Without a gate token everyone may create.
		_, err := fx.f.CreateCollection(ctx, creator2, basicParams("open"))
		require.NoError(t, err)

		token := ident.FromLabel("gate")
		require.NoError(t, fx.f.SetGateToken(owner, token))

		_, err = fx.f.CreateCollection(ctx, creator2, basicParams("gated"))
		assert.ErrorIs(t, err, ErrAccessDenied)
		assert.ErrorIs(t, err, access.ErrUnauthorized)

		_, err = fx.f.CreateCollection(ctx, creator1, basicParams("gated"))
		assert.NoError(t, err)

		ok, err := fx.f.CreatorAuth(ctx, token, creator2)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPause(t *testing.T) {
	eachStore(t, Options{}, func(t *testing.T, fx *fixture) {
		fx.addType(t, 0, builder.Basic{})
		ctx := context.Background()

		assert.ErrorIs(t, fx.f.Pause(creator1), ErrAccessDenied)
		require.NoError(t, fx.f.Pause(owner))
		assert.ErrorIs(t, fx.f.Pause(owner), ErrAlreadyPaused)

		paused, err := fx.f.Paused()
		require.NoError(t, err)
		assert.True(t, paused)

		_, err = fx.f.CreateCollection(ctx, creator1, basicParams("p"))
		assert.ErrorIs(t, err, ErrPaused)
		_, err = fx.f.SplitterCheck(ctx, creator1, "p", amb, proj, 1, 1)
		assert.ErrorIs(t, err, ErrPaused)

		// Owner setters keep working while paused.
		require.NoError(t, fx.f.SetMarket(owner, ident.FromLabel("market")))

		require.NoError(t, fx.f.Unpause(owner))
		assert.ErrorIs(t, fx.f.Unpause(owner), ErrNotPaused)
		_, err = fx.f.CreateCollection(ctx, creator1, basicParams("p"))
		assert.NoError(t, err)

		assert.Equal(t, 1, fx.rec.Count(event.KindPaused))
		assert.Equal(t, 1, fx.rec.Count(event.KindUnpaused))
	})
}

func TestRoles(t *testing.T) {
	eachStore(t, Options{}, func(t *testing.T, fx *fixture) {
		market := ident.FromLabel("market")
		router := ident.FromLabel("router")
		signer := ident.FromLabel("signer")

		require.NoError(t, fx.f.SetMarket(owner, market))
		require.NoError(t, fx.f.SetRouter(owner, router))
		require.NoError(t, fx.f.SetSigner(owner, signer))

		got, err := fx.f.Market()
		require.NoError(t, err)
		assert.Equal(t, market, got)
		got, err = fx.f.Router()
		require.NoError(t, err)
		assert.Equal(t, router, got)
		got, err = fx.f.Signer()
		require.NoError(t, err)
		assert.Equal(t, signer, got)

		assert.Equal(t, 1, fx.rec.Count(event.KindMarketUpdated))
		assert.Equal(t, 1, fx.rec.Count(event.KindRouterUpdated))
		assert.Equal(t, 1, fx.rec.Count(event.KindSignerUpdated))

		assert.ErrorIs(t, fx.f.SetOwner(owner, ident.Zero), ErrInvalidParams)

		next := ident.FromLabel("next-owner")
		require.NoError(t, fx.f.SetOwner(owner, next))
		assert.ErrorIs(t, fx.f.SetMarket(owner, ident.Zero), ErrAccessDenied, "old owner lost control")
		require.NoError(t, fx.f.SetMarket(next, ident.Zero))

		entries := fx.rec.Entries()
		var transfer event.OwnerUpdated
		for _, e := range entries {
			if ou, ok := e.Event.(event.OwnerUpdated); ok {
				transfer = ou
			}
		}
		assert.Equal(t, event.OwnerUpdated{Old: owner, New: next}, transfer)
	})
}

func TestSetGateToken_WarnsUnderOpenPolicy(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	fx := newFixture(t, registry.NewMemStore(), Options{Logger: &logger})
	require.NoError(t, fx.f.SetGateToken(owner, ident.FromLabel("gate")))
	assert.Contains(t, buf.String(), "creator policy admits everyone")

	buf.Reset()
	fx = newFixture(t, registry.NewMemStore(), Options{Logger: &logger, Policy: access.NewAllowList(creator1)})
	require.NoError(t, fx.f.SetGateToken(owner, ident.FromLabel("gate")))
	assert.NotContains(t, buf.String(), "admits everyone")
}

func TestOwnerCalls_NotInitialized(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			f, err := New(s, Options{})
			require.NoError(t, err)

			assert.ErrorIs(t, f.SetMarket(owner, ident.FromLabel("market")), ErrNotInitialized)
			assert.ErrorIs(t, f.SetOwner(owner, owner), ErrNotInitialized)
			assert.ErrorIs(t, f.Pause(owner), ErrNotInitialized)
			assert.ErrorIs(t, f.AddColType(owner, 0, builder.Handle(builder.Basic{})), ErrNotInitialized)

			h, err := f.Height()
			require.NoError(t, err)
			assert.Zero(t, h)
		})
	}
}

func TestColTypes(t *testing.T) {
	eachStore(t, Options{}, func(t *testing.T, fx *fixture) {
		basic := builder.Handle(builder.Basic{})
		lazy := builder.Handle(builder.Lazy{})

		assert.ErrorIs(t, fx.f.AddColType(creator1, 0, basic), ErrAccessDenied)
		assert.ErrorIs(t, fx.f.AddColType(owner, 0, ident.Zero), ErrInvalidParams)
		assert.ErrorIs(t, fx.f.AddColType(owner, 0, ident.FromLabel("unknown")), ErrInvalidParams)

		require.NoError(t, fx.f.AddColType(owner, 0, basic))
		assert.ErrorIs(t, fx.f.AddColType(owner, 0, lazy), ErrTypeExists)

		got, err := fx.f.ColTypes(0)
		require.NoError(t, err)
		assert.Equal(t, basic, got)
		got, err = fx.f.ColTypes(7)
		require.NoError(t, err)
		assert.True(t, got.IsZero())

		assert.ErrorIs(t, fx.f.ReplaceColType(owner, 7, lazy), ErrInvalidType)
		require.NoError(t, fx.f.ReplaceColType(owner, 0, lazy))
		got, err = fx.f.ColTypes(0)
		require.NoError(t, err)
		assert.Equal(t, lazy, got)

		entries := fx.rec.Entries()
		last, ok := entries[len(entries)-1].Event.(event.TypeUpdated)
		require.True(t, ok)
		assert.True(t, last.Redefined)
		assert.Equal(t, basic, last.Previous)
	})
}

func TestInstallDefaultTypes(t *testing.T) {
	fx := newFixture(t, registry.NewMemStore(), Options{})
	require.NoError(t, fx.f.AddColType(owner, 1, builder.Handle(builder.Lazy{})))
	require.NoError(t, fx.f.InstallDefaultTypes(owner))

	types, err := fx.f.Types()
	require.NoError(t, err)
	require.Len(t, types, 4)
	assert.Equal(t, builder.Handle(builder.Minimal{}), types[0].Builder)
	assert.Equal(t, builder.Handle(builder.Lazy{}), types[1].Builder, "existing binding kept")
	assert.Equal(t, builder.Handle(builder.Whitelist{}), types[2].Builder)
}

func TestEvents_Persisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := registry.OpenBoltStore(path)
	require.NoError(t, err)
	fx := newFixture(t, s, Options{})
	fx.addType(t, 0, builder.Basic{})
	created, err := fx.f.CreateCollection(context.Background(), creator1, basicParams("persist"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = registry.OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()
	f, err := New(s, Options{})
	require.NoError(t, err)

	entries, err := f.Events(1, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, event.KindOwnerUpdated, entries[0].Event.Kind())
	assert.Equal(t, event.KindTypeUpdated, entries[1].Event.Kind())
	ev, ok := entries[2].Event.(event.CollectionCreated)
	require.True(t, ok)
	assert.Equal(t, created.ColID, ev.ColID)
	assert.Equal(t, uint64(3), entries[2].Height)

	rec, err := f.ColInfo(created.ColID)
	require.NoError(t, err)
	assert.Equal(t, creator1, rec.Creator)

	page, err := f.Events(2, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, uint64(2), page[0].Seq)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(3)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), v)
	_, err = ParseVariant(-1)
	assert.ErrorIs(t, err, ErrInvalidType)
	_, err = ParseVariant(256)
	assert.ErrorIs(t, err, ErrInvalidType)
}
