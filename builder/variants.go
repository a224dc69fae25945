package builder

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/bitfsorg/libfactory-go/derive"
)

// Variant kinds.
const (
	KindMinimal   = "erc721-minimal"
	KindBasic     = "erc721-basic"
	KindWhitelist = "erc721-whitelist"
	KindLazy      = "erc721-lazy"
	KindSplitter  = "splitter"
)

// Code fingerprints of the built-in implementations.
var (
	MinimalCode   = derive.FingerprintOf([]byte("libfactory/" + KindMinimal + "/v1"))
	BasicCode     = derive.FingerprintOf([]byte("libfactory/" + KindBasic + "/v1"))
	WhitelistCode = derive.FingerprintOf([]byte("libfactory/" + KindWhitelist + "/v1"))
	LazyCode      = derive.FingerprintOf([]byte("libfactory/" + KindLazy + "/v1"))
	SplitterCode  = derive.FingerprintOf([]byte("libfactory/" + KindSplitter + "/v1"))
)

func deploy(ctx context.Context, d Deployer, p Params, kind string, code derive.Fingerprint, fields []Field) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	addr, err := d.Deploy(ctx, p.Salt, kind, code)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrDeploy, kind, err)
	}
	return Result{Address: addr, Fields: fields}, nil
}

// Minimal is a one-of-one collection: a single token at a fixed price.
type Minimal struct{}

// Kind implements Builder.
func (Minimal) Kind() string { return KindMinimal }

// Build implements Builder.
func (Minimal) Build(ctx context.Context, d Deployer, p Params) (Result, error) {
	if p.MaxSupply > 1 {
		return Result{}, fmt.Errorf("%w: %s supports a single token, got max supply %d", ErrInvalidParams, KindMinimal, p.MaxSupply)
	}
	return deploy(ctx, d, p, KindMinimal, MinimalCode, []Field{
		{Name: "royalty", Value: p.RoyaltyBps},
		{Name: "price", Value: p.Price},
	})
}

// Basic is a capped public-mint collection.
type Basic struct{}

// Kind implements Builder.
func (Basic) Kind() string { return KindBasic }

// Build implements Builder.
func (Basic) Build(ctx context.Context, d Deployer, p Params) (Result, error) {
	if p.MaxSupply == 0 {
		return Result{}, fmt.Errorf("%w: %s needs a max supply", ErrInvalidParams, KindBasic)
	}
	return deploy(ctx, d, p, KindBasic, BasicCode, []Field{
		{Name: "royalty", Value: p.RoyaltyBps},
		{Name: "max_supply", Value: p.MaxSupply},
		{Name: "price", Value: p.Price},
	})
}

// Whitelist is a capped collection with a merkle-gated presale.
//
//	Extra[0]: merkle root (32 bytes)
//	Extra[1]: presale price (8 bytes big-endian, optional; defaults to Price)
type Whitelist struct{}

// Kind implements Builder.
func (Whitelist) Kind() string { return KindWhitelist }

// Build implements Builder.
func (Whitelist) Build(ctx context.Context, d Deployer, p Params) (Result, error) {
	if p.MaxSupply == 0 {
		return Result{}, fmt.Errorf("%w: %s needs a max supply", ErrInvalidParams, KindWhitelist)
	}
	if len(p.Extra) < 1 || len(p.Extra[0]) != 32 {
		return Result{}, fmt.Errorf("%w: %s needs a 32-byte merkle root in extra[0]", ErrInvalidParams, KindWhitelist)
	}
	presale := p.Price
	if len(p.Extra) > 1 {
		if len(p.Extra[1]) != 8 {
			return Result{}, fmt.Errorf("%w: %s presale price must be 8 bytes, got %d", ErrInvalidParams, KindWhitelist, len(p.Extra[1]))
		}
		presale = binary.BigEndian.Uint64(p.Extra[1])
	}
	return deploy(ctx, d, p, KindWhitelist, WhitelistCode, []Field{
		{Name: "royalty", Value: p.RoyaltyBps},
		{Name: "max_supply", Value: p.MaxSupply},
		{Name: "mint_price", Value: p.Price},
		{Name: "presale_price", Value: presale},
	})
}

// Lazy mints on redemption of signed vouchers, so supply and price are
// decided per voucher.
type Lazy struct{}

// Kind implements Builder.
func (Lazy) Kind() string { return KindLazy }

// Build implements Builder.
func (Lazy) Build(ctx context.Context, d Deployer, p Params) (Result, error) {
	return deploy(ctx, d, p, KindLazy, LazyCode, []Field{
		{Name: "royalty", Value: p.RoyaltyBps},
	})
}
