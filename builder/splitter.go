package builder

import (
	"context"
	"fmt"

	"github.com/bitfsorg/libfactory-go/derive"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/split"
)

// SplitterBuilder constructs payment splitters seeded with their payees.
type SplitterBuilder interface {
	BuildSplitter(ctx context.Context, d Deployer, salt derive.Salt, payees []split.Payee) (ident.Identity, error)
}

// Splitter is the built-in SplitterBuilder.
type Splitter struct{}

// Compile-time interface check.
var _ SplitterBuilder = Splitter{}

// BuildSplitter implements SplitterBuilder.
func (Splitter) BuildSplitter(ctx context.Context, d Deployer, salt derive.Salt, payees []split.Payee) (ident.Identity, error) {
	if err := ctx.Err(); err != nil {
		return ident.Zero, err
	}
	if len(payees) == 0 {
		return ident.Zero, fmt.Errorf("%w: splitter needs payees", ErrInvalidParams)
	}
	addr, err := d.Deploy(ctx, salt, KindSplitter, SplitterCode)
	if err != nil {
		return ident.Zero, fmt.Errorf("%w: %s: %w", ErrDeploy, KindSplitter, err)
	}
	return addr, nil
}
