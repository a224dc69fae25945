// Package split holds the revenue-splitter model: share validation, the
// splitter record and its wire encoding, and payout distribution.
package split

import (
	"github.com/bitfsorg/libfactory-go/derive"
	"github.com/bitfsorg/libfactory-go/ident"
)

// TotalShares is the share denominator. Shares are basis points.
const TotalShares uint64 = 10_000

// Record is a deployed splitter bound to an (ambassador, project) pair.
type Record struct {
	Address         ident.Identity `json:"address"`
	Salt            derive.Salt    `json:"salt"`
	Ambassador      ident.Identity `json:"ambassador"`
	Project         ident.Identity `json:"project"`
	AmbassadorShare uint64         `json:"ambassador_share"`
	ProjectShare    uint64         `json:"project_share"`
	Valid           bool           `json:"valid"`
	Creator         ident.Identity `json:"creator"` // account that paid for the deployment
	CreatedAtHeight uint64         `json:"created_at_height"`
}

// IsZero reports whether r is the absent record.
func (r Record) IsZero() bool {
	return r == Record{}
}

// Payees returns the non-zero participants in (ambassador, project) order.
func (r Record) Payees() []Payee {
	var out []Payee
	if !r.Ambassador.IsZero() {
		out = append(out, Payee{Address: r.Ambassador, Share: r.AmbassadorShare})
	}
	if !r.Project.IsZero() {
		out = append(out, Payee{Address: r.Project, Share: r.ProjectShare})
	}
	return out
}

// Payee is one participant and its share.
type Payee struct {
	Address ident.Identity `json:"address"`
	Share   uint64         `json:"share"`
}

// Payout is a single computed transfer.
type Payout struct {
	Address ident.Identity `json:"address"`
	Amount  uint64         `json:"amount"`
}
