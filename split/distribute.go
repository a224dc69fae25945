package split

// Distribute divides amount between the payees in proportion to their
// shares. The last payee gets the remainder to avoid integer division loss.
func Distribute(amount uint64, payees []Payee) ([]Payout, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	if len(payees) == 0 {
		return nil, ErrNoPayees
	}

	var total uint64
	for _, p := range payees {
		total += p.Share
	}
	if total == 0 {
		return nil, ErrNoPayees
	}

	payouts := make([]Payout, len(payees))
	var distributed uint64
	for i, p := range payees {
		payouts[i].Address = p.Address
		if i == len(payees)-1 {
			payouts[i].Amount = amount - distributed
			continue
		}
		share := mulDiv(amount, p.Share, total)
		payouts[i].Amount = share
		distributed += share
	}
	return payouts, nil
}

// mulDiv computes a*b/c without overflowing for b <= c.
func mulDiv(a, b, c uint64) uint64 {
	return (a/c)*b + (a%c)*b/c
}
