package split

import "errors"

var (
	// ErrSharesExceed indicates the shares sum past TotalShares.
	ErrSharesExceed = errors.New("split: shares exceed total")

	// ErrZeroShare indicates a non-zero participant was given no share.
	ErrZeroShare = errors.New("split: participant has zero share")

	// ErrOrphanShare indicates a share was assigned to the zero identity.
	ErrOrphanShare = errors.New("split: share assigned to empty participant")

	// ErrNoParticipants indicates both participants are empty.
	ErrNoParticipants = errors.New("split: no participants")

	// ErrSameParticipant indicates ambassador and project are the same identity.
	ErrSameParticipant = errors.New("split: ambassador and project are identical")

	// ErrInvalidRecordData indicates a malformed encoded record.
	ErrInvalidRecordData = errors.New("split: invalid record data")

	// ErrZeroAmount indicates a payout of zero.
	ErrZeroAmount = errors.New("split: zero amount")

	// ErrNoPayees indicates a record with no payees.
	ErrNoPayees = errors.New("split: no payees")
)
