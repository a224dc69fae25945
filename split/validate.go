package split

import (
	"fmt"

	"github.com/bitfsorg/libfactory-go/ident"
)

// ValidateShares checks a proposed (ambassador, project) split.
//
// The shares together may not exceed TotalShares. A non-zero participant
// must hold a non-zero share and an empty participant must hold none.
// At least one participant is required.
func ValidateShares(ambassador, project ident.Identity, ambassadorShare, projectShare uint64) error {
	if ambassador.IsZero() && project.IsZero() {
		return ErrNoParticipants
	}
	if ambassador == project {
		return ErrSameParticipant
	}
	if ambassadorShare > TotalShares || projectShare > TotalShares-ambassadorShare {
		return fmt.Errorf("%w: %d + %d > %d", ErrSharesExceed, ambassadorShare, projectShare, TotalShares)
	}
	if err := checkParticipant("ambassador", ambassador, ambassadorShare); err != nil {
		return err
	}
	return checkParticipant("project", project, projectShare)
}

func checkParticipant(role string, who ident.Identity, share uint64) error {
	switch {
	case who.IsZero() && share != 0:
		return fmt.Errorf("%w: %s share %d", ErrOrphanShare, role, share)
	case !who.IsZero() && share == 0:
		return fmt.Errorf("%w: %s %s", ErrZeroShare, role, who)
	}
	return nil
}
