package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Operation identifies a read accessor subject to access control.
type Operation int

const (
	// OpCampaignBalance reads the public balance.
	OpCampaignBalance Operation = iota
	// OpDonationAmount reads a donor's sealed accumulated amount.
	OpDonationAmount
	// OpTotalRaised reads the campaign's sealed grand total.
	OpTotalRaised
)

func (op Operation) String() string {
	switch op {
	case OpCampaignBalance:
		return "campaignBalance"
	case OpDonationAmount:
		return "donationAmount"
	case OpTotalRaised:
		return "totalRaised"
	}
	return fmt.Sprintf("operation(%d)", int(op))
}

type accessLevel int

const (
	accessPublic accessLevel = iota
	accessDonorOrOwner
	accessOwnerOnly
)

// accessTable is the authorization matrix for the read accessors. Keeping it
// as a table (instead of conditionals scattered per accessor) makes the
// matrix testable on its own.
var accessTable = map[Operation]accessLevel{
	OpCampaignBalance: accessPublic,
	OpDonationAmount:  accessDonorOrOwner,
	OpTotalRaised:     accessOwnerOnly,
}

// checkAccess decides whether caller may perform op on a campaign owned by
// owner, about the given subject (the donor for per-donor reads). It returns
// ErrUnauthorized on deny.
func checkAccess(op Operation, owner, subject, caller common.Address) error {
	switch accessTable[op] {
	case accessPublic:
		return nil
	case accessDonorOrOwner:
		if caller == subject || caller == owner {
			return nil
		}
		return fmt.Errorf("%w: %s requires the donor or the campaign creator", ErrUnauthorized, op)
	case accessOwnerOnly:
		if caller == owner {
			return nil
		}
	}
	return fmt.Errorf("%w: %s requires the campaign creator", ErrUnauthorized, op)
}
