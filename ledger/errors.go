package ledger

import "errors"

// Typed failures surfaced by the ledger. Every failure is either a caller
// programming error (bad input, wrong state) or an authorization failure;
// there is no transient class to retry, and no partial state is ever
// committed alongside one of these.
var (
	// ErrInvalidInput is returned on malformed campaign creation parameters.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when the campaign id was never assigned.
	ErrNotFound = errors.New("campaign not found")
	// ErrUnauthorized is returned when the caller lacks the identity the
	// operation requires.
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotActive is returned when donating to an ended campaign.
	ErrNotActive = errors.New("campaign not active")
	// ErrAlreadyEnded is returned when ending an already ended campaign.
	ErrAlreadyEnded = errors.New("campaign already ended")
	// ErrCampaignStillActive is returned when withdrawing from a campaign
	// that has not been ended.
	ErrCampaignStillActive = errors.New("campaign still active")
	// ErrAlreadyWithdrawn is returned when the funds were already withdrawn.
	ErrAlreadyWithdrawn = errors.New("funds already withdrawn")
	// ErrInsufficientGasValue is returned when the attached value is below
	// the fixed processing floor.
	ErrInsufficientGasValue = errors.New("attached value below minimum")
	// ErrInvalidProof is returned when the sealed amount proof is rejected.
	ErrInvalidProof = errors.New("invalid sealed amount proof")
	// ErrTransferFailed is returned when the funds transfer collaborator
	// fails during withdrawal; no state is committed in that case.
	ErrTransferFailed = errors.New("funds transfer failed")
)
