package api

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/fundraiser-z-sandbox/crypto/sealed"
	"github.com/vocdoni/fundraiser-z-sandbox/types"
)

// CampaignRequest is the request body to create a new campaign. The signature
// covers the concatenation of title, description, target amount and duration
// and identifies the campaign creator.
type CampaignRequest struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	TargetAmount *types.BigInt  `json:"targetAmount"`
	Duration     uint64         `json:"duration"` // seconds
	Signature    types.HexBytes `json:"signature"`
}

// CampaignResponse is the response to a new campaign creation request.
type CampaignResponse struct {
	CampaignID uint64 `json:"campaignId"`
}

// CampaignList is the response to a campaign listing request.
type CampaignList struct {
	Campaigns []uint64 `json:"campaigns"`
}

// CampaignProgress is the response to a campaign progress request.
type CampaignProgress struct {
	Progress uint8 `json:"progress"`
}

// CampaignBalance is the response to a campaign balance request. Initialized
// reports whether the campaign has received at least one donation.
type CampaignBalance struct {
	Balance     *types.BigInt `json:"balance"`
	Initialized bool          `json:"initialized"`
}

// CampaignDonors is the response to a campaign donors count request.
type CampaignDonors struct {
	Donors uint64 `json:"donors"`
}

// SignedAction is the request body for creator-only campaign transitions.
type SignedAction struct {
	Signature types.HexBytes `json:"signature"`
}

// Donation is the request body to donate to a campaign. The sealed amount is
// the donor's confidential pledge and the proof is its external validity
// attestation. The attached value is the public transfer that accompanies the
// donation. The signature covers the campaign id and the attached value.
type Donation struct {
	SealedAmount  *sealed.Ciphertext `json:"sealedAmount"`
	Proof         types.HexBytes     `json:"proof"`
	AttachedValue *types.BigInt      `json:"attachedValue"`
	Signature     types.HexBytes     `json:"signature"`
}

// SealedAmount is the response to a confidential amount request.
type SealedAmount struct {
	SealedAmount *sealed.Ciphertext `json:"sealedAmount"`
}

// CampaignPayload returns the message a campaign creation request must sign.
func CampaignPayload(title, description string, target *types.BigInt, duration uint64) []byte {
	return []byte(fmt.Sprintf("%s%s%s%d", title, description, target.String(), duration))
}

// EndCampaignPayload returns the message an end campaign request must sign.
func EndCampaignPayload(campaignID uint64) []byte {
	return []byte(fmt.Sprintf("endCampaign%d", campaignID))
}

// WithdrawPayload returns the message a withdrawal request must sign.
func WithdrawPayload(campaignID uint64) []byte {
	return []byte(fmt.Sprintf("withdrawFunds%d", campaignID))
}

// DonationPayload returns the message a donation request must sign.
func DonationPayload(campaignID uint64, attachedValue *types.BigInt) []byte {
	return []byte(fmt.Sprintf("donate%d%s", campaignID, attachedValue.String()))
}

// DonationAmountPayload returns the message signed to read a donor's
// confidential donation amount.
func DonationAmountPayload(campaignID uint64, donor common.Address) []byte {
	return []byte(fmt.Sprintf("donationAmount%d%s", campaignID, donor.Hex()))
}

// TotalRaisedPayload returns the message signed to read a campaign's
// confidential total.
func TotalRaisedPayload(campaignID uint64) []byte {
	return []byte(fmt.Sprintf("totalRaised%d", campaignID))
}
