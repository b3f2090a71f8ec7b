package types

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Campaign is the stored record of a fundraising campaign. The sealed fields
// (TotalRaised and the per donor amounts in DonationRecord) are opaque
// ciphertexts, never inspected by the registry or the ledger; everything else
// is public by design.
//
// The stored lifecycle only distinguishes Active from Ended. Expiry (wall
// clock past Deadline) and target-reached are derived conditions computed by
// callers, never stored.
type Campaign struct {
	ID            uint64         `json:"id"            cbor:"0,keyasint"`
	Creator       common.Address `json:"creator"       cbor:"1,keyasint"`
	Title         string         `json:"title"         cbor:"2,keyasint"`
	Description   string         `json:"description"   cbor:"3,keyasint"`
	TargetAmount  *BigInt        `json:"targetAmount"  cbor:"4,keyasint"`
	Deadline      time.Time      `json:"deadline"      cbor:"5,keyasint"`
	Active        bool           `json:"active"        cbor:"6,keyasint"`
	CurrentAmount *BigInt        `json:"currentAmount" cbor:"7,keyasint"`
	Withdrawn     bool           `json:"withdrawn"     cbor:"8,keyasint"`
	Initialized   bool           `json:"initialized"   cbor:"9,keyasint,omitempty"`
	DonorsCount   uint64         `json:"donorsCount"   cbor:"10,keyasint,omitempty"`
	TotalRaised   HexBytes       `json:"-"             cbor:"11,keyasint,omitempty"`
}

func (c *Campaign) String() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(data)
}

// DonationRecord is the per (campaign, donor) ledger entry. Repeat donations
// from the same donor accumulate into the same record; it is created lazily
// on the first donation and never removed.
type DonationRecord struct {
	CampaignID      uint64         `json:"campaignId"      cbor:"0,keyasint"`
	Donor           common.Address `json:"donor"           cbor:"1,keyasint"`
	SealedAmount    HexBytes       `json:"-"               cbor:"2,keyasint"`
	HasDonated      bool           `json:"hasDonated"      cbor:"3,keyasint"`
	FirstDonation   time.Time      `json:"firstDonation"   cbor:"4,keyasint,omitempty"`
	DonationsCount  uint64         `json:"donationsCount"  cbor:"5,keyasint,omitempty"`
}
