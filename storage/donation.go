package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/fundraiser-z-sandbox/types"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// donationKey returns the storage key for a (campaign, donor) pair.
func donationKey(campaignID uint64, donor common.Address) []byte {
	return append(campaignKey(campaignID), donor.Bytes()...)
}

// DonationRecord retrieves the donation record for a (campaign, donor) pair.
// Returns ErrNotFound if the donor never contributed to the campaign.
func (s *Storage) DonationRecord(campaignID uint64, donor common.Address) (*types.DonationRecord, error) {
	r := &types.DonationRecord{}
	if err := s.getArtifact(donationPrefix, donationKey(campaignID, donor), r); err != nil {
		return nil, err
	}
	return r, nil
}

// CommitDonation stores the updated campaign and donation record in a single
// transaction. Either both writes land or none does.
func (s *Storage) CommitDonation(c *types.Campaign, r *types.DonationRecord) error {
	if c == nil || r == nil {
		return fmt.Errorf("nil campaign or donation record")
	}
	if r.CampaignID != c.ID {
		return fmt.Errorf("donation record campaign mismatch: %d != %d", r.CampaignID, c.ID)
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	campaignData, err := encodeArtifact(c)
	if err != nil {
		return fmt.Errorf("encode campaign: %w", err)
	}
	recordData, err := encodeArtifact(r)
	if err != nil {
		return fmt.Errorf("encode donation record: %w", err)
	}

	tx := s.db.WriteTx()
	if err := prefixeddb.NewPrefixedWriteTx(tx, campaignPrefix).Set(campaignKey(c.ID), campaignData); err != nil {
		tx.Discard()
		return err
	}
	if err := prefixeddb.NewPrefixedWriteTx(tx, donationPrefix).Set(donationKey(r.CampaignID, r.Donor), recordData); err != nil {
		tx.Discard()
		return err
	}
	return tx.Commit()
}

// ListDonors returns the addresses of all donors of a campaign, in key
// order.
func (s *Storage) ListDonors(campaignID uint64) ([]common.Address, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, donationPrefix)
	var donors []common.Address
	if err := rd.Iterate(campaignKey(campaignID), func(k, _ []byte) bool {
		if len(k) == common.AddressLength {
			donors = append(donors, common.BytesToAddress(k))
		}
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}
	return donors, nil
}
