package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vocdoni/fundraiser-z-sandbox/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// campaignKey returns the storage key for a campaign id. Big-endian keys
// make prefixed iteration return campaigns in creation order.
func campaignKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// Campaign retrieves a campaign from the storage. It returns ErrNotFound if
// the id was never assigned.
func (s *Storage) Campaign(id uint64) (*types.Campaign, error) {
	c := &types.Campaign{}
	if err := s.getArtifact(campaignPrefix, campaignKey(id), c); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCampaign assigns the next sequential id to the campaign and stores
// it together with the advanced counter in a single transaction. It returns
// the assigned id.
func (s *Storage) CreateCampaign(c *types.Campaign) (uint64, error) {
	if c == nil {
		return 0, fmt.Errorf("nil campaign")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	id, err := s.campaignCount()
	if err != nil {
		return 0, err
	}
	c.ID = id

	data, err := encodeArtifact(c)
	if err != nil {
		return 0, fmt.Errorf("encode campaign: %w", err)
	}
	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, id+1)

	tx := s.db.WriteTx()
	if err := prefixeddb.NewPrefixedWriteTx(tx, campaignPrefix).Set(campaignKey(id), data); err != nil {
		tx.Discard()
		return 0, err
	}
	if err := prefixeddb.NewPrefixedWriteTx(tx, counterPrefix).Set(counterKey, next); err != nil {
		tx.Discard()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// SetCampaign overwrites an existing campaign record.
func (s *Storage) SetCampaign(c *types.Campaign) error {
	if c == nil {
		return fmt.Errorf("nil campaign")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	return s.setArtifact(campaignPrefix, campaignKey(c.ID), c)
}

// ListCampaigns returns all campaign ids in creation order.
func (s *Storage) ListCampaigns() ([]uint64, error) {
	keys, err := s.listKeys(campaignPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(keys))
	for _, k := range keys {
		if len(k) != 8 {
			continue
		}
		ids = append(ids, binary.BigEndian.Uint64(k))
	}
	return ids, nil
}

// CampaignCount returns the number of campaigns ever created, which is also
// the next id to be assigned.
func (s *Storage) CampaignCount() (uint64, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	return s.campaignCount()
}

func (s *Storage) campaignCount() (uint64, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, counterPrefix)
	data, err := rd.Get(counterKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get campaign counter: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("malformed campaign counter")
	}
	return binary.BigEndian.Uint64(data), nil
}
