package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vocdoni/fundraiser-z-sandbox/ledger"
	"go.vocdoni.io/dvote/log"
)

// DeadlineMonitor represents a service that periodically scans the active
// campaigns and reports the ones whose deadline has passed. Expiry is a
// derived condition, never written back: a campaign stays Active (and keeps
// accepting donations) until its creator ends it.
type DeadlineMonitor struct {
	ledger   *ledger.Ledger
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
	reported map[uint64]bool
}

// NewDeadlineMonitor creates a new DeadlineMonitor service.
func NewDeadlineMonitor(lgr *ledger.Ledger, interval time.Duration) *DeadlineMonitor {
	return &DeadlineMonitor{
		ledger:   lgr,
		interval: interval,
		reported: make(map[uint64]bool),
	}
}

// Start begins monitoring campaign deadlines. It returns an error if the
// service is already running.
func (dm *DeadlineMonitor) Start(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.cancel != nil {
		return fmt.Errorf("service already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	dm.cancel = cancel

	go dm.monitorDeadlines(ctx)
	return nil
}

// Stop halts the monitoring service.
func (dm *DeadlineMonitor) Stop() {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.cancel != nil {
		dm.cancel()
		dm.cancel = nil
	}
}

// ExpiredCampaigns returns the ids of the campaigns the monitor has seen
// past their deadline so far.
func (dm *DeadlineMonitor) ExpiredCampaigns() []uint64 {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	ids := make([]uint64, 0, len(dm.reported))
	for id := range dm.reported {
		ids = append(ids, id)
	}
	return ids
}

func (dm *DeadlineMonitor) monitorDeadlines(ctx context.Context) {
	ticker := time.NewTicker(dm.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeadlineMonitor) scan() {
	ids, err := dm.ledger.ListActiveCampaigns()
	if err != nil {
		log.Warnw("failed to list active campaigns", "error", err.Error())
		return
	}
	now := time.Now()
	for _, id := range ids {
		campaign, err := dm.ledger.CampaignInfo(id)
		if err != nil {
			log.Warnw("failed to fetch campaign", "campaignId", id, "error", err.Error())
			continue
		}
		if now.Before(campaign.Deadline) {
			continue
		}
		dm.mu.Lock()
		seen := dm.reported[id]
		if !seen {
			dm.reported[id] = true
		}
		dm.mu.Unlock()
		if !seen {
			log.Infow("campaign deadline reached", "campaignId", id,
				"creator", campaign.Creator.Hex(), "deadline", campaign.Deadline)
		}
	}
}
