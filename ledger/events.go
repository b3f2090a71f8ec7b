package ledger

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/vocdoni/fundraiser-z-sandbox/types"
	"go.vocdoni.io/dvote/log"
)

// Event is an observable ledger event. DonationMade deliberately omits the
// amount: donations are confidential, only the fact that a donor contributed
// is public.
type Event interface {
	isEvent()
}

// CampaignCreated is emitted after a campaign is successfully created.
type CampaignCreated struct {
	CampaignID   uint64
	Creator      common.Address
	Title        string
	TargetAmount *types.BigInt
	Deadline     time.Time
}

func (CampaignCreated) isEvent() {}

// DonationMade is emitted after a donation is accepted. It carries no amount.
type DonationMade struct {
	CampaignID uint64
	Donor      common.Address
}

func (DonationMade) isEvent() {}

// subscriberBufSize is the channel buffer per subscriber. Slow subscribers
// drop events rather than block the ledger.
const subscriberBufSize = 64

type eventBus struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]chan Event
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[uuid.UUID]chan Event)}
}

func (b *eventBus) subscribe() (uuid.UUID, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.New()
	ch := make(chan Event, subscriberBufSize)
	b.subs[id] = ch
	return id, ch
}

func (b *eventBus) unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

func (b *eventBus) publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			log.Warnw("event subscriber channel full, dropping event", "subscriber", id.String())
		}
	}
}
