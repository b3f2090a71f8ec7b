// Package ledger implements the campaign registry and donation ledger: the
// lifecycle rules of fundraising campaigns and the append-only record of
// their contributions. The public balance of a campaign is transparent and
// backs withdrawal; the per donor amounts and the grand total are sealed
// ciphertexts the ledger accumulates but never inspects. Proof verification
// of sealed amounts is delegated to an external collaborator and treated
// fail closed.
//
// Every mutating operation executes as one indivisible step: the ledger
// serializes them behind a mutex and commits multi-artifact updates through
// a single storage transaction, so readers always observe a consistent
// snapshot.
package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/vocdoni/fundraiser-z-sandbox/crypto/sealed"
	"github.com/vocdoni/fundraiser-z-sandbox/storage"
	"github.com/vocdoni/fundraiser-z-sandbox/types"
	"go.vocdoni.io/dvote/log"
)

// Transferor moves the public balance to the creator on withdrawal. It is an
// external collaborator (typically the chain or payment layer); a returned
// error aborts the withdrawal with no state committed.
type Transferor interface {
	Transfer(to common.Address, amount *types.BigInt) error
}

// Ledger is the campaign registry and donation ledger core.
type Ledger struct {
	stg        *storage.Storage
	verifier   sealed.Verifier
	transferor Transferor
	bus        *eventBus
	now        func() time.Time

	// mu serializes all mutating operations (create, donate, end,
	// withdraw) so no two of them interleave their reads and writes.
	mu sync.Mutex
}

// New creates a Ledger on top of the given storage, sealed amount verifier
// and funds transferor.
func New(stg *storage.Storage, verifier sealed.Verifier, transferor Transferor) *Ledger {
	return &Ledger{
		stg:        stg,
		verifier:   verifier,
		transferor: transferor,
		bus:        newEventBus(),
		now:        time.Now,
	}
}

// Subscribe registers an event subscriber and returns its id and channel.
func (l *Ledger) Subscribe() (uuid.UUID, <-chan Event) {
	return l.bus.subscribe()
}

// Unsubscribe removes an event subscriber and closes its channel.
func (l *Ledger) Unsubscribe(id uuid.UUID) {
	l.bus.unsubscribe(id)
}

// CreateCampaign registers a new campaign and returns its sequential id.
// The campaign starts Active with a zero balance and a deadline of now plus
// duration.
func (l *Ledger) CreateCampaign(creator common.Address, title, description string,
	targetAmount *types.BigInt, duration time.Duration,
) (uint64, error) {
	if title == "" {
		return 0, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	if description == "" {
		return 0, fmt.Errorf("%w: description required", ErrInvalidInput)
	}
	if targetAmount == nil || targetAmount.Sign() <= 0 {
		return 0, fmt.Errorf("%w: target amount must be greater than 0", ErrInvalidInput)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%w: duration must be greater than 0", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	campaign := &types.Campaign{
		Creator:       creator,
		Title:         title,
		Description:   description,
		TargetAmount:  targetAmount,
		Deadline:      l.now().Add(duration),
		Active:        true,
		CurrentAmount: new(types.BigInt).SetUint64(0),
	}
	id, err := l.stg.CreateCampaign(campaign)
	if err != nil {
		return 0, fmt.Errorf("store campaign: %w", err)
	}
	log.Infow("campaign created", "campaignId", id, "creator", creator.Hex(),
		"target", targetAmount.String(), "deadline", campaign.Deadline)
	l.bus.publish(CampaignCreated{
		CampaignID:   id,
		Creator:      creator,
		Title:        title,
		TargetAmount: targetAmount,
		Deadline:     campaign.Deadline,
	})
	return id, nil
}

// CampaignInfo returns the stored campaign data.
func (l *Ledger) CampaignInfo(campaignID uint64) (*types.Campaign, error) {
	return l.campaign(campaignID)
}

// ProgressPercentage returns the funding progress of a campaign in [0,100].
// The balance keeps accumulating past the target; only the displayed
// percentage is capped.
func (l *Ledger) ProgressPercentage(campaignID uint64) (uint8, error) {
	campaign, err := l.campaign(campaignID)
	if err != nil {
		return 0, err
	}
	current := campaign.CurrentAmount.MathBigInt()
	target := campaign.TargetAmount.MathBigInt()
	if current.Cmp(target) >= 0 {
		return types.ProgressMax, nil
	}
	// floor(current * 100 / target)
	progress := new(big.Int).Mul(current, big.NewInt(types.ProgressMax))
	progress.Div(progress, target)
	return uint8(progress.Uint64()), nil
}

// ListCampaigns returns all campaign ids in creation order.
func (l *Ledger) ListCampaigns() ([]uint64, error) {
	return l.stg.ListCampaigns()
}

// ListActiveCampaigns returns the ids of campaigns whose stored state is
// Active, in creation order. It does not filter by deadline or target:
// expiry and target-reached are derived conditions computed by callers.
func (l *Ledger) ListActiveCampaigns() ([]uint64, error) {
	ids, err := l.stg.ListCampaigns()
	if err != nil {
		return nil, err
	}
	active := make([]uint64, 0, len(ids))
	for _, id := range ids {
		campaign, err := l.stg.Campaign(id)
		if err != nil {
			return nil, err
		}
		if campaign.Active {
			active = append(active, id)
		}
	}
	return active, nil
}

// EndCampaign transitions a campaign from Active to Ended. Only the creator
// may end a campaign; the transition is independent of deadline or target
// and is terminal.
func (l *Ledger) EndCampaign(campaignID uint64, caller common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	campaign, err := l.campaign(campaignID)
	if err != nil {
		return err
	}
	if caller != campaign.Creator {
		return fmt.Errorf("%w: only campaign creator", ErrUnauthorized)
	}
	if !campaign.Active {
		return ErrAlreadyEnded
	}
	campaign.Active = false
	if err := l.stg.SetCampaign(campaign); err != nil {
		return fmt.Errorf("store campaign: %w", err)
	}
	log.Infow("campaign ended", "campaignId", campaignID, "caller", caller.Hex())
	return nil
}

// Donate accepts a contribution to a campaign. The sealed amount is the
// donor's confidential pledge; the attached value funds the public balance
// and the verification cost, and the two are deliberately decoupled. The
// whole operation is atomic: on any failure no state changes.
func (l *Ledger) Donate(campaignID uint64, donor common.Address,
	sealedAmount *sealed.Ciphertext, proof []byte, attachedValue *types.BigInt,
) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	campaign, err := l.campaign(campaignID)
	if err != nil {
		return err
	}
	if !campaign.Active {
		return ErrNotActive
	}
	if attachedValue == nil || attachedValue.Cmp(types.MinDonationValue) < 0 {
		return fmt.Errorf("%w: minimum %s wei required", ErrInsufficientGasValue,
			types.MinDonationValue.String())
	}
	if sealedAmount == nil {
		return fmt.Errorf("%w: missing sealed amount", ErrInvalidProof)
	}
	// verification is synchronous and fail closed: any error rejects
	if err := l.verifier.VerifySealedAmount(sealedAmount, proof, types.SealedAmountWidthBits); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	record, err := l.stg.DonationRecord(campaignID, donor)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		// first donation from this donor, create the record lazily
		record = &types.DonationRecord{
			CampaignID:    campaignID,
			Donor:         donor,
			SealedAmount:  sealed.NewCiphertext().Serialize(),
			FirstDonation: l.now(),
		}
		campaign.DonorsCount++
	default:
		return fmt.Errorf("read donation record: %w", err)
	}

	donorTotal, err := deserializeSealed(record.SealedAmount)
	if err != nil {
		return fmt.Errorf("donor sealed total: %w", err)
	}
	grandTotal, err := deserializeSealed(campaign.TotalRaised)
	if err != nil {
		return fmt.Errorf("campaign sealed total: %w", err)
	}
	record.SealedAmount = donorTotal.Add(donorTotal, sealedAmount).Serialize()
	record.HasDonated = true
	record.DonationsCount++
	campaign.TotalRaised = grandTotal.Add(grandTotal, sealedAmount).Serialize()
	campaign.CurrentAmount = new(types.BigInt).Add(campaign.CurrentAmount, attachedValue)
	campaign.Initialized = true

	if err := l.stg.CommitDonation(campaign, record); err != nil {
		return fmt.Errorf("commit donation: %w", err)
	}
	log.Infow("donation accepted", "campaignId", campaignID, "donor", donor.Hex(),
		"balance", campaign.CurrentAmount.String(), "donors", campaign.DonorsCount)
	l.bus.publish(DonationMade{CampaignID: campaignID, Donor: donor})
	return nil
}

// DonorsCount returns the number of distinct donors of a campaign.
func (l *Ledger) DonorsCount(campaignID uint64) (uint64, error) {
	campaign, err := l.campaign(campaignID)
	if err != nil {
		return 0, err
	}
	return campaign.DonorsCount, nil
}

// IsInitialized reports whether a campaign has accepted any donation.
func (l *Ledger) IsInitialized(campaignID uint64) (bool, error) {
	campaign, err := l.campaign(campaignID)
	if err != nil {
		return false, err
	}
	return campaign.Initialized, nil
}

// CampaignBalance returns the public balance of a campaign. It is
// intentionally public and carries no access restriction.
func (l *Ledger) CampaignBalance(campaignID uint64) (*types.BigInt, error) {
	campaign, err := l.campaign(campaignID)
	if err != nil {
		return nil, err
	}
	return campaign.CurrentAmount, nil
}

// DonationAmount returns the sealed accumulated amount of a donor. The
// caller must be the donor themself or the campaign creator. Donors that
// never contributed yield the zero-valued sentinel ciphertext.
func (l *Ledger) DonationAmount(campaignID uint64, donor, caller common.Address) (*sealed.Ciphertext, error) {
	campaign, err := l.campaign(campaignID)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(OpDonationAmount, campaign.Creator, donor, caller); err != nil {
		return nil, err
	}
	record, err := l.stg.DonationRecord(campaignID, donor)
	if errors.Is(err, storage.ErrNotFound) {
		return sealed.NewCiphertext(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read donation record: %w", err)
	}
	return deserializeSealed(record.SealedAmount)
}

// EncryptedTotalRaised returns the sealed grand total of a campaign. Only
// the creator may read it.
func (l *Ledger) EncryptedTotalRaised(campaignID uint64, caller common.Address) (*sealed.Ciphertext, error) {
	campaign, err := l.campaign(campaignID)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(OpTotalRaised, campaign.Creator, common.Address{}, caller); err != nil {
		return nil, err
	}
	return deserializeSealed(campaign.TotalRaised)
}

// WithdrawFunds transfers the whole public balance to the creator, exactly
// once per campaign. The withdrawn flag and the transfer commit together: a
// failed transfer leaves no state change, and once the flag is set every
// further call fails with ErrAlreadyWithdrawn.
func (l *Ledger) WithdrawFunds(campaignID uint64, caller common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	campaign, err := l.campaign(campaignID)
	if err != nil {
		return err
	}
	if caller != campaign.Creator {
		return fmt.Errorf("%w: only campaign creator", ErrUnauthorized)
	}
	if campaign.Active {
		return ErrCampaignStillActive
	}
	if campaign.Withdrawn {
		return ErrAlreadyWithdrawn
	}
	amount := campaign.CurrentAmount
	if err := l.transferor.Transfer(campaign.Creator, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	campaign.Withdrawn = true
	if err := l.stg.SetCampaign(campaign); err != nil {
		return fmt.Errorf("store campaign: %w", err)
	}
	log.Infow("funds withdrawn", "campaignId", campaignID, "creator", caller.Hex(),
		"amount", amount.String())
	return nil
}

// campaign loads a campaign, mapping storage misses to ErrNotFound.
func (l *Ledger) campaign(campaignID uint64) (*types.Campaign, error) {
	campaign, err := l.stg.Campaign(campaignID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, campaignID)
	}
	if err != nil {
		return nil, fmt.Errorf("read campaign: %w", err)
	}
	return campaign, nil
}

// deserializeSealed decodes a stored sealed amount; empty input yields the
// zero-valued sentinel.
func deserializeSealed(data types.HexBytes) (*sealed.Ciphertext, error) {
	ct := sealed.NewCiphertext()
	if len(data) == 0 {
		return ct, nil
	}
	if err := ct.Deserialize(data); err != nil {
		return nil, err
	}
	return ct, nil
}
