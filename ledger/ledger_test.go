package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/fundraiser-z-sandbox/crypto/sealed"
	"github.com/vocdoni/fundraiser-z-sandbox/storage"
	"github.com/vocdoni/fundraiser-z-sandbox/types"
	"github.com/vocdoni/fundraiser-z-sandbox/util"
	"go.vocdoni.io/dvote/db/metadb"
)

// amounts in wei
var (
	oneEth      = big.NewInt(1_000_000_000_000_000_000)
	halfEth     = big.NewInt(500_000_000_000_000_000)
	minDonation = big.NewInt(1_000_000_000_000_000) // 0.001 ETH
	belowMin    = big.NewInt(500_000_000_000_000)   // 0.0005 ETH
	twoMin      = big.NewInt(2_000_000_000_000_000) // 0.002 ETH
)

func bi(x *big.Int) *types.BigInt { return (*types.BigInt)(new(big.Int).Set(x)) }

func randAddr() common.Address {
	return common.BytesToAddress(util.RandomBytes(20))
}

// mockTransferor records transfers and can be set to fail.
type mockTransferor struct {
	transfers map[common.Address]*big.Int
	fail      bool
}

func newMockTransferor() *mockTransferor {
	return &mockTransferor{transfers: make(map[common.Address]*big.Int)}
}

func (m *mockTransferor) Transfer(to common.Address, amount *types.BigInt) error {
	if m.fail {
		return fmt.Errorf("transport unavailable")
	}
	total, ok := m.transfers[to]
	if !ok {
		total = big.NewInt(0)
		m.transfers[to] = total
	}
	total.Add(total, amount.MathBigInt())
	return nil
}

func newTestLedger(t *testing.T) (*Ledger, *mockTransferor) {
	transferor := newMockTransferor()
	stg := storage.New(metadb.NewTest(t))
	return New(stg, sealed.PoseidonVerifier{}, transferor), transferor
}

type donationEnv struct {
	ledger     *Ledger
	transferor *mockTransferor
	creator    common.Address
	campaignID uint64
}

func newDonationEnv(t *testing.T) *donationEnv {
	c := qt.New(t)
	l, transferor := newTestLedger(t)
	creator := randAddr()
	id, err := l.CreateCampaign(creator, "Test Campaign", "Test description", bi(oneEth), 24*time.Hour)
	c.Assert(err, qt.IsNil)
	return &donationEnv{ledger: l, transferor: transferor, creator: creator, campaignID: id}
}

// donate encrypts amount under a throwaway key and submits it with the given
// attached value.
func (env *donationEnv) donate(t *testing.T, donor common.Address, pledge uint64, attached *big.Int) error {
	ct, proof := sealedPledge(t, pledge)
	return env.ledger.Donate(env.campaignID, donor, ct, proof, bi(attached))
}

func sealedPledge(t *testing.T, amount uint64) (*sealed.Ciphertext, []byte) {
	c := qt.New(t)
	publicKey, _, err := sealed.GenerateKey()
	c.Assert(err, qt.IsNil)
	ct, _, err := sealed.Encrypt(publicKey, amount)
	c.Assert(err, qt.IsNil)
	proof, err := sealed.ProveSealedAmount(ct, types.SealedAmountWidthBits)
	c.Assert(err, qt.IsNil)
	return ct, proof
}

func TestCreateCampaign(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)
	creator := randAddr()

	id, err := l.CreateCampaign(creator, "Help Anna", "Anna needs help", bi(oneEth), 30*24*time.Hour)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, uint64(0))

	info, err := l.CampaignInfo(id)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Creator, qt.Equals, creator)
	c.Assert(info.Title, qt.Equals, "Help Anna")
	c.Assert(info.Description, qt.Equals, "Anna needs help")
	c.Assert(info.TargetAmount.MathBigInt().Cmp(oneEth), qt.Equals, 0)
	c.Assert(info.Active, qt.IsTrue)
	c.Assert(info.Withdrawn, qt.IsFalse)
	c.Assert(info.CurrentAmount.Sign(), qt.Equals, 0)

	// no donations yet: progress is zero, not initialized, no donors
	progress, err := l.ProgressPercentage(id)
	c.Assert(err, qt.IsNil)
	c.Assert(progress, qt.Equals, uint8(0))
	initialized, err := l.IsInitialized(id)
	c.Assert(err, qt.IsNil)
	c.Assert(initialized, qt.IsFalse)
	count, err := l.DonorsCount(id)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(0))
}

func TestCreateCampaignValidation(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)
	creator := randAddr()

	_, err := l.CreateCampaign(creator, "", "description", bi(oneEth), time.Hour)
	c.Assert(errors.Is(err, ErrInvalidInput), qt.IsTrue)
	_, err = l.CreateCampaign(creator, "title", "", bi(oneEth), time.Hour)
	c.Assert(errors.Is(err, ErrInvalidInput), qt.IsTrue)
	_, err = l.CreateCampaign(creator, "title", "description", bi(big.NewInt(0)), time.Hour)
	c.Assert(errors.Is(err, ErrInvalidInput), qt.IsTrue)
	_, err = l.CreateCampaign(creator, "title", "description", bi(oneEth), 0)
	c.Assert(errors.Is(err, ErrInvalidInput), qt.IsTrue)

	// nothing was created
	ids, err := l.ListCampaigns()
	c.Assert(err, qt.IsNil)
	c.Assert(ids, qt.HasLen, 0)
}

func TestCampaignListing(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)
	creator := randAddr()

	for i := 0; i < 3; i++ {
		_, err := l.CreateCampaign(creator, fmt.Sprintf("Campaign %d", i), "description", bi(oneEth), time.Hour)
		c.Assert(err, qt.IsNil)
	}
	all, err := l.ListCampaigns()
	c.Assert(err, qt.IsNil)
	c.Assert(all, qt.DeepEquals, []uint64{0, 1, 2})

	c.Assert(l.EndCampaign(1, creator), qt.IsNil)
	active, err := l.ListActiveCampaigns()
	c.Assert(err, qt.IsNil)
	c.Assert(active, qt.DeepEquals, []uint64{0, 2})

	// the full listing still reports ended campaigns
	all, err = l.ListCampaigns()
	c.Assert(err, qt.IsNil)
	c.Assert(all, qt.DeepEquals, []uint64{0, 1, 2})
}

func TestEndCampaign(t *testing.T) {
	c := qt.New(t)
	env := newDonationEnv(t)

	c.Assert(env.ledger.EndCampaign(99, env.creator), qt.ErrorIs, ErrNotFound)
	err := env.ledger.EndCampaign(env.campaignID, randAddr())
	c.Assert(errors.Is(err, ErrUnauthorized), qt.IsTrue)

	c.Assert(env.ledger.EndCampaign(env.campaignID, env.creator), qt.IsNil)
	info, err := env.ledger.CampaignInfo(env.campaignID)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Active, qt.IsFalse)

	// idempotent-rejecting: the second call fails
	c.Assert(env.ledger.EndCampaign(env.campaignID, env.creator), qt.ErrorIs, ErrAlreadyEnded)
}

func TestDonatePreconditions(t *testing.T) {
	c := qt.New(t)
	env := newDonationEnv(t)
	donor := randAddr()
	ct, proof := sealedPledge(t, 100)

	// unknown campaign
	err := env.ledger.Donate(999, donor, ct, proof, bi(minDonation))
	c.Assert(errors.Is(err, ErrNotFound), qt.IsTrue)

	// attached value below the floor, state untouched
	err = env.donate(t, donor, 100, belowMin)
	c.Assert(errors.Is(err, ErrInsufficientGasValue), qt.IsTrue)
	balance, err := env.ledger.CampaignBalance(env.campaignID)
	c.Assert(err, qt.IsNil)
	c.Assert(balance.Sign(), qt.Equals, 0)
	count, err := env.ledger.DonorsCount(env.campaignID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(0))

	// rejected proof, state untouched
	err = env.ledger.Donate(env.campaignID, donor, ct, []byte("bogus"), bi(minDonation))
	c.Assert(errors.Is(err, ErrInvalidProof), qt.IsTrue)
	initialized, err := env.ledger.IsInitialized(env.campaignID)
	c.Assert(err, qt.IsNil)
	c.Assert(initialized, qt.IsFalse)

	// ended campaign rejects donations before even the gas check
	c.Assert(env.ledger.EndCampaign(env.campaignID, env.creator), qt.IsNil)
	err = env.ledger.Donate(env.campaignID, donor, ct, proof, bi(belowMin))
	c.Assert(errors.Is(err, ErrNotActive), qt.IsTrue)
}

func TestDonateAccumulation(t *testing.T) {
	c := qt.New(t)
	env := newDonationEnv(t)
	donor1 := randAddr()
	donor2 := randAddr()

	c.Assert(env.donate(t, donor1, 100, minDonation), qt.IsNil)

	count, err := env.ledger.DonorsCount(env.campaignID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(1))
	initialized, err := env.ledger.IsInitialized(env.campaignID)
	c.Assert(err, qt.IsNil)
	c.Assert(initialized, qt.IsTrue)

	// repeat donation from the same donor does not change the donor count
	c.Assert(env.donate(t, donor1, 50, twoMin), qt.IsNil)
	count, err = env.ledger.DonorsCount(env.campaignID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(1))

	// a different donor does
	c.Assert(env.donate(t, donor2, 7, minDonation), qt.IsNil)
	count, err = env.ledger.DonorsCount(env.campaignID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(2))

	// the public balance is the exact sum of attached values
	want := new(big.Int).Add(minDonation, twoMin)
	want.Add(want, minDonation)
	balance, err := env.ledger.CampaignBalance(env.campaignID)
	c.Assert(err, qt.IsNil)
	c.Assert(balance.MathBigInt().Cmp(want), qt.Equals, 0)
}

func TestProgressPercentage(t *testing.T) {
	c := qt.New(t)
	env := newDonationEnv(t)
	donor := randAddr()

	// target is 1 ETH, donate 0.5 ETH attached
	c.Assert(env.donate(t, donor, 10, halfEth), qt.IsNil)
	progress, err := env.ledger.ProgressPercentage(env.campaignID)
	c.Assert(err, qt.IsNil)
	c.Assert(progress, qt.Equals, uint8(50))

	// overshooting a small target caps at 100
	l := env.ledger
	small, err := l.CreateCampaign(env.creator, "Small Target", "Easy to exceed",
		bi(minDonation), 24*time.Hour)
	c.Assert(err, qt.IsNil)
	ct, proof := sealedPledge(t, 1)
	c.Assert(l.Donate(small, donor, ct, proof, bi(new(big.Int).Mul(minDonation, big.NewInt(10)))), qt.IsNil)
	progress, err = l.ProgressPercentage(small)
	c.Assert(err, qt.IsNil)
	c.Assert(progress, qt.Equals, uint8(100))

	_, err = l.ProgressPercentage(12345)
	c.Assert(errors.Is(err, ErrNotFound), qt.IsTrue)
}

func TestWithdrawFunds(t *testing.T) {
	c := qt.New(t)
	env := newDonationEnv(t)
	donor := randAddr()

	c.Assert(env.donate(t, donor, 42, halfEth), qt.IsNil)

	// withdrawal gates: still active, wrong caller
	c.Assert(env.ledger.WithdrawFunds(env.campaignID, env.creator), qt.ErrorIs, ErrCampaignStillActive)
	c.Assert(env.ledger.EndCampaign(env.campaignID, env.creator), qt.IsNil)
	err := env.ledger.WithdrawFunds(env.campaignID, randAddr())
	c.Assert(errors.Is(err, ErrUnauthorized), qt.IsTrue)

	// success transfers exactly the balance to the creator
	c.Assert(env.ledger.WithdrawFunds(env.campaignID, env.creator), qt.IsNil)
	c.Assert(env.transferor.transfers[env.creator].Cmp(halfEth), qt.Equals, 0)

	// single-withdrawal guarantee
	c.Assert(env.ledger.WithdrawFunds(env.campaignID, env.creator), qt.ErrorIs, ErrAlreadyWithdrawn)
	c.Assert(env.transferor.transfers[env.creator].Cmp(halfEth), qt.Equals, 0)
}

func TestWithdrawFailedTransfer(t *testing.T) {
	c := qt.New(t)
	env := newDonationEnv(t)
	donor := randAddr()

	c.Assert(env.donate(t, donor, 42, halfEth), qt.IsNil)
	c.Assert(env.ledger.EndCampaign(env.campaignID, env.creator), qt.IsNil)

	// a failed transfer must not mark the campaign withdrawn
	env.transferor.fail = true
	err := env.ledger.WithdrawFunds(env.campaignID, env.creator)
	c.Assert(errors.Is(err, ErrTransferFailed), qt.IsTrue)
	info, err := env.ledger.CampaignInfo(env.campaignID)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Withdrawn, qt.IsFalse)

	// the retry after recovery succeeds exactly once
	env.transferor.fail = false
	c.Assert(env.ledger.WithdrawFunds(env.campaignID, env.creator), qt.IsNil)
	c.Assert(env.ledger.WithdrawFunds(env.campaignID, env.creator), qt.ErrorIs, ErrAlreadyWithdrawn)
	c.Assert(env.transferor.transfers[env.creator].Cmp(halfEth), qt.Equals, 0)
}

func TestSealedReads(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)
	creator := randAddr()
	donor := randAddr()
	stranger := randAddr()

	// encrypt all pledges under one key so totals can be decrypted
	publicKey, privateKey, err := sealed.GenerateKey()
	c.Assert(err, qt.IsNil)
	id, err := l.CreateCampaign(creator, "Sealed", "Confidential pledges", bi(oneEth), time.Hour)
	c.Assert(err, qt.IsNil)

	pledges := []uint64{100, 250}
	for _, amount := range pledges {
		ct, _, err := sealed.Encrypt(publicKey, amount)
		c.Assert(err, qt.IsNil)
		proof, err := sealed.ProveSealedAmount(ct, types.SealedAmountWidthBits)
		c.Assert(err, qt.IsNil)
		c.Assert(l.Donate(id, donor, ct, proof, bi(minDonation)), qt.IsNil)
	}

	// the donor and the creator may read the donor's sealed total
	for _, caller := range []common.Address{donor, creator} {
		ct, err := l.DonationAmount(id, donor, caller)
		c.Assert(err, qt.IsNil)
		amount, err := sealed.Decrypt(privateKey, ct, 1000)
		c.Assert(err, qt.IsNil)
		c.Assert(amount, qt.Equals, uint64(350))
	}
	// a third party may not
	_, err = l.DonationAmount(id, donor, stranger)
	c.Assert(errors.Is(err, ErrUnauthorized), qt.IsTrue)

	// a donor that never contributed reads as the zero sentinel
	ct, err := l.DonationAmount(id, stranger, creator)
	c.Assert(err, qt.IsNil)
	c.Assert(ct.IsZero(), qt.IsTrue)

	// only the creator may read the sealed grand total
	_, err = l.EncryptedTotalRaised(id, donor)
	c.Assert(errors.Is(err, ErrUnauthorized), qt.IsTrue)
	total, err := l.EncryptedTotalRaised(id, creator)
	c.Assert(err, qt.IsNil)
	amount, err := sealed.Decrypt(privateKey, total, 1000)
	c.Assert(err, qt.IsNil)
	c.Assert(amount, qt.Equals, uint64(350))
}

func TestEvents(t *testing.T) {
	c := qt.New(t)
	env := newDonationEnv(t)
	donor := randAddr()

	subID, events := env.ledger.Subscribe()
	defer env.ledger.Unsubscribe(subID)

	id, err := env.ledger.CreateCampaign(env.creator, "Observed", "With subscribers", bi(oneEth), time.Hour)
	c.Assert(err, qt.IsNil)

	ev := <-events
	created, ok := ev.(CampaignCreated)
	c.Assert(ok, qt.IsTrue)
	c.Assert(created.CampaignID, qt.Equals, id)
	c.Assert(created.Creator, qt.Equals, env.creator)
	c.Assert(created.Title, qt.Equals, "Observed")

	ct, proof := sealedPledge(t, 5)
	c.Assert(env.ledger.Donate(id, donor, ct, proof, bi(minDonation)), qt.IsNil)

	ev = <-events
	made, ok := ev.(DonationMade)
	c.Assert(ok, qt.IsTrue)
	c.Assert(made.CampaignID, qt.Equals, id)
	c.Assert(made.Donor, qt.Equals, donor)
}
