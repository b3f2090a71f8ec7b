package tests

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/vocdoni/arbo/memdb"
	"github.com/vocdoni/fundraiser-z-sandbox/api/client"
	"github.com/vocdoni/fundraiser-z-sandbox/crypto/ethereum"
	"github.com/vocdoni/fundraiser-z-sandbox/crypto/sealed"
	"github.com/vocdoni/fundraiser-z-sandbox/ledger"
	"github.com/vocdoni/fundraiser-z-sandbox/service"
	"github.com/vocdoni/fundraiser-z-sandbox/storage"
	"github.com/vocdoni/fundraiser-z-sandbox/types"
	"github.com/vocdoni/fundraiser-z-sandbox/util"
)

// recordingTransferor stands in for the payment layer and records every
// transfer the ledger orders.
type recordingTransferor struct {
	mu        sync.Mutex
	transfers map[common.Address]*types.BigInt
}

func newRecordingTransferor() *recordingTransferor {
	return &recordingTransferor{transfers: make(map[common.Address]*types.BigInt)}
}

func (rt *recordingTransferor) Transfer(to common.Address, amount *types.BigInt) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.transfers[to] = amount
	return nil
}

func (rt *recordingTransferor) received(to common.Address) *types.BigInt {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.transfers[to]
}

// setupService starts a full stack (storage, ledger, API server) on a random
// port and returns the API service, the ledger and the transfer recorder.
func setupService(ctx context.Context) (*service.APIService, *ledger.Ledger, *recordingTransferor, error) {
	store := storage.New(memdb.New())
	transferor := newRecordingTransferor()
	lgr := ledger.New(store, sealed.PoseidonVerifier{}, transferor)

	tmpPort := util.RandomInt(40000, 60000)
	apiSrv := service.NewAPI(lgr, "127.0.0.1", tmpPort)
	if err := apiSrv.Start(ctx); err != nil {
		return nil, nil, nil, err
	}

	// Wait for the HTTP server to start
	time.Sleep(500 * time.Millisecond)
	return apiSrv, lgr, transferor, nil
}

// NewTestSigner creates and initializes a new ethereum signer for testing.
func NewTestSigner() (*ethereum.SignKeys, error) {
	signer := ethereum.NewSignKeys()
	if err := signer.Generate(); err != nil {
		return nil, err
	}
	return signer, nil
}

// NewTestClient creates a new API client for testing.
func NewTestClient(port int) (*client.HTTPclient, error) {
	return client.New(fmt.Sprintf("http://127.0.0.1:%d", port))
}

// sealedPledge encrypts a pledge amount under the given key and produces the
// commitment the verifier accepts for it.
func sealedPledge(c *qt.C, publicKey *babyjub.Point, amount uint64) (*sealed.Ciphertext, types.HexBytes) {
	ct, _, err := sealed.Encrypt(publicKey, amount)
	c.Assert(err, qt.IsNil)
	proof, err := sealed.ProveSealedAmount(ct, types.SealedAmountWidthBits)
	c.Assert(err, qt.IsNil)
	return ct, proof
}
