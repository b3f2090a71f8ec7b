package api

import (
	"encoding/json"
	"net/http"

	"github.com/vocdoni/fundraiser-z-sandbox/crypto/ethereum"
	"go.vocdoni.io/dvote/log"
)

// newDonation registers a donation to a campaign
// POST /campaigns/{campaignId}/donations
func (a *API) newDonation(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlCampaignID(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	req := &Donation{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.SealedAmount == nil {
		ErrMalformedBody.Withf("missing sealed amount").Write(w)
		return
	}
	if req.AttachedValue == nil {
		ErrMalformedBody.Withf("missing attached value").Write(w)
		return
	}

	// Extract the donor address from the signature
	donor, err := ethereum.AddrFromSignature(DonationPayload(id, req.AttachedValue), req.Signature)
	if err != nil {
		ErrInvalidSignature.Withf("could not extract address from signature: %v", err).Write(w)
		return
	}

	if err := a.ledger.Donate(id, donor, req.SealedAmount, req.Proof, req.AttachedValue); err != nil {
		fromLedgerError(err).Write(w)
		return
	}

	log.Infow("new donation", "campaignId", id, "donor", donor.Hex())
	httpWriteOK(w)
}

// donationAmount returns the confidential donation total of a donor in a
// campaign. Only the donor or the campaign creator can read it, authenticated
// by signature.
// GET /campaigns/{campaignId}/donations/{donorAddress}
func (a *API) donationAmount(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlCampaignID(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	donor, apiErr := urlDonorAddress(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	caller, apiErr := queryCallerAddress(r, DonationAmountPayload(id, donor))
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	amount, err := a.ledger.DonationAmount(id, donor, caller)
	if err != nil {
		fromLedgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &SealedAmount{SealedAmount: amount})
}
