package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vocdoni/fundraiser-z-sandbox/crypto/ethereum"
	"go.vocdoni.io/dvote/log"
)

// createCampaign creates a new fundraising campaign
// POST /campaigns
func (a *API) createCampaign(w http.ResponseWriter, r *http.Request) {
	req := &CampaignRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.TargetAmount == nil {
		ErrInvalidCampaignInput.Withf("missing target amount").Write(w)
		return
	}

	// Extract the creator address from the signature
	creator, err := ethereum.AddrFromSignature(
		CampaignPayload(req.Title, req.Description, req.TargetAmount, req.Duration),
		req.Signature)
	if err != nil {
		ErrInvalidSignature.Withf("could not extract address from signature: %v", err).Write(w)
		return
	}

	id, err := a.ledger.CreateCampaign(creator, req.Title, req.Description,
		req.TargetAmount, time.Duration(req.Duration)*time.Second)
	if err != nil {
		fromLedgerError(err).Write(w)
		return
	}

	log.Infow("new campaign", "campaignId", id, "creator", creator.Hex())
	httpWriteJSON(w, &CampaignResponse{CampaignID: id})
}

// listCampaigns returns all campaign ids in creation order
// GET /campaigns
func (a *API) listCampaigns(w http.ResponseWriter, r *http.Request) {
	ids, err := a.ledger.ListCampaigns()
	if err != nil {
		fromLedgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &CampaignList{Campaigns: ids})
}

// listActiveCampaigns returns the ids of campaigns that have not been ended
// GET /campaigns/active
func (a *API) listActiveCampaigns(w http.ResponseWriter, r *http.Request) {
	ids, err := a.ledger.ListActiveCampaigns()
	if err != nil {
		fromLedgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &CampaignList{Campaigns: ids})
}

// campaignInfo returns the public campaign data
// GET /campaigns/{campaignId}
func (a *API) campaignInfo(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlCampaignID(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	campaign, err := a.ledger.CampaignInfo(id)
	if err != nil {
		fromLedgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, campaign)
}

// campaignProgress returns the funding progress percentage of a campaign
// GET /campaigns/{campaignId}/progress
func (a *API) campaignProgress(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlCampaignID(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	progress, err := a.ledger.ProgressPercentage(id)
	if err != nil {
		fromLedgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &CampaignProgress{Progress: progress})
}

// campaignBalance returns the public balance of a campaign
// GET /campaigns/{campaignId}/balance
func (a *API) campaignBalance(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlCampaignID(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	balance, err := a.ledger.CampaignBalance(id)
	if err != nil {
		fromLedgerError(err).Write(w)
		return
	}
	initialized, err := a.ledger.IsInitialized(id)
	if err != nil {
		fromLedgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &CampaignBalance{Balance: balance, Initialized: initialized})
}

// campaignDonors returns the number of distinct donors of a campaign
// GET /campaigns/{campaignId}/donors
func (a *API) campaignDonors(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlCampaignID(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	donors, err := a.ledger.DonorsCount(id)
	if err != nil {
		fromLedgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &CampaignDonors{Donors: donors})
}

// endCampaign transitions a campaign to the ended state
// POST /campaigns/{campaignId}/end
func (a *API) endCampaign(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlCampaignID(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	req := &SignedAction{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	caller, err := ethereum.AddrFromSignature(EndCampaignPayload(id), req.Signature)
	if err != nil {
		ErrInvalidSignature.Withf("could not extract address from signature: %v", err).Write(w)
		return
	}
	if err := a.ledger.EndCampaign(id, caller); err != nil {
		fromLedgerError(err).Write(w)
		return
	}
	log.Infow("campaign ended", "campaignId", id, "caller", caller.Hex())
	httpWriteOK(w)
}

// withdrawFunds transfers the campaign balance to its creator
// POST /campaigns/{campaignId}/withdraw
func (a *API) withdrawFunds(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlCampaignID(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	req := &SignedAction{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	caller, err := ethereum.AddrFromSignature(WithdrawPayload(id), req.Signature)
	if err != nil {
		ErrInvalidSignature.Withf("could not extract address from signature: %v", err).Write(w)
		return
	}
	if err := a.ledger.WithdrawFunds(id, caller); err != nil {
		fromLedgerError(err).Write(w)
		return
	}
	log.Infow("funds withdrawn", "campaignId", id, "caller", caller.Hex())
	httpWriteOK(w)
}

// campaignTotalRaised returns the confidential accumulated total of a
// campaign. Only the creator can read it, authenticated by signature.
// GET /campaigns/{campaignId}/total
func (a *API) campaignTotalRaised(w http.ResponseWriter, r *http.Request) {
	id, apiErr := urlCampaignID(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	caller, apiErr := queryCallerAddress(r, TotalRaisedPayload(id))
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	total, err := a.ledger.EncryptedTotalRaised(id, caller)
	if err != nil {
		fromLedgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, &SealedAmount{SealedAmount: total})
}
