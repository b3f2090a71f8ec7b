package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/fundraiser-z-sandbox/crypto/ethereum"
	"github.com/vocdoni/fundraiser-z-sandbox/util"
	"go.vocdoni.io/dvote/log"
)

func httpWriteJSON(w http.ResponseWriter, data any) {
	msg, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(append(msg, '\n')); err != nil {
		log.Warnw("failed to write response", "error", err)
	}
}

func httpWriteOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte("\"OK\"\n")); err != nil {
		log.Warnw("failed to write response", "error", err)
	}
}

// urlCampaignID extracts and parses the campaign identifier from the request
// URL. Returns an Error ready to be written on failure.
func urlCampaignID(r *http.Request) (uint64, *Error) {
	raw := chi.URLParam(r, CampaignURLParam)
	if raw == "" {
		err := ErrMalformedCampaignID.Withf("missing campaign ID")
		return 0, &err
	}
	id, parseErr := strconv.ParseUint(raw, 10, 64)
	if parseErr != nil {
		err := ErrMalformedCampaignID.Withf("could not parse campaign ID: %v", parseErr)
		return 0, &err
	}
	return id, nil
}

// urlDonorAddress extracts and validates the donor address from the request URL.
func urlDonorAddress(r *http.Request) (common.Address, *Error) {
	raw := chi.URLParam(r, DonorURLParam)
	if raw == "" {
		err := ErrMalformedDonorAddress.Withf("missing donor address")
		return common.Address{}, &err
	}
	if !common.IsHexAddress(raw) {
		err := ErrMalformedDonorAddress.Withf("invalid address %q", raw)
		return common.Address{}, &err
	}
	return common.HexToAddress(raw), nil
}

// queryCallerAddress recovers the caller address from the signature query
// parameter, verifying it against the expected payload. Confidential reads
// use this to authenticate the caller without a request body.
func queryCallerAddress(r *http.Request, payload []byte) (common.Address, *Error) {
	raw := strings.TrimSpace(r.URL.Query().Get("signature"))
	if raw == "" {
		err := ErrInvalidSignature.Withf("missing signature query parameter")
		return common.Address{}, &err
	}
	signature, decErr := hex.DecodeString(util.TrimHex(raw))
	if decErr != nil {
		err := ErrInvalidSignature.Withf("could not decode signature: %v", decErr)
		return common.Address{}, &err
	}
	address, sigErr := ethereum.AddrFromSignature(payload, signature)
	if sigErr != nil {
		err := ErrInvalidSignature.Withf("could not extract address from signature: %v", sigErr)
		return common.Address{}, &err
	}
	return address, nil
}
