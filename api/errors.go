package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vocdoni/fundraiser-z-sandbox/ledger"
	"go.vocdoni.io/dvote/log"
)

// Error is used by handler functions to wrap errors, assigning a unique error code
// and also specifying which HTTP Status should be used.
type Error struct {
	Err        error
	Code       int
	HTTPstatus int
}

// MarshalJSON returns a JSON containing Err.Error() and Code. Field HTTPstatus is ignored.
//
// Example output: {"error":"campaign not found","code":40007}
func (e Error) MarshalJSON() ([]byte, error) {
	// This anon struct is needed to actually include the error string,
	// since it wouldn't be marshaled otherwise. (json.Marshal doesn't call Err.Error())
	return json.Marshal(
		struct {
			Err  string `json:"error"`
			Code int    `json:"code"`
		}{
			Err:  e.Err.Error(),
			Code: e.Code,
		})
}

// Error returns the message contained inside the Error
func (e Error) Error() string {
	return e.Err.Error()
}

// Write serializes a JSON msg using Error.Err and Error.Code
// and writes it to the http response.
func (e Error) Write(w http.ResponseWriter) {
	msg, err := json.Marshal(e)
	if err != nil {
		log.Warn(err)
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	if log.Level() == log.LogLevelDebug {
		log.Debugw("API error response", "error", e.Error(), "code", e.Code, "httpStatus", e.HTTPstatus)
	}
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, string(msg), e.HTTPstatus)
}

// Withf returns a copy of Error with the Sprintf formatted string appended at the end of e.Err
func (e Error) Withf(format string, args ...any) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, fmt.Sprintf(format, args...)),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}

// WithErr returns a copy of Error with err.Error() appended at the end of e.Err
func (e Error) WithErr(err error) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, err.Error()),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}

// fromLedgerError maps the typed ledger failures to their API error. Unknown
// errors map to ErrGenericInternalServerError.
func fromLedgerError(err error) Error {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return ErrCampaignNotFound.WithErr(err)
	case errors.Is(err, ledger.ErrInvalidInput):
		return ErrInvalidCampaignInput.WithErr(err)
	case errors.Is(err, ledger.ErrUnauthorized):
		return ErrUnauthorized.WithErr(err)
	case errors.Is(err, ledger.ErrNotActive):
		return ErrCampaignNotActive.WithErr(err)
	case errors.Is(err, ledger.ErrAlreadyEnded):
		return ErrCampaignAlreadyEnded.WithErr(err)
	case errors.Is(err, ledger.ErrCampaignStillActive):
		return ErrCampaignStillActive.WithErr(err)
	case errors.Is(err, ledger.ErrAlreadyWithdrawn):
		return ErrFundsAlreadyWithdrawn.WithErr(err)
	case errors.Is(err, ledger.ErrInsufficientGasValue):
		return ErrInsufficientGasValue.WithErr(err)
	case errors.Is(err, ledger.ErrInvalidProof):
		return ErrInvalidSealedProof.WithErr(err)
	case errors.Is(err, ledger.ErrTransferFailed):
		return ErrFundsTransferFailed.WithErr(err)
	default:
		return ErrGenericInternalServerError.WithErr(err)
	}
}
