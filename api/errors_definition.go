//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400, 403, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX.
// If you notice there's a gap (say, error code 4010, 4011 and 4013 exist, 4012 is missing) DON'T fill in the gap,
// that code was used in the past for some error (not anymore) and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound      = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody         = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrInvalidSignature      = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid signature")}
	ErrMalformedCampaignID   = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed campaign ID")}
	ErrCampaignNotFound      = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("campaign not found")}
	ErrMalformedDonorAddress = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed donor address")}
	ErrInvalidCampaignInput  = Error{Code: 40009, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid campaign parameters")}
	ErrCampaignNotActive     = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("campaign not active")}
	ErrCampaignAlreadyEnded  = Error{Code: 40011, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("campaign already ended")}
	ErrCampaignStillActive   = Error{Code: 40012, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("campaign still active")}
	ErrFundsAlreadyWithdrawn = Error{Code: 40013, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("funds already withdrawn")}
	ErrInsufficientGasValue  = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("attached value below minimum")}
	ErrInvalidSealedProof    = Error{Code: 40015, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid sealed amount proof")}
	ErrUnauthorized          = Error{Code: 40016, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("not authorized")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrFundsTransferFailed        = Error{Code: 50003, HTTPstatus: http.StatusBadGateway, Err: fmt.Errorf("funds transfer failed")}
)
