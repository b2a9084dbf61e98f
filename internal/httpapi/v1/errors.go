package v1

import (
	"errors"
	"net/http"

	"github.com/Andrew-Atwater/TeamF/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func conflict(w http.ResponseWriter, msg string)   { writeErr(w, http.StatusConflict, msg, "") }
func unprocessable(w http.ResponseWriter, msg, code string) {
	writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// writeServiceError maps service-layer sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.Is(err, errs.ErrInvalid):
		badRequest(w, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		writeErr(w, http.StatusUnauthorized, "invalid credentials", "invalid_credentials")
	case errors.Is(err, errs.ErrConflict):
		conflict(w, err.Error())
	case errors.Is(err, errs.ErrInsufficientFunds):
		unprocessable(w, err.Error(), "insufficient_funds")
	case errors.Is(err, errs.ErrTypeMismatch):
		unprocessable(w, err.Error(), "type_mismatch")
	case errors.Is(err, errs.ErrNoRecurringPayment):
		unprocessable(w, err.Error(), "no_recurring_payment")
	case errors.Is(err, errs.ErrUnprocessable):
		unprocessable(w, err.Error(), "unprocessable")
	default:
		writeErr(w, http.StatusInternalServerError, "internal error", "")
	}
}
