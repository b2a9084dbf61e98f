package v1

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// runPayments handles POST /v1/payments/run: refresh every recurring payment
// for the user and post the ones due today. Clients call this on login and
// on dashboard load; re-running it on the same day is a no-op.
func (s *Server) runPayments(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req runPaymentsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == uuid.Nil {
		badRequest(w, "user_id is required")
		return
	}
	accounts, posted, err := s.recurringSvc.ProcessDue(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if posted > 0 {
		paymentsPostedTotal.Add(float64(posted))
	}
	toJSON(w, http.StatusOK, runPaymentsResponse{
		Accounts:       toAccountResponses(accounts),
		PaymentsPosted: posted,
	})
}

// payNow handles POST /v1/accounts/{id}/pay: post this cycle's payment
// immediately instead of waiting for the due date.
func (s *Server) payNow(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := s.accountScope(w, r)
	if !ok {
		return
	}
	updated, err := s.recurringSvc.PayNow(r.Context(), userID, accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	paymentsPostedTotal.Inc()
	toJSON(w, http.StatusOK, toAccountResponse(updated))
}
