package v1

import (
	"net/http"

	"github.com/Andrew-Atwater/TeamF/internal/service/account"
)

// listTransactions handles GET /v1/transactions, newest first.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q, ok := r.Context().Value(ctxKeyUserQuery).(listUserQuery)
	if !ok {
		badRequest(w, "missing validated query")
		return
	}
	txns, err := s.txSvc.List(r.Context(), q.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	toJSON(w, http.StatusOK, out)
}

// postTransaction handles POST /v1/transactions: a deposit, withdrawal or
// debt payoff applied against one account.
func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyPostTransaction).(postTransactionRequest)
	if !ok {
		badRequest(w, "missing validated body")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		badRequest(w, "invalid amount")
		return
	}
	updated, err := s.accountSvc.Post(r.Context(), req.UserID, req.AccountID, account.PostKind(req.Type), amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(updated))
}
