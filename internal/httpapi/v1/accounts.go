package v1

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// listAccounts handles GET /v1/accounts.
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	q, ok := r.Context().Value(ctxKeyUserQuery).(listUserQuery)
	if !ok {
		badRequest(w, "missing validated query")
		return
	}
	accounts, err := s.accountSvc.List(r.Context(), q.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponses(accounts))
}

// postAccount handles POST /v1/accounts.
func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	in, ok := r.Context().Value(ctxKeyPostAccount).(validatedPostAccount)
	if !ok {
		badRequest(w, "missing validated body")
		return
	}
	created, err := s.accountSvc.Create(r.Context(), in.Account, in.SweepSourceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if in.SweepSourceID != nil {
		accountSweepsTotal.Inc()
	}
	toJSON(w, http.StatusCreated, toAccountResponse(created))
}

// getAccount handles GET /v1/accounts/{id}.
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := s.accountScope(w, r)
	if !ok {
		return
	}
	a, err := s.accountSvc.Get(r.Context(), userID, accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(a))
}

// sweepCandidates handles GET /v1/accounts/{id}/sweep-candidates.
func (s *Server) sweepCandidates(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := s.accountScope(w, r)
	if !ok {
		return
	}
	candidates, err := s.accountSvc.SweepCandidates(r.Context(), userID, accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponses(candidates))
}

// accountScope resolves the {id} path param plus the user_id query param
// shared by the single-account endpoints.
func (s *Server) accountScope(w http.ResponseWriter, r *http.Request) (userID, accountID uuid.UUID, ok bool) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return uuid.Nil, uuid.Nil, false
	}
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		badRequest(w, "user_id is required")
		return uuid.Nil, uuid.Nil, false
	}
	userID, err = uuid.Parse(raw)
	if err != nil {
		badRequest(w, "invalid user_id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, accountID, true
}
