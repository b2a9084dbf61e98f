package v1

import (
	"encoding/json"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Andrew-Atwater/TeamF/internal/planner"
)

// updateAccount handles PATCH /v1/accounts/{id}. Only fields present in the
// body change; the update is applied to a fresh copy of the stored account.
func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return
	}
	var req patchAccountRequest
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

	current, err := s.accountSvc.Get(r.Context(), req.UserID, accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	patched, err := applyPatch(current, req)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	updated, closed, err := s.accountSvc.Update(r.Context(), patched)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if closed {
		toJSON(w, http.StatusOK, map[string]any{"closed": true, "id": accountID})
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(updated))
}

func applyPatch(a planner.Account, req patchAccountRequest) (planner.Account, error) {
	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Balance != nil {
		b, err := parseAmount(*req.Balance)
		if err != nil {
			return planner.Account{}, err
		}
		a.Balance = b
	}
	if req.ClearDueDate {
		a.DueDate = nil
	} else if req.DueDate != nil {
		d, err := planner.ParseDate(*req.DueDate)
		if err != nil {
			return planner.Account{}, err
		}
		a.DueDate = &d
	}
	if req.ClearMonthlyPayment {
		a.MonthlyPayment = nil
	} else if req.MonthlyPayment != nil {
		mp, err := toMonthlyPaymentDomain(*req.MonthlyPayment, a.DueDate)
		if err != nil {
			return planner.Account{}, err
		}
		// keep the engine's computed next date when the descriptor already existed
		if a.MonthlyPayment != nil {
			mp.NextPaymentDate = a.MonthlyPayment.NextPaymentDate
		}
		a.MonthlyPayment = mp
	}
	return a, nil
}

// deleteAccount handles DELETE /v1/accounts/{id}. The optional sweep_into
// query param moves the balance into another same-type account first.
func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := s.accountScope(w, r)
	if !ok {
		return
	}
	var sweepInto *uuid.UUID
	if raw := r.URL.Query().Get("sweep_into"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, "invalid sweep_into")
			return
		}
		sweepInto = &id
	}
	if err := s.accountSvc.Delete(r.Context(), userID, accountID, sweepInto); err != nil {
		writeServiceError(w, err)
		return
	}
	if sweepInto != nil {
		accountSweepsTotal.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}
