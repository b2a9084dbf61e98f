// Package v1 contains HTTP handlers and middleware.
package v1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/Andrew-Atwater/TeamF/internal/planner"
	"github.com/Andrew-Atwater/TeamF/internal/service/account"
)

type ctxKey string

const ctxKeyPostAccount ctxKey = "validatedPostAccount"
const ctxKeyUserQuery ctxKey = "validatedUserQuery"
const ctxKeyPostTransaction ctxKey = "validatedPostTransaction"

// validatePostAccount parses and validates POST /accounts body and stores the
// domain account (plus optional sweep source) in the request context.
func (s *Server) validatePostAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req postAccountRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			in, err := toAccountDomain(req)
			if err != nil {
				badRequest(w, err.Error())
				return
			}
			if err := account.ValidateCreate(in); err != nil {
				badRequest(w, err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostAccount, validatedPostAccount{Account: in, SweepSourceID: req.SweepSourceID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type validatedPostAccount struct {
	Account       planner.Account
	SweepSourceID *uuid.UUID
}

// validateListAccounts validates the user_id query param shared by the
// list-style endpoints.
func (s *Server) validateListAccounts() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.URL.Query().Get("user_id")
			if raw == "" {
				badRequest(w, "user_id is required")
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				badRequest(w, "invalid user_id")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUserQuery, listUserQuery{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostTransaction parses POST /transactions body.
func (s *Server) validatePostTransaction() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req postTransactionRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.UserID == uuid.Nil || req.AccountID == uuid.Nil {
				badRequest(w, "user_id and account_id are required")
				return
			}
			if req.Amount == "" {
				badRequest(w, "amount is required")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostTransaction, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func toAccountDomain(req postAccountRequest) (planner.Account, error) {
	balance, err := parseAmount(req.Balance)
	if err != nil {
		return planner.Account{}, err
	}
	a := planner.Account{
		UserID:      req.UserID,
		Name:        req.Name,
		Balance:     balance,
		Description: req.Description,
		Type:        req.Type,
	}
	if req.DueDate != nil {
		d, err := planner.ParseDate(*req.DueDate)
		if err != nil {
			return planner.Account{}, err
		}
		a.DueDate = &d
	}
	if req.MonthlyPayment != nil {
		mp, err := toMonthlyPaymentDomain(*req.MonthlyPayment, a.DueDate)
		if err != nil {
			return planner.Account{}, err
		}
		a.MonthlyPayment = mp
	}
	return a, nil
}

// toMonthlyPaymentDomain builds the recurring descriptor. The next payment
// date starts at the anchor due date and is refreshed by the payment engine.
func toMonthlyPaymentDomain(req monthlyPaymentRequest, due *planner.Date) (*planner.MonthlyPayment, error) {
	amt, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	mp := planner.MonthlyPayment{Amount: amt, LinkedAccountID: req.LinkedAccountID}
	if due != nil {
		mp.NextPaymentDate = *due
	}
	return &mp, nil
}
