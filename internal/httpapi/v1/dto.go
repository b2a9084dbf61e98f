package v1

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/Andrew-Atwater/TeamF/internal/planner"
)

// Amounts cross the wire as JSON strings (or bare numbers) and are parsed
// into exact decimals; responses always render them as strings.

type monthlyPaymentRequest struct {
	Amount          json.Number `json:"amount"`
	LinkedAccountID uuid.UUID   `json:"linked_account_id"`
}

type postAccountRequest struct {
	UserID         uuid.UUID              `json:"user_id"`
	Name           string                 `json:"name"`
	Balance        json.Number            `json:"balance"`
	Description    string                 `json:"description,omitempty"`
	Type           planner.AccountType    `json:"type"`
	DueDate        *string                `json:"due_date,omitempty"`
	MonthlyPayment *monthlyPaymentRequest `json:"monthly_payment,omitempty"`
	// SweepSourceID folds an existing account's balance into this one and
	// deletes it, in the same request.
	SweepSourceID *uuid.UUID `json:"sweep_source_id,omitempty"`
}

// patchAccountRequest updates only the fields present in the body. The clear
// flags exist because JSON gives no way to tell "absent" from "null".
type patchAccountRequest struct {
	UserID              uuid.UUID              `json:"user_id"`
	Name                *string                `json:"name,omitempty"`
	Balance             *json.Number           `json:"balance,omitempty"`
	Description         *string                `json:"description,omitempty"`
	DueDate             *string                `json:"due_date,omitempty"`
	MonthlyPayment      *monthlyPaymentRequest `json:"monthly_payment,omitempty"`
	ClearDueDate        bool                   `json:"clear_due_date,omitempty"`
	ClearMonthlyPayment bool                   `json:"clear_monthly_payment,omitempty"`
}

type monthlyPaymentResponse struct {
	Amount          string    `json:"amount"`
	LinkedAccountID uuid.UUID `json:"linked_account_id"`
	NextPaymentDate string    `json:"next_payment_date"`
}

type accountResponse struct {
	ID             uuid.UUID               `json:"id"`
	UserID         uuid.UUID               `json:"user_id"`
	Name           string                  `json:"name"`
	Balance        string                  `json:"balance"`
	Description    string                  `json:"description,omitempty"`
	Type           planner.AccountType     `json:"type"`
	DueDate        *string                 `json:"due_date,omitempty"`
	MonthlyPayment *monthlyPaymentResponse `json:"monthly_payment,omitempty"`
}

func toAccountResponse(a planner.Account) accountResponse {
	resp := accountResponse{
		ID:          a.ID,
		UserID:      a.UserID,
		Name:        a.Name,
		Balance:     a.Balance.String(),
		Description: a.Description,
		Type:        a.Type,
	}
	if a.DueDate != nil {
		d := a.DueDate.String()
		resp.DueDate = &d
	}
	if mp := a.MonthlyPayment; mp != nil {
		resp.MonthlyPayment = &monthlyPaymentResponse{
			Amount:          mp.Amount.String(),
			LinkedAccountID: mp.LinkedAccountID,
			NextPaymentDate: mp.NextPaymentDate.String(),
		}
	}
	return resp
}

func toAccountResponses(accounts []planner.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return out
}

type transactionResponse struct {
	ID              uuid.UUID               `json:"id"`
	UserID          uuid.UUID               `json:"user_id"`
	AccountID       uuid.UUID               `json:"account_id"`
	AccountName     string                  `json:"account_name"`
	Kind            planner.TransactionKind `json:"kind"`
	PreviousBalance *string                 `json:"previous_balance,omitempty"`
	NewBalance      *string                 `json:"new_balance,omitempty"`
	Timestamp       time.Time               `json:"timestamp"`
	Description     string                  `json:"description"`
}

func toTransactionResponse(t planner.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		AccountID:   t.AccountID,
		AccountName: t.AccountName,
		Kind:        t.Kind,
		Timestamp:   t.Timestamp,
		Description: t.Description,
	}
	if t.PreviousBalance != nil {
		s := t.PreviousBalance.String()
		resp.PreviousBalance = &s
	}
	if t.NewBalance != nil {
		s := t.NewBalance.String()
		resp.NewBalance = &s
	}
	return resp
}

type postTransactionRequest struct {
	UserID      uuid.UUID   `json:"user_id"`
	AccountID   uuid.UUID   `json:"account_id"`
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
}

type runPaymentsRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type runPaymentsResponse struct {
	Accounts       []accountResponse `json:"accounts"`
	PaymentsPosted int               `json:"payments_posted"`
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Password    string `json:"password"`
}

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type settingsDoc struct {
	UserID         uuid.UUID `json:"user_id"`
	DarkMode       bool      `json:"dark_mode"`
	FontSize       int       `json:"font_size"`
	FontFamily     string    `json:"font_family"`
	CurrencySymbol string    `json:"currency_symbol"`
	DateFormat     string    `json:"date_format"`
	Notifications  bool      `json:"notifications"`
}

func toSettingsDoc(st planner.Settings) settingsDoc {
	return settingsDoc{
		UserID:         st.UserID,
		DarkMode:       st.DarkMode,
		FontSize:       st.FontSize,
		FontFamily:     st.FontFamily,
		CurrencySymbol: st.CurrencySymbol,
		DateFormat:     st.DateFormat,
		Notifications:  st.Notifications,
	}
}

// listUserQuery holds the validated user scope for list-style endpoints.
type listUserQuery struct {
	UserID uuid.UUID
}

func parseAmount(n json.Number) (decimal.Decimal, error) {
	return decimal.Parse(n.String())
}
