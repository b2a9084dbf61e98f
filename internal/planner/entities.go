package planner

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

// AccountType classifies an account as an asset being saved into or an
// obligation being paid down.
type AccountType string

const (
	// AccountTypeSavings holds a non-negative balance.
	AccountTypeSavings AccountType = "savings"
	// AccountTypeDebt holds a non-positive balance; the magnitude is the amount owed.
	AccountTypeDebt AccountType = "debt"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	return t == AccountTypeSavings || t == AccountTypeDebt
}

// User captures the owner of planner data.
type User struct {
	ID           uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash string
}

// MonthlyPayment describes an automated monthly transfer from a linked
// savings account toward a debt account.
type MonthlyPayment struct {
	Amount          decimal.Decimal
	LinkedAccountID uuid.UUID
	NextPaymentDate Date
}

// Account represents a savings or debt account belonging to a user.
type Account struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Balance     decimal.Decimal
	Description string
	Type        AccountType
	// DueDate is the monthly payment due date; only meaningful for debt accounts.
	DueDate *Date
	// MonthlyPayment is the recurring payment descriptor; only meaningful for debt accounts.
	MonthlyPayment *MonthlyPayment
}

// NormalizeBalance coerces the sign of a balance from the account type:
// debt balances are stored non-positive, savings balances non-negative,
// whatever magnitude was entered.
func NormalizeBalance(t AccountType, b decimal.Decimal) decimal.Decimal {
	if t == AccountTypeDebt {
		return b.Abs().Neg()
	}
	return b.Abs()
}

// TransactionKind names the account mutation a transaction records.
type TransactionKind string

const (
	TransactionCreate TransactionKind = "create"
	TransactionUpdate TransactionKind = "update"
	TransactionDelete TransactionKind = "delete"
)

// Transaction is an immutable audit record of one account mutation. It is
// written exactly once, after the mutation succeeds, and never edited or
// deleted; once an account is gone its transactions are the only history.
type Transaction struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	AccountID uuid.UUID
	// AccountName is denormalized at write time so the record survives the account.
	AccountName     string
	Kind            TransactionKind
	PreviousBalance *decimal.Decimal
	NewBalance      *decimal.Decimal
	// Timestamp is assigned by the store at write time, not by the caller's clock.
	Timestamp   time.Time
	Description string
}

// Settings is a user's UI preference document, read and written whole.
type Settings struct {
	UserID         uuid.UUID
	DarkMode       bool
	FontSize       int
	FontFamily     string
	CurrencySymbol string
	DateFormat     string
	Notifications  bool
}

// DefaultSettings returns the preference document used before a user has
// saved one.
func DefaultSettings(userID uuid.UUID) Settings {
	return Settings{
		UserID:         userID,
		DarkMode:       false,
		FontSize:       16,
		FontFamily:     "Roboto",
		CurrencySymbol: "$",
		DateFormat:     "MM/DD/YYYY",
		Notifications:  true,
	}
}
