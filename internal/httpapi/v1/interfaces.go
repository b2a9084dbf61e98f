package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/Andrew-Atwater/TeamF/internal/planner"
)

// Store unions the read/write operations the HTTP layer needs from storage.
// Both the in-memory store and the postgres store satisfy it.
type Store interface {
	CreateUser(ctx context.Context, u planner.User) (planner.User, error)
	UserByEmail(ctx context.Context, email string) (planner.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (planner.User, error)

	ListAccounts(ctx context.Context, userID uuid.UUID) ([]planner.Account, error)
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (planner.Account, error)
	CreateAccount(ctx context.Context, a planner.Account) (planner.Account, error)
	UpdateAccount(ctx context.Context, a planner.Account) (planner.Account, error)

	RecordTransaction(ctx context.Context, t planner.Transaction) (planner.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]planner.Transaction, error)

	GetSettings(ctx context.Context, userID uuid.UUID) (planner.Settings, bool, error)
	PutSettings(ctx context.Context, st planner.Settings) error

	ApplyTransfer(ctx context.Context, key string, from, to planner.Account, t planner.Transaction) (bool, error)
	DeleteWithSweep(ctx context.Context, src planner.Account, target *planner.Account, t planner.Transaction) error
}

// ReadyChecker is implemented by stores that can report readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}
