// Package account implements the account repository rules: balance sign
// normalization on every write, auto-close of paid-off debts, balance
// postings, and the sweep-on-delete protocol.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/Andrew-Atwater/TeamF/internal/errs"
	"github.com/Andrew-Atwater/TeamF/internal/planner"
)

// Repo defines read operations needed by the service.
type Repo interface {
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]planner.Account, error)
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (planner.Account, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateAccount(ctx context.Context, a planner.Account) (planner.Account, error)
	UpdateAccount(ctx context.Context, a planner.Account) (planner.Account, error)
	// DeleteWithSweep removes the account, optionally crediting a sweep
	// target, and appends the audit record atomically.
	DeleteWithSweep(ctx context.Context, src planner.Account, target *planner.Account, t planner.Transaction) error
}

// Recorder appends audit records for non-composite mutations.
type Recorder interface {
	Record(ctx context.Context, t planner.Transaction) (planner.Transaction, error)
}

// PostKind names a balance posting entered through the transaction form.
type PostKind string

const (
	PostDeposit  PostKind = "deposit"
	PostWithdraw PostKind = "withdraw"
	PostPayoff   PostKind = "payoff"
)

// Service exposes account CRUD plus balance postings and sweep resolution.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]planner.Account, error)
	Get(ctx context.Context, userID, accountID uuid.UUID) (planner.Account, error)
	// Create persists a new account. When sweepSourceID is set the source
	// account's residual balance is folded into the new account's initial
	// balance and the source is deleted (sweep-into-new flow).
	Create(ctx context.Context, a planner.Account, sweepSourceID *uuid.UUID) (planner.Account, error)
	// Update applies a fully patched account. A debt account whose
	// normalized balance lands on exactly zero is closed instead.
	Update(ctx context.Context, a planner.Account) (planner.Account, bool, error)
	// Post applies a deposit/withdraw/payoff to an account's balance.
	Post(ctx context.Context, userID, accountID uuid.UUID, kind PostKind, amount decimal.Decimal, description string) (planner.Account, error)
	// Delete removes an account, optionally sweeping its balance into
	// another account of the same type first.
	Delete(ctx context.Context, userID, accountID uuid.UUID, sweepInto *uuid.UUID) error
	// SweepCandidates lists same-type accounts a balance could be swept into.
	SweepCandidates(ctx context.Context, userID, accountID uuid.UUID) ([]planner.Account, error)
}

type service struct {
	repo     Repo
	writer   Writer
	recorder Recorder
}

func New(repo Repo, writer Writer, recorder Recorder) Service {
	return &service{repo: repo, writer: writer, recorder: recorder}
}

// ValidateCreate checks the fields of a new account.
func ValidateCreate(a planner.Account) error {
	if a.UserID == uuid.Nil {
		return errs.ErrInvalid
	}
	if a.Name == "" {
		return fmt.Errorf("%w: name is required", errs.ErrInvalid)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: type must be savings or debt", errs.ErrInvalid)
	}
	if a.Type != planner.AccountTypeDebt {
		if a.DueDate != nil {
			return fmt.Errorf("%w: due_date is only valid for debt accounts", errs.ErrInvalid)
		}
		if a.MonthlyPayment != nil {
			return fmt.Errorf("%w: monthly_payment is only valid for debt accounts", errs.ErrInvalid)
		}
	}
	if mp := a.MonthlyPayment; mp != nil {
		if !mp.Amount.IsPos() {
			return fmt.Errorf("%w: monthly_payment.amount must be > 0", errs.ErrInvalid)
		}
		if mp.LinkedAccountID == uuid.Nil {
			return fmt.Errorf("%w: monthly_payment.linked_account_id is required", errs.ErrInvalid)
		}
	}
	return nil
}

// checkLinkedAccount verifies a recurring descriptor's funding account exists
// and is a savings account.
func (s *service) checkLinkedAccount(ctx context.Context, userID uuid.UUID, mp *planner.MonthlyPayment) error {
	if mp == nil {
		return nil
	}
	linked, err := s.repo.GetAccount(ctx, userID, mp.LinkedAccountID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: monthly_payment.linked_account_id does not match an account", errs.ErrInvalid)
		}
		return err
	}
	if linked.Type != planner.AccountTypeSavings {
		return errs.ErrTypeMismatch
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]planner.Account, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListAccounts(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, accountID uuid.UUID) (planner.Account, error) {
	if userID == uuid.Nil || accountID == uuid.Nil {
		return planner.Account{}, errs.ErrInvalid
	}
	return s.repo.GetAccount(ctx, userID, accountID)
}

func (s *service) Create(ctx context.Context, a planner.Account, sweepSourceID *uuid.UUID) (planner.Account, error) {
	if err := ValidateCreate(a); err != nil {
		return planner.Account{}, err
	}
	if err := s.checkLinkedAccount(ctx, a.UserID, a.MonthlyPayment); err != nil {
		return planner.Account{}, err
	}
	a.ID = uuid.New()
	a.Balance = planner.NormalizeBalance(a.Type, a.Balance)

	var src *planner.Account
	if sweepSourceID != nil {
		loaded, err := s.repo.GetAccount(ctx, a.UserID, *sweepSourceID)
		if err != nil {
			return planner.Account{}, err
		}
		if loaded.Type != a.Type {
			return planner.Account{}, errs.ErrTypeMismatch
		}
		merged, err := a.Balance.Add(loaded.Balance)
		if err != nil {
			return planner.Account{}, err
		}
		a.Balance = planner.NormalizeBalance(a.Type, merged)
		src = &loaded
	}

	created, err := s.writer.CreateAccount(ctx, a)
	if err != nil {
		return planner.Account{}, err
	}

	desc := fmt.Sprintf("Created account %q", created.Name)
	if src != nil {
		desc = fmt.Sprintf("Created account %q; received swept balance %s from %q", created.Name, src.Balance.Abs(), src.Name)
	}
	if _, err := s.recorder.Record(ctx, planner.Transaction{
		UserID:      created.UserID,
		AccountID:   created.ID,
		AccountName: created.Name,
		Kind:        planner.TransactionCreate,
		NewBalance:  decPtr(created.Balance),
		Description: desc,
	}); err != nil {
		return planner.Account{}, err
	}

	if src != nil {
		del := planner.Transaction{
			UserID:          src.UserID,
			AccountID:       src.ID,
			AccountName:     src.Name,
			Kind:            planner.TransactionDelete,
			PreviousBalance: decPtr(src.Balance),
			Description:     fmt.Sprintf("Deleted account %q; swept %s into %q", src.Name, src.Balance.Abs(), created.Name),
		}
		if err := s.writer.DeleteWithSweep(ctx, *src, nil, del); err != nil {
			return planner.Account{}, err
		}
	}
	return created, nil
}

// Update persists the patched account. The bool result reports whether the
// account was closed instead of updated (debt balance normalized to zero).
func (s *service) Update(ctx context.Context, a planner.Account) (planner.Account, bool, error) {
	if a.ID == uuid.Nil {
		return planner.Account{}, false, errs.ErrInvalid
	}
	// The patched account must satisfy the same field rules as a new one,
	// including the recurring descriptor checks.
	if err := ValidateCreate(a); err != nil {
		return planner.Account{}, false, err
	}
	if err := s.checkLinkedAccount(ctx, a.UserID, a.MonthlyPayment); err != nil {
		return planner.Account{}, false, err
	}
	current, err := s.repo.GetAccount(ctx, a.UserID, a.ID)
	if err != nil {
		return planner.Account{}, false, err
	}
	a.Balance = planner.NormalizeBalance(a.Type, a.Balance)

	// A paid-off debt closes itself: the update becomes a delete and the
	// audit trail records a delete, not an update.
	if a.Type == planner.AccountTypeDebt && a.Balance.IsZero() {
		del := planner.Transaction{
			UserID:          current.UserID,
			AccountID:       current.ID,
			AccountName:     current.Name,
			Kind:            planner.TransactionDelete,
			PreviousBalance: decPtr(current.Balance),
			NewBalance:      decPtr(decimal.Decimal{}),
			Description:     fmt.Sprintf("Debt %q paid off; account closed", current.Name),
		}
		if err := s.writer.DeleteWithSweep(ctx, current, nil, del); err != nil {
			return planner.Account{}, false, err
		}
		return a, true, nil
	}

	updated, err := s.writer.UpdateAccount(ctx, a)
	if err != nil {
		return planner.Account{}, false, err
	}
	if _, err := s.recorder.Record(ctx, planner.Transaction{
		UserID:          updated.UserID,
		AccountID:       updated.ID,
		AccountName:     updated.Name,
		Kind:            planner.TransactionUpdate,
		PreviousBalance: decPtr(current.Balance),
		NewBalance:      decPtr(updated.Balance),
		Description:     fmt.Sprintf("Updated account %q", updated.Name),
	}); err != nil {
		return planner.Account{}, false, err
	}
	return updated, false, nil
}

func (s *service) Post(ctx context.Context, userID, accountID uuid.UUID, kind PostKind, amount decimal.Decimal, description string) (planner.Account, error) {
	if userID == uuid.Nil || accountID == uuid.Nil {
		return planner.Account{}, errs.ErrInvalid
	}
	if !amount.IsPos() {
		return planner.Account{}, fmt.Errorf("%w: amount must be > 0", errs.ErrInvalid)
	}
	if description == "" {
		return planner.Account{}, fmt.Errorf("%w: description is required", errs.ErrInvalid)
	}
	acc, err := s.repo.GetAccount(ctx, userID, accountID)
	if err != nil {
		return planner.Account{}, err
	}

	var delta decimal.Decimal
	switch kind {
	case PostDeposit:
		if acc.Type != planner.AccountTypeSavings {
			return planner.Account{}, errs.ErrUnprocessable
		}
		delta = amount
	case PostWithdraw:
		if acc.Type != planner.AccountTypeSavings {
			return planner.Account{}, errs.ErrUnprocessable
		}
		if acc.Balance.Cmp(amount) < 0 {
			return planner.Account{}, errs.ErrInsufficientFunds
		}
		delta = amount.Neg()
	case PostPayoff:
		if acc.Type != planner.AccountTypeDebt {
			return planner.Account{}, errs.ErrUnprocessable
		}
		if acc.Balance.Abs().Cmp(amount) < 0 {
			return planner.Account{}, errs.ErrInsufficientFunds
		}
		// paying a debt moves the balance toward zero
		delta = amount
	default:
		return planner.Account{}, fmt.Errorf("%w: transaction type must be deposit, withdraw or payoff", errs.ErrInvalid)
	}

	prev := acc.Balance
	next, err := acc.Balance.Add(delta)
	if err != nil {
		return planner.Account{}, err
	}
	acc.Balance = planner.NormalizeBalance(acc.Type, next)

	updated, err := s.writer.UpdateAccount(ctx, acc)
	if err != nil {
		return planner.Account{}, err
	}
	if _, err := s.recorder.Record(ctx, planner.Transaction{
		UserID:          userID,
		AccountID:       accountID,
		AccountName:     acc.Name,
		Kind:            planner.TransactionUpdate,
		PreviousBalance: decPtr(prev),
		NewBalance:      decPtr(updated.Balance),
		Description:     description,
	}); err != nil {
		return planner.Account{}, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, userID, accountID uuid.UUID, sweepInto *uuid.UUID) error {
	if userID == uuid.Nil || accountID == uuid.Nil {
		return errs.ErrInvalid
	}
	src, err := s.repo.GetAccount(ctx, userID, accountID)
	if err != nil {
		return err
	}

	// Zero balance deletes immediately; there is nothing to sweep.
	if src.Balance.IsZero() || sweepInto == nil {
		del := planner.Transaction{
			UserID:          userID,
			AccountID:       src.ID,
			AccountName:     src.Name,
			Kind:            planner.TransactionDelete,
			PreviousBalance: decPtr(src.Balance),
			Description:     fmt.Sprintf("Deleted account %q", src.Name),
		}
		return s.writer.DeleteWithSweep(ctx, src, nil, del)
	}

	if *sweepInto == accountID {
		return errs.ErrInvalid
	}
	target, err := s.repo.GetAccount(ctx, userID, *sweepInto)
	if err != nil {
		return err
	}
	if target.Type != src.Type {
		return errs.ErrTypeMismatch
	}
	merged, err := target.Balance.Add(src.Balance)
	if err != nil {
		return err
	}
	target.Balance = planner.NormalizeBalance(target.Type, merged)
	del := planner.Transaction{
		UserID:          userID,
		AccountID:       src.ID,
		AccountName:     src.Name,
		Kind:            planner.TransactionDelete,
		PreviousBalance: decPtr(src.Balance),
		Description:     fmt.Sprintf("Deleted account %q; swept %s into %q", src.Name, src.Balance.Abs(), target.Name),
	}
	return s.writer.DeleteWithSweep(ctx, src, &target, del)
}

func (s *service) SweepCandidates(ctx context.Context, userID, accountID uuid.UUID) ([]planner.Account, error) {
	src, err := s.Get(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]planner.Account, 0)
	for _, a := range all {
		if a.ID != src.ID && a.Type == src.Type {
			out = append(out, a)
		}
	}
	return out, nil
}

func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }
