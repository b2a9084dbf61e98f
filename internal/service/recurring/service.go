// Package recurring drives monthly payments on debt accounts: computing the
// current cycle's due date, posting transfers that fall due today, and
// handling manual pay-now requests.
package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// Transferer applies a two-account transfer plus its audit record atomically.
// The key makes the write idempotent per user.
type Transferer interface {
	ApplyTransfer(ctx context.Context, key string, from, to planner.Account, t planner.Transaction) (bool, error)
	UpdateAccount(ctx context.Context, a planner.Account) (planner.Account, error)
}

// Service schedules and posts recurring monthly payments.
type Service interface {
	// ProcessDue refreshes next-payment dates for every debt account with a
	// recurring payment and posts the payments that fall due today. It
	// returns the user's refreshed accounts and how many payments posted.
	ProcessDue(ctx context.Context, userID uuid.UUID) ([]planner.Account, int, error)
	// PayNow posts the current cycle's payment immediately, checking that
	// the linked account can cover it.
	PayNow(ctx context.Context, userID, accountID uuid.UUID) (planner.Account, error)
}

type service struct {
	repo   Repo
	writer Transferer
	now    func() time.Time
}

func New(repo Repo, writer Transferer, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, writer: writer, now: now}
}

// cycleDue maps an account's anchor due date onto the current cycle: the due
// day in today's month, rolled one month forward if it has already passed.
// Days past the end of a short month clamp to that month's last day.
func cycleDue(due planner.Date, today planner.Date) planner.Date {
	cycle := due.WithMonthYear(today.Month, today.Year)
	if cycle.Before(today) {
		cycle = cycle.AddMonths(1)
	}
	return cycle
}

// transferKey identifies one payment cycle for one account, so a payment
// cannot post twice in the same cycle no matter how it is triggered.
func transferKey(accountID uuid.UUID, cycle planner.Date) string {
	return accountID.String() + ":" + cycle.String()
}

// schedulable reports whether an account carries a usable recurring payment
// descriptor: an unpaid debt with a due date, a positive amount and a linked
// funding account id.
func schedulable(acc planner.Account) bool {
	return acc.Type == planner.AccountTypeDebt && !acc.Balance.IsZero() &&
		acc.DueDate != nil && acc.MonthlyPayment != nil &&
		acc.MonthlyPayment.Amount.IsPos() &&
		acc.MonthlyPayment.LinkedAccountID != uuid.Nil
}

// paymentAmount caps the descriptor amount at the remaining balance so the
// final payment never moves more than is still owed.
func paymentAmount(acc planner.Account) decimal.Decimal {
	if owed := acc.Balance.Abs(); owed.Cmp(acc.MonthlyPayment.Amount) < 0 {
		return owed
	}
	return acc.MonthlyPayment.Amount
}

func (s *service) ProcessDue(ctx context.Context, userID uuid.UUID) ([]planner.Account, int, error) {
	if userID == uuid.Nil {
		return nil, 0, errs.ErrInvalid
	}
	accounts, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	today := planner.DateOf(s.now())

	posted := 0
	for _, acc := range accounts {
		if !schedulable(acc) {
			continue
		}
		cycle := cycleDue(*acc.DueDate, today)
		if cycle.Equal(today) {
			applied, err := s.post(ctx, userID, acc, cycle)
			if err != nil {
				return nil, 0, err
			}
			if applied {
				posted++
			}
			continue
		}
		// Not due yet. Keep the stored next-payment date in line with the
		// computed cycle so clients never show a stale date.
		if !acc.MonthlyPayment.NextPaymentDate.Equal(cycle) {
			mp := *acc.MonthlyPayment
			mp.NextPaymentDate = cycle
			acc.MonthlyPayment = &mp
			if _, err := s.writer.UpdateAccount(ctx, acc); err != nil {
				return nil, 0, err
			}
		}
	}

	refreshed, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return refreshed, posted, nil
}

func (s *service) PayNow(ctx context.Context, userID, accountID uuid.UUID) (planner.Account, error) {
	if userID == uuid.Nil || accountID == uuid.Nil {
		return planner.Account{}, errs.ErrInvalid
	}
	acc, err := s.repo.GetAccount(ctx, userID, accountID)
	if err != nil {
		return planner.Account{}, err
	}
	if !schedulable(acc) {
		return planner.Account{}, errs.ErrNoRecurringPayment
	}
	source, err := s.repo.GetAccount(ctx, userID, acc.MonthlyPayment.LinkedAccountID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return planner.Account{}, errs.ErrNoRecurringPayment
		}
		return planner.Account{}, err
	}
	if source.Type != planner.AccountTypeSavings {
		return planner.Account{}, errs.ErrTypeMismatch
	}
	amount := paymentAmount(acc)
	if source.Balance.Cmp(amount) < 0 {
		return planner.Account{}, errs.ErrInsufficientFunds
	}

	cycle := cycleDue(*acc.DueDate, planner.DateOf(s.now()))
	applied, err := s.transfer(ctx, acc, source, cycle, fmt.Sprintf("Manual payment of %s toward %q from %q", amount, acc.Name, source.Name))
	if err != nil {
		return planner.Account{}, err
	}
	if !applied {
		return planner.Account{}, errs.ErrConflict
	}
	return s.repo.GetAccount(ctx, userID, accountID)
}

// post applies one automatic payment. Unlike PayNow it does not check the
// linked account's balance; the scheduled payment posts regardless and the
// source can go negative. A descriptor whose funding account is gone or is
// not a savings account is skipped so the rest of the run still proceeds.
func (s *service) post(ctx context.Context, userID uuid.UUID, acc planner.Account, cycle planner.Date) (bool, error) {
	source, err := s.repo.GetAccount(ctx, userID, acc.MonthlyPayment.LinkedAccountID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if source.Type != planner.AccountTypeSavings {
		return false, nil
	}
	return s.transfer(ctx, acc, source, cycle, fmt.Sprintf("Automatic monthly payment of %s toward %q from %q", paymentAmount(acc), acc.Name, source.Name))
}

// transfer moves the cycle's payment between the two accounts. Both legs move
// by the same amount, capped at the remaining debt, so the final payment
// clears the balance without debiting the source for more than was owed.
func (s *service) transfer(ctx context.Context, acc, source planner.Account, cycle planner.Date, description string) (bool, error) {
	amount := paymentAmount(acc)

	newSource, err := source.Balance.Sub(amount)
	if err != nil {
		return false, err
	}
	source.Balance = newSource

	prev := acc.Balance
	newDebt, err := acc.Balance.Add(amount)
	if err != nil {
		return false, err
	}
	acc.Balance = planner.NormalizeBalance(acc.Type, newDebt)
	mp := *acc.MonthlyPayment
	mp.NextPaymentDate = cycle.AddMonths(1)
	acc.MonthlyPayment = &mp

	t := planner.Transaction{
		UserID:          acc.UserID,
		AccountID:       acc.ID,
		AccountName:     acc.Name,
		Kind:            planner.TransactionUpdate,
		PreviousBalance: &prev,
		NewBalance:      &acc.Balance,
		Description:     description,
	}
	return s.writer.ApplyTransfer(ctx, transferKey(acc.ID, cycle), source, acc, t)
}
