package recurring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/Andrew-Atwater/TeamF/internal/errs"
	"github.com/Andrew-Atwater/TeamF/internal/planner"
	"github.com/Andrew-Atwater/TeamF/internal/storage/memory"
)

// fixture builds a user with a funded savings account and a debt account
// whose payment is anchored on dueDate, against a clock pinned to today.
func fixture(t *testing.T, today string, dueDate string) (*memory.Store, Service, uuid.UUID, planner.Account, planner.Account) {
	t.Helper()
	store := memory.New()
	user := planner.User{ID: uuid.New(), Email: "a@b.c"}
	store.SeedUser(user)

	due := planner.MustParseDate(dueDate)
	savings := planner.Account{ID: uuid.New(), UserID: user.ID, Name: "Checking", Type: planner.AccountTypeSavings, Balance: decimal.MustParse("1000.00")}
	loan := planner.Account{
		ID: uuid.New(), UserID: user.ID, Name: "Loan", Type: planner.AccountTypeDebt,
		Balance: decimal.MustParse("-500.00"),
		DueDate: &due,
		MonthlyPayment: &planner.MonthlyPayment{
			Amount:          decimal.MustParse("200.00"),
			LinkedAccountID: savings.ID,
			NextPaymentDate: due,
		},
	}
	store.SeedAccount(savings)
	store.SeedAccount(loan)

	now := func() time.Time {
		d := planner.MustParseDate(today)
		return time.Date(d.Year, d.Month, d.Day, 9, 30, 0, 0, time.UTC)
	}
	return store, New(store, store, now), user.ID, savings, loan
}

func TestProcessDue_PostsPaymentDueToday(t *testing.T) {
	store, svc, userID, savings, loan := fixture(t, "2026-03-15", "2026-01-15")
	ctx := context.Background()

	accounts, posted, err := svc.ProcessDue(ctx, userID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if posted != 1 {
		t.Fatalf("posted = %d, want 1", posted)
	}
	byID := indexAccounts(accounts)
	if got := byID[savings.ID].Balance; got.Cmp(decimal.MustParse("800.00")) != 0 {
		t.Fatalf("savings = %s, want 800.00", got)
	}
	if got := byID[loan.ID].Balance; got.Cmp(decimal.MustParse("-300.00")) != 0 {
		t.Fatalf("loan = %s, want -300.00", got)
	}
	if got := byID[loan.ID].MonthlyPayment.NextPaymentDate.String(); got != "2026-04-15" {
		t.Fatalf("next payment date = %s, want 2026-04-15", got)
	}

	txns, _ := store.ListTransactions(ctx, userID)
	if len(txns) != 1 || txns[0].Kind != planner.TransactionUpdate {
		t.Fatalf("expected one update record, got %+v", txns)
	}
	if txns[0].AccountID != loan.ID {
		t.Fatalf("record should target the debt account: %+v", txns[0])
	}
}

func TestProcessDue_SameDayRerunIsNoop(t *testing.T) {
	_, svc, userID, savings, loan := fixture(t, "2026-03-15", "2026-01-15")
	ctx := context.Background()

	if _, posted, err := svc.ProcessDue(ctx, userID); err != nil || posted != 1 {
		t.Fatalf("first run: posted=%d err=%v", posted, err)
	}
	accounts, posted, err := svc.ProcessDue(ctx, userID)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if posted != 0 {
		t.Fatalf("second run posted = %d, want 0", posted)
	}
	byID := indexAccounts(accounts)
	if got := byID[savings.ID].Balance; got.Cmp(decimal.MustParse("800.00")) != 0 {
		t.Fatalf("savings after rerun = %s", got)
	}
	if got := byID[loan.ID].Balance; got.Cmp(decimal.MustParse("-300.00")) != 0 {
		t.Fatalf("loan after rerun = %s", got)
	}
}

func TestProcessDue_NotDueRefreshesNextDate(t *testing.T) {
	_, svc, userID, savings, loan := fixture(t, "2026-03-15", "2026-01-20")
	ctx := context.Background()

	accounts, posted, err := svc.ProcessDue(ctx, userID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if posted != 0 {
		t.Fatalf("posted = %d, want 0", posted)
	}
	byID := indexAccounts(accounts)
	if got := byID[loan.ID].MonthlyPayment.NextPaymentDate.String(); got != "2026-03-20" {
		t.Fatalf("next payment date = %s, want 2026-03-20", got)
	}
	if got := byID[savings.ID].Balance; got.Cmp(decimal.MustParse("1000.00")) != 0 {
		t.Fatalf("savings should be untouched, got %s", got)
	}
}

func TestProcessDue_PastDueRollsToNextMonth(t *testing.T) {
	_, svc, userID, _, loan := fixture(t, "2026-03-15", "2026-01-10")
	ctx := context.Background()

	accounts, posted, err := svc.ProcessDue(ctx, userID)
	if err != nil || posted != 0 {
		t.Fatalf("process: posted=%d err=%v", posted, err)
	}
	byID := indexAccounts(accounts)
	if got := byID[loan.ID].MonthlyPayment.NextPaymentDate.String(); got != "2026-04-10" {
		t.Fatalf("next payment date = %s, want 2026-04-10", got)
	}
}

func TestProcessDue_ClampsDueDayToShortMonth(t *testing.T) {
	// Anchor day 31; April has 30 days, so the payment falls due on the 30th.
	_, svc, userID, _, loan := fixture(t, "2026-04-30", "2026-01-31")
	ctx := context.Background()

	accounts, posted, err := svc.ProcessDue(ctx, userID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if posted != 1 {
		t.Fatalf("posted = %d, want 1", posted)
	}
	byID := indexAccounts(accounts)
	// next cycle anchors back on the 31st
	if got := byID[loan.ID].MonthlyPayment.NextPaymentDate.String(); got != "2026-05-30" && got != "2026-05-31" {
		t.Fatalf("next payment date = %s", got)
	}
}

func TestProcessDue_NoSufficiencyCheck(t *testing.T) {
	store, svc, userID, savings, _ := fixture(t, "2026-03-15", "2026-01-15")
	ctx := context.Background()

	// drain the linked account below the payment amount
	drained, _ := store.GetAccount(ctx, userID, savings.ID)
	drained.Balance = decimal.MustParse("50.00")
	if _, err := store.UpdateAccount(ctx, drained); err != nil {
		t.Fatalf("drain: %v", err)
	}

	accounts, posted, err := svc.ProcessDue(ctx, userID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if posted != 1 {
		t.Fatalf("scheduled payment should post regardless, posted=%d", posted)
	}
	byID := indexAccounts(accounts)
	if got := byID[savings.ID].Balance; got.Cmp(decimal.MustParse("-150.00")) != 0 {
		t.Fatalf("savings = %s, want -150.00 (overdraft allowed)", got)
	}
}

func TestPayNow_ChecksFundsAndPostsOnce(t *testing.T) {
	store, svc, userID, savings, loan := fixture(t, "2026-03-10", "2026-01-15")
	ctx := context.Background()

	updated, err := svc.PayNow(ctx, userID, loan.ID)
	if err != nil {
		t.Fatalf("pay now: %v", err)
	}
	if updated.Balance.Cmp(decimal.MustParse("-300.00")) != 0 {
		t.Fatalf("loan = %s, want -300.00", updated.Balance)
	}
	if got := updated.MonthlyPayment.NextPaymentDate.String(); got != "2026-04-15" {
		t.Fatalf("next payment date = %s, want 2026-04-15", got)
	}

	// same cycle again conflicts
	if _, err := svc.PayNow(ctx, userID, loan.ID); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected conflict on second pay, got %v", err)
	}

	// the scheduled run on the due date is also absorbed by the cycle key
	due := New(store, store, func() time.Time { return time.Date(2026, time.March, 15, 8, 0, 0, 0, time.UTC) })
	accounts, posted, err := due.ProcessDue(ctx, userID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if posted != 0 {
		t.Fatalf("cycle already paid manually, posted=%d", posted)
	}
	byID := indexAccounts(accounts)
	if got := byID[savings.ID].Balance; got.Cmp(decimal.MustParse("800.00")) != 0 {
		t.Fatalf("savings = %s, want 800.00", got)
	}
}

func TestPayNow_InsufficientFunds(t *testing.T) {
	store, svc, userID, savings, loan := fixture(t, "2026-03-10", "2026-01-15")
	ctx := context.Background()

	drained, _ := store.GetAccount(ctx, userID, savings.ID)
	drained.Balance = decimal.MustParse("50.00")
	if _, err := store.UpdateAccount(ctx, drained); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if _, err := svc.PayNow(ctx, userID, loan.ID); !errors.Is(err, errs.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestPayNow_NoRecurringPayment(t *testing.T) {
	store, svc, userID, savings, _ := fixture(t, "2026-03-10", "2026-01-15")
	if _, err := svc.PayNow(context.Background(), userID, savings.ID); !errors.Is(err, errs.ErrNoRecurringPayment) {
		t.Fatalf("expected no recurring payment, got %v", err)
	}
	_ = store
}

func TestProcessDue_SkipsDanglingLinkedAccount(t *testing.T) {
	store, svc, userID, savings, loan := fixture(t, "2026-03-15", "2026-01-15")
	ctx := context.Background()

	// a second debt whose funding account no longer exists
	due := planner.MustParseDate("2026-01-15")
	orphan := planner.Account{
		ID: uuid.New(), UserID: userID, Name: "Old Card", Type: planner.AccountTypeDebt,
		Balance: decimal.MustParse("-900.00"),
		DueDate: &due,
		MonthlyPayment: &planner.MonthlyPayment{
			Amount:          decimal.MustParse("75.00"),
			LinkedAccountID: uuid.New(),
			NextPaymentDate: due,
		},
	}
	store.SeedAccount(orphan)

	accounts, posted, err := svc.ProcessDue(ctx, userID)
	if err != nil {
		t.Fatalf("run should survive a deleted funding account: %v", err)
	}
	if posted != 1 {
		t.Fatalf("posted = %d, want 1 (only the funded loan)", posted)
	}
	byID := indexAccounts(accounts)
	if got := byID[orphan.ID].Balance; got.Cmp(decimal.MustParse("-900.00")) != 0 {
		t.Fatalf("orphaned debt should be untouched, got %s", got)
	}
	if got := byID[savings.ID].Balance; got.Cmp(decimal.MustParse("800.00")) != 0 {
		t.Fatalf("savings = %s, want 800.00", got)
	}
	if got := byID[loan.ID].Balance; got.Cmp(decimal.MustParse("-300.00")) != 0 {
		t.Fatalf("loan = %s, want -300.00", got)
	}
}

func TestProcessDue_SkipsNonSavingsLinkedAccount(t *testing.T) {
	store, svc, userID, savings, loan := fixture(t, "2026-03-15", "2026-01-15")
	ctx := context.Background()

	other := planner.Account{ID: uuid.New(), UserID: userID, Name: "Card", Type: planner.AccountTypeDebt, Balance: decimal.MustParse("-80.00")}
	store.SeedAccount(other)
	relinked, _ := store.GetAccount(ctx, userID, loan.ID)
	relinked.MonthlyPayment.LinkedAccountID = other.ID
	if _, err := store.UpdateAccount(ctx, relinked); err != nil {
		t.Fatalf("relink: %v", err)
	}

	accounts, posted, err := svc.ProcessDue(ctx, userID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if posted != 0 {
		t.Fatalf("a debt cannot fund a payment, posted=%d", posted)
	}
	byID := indexAccounts(accounts)
	if got := byID[other.ID].Balance; got.Cmp(decimal.MustParse("-80.00")) != 0 {
		t.Fatalf("linked debt should be untouched, got %s", got)
	}
	if got := byID[savings.ID].Balance; got.Cmp(decimal.MustParse("1000.00")) != 0 {
		t.Fatalf("savings should be untouched, got %s", got)
	}
}

func TestProcessDue_FinalPaymentMovesRemainingBalanceOnly(t *testing.T) {
	store, svc, userID, savings, loan := fixture(t, "2026-03-15", "2026-01-15")
	ctx := context.Background()

	// less owed than the descriptor amount
	small, _ := store.GetAccount(ctx, userID, loan.ID)
	small.Balance = decimal.MustParse("-50.00")
	if _, err := store.UpdateAccount(ctx, small); err != nil {
		t.Fatalf("shrink: %v", err)
	}

	accounts, posted, err := svc.ProcessDue(ctx, userID)
	if err != nil || posted != 1 {
		t.Fatalf("process: posted=%d err=%v", posted, err)
	}
	byID := indexAccounts(accounts)
	if got := byID[loan.ID].Balance; got.Cmp(decimal.MustParse("0")) != 0 {
		t.Fatalf("loan = %s, want 0", got)
	}
	// both legs move by the remaining 50.00, not the descriptor's 200.00
	if got := byID[savings.ID].Balance; got.Cmp(decimal.MustParse("950.00")) != 0 {
		t.Fatalf("savings = %s, want 950.00", got)
	}

	txns, _ := store.ListTransactions(ctx, userID)
	if len(txns) != 1 || txns[0].NewBalance == nil || !txns[0].NewBalance.IsZero() {
		t.Fatalf("expected one record closing out the debt, got %+v", txns)
	}
}

func TestPayNow_FinalPaymentBelowDescriptorAmount(t *testing.T) {
	store, svc, userID, savings, loan := fixture(t, "2026-03-10", "2026-01-15")
	ctx := context.Background()

	small, _ := store.GetAccount(ctx, userID, loan.ID)
	small.Balance = decimal.MustParse("-50.00")
	if _, err := store.UpdateAccount(ctx, small); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	drained, _ := store.GetAccount(ctx, userID, savings.ID)
	drained.Balance = decimal.MustParse("100.00")
	if _, err := store.UpdateAccount(ctx, drained); err != nil {
		t.Fatalf("drain: %v", err)
	}

	// 100.00 covers the remaining 50.00 even though the descriptor says 200.00
	updated, err := svc.PayNow(ctx, userID, loan.ID)
	if err != nil {
		t.Fatalf("pay now: %v", err)
	}
	if updated.Balance.Cmp(decimal.MustParse("0")) != 0 {
		t.Fatalf("loan = %s, want 0", updated.Balance)
	}
	after, _ := store.GetAccount(ctx, userID, savings.ID)
	if after.Balance.Cmp(decimal.MustParse("50.00")) != 0 {
		t.Fatalf("savings = %s, want 50.00", after.Balance)
	}
}

func indexAccounts(accounts []planner.Account) map[uuid.UUID]planner.Account {
	out := make(map[uuid.UUID]planner.Account, len(accounts))
	for _, a := range accounts {
		out[a.ID] = a
	}
	return out
}
