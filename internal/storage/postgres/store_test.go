package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/Andrew-Atwater/TeamF/internal/errs"
	"github.com/Andrew-Atwater/TeamF/internal/planner"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func applyInitSQL(t *testing.T, dsn string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open for init: %v", err)
	}
	defer s.Close()
	// Resolve init SQL path relative to this test file so CWD doesn't matter
	_, thisFile, _, _ := runtime.Caller(0)
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "../../../"))
	path := filepath.Join(repoRoot, "db", "migrations", "0001_init.sql")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read init sql: %v", err)
	}
	// Exec may contain multiple statements; pgx supports this
	if _, err := s.pool.Exec(ctx, string(b)); err != nil {
		t.Fatalf("apply init sql: %v", err)
	}
}

func truncateAll(t *testing.T, dsn string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open for truncate: %v", err)
	}
	defer s.Close()
	_, _ = s.pool.Exec(ctx, `truncate table transfer_keys, transactions, settings, accounts, users cascade`)
}

func TestStore_AccountsTransactionsSettings(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	truncateAll(t, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := mustOpen(t, dsn)
	defer s.Close()

	if err := s.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}

	user, accs, err := s.SeedDev(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if user.ID == uuid.Nil || len(accs) != 2 {
		t.Fatalf("unexpected seed: %+v %v", user, accs)
	}

	// duplicate email conflicts
	if _, err := s.CreateUser(ctx, planner.User{ID: uuid.New(), Email: user.Email}); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := s.UserByEmail(ctx, "DEMO@example.com"); err != nil {
		t.Fatalf("email lookup should be case-insensitive: %v", err)
	}

	list, err := s.ListAccounts(ctx, user.ID)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(list))
	}

	var loan, savings planner.Account
	for _, a := range list {
		if a.Type == planner.AccountTypeDebt {
			loan = a
		} else {
			savings = a
		}
	}
	if loan.DueDate == nil || loan.MonthlyPayment == nil {
		t.Fatalf("debt columns did not round-trip: %+v", loan)
	}
	if loan.MonthlyPayment.LinkedAccountID != savings.ID {
		t.Fatalf("linked account mismatch: %+v", loan.MonthlyPayment)
	}

	got, err := s.GetAccount(ctx, user.ID, loan.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	got.Name = got.Name + " (upd)"
	got.Balance = decimal.MustParse("-6000.00")
	if _, err := s.UpdateAccount(ctx, got); err != nil {
		t.Fatalf("update account: %v", err)
	}
	got, _ = s.GetAccount(ctx, user.ID, loan.ID)
	if got.Balance.Cmp(decimal.MustParse("-6000.00")) != 0 {
		t.Fatalf("balance did not round-trip: %s", got.Balance)
	}

	// Transactions: store-assigned timestamps, nullable balance snapshots
	prev := decimal.MustParse("-6400.00")
	rec, err := s.RecordTransaction(ctx, planner.Transaction{
		UserID:          user.ID,
		AccountID:       loan.ID,
		AccountName:     loan.Name,
		Kind:            planner.TransactionUpdate,
		PreviousBalance: &prev,
		NewBalance:      &got.Balance,
		Description:     "test record",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.ID == uuid.Nil || rec.Timestamp.IsZero() {
		t.Fatalf("record not assigned id/timestamp: %+v", rec)
	}
	txns, err := s.ListTransactions(ctx, user.ID)
	if err != nil || len(txns) != 1 {
		t.Fatalf("list txns: %v (%d)", err, len(txns))
	}
	if txns[0].PreviousBalance == nil || txns[0].PreviousBalance.Cmp(prev) != 0 {
		t.Fatalf("previous balance did not round-trip: %+v", txns[0])
	}

	// Settings: absent, then upserted
	if _, found, err := s.GetSettings(ctx, user.ID); err != nil || found {
		t.Fatalf("expected no settings, found=%v err=%v", found, err)
	}
	st := planner.DefaultSettings(user.ID)
	st.DarkMode = true
	if err := s.PutSettings(ctx, st); err != nil {
		t.Fatalf("put settings: %v", err)
	}
	st.FontFamily = "Inter"
	if err := s.PutSettings(ctx, st); err != nil {
		t.Fatalf("upsert settings: %v", err)
	}
	saved, found, err := s.GetSettings(ctx, user.ID)
	if err != nil || !found || !saved.DarkMode || saved.FontFamily != "Inter" {
		t.Fatalf("settings did not round-trip: %+v found=%v err=%v", saved, found, err)
	}
}

func TestStore_ApplyTransferIdempotent(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	truncateAll(t, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := mustOpen(t, dsn)
	defer s.Close()

	user, accs, err := s.SeedDev(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	var loan, savings planner.Account
	for _, a := range accs {
		if a.Type == planner.AccountTypeDebt {
			loan = a
		} else {
			savings = a
		}
	}

	savings.Balance = decimal.MustParse("2180.00")
	loan.Balance = decimal.MustParse("-6080.00")
	txn := planner.Transaction{
		UserID:      user.ID,
		AccountID:   loan.ID,
		AccountName: loan.Name,
		Kind:        planner.TransactionUpdate,
		Description: "payment",
	}
	key := loan.ID.String() + ":2026-01-15"

	applied, err := s.ApplyTransfer(ctx, key, savings, loan, txn)
	if err != nil || !applied {
		t.Fatalf("first apply: applied=%v err=%v", applied, err)
	}
	applied, err = s.ApplyTransfer(ctx, key, savings, loan, txn)
	if err != nil || applied {
		t.Fatalf("second apply should be a no-op: applied=%v err=%v", applied, err)
	}

	got, _ := s.GetAccount(ctx, user.ID, savings.ID)
	if got.Balance.Cmp(decimal.MustParse("2180.00")) != 0 {
		t.Fatalf("savings = %s", got.Balance)
	}
	txns, _ := s.ListTransactions(ctx, user.ID)
	if len(txns) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(txns))
	}
}

func TestStore_DeleteWithSweep(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	truncateAll(t, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := mustOpen(t, dsn)
	defer s.Close()

	user, _, err := s.SeedDev(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	src := planner.Account{ID: uuid.New(), UserID: user.ID, Name: "Old", Type: planner.AccountTypeSavings, Balance: decimal.MustParse("75.00")}
	dst := planner.Account{ID: uuid.New(), UserID: user.ID, Name: "Keep", Type: planner.AccountTypeSavings, Balance: decimal.MustParse("25.00")}
	if _, err := s.CreateAccount(ctx, src); err != nil {
		t.Fatalf("create src: %v", err)
	}
	if _, err := s.CreateAccount(ctx, dst); err != nil {
		t.Fatalf("create dst: %v", err)
	}

	dst.Balance = decimal.MustParse("100.00")
	prev := decimal.MustParse("75.00")
	err = s.DeleteWithSweep(ctx, src, &dst, planner.Transaction{
		UserID:          user.ID,
		AccountID:       src.ID,
		AccountName:     src.Name,
		Kind:            planner.TransactionDelete,
		PreviousBalance: &prev,
		Description:     "swept",
	})
	if err != nil {
		t.Fatalf("delete with sweep: %v", err)
	}
	if _, err := s.GetAccount(ctx, user.ID, src.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("src should be gone, got %v", err)
	}
	got, _ := s.GetAccount(ctx, user.ID, dst.ID)
	if got.Balance.Cmp(decimal.MustParse("100.00")) != 0 {
		t.Fatalf("dst = %s", got.Balance)
	}
}
