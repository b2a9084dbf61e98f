package postgres

// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the HTTP/API and services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. This package focuses on mapping between the
// domain entities and SQL rows and running the necessary statements/transactions.

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Andrew-Atwater/TeamF/internal/errs"
	"github.com/Andrew-Atwater/TeamF/internal/planner"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil { return nil, err }
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil { return nil, err }
	// Verify connection
	if err := pool.Ping(ctx); err != nil { pool.Close(); return nil, err }
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() { if s.pool != nil { s.pool.Close() } }

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SeedDev inserts a demo user with one savings and one debt account for quick
// local testing. It is idempotent per run due to fresh UUIDs.
func (s *Store) SeedDev(ctx context.Context) (planner.User, []planner.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil { return planner.User{}, nil, err }
	defer func() { _ = tx.Rollback(ctx) }()
	user := planner.User{ID: uuid.New(), Email: "demo@example.com", DisplayName: "Demo"}
	if _, err := tx.Exec(ctx, `insert into users (id, email, display_name, password_hash) values ($1,$2,$3,'')`, user.ID, user.Email, user.DisplayName); err != nil {
		return planner.User{}, nil, err
	}
	due := planner.Date{Year: 2026, Month: time.January, Day: 15}
	savings := planner.Account{ID: uuid.New(), UserID: user.ID, Name: "Checking", Balance: decimal.MustParse("2500.00"), Type: planner.AccountTypeSavings}
	loan := planner.Account{
		ID: uuid.New(), UserID: user.ID, Name: "Car Loan",
		Balance: decimal.MustParse("-6400.00"), Type: planner.AccountTypeDebt,
		DueDate: &due,
		MonthlyPayment: &planner.MonthlyPayment{Amount: decimal.MustParse("320.00"), LinkedAccountID: savings.ID, NextPaymentDate: due},
	}
	accs := []planner.Account{savings, loan}
	for _, a := range accs {
		if err := insertAccount(ctx, tx, a); err != nil { return planner.User{}, nil, err }
	}
	if err := tx.Commit(ctx); err != nil { return planner.User{}, nil, err }
	return user, accs, nil
}

// --- Users ---

// CreateUser inserts a user row. A duplicate email maps to errs.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u planner.User) (planner.User, error) {
	_, err := s.pool.Exec(ctx, `
        insert into users (id, email, display_name, password_hash)
        values ($1,$2,$3,$4)
    `, u.ID, u.Email, u.DisplayName, u.PasswordHash)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { return planner.User{}, errs.ErrConflict }
	if err != nil { return planner.User{}, err }
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (planner.User, error) {
	var u planner.User
	err := s.pool.QueryRow(ctx, `
        select id, email, display_name, password_hash
        from users where lower(email) = lower($1)
    `, email).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) { return planner.User{}, errs.ErrNotFound }
	if err != nil { return planner.User{}, err }
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (planner.User, error) {
	var u planner.User
	err := s.pool.QueryRow(ctx, `
        select id, email, display_name, password_hash
        from users where id = $1
    `, id).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) { return planner.User{}, errs.ErrNotFound }
	if err != nil { return planner.User{}, err }
	return u, nil
}

// --- Account reads ---

const accountCols = `id, user_id, name, balance::text, description, type,
        due_date, mp_amount::text, mp_linked_account_id, mp_next_payment_date`

// ListAccounts returns all accounts for a user.
func (s *Store) ListAccounts(ctx context.Context, userID uuid.UUID) ([]planner.Account, error) {
	rows, err := s.pool.Query(ctx, `
        select `+accountCols+`
        from accounts
        where user_id = $1
        order by id
    `, userID)
	if err != nil { return nil, err }
	defer rows.Close()
	out := make([]planner.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil { return nil, err }
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAccount fetches a single account by id for a user.
func (s *Store) GetAccount(ctx context.Context, userID, accountID uuid.UUID) (planner.Account, error) {
	row := s.pool.QueryRow(ctx, `
        select `+accountCols+`
        from accounts
        where id = $1 and user_id = $2
    `, accountID, userID)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) { return planner.Account{}, errs.ErrNotFound }
	if err != nil { return planner.Account{}, err }
	return a, nil
}

func scanAccount(row pgx.Row) (planner.Account, error) {
	var a planner.Account
	var balance string
	var dueDate, mpNext *time.Time
	var mpAmount *string
	var mpLinked *uuid.UUID
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &balance, &a.Description, &a.Type,
		&dueDate, &mpAmount, &mpLinked, &mpNext); err != nil {
		return planner.Account{}, err
	}
	var err error
	if a.Balance, err = decimal.Parse(balance); err != nil { return planner.Account{}, err }
	if dueDate != nil {
		d := planner.DateOf(*dueDate)
		a.DueDate = &d
	}
	if mpAmount != nil && mpLinked != nil && mpNext != nil {
		amt, err := decimal.Parse(*mpAmount)
		if err != nil { return planner.Account{}, err }
		a.MonthlyPayment = &planner.MonthlyPayment{
			Amount:          amt,
			LinkedAccountID: *mpLinked,
			NextPaymentDate: planner.DateOf(*mpNext),
		}
	}
	return a, nil
}

// --- Account writes ---

// CreateAccount inserts an account row.
func (s *Store) CreateAccount(ctx context.Context, a planner.Account) (planner.Account, error) {
	if err := insertAccount(ctx, s.pool, a); err != nil { return planner.Account{}, err }
	return a, nil
}

func insertAccount(ctx context.Context, q querier, a planner.Account) error {
	due, mpAmount, mpLinked, mpNext := paymentCols(a)
	_, err := q.Exec(ctx, `
        insert into accounts (id, user_id, name, balance, description, type,
            due_date, mp_amount, mp_linked_account_id, mp_next_payment_date)
        values ($1,$2,$3,$4::numeric,$5,$6,$7::date,$8::numeric,$9,$10::date)
    `, a.ID, a.UserID, a.Name, a.Balance.String(), a.Description, a.Type,
		due, mpAmount, mpLinked, mpNext)
	return err
}

// UpdateAccount replaces the account's mutable fields.
func (s *Store) UpdateAccount(ctx context.Context, a planner.Account) (planner.Account, error) {
	ct, err := updateAccount(ctx, s.pool, a)
	if err != nil { return planner.Account{}, err }
	if ct.RowsAffected() == 0 { return planner.Account{}, errs.ErrNotFound }
	return a, nil
}

func updateAccount(ctx context.Context, q querier, a planner.Account) (pgconn.CommandTag, error) {
	due, mpAmount, mpLinked, mpNext := paymentCols(a)
	return q.Exec(ctx, `
        update accounts
        set name=$1, balance=$2::numeric, description=$3, type=$4,
            due_date=$5::date, mp_amount=$6::numeric, mp_linked_account_id=$7, mp_next_payment_date=$8::date
        where id=$9 and user_id=$10
    `, a.Name, a.Balance.String(), a.Description, a.Type,
		due, mpAmount, mpLinked, mpNext, a.ID, a.UserID)
}

func paymentCols(a planner.Account) (due, mpAmount *string, mpLinked *uuid.UUID, mpNext *string) {
	if a.DueDate != nil {
		s := a.DueDate.String()
		due = &s
	}
	if mp := a.MonthlyPayment; mp != nil {
		amt := mp.Amount.String()
		next := mp.NextPaymentDate.String()
		mpAmount, mpLinked, mpNext = &amt, &mp.LinkedAccountID, &next
	}
	return due, mpAmount, mpLinked, mpNext
}

// --- Transactions (audit log) ---

// RecordTransaction appends an audit record. The database assigns the
// timestamp so ordering is decided in one place.
func (s *Store) RecordTransaction(ctx context.Context, t planner.Transaction) (planner.Transaction, error) {
	t.ID = uuid.New()
	if err := insertTxn(ctx, s.pool, &t); err != nil { return planner.Transaction{}, err }
	return t, nil
}

func insertTxn(ctx context.Context, q querier, t *planner.Transaction) error {
	var prev, next *string
	if t.PreviousBalance != nil {
		s := t.PreviousBalance.String()
		prev = &s
	}
	if t.NewBalance != nil {
		s := t.NewBalance.String()
		next = &s
	}
	return q.QueryRow(ctx, `
        insert into transactions (id, user_id, account_id, account_name, kind,
            previous_balance, new_balance, description)
        values ($1,$2,$3,$4,$5,$6::numeric,$7::numeric,$8)
        returning ts
    `, t.ID, t.UserID, t.AccountID, t.AccountName, t.Kind, prev, next, t.Description).Scan(&t.Timestamp)
}

// ListTransactions returns the user's audit records ordered oldest first.
func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID) ([]planner.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
        select id, user_id, account_id, account_name, kind,
            previous_balance::text, new_balance::text, ts, description
        from transactions
        where user_id = $1
        order by ts asc, id asc
    `, userID)
	if err != nil { return nil, err }
	defer rows.Close()
	out := make([]planner.Transaction, 0)
	for rows.Next() {
		var t planner.Transaction
		var prev, next *string
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.AccountName, &t.Kind,
			&prev, &next, &t.Timestamp, &t.Description); err != nil {
			return nil, err
		}
		if prev != nil {
			d, err := decimal.Parse(*prev)
			if err != nil { return nil, err }
			t.PreviousBalance = &d
		}
		if next != nil {
			d, err := decimal.Parse(*next)
			if err != nil { return nil, err }
			t.NewBalance = &d
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// --- Settings ---

func (s *Store) GetSettings(ctx context.Context, userID uuid.UUID) (planner.Settings, bool, error) {
	st := planner.Settings{UserID: userID}
	err := s.pool.QueryRow(ctx, `
        select dark_mode, font_size, font_family, currency_symbol, date_format, notifications
        from settings where user_id = $1
    `, userID).Scan(&st.DarkMode, &st.FontSize, &st.FontFamily, &st.CurrencySymbol, &st.DateFormat, &st.Notifications)
	if errors.Is(err, pgx.ErrNoRows) { return planner.Settings{}, false, nil }
	if err != nil { return planner.Settings{}, false, err }
	return st, true, nil
}

// PutSettings upserts the user's settings document.
func (s *Store) PutSettings(ctx context.Context, st planner.Settings) error {
	_, err := s.pool.Exec(ctx, `
        insert into settings (user_id, dark_mode, font_size, font_family, currency_symbol, date_format, notifications)
        values ($1,$2,$3,$4,$5,$6,$7)
        on conflict (user_id) do update
        set dark_mode=excluded.dark_mode, font_size=excluded.font_size,
            font_family=excluded.font_family, currency_symbol=excluded.currency_symbol,
            date_format=excluded.date_format, notifications=excluded.notifications
    `, st.UserID, st.DarkMode, st.FontSize, st.FontFamily, st.CurrencySymbol, st.DateFormat, st.Notifications)
	return err
}

// --- Composite writes ---

// ApplyTransfer writes both account snapshots and the audit record in one
// database transaction, keyed for idempotency. A key that has already been
// applied returns (false, nil) without writing.
func (s *Store) ApplyTransfer(ctx context.Context, key string, from, to planner.Account, t planner.Transaction) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil { return false, err }
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
        insert into transfer_keys (user_id, key) values ($1,$2)
        on conflict (user_id, key) do nothing
    `, t.UserID, key)
	if err != nil { return false, err }
	if ct.RowsAffected() == 0 { return false, nil }

	for _, a := range []planner.Account{from, to} {
		ct, err := updateAccount(ctx, tx, a)
		if err != nil { return false, err }
		if ct.RowsAffected() == 0 { return false, errs.ErrNotFound }
	}
	t.ID = uuid.New()
	if err := insertTxn(ctx, tx, &t); err != nil { return false, err }
	if err := tx.Commit(ctx); err != nil { return false, err }
	return true, nil
}

// DeleteWithSweep removes src, optionally credits the sweep target, and
// appends the audit record in one database transaction.
func (s *Store) DeleteWithSweep(ctx context.Context, src planner.Account, target *planner.Account, t planner.Transaction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil { return err }
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `delete from accounts where id=$1 and user_id=$2`, src.ID, src.UserID)
	if err != nil { return err }
	if ct.RowsAffected() == 0 { return errs.ErrNotFound }
	if target != nil {
		ct, err := updateAccount(ctx, tx, *target)
		if err != nil { return err }
		if ct.RowsAffected() == 0 { return errs.ErrNotFound }
	}
	t.ID = uuid.New()
	if err := insertTxn(ctx, tx, &t); err != nil { return err }
	return tx.Commit(ctx)
}
