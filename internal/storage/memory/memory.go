package memory

// Package memory provides a simple in-memory implementation used for development and tests.
// It keeps code paths easy to follow while allowing us to plug in a real DB later.
import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Andrew-Atwater/TeamF/internal/errs"
	"github.com/Andrew-Atwater/TeamF/internal/planner"
)

// txnKey tracks ordering for transactions per user: sorted asc by (Timestamp, ID)
type txnKey struct {
	Timestamp time.Time
	ID        uuid.UUID
}

// Store is an in-memory implementation of the repository+writer used by the API.
// It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]planner.User
	accounts map[uuid.UUID]planner.Account
	txns     map[uuid.UUID]planner.Transaction
	// Per-user sorted index of transactions for ordered scans
	txnKeysByUser map[uuid.UUID][]txnKey
	settings      map[uuid.UUID]planner.Settings
	// Transfer idempotency: userID -> key -> applied
	transferKeys map[uuid.UUID]map[string]struct{}
	// now is swappable so tests can control the store-assigned timestamps.
	now func() time.Time
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		users:         make(map[uuid.UUID]planner.User),
		accounts:      make(map[uuid.UUID]planner.Account),
		txns:          make(map[uuid.UUID]planner.Transaction),
		txnKeysByUser: make(map[uuid.UUID][]txnKey),
		settings:      make(map[uuid.UUID]planner.Settings),
		transferKeys:  make(map[uuid.UUID]map[string]struct{}),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// cloneAccount copies the pointer-typed fields so the store and its callers
// never share DueDate or MonthlyPayment values.
func cloneAccount(a planner.Account) planner.Account {
	if a.DueDate != nil {
		d := *a.DueDate
		a.DueDate = &d
	}
	if a.MonthlyPayment != nil {
		mp := *a.MonthlyPayment
		a.MonthlyPayment = &mp
	}
	return a
}

// Seed helpers for local dev/tests.
func (s *Store) SeedUser(u planner.User) { s.mu.Lock(); s.users[u.ID] = u; s.mu.Unlock() }
func (s *Store) SeedAccount(a planner.Account) {
	s.mu.Lock()
	s.accounts[a.ID] = cloneAccount(a)
	s.mu.Unlock()
}

// SetClock replaces the store clock used for transaction timestamps.
func (s *Store) SetClock(now func() time.Time) { s.mu.Lock(); s.now = now; s.mu.Unlock() }

func (s *Store) Reset() {
	s.mu.Lock()
	s.users = map[uuid.UUID]planner.User{}
	s.accounts = map[uuid.UUID]planner.Account{}
	s.txns = map[uuid.UUID]planner.Transaction{}
	s.txnKeysByUser = map[uuid.UUID][]txnKey{}
	s.settings = map[uuid.UUID]planner.Settings{}
	s.transferKeys = map[uuid.UUID]map[string]struct{}{}
	s.mu.Unlock()
}

// --- Users ---

// CreateUser persists a new user; email must be unique.
func (s *Store) CreateUser(_ context.Context, u planner.User) (planner.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if strings.EqualFold(other.Email, u.Email) {
			return planner.User{}, errs.ErrConflict
		}
	}
	s.users[u.ID] = u
	return u, nil
}

// UserByEmail returns the user with the given email (case-insensitive).
func (s *Store) UserByEmail(_ context.Context, email string) (planner.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return planner.User{}, errs.ErrNotFound
}

// UserByID returns a user by id.
func (s *Store) UserByID(_ context.Context, id uuid.UUID) (planner.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return planner.User{}, errs.ErrNotFound
	}
	return u, nil
}

// --- Accounts ---

// ListAccounts returns accounts for a user.
func (s *Store) ListAccounts(_ context.Context, userID uuid.UUID) ([]planner.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]planner.Account, 0)
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, cloneAccount(a))
		}
	}
	// map iteration order is random; keep listings stable across calls
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// GetAccount returns a user's account by ID.
func (s *Store) GetAccount(_ context.Context, userID, accountID uuid.UUID) (planner.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return planner.Account{}, errs.ErrNotFound
	}
	return cloneAccount(a), nil
}

// CreateAccount persists a new account.
func (s *Store) CreateAccount(_ context.Context, a planner.Account) (planner.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = cloneAccount(a)
	return a, nil
}

// UpdateAccount persists changes to an account.
func (s *Store) UpdateAccount(_ context.Context, a planner.Account) (planner.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return planner.Account{}, errs.ErrNotFound
	}
	s.accounts[a.ID] = cloneAccount(a)
	return a, nil
}

// --- Transactions ---

// RecordTransaction appends an audit record, assigning the timestamp.
func (s *Store) RecordTransaction(_ context.Context, t planner.Transaction) (planner.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordLocked(t), nil
}

// recordLocked assigns id/timestamp and indexes the record. Caller holds s.mu.
func (s *Store) recordLocked(t planner.Transaction) planner.Transaction {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = s.now()
	}
	s.txns[t.ID] = t
	s.insertTxnIndexLocked(t.UserID, txnKey{Timestamp: t.Timestamp, ID: t.ID})
	return t
}

// ListTransactions returns all of a user's transactions in index (ascending) order.
func (s *Store) ListTransactions(_ context.Context, userID uuid.UUID) ([]planner.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.txnKeysByUser[userID]
	out := make([]planner.Transaction, 0, len(keys))
	for _, k := range keys {
		if t, ok := s.txns[k.ID]; ok && t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// --- Settings ---

// GetSettings returns a user's settings doc and whether one has been saved.
func (s *Store) GetSettings(_ context.Context, userID uuid.UUID) (planner.Settings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[userID]
	return st, ok, nil
}

// PutSettings writes the whole settings doc for a user.
func (s *Store) PutSettings(_ context.Context, st planner.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[st.UserID] = st
	return nil
}

// --- Composite writes ---

// ApplyTransfer writes both account snapshots and the audit record in one
// critical section, keyed for idempotency. A key that has already been
// applied returns (false, nil) without writing, so a retried transfer cannot
// post twice.
func (s *Store) ApplyTransfer(_ context.Context, key string, from, to planner.Account, t planner.Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.transferKeys[t.UserID]
	if !ok {
		keys = make(map[string]struct{})
		s.transferKeys[t.UserID] = keys
	}
	if _, done := keys[key]; done {
		return false, nil
	}
	if _, ok := s.accounts[from.ID]; !ok {
		return false, errs.ErrNotFound
	}
	if _, ok := s.accounts[to.ID]; !ok {
		return false, errs.ErrNotFound
	}
	s.accounts[from.ID] = cloneAccount(from)
	s.accounts[to.ID] = cloneAccount(to)
	s.recordLocked(t)
	keys[key] = struct{}{}
	return true, nil
}

// DeleteWithSweep removes src, optionally credits the sweep target, and
// appends the audit record, all in one critical section.
func (s *Store) DeleteWithSweep(_ context.Context, src planner.Account, target *planner.Account, t planner.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[src.ID]
	if !ok || a.UserID != src.UserID {
		return errs.ErrNotFound
	}
	if target != nil {
		if _, ok := s.accounts[target.ID]; !ok {
			return errs.ErrNotFound
		}
		s.accounts[target.ID] = cloneAccount(*target)
	}
	delete(s.accounts, src.ID)
	s.recordLocked(t)
	return nil
}

// insertTxnIndexLocked inserts k into the per-user sorted index, keeping order asc by (Timestamp, ID).
// Caller must hold s.mu (write lock).
func (s *Store) insertTxnIndexLocked(userID uuid.UUID, k txnKey) {
	keys := s.txnKeysByUser[userID]
	// binary search for first position > k (stable insert after equal)
	i := sort.Search(len(keys), func(i int) bool {
		if keys[i].Timestamp.After(k.Timestamp) {
			return true
		}
		if keys[i].Timestamp.Equal(k.Timestamp) {
			return keys[i].ID.String() > k.ID.String()
		}
		return false
	})
	if i == len(keys) {
		s.txnKeysByUser[userID] = append(keys, k)
		return
	}
	keys = append(keys, txnKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.txnKeysByUser[userID] = keys
}
