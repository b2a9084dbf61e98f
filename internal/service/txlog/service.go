// Package txlog implements the append-only transaction recorder: every
// account mutation leaves exactly one audit record, written after the
// mutation succeeds and never touched again.
package txlog

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Andrew-Atwater/TeamF/internal/errs"
	"github.com/Andrew-Atwater/TeamF/internal/planner"
)

// Repo defines read operations needed by the service.
type Repo interface {
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]planner.Transaction, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	// RecordTransaction persists the record and assigns its timestamp.
	RecordTransaction(ctx context.Context, t planner.Transaction) (planner.Transaction, error)
}

// Service exposes recording and ordered read-back of the audit trail.
type Service interface {
	Record(ctx context.Context, t planner.Transaction) (planner.Transaction, error)
	List(ctx context.Context, userID uuid.UUID) ([]planner.Transaction, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// Record appends one audit record. A failure here fails the caller's whole
// operation; the preceding account write is not rolled back.
func (s *service) Record(ctx context.Context, t planner.Transaction) (planner.Transaction, error) {
	if t.UserID == uuid.Nil || t.AccountID == uuid.Nil {
		return planner.Transaction{}, errs.ErrInvalid
	}
	switch t.Kind {
	case planner.TransactionCreate, planner.TransactionUpdate, planner.TransactionDelete:
	default:
		return planner.Transaction{}, errs.ErrInvalid
	}
	return s.writer.RecordTransaction(ctx, t)
}

// List returns the user's full history, newest first. The backing store does
// not guarantee order, so the sort happens here.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]planner.Transaction, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	out, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}
