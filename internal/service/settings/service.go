// Package settings stores per-user display preferences.
package settings

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Andrew-Atwater/TeamF/internal/errs"
	"github.com/Andrew-Atwater/TeamF/internal/planner"
)

// Repo reads a user's settings document. found is false when the user has
// never saved preferences.
type Repo interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (planner.Settings, bool, error)
}

// Writer persists a settings document, replacing any previous one.
type Writer interface {
	PutSettings(ctx context.Context, st planner.Settings) error
}

type Service interface {
	// Get returns the user's saved settings, or the defaults if none exist.
	Get(ctx context.Context, userID uuid.UUID) (planner.Settings, error)
	// Put replaces the user's settings document.
	Put(ctx context.Context, st planner.Settings) (planner.Settings, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service {
	return &service{repo: repo, writer: writer}
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (planner.Settings, error) {
	if userID == uuid.Nil {
		return planner.Settings{}, errs.ErrInvalid
	}
	st, found, err := s.repo.GetSettings(ctx, userID)
	if err != nil {
		return planner.Settings{}, err
	}
	if !found {
		return planner.DefaultSettings(userID), nil
	}
	return st, nil
}

func (s *service) Put(ctx context.Context, st planner.Settings) (planner.Settings, error) {
	if st.UserID == uuid.Nil {
		return planner.Settings{}, errs.ErrInvalid
	}
	if st.FontSize < 8 || st.FontSize > 72 {
		return planner.Settings{}, fmt.Errorf("%w: font_size must be between 8 and 72", errs.ErrInvalid)
	}
	if st.FontFamily == "" || st.CurrencySymbol == "" || st.DateFormat == "" {
		return planner.Settings{}, fmt.Errorf("%w: font_family, currency_symbol and date_format are required", errs.ErrInvalid)
	}
	if err := s.writer.PutSettings(ctx, st); err != nil {
		return planner.Settings{}, err
	}
	return st, nil
}
