// Package auth handles user registration, credential checks and token
// issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Andrew-Atwater/TeamF/internal/errs"
	"github.com/Andrew-Atwater/TeamF/internal/planner"
)

// Repo looks up users by credential key.
type Repo interface {
	UserByEmail(ctx context.Context, email string) (planner.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (planner.User, error)
}

// Writer persists new users. CreateUser returns errs.ErrConflict when the
// email is already registered.
type Writer interface {
	CreateUser(ctx context.Context, u planner.User) (planner.User, error)
}

type Service interface {
	Register(ctx context.Context, email, displayName, password string) (planner.User, error)
	// Login checks the credentials and returns the user plus a signed
	// bearer token.
	Login(ctx context.Context, email, password string) (planner.User, string, error)
	// Verify parses a bearer token and returns the authenticated user ID.
	Verify(token string) (uuid.UUID, error)
}

type service struct {
	repo   Repo
	writer Writer
	secret []byte
	ttl    time.Duration
}

func New(repo Repo, writer Writer, secret string, ttl time.Duration) Service {
	return &service{repo: repo, writer: writer, secret: []byte(secret), ttl: ttl}
}

func (s *service) Register(ctx context.Context, email, displayName, password string) (planner.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return planner.User{}, fmt.Errorf("%w: a valid email is required", errs.ErrInvalid)
	}
	if len(password) < 8 {
		return planner.User{}, fmt.Errorf("%w: password must be at least 8 characters", errs.ErrInvalid)
	}
	if displayName == "" {
		displayName = email[:strings.Index(email, "@")]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return planner.User{}, err
	}
	u := planner.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	}
	return s.writer.CreateUser(ctx, u)
}

func (s *service) Login(ctx context.Context, email, password string) (planner.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return planner.User{}, "", errs.ErrForbidden
		}
		return planner.User{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return planner.User{}, "", errs.ErrForbidden
	}
	token, err := s.issue(u)
	if err != nil {
		return planner.User{}, "", err
	}
	return u, token, nil
}

func (s *service) issue(u planner.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   u.ID.String(),
		"email": u.Email,
		"exp":   time.Now().Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *service) Verify(token string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.ErrForbidden
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, errs.ErrForbidden
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errs.ErrForbidden
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, errs.ErrForbidden
	}
	return id, nil
}
