// Package v1 wires the HTTP surface of the planner service.
// It keeps handlers thin, delegating business rules to the service layer.
package v1

import (
	"log/slog"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Andrew-Atwater/TeamF/internal/service/account"
	"github.com/Andrew-Atwater/TeamF/internal/service/auth"
	"github.com/Andrew-Atwater/TeamF/internal/service/recurring"
	"github.com/Andrew-Atwater/TeamF/internal/service/settings"
	"github.com/Andrew-Atwater/TeamF/internal/service/txlog"
)

// Server wires handlers and middleware using Chi.
// It composes read (repo) and write (writer) dependencies through services.
type Server struct {
	accountSvc   account.Service
	recurringSvc recurring.Service
	settingsSvc  settings.Service
	authSvc      auth.Service
	txSvc        txlog.Service
	store        Store
	log          *slog.Logger
	rt           *chi.Mux
}

// New constructs the HTTP server with routes and middleware. An empty secret
// disables bearer-token enforcement (local development).
func New(store Store, secret string, ttl time.Duration, logger *slog.Logger) *Server {
	return NewWithClock(store, secret, ttl, logger, time.Now)
}

// NewWithClock is New with an injectable clock for the recurring payment
// engine. Tests pin the clock to exercise due-date boundaries.
func NewWithClock(store Store, secret string, ttl time.Duration, logger *slog.Logger, now func() time.Time) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(metricsMiddleware)
	r.Use(recoverer(logger))

	tx := txlog.New(store, store)
	s := &Server{
		accountSvc:   account.New(store, store, tx),
		recurringSvc: recurring.New(store, store, now),
		settingsSvc:  settings.New(store, store),
		authSvc:      auth.New(store, store, secret, ttl),
		txSvc:        tx,
		store:        store,
		log:          logger,
		rt:           r,
	}
	if secret != "" {
		r.Use(s.requireAuth())
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	// Auth (v1)
	s.rt.Post("/v1/auth/register", s.register)
	s.rt.Post("/v1/auth/login", s.login)
	// Accounts (v1)
	s.rt.With(s.validateListAccounts()).Get("/v1/accounts", s.listAccounts)
	s.rt.With(s.validatePostAccount()).Post("/v1/accounts", s.postAccount)
	s.rt.Get("/v1/accounts/{id}", s.getAccount)
	s.rt.Patch("/v1/accounts/{id}", s.updateAccount)
	s.rt.Delete("/v1/accounts/{id}", s.deleteAccount)
	s.rt.Get("/v1/accounts/{id}/sweep-candidates", s.sweepCandidates)
	s.rt.Post("/v1/accounts/{id}/pay", s.payNow)
	// Transactions (v1)
	s.rt.With(s.validateListAccounts()).Get("/v1/transactions", s.listTransactions)
	s.rt.With(s.validatePostTransaction()).Post("/v1/transactions", s.postTransaction)
	// Recurring payments (v1)
	s.rt.Post("/v1/payments/run", s.runPayments)
	// Settings (v1)
	s.rt.With(s.validateListAccounts()).Get("/v1/settings", s.getSettings)
	s.rt.Put("/v1/settings", s.putSettings)
	// Calendar placeholder (unversioned, kept for the web client)
	s.rt.Get("/api/calendar", s.calendar)
	// Health (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	// Prometheus metrics
	s.rt.Get("/metrics", metricsHandler().ServeHTTP)
}
