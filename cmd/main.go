package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/Andrew-Atwater/TeamF/internal/config"
	httpapi "github.com/Andrew-Atwater/TeamF/internal/httpapi/v1"
	"github.com/Andrew-Atwater/TeamF/internal/planner"
	"github.com/Andrew-Atwater/TeamF/internal/storage/memory"
	pgstore "github.com/Andrew-Atwater/TeamF/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	var srvMux http.Handler
	var closeFn func()

	if cfg.DatabaseURL != "" {
		// Use Postgres store when DATABASE_URL is provided
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = func() { pg.Close() }
		// Optional dev seed for compose/local
		if cfg.DevSeed {
			user, accs, err := pg.SeedDev(ctx)
			if err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				printDevSeedBanner(user, accs)
			}
		}
		srvMux = httpapi.New(pg, cfg.JWTSecret, cfg.JWTTTL, logger).Handler()
		logger.Info("storage backend: postgres")
	} else {
		// Default to in-memory store with a small dev seed
		store := memory.New()
		if cfg.DevSeed {
			user, accs := seedMemory(store)
			printDevSeedBanner(user, accs)
		}
		srvMux = httpapi.New(store, cfg.JWTSecret, cfg.JWTTTL, logger).Handler()
		logger.Info("storage backend: memory")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srvMux,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("planner service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// seedMemory plants a demo user with one savings and one debt account wired
// for a recurring payment.
func seedMemory(store *memory.Store) (planner.User, []planner.Account) {
	user := planner.User{ID: uuid.New(), Email: "demo@example.com", DisplayName: "Demo"}
	store.SeedUser(user)
	due := planner.Date{Year: 2026, Month: time.January, Day: 15}
	savings := planner.Account{ID: uuid.New(), UserID: user.ID, Name: "Checking", Balance: decimal.MustParse("2500.00"), Type: planner.AccountTypeSavings}
	loan := planner.Account{
		ID: uuid.New(), UserID: user.ID, Name: "Car Loan",
		Balance: decimal.MustParse("-6400.00"), Type: planner.AccountTypeDebt,
		DueDate: &due,
		MonthlyPayment: &planner.MonthlyPayment{Amount: decimal.MustParse("320.00"), LinkedAccountID: savings.ID, NextPaymentDate: due},
	}
	store.SeedAccount(savings)
	store.SeedAccount(loan)
	return user, []planner.Account{savings, loan}
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste of IDs
func printDevSeedBanner(user planner.User, accs []planner.Account) {
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("user_id: %s\n", user.ID.String())
	for _, a := range accs {
		fmt.Printf("%s_account_id (%s): %s\n", a.Type, a.Name, a.ID.String())
	}
	fmt.Println("==================================================")
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(level, format string) *slog.Logger {
	lvl := parseLogLevel(level)
	if strings.ToLower(strings.TrimSpace(format)) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
