package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/fintrack/internal/analytics"
	analyticsStore "github.com/MrJamesThe3rd/fintrack/internal/analytics/store"
	"github.com/MrJamesThe3rd/fintrack/internal/auth"
	"github.com/MrJamesThe3rd/fintrack/internal/budget"
	budgetStore "github.com/MrJamesThe3rd/fintrack/internal/budget/store"
	"github.com/MrJamesThe3rd/fintrack/internal/category"
	categoryStore "github.com/MrJamesThe3rd/fintrack/internal/category/store"
	"github.com/MrJamesThe3rd/fintrack/internal/config"
	"github.com/MrJamesThe3rd/fintrack/internal/database"
	"github.com/MrJamesThe3rd/fintrack/internal/export"
	fintrackHttp "github.com/MrJamesThe3rd/fintrack/internal/http"
	analyticsHandler "github.com/MrJamesThe3rd/fintrack/internal/http/analytics"
	authHandler "github.com/MrJamesThe3rd/fintrack/internal/http/auth"
	budgetHandler "github.com/MrJamesThe3rd/fintrack/internal/http/budget"
	categoryHandler "github.com/MrJamesThe3rd/fintrack/internal/http/category"
	exportHandler "github.com/MrJamesThe3rd/fintrack/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/fintrack/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/fintrack/internal/http/matching"
	txHandler "github.com/MrJamesThe3rd/fintrack/internal/http/transaction"
	"github.com/MrJamesThe3rd/fintrack/internal/importer"
	"github.com/MrJamesThe3rd/fintrack/internal/logging"
	"github.com/MrJamesThe3rd/fintrack/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/fintrack/internal/matching/store"
	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
	txStore "github.com/MrJamesThe3rd/fintrack/internal/transaction/store"
	"github.com/MrJamesThe3rd/fintrack/internal/user"
	userStore "github.com/MrJamesThe3rd/fintrack/internal/user/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	slog.SetDefault(logger.With("app", cfg.App.Name))

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		slog.Info("database migrated")
	}

	secret, err := auth.NewSecret(cfg.Auth.Secret)
	if err != nil {
		return fmt.Errorf("token secret: %w", err)
	}

	if cfg.Auth.Secret == "" {
		slog.Warn("AUTH_SECRET not set, generated a random key; tokens will not survive a restart")
	}

	var (
		userService        = user.NewService(userStore.New(db))
		authService        = auth.NewService(userService, auth.NewTokens(secret, cfg.Auth.TokenTTL))
		categoryService    = category.NewService(categoryStore.New(db))
		transactionService = transaction.NewService(txStore.New(db), categoryService)
		budgetService      = budget.NewService(budgetStore.New(db), categoryService)
		analyticsService   = analytics.NewService(analyticsStore.New(db))
		matchingService    = matching.NewService(matchingStore.New(db), categoryService)
		importService      = importer.NewService()
		exportService      = export.NewService(transactionService)
	)

	router := fintrackHttp.New(fintrackHttp.Handlers{
		Auth:         authHandler.NewHandler(authService, userService),
		Transactions: txHandler.NewHandler(transactionService),
		Import:       importHandler.NewHandler(importService, transactionService, matchingService),
		Export:       exportHandler.NewHandler(exportService),
		Categories:   categoryHandler.NewHandler(categoryService),
		Budgets:      budgetHandler.NewHandler(budgetService),
		Analytics:    analyticsHandler.NewHandler(analyticsService),
		Matching:     matchingHandler.NewHandler(matchingService),
	}, fintrackHttp.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Resolver:       authService,
		Health:         database.NewChecker(db),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		slog.Info("shutting down server")

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
