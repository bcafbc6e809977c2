package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/logger"
	"finance-tracker/internal/metrics"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"
	"finance-tracker/internal/tracker"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	config.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Load(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logOut io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logger.SetupDefault(logOut, logger.ParseLevel(cfg.LogLevel))

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if keys, err := db.Keys(ctx); err == nil {
		log.Debug("store opened", slog.String("path", cfg.DBPath), slog.Int("keys", len(keys)))
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	app := tracker.New(db, tracker.Options{
		Verifier:   auth.NewBcrypt(cfg.BcryptCost),
		UndoWindow: cfg.UndoWindow,
		Observer:   collector,
	})

	if err := seedAdmin(ctx, app, cfg); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(app, db, reg, collector, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("addr", srv.Addr), slog.String("db", cfg.DBPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupRouter(app *tracker.App, db *storage.DB, reg *prometheus.Registry, collector *metrics.Collector, cfg *config.Config, log *slog.Logger) http.Handler {
	return handlers.NewRouter(handlers.NewHandlers(app), handlers.RouterConfig{
		Logger:            log,
		Gatherer:          reg,
		StatusRecorder:    collector,
		Pinger:            db,
		AuthRatePerMinute: cfg.LoginRatePerMinute,
	})
}

// seedAdmin registers ADMIN_EMAIL on an empty directory so a fresh install
// has an account to log in with.
func seedAdmin(ctx context.Context, app *tracker.App, cfg *config.Config) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	count, err := app.Directory().Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err = app.Register(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil && !errors.Is(err, models.ErrDuplicateEmail) {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	slog.Info("admin user created", slog.String("email", cfg.AdminEmail))
	return nil
}
