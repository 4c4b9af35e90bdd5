package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"asset-tracker/internal"
	"asset-tracker/internal/config"
	"asset-tracker/internal/db"
	"asset-tracker/internal/logging"
	"asset-tracker/internal/store"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "optional YAML config file")
	pflag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintln(os.Stderr, "asset api:", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.LoadAndValidate(configFile)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := db.NewMigrator(cfg.DBDSN, logger).Up(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	sqlDB, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	pool, err := db.OpenPool(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}

	srv := internal.NewServer(internal.Deps{
		Config: cfg,
		Store:  store.NewAssetStore(sqlDB),
		Pool:   pool,
		Logger: logger,
	})
	defer func() { _ = srv.Close(context.Background()) }()

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("starting asset api",
		zap.String("addr", cfg.ListenAddr),
		zap.Bool("auth_enabled", cfg.AuthEnabled),
		zap.Bool("metrics", cfg.EnableMetrics),
		zap.Bool("swagger", cfg.EnableSwagger),
		zap.Strings("cors_origins", cfg.CORSAllowedOrigins))

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
