package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/obraflow/ledger-backend/internal/api"
	"github.com/obraflow/ledger-backend/internal/application/service"
	"github.com/obraflow/ledger-backend/internal/infrastructure/config"
	"github.com/obraflow/ledger-backend/internal/infrastructure/logging"
	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

func main() {
	configPath := os.Getenv("LEDGER_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg := config.LoadOrEnv(configPath)

	logger := logging.NewLogger(cfg.Logging)

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ledger := service.NewLedger(store, logging.NewLoggerWithSystem(cfg.Logging, "ledger"))
	reconciler := service.NewReconciler(store, ledger, logging.NewLoggerWithSystem(cfg.Logging, "reconciler"))
	services := api.Services{
		Ledger:       ledger,
		Reconciler:   reconciler,
		Importer:     service.NewImporter(store, reconciler, ledger, cfg.Import, logging.NewLoggerWithSystem(cfg.Logging, "importer")),
		Deleter:      service.NewDeleter(store, ledger, logging.NewLoggerWithSystem(cfg.Logging, "deleter")),
		Transactions: service.NewTransactions(store, ledger, logging.NewLoggerWithSystem(cfg.Logging, "transactions")),
		Receivables:  service.NewReceivables(store, ledger, logging.NewLoggerWithSystem(cfg.Logging, "receivables")),
	}

	server := api.NewServer(api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, store, services, logger)

	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		done <- true
	}()

	if err := server.Start(); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}
