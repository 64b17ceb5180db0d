package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"duitbot/internal/amqp"
	"duitbot/internal/config"
	"duitbot/internal/core"
	"duitbot/internal/ledger/google"
	applog "duitbot/internal/log"
	"duitbot/internal/storage"
	"duitbot/internal/worker"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentApp)
	applog.SetDefault(logger)

	logger.Info("starting duitbot-worker")

	// The worker has no chat transport and no scheduler; only the store,
	// queue and sheets settings are checked.
	cfg := config.Load()
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := core.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("failed to load timezone", applog.FieldError, err)
		os.Exit(1)
	}

	// The worker reads the local ledger directly; it never publishes.
	repo, err := storage.NewRepository(cfg.SQLiteDBPath, loc, nil)
	if err != nil {
		logger.Error("failed to initialize SQLite repository",
			applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheet, err := google.New(ctx, google.Config{
		SpreadsheetID:     cfg.GoogleSpreadsheetID,
		TransactionsSheet: cfg.GoogleTransactionsSheet,
		BudgetsSheet:      cfg.GoogleBudgetsSheet,
		CredentialsJSON:   cfg.GoogleServiceAccountJSON,
		CredentialsFile:   cfg.GoogleServiceAccountFile,
	}, loc)
	if err != nil {
		logger.Error("failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID)

	mirror := worker.NewMirrorWorker(repo, sheet, logger, cfg.MirrorBatchSize)

	// Drain anything the queue missed while the worker was down.
	if err := mirror.StartupCheck(ctx); err != nil {
		logger.Error("startup mirror check failed", applog.FieldError, err)
	}

	// Periodic catch-up for lost AMQP messages.
	go func() {
		ticker := time.NewTicker(cfg.MirrorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := mirror.ProcessPending(ctx); err != nil {
					logger.Error("periodic mirror pass failed", applog.FieldError, err)
				}
			}
		}
	}()

	logger.Info("consuming mirror events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	err = amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, mirror.HandleEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("event consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("duitbot-worker stopped gracefully")
}
