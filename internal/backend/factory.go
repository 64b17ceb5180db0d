package backend

import (
	"context"
	"fmt"

	"duitbot/internal/amqp"
	"duitbot/internal/core"
	"duitbot/internal/ledger/google"
	"duitbot/internal/ledger/memory"
	applog "duitbot/internal/log"
	"duitbot/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

func (f *DefaultFactory) CreateStore(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLiteBackend:
		return f.createSQLiteStore(cfg)
	case SheetsBackend:
		return f.createSheetsStore(ctx, cfg)
	case MemoryBackend:
		return f.createMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func (f *DefaultFactory) createSQLiteStore(cfg Config) (*Result, error) {
	loc, err := core.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	// AMQP mirroring is best-effort: the local ledger stays authoritative
	// even when the broker is down.
	var mirror storage.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("failed to initialize AMQP client, continuing without sheet mirroring",
				applog.FieldError, err)
		} else {
			mirror = amqpClient
			f.logger.Info("initialized AMQP mirroring",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath, loc, mirror)
	if err != nil {
		if amqpClient != nil {
			amqpClient.Close()
		}
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	f.logger.Info("initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	cleanup := func() error {
		if amqpClient != nil {
			amqpClient.Close()
		}
		return repo.Close()
	}
	return &Result{Store: repo, Cleanup: cleanup}, nil
}

func (f *DefaultFactory) createSheetsStore(ctx context.Context, cfg Config) (*Result, error) {
	loc, err := core.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:     cfg.GoogleSpreadsheetID,
		TransactionsSheet: cfg.GoogleTransactionsSheet,
		BudgetsSheet:      cfg.GoogleBudgetsSheet,
		CredentialsJSON:   cfg.GoogleServiceAccountJSON,
		CredentialsFile:   cfg.GoogleServiceAccountFile,
	}, loc)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}

	f.logger.Info("initialized Google Sheets backend",
		"spreadsheet_id", cfg.GoogleSpreadsheetID)

	return &Result{Store: cli, Cleanup: nil}, nil
}

func (f *DefaultFactory) createMemoryStore() (*Result, error) {
	f.logger.Info("initialized in-memory backend")
	return &Result{Store: memory.New(), Cleanup: nil}, nil
}
