package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"duitbot/internal/backend"
	"duitbot/internal/bot"
	"duitbot/internal/config"
	"duitbot/internal/core"
	applog "duitbot/internal/log"
	"duitbot/internal/scheduler"
	"duitbot/internal/telegram"
	"duitbot/internal/whatsapp"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentApp)
	applog.SetDefault(logger)

	logger.Info("starting duitbot")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil &&
		!errors.Is(err, context.Canceled) {
		logger.Error("duitbot stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("duitbot stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := core.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateStore(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("backend cleanup failed", applog.FieldError, err)
			}
		}()
	}

	var (
		sender     bot.Sender
		runFn      func(ctx context.Context) error
		shutdownFn func() error
	)

	switch cfg.Transport {
	case "telegram":
		var dispatcher *bot.Dispatcher
		transport, err := telegram.NewTransport(cfg.TelegramBotToken, handlerFunc(func(ctx context.Context, from, text string) {
			dispatcher.HandleMessage(ctx, from, text)
		}), logger)
		if err != nil {
			return err
		}
		dispatcher = bot.NewDispatcher(result.Store, transport, logger, loc, bot.Options{
			Owner:        cfg.OwnerID,
			StoreTimeout: cfg.StoreTimeout,
		})
		sender = transport
		runFn = transport.Run

	case "whatsapp":
		twilio := whatsapp.NewSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
		dispatcher := bot.NewDispatcher(result.Store, twilio, logger, loc, bot.Options{
			Owner:        cfg.OwnerID,
			StoreTimeout: cfg.StoreTimeout,
		})
		webhook := whatsapp.NewWebhook(dispatcher, logger)
		sender = twilio
		runFn = func(ctx context.Context) error {
			return webhook.Listen(":" + cfg.WebhookPort)
		}
		shutdownFn = webhook.Shutdown

	default:
		return fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runFn(ctx)
	})
	if shutdownFn != nil {
		g.Go(func() error {
			<-ctx.Done()
			if err := shutdownFn(); err != nil {
				logger.Error("transport shutdown failed", applog.FieldError, err)
			}
			return ctx.Err()
		})
	}

	if cfg.ReminderEnabled {
		job := scheduler.NewReminderJob(result.Store, sender, logger)
		s := scheduler.New(job, cfg.ReminderHour, loc, logger)
		g.Go(func() error { return s.Run(ctx) })
		logger.Info("daily reminder enabled", "hour", cfg.ReminderHour)
	}
	if cfg.SummaryEnabled {
		recipient := cfg.SummaryRecipient
		if recipient == "" {
			recipient = cfg.OwnerID
		}
		job := scheduler.NewSummaryJob(result.Store, sender, recipient, logger)
		s := scheduler.New(job, cfg.SummaryHour, loc, logger)
		g.Go(func() error { return s.Run(ctx) })
		logger.Info("daily summary enabled", "hour", cfg.SummaryHour)
	}

	logger.Info("duitbot running",
		"transport", cfg.Transport,
		applog.FieldBackend, cfg.DataBackend,
		"timezone", cfg.Timezone)

	return g.Wait()
}

// handlerFunc adapts a closure to the telegram transport's Handler.
type handlerFunc func(ctx context.Context, sender, text string)

func (f handlerFunc) HandleMessage(ctx context.Context, sender, text string) {
	f(ctx, sender, text)
}
