package scheduler

import (
	"context"
	"fmt"
	"time"

	"duitbot/internal/bot"
	"duitbot/internal/core"
	"duitbot/internal/ledger"
	applog "duitbot/internal/log"
	"duitbot/internal/report"
)

// jobStore is what the daily jobs need from the ledger.
type jobStore interface {
	ledger.TransactionReader
	ledger.BudgetStore
}

// ReminderJob nudges every user with a budget this month who has not
// logged a single expense today.
type ReminderJob struct {
	store  jobStore
	sender bot.Sender
	logger *applog.Logger
}

func NewReminderJob(store ledger.Store, sender bot.Sender, logger *applog.Logger) *ReminderJob {
	return &ReminderJob{
		store:  store,
		sender: sender,
		logger: logger.WithComponent(applog.ComponentScheduler),
	}
}

func (j *ReminderJob) Name() string { return "daily_reminder" }

func (j *ReminderJob) Run(ctx context.Context, now time.Time) error {
	return j.Broadcast(ctx, now, make(map[string]bool))
}

// Broadcast sends the nudge to every idle budget user not yet in
// notified, recording each send in the set. The set lives for one run
// only; the caller owns it.
func (j *ReminderJob) Broadcast(ctx context.Context, now time.Time, notified map[string]bool) error {
	today := core.DateOf(now)
	users, err := j.store.ListBudgetUsers(ctx, today.YearMonth())
	if err != nil {
		return fmt.Errorf("list budget users: %w", err)
	}

	for _, user := range users {
		if notified[user] {
			continue
		}
		rows, err := j.store.ListTransactionsOnDate(ctx, user, today)
		if err != nil {
			j.logger.Error("failed to check today's transactions",
				applog.FieldUser, user,
				applog.FieldError, err)
			continue
		}
		if len(rows) > 0 {
			continue
		}
		if err := j.sender.SendText(ctx, user, bot.ReminderText(today)); err != nil {
			j.logger.Error("failed to send reminder",
				applog.FieldUser, user,
				applog.FieldError, err)
			continue
		}
		notified[user] = true
		j.logger.Info("sent daily reminder", applog.FieldUser, user)
	}
	return nil
}

// SummaryJob sends the evening recap to one configured recipient:
// today's total, the daily limit, and what is left of it.
type SummaryJob struct {
	store     jobStore
	sender    bot.Sender
	recipient string
	logger    *applog.Logger
}

func NewSummaryJob(store ledger.Store, sender bot.Sender, recipient string, logger *applog.Logger) *SummaryJob {
	return &SummaryJob{
		store:     store,
		sender:    sender,
		recipient: recipient,
		logger:    logger.WithComponent(applog.ComponentScheduler),
	}
}

func (j *SummaryJob) Name() string { return "daily_summary" }

func (j *SummaryJob) Run(ctx context.Context, now time.Time) error {
	today := core.DateOf(now)
	month := today.YearMonth()

	budget, found, err := j.store.GetMonthlyBudget(ctx, j.recipient, month)
	if err != nil {
		return fmt.Errorf("load budget for %s: %w", j.recipient, err)
	}
	if !found {
		// No budget this month means no limit to recap against.
		j.logger.Info("skipping summary, no budget this month",
			applog.FieldUser, j.recipient)
		return nil
	}

	rows, err := j.store.ListTransactionsOnDate(ctx, j.recipient, today)
	if err != nil {
		return fmt.Errorf("list today's transactions: %w", err)
	}
	total := report.DailyTotal(rows, j.recipient, today)

	if err := j.sender.SendText(ctx, j.recipient, bot.SummaryText(today, total, budget)); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}
	j.logger.Info("sent daily summary",
		applog.FieldUser, j.recipient,
		applog.FieldAmount, total)
	return nil
}
