package scheduler

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"duitbot/internal/core"
	"duitbot/internal/ledger/memory"
	applog "duitbot/internal/log"
)

type recordingSender struct {
	mu   sync.Mutex
	sent map[string][]string
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: map[string][]string{}}
}

func (s *recordingSender) SendText(_ context.Context, recipient, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[recipient] = append(s.sent[recipient], text)
	return nil
}

func (s *recordingSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for r := range s.sent {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func (s *recordingSender) messagesFor(recipient string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[recipient]
}

var jobNow = time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC)

func seedBudget(t *testing.T, store *memory.Store, user string) {
	t.Helper()
	b, err := core.NewMonthlyBudget(user, core.MonthOf(jobNow), 5_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("new budget: %v", err)
	}
	if err := store.UpsertMonthlyBudget(context.Background(), b); err != nil {
		t.Fatalf("upsert budget: %v", err)
	}
}

func seedExpense(t *testing.T, store *memory.Store, user string, at time.Time, amount int64) {
	t.Helper()
	tx, err := core.NewTransaction(user, "makan", amount, "-", at)
	if err != nil {
		t.Fatalf("new transaction: %v", err)
	}
	if err := store.AppendTransaction(context.Background(), tx); err != nil {
		t.Fatalf("append transaction: %v", err)
	}
}

func TestReminderJob_OnlyNudgesIdleUsers(t *testing.T) {
	store := memory.New()
	seedBudget(t, store, "idle@s.whatsapp.net")
	seedBudget(t, store, "active@s.whatsapp.net")
	seedExpense(t, store, "active@s.whatsapp.net", jobNow.Add(-2*time.Hour), 15000)

	sender := newRecordingSender()
	job := NewReminderJob(store, sender, applog.New(applog.DefaultConfig()))

	if err := job.Run(context.Background(), jobNow); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	got := sender.recipients()
	if len(got) != 1 || got[0] != "idle@s.whatsapp.net" {
		t.Fatalf("recipients = %v, want only the idle user", got)
	}
	msg := sender.messagesFor("idle@s.whatsapp.net")[0]
	if !strings.Contains(msg, "belum mencatat pengeluaran") {
		t.Errorf("reminder text = %q, want the nudge wording", msg)
	}
	if !strings.Contains(msg, "15/01/2026") {
		t.Errorf("reminder text = %q, want today's date", msg)
	}
}

func TestReminderJob_BroadcastSkipsAlreadyNotified(t *testing.T) {
	store := memory.New()
	seedBudget(t, store, "a@s.whatsapp.net")
	seedBudget(t, store, "b@s.whatsapp.net")

	sender := newRecordingSender()
	job := NewReminderJob(store, sender, applog.New(applog.DefaultConfig()))

	notified := map[string]bool{"a@s.whatsapp.net": true}
	if err := job.Broadcast(context.Background(), jobNow, notified); err != nil {
		t.Fatalf("Broadcast() error: %v", err)
	}

	got := sender.recipients()
	if len(got) != 1 || got[0] != "b@s.whatsapp.net" {
		t.Fatalf("recipients = %v, want only the un-notified user", got)
	}
	if !notified["b@s.whatsapp.net"] {
		t.Error("notified set was not updated for the sent user")
	}
}

func TestReminderJob_NoBudgetUsersNoSends(t *testing.T) {
	sender := newRecordingSender()
	job := NewReminderJob(memory.New(), sender, applog.New(applog.DefaultConfig()))

	if err := job.Run(context.Background(), jobNow); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(sender.recipients()) != 0 {
		t.Errorf("recipients = %v, want none", sender.recipients())
	}
}

func TestSummaryJob_SendsRecapWithTotals(t *testing.T) {
	store := memory.New()
	seedBudget(t, store, "u@s.whatsapp.net")
	seedExpense(t, store, "u@s.whatsapp.net", jobNow.Add(-3*time.Hour), 50_000)
	seedExpense(t, store, "u@s.whatsapp.net", jobNow.Add(-1*time.Hour), 25_000)
	// Yesterday's spending must not leak into today's recap.
	seedExpense(t, store, "u@s.whatsapp.net", jobNow.AddDate(0, 0, -1), 999_000)

	sender := newRecordingSender()
	job := NewSummaryJob(store, sender, "u@s.whatsapp.net", applog.New(applog.DefaultConfig()))

	if err := job.Run(context.Background(), jobNow); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	msgs := sender.messagesFor("u@s.whatsapp.net")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0], "Total hari ini: Rp75.000") {
		t.Errorf("summary = %q, want today's total Rp75.000", msgs[0])
	}
	if !strings.Contains(msgs[0], "Rekap 15/01/2026") {
		t.Errorf("summary = %q, want today's date in header", msgs[0])
	}
}

func TestSummaryJob_SendsEvenWithNoSpending(t *testing.T) {
	store := memory.New()
	seedBudget(t, store, "u@s.whatsapp.net")

	sender := newRecordingSender()
	job := NewSummaryJob(store, sender, "u@s.whatsapp.net", applog.New(applog.DefaultConfig()))

	if err := job.Run(context.Background(), jobNow); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	msgs := sender.messagesFor("u@s.whatsapp.net")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0], "Total hari ini: Rp0") {
		t.Errorf("summary = %q, want zero total", msgs[0])
	}
}

func TestSummaryJob_SkipsWhenNoBudget(t *testing.T) {
	sender := newRecordingSender()
	job := NewSummaryJob(memory.New(), sender, "u@s.whatsapp.net", applog.New(applog.DefaultConfig()))

	if err := job.Run(context.Background(), jobNow); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(sender.recipients()) != 0 {
		t.Errorf("recipients = %v, want none without a budget", sender.recipients())
	}
}
