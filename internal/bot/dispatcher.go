// Package bot maps inbound chat text to ledger operations. Two text
// dialects feed one command model; the dispatcher executes each message
// independently and always produces exactly one reply.
package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"duitbot/internal/cache"
	"duitbot/internal/core"
	"duitbot/internal/ledger"
	applog "duitbot/internal/log"
	"duitbot/internal/report"
)

// Sender delivers one outbound text. Fire-and-forget from the dispatcher's
// perspective; failures are logged, not retried.
type Sender interface {
	SendText(ctx context.Context, recipient, text string) error
}

type (
	// Dispatcher executes parsed commands against the ledger store.
	// Messages for the same user are serialized; the store exposes no
	// compare-and-swap, so two concurrent refunds must not race on the
	// same row.
	Dispatcher struct {
		store   ledger.Store
		sender  Sender
		logger  *applog.Logger
		loc     *time.Location
		now     func() time.Time
		timeout time.Duration
		owner   string

		budgets *cache.LRUCache[core.MonthlyBudget]

		mu    sync.Mutex
		locks map[string]*userLock
	}

	// userLock serializes one user's in-flight commands. waiters counts
	// holders and queued lockers so the entry can be dropped once the last
	// one releases; without that the map grows by one entry per sender
	// ever seen.
	userLock struct {
		mu      sync.Mutex
		waiters int
	}

	// Options tune dispatcher behavior; zero values get sensible defaults.
	Options struct {
		// Owner restricts command acceptance to a single sender when set.
		Owner string
		// StoreTimeout bounds every ledger call; an expired call yields a
		// user-visible "try again" reply instead of an indefinite stall.
		StoreTimeout time.Duration
		// Now overrides the clock, for tests.
		Now func() time.Time
	}
)

const (
	defaultStoreTimeout = 15 * time.Second
	budgetCacheSize     = 512
	budgetCacheTTL      = 5 * time.Minute
)

func NewDispatcher(store ledger.Store, sender Sender, logger *applog.Logger, loc *time.Location, opts Options) *Dispatcher {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	timeout := opts.StoreTimeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &Dispatcher{
		store:   store,
		sender:  sender,
		logger:  logger.WithComponent("dispatcher"),
		loc:     loc,
		now:     func() time.Time { return now().In(loc) },
		timeout: timeout,
		owner:   opts.Owner,
		budgets: cache.NewLRUCache[core.MonthlyBudget](budgetCacheSize, budgetCacheTTL),
		locks:   map[string]*userLock{},
	}
}

// HandleMessage parses, executes and replies to one inbound message. Every
// path sends exactly one reply; store failures become a generic retry text
// and never cross this boundary.
func (d *Dispatcher) HandleMessage(ctx context.Context, sender, text string) {
	if d.owner != "" && sender != d.owner {
		d.logger.Debug("ignoring non-owner message", "sender", sender)
		return
	}

	reply := d.dispatch(ctx, sender, text)
	if reply == "" {
		return
	}
	if err := d.sender.SendText(ctx, sender, reply); err != nil {
		// Store mutations commit independently of notification delivery.
		d.logger.Error("send reply failed", "recipient", sender, "error", err)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, user, text string) string {
	cmd, err := Parse(text)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) && perr.Reason == ReasonUnrecognized {
			return replyUnrecognized
		}
		return replyMalformed
	}

	if cmd.Kind == KindHelp {
		return helpText
	}

	unlock := d.lockUser(user)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	reply, err := d.execute(ctx, user, cmd)
	if err != nil {
		d.logger.Error("command failed", "user", user, "kind", int(cmd.Kind), "error", err)
		return replyStoreFailure
	}
	return reply
}

func (d *Dispatcher) execute(ctx context.Context, user string, cmd Command) (string, error) {
	switch cmd.Kind {
	case KindAddExpense:
		return d.addExpense(ctx, user, cmd)
	case KindRefund:
		return d.refund(ctx, user, cmd.Amount)
	case KindSetIncome:
		return d.setIncome(ctx, user, cmd.Income, cmd.Target)
	case KindDailyReport:
		return d.dailyReport(ctx, user, cmd.Date)
	case KindMonthlyReport:
		return d.monthlyReport(ctx, user)
	case KindSpendAnalysis:
		return d.spendAnalysis(ctx, user)
	case KindDeleteByDate:
		return d.deleteByDate(ctx, user, cmd.Date)
	default:
		return helpText, nil
	}
}

func (d *Dispatcher) addExpense(ctx context.Context, user string, cmd Command) (string, error) {
	now := d.now()
	if _, ok, err := d.budget(ctx, user, core.MonthOf(now)); err != nil {
		return "", err
	} else if !ok {
		return replyNoBudget, nil
	}

	tx, err := core.NewTransaction(user, cmd.Category, cmd.Amount, cmd.Description, now)
	if err != nil {
		return replyMalformed, nil
	}
	if err := d.store.AppendTransaction(ctx, tx); err != nil {
		return "", err
	}
	d.logger.Info("expense recorded", "user", user, "category", tx.Category, "amount", tx.Amount)
	return replyExpenseRecorded(tx), nil
}

func (d *Dispatcher) refund(ctx context.Context, user string, amount int64) (string, error) {
	today := core.DateOf(d.now())
	rows, err := d.store.ListTransactionsOnDate(ctx, user, today)
	if err != nil {
		return "", err
	}
	match, ok := report.RefundMatch(rows, amount)
	if !ok {
		return replyRefundNotFound(amount), nil
	}
	deleted, err := d.store.DeleteTransaction(ctx, match.ID)
	if err != nil {
		return "", err
	}
	if !deleted {
		return replyRefundNotFound(amount), nil
	}
	d.logger.Info("refund applied", "user", user, "id", match.ID, "amount", amount)
	return replyRefundDone(match), nil
}

func (d *Dispatcher) setIncome(ctx context.Context, user string, income, target int64) (string, error) {
	month := core.MonthOf(d.now())
	b, err := core.NewMonthlyBudget(user, month, income, target)
	if err != nil {
		return replyMalformed, nil
	}
	if err := d.store.UpsertMonthlyBudget(ctx, b); err != nil {
		return "", err
	}
	d.budgets.Set(budgetKey(user, month), b)
	d.logger.Info("budget upserted", "user", user, "month", month.String(), "daily_limit", b.DailyLimit)
	return replyIncomeSet(b), nil
}

func (d *Dispatcher) dailyReport(ctx context.Context, user string, ref DateRef) (string, error) {
	date := ref.Resolve(core.DateOf(d.now()))
	rows, err := d.store.ListTransactionsOnDate(ctx, user, date)
	if err != nil {
		return "", err
	}
	return replyDailyReport(date, rows), nil
}

func (d *Dispatcher) monthlyReport(ctx context.Context, user string) (string, error) {
	month := core.MonthOf(d.now())
	b, ok, err := d.budget(ctx, user, month)
	if err != nil {
		return "", err
	}
	if !ok {
		return replyNoBudget, nil
	}
	spent, err := d.store.MonthlyTotal(ctx, user, month)
	if err != nil {
		return "", err
	}
	return replyMonthlyReport(b, spent), nil
}

func (d *Dispatcher) spendAnalysis(ctx context.Context, user string) (string, error) {
	now := d.now()
	b, ok, err := d.budget(ctx, user, core.MonthOf(now))
	if err != nil {
		return "", err
	}
	if !ok {
		return replyNoBudget, nil
	}
	rows, err := d.store.ListTransactionsOnDate(ctx, user, core.DateOf(now))
	if err != nil {
		return "", err
	}
	today := report.DailyTotal(rows, user, core.DateOf(now))
	return replySpendAnalysis(today, b), nil
}

func (d *Dispatcher) deleteByDate(ctx context.Context, user string, ref DateRef) (string, error) {
	date := ref.Resolve(core.DateOf(d.now()))
	rows, err := d.store.ListTransactionsOnDate(ctx, user, date)
	if err != nil {
		return "", err
	}
	deleted := 0
	for _, tx := range rows {
		ok, err := d.store.DeleteTransaction(ctx, tx.ID)
		if err != nil {
			return "", err
		}
		if ok {
			deleted++
		}
	}
	if deleted > 0 {
		d.logger.Info("transactions deleted by date", "user", user, "date", date.String(), "count", deleted)
	}
	return replyDeletedByDate(date, deleted), nil
}

// budget reads the (user, month) row through a small positive-hit cache.
// Absence is never cached: the no-budget gate must see a SetIncome done
// from another device immediately.
func (d *Dispatcher) budget(ctx context.Context, user string, month core.YearMonth) (core.MonthlyBudget, bool, error) {
	key := budgetKey(user, month)
	if b, ok := d.budgets.Get(key); ok {
		return b, true, nil
	}
	b, ok, err := d.store.GetMonthlyBudget(ctx, user, month)
	if err != nil || !ok {
		return core.MonthlyBudget{}, ok, err
	}
	d.budgets.Set(key, b)
	return b, true, nil
}

func budgetKey(user string, month core.YearMonth) string {
	return user + "|" + month.String()
}

func (d *Dispatcher) lockUser(user string) func() {
	d.mu.Lock()
	l, ok := d.locks[user]
	if !ok {
		l = &userLock{}
		d.locks[user] = l
	}
	l.waiters++
	d.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.mu.Lock()
		l.waiters--
		if l.waiters == 0 {
			delete(d.locks, user)
		}
		d.mu.Unlock()
	}
}
