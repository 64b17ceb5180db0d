package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultDescription is stored when a transaction has no description.
const DefaultDescription = "-"

// DefaultTimezone is the ledger wall-clock zone used when none is configured.
const DefaultTimezone = "Asia/Jakarta"

type (
	// Transaction is one recorded expense event. ID is globally unique and
	// monotonically increasing with creation time; it is the sole identity
	// used for deletion and refund matching.
	Transaction struct {
		ID          string
		Timestamp   time.Time
		User        string
		Category    string
		Amount      int64 // whole currency units, never zero
		Description string
	}

	// MonthlyBudget holds the income and savings target of one user for one
	// calendar month. DailyLimit is derived from the other two fields and is
	// recomputed on every update, never patched incrementally.
	MonthlyBudget struct {
		User       string
		Month      YearMonth
		Income     int64
		Target     int64
		DailyLimit int64
	}
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrNoBudgetSet      = errors.New("no budget set for current month")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("ledger store unavailable")
)

// NewTransaction stamps and validates a transaction created at now, which
// must already be in the ledger time zone.
func NewTransaction(user, category string, amount int64, description string, now time.Time) (Transaction, error) {
	tx := Transaction{
		ID:          NewTransactionID(now),
		Timestamp:   now.Truncate(time.Second),
		User:        strings.TrimSpace(user),
		Category:    strings.TrimSpace(category),
		Amount:      amount,
		Description: strings.TrimSpace(description),
	}
	if tx.Description == "" {
		tx.Description = DefaultDescription
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func (t Transaction) Validate() error {
	if t.User == "" {
		return fmt.Errorf("%w: empty user", ErrInvalidInput)
	}
	if t.Category == "" {
		return ErrEmptyCategory
	}
	if t.Amount == 0 {
		return ErrInvalidAmount
	}
	if t.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidInput)
	}
	return nil
}

// Date returns the transaction's ledger-local calendar date.
func (t Transaction) Date() Date {
	return DateOf(t.Timestamp)
}

// NewTransactionID derives an identifier from a millisecond timestamp.
// IDs created later compare greater, which the refund matcher relies on.
func NewTransactionID(now time.Time) string {
	return now.Format("20060102150405") + fmt.Sprintf("%03d", now.Nanosecond()/int(time.Millisecond))
}

// NewMonthlyBudget builds a budget row with its derived daily limit.
func NewMonthlyBudget(user string, month YearMonth, income, target int64) (MonthlyBudget, error) {
	if strings.TrimSpace(user) == "" {
		return MonthlyBudget{}, fmt.Errorf("%w: empty user", ErrInvalidInput)
	}
	if income < 0 || target < 0 {
		return MonthlyBudget{}, ErrInvalidAmount
	}
	return MonthlyBudget{
		User:       strings.TrimSpace(user),
		Month:      month,
		Income:     income,
		Target:     target,
		DailyLimit: DailyLimit(income, target, month),
	}, nil
}

// DailyLimit is floor((income - target) / days in month).
func DailyLimit(income, target int64, month YearMonth) int64 {
	days := int64(month.Days())
	diff := income - target
	q := diff / days
	if diff%days != 0 && diff < 0 {
		q--
	}
	return q
}
