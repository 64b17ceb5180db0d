package ledger

import (
	"context"

	"duitbot/internal/core"
)

// Ports for the ledger store. Backends own durability; callers own the
// transaction stamp (id + timestamp) so mirrored rows stay byte-identical
// across stores.
type (
	TransactionWriter interface {
		// AppendTransaction persists a stamped transaction. Fails with
		// core.ErrInvalidInput (or a wrapped validation sentinel) when the
		// row is malformed.
		AppendTransaction(ctx context.Context, tx core.Transaction) error

		// DeleteTransaction removes a row by id. Returns false, not an
		// error, when the id does not exist.
		DeleteTransaction(ctx context.Context, id string) (bool, error)
	}

	TransactionReader interface {
		// ListTransactionsOnDate returns the user's rows for one ledger-local
		// date, oldest first. Empty slice when none.
		ListTransactionsOnDate(ctx context.Context, user string, date core.Date) ([]core.Transaction, error)

		// MonthlyTotal sums the user's amounts for a calendar month.
		MonthlyTotal(ctx context.Context, user string, month core.YearMonth) (int64, error)

		// GetTransaction fetches one row by id.
		GetTransaction(ctx context.Context, id string) (core.Transaction, bool, error)
	}

	BudgetStore interface {
		// UpsertMonthlyBudget creates or replaces the (user, month) row.
		UpsertMonthlyBudget(ctx context.Context, b core.MonthlyBudget) error

		// GetMonthlyBudget returns the budget for (user, month); the second
		// result is false when absent.
		GetMonthlyBudget(ctx context.Context, user string, month core.YearMonth) (core.MonthlyBudget, bool, error)

		// ListBudgetUsers returns every user with a budget row for the month.
		ListBudgetUsers(ctx context.Context, month core.YearMonth) ([]string, error)
	}
)

// Store is the full ledger surface the dispatcher and jobs run against.
type Store interface {
	TransactionWriter
	TransactionReader
	BudgetStore
}
