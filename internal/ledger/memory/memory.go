// Package memory is an in-process ledger store used by tests and as the
// default backend when nothing durable is configured.
package memory

import (
	"context"
	"sync"

	"duitbot/internal/core"
	"duitbot/internal/ledger"
)

type Store struct {
	mu      sync.Mutex
	txs     []core.Transaction
	budgets map[string]core.MonthlyBudget // key: user|YYYY-MM
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{budgets: map[string]core.MonthlyBudget{}}
}

func (s *Store) AppendTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, tx)
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.txs {
		if tx.ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListTransactionsOnDate(_ context.Context, user string, date core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.txs {
		if tx.User == user && tx.Date() == date {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) MonthlyTotal(_ context.Context, user string, month core.YearMonth) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, tx := range s.txs {
		if tx.User == user && tx.Date().YearMonth() == month {
			total += tx.Amount
		}
	}
	return total, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.ID == id {
			return tx, true, nil
		}
	}
	return core.Transaction{}, false, nil
}

func (s *Store) UpsertMonthlyBudget(_ context.Context, b core.MonthlyBudget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.User+"|"+b.Month.String()] = b
	return nil
}

func (s *Store) GetMonthlyBudget(_ context.Context, user string, month core.YearMonth) (core.MonthlyBudget, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[user+"|"+month.String()]
	return b, ok, nil
}

func (s *Store) ListBudgetUsers(_ context.Context, month core.YearMonth) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	suffix := "|" + month.String()
	var users []string
	for key, b := range s.budgets {
		if key == b.User+suffix {
			users = append(users, b.User)
		}
	}
	return users, nil
}
