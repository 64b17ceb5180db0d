// Package report is the aggregate engine: pure functions deriving daily and
// monthly totals, savings and spending-limit status from ledger rows. No I/O.
package report

import (
	"duitbot/internal/core"
)

// LimitStatus classifies a daily total against the budget's daily limit.
type LimitStatus int

const (
	LimitOK LimitStatus = iota
	LimitOver
)

func (s LimitStatus) String() string {
	if s == LimitOver {
		return "OVER_LIMIT"
	}
	return "OK"
}

// DailyTotal sums amounts for rows of user on the given ledger-local date.
// Returns 0 when nothing matches.
func DailyTotal(rows []core.Transaction, user string, date core.Date) int64 {
	var total int64
	for _, tx := range rows {
		if tx.User == user && tx.Date() == date {
			total += tx.Amount
		}
	}
	return total
}

// MonthlyTotal sums amounts for rows of user in the given calendar month.
func MonthlyTotal(rows []core.Transaction, user string, month core.YearMonth) int64 {
	var total int64
	for _, tx := range rows {
		if tx.User == user && tx.Date().YearMonth() == month {
			total += tx.Amount
		}
	}
	return total
}

// Savings is income minus monthly spend. Negative is a valid, reportable
// state, not an error.
func Savings(b core.MonthlyBudget, monthlyTotal int64) int64 {
	return b.Income - monthlyTotal
}

// CheckLimit returns LimitOver iff the daily total strictly exceeds the
// limit; equality is LimitOK.
func CheckLimit(dailyTotal, dailyLimit int64) LimitStatus {
	if dailyTotal > dailyLimit {
		return LimitOver
	}
	return LimitOK
}

// RefundMatch scans same-day rows most-recent-first and returns the first
// one whose amount equals the requested refund. When duplicates exist the
// newest wins, cancelling the entry the user most likely just made. A miss
// returns false, not an error.
func RefundMatch(rows []core.Transaction, amount int64) (core.Transaction, bool) {
	var best core.Transaction
	found := false
	for _, tx := range rows {
		if tx.Amount != amount {
			continue
		}
		// Creation order is total on IDs (millisecond-timestamp derived).
		if !found || tx.ID > best.ID {
			best = tx
			found = true
		}
	}
	return best, found
}
