package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"duitbot/internal/core"
)

const timestampLayout = "2006-01-02 15:04:05"

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.TrimSpace(fmt.Sprint(cell))
	}
	return out
}

// parseTransactionRow reads one ledger row. Header rows and rows with a
// non-numeric amount are reported as not-a-transaction rather than errors.
func parseTransactionRow(cells []string, loc *time.Location) (core.Transaction, bool) {
	if len(cells) < 5 {
		return core.Transaction{}, false
	}
	id := cells[0]
	if id == "" || !isDigits(id) {
		return core.Transaction{}, false
	}
	ts, err := time.ParseInLocation(timestampLayout, cells[1], loc)
	if err != nil {
		return core.Transaction{}, false
	}
	amount, err := parseAmountCell(cells[4])
	if err != nil {
		return core.Transaction{}, false
	}
	description := core.DefaultDescription
	if len(cells) > 5 && cells[5] != "" {
		description = cells[5]
	}
	return core.Transaction{
		ID:          id,
		Timestamp:   ts,
		User:        cells[2],
		Category:    cells[3],
		Amount:      amount,
		Description: description,
	}, true
}

func parseBudgetRow(cells []string) (core.MonthlyBudget, bool) {
	if len(cells) < 5 || cells[0] == "" {
		return core.MonthlyBudget{}, false
	}
	month, err := core.ParseYearMonth(cells[1])
	if err != nil {
		return core.MonthlyBudget{}, false
	}
	income, err := parseAmountCell(cells[2])
	if err != nil {
		return core.MonthlyBudget{}, false
	}
	target, err := parseAmountCell(cells[3])
	if err != nil {
		return core.MonthlyBudget{}, false
	}
	limit, err := parseAmountCell(cells[4])
	if err != nil {
		return core.MonthlyBudget{}, false
	}
	return core.MonthlyBudget{
		User:       cells[0],
		Month:      month,
		Income:     income,
		Target:     target,
		DailyLimit: limit,
	}, true
}

// parseAmountCell accepts plain integers plus the float renderings Sheets
// produces for numeric cells ("15000", "15000.0").
func parseAmountCell(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return int64(f), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
