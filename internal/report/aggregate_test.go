package report

import (
	"testing"
	"time"

	"duitbot/internal/core"
)

func tx(t *testing.T, user string, at time.Time, category string, amount int64) core.Transaction {
	t.Helper()
	out, err := core.NewTransaction(user, category, amount, "", at)
	if err != nil {
		t.Fatalf("build transaction: %v", err)
	}
	return out
}

func TestDailyTotal(t *testing.T) {
	day := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	rows := []core.Transaction{
		tx(t, "a", day, "ngopi", 15000),
		tx(t, "a", day.Add(2*time.Hour), "makan", 25000),
		tx(t, "a", day.AddDate(0, 0, -1), "ngopi", 99000), // yesterday
		tx(t, "b", day, "ngopi", 7000),                    // other user
	}

	if got := DailyTotal(rows, "a", core.DateOf(day)); got != 40000 {
		t.Errorf("DailyTotal = %d, want 40000", got)
	}
	if got := DailyTotal(rows, "c", core.DateOf(day)); got != 0 {
		t.Errorf("DailyTotal for unknown user = %d, want 0", got)
	}
	if got := DailyTotal(nil, "a", core.DateOf(day)); got != 0 {
		t.Errorf("DailyTotal on empty rows = %d, want 0", got)
	}
}

func TestMonthlyTotal(t *testing.T) {
	aug := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	rows := []core.Transaction{
		tx(t, "a", aug, "ngopi", 15000),
		tx(t, "a", aug.AddDate(0, 0, 15), "makan", 25000),
		tx(t, "a", aug.AddDate(0, 1, 0), "ngopi", 50000), // september
		tx(t, "b", aug, "ngopi", 9000),
	}

	if got := MonthlyTotal(rows, "a", core.YearMonth{Year: 2026, Month: time.August}); got != 40000 {
		t.Errorf("MonthlyTotal = %d, want 40000", got)
	}
	if got := MonthlyTotal(rows, "a", core.YearMonth{Year: 2026, Month: time.September}); got != 50000 {
		t.Errorf("MonthlyTotal september = %d, want 50000", got)
	}
}

func TestSavingsMayBeNegative(t *testing.T) {
	b := core.MonthlyBudget{Income: 5_000_000}
	if got := Savings(b, 1_200_000); got != 3_800_000 {
		t.Errorf("Savings = %d, want 3800000", got)
	}
	if got := Savings(b, 5_600_000); got != -600_000 {
		t.Errorf("Savings = %d, want -600000", got)
	}
}

func TestCheckLimit(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		limit int64
		want  LimitStatus
	}{
		{"under", 100_000, 133_333, LimitOK},
		{"equal is ok", 133_333, 133_333, LimitOK},
		{"strictly over", 133_334, 133_333, LimitOver},
		{"zero spend", 0, 133_333, LimitOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckLimit(tt.total, tt.limit); got != tt.want {
				t.Errorf("CheckLimit(%d, %d) = %v, want %v", tt.total, tt.limit, got, tt.want)
			}
		})
	}
}

func TestRefundMatchPicksMostRecent(t *testing.T) {
	day := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	first := tx(t, "a", day, "ngopi", 15000)
	second := tx(t, "a", day.Add(3*time.Hour), "ngopi lagi", 15000)
	other := tx(t, "a", day.Add(time.Hour), "makan", 25000)

	got, ok := RefundMatch([]core.Transaction{first, other, second}, 15000)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != second.ID {
		t.Errorf("matched %q (%s), want most recent %q", got.ID, got.Category, second.ID)
	}
}

func TestRefundMatchMiss(t *testing.T) {
	day := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	rows := []core.Transaction{tx(t, "a", day, "ngopi", 15000)}

	if _, ok := RefundMatch(rows, 16000); ok {
		t.Error("expected no match for absent amount")
	}
	if _, ok := RefundMatch(nil, 15000); ok {
		t.Error("expected no match on empty rows")
	}
}
