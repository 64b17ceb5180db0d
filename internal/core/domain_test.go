package core

import (
	"errors"
	"testing"
	"time"
)

func mustJakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := LoadLocation("")
	if err != nil {
		t.Fatalf("load default location: %v", err)
	}
	return loc
}

func TestNewTransaction(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 30, 15, 250*int(time.Millisecond), mustJakarta(t))

	tx, err := NewTransaction("628123@s.whatsapp.net", "ngopi", 15000, "kopi susu", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.ID != "20260829103015250" {
		t.Errorf("ID = %q, want %q", tx.ID, "20260829103015250")
	}
	if tx.Category != "ngopi" || tx.Amount != 15000 || tx.Description != "kopi susu" {
		t.Errorf("unexpected transaction: %+v", tx)
	}
	if got := tx.Date().String(); got != "2026-08-29" {
		t.Errorf("Date = %q, want 2026-08-29", got)
	}
}

func TestNewTransactionValidation(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name        string
		user        string
		category    string
		amount      int64
		description string
		wantErr     error
	}{
		{"zero amount", "u", "ngopi", 0, "", ErrInvalidAmount},
		{"empty category", "u", "  ", 5000, "", ErrEmptyCategory},
		{"empty user", "", "ngopi", 5000, "", ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransaction(tt.user, tt.category, tt.amount, tt.description, now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewTransactionDefaultDescription(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	tx, err := NewTransaction("u", "ngopi", 15000, "   ", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Description != DefaultDescription {
		t.Errorf("Description = %q, want %q", tx.Description, DefaultDescription)
	}
}

func TestTransactionIDOrdering(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	earlier := NewTransactionID(base)
	later := NewTransactionID(base.Add(3 * time.Millisecond))
	if !(later > earlier) {
		t.Errorf("later ID %q should sort after earlier ID %q", later, earlier)
	}
}

func TestDailyLimit(t *testing.T) {
	tests := []struct {
		name   string
		income int64
		target int64
		month  YearMonth
		want   int64
	}{
		{"thirty day month", 5_000_000, 1_000_000, YearMonth{2026, time.September}, 133_333},
		{"thirty one day month", 5_000_000, 1_000_000, YearMonth{2026, time.August}, 129_032},
		{"february leap", 2_900_000, 0, YearMonth{2024, time.February}, 100_000},
		{"target above income floors down", 0, 1_000_000, YearMonth{2026, time.September}, -33_334},
		{"exact division", 3_000_000, 0, YearMonth{2026, time.September}, 100_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DailyLimit(tt.income, tt.target, tt.month); got != tt.want {
				t.Errorf("DailyLimit(%d, %d, %v) = %d, want %d", tt.income, tt.target, tt.month, got, tt.want)
			}
		})
	}
}

func TestNewMonthlyBudget(t *testing.T) {
	b, err := NewMonthlyBudget("u", YearMonth{2026, time.September}, 5_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.DailyLimit != 133_333 {
		t.Errorf("DailyLimit = %d, want 133333", b.DailyLimit)
	}

	if _, err := NewMonthlyBudget("u", YearMonth{2026, time.September}, -1, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative income should fail with ErrInvalidAmount, got %v", err)
	}
	if _, err := NewMonthlyBudget(" ", YearMonth{2026, time.September}, 1, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty user should fail with ErrInvalidInput, got %v", err)
	}
}

func TestDateHelpers(t *testing.T) {
	d := Date{2026, time.August, 29}
	if d.Display() != "29/08/2026" {
		t.Errorf("Display = %q", d.Display())
	}
	if got := d.AddDays(-3).String(); got != "2026-08-26" {
		t.Errorf("AddDays(-3) = %q, want 2026-08-26", got)
	}
	if got := d.AddDays(3).String(); got != "2026-09-01" {
		t.Errorf("AddDays(3) = %q, want 2026-09-01", got)
	}

	ym, err := ParseYearMonth("2026-02")
	if err != nil {
		t.Fatalf("parse year-month: %v", err)
	}
	if ym.Days() != 28 {
		t.Errorf("Days = %d, want 28", ym.Days())
	}

	if _, err := ParseDate("29-08-2026"); err == nil {
		t.Error("expected error for non-canonical date form")
	}
}
