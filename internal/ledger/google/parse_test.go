package google

import (
	"testing"
	"time"

	"duitbot/internal/core"
)

func TestParseTransactionRow(t *testing.T) {
	loc, err := core.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name  string
		cells []string
		want  core.Transaction
		ok    bool
	}{
		{
			name:  "full row",
			cells: []string{"20260115193000123", "2026-01-15 19:30:00", "628123@s.whatsapp.net", "makan", "15000", "nasi goreng"},
			want: core.Transaction{
				ID:          "20260115193000123",
				Timestamp:   time.Date(2026, 1, 15, 19, 30, 0, 0, loc),
				User:        "628123@s.whatsapp.net",
				Category:    "makan",
				Amount:      15000,
				Description: "nasi goreng",
			},
			ok: true,
		},
		{
			name:  "missing description defaults",
			cells: []string{"20260115193000123", "2026-01-15 19:30:00", "628123@s.whatsapp.net", "makan", "15000"},
			want: core.Transaction{
				ID:          "20260115193000123",
				Timestamp:   time.Date(2026, 1, 15, 19, 30, 0, 0, loc),
				User:        "628123@s.whatsapp.net",
				Category:    "makan",
				Amount:      15000,
				Description: "-",
			},
			ok: true,
		},
		{
			name:  "float amount from sheets",
			cells: []string{"20260115193000123", "2026-01-15 19:30:00", "u", "makan", "15000.0", "-"},
			want: core.Transaction{
				ID:          "20260115193000123",
				Timestamp:   time.Date(2026, 1, 15, 19, 30, 0, 0, loc),
				User:        "u",
				Category:    "makan",
				Amount:      15000,
				Description: "-",
			},
			ok: true,
		},
		{
			name:  "header row skipped",
			cells: []string{"ID", "Timestamp", "User", "Kategori", "Nominal", "Deskripsi"},
			ok:    false,
		},
		{
			name:  "ragged row skipped",
			cells: []string{"20260115193000123", "2026-01-15 19:30:00"},
			ok:    false,
		},
		{
			name:  "bad timestamp skipped",
			cells: []string{"20260115193000123", "yesterday", "u", "makan", "15000"},
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTransactionRow(tt.cells, loc)
			if ok != tt.ok {
				t.Fatalf("parseTransactionRow ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if !got.Timestamp.Equal(tt.want.Timestamp) {
				t.Errorf("timestamp = %v, want %v", got.Timestamp, tt.want.Timestamp)
			}
			got.Timestamp = tt.want.Timestamp
			if got != tt.want {
				t.Errorf("transaction = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseBudgetRow(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  core.MonthlyBudget
		ok    bool
	}{
		{
			name:  "valid row",
			cells: []string{"628123@s.whatsapp.net", "2026-01", "5000000", "1000000", "129032"},
			want: core.MonthlyBudget{
				User:       "628123@s.whatsapp.net",
				Month:      core.YearMonth{Year: 2026, Month: 1},
				Income:     5000000,
				Target:     1000000,
				DailyLimit: 129032,
			},
			ok: true,
		},
		{
			name:  "header row skipped",
			cells: []string{"User", "BulanAwal", "IncomeBulan", "TargetTabungan", "MaxHarian"},
			ok:    false,
		},
		{
			name:  "short row skipped",
			cells: []string{"628123@s.whatsapp.net", "2026-01"},
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseBudgetRow(tt.cells)
			if ok != tt.ok {
				t.Fatalf("parseBudgetRow ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("budget = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestToStrings(t *testing.T) {
	got := toStrings([]any{"a", 15000, "  b  "})
	want := []string{"a", "15000", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("toStrings[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
