// Package core holds the ledger domain model: transactions, monthly budgets
// and the helpers for amounts, dates and identifiers shared by every store
// backend and the command layer.
package core

import (
	"strconv"
	"strings"
)

// ParseAmount converts a command token to a whole-unit amount. Only plain
// positive digit runs are accepted; zero and anything non-numeric fail with
// ErrInvalidAmount, never a silent coercion.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v == 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatRupiah renders an amount as "Rp15.000" with dot thousands grouping.
// Negative amounts render as "-Rp150.000"; negative savings is a valid,
// reportable state.
func FormatRupiah(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	b.WriteString(sign)
	b.WriteString("Rp")
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte('.')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte('.')
		}
	}
	return b.String()
}
