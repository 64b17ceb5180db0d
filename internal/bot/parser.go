package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"duitbot/internal/core"
)

// Kind discriminates parsed commands.
type Kind int

const (
	KindHelp Kind = iota
	KindAddExpense
	KindRefund
	KindSetIncome
	KindDailyReport
	KindMonthlyReport
	KindSpendAnalysis
	KindDeleteByDate
)

type (
	// Command is the single typed model both text dialects parse into.
	Command struct {
		Kind        Kind
		Category    string
		Amount      int64
		Description string
		Income      int64
		Target      int64
		Date        DateRef // DailyReport and DeleteByDate
	}

	// DateRef resolves to a concrete date only at dispatch time, relative
	// to the ledger-local today.
	DateRef struct {
		Offset   int // days back from today
		Day      int
		Month    int
		Explicit bool // Day/Month set
	}

	// ParseError is a user-correctable rejection; it never reaches the
	// store layer.
	ParseError struct {
		Reason string
	}
)

const (
	ReasonMalformed    = "malformed"
	ReasonUnrecognized = "unrecognized"
)

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %s", e.Reason)
}

// Resolve turns the reference into a concrete date given today.
func (r DateRef) Resolve(today core.Date) core.Date {
	if r.Explicit {
		return core.Date{Year: today.Year, Month: time.Month(r.Month), Day: r.Day}
	}
	if r.Offset > 0 {
		return today.AddDays(-r.Offset)
	}
	return today
}

var (
	// Symbol dialect: "+ngopi 15000 kopi susu". Category is non-greedy up
	// to the last whitespace-delimited integer-looking token.
	reSymbolAdd = regexp.MustCompile(`^\+(.+?)\s+(\d+)(?:\s+(.*))?$`)
	reSetIncome = regexp.MustCompile(`(?i)^set\s+income\s+(\d+)\s+(?:tabungan\s+)?(\d+)$`)
	reRefund    = regexp.MustCompile(`(?i)^refund\s+(\S+)$`)
	reDayMonth  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})$`)
)

// Parse maps raw trimmed input to a typed command. Keyword matching is
// case-insensitive; categories and descriptions keep their original case.
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	switch lower {
	case "help", "menu", "panduan", "?":
		return Command{Kind: KindHelp}, nil
	case "ringkasan", "hari ini":
		return Command{Kind: KindDailyReport}, nil
	case "bulan ini":
		return Command{Kind: KindMonthlyReport}, nil
	case "progress tabungan", "analisis boros":
		return Command{Kind: KindSpendAnalysis}, nil
	case "hapus pengeluaran":
		return Command{Kind: KindDeleteByDate}, nil
	}

	if strings.HasPrefix(text, "+") {
		return parseSymbolAdd(text)
	}

	switch {
	case strings.HasPrefix(lower, "tambah "), lower == "tambah":
		return parseKeywordAdd(text)
	case strings.HasPrefix(lower, "refund"):
		return parseRefund(text)
	case strings.HasPrefix(lower, "set income"):
		return parseSetIncome(text)
	case strings.HasPrefix(lower, "ringkasan "):
		ref, err := parseDateRef(strings.TrimSpace(text[len("ringkasan"):]))
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindDailyReport, Date: ref}, nil
	case strings.HasPrefix(lower, "hapus pengeluaran "):
		ref, err := parseDateRef(strings.TrimSpace(text[len("hapus pengeluaran"):]))
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindDeleteByDate, Date: ref}, nil
	}

	return Command{}, &ParseError{Reason: ReasonUnrecognized}
}

func parseSymbolAdd(text string) (Command, error) {
	m := reSymbolAdd.FindStringSubmatch(text)
	if m == nil {
		return Command{}, &ParseError{Reason: ReasonMalformed}
	}
	amount, err := core.ParseAmount(m[2])
	if err != nil {
		return Command{}, &ParseError{Reason: ReasonMalformed}
	}
	return Command{
		Kind:        KindAddExpense,
		Category:    strings.TrimSpace(m[1]),
		Amount:      amount,
		Description: strings.TrimSpace(m[3]),
	}, nil
}

// parseKeywordAdd handles the space-delimited positional dialect:
// "tambah <kategori> <nominal> [deskripsi...]".
func parseKeywordAdd(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return Command{}, &ParseError{Reason: ReasonMalformed}
	}
	amount, err := core.ParseAmount(fields[2])
	if err != nil {
		return Command{}, &ParseError{Reason: ReasonMalformed}
	}
	return Command{
		Kind:        KindAddExpense,
		Category:    fields[1],
		Amount:      amount,
		Description: strings.Join(fields[3:], " "),
	}, nil
}

func parseRefund(text string) (Command, error) {
	if len(strings.Fields(text)) < 2 {
		return Command{}, &ParseError{Reason: ReasonMalformed}
	}
	m := reRefund.FindStringSubmatch(text)
	if m == nil {
		return Command{}, &ParseError{Reason: ReasonMalformed}
	}
	amount, err := core.ParseAmount(m[1])
	if err != nil {
		return Command{}, &ParseError{Reason: ReasonMalformed}
	}
	return Command{Kind: KindRefund, Amount: amount}, nil
}

func parseSetIncome(text string) (Command, error) {
	if len(strings.Fields(text)) < 4 {
		return Command{}, &ParseError{Reason: ReasonMalformed}
	}
	m := reSetIncome.FindStringSubmatch(text)
	if m == nil {
		return Command{}, &ParseError{Reason: ReasonMalformed}
	}
	// Zero is a valid income or target; the gate is non-negative, unlike
	// expense amounts.
	income, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || income < 0 {
		return Command{}, &ParseError{Reason: ReasonMalformed}
	}
	target, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || target < 0 {
		return Command{}, &ParseError{Reason: ReasonMalformed}
	}
	return Command{Kind: KindSetIncome, Income: income, Target: target}, nil
}

// parseDateRef accepts either a day offset ("3") or an explicit day-month
// ("05-06") suffix.
func parseDateRef(arg string) (DateRef, error) {
	if m := reDayMonth.FindStringSubmatch(arg); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if day < 1 || day > 31 || month < 1 || month > 12 {
			return DateRef{}, &ParseError{Reason: ReasonMalformed}
		}
		return DateRef{Day: day, Month: month, Explicit: true}, nil
	}
	offset, err := strconv.Atoi(arg)
	if err != nil || offset < 0 || offset > 31 {
		return DateRef{}, &ParseError{Reason: ReasonMalformed}
	}
	return DateRef{Offset: offset}, nil
}
