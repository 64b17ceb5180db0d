package bot

import (
	"fmt"
	"strings"

	"duitbot/internal/core"
	"duitbot/internal/report"
)

// Reply texts. One inbound message always yields exactly one of these.

const helpText = `📘 *Panduan Bot Pengeluaran*

+kategori jumlah deskripsi
Contoh: +ngopi 15000 kopi susu
tambah ngopi 15000 kopi susu

ringkasan
ringkasan 3
ringkasan 05-06
bulan ini

refund 15000
hapus pengeluaran
hapus pengeluaran 05-06

set income 5000000 tabungan 1000000
progress tabungan`

const (
	replyMalformed    = "❗ Format salah. Ketik *panduan* untuk contoh."
	replyUnrecognized = "❓ Perintah tidak dikenali. Ketik *panduan* untuk bantuan."
	replyNoBudget     = "❗ Set income dulu: set income <jumlah> tabungan <target>"
	replyStoreFailure = "❗ Terjadi kesalahan. Coba lagi."
)

func replyExpenseRecorded(tx core.Transaction) string {
	return fmt.Sprintf("✅ Dicatat:\n%s - %s (%s)", tx.Category, core.FormatRupiah(tx.Amount), tx.Description)
}

func replyIncomeSet(b core.MonthlyBudget) string {
	return fmt.Sprintf("✅ Income %s\n💰 %s\n🎯 Target %s\n💸 Limit Harian %s",
		b.Month, core.FormatRupiah(b.Income), core.FormatRupiah(b.Target), core.FormatRupiah(b.DailyLimit))
}

func replyRefundDone(tx core.Transaction) string {
	return fmt.Sprintf("✅ Refund %s (%s) dihapus.", core.FormatRupiah(tx.Amount), tx.Category)
}

func replyRefundNotFound(amount int64) string {
	return fmt.Sprintf("❗ Tidak ada transaksi %s hari ini.", core.FormatRupiah(amount))
}

func replyDailyReport(date core.Date, rows []core.Transaction) string {
	if len(rows) == 0 {
		return fmt.Sprintf("Tidak ada pengeluaran pada %s.", date.Display())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📒 *Ringkasan %s*\n\n", date.Display())
	var total int64
	for i, tx := range rows {
		fmt.Fprintf(&b, "%d. %s - %s (%s)\n", i+1, tx.Category, core.FormatRupiah(tx.Amount), tx.Description)
		total += tx.Amount
	}
	fmt.Fprintf(&b, "\nTotal: %s", core.FormatRupiah(total))
	return b.String()
}

func replyMonthlyReport(b core.MonthlyBudget, spent int64) string {
	return fmt.Sprintf("📊 *Progress Bulan Ini*\n\nIncome: %s\nPengeluaran: %s\nTabungan: %s\nTarget: %s",
		core.FormatRupiah(b.Income),
		core.FormatRupiah(spent),
		core.FormatRupiah(report.Savings(b, spent)),
		core.FormatRupiah(b.Target))
}

func replySpendAnalysis(todayTotal int64, b core.MonthlyBudget) string {
	status := report.CheckLimit(todayTotal, b.DailyLimit)
	head := "✅ Aman, masih di bawah limit harian."
	if status == report.LimitOver {
		head = "⚠️ Boros! Pengeluaran hari ini melebihi limit."
	}
	return fmt.Sprintf("%s\n\nHari ini: %s\nLimit harian: %s\nSisa: %s",
		head,
		core.FormatRupiah(todayTotal),
		core.FormatRupiah(b.DailyLimit),
		core.FormatRupiah(b.DailyLimit-todayTotal))
}

func replyDeletedByDate(date core.Date, n int) string {
	if n == 0 {
		return fmt.Sprintf("❗ Tidak ada transaksi pada %s.", date.Display())
	}
	return fmt.Sprintf("🗑️ %d transaksi tanggal %s dihapus.", n, date.Display())
}

// ReminderText nudges a user who has not logged anything today.
func ReminderText(today core.Date) string {
	return fmt.Sprintf("👋 Hai!\n\nKamu belum mencatat pengeluaran hari ini (%s).\n\nContoh:\n+ngopi 15000 kopi susu", today.Display())
}

// SummaryText is the end-of-day recap for the configured recipient.
func SummaryText(today core.Date, todayTotal int64, b core.MonthlyBudget) string {
	return fmt.Sprintf("🌙 *Rekap %s*\n\nTotal hari ini: %s\nLimit harian: %s\nSisa: %s",
		today.Display(),
		core.FormatRupiah(todayTotal),
		core.FormatRupiah(b.DailyLimit),
		core.FormatRupiah(b.DailyLimit-todayTotal))
}
