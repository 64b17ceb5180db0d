// Package storage is the SQLite ledger backend. Rows committed here are
// the source of truth; an optional publisher queues each write for the
// sheet mirror worker.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"duitbot/internal/core"
	"duitbot/internal/ledger"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Mirror states for the sheet mirror queue.
const (
	MirrorPending = "pending"
	MirrorSynced  = "synced"
	MirrorError   = "error"
)

const timestampLayout = "2006-01-02 15:04:05"

// Publisher queues mirror events after a local commit. Publish failures are
// logged and absorbed; the periodic catchup pass re-discovers pending rows.
type Publisher interface {
	PublishTransactionSync(ctx context.Context, id string) error
	PublishTransactionDelete(ctx context.Context, tx core.Transaction) error
}

type Repository struct {
	db     *sql.DB
	loc    *time.Location
	mirror Publisher
}

var _ ledger.Store = (*Repository)(nil)

func NewRepository(dbPath string, loc *time.Location, mirror Publisher) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, loc: loc, mirror: mirror}, nil
}

// runMigrations brings the schema up to date from the embedded SQL files.
// migrate takes a table lock while applying, so it gets a connection of its
// own rather than one from the repository's pool.
func runMigrations(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migrate driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("embedded migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) AppendTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, ts, tx_date, user, category, amount, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Timestamp.Format(timestampLayout), tx.Date().String(),
		tx.User, tx.Category, tx.Amount, tx.Description)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "transaction saved",
		"id", tx.ID, "user", tx.User, "category", tx.Category, "amount", tx.Amount)

	if r.mirror != nil {
		if err := r.mirror.PublishTransactionSync(ctx, tx.ID); err != nil {
			slog.WarnContext(ctx, "mirror publish failed, row stays pending", "id", tx.ID, "error", err)
		}
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	tx, found, err := r.GetTransaction(ctx, id)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if r.mirror != nil {
		if err := r.mirror.PublishTransactionDelete(ctx, tx); err != nil {
			slog.WarnContext(ctx, "mirror delete publish failed", "id", id, "error", err)
		}
	}
	return true, nil
}

func (r *Repository) ListTransactionsOnDate(ctx context.Context, user string, date core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ts, user, category, amount, description
		 FROM transactions WHERE user = ? AND tx_date = ? ORDER BY id`,
		user, date.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return r.scanTransactions(rows)
}

func (r *Repository) MonthlyTotal(ctx context.Context, user string, month core.YearMonth) (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM transactions WHERE user = ? AND tx_date LIKE ?`,
		user, month.String()+"-%").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("monthly total: %w", err)
	}
	return total.Int64, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, ts, user, category, amount, description FROM transactions WHERE id = ?`, id)
	tx, err := r.scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, false, nil
	}
	if err != nil {
		return core.Transaction{}, false, err
	}
	return tx, true, nil
}

func (r *Repository) UpsertMonthlyBudget(ctx context.Context, b core.MonthlyBudget) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO monthly_budgets (user, month, income, savings_target, daily_limit, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user, month) DO UPDATE SET
		   income = excluded.income,
		   savings_target = excluded.savings_target,
		   daily_limit = excluded.daily_limit,
		   updated_at = CURRENT_TIMESTAMP`,
		b.User, b.Month.String(), b.Income, b.Target, b.DailyLimit)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

func (r *Repository) GetMonthlyBudget(ctx context.Context, user string, month core.YearMonth) (core.MonthlyBudget, bool, error) {
	var b core.MonthlyBudget
	var monthStr string
	err := r.db.QueryRowContext(ctx,
		`SELECT user, month, income, savings_target, daily_limit
		 FROM monthly_budgets WHERE user = ? AND month = ?`,
		user, month.String()).Scan(&b.User, &monthStr, &b.Income, &b.Target, &b.DailyLimit)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyBudget{}, false, nil
	}
	if err != nil {
		return core.MonthlyBudget{}, false, fmt.Errorf("get budget: %w", err)
	}
	b.Month, err = core.ParseYearMonth(monthStr)
	if err != nil {
		return core.MonthlyBudget{}, false, err
	}
	return b, true, nil
}

func (r *Repository) ListBudgetUsers(ctx context.Context, month core.YearMonth) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user FROM monthly_budgets WHERE month = ? ORDER BY user`, month.String())
	if err != nil {
		return nil, fmt.Errorf("list budget users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan budget user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListPendingMirror returns up to limit transactions not yet mirrored to
// the sheet, oldest first. The worker's periodic catchup uses this to
// recover rows whose queue publish was lost.
func (r *Repository) ListPendingMirror(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ts, user, category, amount, description
		 FROM transactions WHERE mirror_state = ? ORDER BY id LIMIT ?`,
		MirrorPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending mirror: %w", err)
	}
	defer rows.Close()
	return r.scanTransactions(rows)
}

func (r *Repository) MarkMirrored(ctx context.Context, id string) error {
	return r.setMirrorState(ctx, id, MirrorSynced)
}

func (r *Repository) MarkMirrorError(ctx context.Context, id string) error {
	return r.setMirrorState(ctx, id, MirrorError)
}

func (r *Repository) setMirrorState(ctx context.Context, id, state string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirror_state = ? WHERE id = ?`, state, id)
	if err != nil {
		return fmt.Errorf("set mirror state %s: %w", state, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanTransaction(row rowScanner) (core.Transaction, error) {
	var tx core.Transaction
	var ts string
	if err := row.Scan(&tx.ID, &ts, &tx.User, &tx.Category, &tx.Amount, &tx.Description); err != nil {
		return core.Transaction{}, err
	}
	parsed, err := time.ParseInLocation(timestampLayout, ts, r.loc)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	tx.Timestamp = parsed
	return tx, nil
}

func (r *Repository) scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		tx, err := r.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
