// Package google is the Google Sheets ledger backend. The spreadsheet holds
// two tabs: transactions (ID | Timestamp | User | Kategori | Nominal |
// Deskripsi) and monthly budgets (User | BulanAwal | IncomeBulan |
// TargetTabungan | MaxHarian). Rows are parsed into the typed schema once,
// at this boundary.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"duitbot/internal/core"
	"duitbot/internal/ledger"
)

const (
	defaultTransactionsSheet = "Transaksi"
	defaultBudgetsSheet      = "Income"
)

type (
	// Config carries spreadsheet coordinates and service-account
	// credentials (inline JSON or a file path).
	Config struct {
		SpreadsheetID     string
		TransactionsSheet string
		BudgetsSheet      string
		CredentialsJSON   string
		CredentialsFile   string
	}

	Client struct {
		svc           *gsheet.Service
		spreadsheetID string
		txSheet       string
		budgetSheet   string
		loc           *time.Location

		txSheetID      int64
		txSheetIDKnown bool
	}
)

var _ ledger.Store = (*Client)(nil)

func New(ctx context.Context, cfg Config, loc *time.Location) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	txSheet := cfg.TransactionsSheet
	if txSheet == "" {
		txSheet = defaultTransactionsSheet
	}
	budgetSheet := cfg.BudgetsSheet
	if budgetSheet == "" {
		budgetSheet = defaultBudgetsSheet
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		txSheet:       txSheet,
		budgetSheet:   budgetSheet,
		loc:           loc,
	}, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	if len(credentialsJSON) == 0 {
		file := strings.TrimSpace(cfg.CredentialsFile)
		if file == "" {
			return nil, errors.New("missing service account credentials")
		}
		var err error
		credentialsJSON, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: [][]any{{
		tx.ID,
		tx.Timestamp.Format("2006-01-02 15:04:05"),
		tx.User,
		tx.Category,
		tx.Amount,
		tx.Description,
	}}}
	rng := fmt.Sprintf("%s!A:F", c.txSheet)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.txSheet, err)
	}
	return nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	rows, err := c.readTransactionRows(ctx)
	if err != nil {
		return false, err
	}
	rowIndex := -1
	for _, row := range rows {
		if row.tx.ID == id {
			rowIndex = row.index
			break
		}
	}
	if rowIndex == -1 {
		return false, nil
	}

	sheetID, err := c.transactionsSheetID(ctx)
	if err != nil {
		return false, err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{
			Range: &gsheet.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "ROWS",
				StartIndex: int64(rowIndex),
				EndIndex:   int64(rowIndex + 1),
			},
		},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("delete row %d in %s: %w", rowIndex, c.txSheet, err)
	}
	return true, nil
}

func (c *Client) ListTransactionsOnDate(ctx context.Context, user string, date core.Date) ([]core.Transaction, error) {
	rows, err := c.readTransactionRows(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, row := range rows {
		if row.tx.User == user && row.tx.Date() == date {
			out = append(out, row.tx)
		}
	}
	return out, nil
}

func (c *Client) MonthlyTotal(ctx context.Context, user string, month core.YearMonth) (int64, error) {
	rows, err := c.readTransactionRows(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, row := range rows {
		if row.tx.User == user && row.tx.Date().YearMonth() == month {
			total += row.tx.Amount
		}
	}
	return total, nil
}

func (c *Client) GetTransaction(ctx context.Context, id string) (core.Transaction, bool, error) {
	rows, err := c.readTransactionRows(ctx)
	if err != nil {
		return core.Transaction{}, false, err
	}
	for _, row := range rows {
		if row.tx.ID == id {
			return row.tx, true, nil
		}
	}
	return core.Transaction{}, false, nil
}

func (c *Client) UpsertMonthlyBudget(ctx context.Context, b core.MonthlyBudget) error {
	rows, err := c.readBudgetRows(ctx)
	if err != nil {
		return err
	}
	values := []any{b.User, b.Month.String(), b.Income, b.Target, b.DailyLimit}

	for _, row := range rows {
		if row.budget.User == b.User && row.budget.Month == b.Month {
			rng := fmt.Sprintf("%s!A%d:E%d", c.budgetSheet, row.index+1, row.index+1)
			vr := &gsheet.ValueRange{Values: [][]any{values}}
			_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
				ValueInputOption("RAW").Context(ctx).Do()
			if err != nil {
				return fmt.Errorf("update budget row %d: %w", row.index+1, err)
			}
			return nil
		}
	}

	rng := fmt.Sprintf("%s!A:E", c.budgetSheet)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append budget row: %w", err)
	}
	return nil
}

func (c *Client) GetMonthlyBudget(ctx context.Context, user string, month core.YearMonth) (core.MonthlyBudget, bool, error) {
	rows, err := c.readBudgetRows(ctx)
	if err != nil {
		return core.MonthlyBudget{}, false, err
	}
	for _, row := range rows {
		if row.budget.User == user && row.budget.Month == month {
			return row.budget, true, nil
		}
	}
	return core.MonthlyBudget{}, false, nil
}

func (c *Client) ListBudgetUsers(ctx context.Context, month core.YearMonth) ([]string, error) {
	rows, err := c.readBudgetRows(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var users []string
	for _, row := range rows {
		if row.budget.Month != month {
			continue
		}
		if _, ok := seen[row.budget.User]; ok {
			continue
		}
		seen[row.budget.User] = struct{}{}
		users = append(users, row.budget.User)
	}
	return users, nil
}

type (
	transactionRow struct {
		tx    core.Transaction
		index int // zero-based sheet row
	}
	budgetRow struct {
		budget core.MonthlyBudget
		index  int
	}
)

func (c *Client) readTransactionRows(ctx context.Context) ([]transactionRow, error) {
	rng := fmt.Sprintf("%s!A:F", c.txSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	var out []transactionRow
	for i, raw := range resp.Values {
		tx, ok := parseTransactionRow(toStrings(raw), c.loc)
		if !ok {
			// Header and ragged rows are skipped, not errors.
			continue
		}
		out = append(out, transactionRow{tx: tx, index: i})
	}
	return out, nil
}

func (c *Client) readBudgetRows(ctx context.Context) ([]budgetRow, error) {
	rng := fmt.Sprintf("%s!A:E", c.budgetSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	var out []budgetRow
	for i, raw := range resp.Values {
		b, ok := parseBudgetRow(toStrings(raw))
		if !ok {
			continue
		}
		out = append(out, budgetRow{budget: b, index: i})
	}
	return out, nil
}

func (c *Client) transactionsSheetID(ctx context.Context) (int64, error) {
	if c.txSheetIDKnown {
		return c.txSheetID, nil
	}
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == c.txSheet {
			c.txSheetID = sheet.Properties.SheetId
			c.txSheetIDKnown = true
			return c.txSheetID, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.txSheet)
}
