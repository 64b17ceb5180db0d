// Package worker mirrors the local SQLite ledger to Google Sheets. The
// SQLite database stays authoritative; the spreadsheet is a best-effort
// replica driven by AMQP events, with a periodic catch-up pass for
// anything the queue missed.
package worker

import (
	"context"
	"fmt"

	"duitbot/internal/amqp"
	"duitbot/internal/core"
	"duitbot/internal/ledger"
	applog "duitbot/internal/log"
	"duitbot/internal/storage"
)

// LocalLedger is the subset of the SQLite repository the worker needs.
type LocalLedger interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, bool, error)
	ListPendingMirror(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkMirrored(ctx context.Context, id string) error
	MarkMirrorError(ctx context.Context, id string) error
}

var _ LocalLedger = (*storage.Repository)(nil)

// MirrorWorker applies transaction events to the spreadsheet replica.
type MirrorWorker struct {
	local     LocalLedger
	sheet     ledger.TransactionWriter
	logger    *applog.Logger
	batchSize int
}

func NewMirrorWorker(local LocalLedger, sheet ledger.TransactionWriter, logger *applog.Logger, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		local:     local,
		sheet:     sheet,
		logger:    logger.WithComponent(applog.ComponentWorker),
		batchSize: batchSize,
	}
}

// HandleEvent processes a single transaction event from AMQP.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	switch event.Op {
	case amqp.OpSync:
		return w.handleSync(ctx, event.ID)
	case amqp.OpDelete:
		return w.handleDelete(ctx, event)
	default:
		// Unknown ops are dropped, not requeued.
		w.logger.Warn("dropping event with unknown op", "op", event.Op, applog.FieldTxID, event.ID)
		return nil
	}
}

func (w *MirrorWorker) handleSync(ctx context.Context, id string) error {
	tx, found, err := w.local.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}
	if !found {
		// Deleted locally between publish and consume. Nothing to mirror.
		w.logger.Info("transaction gone before mirroring, skipping", applog.FieldTxID, id)
		return nil
	}
	return w.mirrorTransaction(ctx, tx)
}

func (w *MirrorWorker) handleDelete(ctx context.Context, event *amqp.TransactionEvent) error {
	deleted, err := w.sheet.DeleteTransaction(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("delete transaction %s from sheet: %w", event.ID, err)
	}
	if !deleted {
		// Row was never mirrored, or already removed. Either way done.
		w.logger.Info("transaction not found on sheet, nothing to delete",
			applog.FieldTxID, event.ID,
			applog.FieldUser, event.User)
		return nil
	}
	w.logger.Info("deleted mirrored transaction",
		applog.FieldTxID, event.ID,
		applog.FieldAmount, event.Amount)
	return nil
}

// ProcessPending mirrors transactions that never made it through the
// queue. This is the backup path for lost AMQP messages.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.local.ListPendingMirror(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.Info("processing pending transactions", "count", len(pending))

	for _, tx := range pending {
		if err := w.mirrorTransaction(ctx, tx); err != nil {
			w.logger.Error("failed to mirror pending transaction",
				applog.FieldTxID, tx.ID,
				applog.FieldError, err)
		}
	}
	return nil
}

// StartupCheck drains the pending backlog once at worker start, with a
// larger batch than the periodic pass.
func (w *MirrorWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.local.ListPendingMirror(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		w.logger.Info("no pending transactions on startup")
		return nil
	}

	w.logger.Info("found pending transactions on startup", "count", len(pending))

	synced, failed := 0, 0
	for _, tx := range pending {
		if err := w.mirrorTransaction(ctx, tx); err != nil {
			w.logger.Error("failed to mirror transaction during startup",
				applog.FieldTxID, tx.ID,
				applog.FieldError, err)
			failed++
			continue
		}
		synced++
	}

	w.logger.Info("startup mirror check completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *MirrorWorker) mirrorTransaction(ctx context.Context, tx core.Transaction) error {
	if err := w.sheet.AppendTransaction(ctx, tx); err != nil {
		if markErr := w.local.MarkMirrorError(ctx, tx.ID); markErr != nil {
			w.logger.Error("failed to mark mirror error",
				applog.FieldTxID, tx.ID,
				applog.FieldError, markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.local.MarkMirrored(ctx, tx.ID); err != nil {
		// The append worked, only the bookkeeping failed. A retry would
		// duplicate the sheet row, so don't fail the event.
		w.logger.Error("failed to mark transaction as mirrored",
			applog.FieldTxID, tx.ID,
			applog.FieldError, err)
		return nil
	}

	w.logger.Info("mirrored transaction",
		applog.FieldTxID, tx.ID,
		applog.FieldUser, tx.User,
		applog.FieldCategory, tx.Category,
		applog.FieldAmount, tx.Amount)
	return nil
}
