package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"cofre/internal/amqp"
	"cofre/internal/core"
	"cofre/internal/services"
	ports "cofre/internal/sheets"
	"cofre/internal/storage"
)

// LedgerWorker consumes ledger events. It re-projects the touched accounts
// and, when a mirror is configured, appends created transactions to it.
type LedgerWorker struct {
	storage   *storage.SQLiteRepository
	projector *services.BalanceProjector
	mirror    ports.LedgerMirror

	handled  int64
	mirrored int64
	failures int64
}

// NewLedgerWorker creates a worker. mirror may be nil.
func NewLedgerWorker(storage *storage.SQLiteRepository, projector *services.BalanceProjector, mirror ports.LedgerMirror) *LedgerWorker {
	return &LedgerWorker{
		storage:   storage,
		projector: projector,
		mirror:    mirror,
	}
}

// HandleLedgerEvent processes one event. A returned error makes the consumer
// nack the delivery, so only failures worth a retry are reported.
func (w *LedgerWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if ev == nil {
		return errors.New("nil ledger event")
	}
	if w.storage == nil || w.projector == nil {
		return fmt.Errorf("ledger worker not properly initialized")
	}

	slog.InfoContext(ctx, "Processing ledger event",
		"type", ev.Type,
		"transaction_id", ev.TransactionID,
		"owner_id", ev.OwnerID,
		"accounts", len(ev.AccountIDs))

	var errs []error
	for _, accountID := range ev.AccountIDs {
		balance, err := w.projector.Reproject(ctx, ev.OwnerID, accountID)
		switch {
		case err == nil:
			slog.DebugContext(ctx, "Account re-projected",
				"account_id", accountID,
				"balance_cents", balance.Cents)
		case errors.Is(err, core.ErrNotFound):
			// account deleted after the event was published
			slog.InfoContext(ctx, "Account gone, skipping projection", "account_id", accountID)
		default:
			errs = append(errs, err)
		}
	}

	if ev.Type == amqp.TransactionCreated && w.mirror != nil {
		if err := w.mirrorTransaction(ctx, ev.TransactionID); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		atomic.AddInt64(&w.failures, 1)
		return err
	}
	atomic.AddInt64(&w.handled, 1)
	return nil
}

func (w *LedgerWorker) mirrorTransaction(ctx context.Context, id string) error {
	tx, err := w.storage.GetTransactionByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Transaction not found, skipping mirror", "transaction_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", id, err)
	}

	row := ports.LedgerRow{Transaction: tx}
	if acc, err := w.storage.GetAccount(ctx, tx.OwnerID, tx.AccountID); err == nil {
		row.Account = acc.Name
	}
	if tx.CategoryID != "" {
		if cat, err := w.storage.GetCategory(ctx, tx.OwnerID, tx.CategoryID); err == nil {
			row.Category = cat.Name
		}
	}

	ref, err := w.mirror.AppendTransaction(ctx, row)
	if err != nil {
		return fmt.Errorf("mirror transaction %s: %w", id, err)
	}
	atomic.AddInt64(&w.mirrored, 1)

	slog.InfoContext(ctx, "Transaction mirrored",
		"transaction_id", id,
		"ref", ref)
	return nil
}

// ReprojectAll is the periodic repair job. It recomputes every stored
// balance so transactions that became settled overnight are picked up.
func (w *LedgerWorker) ReprojectAll(ctx context.Context) error {
	done, err := w.projector.ReprojectAll(ctx)
	slog.InfoContext(ctx, "Balance sweep finished", "accounts", done)
	if err != nil {
		return fmt.Errorf("balance sweep: %w", err)
	}
	return nil
}

// Metrics counts event outcomes since start.
type Metrics struct {
	Handled  int64
	Mirrored int64
	Failures int64
}

func (w *LedgerWorker) GetMetrics() Metrics {
	return Metrics{
		Handled:  atomic.LoadInt64(&w.handled),
		Mirrored: atomic.LoadInt64(&w.mirrored),
		Failures: atomic.LoadInt64(&w.failures),
	}
}
