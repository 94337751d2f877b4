package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"cofre/internal/core"
	"cofre/internal/storage"
)

// BalanceProjector recomputes an account's stored balance from its ledger.
// Concurrent projections of the same account are last-writer-wins.
type BalanceProjector struct {
	storage *storage.SQLiteRepository
	now     func() time.Time

	projections int64
	failures    int64
}

func NewBalanceProjector(storage *storage.SQLiteRepository) *BalanceProjector {
	return &BalanceProjector{storage: storage, now: time.Now}
}

// Reproject folds every transaction of the account dated on or before
// today's cutoff and persists the result.
func (p *BalanceProjector) Reproject(ctx context.Context, ownerID, accountID string) (core.Money, error) {
	txs, err := p.storage.ListAccountTransactions(ctx, ownerID, accountID)
	if err != nil {
		atomic.AddInt64(&p.failures, 1)
		return core.Money{}, fmt.Errorf("load ledger for %s: %w", accountID, err)
	}

	now := p.now()
	balance := core.ProjectBalance(txs, core.ProjectionCutoff(now))
	if err := p.storage.SetAccountBalance(ctx, ownerID, accountID, balance, now); err != nil {
		atomic.AddInt64(&p.failures, 1)
		return core.Money{}, fmt.Errorf("store balance for %s: %w", accountID, err)
	}
	atomic.AddInt64(&p.projections, 1)

	slog.DebugContext(ctx, "Account balance projected",
		"account_id", accountID,
		"transactions", len(txs),
		"balance_cents", balance.Cents)
	return balance, nil
}

// ReprojectBestEffort reprojects each distinct account and only logs
// failures. Callers use it after a ledger write has already committed.
func (p *BalanceProjector) ReprojectBestEffort(ctx context.Context, ownerID string, accountIDs ...string) {
	seen := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, err := p.Reproject(ctx, ownerID, id); err != nil {
			slog.ErrorContext(ctx, "Balance projection failed",
				"account_id", id,
				"owner_id", ownerID,
				"error", err)
		}
	}
}

// ReprojectAll sweeps every account in the store. It keeps going past
// individual failures and returns how many succeeded along with the joined
// errors. Accounts deleted mid-sweep are skipped silently.
func (p *BalanceProjector) ReprojectAll(ctx context.Context) (int, error) {
	refs, err := p.storage.ListAccountRefs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}

	var (
		done int
		errs []error
	)
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		_, err := p.Reproject(ctx, ref.OwnerID, ref.ID)
		switch {
		case err == nil:
			done++
		case errors.Is(err, core.ErrNotFound):
		default:
			errs = append(errs, err)
		}
	}
	return done, errors.Join(errs...)
}

// ProjectorMetrics counts projection outcomes since start.
type ProjectorMetrics struct {
	Projections int64
	Failures    int64
}

func (p *BalanceProjector) GetMetrics() ProjectorMetrics {
	return ProjectorMetrics{
		Projections: atomic.LoadInt64(&p.projections),
		Failures:    atomic.LoadInt64(&p.failures),
	}
}
