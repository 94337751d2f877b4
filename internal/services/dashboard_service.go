package services

import (
	"context"
	"fmt"
	"time"

	"cofre/internal/core"
	"cofre/internal/storage"

	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewDashboardService(storage *storage.SQLiteRepository) *DashboardService {
	return &DashboardService{storage: storage, now: time.Now}
}

// Dashboard is the owner's overview for one calendar month.
type Dashboard struct {
	Year              int
	Month             time.Month
	TotalBalance      core.Money
	Accounts          []core.Account
	Future            core.FutureTotals
	MonthIncome       core.Money
	MonthExpense      core.Money
	ExpenseByCategory []core.CategoryAmount
}

// Get loads the dashboard. A zero year or month falls back to the current one.
func (s *DashboardService) Get(ctx context.Context, ownerID string, year int, month time.Month) (Dashboard, error) {
	now := s.now().UTC()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	if month < time.January || month > time.December {
		return Dashboard{}, fmt.Errorf("month %d: %w", month, core.ErrInvalidDate)
	}
	from := core.NewDate(year, int(month), 1)
	to := core.DateOf(from.AddDate(0, 1, -1))

	d := Dashboard{Year: year, Month: month}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		accounts, err := s.storage.ListAccounts(gctx, ownerID)
		if err != nil {
			return err
		}
		d.Accounts = accounts
		for _, a := range accounts {
			d.TotalBalance.Cents += a.Balance.Cents
		}
		return nil
	})
	g.Go(func() error {
		txs, err := s.storage.ListTransactions(gctx, ownerID, core.TransactionFilter{})
		if err != nil {
			return err
		}
		d.Future = core.ProjectFuture(txs, core.ProjectionCutoff(now))
		return nil
	})
	g.Go(func() error {
		income, expense, err := s.storage.MonthTotals(gctx, ownerID, from, to)
		if err != nil {
			return err
		}
		d.MonthIncome, d.MonthExpense = income, expense
		return nil
	})
	g.Go(func() error {
		byCat, err := s.storage.ExpenseByCategory(gctx, ownerID, from, to)
		if err != nil {
			return err
		}
		d.ExpenseByCategory = byCat
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}
	return d, nil
}
