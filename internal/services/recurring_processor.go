package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cofre/internal/core"
	"cofre/internal/storage"
)

// RecurringProcessor materializes due occurrences of recurring transaction
// templates. The template itself stands for its first occurrence; each run
// inserts a plain copy dated today and stamps the template.
type RecurringProcessor struct {
	storage      *storage.SQLiteRepository
	transactions *TransactionService
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, transactions *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{
		storage:      storage,
		transactions: transactions,
	}
}

// ProcessDue creates every occurrence due at now and returns how many were
// created. A failing template is logged and skipped.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.transactions == nil {
		return 0, fmt.Errorf("recurring processor not properly initialized")
	}

	templates, err := p.storage.ListRecurringTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring templates: %w", err)
	}

	today := core.DateOf(now)
	slog.InfoContext(ctx, "Processing recurring transactions",
		"templates", len(templates),
		"processing_date", today.String())

	created := 0
	for _, tmpl := range templates {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if tmpl.Date.After(today.Time) {
			continue
		}

		due, err := p.isDue(tmpl, now)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping recurring template",
				"template_id", tmpl.ID,
				"error", err)
			continue
		}
		if !due {
			continue
		}

		occ, err := p.transactions.Create(ctx, tmpl.OwnerID, TransactionInput{
			AccountID:   tmpl.AccountID,
			CategoryID:  tmpl.CategoryID,
			Amount:      tmpl.Amount,
			Type:        tmpl.Type,
			Date:        today,
			Description: tmpl.Description,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring template",
				"template_id", tmpl.ID,
				"error", err)
			continue
		}

		if err := p.storage.MarkRecurringGenerated(ctx, tmpl.ID, now); err != nil {
			// the occurrence exists; the next run may duplicate it
			slog.ErrorContext(ctx, "Failed to stamp recurring template",
				"template_id", tmpl.ID,
				"error", err)
		}

		created++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"template_id", tmpl.ID,
			"transaction_id", occ.ID,
			"amount_cents", tmpl.Amount.Cents,
			"recurrence", tmpl.Recurrence)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"created", created,
		"checked", len(templates))
	return created, nil
}

func (p *RecurringProcessor) isDue(tmpl core.Transaction, now time.Time) (bool, error) {
	checker, err := GetDuenessChecker(tmpl.Recurrence)
	if err != nil {
		return false, err
	}
	lastRun := tmpl.LastGeneratedAt
	if lastRun.IsZero() {
		lastRun = tmpl.Date.Time
	}
	return checker.IsDue(lastRun, now, tmpl.Date), nil
}
