package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"cofre/internal/amqp"
	"cofre/internal/core"
	"cofre/internal/storage"

	"github.com/google/uuid"
)

// Publisher sends ledger events to the message bus.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// TransactionService orchestrates ledger writes across SQLite, the balance
// projector and AMQP. The SQLite write is the only step that can fail a
// request; projection and publishing are best-effort.
type TransactionService struct {
	storage   *storage.SQLiteRepository
	projector *BalanceProjector
	publisher Publisher
	now       func() time.Time

	created int64
	updated int64
	deleted int64
}

func NewTransactionService(storage *storage.SQLiteRepository, projector *BalanceProjector, publisher Publisher) *TransactionService {
	return &TransactionService{
		storage:   storage,
		projector: projector,
		publisher: publisher,
		now:       time.Now,
	}
}

type TransactionInput struct {
	AccountID   string
	CategoryID  string
	Amount      core.Money
	Type        core.TransactionType
	Date        core.Date
	Description string
	IsRecurring bool
	Recurrence  core.RepetitionTypes
}

// TransactionPatch carries a partial update; nil fields are left unchanged
// and an empty CategoryID untags the transaction.
type TransactionPatch struct {
	AccountID   *string
	CategoryID  *string
	Amount      *core.Money
	Type        *core.TransactionType
	Date        *core.Date
	Description *string
	IsRecurring *bool
	Recurrence  *core.RepetitionTypes
}

func (s *TransactionService) Create(ctx context.Context, ownerID string, in TransactionInput) (core.Transaction, error) {
	now := s.now().UTC()
	t := core.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		AccountID:   strings.TrimSpace(in.AccountID),
		CategoryID:  strings.TrimSpace(in.CategoryID),
		Amount:      in.Amount,
		Type:        core.TransactionType(strings.ToUpper(string(in.Type))),
		Date:        in.Date,
		Description: strings.TrimSpace(in.Description),
		IsRecurring: in.IsRecurring,
		Recurrence:  in.Recurrence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !t.IsRecurring {
		t.Recurrence = ""
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkRefs(ctx, ownerID, t.AccountID, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	if err := s.storage.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	atomic.AddInt64(&s.created, 1)

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", t.ID,
		"account_id", t.AccountID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())

	s.projector.ReprojectBestEffort(ctx, ownerID, t.AccountID)
	s.publish(ctx, amqp.NewLedgerEvent(amqp.TransactionCreated, ownerID, t.ID, t.AccountID))
	return t, nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, ownerID, id)
}

func (s *TransactionService) List(ctx context.Context, ownerID string, f core.TransactionFilter) ([]core.Transaction, error) {
	if f.Type != "" {
		f.Type = core.TransactionType(strings.ToUpper(string(f.Type)))
		if !f.Type.Valid() {
			return nil, core.ErrInvalidTransactionType
		}
	}
	return s.storage.ListTransactions(ctx, ownerID, f)
}

// Update applies p and reprojects the previous account and, when the
// transaction moved, the new one.
func (s *TransactionService) Update(ctx context.Context, ownerID, id string, p TransactionPatch) (core.Transaction, error) {
	old, err := s.storage.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	t := old
	if p.AccountID != nil {
		t.AccountID = strings.TrimSpace(*p.AccountID)
	}
	if p.CategoryID != nil {
		t.CategoryID = strings.TrimSpace(*p.CategoryID)
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = core.TransactionType(strings.ToUpper(string(*p.Type)))
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.IsRecurring != nil {
		t.IsRecurring = *p.IsRecurring
	}
	if p.Recurrence != nil {
		t.Recurrence = *p.Recurrence
	}
	if !t.IsRecurring {
		t.Recurrence = ""
		t.LastGeneratedAt = time.Time{}
	}
	t.UpdatedAt = s.now().UTC()

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.AccountID != old.AccountID || (t.CategoryID != old.CategoryID && t.CategoryID != "") {
		if err := s.checkRefs(ctx, ownerID, t.AccountID, t.CategoryID); err != nil {
			return core.Transaction{}, err
		}
	}

	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	atomic.AddInt64(&s.updated, 1)

	s.projector.ReprojectBestEffort(ctx, ownerID, old.AccountID, t.AccountID)
	s.publish(ctx, amqp.NewLedgerEvent(amqp.TransactionUpdated, ownerID, t.ID, old.AccountID, t.AccountID))
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	t, err := s.storage.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteTransaction(ctx, ownerID, id); err != nil {
		return err
	}
	atomic.AddInt64(&s.deleted, 1)

	slog.InfoContext(ctx, "Transaction deleted",
		"transaction_id", id,
		"account_id", t.AccountID)

	s.projector.ReprojectBestEffort(ctx, ownerID, t.AccountID)
	s.publish(ctx, amqp.NewLedgerEvent(amqp.TransactionDeleted, ownerID, id, t.AccountID))
	return nil
}

func (s *TransactionService) checkRefs(ctx context.Context, ownerID, accountID, categoryID string) error {
	if _, err := s.storage.GetAccount(ctx, ownerID, accountID); err != nil {
		return fmt.Errorf("account %s: %w", accountID, err)
	}
	if categoryID == "" {
		return nil
	}
	if _, err := s.storage.GetCategory(ctx, ownerID, categoryID); err != nil {
		return fmt.Errorf("category %s: %w", categoryID, err)
	}
	return nil
}

func (s *TransactionService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping ledger event",
			"routing_key", ev.RoutingKey())
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		// the ledger row is already committed
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"transaction_id", ev.TransactionID,
			"routing_key", ev.RoutingKey(),
			"error", err)
	}
}

// LedgerMetrics counts ledger writes since start.
type LedgerMetrics struct {
	Created int64
	Updated int64
	Deleted int64
}

func (s *TransactionService) GetMetrics() LedgerMetrics {
	return LedgerMetrics{
		Created: atomic.LoadInt64(&s.created),
		Updated: atomic.LoadInt64(&s.updated),
		Deleted: atomic.LoadInt64(&s.deleted),
	}
}
