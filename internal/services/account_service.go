package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cofre/internal/core"
	"cofre/internal/storage"

	"github.com/google/uuid"
)

// AccountService manages accounts. Balances are only written by the projector.
type AccountService struct {
	storage   *storage.SQLiteRepository
	projector *BalanceProjector
	now       func() time.Time
}

func NewAccountService(storage *storage.SQLiteRepository, projector *BalanceProjector) *AccountService {
	return &AccountService{storage: storage, projector: projector, now: time.Now}
}

type AccountInput struct {
	Name     string
	Type     core.AccountType
	Currency string
}

// AccountPatch carries the fields a client wants changed; nil means keep.
type AccountPatch struct {
	Name     *string
	Type     *core.AccountType
	Currency *string
}

func (s *AccountService) Create(ctx context.Context, ownerID string, in AccountInput) (core.Account, error) {
	now := s.now().UTC()
	a := core.Account{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(in.Name),
		Type:      in.Type,
		Currency:  normalizeCurrency(in.Currency),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if a.Type == "" {
		a.Type = core.AccountBank
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.storage.CreateAccount(ctx, a); err != nil {
		return core.Account{}, err
	}
	slog.InfoContext(ctx, "Account created", "account_id", a.ID, "type", a.Type)
	return a, nil
}

func (s *AccountService) Get(ctx context.Context, ownerID, id string) (core.Account, error) {
	return s.storage.GetAccount(ctx, ownerID, id)
}

func (s *AccountService) List(ctx context.Context, ownerID string) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, ownerID)
}

func (s *AccountService) Update(ctx context.Context, ownerID, id string, p AccountPatch) (core.Account, error) {
	a, err := s.storage.GetAccount(ctx, ownerID, id)
	if err != nil {
		return core.Account{}, err
	}
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Currency != nil {
		a.Currency = normalizeCurrency(*p.Currency)
	}
	a.UpdatedAt = s.now().UTC()
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.storage.UpdateAccount(ctx, a); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

// Delete removes the account together with its transactions.
func (s *AccountService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.storage.DeleteAccount(ctx, ownerID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Account deleted", "account_id", id)
	return nil
}

// Reproject is the on-demand repair path. Unlike the best-effort triggers it
// reports projection failures to the caller.
func (s *AccountService) Reproject(ctx context.Context, ownerID, id string) (core.Account, error) {
	if _, err := s.storage.GetAccount(ctx, ownerID, id); err != nil {
		return core.Account{}, err
	}
	if _, err := s.projector.Reproject(ctx, ownerID, id); err != nil {
		return core.Account{}, fmt.Errorf("reproject account: %w", err)
	}
	return s.storage.GetAccount(ctx, ownerID, id)
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return core.DefaultCurrency
	}
	return c
}
