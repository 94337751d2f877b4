package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"cofre/internal/core"
	"cofre/internal/storage"

	"github.com/google/uuid"
)

// SavingsBoxService keeps money pools separate from accounts. Balances move
// through guarded single statements so a box can never go negative.
type SavingsBoxService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewSavingsBoxService(storage *storage.SQLiteRepository) *SavingsBoxService {
	return &SavingsBoxService{storage: storage, now: time.Now}
}

type BoxInput struct {
	Name    string
	Current core.Money
	Target  *core.Money // nil means no target; a present target must be positive
	Color   string
	Icon    string
}

// BoxPatch carries a partial update. ClearTarget removes the target and
// wins over Target.
type BoxPatch struct {
	Name        *string
	Current     *core.Money
	Target      *core.Money
	ClearTarget bool
	Color       *string
	Icon        *string
}

// checkTarget rejects a target that was supplied but is not positive.
func checkTarget(target *core.Money) error {
	if target != nil && target.Cents <= 0 {
		return core.ErrInvalidTarget
	}
	return nil
}

func (s *SavingsBoxService) Create(ctx context.Context, ownerID string, in BoxInput) (core.SavingsBox, error) {
	if err := checkTarget(in.Target); err != nil {
		return core.SavingsBox{}, err
	}
	now := s.now().UTC()
	b := core.SavingsBox{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(in.Name),
		Current:   in.Current,
		Color:     orDefault(in.Color, core.DefaultBoxColor),
		Icon:      orDefault(in.Icon, core.DefaultBoxIcon),
		State:     core.BoxActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Target != nil {
		b.Target = *in.Target
	}
	if err := b.Validate(); err != nil {
		return core.SavingsBox{}, err
	}
	if err := s.storage.CreateSavingsBox(ctx, b); err != nil {
		return core.SavingsBox{}, err
	}
	slog.InfoContext(ctx, "Savings box created", "savings_box_id", b.ID)
	return b, nil
}

func (s *SavingsBoxService) Get(ctx context.Context, ownerID, id string) (core.SavingsBox, error) {
	return s.storage.GetSavingsBox(ctx, ownerID, id)
}

func (s *SavingsBoxService) List(ctx context.Context, ownerID string, includeInactive bool) ([]core.SavingsBox, error) {
	return s.storage.ListSavingsBoxes(ctx, ownerID, includeInactive)
}

func (s *SavingsBoxService) Update(ctx context.Context, ownerID, id string, p BoxPatch) (core.SavingsBox, error) {
	if !p.ClearTarget {
		if err := checkTarget(p.Target); err != nil {
			return core.SavingsBox{}, err
		}
	}
	b, err := s.activeBox(ctx, ownerID, id)
	if err != nil {
		return core.SavingsBox{}, err
	}
	if p.Name != nil {
		b.Name = strings.TrimSpace(*p.Name)
	}
	if p.Current != nil {
		b.Current = *p.Current
	}
	switch {
	case p.ClearTarget:
		b.Target = core.Money{}
	case p.Target != nil:
		b.Target = *p.Target
	}
	if p.Color != nil {
		b.Color = orDefault(*p.Color, b.Color)
	}
	if p.Icon != nil {
		b.Icon = orDefault(*p.Icon, b.Icon)
	}
	b.UpdatedAt = s.now().UTC()
	if err := b.Validate(); err != nil {
		return core.SavingsBox{}, err
	}
	if err := s.storage.UpdateSavingsBox(ctx, b); err != nil {
		return core.SavingsBox{}, err
	}
	return b, nil
}

func (s *SavingsBoxService) Deposit(ctx context.Context, ownerID, id string, amount core.Money) (core.SavingsBox, error) {
	b, err := s.storage.GetSavingsBox(ctx, ownerID, id)
	if err != nil {
		return core.SavingsBox{}, err
	}
	if _, err := b.Deposit(amount); err != nil {
		return core.SavingsBox{}, err
	}
	if err := s.storage.DepositToBox(ctx, ownerID, id, amount, s.now()); err != nil {
		return core.SavingsBox{}, err
	}
	slog.InfoContext(ctx, "Savings box deposit", "savings_box_id", id, "amount_cents", amount.Cents)
	return s.storage.GetSavingsBox(ctx, ownerID, id)
}

func (s *SavingsBoxService) Withdraw(ctx context.Context, ownerID, id string, amount core.Money) (core.SavingsBox, error) {
	b, err := s.storage.GetSavingsBox(ctx, ownerID, id)
	if err != nil {
		return core.SavingsBox{}, err
	}
	if _, err := b.Withdraw(amount); err != nil {
		return core.SavingsBox{}, err
	}
	if err := s.storage.WithdrawFromBox(ctx, ownerID, id, amount, s.now()); err != nil {
		return core.SavingsBox{}, err
	}
	slog.InfoContext(ctx, "Savings box withdrawal", "savings_box_id", id, "amount_cents", amount.Cents)
	return s.storage.GetSavingsBox(ctx, ownerID, id)
}

// Transfer moves amount between two distinct active boxes of the same owner
// in one SQL transaction.
func (s *SavingsBoxService) Transfer(ctx context.Context, ownerID, fromID, toID string, amount core.Money) (from, to core.SavingsBox, err error) {
	if fromID == toID {
		return from, to, core.ErrSameBox
	}
	if err := amount.Validate(); err != nil {
		return from, to, err
	}
	if from, err = s.storage.GetSavingsBox(ctx, ownerID, fromID); err != nil {
		return from, to, err
	}
	if to, err = s.storage.GetSavingsBox(ctx, ownerID, toID); err != nil {
		return from, to, err
	}
	if _, err := from.Withdraw(amount); err != nil {
		return from, to, err
	}
	if _, err := to.Deposit(amount); err != nil {
		return from, to, err
	}

	if err := s.storage.TransferBetweenBoxes(ctx, ownerID, fromID, toID, amount, s.now()); err != nil {
		return from, to, err
	}
	if from, err = s.storage.GetSavingsBox(ctx, ownerID, fromID); err != nil {
		return from, to, err
	}
	to, err = s.storage.GetSavingsBox(ctx, ownerID, toID)
	return from, to, err
}

// Delete soft-deletes the box once it is empty and no goal points at it.
func (s *SavingsBoxService) Delete(ctx context.Context, ownerID, id string) error {
	b, err := s.storage.GetSavingsBox(ctx, ownerID, id)
	if err != nil {
		return err
	}
	linked, err := s.storage.CountGoalsLinkedToBox(ctx, ownerID, id)
	if err != nil {
		return err
	}
	b, err = b.Deactivate(linked)
	if err != nil {
		return err
	}
	b.UpdatedAt = s.now().UTC()
	if err := s.storage.UpdateSavingsBox(ctx, b); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Savings box deactivated", "savings_box_id", id)
	return nil
}

func (s *SavingsBoxService) Stats(ctx context.Context, ownerID string) (core.BoxStats, error) {
	boxes, err := s.storage.ListSavingsBoxes(ctx, ownerID, true)
	if err != nil {
		return core.BoxStats{}, err
	}
	linked, err := s.storage.LinkedBoxIDs(ctx, ownerID)
	if err != nil {
		return core.BoxStats{}, err
	}
	return core.ComputeBoxStats(boxes, linked), nil
}

func (s *SavingsBoxService) activeBox(ctx context.Context, ownerID, id string) (core.SavingsBox, error) {
	b, err := s.storage.GetSavingsBox(ctx, ownerID, id)
	if err != nil {
		return core.SavingsBox{}, err
	}
	if !b.Active() {
		return core.SavingsBox{}, core.ErrBoxInactive
	}
	return b, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
