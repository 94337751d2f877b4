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

// GoalService tracks savings goals. Progress only moves forward through
// Contribute; there is no withdrawal path.
type GoalService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewGoalService(storage *storage.SQLiteRepository) *GoalService {
	return &GoalService{storage: storage, now: time.Now}
}

type GoalInput struct {
	Name         string
	Target       core.Money
	Current      core.Money
	StartDate    core.Date // defaults to today
	TargetDate   core.Date
	CategoryID   string
	AccountID    string
	SavingsBoxID string
}

// GoalPatch carries a partial update. A zero TargetDate or an empty id clears
// the field.
type GoalPatch struct {
	Name         *string
	Target       *core.Money
	Current      *core.Money
	StartDate    *core.Date
	TargetDate   *core.Date
	CategoryID   *string
	AccountID    *string
	SavingsBoxID *string
}

func (s *GoalService) Create(ctx context.Context, ownerID string, in GoalInput) (core.Goal, error) {
	now := s.now().UTC()
	g := core.Goal{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(in.Name),
		Target:       in.Target,
		Current:      in.Current,
		StartDate:    in.StartDate,
		TargetDate:   in.TargetDate,
		CategoryID:   strings.TrimSpace(in.CategoryID),
		AccountID:    strings.TrimSpace(in.AccountID),
		SavingsBoxID: strings.TrimSpace(in.SavingsBoxID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if g.StartDate.IsEmpty() {
		g.StartDate = core.DateOf(now)
	}
	g.Refresh()
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.checkRefs(ctx, ownerID, g, core.Goal{}); err != nil {
		return core.Goal{}, err
	}
	if err := s.storage.CreateGoal(ctx, g); err != nil {
		return core.Goal{}, err
	}
	slog.InfoContext(ctx, "Goal created",
		"goal_id", g.ID,
		"target_cents", g.Target.Cents,
		"current_cents", g.Current.Cents)
	return g, nil
}

func (s *GoalService) Get(ctx context.Context, ownerID, id string) (core.Goal, error) {
	return s.storage.GetGoal(ctx, ownerID, id)
}

func (s *GoalService) List(ctx context.Context, ownerID string) ([]core.Goal, error) {
	return s.storage.ListGoals(ctx, ownerID)
}

func (s *GoalService) Update(ctx context.Context, ownerID, id string, p GoalPatch) (core.Goal, error) {
	old, err := s.storage.GetGoal(ctx, ownerID, id)
	if err != nil {
		return core.Goal{}, err
	}
	g := old
	if p.Name != nil {
		g.Name = strings.TrimSpace(*p.Name)
	}
	if p.Target != nil {
		g.Target = *p.Target
	}
	if p.Current != nil {
		g.Current = *p.Current
	}
	if p.StartDate != nil {
		g.StartDate = *p.StartDate
	}
	if p.TargetDate != nil {
		g.TargetDate = *p.TargetDate
	}
	if p.CategoryID != nil {
		g.CategoryID = strings.TrimSpace(*p.CategoryID)
	}
	if p.AccountID != nil {
		g.AccountID = strings.TrimSpace(*p.AccountID)
	}
	if p.SavingsBoxID != nil {
		g.SavingsBoxID = strings.TrimSpace(*p.SavingsBoxID)
	}
	g.UpdatedAt = s.now().UTC()
	g.Refresh()

	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.checkRefs(ctx, ownerID, g, old); err != nil {
		return core.Goal{}, err
	}
	if err := s.storage.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (s *GoalService) Delete(ctx context.Context, ownerID, id string) error {
	return s.storage.DeleteGoal(ctx, ownerID, id)
}

// Contribute adds a positive amount to the goal's progress in a single
// UPDATE. Overshooting the target is allowed and marks the goal completed.
func (s *GoalService) Contribute(ctx context.Context, ownerID, id string, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, err
	}
	g, err := s.storage.GetGoal(ctx, ownerID, id)
	if err != nil {
		return core.Goal{}, err
	}
	if _, err := g.Contribute(amount); err != nil {
		return core.Goal{}, err
	}
	if err := s.storage.AddGoalProgress(ctx, ownerID, id, amount, s.now()); err != nil {
		return core.Goal{}, err
	}

	updated, err := s.storage.GetGoal(ctx, ownerID, id)
	if err != nil {
		return core.Goal{}, err
	}
	slog.InfoContext(ctx, "Goal contribution recorded",
		"goal_id", id,
		"amount_cents", amount.Cents,
		"current_cents", updated.Current.Cents,
		"completed", updated.Completed)
	return updated, nil
}

// checkRefs verifies that every tag set on g belongs to the owner. Tags that
// did not change since old are not rechecked.
func (s *GoalService) checkRefs(ctx context.Context, ownerID string, g, old core.Goal) error {
	if g.CategoryID != "" && g.CategoryID != old.CategoryID {
		if _, err := s.storage.GetCategory(ctx, ownerID, g.CategoryID); err != nil {
			return fmt.Errorf("category %s: %w", g.CategoryID, err)
		}
	}
	if g.AccountID != "" && g.AccountID != old.AccountID {
		if _, err := s.storage.GetAccount(ctx, ownerID, g.AccountID); err != nil {
			return fmt.Errorf("account %s: %w", g.AccountID, err)
		}
	}
	if g.SavingsBoxID != "" && g.SavingsBoxID != old.SavingsBoxID {
		box, err := s.storage.GetSavingsBox(ctx, ownerID, g.SavingsBoxID)
		if err != nil {
			return fmt.Errorf("savings box %s: %w", g.SavingsBoxID, err)
		}
		if !box.Active() {
			return core.ErrBoxInactive
		}
	}
	return nil
}
