package core

import (
	"math"
	"strings"
	"time"
)

// Goal accumulates contributions towards a target amount.
type Goal struct {
	ID           string
	OwnerID      string
	Name         string
	Target       Money
	Current      Money
	StartDate    Date
	TargetDate   Date // optional
	CategoryID   string
	AccountID    string
	SavingsBoxID string
	Completed    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if len(g.Name) > 100 {
		return ErrNameTooLong
	}
	if g.Target.Cents <= 0 {
		return ErrInvalidTarget
	}
	if g.Current.Cents < 0 {
		return ErrNegativeAmount
	}
	if err := g.StartDate.Validate(); err != nil {
		return err
	}
	if !g.TargetDate.IsEmpty() && g.TargetDate.Before(g.StartDate.Time) {
		return ErrTargetBeforeStart
	}
	return nil
}

// Refresh recomputes the completion flag from the stored amounts.
func (g *Goal) Refresh() {
	g.Completed = g.Current.Cents >= g.Target.Cents
}

// Contribute adds amount to the goal. Overshooting the target is allowed and
// simply marks the goal completed.
func (g Goal) Contribute(amount Money) (Goal, error) {
	if err := amount.Validate(); err != nil {
		return g, err
	}
	if g.Current.Cents > math.MaxInt64-amount.Cents {
		return g, ErrAmountOverflow
	}
	g.Current.Cents += amount.Cents
	g.Refresh()
	return g, nil
}

// Remaining returns how much is still missing, never below zero.
func (g Goal) Remaining() Money {
	if g.Current.Cents >= g.Target.Cents {
		return Money{}
	}
	return Money{Cents: g.Target.Cents - g.Current.Cents}
}
