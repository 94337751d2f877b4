package core

import (
	"math"
	"strings"
	"time"
)

// BoxState is the lifecycle of a savings box. The only transition is
// BoxActive -> BoxInactive.
type BoxState string

const (
	BoxActive   BoxState = "active"
	BoxInactive BoxState = "inactive"
)

const (
	DefaultBoxColor = "#4F46E5"
	DefaultBoxIcon  = "piggy-bank"
)

// SavingsBox is a named pool of money kept apart from accounts.
type SavingsBox struct {
	ID        string
	OwnerID   string
	Name      string
	Current   Money
	Target    Money // zero means no target
	Color     string
	Icon      string
	State     BoxState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BoxStats is the read-only rollup over an owner's savings boxes.
// TotalBoxes counts every box; all other fields cover active boxes only.
type BoxStats struct {
	TotalBoxes      int
	ActiveBoxes     int
	TotalAmount     Money
	LinkedToGoals   int
	Completed       int
	AverageProgress float64 // percent, two decimals
}

func (b SavingsBox) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if len(b.Name) > 100 {
		return ErrNameTooLong
	}
	if b.Current.Cents < 0 {
		return ErrNegativeAmount
	}
	if b.Target.Cents < 0 {
		return ErrInvalidTarget
	}
	return nil
}

func (b SavingsBox) Active() bool {
	return b.State == BoxActive
}

func (b SavingsBox) HasTarget() bool {
	return b.Target.Cents > 0
}

// Reached reports whether the box holds at least its own target.
func (b SavingsBox) Reached() bool {
	return b.HasTarget() && b.Current.Cents >= b.Target.Cents
}

// ProgressBasisPoints returns completion in 1/100 of a percent, capped at 100%.
func (b SavingsBox) ProgressBasisPoints() int64 {
	if !b.HasTarget() {
		return 0
	}
	if b.Current.Cents >= b.Target.Cents {
		return 10000
	}
	return b.Current.Cents * 10000 / b.Target.Cents
}

func (b SavingsBox) Deposit(amount Money) (SavingsBox, error) {
	if !b.Active() {
		return b, ErrBoxInactive
	}
	if err := amount.Validate(); err != nil {
		return b, err
	}
	if b.Current.Cents > math.MaxInt64-amount.Cents {
		return b, ErrAmountOverflow
	}
	b.Current.Cents += amount.Cents
	return b, nil
}

func (b SavingsBox) Withdraw(amount Money) (SavingsBox, error) {
	if !b.Active() {
		return b, ErrBoxInactive
	}
	if err := amount.Validate(); err != nil {
		return b, err
	}
	if amount.Cents > b.Current.Cents {
		return b, ErrInsufficientFunds
	}
	b.Current.Cents -= amount.Cents
	return b, nil
}

// Deactivate soft-deletes the box. It refuses while money remains in it or a
// goal still points at it.
func (b SavingsBox) Deactivate(linkedGoals int) (SavingsBox, error) {
	if !b.Active() {
		return b, ErrBoxInactive
	}
	if b.Current.Cents > 0 {
		return b, ErrBoxHasBalance
	}
	if linkedGoals > 0 {
		return b, ErrBoxLinkedToGoal
	}
	b.State = BoxInactive
	return b, nil
}

// ComputeBoxStats builds the rollup. linked holds the ids of boxes referenced
// by at least one goal.
func ComputeBoxStats(boxes []SavingsBox, linked map[string]bool) BoxStats {
	var (
		stats    BoxStats
		bpSum    int64
		targeted int64
	)
	stats.TotalBoxes = len(boxes)
	for _, b := range boxes {
		if !b.Active() {
			continue
		}
		stats.ActiveBoxes++
		stats.TotalAmount.Cents += b.Current.Cents
		if linked[b.ID] {
			stats.LinkedToGoals++
		}
		if b.Reached() {
			stats.Completed++
		}
		if b.HasTarget() {
			bpSum += b.ProgressBasisPoints()
			targeted++
		}
	}
	if targeted > 0 {
		stats.AverageProgress = math.Round(float64(bpSum)/float64(targeted)) / 100
	}
	return stats
}
