// Package services holds the ledger's business logic: account, category,
// transaction, goal and savings box orchestration, balance projection,
// recurring materialization and background scheduling.
//
// This file decides when a recurring transaction template is due. Each
// frequency has its own checker.
package services

import (
	"fmt"
	"time"

	"cofre/internal/core"
)

// DuenessChecker decides whether a recurring template should produce a new
// occurrence. lastRun is the last materialization, or the template's own
// date when none happened yet. anchor is the template date, which fixes the
// day of month and month of year for monthly and yearly templates.
type DuenessChecker interface {
	IsDue(lastRun, now time.Time, anchor core.Date) bool
}

// DailyChecker is due once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastRun, now time.Time, _ core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	return core.DateOf(lastRun).Before(core.DateOf(now).Time)
}

// WeeklyChecker is due once seven days have passed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastRun, now time.Time, _ core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	return now.Sub(lastRun) >= 7*24*time.Hour
}

// MonthlyChecker is due in a later month than the last run, once the anchor
// day (clamped to the month's length) is reached.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastRun, now time.Time, anchor core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	if sameMonth(lastRun, now) {
		return false
	}
	return now.Day() >= clampDay(now.Year(), now.Month(), anchor.Day())
}

// YearlyChecker is due in a later year than the last run, once the anchor
// month and day are reached.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastRun, now time.Time, anchor core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() {
		return false
	}
	switch {
	case now.Month() < anchor.Month():
		return false
	case now.Month() > anchor.Month():
		return true
	default:
		return now.Day() >= clampDay(now.Year(), now.Month(), anchor.Day())
	}
}

var duenessStrategies = map[core.RepetitionTypes]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a recurrence frequency.
func GetDuenessChecker(frequency core.RepetitionTypes) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence: %s", frequency)
	}
	return checker, nil
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// clampDay maps day 31 to the last day of shorter months.
func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
