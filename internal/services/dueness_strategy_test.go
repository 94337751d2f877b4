package services

import (
	"testing"
	"time"

	"cofre/internal/core"
)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestDuenessCheckers(t *testing.T) {
	tests := []struct {
		name    string
		checker DuenessChecker
		lastRun time.Time
		now     time.Time
		anchor  core.Date
		want    bool
	}{
		{"daily never run", DailyChecker{}, time.Time{}, at(2024, 1, 15, 12), core.NewDate(2024, 1, 1), true},
		{"daily ran today", DailyChecker{}, at(2024, 1, 15, 8), at(2024, 1, 15, 12), core.NewDate(2024, 1, 1), false},
		{"daily ran yesterday", DailyChecker{}, at(2024, 1, 14, 23), at(2024, 1, 15, 1), core.NewDate(2024, 1, 1), true},

		{"weekly 3 days", WeeklyChecker{}, at(2024, 1, 12, 12), at(2024, 1, 15, 12), core.NewDate(2024, 1, 1), false},
		{"weekly 7 days", WeeklyChecker{}, at(2024, 1, 8, 12), at(2024, 1, 15, 12), core.NewDate(2024, 1, 1), true},
		{"weekly just short of 7 days", WeeklyChecker{}, at(2024, 1, 8, 13), at(2024, 1, 15, 12), core.NewDate(2024, 1, 1), false},

		{"monthly same month", MonthlyChecker{}, at(2024, 1, 10, 0), at(2024, 1, 15, 12), core.NewDate(2024, 1, 10), false},
		{"monthly before anchor day", MonthlyChecker{}, at(2024, 1, 15, 0), at(2024, 2, 10, 12), core.NewDate(2024, 1, 15), false},
		{"monthly on anchor day", MonthlyChecker{}, at(2024, 1, 15, 0), at(2024, 2, 15, 12), core.NewDate(2024, 1, 15), true},
		{"monthly day 31 clamps in leap february", MonthlyChecker{}, at(2024, 1, 31, 0), at(2024, 2, 29, 12), core.NewDate(2024, 1, 31), true},
		{"monthly day 31 not yet in february", MonthlyChecker{}, at(2024, 1, 31, 0), at(2024, 2, 28, 12), core.NewDate(2024, 1, 31), false},
		{"monthly across year boundary", MonthlyChecker{}, at(2024, 12, 5, 0), at(2025, 1, 5, 0), core.NewDate(2024, 12, 5), true},

		{"yearly same year", YearlyChecker{}, at(2024, 3, 15, 0), at(2024, 6, 15, 12), core.NewDate(2024, 3, 15), false},
		{"yearly before anchor month", YearlyChecker{}, at(2024, 6, 15, 0), at(2025, 3, 15, 12), core.NewDate(2024, 6, 15), false},
		{"yearly past anchor month", YearlyChecker{}, at(2024, 3, 15, 0), at(2025, 6, 15, 12), core.NewDate(2024, 3, 15), true},
		{"yearly anchor month before day", YearlyChecker{}, at(2024, 6, 15, 0), at(2025, 6, 10, 12), core.NewDate(2024, 6, 15), false},
		{"yearly anchor month on day", YearlyChecker{}, at(2024, 6, 15, 0), at(2025, 6, 15, 12), core.NewDate(2024, 6, 15), true},
		{"yearly feb 29 anchor in common year", YearlyChecker{}, at(2024, 2, 29, 0), at(2025, 2, 28, 12), core.NewDate(2024, 2, 29), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.checker.IsDue(tt.lastRun, tt.now, tt.anchor); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	tests := []struct {
		frequency core.RepetitionTypes
		wantErr   bool
	}{
		{core.Daily, false},
		{core.Weekly, false},
		{core.Monthly, false},
		{core.Yearly, false},
		{core.RepetitionTypes("biweekly"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			checker, err := GetDuenessChecker(tt.frequency)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetDuenessChecker() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && checker == nil {
				t.Error("GetDuenessChecker() returned nil checker")
			}
		})
	}
}
