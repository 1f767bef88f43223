package services

import (
	"fmt"
	"time"

	"finflow/internal/core"
)

// DuenessChecker decides whether a recurring transaction should be
// materialized, given when it last ran.
type DuenessChecker interface {
	IsDue(lastExecution, now time.Time, startDate core.Date) bool
}

// DailyChecker fires once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastExecution, now time.Time, _ core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	return lastExecution.Format("2006-01-02") != now.Format("2006-01-02")
}

// WeeklyChecker fires when 7 or more days have passed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastExecution, now time.Time, _ core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	daysSince := now.Sub(lastExecution).Hours() / 24
	return daysSince >= 7
}

// MonthlyChecker fires once per month once the start date's day of month
// is reached. The target day is clamped for short months, so a template
// anchored on the 31st fires on Feb 28.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastExecution, now time.Time, startDate core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}

	if lastExecution.Year() == now.Year() && lastExecution.Month() == now.Month() {
		return false
	}

	return now.Day() >= clampDay(startDate.Day(), now)
}

// YearlyChecker fires once per year once the start date's month and day
// are reached.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastExecution, now time.Time, startDate core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}

	if lastExecution.Year() == now.Year() {
		return false
	}

	targetMonth := startDate.Month()
	if int(now.Month()) < targetMonth {
		return false
	}
	if int(now.Month()) == targetMonth {
		return now.Day() >= clampDay(startDate.Day(), now)
	}
	return true
}

func clampDay(targetDay int, now time.Time) int {
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		return lastDayOfMonth
	}
	return targetDay
}

var duenessStrategies = map[core.Repetition]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a repetition type.
func GetDuenessChecker(frequency core.Repetition) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown repetition type: %s", frequency)
	}
	return checker, nil
}
