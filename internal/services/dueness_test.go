package services

import (
	"testing"
	"time"

	"finflow/internal/core"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestDailyChecker(t *testing.T) {
	checker := DailyChecker{}

	tests := []struct {
		name          string
		lastExecution time.Time
		now           time.Time
		want          bool
	}{
		{"never executed", time.Time{}, date(2023, 2, 15), true},
		{"executed yesterday", date(2023, 2, 14), date(2023, 2, 15), true},
		{"executed today", date(2023, 2, 15), date(2023, 2, 15), false},
		{"executed last month", date(2023, 1, 15), date(2023, 2, 15), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastExecution, tt.now, core.Date{})
			if got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker(t *testing.T) {
	checker := WeeklyChecker{}

	tests := []struct {
		name          string
		lastExecution time.Time
		now           time.Time
		want          bool
	}{
		{"never executed", time.Time{}, date(2023, 2, 15), true},
		{"six days ago", date(2023, 2, 9), date(2023, 2, 15), false},
		{"seven days ago", date(2023, 2, 8), date(2023, 2, 15), true},
		{"two weeks ago", date(2023, 2, 1), date(2023, 2, 15), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastExecution, tt.now, core.Date{})
			if got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name          string
		lastExecution time.Time
		now           time.Time
		startDate     core.Date
		want          bool
	}{
		{"never executed", time.Time{}, date(2023, 2, 15), core.NewDate(2023, 1, 15), true},
		{"already ran this month", date(2023, 2, 1), date(2023, 2, 15), core.NewDate(2023, 1, 1), false},
		{"new month, target day reached", date(2023, 1, 15), date(2023, 2, 15), core.NewDate(2023, 1, 15), true},
		{"new month, before target day", date(2023, 1, 15), date(2023, 2, 10), core.NewDate(2023, 1, 15), false},
		{"target day 31 clamps in february", date(2023, 1, 31), date(2023, 2, 28), core.NewDate(2023, 1, 31), true},
		{"target day 31 not yet clamped", date(2023, 1, 31), date(2023, 2, 27), core.NewDate(2023, 1, 31), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastExecution, tt.now, tt.startDate)
			if got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker(t *testing.T) {
	checker := YearlyChecker{}

	tests := []struct {
		name          string
		lastExecution time.Time
		now           time.Time
		startDate     core.Date
		want          bool
	}{
		{"never executed", time.Time{}, date(2023, 6, 1), core.NewDate(2020, 6, 1), true},
		{"already ran this year", date(2023, 6, 1), date(2023, 12, 1), core.NewDate(2020, 6, 1), false},
		{"new year, before target month", date(2022, 6, 1), date(2023, 5, 1), core.NewDate(2020, 6, 1), false},
		{"new year, target month and day", date(2022, 6, 1), date(2023, 6, 1), core.NewDate(2020, 6, 1), true},
		{"new year, past target month", date(2022, 6, 1), date(2023, 7, 1), core.NewDate(2020, 6, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastExecution, tt.now, tt.startDate)
			if got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	for _, freq := range []core.Repetition{core.Daily, core.Weekly, core.Monthly, core.Yearly} {
		if _, err := GetDuenessChecker(freq); err != nil {
			t.Errorf("GetDuenessChecker(%s) error = %v", freq, err)
		}
	}

	if _, err := GetDuenessChecker("fortnightly"); err == nil {
		t.Error("GetDuenessChecker(fortnightly) should fail")
	}
}
