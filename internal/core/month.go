package core

import (
	"fmt"
	"strconv"
	"strings"
)

// MonthRange expands a month token like "2024-02" (or "2024/02") into the
// first and last calendar day of that month. The end date is inclusive and
// is computed as the first day of the next month minus one day, so leap
// Februaries and the December rollover need no special casing.
func MonthRange(month string) (Date, Date, error) {
	m := strings.ReplaceAll(strings.TrimSpace(month), "/", "-")
	parts := strings.Split(m, "-")
	if len(parts) < 2 {
		return Date{}, Date{}, fmt.Errorf("month token %q: want YYYY-MM: %w", month, ErrInvalidMonth)
	}

	year, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Date{}, Date{}, fmt.Errorf("month token %q: bad year: %w", month, ErrInvalidMonth)
	}
	mon, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Date{}, Date{}, fmt.Errorf("month token %q: bad month: %w", month, ErrInvalidMonth)
	}

	start := NewDate(year, mon, 1)
	// time.Date normalizes out-of-range months (13 becomes January of the
	// next year); reject anything that does not survive the round trip.
	if start.Year() != year || start.Month() != mon {
		return Date{}, Date{}, fmt.Errorf("month token %q: no such month: %w", month, ErrInvalidMonth)
	}

	end := Date{Time: start.AddDate(0, 1, -1)}
	return start, end, nil
}

// NormalizeMonth validates a month token and returns it in canonical
// "YYYY-MM" form.
func NormalizeMonth(month string) (string, error) {
	start, _, err := MonthRange(month)
	if err != nil {
		return "", err
	}
	return MonthToken(start.Year(), start.Month()), nil
}

// MonthToken renders a year and month as a "YYYY-MM" token.
func MonthToken(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
