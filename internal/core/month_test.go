package core

import (
	"errors"
	"testing"
)

func TestMonthRange(t *testing.T) {
	cases := []struct {
		in    string
		start Date
		end   Date
	}{
		{"2024-02", NewDate(2024, 2, 1), NewDate(2024, 2, 29)}, // leap year
		{"2023-02", NewDate(2023, 2, 1), NewDate(2023, 2, 28)},
		{"2023-12", NewDate(2023, 12, 1), NewDate(2023, 12, 31)}, // year rollover
		{"2023-04", NewDate(2023, 4, 1), NewDate(2023, 4, 30)},
		{"2023/07", NewDate(2023, 7, 1), NewDate(2023, 7, 31)},
		{" 2023-01 ", NewDate(2023, 1, 1), NewDate(2023, 1, 31)},
	}
	for _, tc := range cases {
		start, end, err := MonthRange(tc.in)
		if err != nil {
			t.Fatalf("MonthRange(%q) unexpected error: %v", tc.in, err)
		}
		if !start.Equal(tc.start.Time) || !end.Equal(tc.end.Time) {
			t.Fatalf("MonthRange(%q) = (%s, %s), want (%s, %s)",
				tc.in, start.ISO(), end.ISO(), tc.start.ISO(), tc.end.ISO())
		}
	}
}

func TestMonthRangeFailures(t *testing.T) {
	for _, in := range []string{"", "2023", "2023-13", "2023-00", "year-month", "2023-xx"} {
		if _, _, err := MonthRange(in); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("MonthRange(%q) error = %v, want ErrInvalidMonth", in, err)
		}
	}
}

func TestNormalizeMonth(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"2023-02", "2023-02"},
		{"2023/2", "2023-02"},
		{" 2024-12 ", "2024-12"},
	}
	for _, tc := range cases {
		got, err := NormalizeMonth(tc.in)
		if err != nil {
			t.Fatalf("NormalizeMonth(%q) unexpected error: %v", tc.in, err)
		}
		if got != tc.out {
			t.Fatalf("NormalizeMonth(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
	if _, err := NormalizeMonth("2023-13"); err == nil {
		t.Fatal("expected error for month 13")
	}
}
