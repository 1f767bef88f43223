package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateStrings(t *testing.T) {
	cases := []struct {
		in   string
		want Date
	}{
		{"2023-02-15", NewDate(2023, 2, 15)},
		{" 2023-02-15 ", NewDate(2023, 2, 15)},
		{"2023-2-5", NewDate(2023, 2, 5)},
		{"2023-02-15T10:30:00", NewDate(2023, 2, 15)},
		{"15-02-2023", NewDate(2023, 2, 15)},
		{"15/02/2023", NewDate(2023, 2, 15)}, // DD/MM wins over MM/DD
		{"02/15/2023", NewDate(2023, 2, 15)}, // month 15 impossible, MM/DD matches
		{"2023/02/15", NewDate(2023, 2, 15)},
		{"1 Jan 2022", NewDate(2022, 1, 1)},
		{"01 January 2022", NewDate(2022, 1, 1)},
		{"Jan 1, 2022", NewDate(2022, 1, 1)},
		{"February 15, 2023", NewDate(2023, 2, 15)},
		{"1672531200", NewDate(2023, 1, 1)}, // epoch seconds, UTC
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if err != nil {
			t.Fatalf("ParseDate(%q) unexpected error: %v", tc.in, err)
		}
		if !got.Equal(tc.want.Time) {
			t.Fatalf("ParseDate(%q) = %s, want %s", tc.in, got.ISO(), tc.want.ISO())
		}
	}
}

func TestParseDateAmbiguityOrder(t *testing.T) {
	// Both DD/MM and MM/DD fit; the first layout in the list must win.
	got, err := ParseDate("03/04/2023")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := NewDate(2023, 4, 3); !got.Equal(want.Time) {
		t.Fatalf("got %s, want %s (day/month before month/day)", got.ISO(), want.ISO())
	}
}

func TestParseDateCallerLayouts(t *testing.T) {
	got, err := ParseDate("03/04/2023", "1/2/2006")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := NewDate(2023, 3, 4); !got.Equal(want.Time) {
		t.Fatalf("caller layouts should replace the defaults, got %s", got.ISO())
	}
}

func TestParseDateTypedInputs(t *testing.T) {
	ts := time.Date(2023, 2, 15, 13, 45, 12, 0, time.UTC)
	got, err := ParseDate(ts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := NewDate(2023, 2, 15); !got.Equal(want.Time) {
		t.Fatalf("time-of-day should be discarded, got %s", got.ISO())
	}

	got, err = ParseDate(NewDate(2024, 6, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := NewDate(2024, 6, 1); !got.Equal(want.Time) {
		t.Fatalf("Date input should pass through, got %s", got.ISO())
	}
}

func TestParseDateFailures(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-date", "2023-13-40", "13/13/2023"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseDate(%q) error = %v, want ErrInvalidDate", in, err)
		}
	}
	if _, err := ParseDate(42); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType for int input, got %v", err)
	}
}

func TestParseDateOrToday(t *testing.T) {
	today := Today()
	for _, in := range []any{nil, "", "   ", "not-a-date"} {
		if got := ParseDateOrToday(in); !got.Equal(today.Time) {
			t.Fatalf("ParseDateOrToday(%v) = %s, want today", in, got.ISO())
		}
	}
	if got := ParseDateOrToday("2023-02-15"); !got.Equal(NewDate(2023, 2, 15).Time) {
		t.Fatalf("valid input should still parse, got %s", got.ISO())
	}
}
