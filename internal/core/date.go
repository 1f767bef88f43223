package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// isoLayouts are tried first for every string input; ISO dates are by far
// the most common shape coming from HTML date inputs and API clients.
var isoLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// DefaultDateLayouts lists the accepted fallback date formats in
// resolution order. Order matters: an ambiguous input like 03/04/2023
// resolves to the first layout that matches, so day/month/year wins over
// month/day/year. Non-padded layout elements also accept padded digits.
var DefaultDateLayouts = []string{
	"2006-1-2",
	"2-1-2006",
	"2/1/2006",
	"1/2/2006",
	"2006/1/2",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate converts a value into a calendar Date with no time-of-day
// component.
//
// Accepted inputs: a Date or time.Time (truncated to its date, any clock
// time discarded) or a string. Strings resolve in a fixed order: strict
// ISO first, then each candidate layout (the caller-supplied list, or
// DefaultDateLayouts) first-match-wins, and finally an all-digits string
// is read as Unix epoch seconds in UTC. Any other input type fails with
// ErrUnsupportedType.
func ParseDate(value any, layouts ...string) (Date, error) {
	switch v := value.(type) {
	case nil:
		return Date{}, fmt.Errorf("date is nil: %w", ErrInvalidDate)
	case Date:
		return NewDate(v.Year(), v.Month(), v.Day()), nil
	case time.Time:
		return NewDate(v.Year(), int(v.Month()), v.Day()), nil
	case string:
		return parseDateString(v, layouts)
	default:
		return Date{}, fmt.Errorf("date type %T: %w", value, ErrUnsupportedType)
	}
}

// ParseDateOrToday is the lenient variant of ParseDate: absent, blank or
// unparseable input yields today's date instead of an error.
func ParseDateOrToday(value any) Date {
	if value == nil {
		return Today()
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return Today()
	}
	d, err := ParseDate(value)
	if err != nil {
		return Today()
	}
	return d
}

// Today returns the current UTC calendar date.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func parseDateString(s string, layouts []string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date string: %w", ErrInvalidDate)
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}

	candidates := layouts
	if len(candidates) == 0 {
		candidates = DefaultDateLayouts
	}
	for _, layout := range candidates {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}

	if allDigits(s) {
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			t := time.Unix(secs, 0).UTC()
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}

	return Date{}, fmt.Errorf("unrecognized date %q: %w", s, ErrInvalidDate)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
