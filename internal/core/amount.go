// Package core provides finflow's domain value types and the input
// normalization helpers used at the application boundary.
//
// This file converts human-entered monetary values into exact decimals.
// Currency symbols, thousands separators, European decimal commas and
// accounting-style parenthetical negatives are all handled here.
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountJunkRE matches every character that is not part of a numeric
// literal; digits, minus, period, comma and parentheses survive.
var amountJunkRE = regexp.MustCompile(`[^0-9\-.,()]+`)

// ParseAmount converts a user-provided value into a decimal quantized to
// exactly two fractional digits, rounding half-up.
//
// Accepted inputs are enumerated in the single type switch below: strings,
// the integer kinds, the float kinds and decimal.Decimal. Anything else
// fails with ErrUnsupportedType. Strings may carry currency symbols,
// thousands separators in either US or European convention, and
// parentheses for negative amounts:
//
//	ParseAmount("$1,234.56") -> 1234.56
//	ParseAmount("1.234,56")  -> 1234.56
//	ParseAmount("(1,000)")   -> -1000.00
//
// Floats are converted through their shortest decimal string
// representation, never through binary float arithmetic, so values like
// 19.999999999999996 do not leak into results.
func ParseAmount(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("amount is nil: %w", ErrInvalidAmount)
	case decimal.Decimal:
		return v.Round(2), nil
	case int:
		return decimal.NewFromInt(int64(v)).Round(2), nil
	case int32:
		return decimal.NewFromInt32(v).Round(2), nil
	case int64:
		return decimal.NewFromInt(v).Round(2), nil
	case float32:
		return decimal.NewFromFloat32(v).Round(2), nil
	case float64:
		return decimal.NewFromFloat(v).Round(2), nil
	case string:
		return parseAmountString(v)
	default:
		return decimal.Zero, fmt.Errorf("amount type %T: %w", value, ErrUnsupportedType)
	}
}

// ParseAmountOrZero is the lenient variant of ParseAmount: absent, blank
// or unparseable input yields 0.00 instead of an error. Intended for form
// fields where an empty amount means zero.
func ParseAmountOrZero(value any) decimal.Decimal {
	if value == nil {
		return ZeroAmount()
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return ZeroAmount()
	}
	d, err := ParseAmount(value)
	if err != nil {
		return ZeroAmount()
	}
	return d
}

// ZeroAmount returns the canonical zero amount, quantized to two digits.
func ZeroAmount() decimal.Decimal {
	return decimal.New(0, -2)
}

func parseAmountString(s string) (decimal.Decimal, error) {
	orig := strings.TrimSpace(s)
	if orig == "" {
		return decimal.Zero, fmt.Errorf("empty amount string: %w", ErrInvalidAmount)
	}

	cleaned := amountJunkRE.ReplaceAllString(orig, "")

	// Accounting convention: (1,234.56) means -1234.56.
	negative := false
	if strings.Contains(cleaned, "(") && strings.Contains(cleaned, ")") {
		negative = true
	}
	cleaned = strings.NewReplacer("(", "", ")", "").Replace(cleaned)

	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no numeric content in %q: %w", orig, ErrInvalidAmount)
	}

	dot := strings.Index(cleaned, ".")
	comma := strings.Index(cleaned, ",")
	switch {
	case dot >= 0 && comma >= 0:
		// Both separators present: whichever appears first groups
		// thousands, the other is the decimal mark. "1.234,56" is
		// European, "1,234.56" is US.
		if dot < comma {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case comma >= 0:
		// Commas alone group thousands, so "1,234" is 1234 rather than
		// a European 1.234. Callers that mean the latter must write a
		// decimal point.
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	switch cleaned {
	case "", ".", "-":
		return decimal.Zero, fmt.Errorf("cannot parse amount from %q: %w", orig, ErrInvalidAmount)
	}

	if negative && !strings.HasPrefix(cleaned, "-") {
		cleaned = "-" + cleaned
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot parse amount from %q: %w", orig, ErrInvalidAmount)
	}
	return d.Round(2), nil
}

// FormatAmount renders an amount with a sign, an optional currency prefix,
// a grouped integer part and exactly two fractional digits. The sign comes
// before the currency prefix:
//
//	FormatAmount(d, "$", ",") -> "-$1,234.50"
func FormatAmount(amount decimal.Decimal, currency, thousandsSep string) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}

	fixed := amount.Abs().Round(2).StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	if len(intPart) > 3 {
		var b strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				b.WriteString(thousandsSep)
			}
			b.WriteRune(digit)
		}
		intPart = b.String()
	}

	return sign + currency + intPart + "." + fracPart
}
