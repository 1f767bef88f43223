package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

const (
	Monthly Repetition = "monthly"
	Yearly  Repetition = "yearly"
	Weekly  Repetition = "weekly"
	Daily   Repetition = "daily"
)

type (
	TransactionKind string

	Repetition string

	// Date is a calendar date with no time-of-day component, always UTC.
	Date struct {
		time.Time
	}

	// Money is an exact monetary amount quantized to two fractional
	// digits. The zero value is 0.00.
	Money struct {
		Amount decimal.Decimal
	}

	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	IncomeEntry struct {
		ID     int64
		UserID int64
		Amount Money
		Source string
		Date   Date
		Note   string
	}

	ExpenseEntry struct {
		ID       int64
		UserID   int64
		Amount   Money
		Category string
		Date     Date
		Note     string
	}

	// Budget is a per-user monthly spending limit, keyed by a "YYYY-MM"
	// month token.
	Budget struct {
		ID     int64
		UserID int64
		Month  string
		Amount Money
	}

	// RecurringTransaction is a template materialized into income or
	// expense entries whenever its repetition schedule comes due.
	RecurringTransaction struct {
		ID            int64
		UserID        int64
		Kind          TransactionKind
		Amount        Money
		Label         string
		Every         Repetition
		StartDate     Date
		EndDate       Date // zero means open-ended
		LastExecution time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrUnsupportedType = errors.New("unsupported value type")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyEmail      = errors.New("empty email")
	ErrEmptySource     = errors.New("empty source")
	ErrEmptyCategory   = errors.New("empty category")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int (1-12).
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// ISO renders the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Time.Format("2006-01-02")
}

// MonthToken renders the date's month as "YYYY-MM".
func (d Date) MonthToken() string {
	return MonthToken(d.Year(), d.Month())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewMoney builds a Money from a decimal, quantizing to two digits.
func NewMoney(amount decimal.Decimal) Money {
	return Money{Amount: amount.Round(2)}
}

// MoneyFromCents builds a Money from an integer cent count.
func MoneyFromCents(cents int64) Money {
	return Money{Amount: decimal.New(cents, -2)}
}

// Cents returns the amount as an integer cent count. The amount is always
// quantized to two digits, so the conversion is exact.
func (m Money) Cents() int64 {
	return m.Amount.Round(2).Shift(2).IntPart()
}

func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount)}
}

func (m Money) Sub(other Money) Money {
	return Money{Amount: m.Amount.Sub(other.Amount)}
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m Money) Equal(other Money) bool {
	return m.Amount.Equal(other.Amount)
}

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

func (m Money) Validate() error {
	if m.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("malformed email")
	}
	return nil
}

func (i IncomeEntry) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.Source) == "" {
		return ErrEmptySource
	}
	if len(i.Source) > 120 {
		return errors.New("source too long (max 120 characters)")
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if len(i.Note) > 255 {
		return errors.New("note too long (max 255 characters)")
	}
	return nil
}

func (e ExpenseEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Category) > 50 {
		return errors.New("category too long (max 50 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(e.Note) > 255 {
		return errors.New("note too long (max 255 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if _, _, err := MonthRange(b.Month); err != nil {
		return err
	}
	return b.Amount.Validate()
}

func (rt RecurringTransaction) Validate() error {
	if err := rt.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}

	if !rt.EndDate.IsZero() && rt.EndDate.Before(rt.StartDate.Time) {
		return errors.New("end date must not precede start date")
	}

	switch rt.Kind {
	case Income, Expense:
	default:
		return errors.New("invalid transaction kind")
	}

	switch rt.Every {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return errors.New("invalid repetition type")
	}

	if strings.TrimSpace(rt.Label) == "" {
		return errors.New("empty label")
	}
	if len(rt.Label) > 200 {
		return errors.New("label too long (max 200 characters)")
	}

	return rt.Amount.Validate()
}
