package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMoneyCentsRoundTrip(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
	}{
		{"0.00", 0},
		{"0.01", 1},
		{"12.34", 1234},
		{"-12.34", -1234},
		{"1000.00", 100000},
	}
	for _, tc := range cases {
		m := NewMoney(decimal.RequireFromString(tc.in))
		if got := m.Cents(); got != tc.cents {
			t.Fatalf("Cents(%s) = %d, want %d", tc.in, got, tc.cents)
		}
		if back := MoneyFromCents(tc.cents); !back.Equal(m) {
			t.Fatalf("MoneyFromCents(%d) = %s, want %s", tc.cents, back, m)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := MoneyFromCents(100).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{}).Validate(); err != nil {
		t.Fatalf("zero amount is allowed, got %v", err)
	}
	if err := MoneyFromCents(-1).Validate(); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestIncomeEntryValidate(t *testing.T) {
	good := IncomeEntry{
		UserID: 1,
		Amount: MoneyFromCents(100),
		Source: "Salary",
		Date:   NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []IncomeEntry{
		{Amount: MoneyFromCents(1), Source: "Salary"},                             // zero date
		{Amount: MoneyFromCents(1), Source: "", Date: NewDate(2025, 1, 1)},        // no source
		{Amount: MoneyFromCents(-1), Source: "Salary", Date: NewDate(2025, 1, 1)}, // negative
	}
	for i, in := range bads {
		if err := in.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseEntryValidate(t *testing.T) {
	good := ExpenseEntry{
		UserID:   1,
		Amount:   MoneyFromCents(250),
		Category: "Food",
		Date:     NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Category = "  "
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for blank category")
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{UserID: 1, Month: "2025-03", Amount: MoneyFromCents(50000)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, month := range []string{"", "2025", "2025-13"} {
		b := good
		b.Month = month
		if err := b.Validate(); err == nil {
			t.Fatalf("expected error for month %q", month)
		}
	}
}

func TestRecurringTransactionValidate(t *testing.T) {
	good := RecurringTransaction{
		UserID:    1,
		Kind:      Expense,
		Amount:    MoneyFromCents(999),
		Label:     "Rent",
		Every:     Monthly,
		StartDate: NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []func(rt *RecurringTransaction){
		func(rt *RecurringTransaction) { rt.StartDate = Date{Time: time.Time{}} },
		func(rt *RecurringTransaction) { rt.EndDate = NewDate(2024, 12, 31) },
		func(rt *RecurringTransaction) { rt.Kind = "transfer" },
		func(rt *RecurringTransaction) { rt.Every = "fortnightly" },
		func(rt *RecurringTransaction) { rt.Label = "" },
	}
	for i, mutate := range bads {
		rt := good
		mutate(&rt)
		if err := rt.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestUserValidate(t *testing.T) {
	good := User{Name: "Ada", Email: "ada@example.com"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, u := range []User{
		{Name: "", Email: "a@b.c"},
		{Name: "Ada", Email: ""},
		{Name: "Ada", Email: "not-an-email"},
	} {
		if err := u.Validate(); err == nil {
			t.Fatalf("expected error for %+v", u)
		}
	}
}
