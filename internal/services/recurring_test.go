package services

import (
	"context"
	"testing"
	"time"

	"finflow/internal/core"
	"finflow/internal/log"
	"finflow/internal/storage"
)

func newTestProcessor(t *testing.T) (*RecurringProcessor, *FinanceService, *storage.MemoryRepository) {
	t.Helper()
	repo := storage.NewMemoryRepository()
	logger := log.New(log.DefaultConfig())
	finance := NewFinanceService(repo, nil, logger, 50)
	return NewRecurringProcessor(repo, finance, logger), finance, repo
}

func TestProcessDueMaterializesTemplates(t *testing.T) {
	proc, finance, repo := newTestProcessor(t)
	ctx := context.Background()

	if _, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		UserID:    1,
		Kind:      core.Expense,
		Amount:    core.MoneyFromCents(99900),
		Label:     "Rent",
		Every:     core.Monthly,
		StartDate: core.NewDate(2023, 1, 1),
	}); err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}
	if _, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		UserID:    1,
		Kind:      core.Income,
		Amount:    core.MoneyFromCents(250000),
		Label:     "Salary",
		Every:     core.Monthly,
		StartDate: core.NewDate(2023, 1, 25),
	}); err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	now := time.Date(2023, 2, 26, 10, 0, 0, 0, time.UTC)
	processed, err := proc.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if processed != 2 {
		t.Fatalf("processed = %d, want 2", processed)
	}

	expenses, err := finance.ListExpenses(ctx, 1)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 1 || expenses[0].Category != "Rent" || expenses[0].Date.ISO() != "2023-02-26" {
		t.Errorf("expenses = %+v", expenses)
	}

	incomes, err := finance.ListIncomes(ctx, 1)
	if err != nil {
		t.Fatalf("ListIncomes: %v", err)
	}
	if len(incomes) != 1 || incomes[0].Source != "Salary" {
		t.Errorf("incomes = %+v", incomes)
	}
}

func TestProcessDueDoesNotDuplicate(t *testing.T) {
	proc, finance, repo := newTestProcessor(t)
	ctx := context.Background()

	if _, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		UserID:    1,
		Kind:      core.Expense,
		Amount:    core.MoneyFromCents(1500),
		Label:     "Streaming",
		Every:     core.Monthly,
		StartDate: core.NewDate(2023, 1, 5),
	}); err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	now := time.Date(2023, 2, 5, 8, 0, 0, 0, time.UTC)
	if _, err := proc.ProcessDue(ctx, now); err != nil {
		t.Fatalf("first ProcessDue: %v", err)
	}

	processed, err := proc.ProcessDue(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second ProcessDue: %v", err)
	}
	if processed != 0 {
		t.Errorf("second run processed = %d, want 0", processed)
	}

	expenses, err := finance.ListExpenses(ctx, 1)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Errorf("got %d expenses, want 1", len(expenses))
	}
}

func TestProcessDueSkipsInactiveTemplates(t *testing.T) {
	proc, finance, repo := newTestProcessor(t)
	ctx := context.Background()

	// Not started yet.
	if _, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		UserID:    1,
		Kind:      core.Expense,
		Amount:    core.MoneyFromCents(100),
		Label:     "Future",
		Every:     core.Daily,
		StartDate: core.NewDate(2023, 6, 1),
	}); err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	// Already ended.
	if _, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		UserID:    1,
		Kind:      core.Expense,
		Amount:    core.MoneyFromCents(100),
		Label:     "Expired",
		Every:     core.Daily,
		StartDate: core.NewDate(2022, 1, 1),
		EndDate:   core.NewDate(2022, 12, 31),
	}); err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	processed, err := proc.ProcessDue(ctx, time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if processed != 0 {
		t.Errorf("processed = %d, want 0", processed)
	}

	expenses, err := finance.ListExpenses(ctx, 1)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 0 {
		t.Errorf("got %d expenses, want 0", len(expenses))
	}
}
