// Package services provides business logic and orchestration between
// storage, messaging, and the HTTP layer.
package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"

	"finflow/internal/amqp"
	"finflow/internal/core"
	"finflow/internal/log"
	"finflow/internal/storage"
)

// ErrBudgetNotSet is returned when a month has no budget configured.
var ErrBudgetNotSet = errors.New("no budget set for month")

// Repository is the persistence surface the finance service needs. Both
// the SQLite and the in-memory backend satisfy it.
type Repository interface {
	CreateIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error)
	ListIncomes(ctx context.Context, userID int64, limit int) ([]core.IncomeEntry, error)
	ListIncomesInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.IncomeEntry, error)
	DeleteIncome(ctx context.Context, userID, id int64) error
	SumIncomeCents(ctx context.Context, userID int64) (int64, error)
	SumIncomeCentsInRange(ctx context.Context, userID int64, start, end core.Date) (int64, error)

	CreateExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error)
	ListExpenses(ctx context.Context, userID int64, limit int) ([]core.ExpenseEntry, error)
	ListExpensesInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.ExpenseEntry, error)
	DeleteExpense(ctx context.Context, userID, id int64) error
	SumExpenseCents(ctx context.Context, userID int64) (int64, error)
	SumExpenseCentsInRange(ctx context.Context, userID int64, start, end core.Date) (int64, error)
	SumExpenseByCategory(ctx context.Context, userID int64) ([]core.CategoryAmount, error)
	SumExpenseByCategoryInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.CategoryAmount, error)

	UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, userID int64, month string) (core.Budget, error)

	CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error)
	ListRecurringByUser(ctx context.Context, userID int64) ([]core.RecurringTransaction, error)
	DeleteRecurring(ctx context.Context, userID, id int64) error
}

// EventPublisher publishes transaction events. The AMQP client satisfies
// it; a nil publisher disables eventing.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecorded) error
}

// FinanceService orchestrates income, expense, budget, and reporting
// operations for a single-tenant web app.
type FinanceService struct {
	repo      Repository
	publisher EventPublisher
	logger    *log.Logger
	listLimit int
}

func NewFinanceService(repo Repository, publisher EventPublisher, logger *log.Logger, listLimit int) *FinanceService {
	return &FinanceService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentFinance),
		listLimit: listLimit,
	}
}

// CreateIncome validates and persists an income entry, then publishes a
// transaction event. Publish failures are logged, never surfaced: the
// entry is already saved.
func (s *FinanceService) CreateIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	if err := e.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}

	saved, err := s.repo.CreateIncome(ctx, e)
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("save income: %w", err)
	}

	s.logger.InfoContext(ctx, "Income recorded",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, saved.UserID,
		log.FieldEntryID, saved.ID,
		log.FieldCents, saved.Amount.Cents())

	s.publishEvent(ctx, string(core.Income), saved.ID, saved.UserID, saved.Date.MonthToken())

	return saved, nil
}

// CreateExpense validates and persists an expense entry, then publishes a
// transaction event.
func (s *FinanceService) CreateExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, err
	}

	saved, err := s.repo.CreateExpense(ctx, e)
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense recorded",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, saved.UserID,
		log.FieldEntryID, saved.ID,
		log.FieldCategory, saved.Category,
		log.FieldCents, saved.Amount.Cents())

	s.publishEvent(ctx, string(core.Expense), saved.ID, saved.UserID, saved.Date.MonthToken())

	return saved, nil
}

func (s *FinanceService) ListIncomes(ctx context.Context, userID int64) ([]core.IncomeEntry, error) {
	return s.repo.ListIncomes(ctx, userID, s.listLimit)
}

func (s *FinanceService) ListExpenses(ctx context.Context, userID int64) ([]core.ExpenseEntry, error) {
	return s.repo.ListExpenses(ctx, userID, s.listLimit)
}

func (s *FinanceService) DeleteIncome(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteIncome(ctx, userID, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Income deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldUserID, userID,
		log.FieldEntryID, id)
	return nil
}

func (s *FinanceService) DeleteExpense(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldUserID, userID,
		log.FieldEntryID, id)
	return nil
}

// SetBudget stores a monthly budget, normalizing the month token so
// "2024/02" and "2024-2" land on the same row.
func (s *FinanceService) SetBudget(ctx context.Context, userID int64, month string, amount core.Money) (core.Budget, error) {
	canonical, err := core.NormalizeMonth(month)
	if err != nil {
		return core.Budget{}, err
	}

	b := core.Budget{UserID: userID, Month: canonical, Amount: amount}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	saved, err := s.repo.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget set",
		log.FieldOperation, log.OpUpdate,
		log.FieldUserID, userID,
		log.FieldMonth, canonical,
		log.FieldCents, amount.Cents())

	return saved, nil
}

// GetBudget fetches the budget for a month, or ErrBudgetNotSet.
func (s *FinanceService) GetBudget(ctx context.Context, userID int64, month string) (core.Budget, error) {
	canonical, err := core.NormalizeMonth(month)
	if err != nil {
		return core.Budget{}, err
	}

	b, err := s.repo.GetBudget(ctx, userID, canonical)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Budget{}, ErrBudgetNotSet
	}
	return b, err
}

// Totals returns the all-time income, expense, and balance aggregates.
func (s *FinanceService) Totals(ctx context.Context, userID int64) (core.Totals, error) {
	incomeCents, err := s.repo.SumIncomeCents(ctx, userID)
	if err != nil {
		return core.Totals{}, fmt.Errorf("sum income: %w", err)
	}
	expenseCents, err := s.repo.SumExpenseCents(ctx, userID)
	if err != nil {
		return core.Totals{}, fmt.Errorf("sum expenses: %w", err)
	}

	income := core.MoneyFromCents(incomeCents)
	expense := core.MoneyFromCents(expenseCents)
	return core.Totals{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}, nil
}

// ExpenseByCategory returns all-time expense totals per category, largest
// first.
func (s *FinanceService) ExpenseByCategory(ctx context.Context, userID int64) ([]core.CategoryAmount, error) {
	return s.repo.SumExpenseByCategory(ctx, userID)
}

// MonthReport builds the monthly summary: income and expense totals inside
// the month's calendar range, per-category breakdown, and budget standing
// when a budget exists.
func (s *FinanceService) MonthReport(ctx context.Context, userID int64, month string) (core.MonthReport, error) {
	start, end, err := core.MonthRange(month)
	if err != nil {
		return core.MonthReport{}, err
	}
	canonical := core.MonthToken(start.Year(), start.Month())

	incomeCents, err := s.repo.SumIncomeCentsInRange(ctx, userID, start, end)
	if err != nil {
		return core.MonthReport{}, fmt.Errorf("sum income in range: %w", err)
	}
	expenseCents, err := s.repo.SumExpenseCentsInRange(ctx, userID, start, end)
	if err != nil {
		return core.MonthReport{}, fmt.Errorf("sum expenses in range: %w", err)
	}
	byCategory, err := s.repo.SumExpenseByCategoryInRange(ctx, userID, start, end)
	if err != nil {
		return core.MonthReport{}, fmt.Errorf("sum categories in range: %w", err)
	}

	report := core.MonthReport{
		Month:      canonical,
		Start:      start,
		End:        end,
		Income:     core.MoneyFromCents(incomeCents),
		Expense:    core.MoneyFromCents(expenseCents),
		ByCategory: byCategory,
	}

	budget, err := s.repo.GetBudget(ctx, userID, canonical)
	switch {
	case err == nil:
		remaining := budget.Amount.Sub(report.Expense)
		report.Budget = &budget.Amount
		report.Remaining = &remaining
	case errors.Is(err, storage.ErrNotFound):
		// No budget for the month; report totals only.
	default:
		return core.MonthReport{}, fmt.Errorf("get budget: %w", err)
	}

	return report, nil
}

// ExportCSV streams every entry of the user as CSV, oldest first. Incomes
// carry their source in the category column, expenses their category.
func (s *FinanceService) ExportCSV(ctx context.Context, userID int64, w io.Writer) error {
	wide := core.NewDate(1, 1, 1)
	horizon := core.NewDate(9999, 12, 31)

	incomes, err := s.repo.ListIncomesInRange(ctx, userID, wide, horizon)
	if err != nil {
		return fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := s.repo.ListExpensesInRange(ctx, userID, wide, horizon)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	type row struct {
		kind     string
		date     core.Date
		amount   core.Money
		label    string
		note     string
		recordID int64
	}

	rows := make([]row, 0, len(incomes)+len(expenses))
	for _, e := range incomes {
		rows = append(rows, row{string(core.Income), e.Date, e.Amount, e.Source, e.Note, e.ID})
	}
	for _, e := range expenses {
		rows = append(rows, row{string(core.Expense), e.Date, e.Amount, e.Category, e.Note, e.ID})
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].date.Equal(rows[j].date.Time) {
			return rows[i].date.Before(rows[j].date.Time)
		}
		if rows[i].kind != rows[j].kind {
			return rows[i].kind < rows[j].kind
		}
		return rows[i].recordID < rows[j].recordID
	})

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"type", "date", "amount", "category_or_source", "note"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{r.kind, r.date.ISO(), r.amount.String(), r.label, r.note}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	s.logger.InfoContext(ctx, "Exported transactions",
		log.FieldOperation, log.OpExport,
		log.FieldUserID, userID,
		"rows", len(rows))

	return nil
}

// --- Recurring templates ---

func (s *FinanceService) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}

	saved, err := s.repo.CreateRecurring(ctx, rt)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("save recurring transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Recurring transaction created",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, saved.UserID,
		log.FieldEntryID, saved.ID,
		log.FieldKind, string(saved.Kind),
		"every", string(saved.Every))

	return saved, nil
}

func (s *FinanceService) ListRecurring(ctx context.Context, userID int64) ([]core.RecurringTransaction, error) {
	return s.repo.ListRecurringByUser(ctx, userID)
}

func (s *FinanceService) DeleteRecurring(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteRecurring(ctx, userID, id)
}

func (s *FinanceService) publishEvent(ctx context.Context, kind string, id, userID int64, month string) {
	if s.publisher == nil {
		return
	}

	msg := amqp.NewTransactionRecorded(kind, id, userID, month)
	if err := s.publisher.PublishTransactionRecorded(ctx, msg); err != nil {
		// The entry is saved; eventing is best-effort.
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldOperation, log.OpPublish,
			log.FieldKind, kind,
			log.FieldEntryID, id,
			log.FieldError, err.Error())
	}
}
