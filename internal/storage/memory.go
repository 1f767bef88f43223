package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"finflow/internal/core"
)

// MemoryRepository is an in-memory implementation used by the memory
// backend and by tests. Safe for concurrent use.
type MemoryRepository struct {
	mu sync.RWMutex

	nextID    int64
	users     map[int64]core.User
	incomes   map[int64]core.IncomeEntry
	expenses  map[int64]core.ExpenseEntry
	budgets   map[int64]core.Budget
	recurring map[int64]core.RecurringTransaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:     make(map[int64]core.User),
		incomes:   make(map[int64]core.IncomeEntry),
		expenses:  make(map[int64]core.ExpenseEntry),
		budgets:   make(map[int64]core.Budget),
		recurring: make(map[int64]core.RecurringTransaction),
	}
}

func (m *MemoryRepository) Close() error { return nil }

func (m *MemoryRepository) nextIDLocked() int64 {
	m.nextID++
	return m.nextID
}

// --- Users ---

func (m *MemoryRepository) CreateUser(_ context.Context, u core.User) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.User{}, ErrDuplicateEmail
		}
	}

	u.ID = m.nextIDLocked()
	u.CreatedAt = time.Now().UTC()
	m.users[u.ID] = u
	return u, nil
}

func (m *MemoryRepository) GetUserByID(_ context.Context, id int64) (core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return core.User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryRepository) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, ErrNotFound
}

// --- Incomes ---

func (m *MemoryRepository) CreateIncome(_ context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = m.nextIDLocked()
	m.incomes[e.ID] = e
	return e, nil
}

func (m *MemoryRepository) ListIncomes(_ context.Context, userID int64, limit int) ([]core.IncomeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []core.IncomeEntry
	for _, e := range m.incomes {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date.Time) {
			return entries[i].Date.After(entries[j].Date.Time)
		}
		return entries[i].ID > entries[j].ID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MemoryRepository) ListIncomesInRange(_ context.Context, userID int64, start, end core.Date) ([]core.IncomeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []core.IncomeEntry
	for _, e := range m.incomes {
		if e.UserID == userID && inRange(e.Date, start, end) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date.Time) {
			return entries[i].Date.Before(entries[j].Date.Time)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func (m *MemoryRepository) DeleteIncome(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.incomes[id]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	delete(m.incomes, id)
	return nil
}

func (m *MemoryRepository) SumIncomeCents(_ context.Context, userID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, e := range m.incomes {
		if e.UserID == userID {
			total += e.Amount.Cents()
		}
	}
	return total, nil
}

func (m *MemoryRepository) SumIncomeCentsInRange(_ context.Context, userID int64, start, end core.Date) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, e := range m.incomes {
		if e.UserID == userID && inRange(e.Date, start, end) {
			total += e.Amount.Cents()
		}
	}
	return total, nil
}

// --- Expenses ---

func (m *MemoryRepository) CreateExpense(_ context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = m.nextIDLocked()
	m.expenses[e.ID] = e
	return e, nil
}

func (m *MemoryRepository) ListExpenses(_ context.Context, userID int64, limit int) ([]core.ExpenseEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []core.ExpenseEntry
	for _, e := range m.expenses {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date.Time) {
			return entries[i].Date.After(entries[j].Date.Time)
		}
		return entries[i].ID > entries[j].ID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MemoryRepository) ListExpensesInRange(_ context.Context, userID int64, start, end core.Date) ([]core.ExpenseEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []core.ExpenseEntry
	for _, e := range m.expenses {
		if e.UserID == userID && inRange(e.Date, start, end) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date.Time) {
			return entries[i].Date.Before(entries[j].Date.Time)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func (m *MemoryRepository) DeleteExpense(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.expenses[id]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *MemoryRepository) SumExpenseCents(_ context.Context, userID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, e := range m.expenses {
		if e.UserID == userID {
			total += e.Amount.Cents()
		}
	}
	return total, nil
}

func (m *MemoryRepository) SumExpenseCentsInRange(_ context.Context, userID int64, start, end core.Date) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, e := range m.expenses {
		if e.UserID == userID && inRange(e.Date, start, end) {
			total += e.Amount.Cents()
		}
	}
	return total, nil
}

func (m *MemoryRepository) SumExpenseByCategory(_ context.Context, userID int64) ([]core.CategoryAmount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := make(map[string]int64)
	for _, e := range m.expenses {
		if e.UserID == userID {
			totals[e.Category] += e.Amount.Cents()
		}
	}
	return categorySums(totals), nil
}

func (m *MemoryRepository) SumExpenseByCategoryInRange(_ context.Context, userID int64, start, end core.Date) ([]core.CategoryAmount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := make(map[string]int64)
	for _, e := range m.expenses {
		if e.UserID == userID && inRange(e.Date, start, end) {
			totals[e.Category] += e.Amount.Cents()
		}
	}
	return categorySums(totals), nil
}

// --- Budgets ---

func (m *MemoryRepository) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.budgets {
		if existing.UserID == b.UserID && existing.Month == b.Month {
			b.ID = id
			m.budgets[id] = b
			return b, nil
		}
	}

	b.ID = m.nextIDLocked()
	m.budgets[b.ID] = b
	return b, nil
}

func (m *MemoryRepository) GetBudget(_ context.Context, userID int64, month string) (core.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.budgets {
		if b.UserID == userID && b.Month == month {
			return b, nil
		}
	}
	return core.Budget{}, ErrNotFound
}

func (m *MemoryRepository) ListBudgetsForMonth(_ context.Context, month string) ([]core.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var budgets []core.Budget
	for _, b := range m.budgets {
		if b.Month == month {
			budgets = append(budgets, b)
		}
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].UserID < budgets[j].UserID })
	return budgets, nil
}

// --- Recurring transactions ---

func (m *MemoryRepository) CreateRecurring(_ context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rt.ID = m.nextIDLocked()
	m.recurring[rt.ID] = rt
	return rt, nil
}

func (m *MemoryRepository) ListRecurring(_ context.Context) ([]core.RecurringTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []core.RecurringTransaction
	for _, rt := range m.recurring {
		entries = append(entries, rt)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (m *MemoryRepository) ListRecurringByUser(_ context.Context, userID int64) ([]core.RecurringTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []core.RecurringTransaction
	for _, rt := range m.recurring {
		if rt.UserID == userID {
			entries = append(entries, rt)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (m *MemoryRepository) UpdateRecurringLastExecution(_ context.Context, id int64, executed time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rt, ok := m.recurring[id]
	if !ok {
		return ErrNotFound
	}
	rt.LastExecution = executed.UTC()
	m.recurring[id] = rt
	return nil
}

func (m *MemoryRepository) DeleteRecurring(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rt, ok := m.recurring[id]
	if !ok || rt.UserID != userID {
		return ErrNotFound
	}
	delete(m.recurring, id)
	return nil
}

// --- helpers ---

func inRange(d, start, end core.Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}

func categorySums(totals map[string]int64) []core.CategoryAmount {
	sums := make([]core.CategoryAmount, 0, len(totals))
	for category, cents := range totals {
		sums = append(sums, core.CategoryAmount{
			Category: category,
			Amount:   core.MoneyFromCents(cents),
		})
	}
	sort.Slice(sums, func(i, j int) bool {
		if sums[i].Amount.Cents() != sums[j].Amount.Cents() {
			return sums[i].Amount.Cents() > sums[j].Amount.Cents()
		}
		return sums[i].Category < sums[j].Category
	})
	return sums
}
