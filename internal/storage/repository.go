package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finflow/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist or belongs
// to a different user.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when registering an email that is taken.
var ErrDuplicateEmail = errors.New("email already registered")

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- Users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, ErrDuplicateEmail
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user id: %w", err)
	}

	return r.GetUserByID(ctx, id)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// --- Incomes ---

func (r *SQLiteRepository) CreateIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (user_id, amount_cents, source, date, note) VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.Amount.Cents(), e.Source, e.Date.ISO(), e.Note)
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("create income: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("create income id: %w", err)
	}

	e.ID = id
	return e, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, userID int64, limit int) ([]core.IncomeEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, source, date, note
		 FROM incomes WHERE user_id = ? ORDER BY date DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	return collectIncomes(rows)
}

func (r *SQLiteRepository) ListIncomesInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.IncomeEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, source, date, note
		 FROM incomes WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date ASC, id ASC`,
		userID, start.ISO(), end.ISO())
	if err != nil {
		return nil, fmt.Errorf("list incomes in range: %w", err)
	}
	defer rows.Close()

	return collectIncomes(rows)
}

func collectIncomes(rows *sql.Rows) ([]core.IncomeEntry, error) {
	var entries []core.IncomeEntry
	for rows.Next() {
		var (
			e     core.IncomeEntry
			cents int64
			date  string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &cents, &e.Source, &date, &e.Note); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		e.Amount = core.MoneyFromCents(cents)
		parsed, err := parseStoredDate(date)
		if err != nil {
			return nil, err
		}
		e.Date = parsed
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM incomes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) SumIncomeCents(ctx context.Context, userID int64) (int64, error) {
	return r.sumCents(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM incomes WHERE user_id = ?`, userID)
}

func (r *SQLiteRepository) SumIncomeCentsInRange(ctx context.Context, userID int64, start, end core.Date) (int64, error) {
	return r.sumCents(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM incomes WHERE user_id = ? AND date >= ? AND date <= ?`,
		userID, start.ISO(), end.ISO())
}

// --- Expenses ---

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, amount_cents, category, date, note) VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.Amount.Cents(), e.Category, e.Date.ISO(), e.Note)
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("create expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("create expense id: %w", err)
	}

	e.ID = id
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64, limit int) ([]core.ExpenseEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, category, date, note
		 FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

func (r *SQLiteRepository) ListExpensesInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.ExpenseEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, category, date, note
		 FROM expenses WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date ASC, id ASC`,
		userID, start.ISO(), end.ISO())
	if err != nil {
		return nil, fmt.Errorf("list expenses in range: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

func collectExpenses(rows *sql.Rows) ([]core.ExpenseEntry, error) {
	var entries []core.ExpenseEntry
	for rows.Next() {
		var (
			e     core.ExpenseEntry
			cents int64
			date  string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &cents, &e.Category, &date, &e.Note); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Amount = core.MoneyFromCents(cents)
		parsed, err := parseStoredDate(date)
		if err != nil {
			return nil, err
		}
		e.Date = parsed
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) SumExpenseCents(ctx context.Context, userID int64) (int64, error) {
	return r.sumCents(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE user_id = ?`, userID)
}

func (r *SQLiteRepository) SumExpenseCentsInRange(ctx context.Context, userID int64, start, end core.Date) (int64, error) {
	return r.sumCents(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE user_id = ? AND date >= ? AND date <= ?`,
		userID, start.ISO(), end.ISO())
}

func (r *SQLiteRepository) SumExpenseByCategory(ctx context.Context, userID int64) ([]core.CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) AS total
		 FROM expenses WHERE user_id = ?
		 GROUP BY category ORDER BY total DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sum expenses by category: %w", err)
	}
	defer rows.Close()

	return collectCategorySums(rows)
}

func (r *SQLiteRepository) SumExpenseByCategoryInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) AS total
		 FROM expenses WHERE user_id = ? AND date >= ? AND date <= ?
		 GROUP BY category ORDER BY total DESC`,
		userID, start.ISO(), end.ISO())
	if err != nil {
		return nil, fmt.Errorf("sum expenses by category in range: %w", err)
	}
	defer rows.Close()

	return collectCategorySums(rows)
}

func collectCategorySums(rows *sql.Rows) ([]core.CategoryAmount, error) {
	var sums []core.CategoryAmount
	for rows.Next() {
		var (
			category string
			cents    int64
		)
		if err := rows.Scan(&category, &cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		sums = append(sums, core.CategoryAmount{
			Category: category,
			Amount:   core.MoneyFromCents(cents),
		})
	}
	return sums, rows.Err()
}

// --- Budgets ---

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, month, amount_cents)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id, month) DO UPDATE SET
		   amount_cents = excluded.amount_cents,
		   updated_at = CURRENT_TIMESTAMP`,
		b.UserID, b.Month, b.Amount.Cents())
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	return r.GetBudget(ctx, b.UserID, b.Month)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID int64, month string) (core.Budget, error) {
	var (
		b     core.Budget
		cents int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, month, amount_cents FROM budgets WHERE user_id = ? AND month = ?`,
		userID, month).Scan(&b.ID, &b.UserID, &b.Month, &cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	b.Amount = core.MoneyFromCents(cents)
	return b, nil
}

func (r *SQLiteRepository) ListBudgetsForMonth(ctx context.Context, month string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, month, amount_cents FROM budgets WHERE month = ?`, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets for month: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			b     core.Budget
			cents int64
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Month, &cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Amount = core.MoneyFromCents(cents)
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// --- Recurring transactions ---

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	var endDate any
	if !rt.EndDate.IsZero() {
		endDate = rt.EndDate.ISO()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions (user_id, kind, amount_cents, label, every, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rt.UserID, string(rt.Kind), rt.Amount.Cents(), rt.Label, string(rt.Every), rt.StartDate.ISO(), endDate)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction id: %w", err)
	}

	rt.ID = id
	return rt, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, amount_cents, label, every, start_date, end_date, last_execution
		 FROM recurring_transactions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()

	return collectRecurring(rows)
}

func (r *SQLiteRepository) ListRecurringByUser(ctx context.Context, userID int64) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, amount_cents, label, every, start_date, end_date, last_execution
		 FROM recurring_transactions WHERE user_id = ? ORDER BY id ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()

	return collectRecurring(rows)
}

func collectRecurring(rows *sql.Rows) ([]core.RecurringTransaction, error) {
	var entries []core.RecurringTransaction
	for rows.Next() {
		var (
			rt            core.RecurringTransaction
			kind, every   string
			cents         int64
			startDate     string
			endDate       sql.NullString
			lastExecution sql.NullString
		)
		if err := rows.Scan(&rt.ID, &rt.UserID, &kind, &cents, &rt.Label, &every, &startDate, &endDate, &lastExecution); err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}

		rt.Kind = core.TransactionKind(kind)
		rt.Every = core.Repetition(every)
		rt.Amount = core.MoneyFromCents(cents)

		parsed, err := parseStoredDate(startDate)
		if err != nil {
			return nil, err
		}
		rt.StartDate = parsed

		if endDate.Valid {
			parsed, err := parseStoredDate(endDate.String)
			if err != nil {
				return nil, err
			}
			rt.EndDate = parsed
		}
		if lastExecution.Valid {
			parsed, err := parseStoredDate(lastExecution.String)
			if err != nil {
				return nil, err
			}
			rt.LastExecution = parsed.Time
		}

		entries = append(entries, rt)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) UpdateRecurringLastExecution(ctx context.Context, id int64, executed time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET last_execution = ? WHERE id = ?`,
		executed.UTC().Format(dateLayout), id)
	if err != nil {
		return fmt.Errorf("update recurring last execution: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	return requireAffected(res)
}

// --- helpers ---

func (r *SQLiteRepository) sumCents(ctx context.Context, query string, args ...any) (int64, error) {
	var cents int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return 0, fmt.Errorf("sum cents: %w", err)
	}
	return cents, nil
}

func parseStoredDate(value string) (core.Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse stored date %q: %w", value, err)
	}
	return core.Date{Time: t}, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// modernc.org/sqlite reports constraint failures by message; there is
	// no exported error type to match against.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
