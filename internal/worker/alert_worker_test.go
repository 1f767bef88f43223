package worker

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"finflow/internal/amqp"
	"finflow/internal/core"
	"finflow/internal/log"
	"finflow/internal/storage"
)

// recordingHandler captures log records so tests can assert on alerts.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, r)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) messages(level slog.Level) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var msgs []string
	for _, r := range h.records {
		if r.Level == level {
			msgs = append(msgs, r.Message)
		}
	}
	return msgs
}

func newTestWorker(t *testing.T) (*AlertWorker, *storage.MemoryRepository, *recordingHandler) {
	t.Helper()
	handler := &recordingHandler{}
	logger := log.New(log.Config{Handler: handler, Component: log.ComponentWorker})
	repo := storage.NewMemoryRepository()
	return NewAlertWorker(repo, logger), repo, handler
}

func seedBudgetAndSpend(t *testing.T, repo *storage.MemoryRepository, budgetCents, spentCents int64) {
	t.Helper()
	ctx := context.Background()

	if _, err := repo.UpsertBudget(ctx, core.Budget{
		UserID: 1,
		Month:  "2023-02",
		Amount: core.MoneyFromCents(budgetCents),
	}); err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}

	if spentCents > 0 {
		if _, err := repo.CreateExpense(ctx, core.ExpenseEntry{
			UserID:   1,
			Amount:   core.MoneyFromCents(spentCents),
			Category: "Food",
			Date:     core.NewDate(2023, 2, 10),
		}); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}
}

func TestHandleTransactionRecordedAlertsOnOverrun(t *testing.T) {
	w, repo, handler := newTestWorker(t)
	seedBudgetAndSpend(t, repo, 100000, 120000)

	err := w.HandleTransactionRecorded(context.Background(), &amqp.TransactionRecorded{
		Kind:   "expense",
		ID:     1,
		UserID: 1,
		Month:  "2023-02",
	})
	if err != nil {
		t.Fatalf("HandleTransactionRecorded: %v", err)
	}

	warns := handler.messages(slog.LevelWarn)
	if len(warns) != 1 || warns[0] != "Budget exceeded" {
		t.Errorf("warnings = %v, want [Budget exceeded]", warns)
	}
}

func TestHandleTransactionRecordedWarnsNearLimit(t *testing.T) {
	w, repo, handler := newTestWorker(t)
	seedBudgetAndSpend(t, repo, 100000, 95000)

	if err := w.HandleTransactionRecorded(context.Background(), &amqp.TransactionRecorded{
		Kind:   "expense",
		UserID: 1,
		Month:  "2023-02",
	}); err != nil {
		t.Fatalf("HandleTransactionRecorded: %v", err)
	}

	warns := handler.messages(slog.LevelWarn)
	if len(warns) != 1 || warns[0] != "Budget nearly exhausted" {
		t.Errorf("warnings = %v, want [Budget nearly exhausted]", warns)
	}
}

func TestHandleTransactionRecordedIgnoresIncomeAndMissingBudget(t *testing.T) {
	w, repo, handler := newTestWorker(t)
	seedBudgetAndSpend(t, repo, 100000, 200000)

	ctx := context.Background()

	// Income events never alert, even over budget.
	if err := w.HandleTransactionRecorded(ctx, &amqp.TransactionRecorded{
		Kind:   "income",
		UserID: 1,
		Month:  "2023-02",
	}); err != nil {
		t.Fatalf("HandleTransactionRecorded(income): %v", err)
	}

	// No budget configured for that month.
	if err := w.HandleTransactionRecorded(ctx, &amqp.TransactionRecorded{
		Kind:   "expense",
		UserID: 1,
		Month:  "2023-03",
	}); err != nil {
		t.Fatalf("HandleTransactionRecorded(no budget): %v", err)
	}

	if warns := handler.messages(slog.LevelWarn); len(warns) != 0 {
		t.Errorf("warnings = %v, want none", warns)
	}
}

func TestScanMonth(t *testing.T) {
	w, repo, handler := newTestWorker(t)
	ctx := context.Background()

	seedBudgetAndSpend(t, repo, 50000, 60000)
	if _, err := repo.UpsertBudget(ctx, core.Budget{
		UserID: 2,
		Month:  "2023-02",
		Amount: core.MoneyFromCents(100000),
	}); err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}

	if err := w.ScanMonth(ctx, "2023/02"); err != nil {
		t.Fatalf("ScanMonth: %v", err)
	}

	warns := handler.messages(slog.LevelWarn)
	if len(warns) != 1 || warns[0] != "Budget exceeded" {
		t.Errorf("warnings = %v, want [Budget exceeded]", warns)
	}

	if err := w.ScanMonth(ctx, "2023-13"); err == nil {
		t.Error("ScanMonth(2023-13) should fail")
	}
}

func TestScanCurrentMonthUsesNow(t *testing.T) {
	w, repo, handler := newTestWorker(t)
	ctx := context.Background()

	now := time.Date(2023, 2, 20, 12, 0, 0, 0, time.UTC)
	seedBudgetAndSpend(t, repo, 10000, 20000)

	if err := w.ScanCurrentMonth(ctx, now); err != nil {
		t.Fatalf("ScanCurrentMonth: %v", err)
	}

	warns := handler.messages(slog.LevelWarn)
	if len(warns) != 1 {
		t.Errorf("warnings = %v, want one", warns)
	}
}
