// Package worker contains the background consumers that react to
// transaction events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finflow/internal/amqp"
	"finflow/internal/core"
	"finflow/internal/log"
	"finflow/internal/storage"
)

// BudgetStore is the storage surface the alert worker reads from.
type BudgetStore interface {
	GetBudget(ctx context.Context, userID int64, month string) (core.Budget, error)
	ListBudgetsForMonth(ctx context.Context, month string) ([]core.Budget, error)
	SumExpenseCentsInRange(ctx context.Context, userID int64, start, end core.Date) (int64, error)
}

// AlertWorker checks spending against monthly budgets. It reacts to
// transaction events as they arrive and periodically rescans the current
// month to catch events lost while the broker was down.
type AlertWorker struct {
	store  BudgetStore
	logger *log.Logger

	// warnThreshold is the budget fraction above which a warning fires
	// before the budget is actually exceeded.
	warnThreshold float64
}

func NewAlertWorker(store BudgetStore, logger *log.Logger) *AlertWorker {
	return &AlertWorker{
		store:         store,
		logger:        logger.WithComponent(log.ComponentWorker),
		warnThreshold: 0.9,
	}
}

// HandleTransactionRecorded processes a single transaction event.
func (w *AlertWorker) HandleTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecorded) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldOperation, log.OpConsume,
		log.FieldKind, msg.Kind,
		log.FieldEntryID, msg.ID,
		log.FieldUserID, msg.UserID,
		log.FieldMonth, msg.Month)

	// Only spending can push a month over budget.
	if msg.Kind != string(core.Expense) {
		return nil
	}

	return w.checkBudget(ctx, msg.UserID, msg.Month)
}

// ScanMonth re-evaluates every budget configured for the given month.
func (w *AlertWorker) ScanMonth(ctx context.Context, month string) error {
	canonical, err := core.NormalizeMonth(month)
	if err != nil {
		return err
	}

	budgets, err := w.store.ListBudgetsForMonth(ctx, canonical)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}

	w.logger.InfoContext(ctx, "Scanning budgets",
		log.FieldOperation, log.OpScan,
		log.FieldMonth, canonical,
		"budgets", len(budgets))

	for _, b := range budgets {
		if err := w.checkBudget(ctx, b.UserID, canonical); err != nil {
			w.logger.ErrorContext(ctx, "Budget check failed",
				log.FieldUserID, b.UserID,
				log.FieldMonth, canonical,
				log.FieldError, err.Error())
		}
	}

	return nil
}

// ScanCurrentMonth is the periodic entry point.
func (w *AlertWorker) ScanCurrentMonth(ctx context.Context, now time.Time) error {
	return w.ScanMonth(ctx, core.MonthToken(now.UTC().Year(), int(now.UTC().Month())))
}

func (w *AlertWorker) checkBudget(ctx context.Context, userID int64, month string) error {
	budget, err := w.store.GetBudget(ctx, userID, month)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get budget: %w", err)
	}

	start, end, err := core.MonthRange(month)
	if err != nil {
		return err
	}

	spentCents, err := w.store.SumExpenseCentsInRange(ctx, userID, start, end)
	if err != nil {
		return fmt.Errorf("sum expenses: %w", err)
	}

	budgetCents := budget.Amount.Cents()
	switch {
	case spentCents > budgetCents:
		w.logger.WarnContext(ctx, "Budget exceeded",
			log.FieldUserID, userID,
			log.FieldMonth, month,
			"budget_cents", budgetCents,
			"spent_cents", spentCents,
			"over_cents", spentCents-budgetCents)
	case budgetCents > 0 && float64(spentCents) >= w.warnThreshold*float64(budgetCents):
		w.logger.WarnContext(ctx, "Budget nearly exhausted",
			log.FieldUserID, userID,
			log.FieldMonth, month,
			"budget_cents", budgetCents,
			"spent_cents", spentCents)
	default:
		w.logger.DebugContext(ctx, "Budget within limits",
			log.FieldUserID, userID,
			log.FieldMonth, month,
			"budget_cents", budgetCents,
			"spent_cents", spentCents)
	}

	return nil
}
