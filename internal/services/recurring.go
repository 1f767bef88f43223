package services

import (
	"context"
	"fmt"
	"time"

	"finflow/internal/core"
	"finflow/internal/log"
)

// RecurringStore lists templates across all users and records executions.
type RecurringStore interface {
	ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error)
	UpdateRecurringLastExecution(ctx context.Context, id int64, executed time.Time) error
}

// RecurringProcessor materializes due recurring templates into real
// income and expense entries through the finance service.
type RecurringProcessor struct {
	store   RecurringStore
	finance *FinanceService
	logger  *log.Logger
}

func NewRecurringProcessor(store RecurringStore, finance *FinanceService, logger *log.Logger) *RecurringProcessor {
	return &RecurringProcessor{
		store:   store,
		finance: finance,
		logger:  logger.WithComponent(log.ComponentRecurring),
	}
}

// ProcessDue walks all templates and materializes the due ones. Failures
// on individual templates are logged and skipped so one broken row cannot
// stall the rest.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.finance == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.store.ListRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring transactions: %w", err)
	}

	p.logger.InfoContext(ctx, "Processing recurring transactions",
		"total", len(templates),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, rt := range templates {
		if !p.isActive(rt, now) {
			continue
		}

		checker, err := GetDuenessChecker(rt.Every)
		if err != nil {
			p.logger.ErrorContext(ctx, "Skipping template with unknown frequency",
				log.FieldEntryID, rt.ID,
				log.FieldError, err.Error())
			continue
		}

		if !checker.IsDue(rt.LastExecution, now, rt.StartDate) {
			continue
		}

		if err := p.materialize(ctx, rt, now); err != nil {
			p.logger.ErrorContext(ctx, "Failed to materialize recurring transaction",
				log.FieldEntryID, rt.ID,
				log.FieldError, err.Error())
			continue
		}

		if err := p.store.UpdateRecurringLastExecution(ctx, rt.ID, now); err != nil {
			// The entry exists; next run may duplicate it, which is
			// preferable to silently dropping it.
			p.logger.ErrorContext(ctx, "Failed to record execution",
				log.FieldEntryID, rt.ID,
				log.FieldError, err.Error())
		}

		processed++
		p.logger.InfoContext(ctx, "Materialized recurring transaction",
			log.FieldEntryID, rt.ID,
			log.FieldKind, string(rt.Kind),
			log.FieldCents, rt.Amount.Cents(),
			"every", string(rt.Every))
	}

	p.logger.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"total_checked", len(templates))

	return processed, nil
}

func (p *RecurringProcessor) isActive(rt core.RecurringTransaction, now time.Time) bool {
	if now.Before(rt.StartDate.Time) {
		return false
	}
	if !rt.EndDate.IsZero() && now.After(rt.EndDate.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func (p *RecurringProcessor) materialize(ctx context.Context, rt core.RecurringTransaction, now time.Time) error {
	date := core.NewDate(now.Year(), int(now.Month()), now.Day())

	switch rt.Kind {
	case core.Income:
		_, err := p.finance.CreateIncome(ctx, core.IncomeEntry{
			UserID: rt.UserID,
			Amount: rt.Amount,
			Source: rt.Label,
			Date:   date,
		})
		return err
	case core.Expense:
		_, err := p.finance.CreateExpense(ctx, core.ExpenseEntry{
			UserID:   rt.UserID,
			Amount:   rt.Amount,
			Category: rt.Label,
			Date:     date,
		})
		return err
	default:
		return fmt.Errorf("unknown transaction kind: %s", rt.Kind)
	}
}
