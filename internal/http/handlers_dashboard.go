package http

import (
	"net/http"
)

// dashboardView is the cached, template-ready dashboard payload.
type dashboardView struct {
	Income     string
	Expense    string
	Balance    string
	Categories []categoryRow
	Recent     []entryRow
}

type categoryRow struct {
	Category string
	Amount   string
}

const recentEntries = 5

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := currentUser(r)

	if wantsJSON(r) {
		s.serveDashboardJSON(w, r, userID)
		return
	}

	key := cacheKeyPrefix(userID) + "dashboard"
	if view, ok := s.dashCache.Get(key); ok {
		s.render(w, r, "dashboard.html", view)
		return
	}

	view, err := s.buildDashboard(r, userID)
	if err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	s.dashCache.Set(key, view)
	s.render(w, r, "dashboard.html", view)
}

func (s *Server) serveDashboardJSON(w http.ResponseWriter, r *http.Request, userID int64) {
	ctx := r.Context()

	totals, err := s.finance.Totals(ctx, userID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	byCategory, err := s.finance.ExpenseByCategory(ctx, userID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	categories := make([]map[string]any, 0, len(byCategory))
	for _, c := range byCategory {
		categories = append(categories, map[string]any{
			"category":     c.Category,
			"amount_cents": c.Amount.Cents(),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"income_cents":  totals.Income.Cents(),
		"expense_cents": totals.Expense.Cents(),
		"balance_cents": totals.Balance.Cents(),
		"by_category":   categories,
	})
}

func (s *Server) buildDashboard(r *http.Request, userID int64) (dashboardView, error) {
	ctx := r.Context()

	totals, err := s.finance.Totals(ctx, userID)
	if err != nil {
		return dashboardView{}, err
	}

	byCategory, err := s.finance.ExpenseByCategory(ctx, userID)
	if err != nil {
		return dashboardView{}, err
	}

	expenses, err := s.finance.ListExpenses(ctx, userID)
	if err != nil {
		return dashboardView{}, err
	}

	view := dashboardView{
		Income:  s.formatMoney(totals.Income),
		Expense: s.formatMoney(totals.Expense),
		Balance: s.formatMoney(totals.Balance),
	}

	for _, c := range byCategory {
		view.Categories = append(view.Categories, categoryRow{
			Category: c.Category,
			Amount:   s.formatMoney(c.Amount),
		})
	}

	for i, e := range expenses {
		if i == recentEntries {
			break
		}
		view.Recent = append(view.Recent, entryRow{
			ID:     e.ID,
			Date:   e.Date.ISO(),
			Amount: s.formatMoney(e.Amount),
			Label:  e.Category,
			Note:   e.Note,
		})
	}

	return view, nil
}
