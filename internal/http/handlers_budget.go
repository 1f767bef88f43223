package http

import (
	"errors"
	"net/http"

	"finflow/internal/core"
	"finflow/internal/services"
)

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderBudgetPage(w, r, "")
	case http.MethodPost:
		s.setBudget(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderBudgetPage(w http.ResponseWriter, r *http.Request, errMsg string) {
	userID := currentUser(r)
	month := monthParam(r)

	data := map[string]any{
		"Month": month,
		"Error": errMsg,
	}

	budget, err := s.finance.GetBudget(r.Context(), userID, month)
	switch {
	case err == nil:
		data["Month"] = budget.Month
		data["Budget"] = s.formatMoney(budget.Amount)
	case errors.Is(err, services.ErrBudgetNotSet):
		// Page still renders; the form lets the user set one.
	case errors.Is(err, core.ErrInvalidMonth):
		http.Error(w, "invalid month", http.StatusBadRequest)
		return
	default:
		http.Error(w, "failed to load budget", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "budget.html", data)
}

func (s *Server) setBudget(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.entryError(w, r, "budget.html", "Invalid request body", http.StatusBadRequest)
		return
	}

	month := parser.Get("month")
	if month == "" {
		month = monthParam(r)
	}

	amount, err := core.ParseAmount(parser.Value("amount"))
	if err != nil {
		if parser.IsJSON() {
			respondJSONError(w, http.StatusBadRequest, "could not parse amount")
			return
		}
		s.renderBudgetPage(w, r, "Could not understand the amount")
		return
	}

	budget, err := s.finance.SetBudget(r.Context(), userID, month, core.Money{Amount: amount})
	if err != nil {
		if errors.Is(err, core.ErrInvalidMonth) {
			s.entryError(w, r, "budget.html", "Invalid month, expected YYYY-MM", http.StatusBadRequest)
			return
		}
		s.entryError(w, r, "budget.html", "Could not save the budget: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.invalidateUserCaches(userID)

	if parser.IsJSON() {
		respondJSON(w, http.StatusOK, map[string]any{
			"month":        budget.Month,
			"amount_cents": budget.Amount.Cents(),
		})
		return
	}
	http.Redirect(w, r, "/finance/budget?month="+budget.Month, http.StatusSeeOther)
}
