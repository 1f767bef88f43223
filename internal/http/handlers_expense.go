package http

import (
	"errors"
	"net/http"

	"finflow/internal/core"
	"finflow/internal/storage"
)

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderExpensesPage(w, r, "")
	case http.MethodPost:
		s.createExpense(w, r)
	case http.MethodDelete:
		s.handleDeleteExpense(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderExpensesPage(w http.ResponseWriter, r *http.Request, errMsg string) {
	userID := currentUser(r)

	entries, err := s.finance.ListExpenses(r.Context(), userID)
	if err != nil {
		http.Error(w, "failed to load expense entries", http.StatusInternalServerError)
		return
	}

	rows := make([]entryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, entryRow{
			ID:     e.ID,
			Date:   e.Date.ISO(),
			Amount: s.formatMoney(e.Amount),
			Label:  e.Category,
			Note:   e.Note,
		})
	}

	s.render(w, r, "expenses.html", map[string]any{
		"Entries": rows,
		"Error":   errMsg,
	})
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.entryError(w, r, "expenses.html", "Invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := core.ParseAmount(parser.Value("amount"))
	if err != nil {
		if parser.IsJSON() {
			respondJSONError(w, http.StatusBadRequest, "could not parse amount")
			return
		}
		s.renderExpensesPage(w, r, "Could not understand the amount")
		return
	}

	// Blank categories land in a catch-all bucket instead of failing.
	category := parser.Get("category")
	if category == "" {
		category = "Others"
	}

	entry := core.ExpenseEntry{
		UserID:   userID,
		Amount:   core.Money{Amount: amount},
		Category: category,
		Date:     core.ParseDateOrToday(parser.Value("date")),
		Note:     parser.Get("note"),
	}

	created, err := s.finance.CreateExpense(r.Context(), entry)
	if err != nil {
		s.entryError(w, r, "expenses.html", "Could not save the entry: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.invalidateUserCaches(userID)

	if parser.IsJSON() {
		respondJSON(w, http.StatusCreated, map[string]any{"id": created.ID})
		return
	}
	http.Redirect(w, r, "/finance/expenses", http.StatusSeeOther)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := currentUser(r)

	id, err := entryID(r)
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}

	if err := s.finance.DeleteExpense(r.Context(), userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete entry", http.StatusInternalServerError)
		return
	}

	s.invalidateUserCaches(userID)

	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/finance/expenses", http.StatusSeeOther)
}
