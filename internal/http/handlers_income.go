package http

import (
	"errors"
	"net/http"
	"strconv"

	"finflow/internal/core"
	"finflow/internal/storage"
)

// entryRow is the template-facing shape of a single income or expense line.
type entryRow struct {
	ID     int64
	Date   string
	Amount string
	Label  string
	Note   string
}

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderIncomePage(w, r, "")
	case http.MethodPost:
		s.createIncome(w, r)
	case http.MethodDelete:
		s.handleDeleteIncome(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderIncomePage(w http.ResponseWriter, r *http.Request, errMsg string) {
	userID := currentUser(r)

	entries, err := s.finance.ListIncomes(r.Context(), userID)
	if err != nil {
		http.Error(w, "failed to load income entries", http.StatusInternalServerError)
		return
	}

	rows := make([]entryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, entryRow{
			ID:     e.ID,
			Date:   e.Date.ISO(),
			Amount: s.formatMoney(e.Amount),
			Label:  e.Source,
			Note:   e.Note,
		})
	}

	s.render(w, r, "income.html", map[string]any{
		"Entries": rows,
		"Error":   errMsg,
	})
}

func (s *Server) createIncome(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.entryError(w, r, "income.html", "Invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := core.ParseAmount(parser.Value("amount"))
	if err != nil {
		if parser.IsJSON() {
			respondJSONError(w, http.StatusBadRequest, "could not parse amount")
			return
		}
		s.renderIncomePage(w, r, "Could not understand the amount")
		return
	}

	// Blank sources get a generic label instead of failing.
	source := parser.Get("source")
	if source == "" {
		source = "Income"
	}

	entry := core.IncomeEntry{
		UserID: userID,
		Amount: core.Money{Amount: amount},
		Source: source,
		Date:   core.ParseDateOrToday(parser.Value("date")),
		Note:   parser.Get("note"),
	}

	created, err := s.finance.CreateIncome(r.Context(), entry)
	if err != nil {
		s.entryError(w, r, "income.html", "Could not save the entry: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.invalidateUserCaches(userID)

	if parser.IsJSON() {
		respondJSON(w, http.StatusCreated, map[string]any{"id": created.ID})
		return
	}
	http.Redirect(w, r, "/finance/income", http.StatusSeeOther)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
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

	if err := s.finance.DeleteIncome(r.Context(), userID, id); err != nil {
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
	http.Redirect(w, r, "/finance/income", http.StatusSeeOther)
}

// entryID reads the id of a delete request, from the form body or the
// query string.
func entryID(r *http.Request) (int64, error) {
	if err := r.ParseForm(); err != nil {
		return 0, err
	}
	return strconv.ParseInt(r.FormValue("id"), 10, 64)
}

func (s *Server) entryError(w http.ResponseWriter, r *http.Request, page, msg string, status int) {
	if wantsJSON(r) {
		respondJSONError(w, status, msg)
		return
	}
	w.WriteHeader(status)
	s.render(w, r, page, map[string]any{"Error": msg})
}
